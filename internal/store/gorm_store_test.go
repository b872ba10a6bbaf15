package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sebastian05-bossu/1337loader/internal/db"
	"github.com/sebastian05-bossu/1337loader/internal/models"
)

func openTestStore(t *testing.T) *GormStore {
	t.Helper()
	conn, err := db.Open("file:" + filepath.Join(t.TempDir(), "store-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return NewGormStore(conn)
}

func createProfile(t *testing.T, s *GormStore, id, email string) {
	t.Helper()
	if errCreate := s.DB().Create(&models.Profile{ID: id, Email: email}).Error; errCreate != nil {
		t.Fatalf("create profile: %v", errCreate)
	}
}

func TestGetMissingRecordsReturnNotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.GetAdminGrant(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetAdminGrant: expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetActiveBan(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetActiveBan: expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetAccessKeyByKey(ctx, "NOPE-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetAccessKeyByKey: expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetLicense(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetLicense: expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetProfileByEmail(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetProfileByEmail empty: expected ErrNotFound, got %v", err)
	}
}

func TestGetProfileByEmailIsCaseInsensitive(t *testing.T) {
	s := openTestStore(t)
	createProfile(t, s, "u1", "player@example.com")

	profile, err := s.GetProfileByEmail(context.Background(), "  Player@Example.COM ")
	if err != nil {
		t.Fatalf("GetProfileByEmail: %v", err)
	}
	if profile.ID != "u1" {
		t.Fatalf("expected u1, got %q", profile.ID)
	}
}

func TestInsertAccessKeyDuplicateConflicts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.InsertAccessKey(ctx, "1337-AAAA", "owner"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.InsertAccessKey(ctx, "1337-AAAA", "owner"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestConditionalUpdateAccessKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	key, err := s.InsertAccessKey(ctx, "1337-CAS", "")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	expect := KeyMatch{IsUsed: false, RedeemedByIn: []string{"", "u1"}}
	applied, err := s.ConditionalUpdateAccessKey(ctx, key.ID, expect, KeyUpdate{IsUsed: true, RedeemedBy: "u1", RedeemedAt: time.Now()})
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	if !applied {
		t.Fatalf("expected first update to apply")
	}

	applied, err = s.ConditionalUpdateAccessKey(ctx, key.ID, KeyMatch{IsUsed: false, RedeemedByIn: []string{"", "u2"}}, KeyUpdate{IsUsed: true, RedeemedBy: "u2", RedeemedAt: time.Now()})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if applied {
		t.Fatalf("expected second update to be rejected")
	}

	stored, err := s.GetAccessKeyByKey(ctx, "1337-CAS")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !stored.IsUsed || stored.RedeemedBy == nil || *stored.RedeemedBy != "u1" || stored.RedeemedAt == nil {
		t.Fatalf("unexpected stored key: %+v", stored)
	}
}

func TestConditionalUpdateAccessKeyRespectsReservation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	key, err := s.InsertAccessKey(ctx, "1337-RES", "")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if errUpdate := s.DB().Model(&models.AccessKey{}).Where("id = ?", key.ID).Update("redeemed_by", "u1").Error; errUpdate != nil {
		t.Fatalf("reserve: %v", errUpdate)
	}

	applied, err := s.ConditionalUpdateAccessKey(ctx, key.ID, KeyMatch{RedeemedByIn: []string{"", "u2"}}, KeyUpdate{IsUsed: true, RedeemedBy: "u2", RedeemedAt: time.Now()})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if applied {
		t.Fatalf("expected reserved key to reject another user")
	}

	applied, err = s.ConditionalUpdateAccessKey(ctx, key.ID, KeyMatch{RedeemedByIn: []string{"", "u1"}}, KeyUpdate{IsUsed: true, RedeemedBy: "u1", RedeemedAt: time.Now()})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !applied {
		t.Fatalf("expected reserving user to complete redemption")
	}
}

func TestConditionalUpdateAccessKeySingleWinner(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	key, err := s.InsertAccessKey(ctx, "1337-RACE", "")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	const workers = 8
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			user := string(rune('a' + n))
			applied, errUpdate := s.ConditionalUpdateAccessKey(ctx, key.ID,
				KeyMatch{RedeemedByIn: []string{"", user}},
				KeyUpdate{IsUsed: true, RedeemedBy: user, RedeemedAt: time.Now()})
			if errUpdate != nil {
				t.Errorf("update: %v", errUpdate)
				return
			}
			if applied {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins.Load())
	}
}

func TestUpsertLicenseKeepsFirstActivation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.UpsertLicense(ctx, "u1", models.LicenseStatusActive); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	first, err := s.GetLicense(ctx, "u1")
	if err != nil {
		t.Fatalf("get license: %v", err)
	}
	if !first.IsActive() || first.ActivatedAt == nil {
		t.Fatalf("expected active license with timestamp, got %+v", first)
	}

	time.Sleep(10 * time.Millisecond)
	if err = s.UpsertLicense(ctx, "u1", models.LicenseStatusActive); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	second, err := s.GetLicense(ctx, "u1")
	if err != nil {
		t.Fatalf("get license: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected a single license row, got ids %d and %d", first.ID, second.ID)
	}
	if second.ActivatedAt == nil || !second.ActivatedAt.Equal(*first.ActivatedAt) {
		t.Fatalf("expected activation timestamp preserved, got %v vs %v", second.ActivatedAt, first.ActivatedAt)
	}
}

func TestBanLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	createProfile(t, s, "u3", "u3@example.com")

	if _, err := s.InsertBan(ctx, "u3", "owner", "cheating"); err != nil {
		t.Fatalf("insert ban: %v", err)
	}
	if _, err := s.InsertBan(ctx, "u3", "owner", "again"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for second active ban, got %v", err)
	}

	bans, err := s.ListActiveBans(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("list bans: %v", err)
	}
	if len(bans) != 1 || bans[0].Email != "u3@example.com" || bans[0].Reason != "cheating" {
		t.Fatalf("unexpected bans: %+v", bans)
	}

	count, err := s.DeactivateBans(ctx, "u3")
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 deactivated ban, got %d", count)
	}
	if _, err = s.GetActiveBan(ctx, "u3"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected no active ban, got %v", err)
	}

	var rows int64
	if errCount := s.DB().Model(&models.UserBan{}).Where("user_id = ?", "u3").Count(&rows).Error; errCount != nil {
		t.Fatalf("count bans: %v", errCount)
	}
	if rows != 1 {
		t.Fatalf("expected ban history to be kept, got %d rows", rows)
	}
}

func TestGrantAdminAndHasOwner(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	hasOwner, err := s.HasOwner(ctx)
	if err != nil {
		t.Fatalf("HasOwner: %v", err)
	}
	if hasOwner {
		t.Fatalf("expected no owner on empty store")
	}

	if err = s.GrantAdmin(ctx, "u1", false); err != nil {
		t.Fatalf("grant admin: %v", err)
	}
	if err = s.GrantAdmin(ctx, "u1", true); err != nil {
		t.Fatalf("grant owner: %v", err)
	}
	grant, err := s.GetAdminGrant(ctx, "u1")
	if err != nil {
		t.Fatalf("get grant: %v", err)
	}
	if !grant.IsOwner {
		t.Fatalf("expected owner flag after upgrade")
	}
	hasOwner, err = s.HasOwner(ctx)
	if err != nil {
		t.Fatalf("HasOwner: %v", err)
	}
	if !hasOwner {
		t.Fatalf("expected owner to exist")
	}
}

func TestListProfilesFilter(t *testing.T) {
	s := openTestStore(t)
	createProfile(t, s, "u1", "alpha@example.com")
	createProfile(t, s, "u2", "beta@example.com")
	createProfile(t, s, "u3", "al_pha@example.com")

	profiles, err := s.ListProfiles(context.Background(), ListOptions{Query: "ALPHA"})
	if err != nil {
		t.Fatalf("list profiles: %v", err)
	}
	if len(profiles) != 1 || profiles[0].ID != "u1" {
		t.Fatalf("unexpected profiles: %+v", profiles)
	}

	profiles, err = s.ListProfiles(context.Background(), ListOptions{Query: "al_"})
	if err != nil {
		t.Fatalf("list profiles: %v", err)
	}
	if len(profiles) != 1 || profiles[0].ID != "u3" {
		t.Fatalf("expected underscore to match literally, got %+v", profiles)
	}
}
