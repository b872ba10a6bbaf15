package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebastian05-bossu/1337loader/internal/config"
	"github.com/sebastian05-bossu/1337loader/internal/db"
	"github.com/sebastian05-bossu/1337loader/internal/identity"
	"github.com/sebastian05-bossu/1337loader/internal/store"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.Open("file:" + filepath.Join(t.TempDir(), "portal-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return conn
}

func TestHasOwnerInitialized(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	initialized, err := HasOwnerInitialized(ctx, conn)
	if err != nil {
		t.Fatalf("HasOwnerInitialized: %v", err)
	}
	if initialized {
		t.Fatalf("expected initialized=false before migrate")
	}

	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	svc := identity.NewService(conn, config.JWTConfig{Secret: "s", Expiry: time.Hour})
	if _, errRegister := svc.Register(ctx, "boss@example.com", "secret1"); errRegister != nil {
		t.Fatalf("register: %v", errRegister)
	}

	if errGrant := grantRoleWithConn(ctx, conn, "BOSS@example.com", false); errGrant != nil {
		t.Fatalf("grant admin: %v", errGrant)
	}
	initialized, err = HasOwnerInitialized(ctx, conn)
	if err != nil {
		t.Fatalf("HasOwnerInitialized after admin grant: %v", err)
	}
	if initialized {
		t.Fatalf("expected initialized=false with only a non-owner admin")
	}

	if errGrant := grantRoleWithConn(ctx, conn, "boss@example.com", true); errGrant != nil {
		t.Fatalf("grant owner: %v", errGrant)
	}
	initialized, err = HasOwnerInitialized(ctx, conn)
	if err != nil {
		t.Fatalf("HasOwnerInitialized after owner grant: %v", err)
	}
	if !initialized {
		t.Fatalf("expected initialized=true after owner granted")
	}

	profile, errFind := store.NewGormStore(conn).GetProfileByEmail(ctx, "boss@example.com")
	if errFind != nil {
		t.Fatalf("find profile: %v", errFind)
	}
	grant, errGrant := store.NewGormStore(conn).GetAdminGrant(ctx, profile.ID)
	if errGrant != nil {
		t.Fatalf("get grant: %v", errGrant)
	}
	if !grant.IsOwner {
		t.Fatalf("expected owner grant, got %+v", grant)
	}
}

func TestGrantRoleUnknownEmail(t *testing.T) {
	conn := openTestDB(t)
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	err := grantRoleWithConn(context.Background(), conn, "nobody@example.com", true)
	if !errors.Is(err, ErrUnknownEmail) {
		t.Fatalf("expected ErrUnknownEmail, got %v", err)
	}
	if errInvalid := grantRoleWithConn(context.Background(), conn, "not-an-email", true); !errors.Is(errInvalid, identity.ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", errInvalid)
	}
}
