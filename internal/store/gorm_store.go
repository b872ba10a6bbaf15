package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sebastian05-bossu/1337loader/internal/db"
	"github.com/sebastian05-bossu/1337loader/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Listing bounds applied when ListOptions leaves them unset or out of range.
const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// GormStore implements RecordStore on top of GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore constructs a GormStore.
func NewGormStore(conn *gorm.DB) *GormStore {
	return &GormStore{db: conn}
}

// DB exposes the underlying connection.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// GetAdminGrant returns the admin grant for userID.
func (s *GormStore) GetAdminGrant(ctx context.Context, userID string) (models.AdminUser, error) {
	var grant models.AdminUser
	errFind := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&grant).Error
	return grant, translate("get admin grant", errFind)
}

// GetActiveBan returns the active ban for userID.
func (s *GormStore) GetActiveBan(ctx context.Context, userID string) (models.UserBan, error) {
	var ban models.UserBan
	errFind := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Take(&ban).Error
	return ban, translate("get active ban", errFind)
}

// GetAccessKeyByKey returns the access key with an exact key match.
func (s *GormStore) GetAccessKeyByKey(ctx context.Context, key string) (models.AccessKey, error) {
	var accessKey models.AccessKey
	errFind := s.db.WithContext(ctx).Where("key = ?", key).Take(&accessKey).Error
	return accessKey, translate("get access key", errFind)
}

// ConditionalUpdateAccessKey applies next to the key only when its stored state matches expected.
// The check and the write are a single UPDATE; applied reports whether exactly one row changed.
func (s *GormStore) ConditionalUpdateAccessKey(ctx context.Context, id uint64, expected KeyMatch, next KeyUpdate) (bool, error) {
	query := s.db.WithContext(ctx).Model(&models.AccessKey{}).
		Where("id = ? AND is_used = ?", id, expected.IsUsed)

	if expected.RedeemedByIn != nil {
		allowNull := false
		values := make([]string, 0, len(expected.RedeemedByIn))
		for _, v := range expected.RedeemedByIn {
			if v == "" {
				allowNull = true
				continue
			}
			values = append(values, v)
		}
		switch {
		case allowNull && len(values) > 0:
			query = query.Where("(redeemed_by IS NULL OR redeemed_by IN ?)", values)
		case allowNull:
			query = query.Where("redeemed_by IS NULL")
		case len(values) > 0:
			query = query.Where("redeemed_by IN ?", values)
		default:
			return false, nil
		}
	}

	updates := map[string]any{
		"is_used":     next.IsUsed,
		"redeemed_by": nullableString(next.RedeemedBy),
	}
	if next.RedeemedAt.IsZero() {
		updates["redeemed_at"] = nil
	} else {
		updates["redeemed_at"] = next.RedeemedAt.UTC()
	}

	res := query.Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("store: conditional update access key: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// InsertAccessKey creates a new unused key.
func (s *GormStore) InsertAccessKey(ctx context.Context, key string, createdBy string) (models.AccessKey, error) {
	accessKey := models.AccessKey{
		Key:       key,
		CreatedBy: nullableString(createdBy),
	}
	if errCreate := s.db.WithContext(ctx).Create(&accessKey).Error; errCreate != nil {
		return models.AccessKey{}, translate("insert access key", errCreate)
	}
	return accessKey, nil
}

// UpsertLicense sets the license status for userID, creating the row when missing.
// The first activation timestamp is preserved across repeated activations.
func (s *GormStore) UpsertLicense(ctx context.Context, userID string, status models.LicenseStatus) error {
	now := time.Now().UTC()
	license := models.License{
		UserID:    userID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	var activatedAt any
	if status == models.LicenseStatusActive {
		license.ActivatedAt = &now
		activatedAt = now
	}

	errUpsert := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"status":       status,
			"updated_at":   now,
			"activated_at": gorm.Expr("COALESCE(licenses.activated_at, ?)", activatedAt),
		}),
	}).Create(&license).Error
	if errUpsert != nil {
		return fmt.Errorf("store: upsert license: %w", errUpsert)
	}
	return nil
}

// GetLicense returns the license for userID.
func (s *GormStore) GetLicense(ctx context.Context, userID string) (models.License, error) {
	var license models.License
	errFind := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&license).Error
	return license, translate("get license", errFind)
}

// GetProfile returns the profile with the given ID.
func (s *GormStore) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	var profile models.Profile
	errFind := s.db.WithContext(ctx).Where("id = ?", userID).Take(&profile).Error
	return profile, translate("get profile", errFind)
}

// GetProfileByEmail returns the profile whose email matches case-insensitively.
func (s *GormStore) GetProfileByEmail(ctx context.Context, email string) (models.Profile, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return models.Profile{}, ErrNotFound
	}
	var profile models.Profile
	errFind := s.db.WithContext(ctx).Where(db.LowerEqualExpr("email"), normalized).Take(&profile).Error
	return profile, translate("get profile by email", errFind)
}

// InsertBan creates an active ban. A user with an active ban yields ErrConflict.
func (s *GormStore) InsertBan(ctx context.Context, userID, bannedBy, reason string) (models.UserBan, error) {
	ban := models.UserBan{
		UserID:   userID,
		BannedBy: nullableString(bannedBy),
		Reason:   reason,
		IsActive: true,
	}
	if errCreate := s.db.WithContext(ctx).Create(&ban).Error; errCreate != nil {
		return models.UserBan{}, translate("insert ban", errCreate)
	}
	return ban, nil
}

// DeactivateBans clears the active flag on every active ban of userID.
func (s *GormStore) DeactivateBans(ctx context.Context, userID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.UserBan{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Updates(map[string]any{
			"is_active":  false,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("store: deactivate bans: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ListProfiles returns profiles newest first, optionally filtered by email substring.
func (s *GormStore) ListProfiles(ctx context.Context, opts ListOptions) ([]models.Profile, error) {
	query := s.db.WithContext(ctx).Model(&models.Profile{})
	if q := strings.TrimSpace(opts.Query); q != "" {
		pattern := "%" + db.EscapeLike(q) + "%"
		query = query.Where(db.CaseInsensitiveLikeExpr(s.db, "email"), db.NormalizeLikePattern(s.db, pattern))
	}
	var profiles []models.Profile
	if errFind := paginate(query, opts).Order("created_at DESC").Find(&profiles).Error; errFind != nil {
		return nil, fmt.Errorf("store: list profiles: %w", errFind)
	}
	return profiles, nil
}

// ListActiveBans returns active bans newest first with the banned user's email.
func (s *GormStore) ListActiveBans(ctx context.Context, opts ListOptions) ([]ActiveBan, error) {
	var bans []models.UserBan
	query := s.db.WithContext(ctx).Model(&models.UserBan{}).Where("is_active = ?", true)
	if errFind := paginate(query, opts).Order("created_at DESC").Find(&bans).Error; errFind != nil {
		return nil, fmt.Errorf("store: list active bans: %w", errFind)
	}
	if len(bans) == 0 {
		return []ActiveBan{}, nil
	}

	userIDs := make([]string, 0, len(bans))
	for _, ban := range bans {
		userIDs = append(userIDs, ban.UserID)
	}
	var profiles []models.Profile
	if errFind := s.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&profiles).Error; errFind != nil {
		return nil, fmt.Errorf("store: list banned profiles: %w", errFind)
	}
	emails := make(map[string]string, len(profiles))
	for _, profile := range profiles {
		emails[profile.ID] = profile.Email
	}

	out := make([]ActiveBan, 0, len(bans))
	for _, ban := range bans {
		out = append(out, ActiveBan{UserBan: ban, Email: emails[ban.UserID]})
	}
	return out, nil
}

// ListAccessKeys returns access keys newest first, optionally filtered by key substring.
func (s *GormStore) ListAccessKeys(ctx context.Context, opts ListOptions) ([]models.AccessKey, error) {
	query := s.db.WithContext(ctx).Model(&models.AccessKey{})
	if q := strings.TrimSpace(opts.Query); q != "" {
		pattern := "%" + db.EscapeLike(q) + "%"
		query = query.Where(db.CaseInsensitiveLikeExpr(s.db, "key"), db.NormalizeLikePattern(s.db, pattern))
	}
	var keys []models.AccessKey
	if errFind := paginate(query, opts).Order("created_at DESC").Order("id DESC").Find(&keys).Error; errFind != nil {
		return nil, fmt.Errorf("store: list access keys: %w", errFind)
	}
	return keys, nil
}

// GrantAdmin creates or updates the admin grant for userID.
func (s *GormStore) GrantAdmin(ctx context.Context, userID string, isOwner bool) error {
	now := time.Now().UTC()
	grant := models.AdminUser{
		UserID:    userID,
		IsOwner:   isOwner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	errUpsert := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"is_owner":   isOwner,
			"updated_at": now,
		}),
	}).Create(&grant).Error
	if errUpsert != nil {
		return fmt.Errorf("store: grant admin: %w", errUpsert)
	}
	return nil
}

// HasOwner reports whether any owner grant exists.
func (s *GormStore) HasOwner(ctx context.Context) (bool, error) {
	var count int64
	if errCount := s.db.WithContext(ctx).Model(&models.AdminUser{}).Where("is_owner = ?", true).Count(&count).Error; errCount != nil {
		return false, fmt.Errorf("store: count owners: %w", errCount)
	}
	return count > 0, nil
}

// paginate applies limit and offset bounds.
func paginate(query *gorm.DB, opts ListOptions) *gorm.DB {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	return query.Limit(limit).Offset(offset)
}

// translate maps driver errors onto the store sentinels.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case db.IsUniqueViolation(err):
		return fmt.Errorf("%w: %s: %v", ErrConflict, op, err)
	default:
		return fmt.Errorf("store: %s: %w", op, err)
	}
}

// nullableString maps "" to NULL.
func nullableString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
