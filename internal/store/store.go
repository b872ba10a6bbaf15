package store

import (
	"context"
	"errors"
	"time"

	"github.com/sebastian05-bossu/1337loader/internal/models"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("store: record not found")
	// ErrConflict indicates a uniqueness constraint rejected the write.
	ErrConflict = errors.New("store: conflict")
)

// KeyMatch describes the state an access key must hold for a conditional update to apply.
type KeyMatch struct {
	IsUsed bool
	// RedeemedByIn lists acceptable redeemed_by values; "" stands for no redeemer. Nil disables the check.
	RedeemedByIn []string
}

// KeyUpdate is the state written by a conditional update.
type KeyUpdate struct {
	IsUsed     bool
	RedeemedBy string
	RedeemedAt time.Time
}

// ListOptions bounds admin listings.
type ListOptions struct {
	Query  string // Case-insensitive substring filter where supported.
	Limit  int
	Offset int
}

// ActiveBan is an active ban joined with the banned profile's email.
type ActiveBan struct {
	models.UserBan
	Email string `json:"email"`
}

// RecordStore is the persistence contract shared by the resolver, redeemer and admin actions.
// Every write that must not race is expressed as a single conditional statement.
type RecordStore interface {
	GetAdminGrant(ctx context.Context, userID string) (models.AdminUser, error)
	GetActiveBan(ctx context.Context, userID string) (models.UserBan, error)

	GetAccessKeyByKey(ctx context.Context, key string) (models.AccessKey, error)
	ConditionalUpdateAccessKey(ctx context.Context, id uint64, expected KeyMatch, next KeyUpdate) (bool, error)
	InsertAccessKey(ctx context.Context, key string, createdBy string) (models.AccessKey, error)

	UpsertLicense(ctx context.Context, userID string, status models.LicenseStatus) error
	GetLicense(ctx context.Context, userID string) (models.License, error)

	GetProfile(ctx context.Context, userID string) (models.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (models.Profile, error)

	InsertBan(ctx context.Context, userID, bannedBy, reason string) (models.UserBan, error)
	DeactivateBans(ctx context.Context, userID string) (int64, error)

	ListProfiles(ctx context.Context, opts ListOptions) ([]models.Profile, error)
	ListActiveBans(ctx context.Context, opts ListOptions) ([]ActiveBan, error)
	ListAccessKeys(ctx context.Context, opts ListOptions) ([]models.AccessKey, error)
}
