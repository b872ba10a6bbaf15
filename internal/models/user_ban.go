package models

import "time"

// UserBan records a ban issued against a profile. Rows are never deleted; unbanning clears IsActive.
type UserBan struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID   string  `gorm:"type:varchar(36);not null;index"` // Banned profile ID.
	BannedBy *string `gorm:"type:varchar(36)"`                // Owner who issued the ban.
	Reason   string  `gorm:"type:text;not null"`              // Free-form reason.
	IsActive bool    `gorm:"not null;index"`                  // At most one active row per user.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
