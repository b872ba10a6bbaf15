package models

import "time"

// Credential holds the identity provider secrets for a profile.
type Credential struct {
	UserID string `gorm:"type:varchar(36);primaryKey"` // Profile ID.

	PasswordHash string `gorm:"type:text;not null"` // bcrypt hash.

	TOTPSecret  string `gorm:"type:text"`              // Pending or confirmed TOTP secret.
	TOTPEnabled bool   `gorm:"not null;default:false"` // Whether sign-in requires a TOTP code.

	ResetTokenHash string     `gorm:"type:varchar(64);index"` // sha256 of the outstanding reset token.
	ResetExpiresAt *time.Time // Reset token expiry.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
