package models

import "time"

// Profile is the public account record created on first registration.
type Profile struct {
	ID string `gorm:"type:varchar(36);primaryKey"` // Stable user ID issued at registration.

	Email string `gorm:"type:text;not null;uniqueIndex"` // Normalized (lower-case) email address.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
