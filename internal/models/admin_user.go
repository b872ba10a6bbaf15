package models

import "time"

// AdminUser grants elevated access to a profile. Presence implies admin; IsOwner implies owner.
type AdminUser struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID  string `gorm:"type:varchar(36);not null;uniqueIndex"` // Granted profile ID.
	IsOwner bool   `gorm:"not null;default:false"`                // Owner flag.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
