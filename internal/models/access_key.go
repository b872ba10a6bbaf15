package models

import "time"

// AccessKey is a single-use key that activates a license when redeemed.
type AccessKey struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Key        string  `gorm:"type:varchar(128);not null;uniqueIndex"` // Immutable key string.
	IsUsed     bool    `gorm:"not null;default:false;index"`           // Consumed flag.
	RedeemedBy *string `gorm:"type:varchar(36);index"`                 // Redeeming profile ID.
	CreatedBy  *string `gorm:"type:varchar(36)"`                       // Owner who generated the key.

	CreatedAt  time.Time  `gorm:"not null;autoCreateTime"` // Creation timestamp.
	RedeemedAt *time.Time // Redemption timestamp.
}
