package models

import "time"

// LicenseStatus is the activation state of a license.
type LicenseStatus string

// LicenseStatus values.
const (
	// LicenseStatusInactive marks a license that has not been activated.
	LicenseStatusInactive LicenseStatus = "inactive"
	// LicenseStatusActive marks an activated license.
	LicenseStatusActive LicenseStatus = "active"
)

// License tracks whether a profile may use the client. One row per user.
type License struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID string        `gorm:"type:varchar(36);not null;uniqueIndex"`        // Owning profile ID.
	Status LicenseStatus `gorm:"type:varchar(16);not null;default:'inactive'"` // Activation state.

	ActivatedAt *time.Time // First activation timestamp.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// IsActive reports whether the license is active.
func (l *License) IsActive() bool {
	return l != nil && l.Status == LicenseStatusActive
}
