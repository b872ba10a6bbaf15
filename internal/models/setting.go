package models

import (
	"database/sql/driver"
	"strconv"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Setting stores a runtime-tunable value as JSON.
type Setting struct {
	Key   string       `gorm:"type:varchar(128);primaryKey"` // Setting key.
	Value SettingValue // JSON encoded value.

	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// SettingValue is a raw JSON document stored as jsonb on Postgres and as text elsewhere.
// SQLite gives a jsonb column numeric affinity, which would turn "10" into an integer cell.
type SettingValue datatypes.JSON

// GormDataType returns the generic data type.
func (SettingValue) GormDataType() string {
	return "json"
}

// GormDBDataType picks the column type per dialect.
func (SettingValue) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db != nil && db.Dialector != nil && db.Dialector.Name() == "postgres" {
		return "JSONB"
	}
	return "TEXT"
}

// Value writes the document as a string.
func (v SettingValue) Value() (driver.Value, error) {
	if len(v) == 0 {
		return nil, nil
	}
	return string(v), nil
}

// Scan accepts text and blob cells, plus numeric and boolean cells left by older schemas.
func (v *SettingValue) Scan(src any) error {
	switch value := src.(type) {
	case nil:
		*v = nil
		return nil
	case int64:
		*v = SettingValue(strconv.FormatInt(value, 10))
		return nil
	case float64:
		*v = SettingValue(strconv.FormatFloat(value, 'f', -1, 64))
		return nil
	case bool:
		*v = SettingValue(strconv.FormatBool(value))
		return nil
	}
	return (*datatypes.JSON)(v).Scan(src)
}

// MarshalJSON emits the stored document unchanged.
func (v SettingValue) MarshalJSON() ([]byte, error) {
	return datatypes.JSON(v).MarshalJSON()
}

// UnmarshalJSON stores a copy of data.
func (v *SettingValue) UnmarshalJSON(data []byte) error {
	return (*datatypes.JSON)(v).UnmarshalJSON(data)
}

// String returns the raw document.
func (v SettingValue) String() string {
	return string(v)
}
