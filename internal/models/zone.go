package models

import (
	"time"

	"gorm.io/datatypes"
)

// Zone is a serviceable delivery area covering a set of pincodes.
type Zone struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name     string         `gorm:"type:text;not null"` // Zone display name.
	Pincodes datatypes.JSON `gorm:"type:jsonb"`         // JSON array of covered pincodes.

	IsServiceable bool `gorm:"not null;default:true"` // Whether orders may be delivered here.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
