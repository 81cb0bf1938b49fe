package models

import "time"

// Kitchen is a fulfilment kitchen serving one delivery zone.
type Kitchen struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name   string `gorm:"type:text;not null"` // Kitchen display name.
	ZoneID uint64 `gorm:"not null;index"`     // Zone this kitchen serves.

	IsActive        bool `gorm:"not null;default:true"` // Whether the kitchen is operational.
	AcceptingOrders bool `gorm:"not null;default:true"` // Whether new orders are accepted.

	// Per-window ordering close times ("HH:MM" in the business timezone).
	// When set they override the global cutoff defaults for this kitchen.
	LunchCloseTime  string `gorm:"type:text"` // Lunch ordering close override.
	DinnerCloseTime string `gorm:"type:text"` // Dinner ordering close override.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Creation timestamp; earliest-created breaks ties.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`       // Last update timestamp.
}
