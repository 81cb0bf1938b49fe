package models

import "time"

// Address is a customer delivery address.
type Address struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID  uint64 `gorm:"not null;index"`     // Owning user ID.
	Line1   string `gorm:"type:text;not null"` // Street address.
	Pincode string `gorm:"type:text;not null;index"` // Postal code used for zone lookup.

	ZoneID *uint64 `gorm:"index"` // Resolved delivery zone, if known.

	IsDefault bool `gorm:"not null;default:false"` // User-flagged default address.
	IsDeleted bool `gorm:"not null;default:false"` // Soft-delete flag.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
