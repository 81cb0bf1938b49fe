package models

import "time"

// User is the minimal customer record the ordering core needs.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name  string `gorm:"type:text;not null"`        // Display name.
	Phone string `gorm:"type:text;not null;index"`  // Contact number for notifications.

	DefaultAddressID *uint64 `` // Flagged default delivery address, if any.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
