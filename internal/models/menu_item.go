package models

import "time"

// Menu item categories.
const (
	// CategoryMainCourse marks a voucher-redeemable main course.
	CategoryMainCourse = "MAIN_COURSE"
	// CategoryAddon marks a paid add-on item.
	CategoryAddon = "ADDON"
)

// Menu item meal windows.
const (
	MenuWindowLunch  = "LUNCH"
	MenuWindowDinner = "DINNER"
	MenuWindowBoth   = "BOTH"
)

// MenuItem is a dish offered by a kitchen in a meal window.
type MenuItem struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	KitchenID uint64 `gorm:"not null;index"`     // Offering kitchen ID.
	Name      string `gorm:"type:text;not null"` // Dish display name.
	Category  string `gorm:"type:text;not null;default:'MAIN_COURSE'"` // MAIN_COURSE or ADDON.

	MealWindow string `gorm:"type:text;not null;default:'BOTH'"` // LUNCH, DINNER or BOTH.

	IsAvailable bool    `gorm:"not null;default:true"`                 // Availability flag.
	Price       float64 `gorm:"type:decimal(10,2);not null;default:0"` // Monetary price when not voucher-covered.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
