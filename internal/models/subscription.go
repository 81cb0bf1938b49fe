package models

import (
	"time"

	"gorm.io/datatypes"
)

// Subscription statuses.
const (
	// SubscriptionStatusActive marks a subscription whose vouchers may be spent.
	SubscriptionStatusActive = "ACTIVE"
	// SubscriptionStatusExpired marks a subscription past its voucher expiry date.
	SubscriptionStatusExpired = "EXPIRED"
	// SubscriptionStatusCancelled marks a subscription cancelled by the customer or an admin.
	SubscriptionStatusCancelled = "CANCELLED"
)

// Default meal-type preferences for auto-ordering.
const (
	// MealPrefLunch auto-orders lunch only.
	MealPrefLunch = "LUNCH"
	// MealPrefDinner auto-orders dinner only.
	MealPrefDinner = "DINNER"
	// MealPrefBoth auto-orders both windows.
	MealPrefBoth = "BOTH"
)

// Subscription owns a pool of vouchers issued from a plan entitlement.
//
// VouchersUsed is a denormalized projection: it must always equal the count
// of this subscription's vouchers currently in REDEEMED status. Only
// internal/ledger may change it, in the same transaction as the voucher
// status writes it mirrors.
type Subscription struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"` // Owning user ID.
	PlanID uint64 `gorm:"not null"`       // Purchased plan ID.

	Status string `gorm:"type:text;not null;default:'ACTIVE';index"` // Lifecycle status.

	TotalVouchersIssued int       `gorm:"not null;default:0"` // Plan entitlement at activation.
	VouchersUsed        int       `gorm:"not null;default:0"` // Vouchers currently in REDEEMED status.
	VoucherExpiryDate   time.Time `gorm:"not null;index"`     // Expiry shared by the issued vouchers.

	AutoOrderingEnabled bool           `gorm:"not null;default:false"` // Opt-in for the nightly auto-order run.
	IsPaused            bool           `gorm:"not null;default:false"` // Pause flag for auto-ordering.
	PausedUntil         *time.Time     ``                              // End of the pause period, if bounded.
	SkippedSlots        datatypes.JSON `gorm:"type:jsonb"`             // JSON array of "YYYY-MM-DD:WINDOW" slots to skip.
	DefaultMealType     string         `gorm:"type:text;not null;default:'BOTH'"` // LUNCH, DINNER or BOTH.
	DefaultKitchenID    *uint64        ``                              // Preferred kitchen, if chosen.
	DefaultAddressID    *uint64        ``                              // Preferred delivery address, if chosen.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
