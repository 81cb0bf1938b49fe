package models

import (
	"time"

	"gorm.io/datatypes"
)

// AutoOrderLog outcome statuses.
const (
	AutoOrderStatusSuccess = "SUCCESS"
	AutoOrderStatusFailed  = "FAILED"
	AutoOrderStatusSkipped = "SKIPPED"
)

// Failure categories persisted on FAILED rows. Customers are notified with a
// message template keyed by category; SKIPPED categories are silent.
const (
	FailureNoVouchers              = "NO_VOUCHERS"
	FailureNoAddress               = "NO_ADDRESS"
	FailureNoZone                  = "NO_ZONE"
	FailureNoKitchen               = "NO_KITCHEN"
	FailureNoMenuItem              = "NO_MENU_ITEM"
	FailureVoucherRedemptionFailed = "VOUCHER_REDEMPTION_FAILED"
	FailureOrderCreationFailed     = "ORDER_CREATION_FAILED"
	FailureUnknown                 = "UNKNOWN"

	SkipSubscriptionPaused = "SUBSCRIPTION_PAUSED"
	SkipSlotSkipped        = "SLOT_SKIPPED"
	SkipDryRun             = "DRY_RUN"
)

// AutoOrderLog is one append-only row per (subscription, meal window, date)
// attempt of a batch run. Rows are never updated or deleted here; retention
// is an external concern.
type AutoOrderLog struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	CronRunID      string `gorm:"type:text;not null;index"` // Groups all rows of one scheduler invocation.
	SubscriptionID uint64 `gorm:"not null;index"`           // Subscription processed.
	UserID         uint64 `gorm:"not null;index"`           // Owning user ID.

	MealWindow string    `gorm:"type:text;not null"` // LUNCH or DINNER.
	OrderDate  time.Time `gorm:"not null;index"`     // Civil date of the attempted order.

	Status          string `gorm:"type:text;not null;index"` // SUCCESS, FAILED or SKIPPED.
	FailureCategory string `gorm:"type:text"`                // Taxonomy value for FAILED/SKIPPED rows.
	Reason          string `gorm:"type:text"`                // Free-text diagnostic reason.

	Context datatypes.JSON `gorm:"type:jsonb"` // Whatever was resolved before failure (pincode, zone, kitchen, ...).

	OrderID          *uint64 `gorm:"index"`              // Created order on SUCCESS rows.
	ProcessingTimeMs int64   `gorm:"not null;default:0"` // Per-subscription processing time.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
