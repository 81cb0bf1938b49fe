package models

import "time"

// Voucher statuses. AVAILABLE and RESTORED are both spendable.
const (
	// VoucherStatusAvailable marks a voucher that has never been spent.
	VoucherStatusAvailable = "AVAILABLE"
	// VoucherStatusRedeemed marks a voucher committed to an order.
	VoucherStatusRedeemed = "REDEEMED"
	// VoucherStatusRestored marks a voucher returned after cancellation or rejection.
	VoucherStatusRestored = "RESTORED"
	// VoucherStatusExpired marks a voucher swept past its expiry date.
	VoucherStatusExpired = "EXPIRED"
	// VoucherStatusCancelled marks a voucher voided with its subscription.
	VoucherStatusCancelled = "CANCELLED"
)

// Voucher meal-type eligibility values.
const (
	// VoucherMealAny is redeemable in any meal window.
	VoucherMealAny = "ANY"
	// VoucherMealLunch is redeemable in the lunch window only.
	VoucherMealLunch = "LUNCH"
	// VoucherMealDinner is redeemable in the dinner window only.
	VoucherMealDinner = "DINNER"
)

// Voucher is one prepaid entitlement to a main-course order.
//
// Status and the redemption/restoration attribution fields are only ever
// written together with the owning subscription's vouchers_used counter,
// inside one transaction (see internal/ledger).
type Voucher struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	SubscriptionID uint64 `gorm:"not null;index:idx_vouchers_sub_status"`        // Owning subscription ID.
	UserID         uint64 `gorm:"not null;index:idx_vouchers_user_status_exp"`   // Owning user ID.
	Status         string `gorm:"type:text;not null;default:'AVAILABLE';index:idx_vouchers_sub_status;index:idx_vouchers_user_status_exp"` // Lifecycle status.
	MealType       string `gorm:"type:text;not null;default:'ANY'"`              // Eligibility filter: ANY, LUNCH or DINNER.

	ExpiryDate time.Time `gorm:"not null;index:idx_vouchers_user_status_exp"` // Hard spend deadline.

	OrderID    *uint64    `gorm:"index"`       // Redeeming order, while REDEEMED.
	KitchenID  *uint64    ``                   // Kitchen the voucher was spent at.
	MealWindow string     `gorm:"type:text"`   // Meal window the voucher was spent in.
	RedeemedAt *time.Time ``                   // Redemption timestamp.

	RestorationReason string     `gorm:"type:text"` // Reason code for the latest restoration.
	RestoredAt        *time.Time ``                 // Restoration timestamp.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
