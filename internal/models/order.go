package models

import (
	"time"

	"gorm.io/datatypes"
)

// Order statuses. DELIVERED, REJECTED, CANCELLED and FAILED are terminal.
const (
	OrderStatusPlaced         = "PLACED"
	OrderStatusAccepted       = "ACCEPTED"
	OrderStatusRejected       = "REJECTED"
	OrderStatusPreparing      = "PREPARING"
	OrderStatusReady          = "READY"
	OrderStatusPickedUp       = "PICKED_UP"
	OrderStatusOutForDelivery = "OUT_FOR_DELIVERY"
	OrderStatusDelivered      = "DELIVERED"
	OrderStatusCancelled      = "CANCELLED"
	OrderStatusFailed         = "FAILED"
)

// Payment statuses on an order.
const (
	// PaymentStatusNotRequired marks a fully voucher-covered order.
	PaymentStatusNotRequired = "NOT_REQUIRED"
	// PaymentStatusPending marks an order awaiting payment confirmation.
	PaymentStatusPending = "PENDING"
	// PaymentStatusPaid marks a confirmed payment.
	PaymentStatusPaid = "PAID"
	// PaymentStatusFailed marks a failed payment.
	PaymentStatusFailed = "FAILED"
)

// Order sources.
const (
	// OrderSourceCustomer marks an interactive customer placement.
	OrderSourceCustomer = "CUSTOMER"
	// OrderSourceAutoOrder marks a placement by the batch scheduler.
	OrderSourceAutoOrder = "AUTO_ORDER"
)

// Order is a single meal order. Status is only ever written through
// internal/orders.Transition; every write appends an OrderStatusEvent.
type Order struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	OrderNumber string `gorm:"type:text;not null;uniqueIndex"` // Human-facing order number.
	Source      string `gorm:"type:text;not null;default:'CUSTOMER'"` // CUSTOMER or AUTO_ORDER.

	UserID    uint64 `gorm:"not null;index"` // Ordering user ID.
	KitchenID uint64 `gorm:"not null;index"` // Fulfilling kitchen ID.
	AddressID uint64 `gorm:"not null"`       // Delivery address ID.

	MealWindow string `gorm:"type:text;not null"`                       // LUNCH or DINNER.
	Status     string `gorm:"type:text;not null;default:'PLACED';index"` // Current lifecycle status.

	// Voucher usage is an immutable record of the vouchers committed at
	// creation time; restoration reads it, nothing rewrites it.
	VoucherIDs         datatypes.JSON `gorm:"type:jsonb"`         // JSON array of committed voucher IDs.
	VoucherCount       int            `gorm:"not null;default:0"` // Number of vouchers committed.
	MainCoursesCovered int            `gorm:"not null;default:0"` // Main courses covered by vouchers.

	AmountPaid    float64 `gorm:"type:decimal(10,2);not null;default:0"`        // Monetary amount paid, if any.
	PaymentStatus string  `gorm:"type:text;not null;default:'NOT_REQUIRED'"`    // Payment lifecycle status.

	PlacedAt  time.Time `gorm:"not null;index"`          // Placement timestamp.
	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// OrderStatusEvent is one immutable entry in an order's status timeline.
type OrderStatusEvent struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	OrderID uint64 `gorm:"not null;index"`     // Related order ID.
	Status  string `gorm:"type:text;not null"` // Status entered.
	Actor   string `gorm:"type:text;not null"` // Who drove the transition (customer, kitchen, system).
	Notes   string `gorm:"type:text"`          // Optional free-text notes.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Transition timestamp.
}
