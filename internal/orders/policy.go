package orders

import (
	"fmt"
	"time"

	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/cutoff"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/models"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/settings"
)

// CancelDecision is the verdict of the cancellation policy. The caller acts
// on it; the policy itself has no side effects.
type CancelDecision struct {
	CanCancel             bool   // Whether cancellation may proceed.
	ShouldRestoreVouchers bool   // Whether the voucher spend is returned.
	Reason                string // Explanation, including the forfeiture warning after cutoff.
}

// nonCancellableStatuses cover orders already in flight or already terminal.
// READY is included: the food is plated and awaiting pickup, and the state
// machine has no edge from READY to CANCELLED.
var nonCancellableStatuses = map[string]struct{}{
	models.OrderStatusReady:          {},
	models.OrderStatusPickedUp:       {},
	models.OrderStatusOutForDelivery: {},
	models.OrderStatusDelivered:      {},
	models.OrderStatusCancelled:      {},
	models.OrderStatusFailed:         {},
	models.OrderStatusRejected:       {},
}

// CancelPolicy decides customer-initiated cancellation for an order. It is a
// pure function of (order, now, config): no lookups, no writes.
//
// Voucher orders may be cancelled at any status the state machine can still
// leave toward CANCELLED, but the vouchers come back only while the order's
// meal window is still before cutoff; after cutoff the kitchen has already
// planned for the slot and the spend is forfeited. Non-voucher (monetary) orders are only cancellable
// within a configured window after placement, never from PREPARING, and past
// ACCEPTED only when configuration allows it.
func CancelPolicy(order *models.Order, cfg settings.Runtime, clockNow time.Time, loc *time.Location) CancelDecision {
	if order == nil {
		return CancelDecision{Reason: "order not found"}
	}
	if _, blocked := nonCancellableStatuses[order.Status]; blocked {
		return CancelDecision{Reason: fmt.Sprintf("order in status %s cannot be cancelled", order.Status)}
	}

	if order.VoucherCount > 0 {
		res, errCheck := cutoff.Check(cfg, fixedClock{clockNow}, loc, order.MealWindow, nil)
		if errCheck != nil {
			// An unparseable cutoff must not strand the customer; cancel
			// proceeds but the spend is not returned automatically.
			return CancelDecision{CanCancel: true, Reason: "cancellation allowed; voucher restoration unavailable: " + errCheck.Error()}
		}
		if res.IsPast {
			return CancelDecision{
				CanCancel: true,
				Reason:    fmt.Sprintf("cancellation allowed, but the %s cutoff has passed and the voucher will not be returned", order.MealWindow),
			}
		}
		return CancelDecision{
			CanCancel:             true,
			ShouldRestoreVouchers: true,
			Reason:                "cancellation allowed; voucher will be returned",
		}
	}

	// Monetary order rules.
	if order.Status == models.OrderStatusPreparing {
		return CancelDecision{Reason: "order is already being prepared"}
	}
	if order.Status == models.OrderStatusAccepted && !cfg.CancelAfterAccepted {
		return CancelDecision{Reason: "order has been accepted by the kitchen"}
	}
	window := time.Duration(cfg.CancellationWindowMinutes) * time.Minute
	if window > 0 && clockNow.Sub(order.PlacedAt) > window {
		return CancelDecision{Reason: fmt.Sprintf("cancellation window of %d minutes has passed", cfg.CancellationWindowMinutes)}
	}
	return CancelDecision{CanCancel: true, Reason: "cancellation allowed"}
}

// fixedClock adapts an instant to the cutoff.Clock interface.
type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }
