// Package payment holds the narrow contract between the ordering core and
// the external payment gateway plumbing. The core only emits refund intents
// and reacts to payment outcome signals; it never talks to a gateway.
package payment

import (
	log "github.com/sirupsen/logrus"
)

// RefundIntent asks the payment collaborator to refund an order.
type RefundIntent struct {
	OrderID uint64  // Order to refund.
	Amount  float64 // Amount originally paid.
	Reason  string  // Why the refund is owed (cancellation, rejection).
}

// RefundEmitter hands a refund intent to the payment collaborator.
// Emission is best-effort: failures are logged by callers, never propagated
// into the order or ledger transaction that already committed.
type RefundEmitter interface {
	Emit(intent RefundIntent) error
}

// LogEmitter records refund intents in the process log. It stands in for the
// external payment-gateway integration.
type LogEmitter struct{}

// Emit logs the refund intent.
func (LogEmitter) Emit(intent RefundIntent) error {
	log.WithFields(log.Fields{
		"order_id": intent.OrderID,
		"amount":   intent.Amount,
		"reason":   intent.Reason,
	}).Info("refund intent emitted")
	return nil
}
