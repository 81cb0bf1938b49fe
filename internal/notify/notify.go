// Package notify is the fire-and-forget notification collaborator. Delivery,
// templating and channels live outside the core; a notification failure must
// never fail the operation that triggered it.
package notify

import (
	log "github.com/sirupsen/logrus"
)

// Event types emitted by the ordering core.
const (
	EventOrderCancelled     = "ORDER_CANCELLED"
	EventOrderRejected      = "ORDER_REJECTED"
	EventAutoOrderPlaced    = "AUTO_ORDER_PLACED"
	EventAutoOrderFailed    = "AUTO_ORDER_FAILED"
	EventRefundInitiated    = "REFUND_INITIATED"
	EventVouchersRestored   = "VOUCHERS_RESTORED"
)

// Notifier dispatches a user-facing notification. Implementations must not
// block the caller on delivery.
type Notifier interface {
	Notify(userID uint64, eventType string, vars map[string]string)
}

// LogNotifier records notifications in the process log. It stands in for the
// external push/SMS delivery service.
type LogNotifier struct{}

// Notify logs the notification payload.
func (LogNotifier) Notify(userID uint64, eventType string, vars map[string]string) {
	log.WithFields(log.Fields{
		"user_id": userID,
		"event":   eventType,
		"vars":    vars,
	}).Info("notification dispatched")
}
