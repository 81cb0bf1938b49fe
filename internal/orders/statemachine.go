package orders

import (
	"fmt"

	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/models"
)

// Actors recorded on timeline entries.
const (
	ActorCustomer = "customer"
	ActorKitchen  = "kitchen"
	ActorSystem   = "system"
	ActorAdmin    = "admin"
)

// transitions is the full order lifecycle. An order may only move along a
// listed edge; everything else is an InvalidTransitionError. PLACED is the
// only initial state.
var transitions = map[string][]string{
	models.OrderStatusPlaced:         {models.OrderStatusAccepted, models.OrderStatusRejected, models.OrderStatusCancelled},
	models.OrderStatusAccepted:       {models.OrderStatusPreparing, models.OrderStatusCancelled},
	models.OrderStatusPreparing:      {models.OrderStatusReady, models.OrderStatusCancelled},
	models.OrderStatusReady:          {models.OrderStatusPickedUp},
	models.OrderStatusPickedUp:       {models.OrderStatusOutForDelivery, models.OrderStatusDelivered, models.OrderStatusFailed},
	models.OrderStatusOutForDelivery: {models.OrderStatusDelivered, models.OrderStatusFailed},
}

// terminalStatuses have no outgoing edges.
var terminalStatuses = map[string]struct{}{
	models.OrderStatusDelivered: {},
	models.OrderStatusRejected:  {},
	models.OrderStatusCancelled: {},
	models.OrderStatusFailed:    {},
}

// InvalidTransitionError reports a disallowed order status transition.
type InvalidTransitionError struct {
	From string
	To   string
}

// Error describes the rejected edge.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("orders: invalid transition %s -> %s", e.From, e.To)
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status has no outgoing edges.
func IsTerminal(status string) bool {
	_, ok := terminalStatuses[status]
	return ok
}
