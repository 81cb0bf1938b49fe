package orders

import (
	"testing"

	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/models"
)

func TestCanTransitionAllowsLifecycleEdges(t *testing.T) {
	allowed := [][2]string{
		{models.OrderStatusPlaced, models.OrderStatusAccepted},
		{models.OrderStatusPlaced, models.OrderStatusRejected},
		{models.OrderStatusPlaced, models.OrderStatusCancelled},
		{models.OrderStatusAccepted, models.OrderStatusPreparing},
		{models.OrderStatusAccepted, models.OrderStatusCancelled},
		{models.OrderStatusPreparing, models.OrderStatusReady},
		{models.OrderStatusPreparing, models.OrderStatusCancelled},
		{models.OrderStatusReady, models.OrderStatusPickedUp},
		{models.OrderStatusPickedUp, models.OrderStatusOutForDelivery},
		{models.OrderStatusPickedUp, models.OrderStatusDelivered},
		{models.OrderStatusPickedUp, models.OrderStatusFailed},
		{models.OrderStatusOutForDelivery, models.OrderStatusDelivered},
		{models.OrderStatusOutForDelivery, models.OrderStatusFailed},
	}
	for _, edge := range allowed {
		if !CanTransition(edge[0], edge[1]) {
			t.Errorf("%s -> %s should be allowed", edge[0], edge[1])
		}
	}
}

func TestCanTransitionRejectsEverythingElse(t *testing.T) {
	rejected := [][2]string{
		{models.OrderStatusPlaced, models.OrderStatusPreparing},
		{models.OrderStatusPlaced, models.OrderStatusDelivered},
		{models.OrderStatusAccepted, models.OrderStatusPlaced},
		{models.OrderStatusReady, models.OrderStatusCancelled},
		{models.OrderStatusDelivered, models.OrderStatusCancelled},
		{models.OrderStatusCancelled, models.OrderStatusPlaced},
		{models.OrderStatusRejected, models.OrderStatusAccepted},
		{models.OrderStatusFailed, models.OrderStatusDelivered},
	}
	for _, edge := range rejected {
		if CanTransition(edge[0], edge[1]) {
			t.Errorf("%s -> %s should be rejected", edge[0], edge[1])
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, status := range []string{
		models.OrderStatusDelivered,
		models.OrderStatusRejected,
		models.OrderStatusCancelled,
		models.OrderStatusFailed,
	} {
		if !IsTerminal(status) {
			t.Errorf("%s should be terminal", status)
		}
	}
	for _, status := range []string{
		models.OrderStatusPlaced,
		models.OrderStatusAccepted,
		models.OrderStatusPreparing,
		models.OrderStatusReady,
		models.OrderStatusPickedUp,
		models.OrderStatusOutForDelivery,
	} {
		if IsTerminal(status) {
			t.Errorf("%s should not be terminal", status)
		}
	}
}
