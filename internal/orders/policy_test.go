package orders

import (
	"strings"
	"testing"
	"time"

	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/models"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/settings"
)

func policyRuntime() settings.Runtime {
	return settings.Runtime{
		CutoffLunch:               "11:00",
		CutoffDinner:              "18:00",
		CancellationWindowMinutes: 30,
	}
}

func TestCancelPolicyVoucherOrderBeforeCutoff(t *testing.T) {
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	order := &models.Order{Status: models.OrderStatusPlaced, MealWindow: "LUNCH", VoucherCount: 1, PlacedAt: now}

	d := CancelPolicy(order, policyRuntime(), now, time.UTC)
	if !d.CanCancel || !d.ShouldRestoreVouchers {
		t.Fatalf("decision %+v, want cancellable with restoration before cutoff", d)
	}
}

func TestCancelPolicyVoucherOrderAfterCutoffForfeits(t *testing.T) {
	placed := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	order := &models.Order{Status: models.OrderStatusAccepted, MealWindow: "LUNCH", VoucherCount: 2, PlacedAt: placed}

	d := CancelPolicy(order, policyRuntime(), now, time.UTC)
	if !d.CanCancel {
		t.Fatalf("decision %+v, want cancellable after cutoff", d)
	}
	if d.ShouldRestoreVouchers {
		t.Fatalf("decision %+v, vouchers must be forfeited after cutoff", d)
	}
	if !strings.Contains(d.Reason, "not be returned") {
		t.Fatalf("reason %q must warn about forfeiture", d.Reason)
	}
}

func TestCancelPolicyTerminalAndInFlightStatusesBlocked(t *testing.T) {
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	for _, status := range []string{
		models.OrderStatusReady,
		models.OrderStatusPickedUp,
		models.OrderStatusOutForDelivery,
		models.OrderStatusDelivered,
		models.OrderStatusCancelled,
		models.OrderStatusFailed,
		models.OrderStatusRejected,
	} {
		order := &models.Order{Status: status, MealWindow: "LUNCH", VoucherCount: 1, PlacedAt: now}
		if d := CancelPolicy(order, policyRuntime(), now, time.UTC); d.CanCancel {
			t.Errorf("status %s: decision %+v, want blocked", status, d)
		}
	}
}

func TestCancelPolicyAgreesWithStateMachine(t *testing.T) {
	// Whenever the policy allows a cancel, the state machine must have the
	// CANCELLED edge, or the customer would be promised a cancellation the
	// transition then refuses.
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	for _, status := range []string{
		models.OrderStatusPlaced,
		models.OrderStatusAccepted,
		models.OrderStatusPreparing,
		models.OrderStatusReady,
		models.OrderStatusPickedUp,
		models.OrderStatusOutForDelivery,
		models.OrderStatusDelivered,
		models.OrderStatusRejected,
		models.OrderStatusCancelled,
		models.OrderStatusFailed,
	} {
		order := &models.Order{Status: status, MealWindow: "LUNCH", VoucherCount: 1, PlacedAt: now}
		d := CancelPolicy(order, policyRuntime(), now, time.UTC)
		if d.CanCancel && !CanTransition(status, models.OrderStatusCancelled) {
			t.Errorf("status %s: policy allows cancel but the state machine has no CANCELLED edge", status)
		}
	}
}

func TestCancelPolicyMonetaryOrderRules(t *testing.T) {
	placed := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	cfg := policyRuntime()

	// Within the window from PLACED.
	order := &models.Order{Status: models.OrderStatusPlaced, MealWindow: "LUNCH", AmountPaid: 250, PlacedAt: placed}
	if d := CancelPolicy(order, cfg, placed.Add(10*time.Minute), time.UTC); !d.CanCancel {
		t.Fatalf("decision %+v, want cancellable within the window", d)
	}
	if d := CancelPolicy(order, cfg, placed.Add(10*time.Minute), time.UTC); d.ShouldRestoreVouchers {
		t.Fatal("monetary orders have no vouchers to restore")
	}

	// Past the window.
	if d := CancelPolicy(order, cfg, placed.Add(45*time.Minute), time.UTC); d.CanCancel {
		t.Fatalf("decision %+v, want blocked past the %d minute window", d, cfg.CancellationWindowMinutes)
	}

	// PREPARING is blocked no matter the config.
	preparing := &models.Order{Status: models.OrderStatusPreparing, MealWindow: "LUNCH", AmountPaid: 250, PlacedAt: placed}
	cfgLoose := cfg
	cfgLoose.CancelAfterAccepted = true
	cfgLoose.CancellationWindowMinutes = 0
	if d := CancelPolicy(preparing, cfgLoose, placed.Add(time.Minute), time.UTC); d.CanCancel {
		t.Fatalf("decision %+v, PREPARING must never be customer-cancellable for monetary orders", d)
	}

	// ACCEPTED depends on the flag.
	accepted := &models.Order{Status: models.OrderStatusAccepted, MealWindow: "LUNCH", AmountPaid: 250, PlacedAt: placed}
	if d := CancelPolicy(accepted, cfg, placed.Add(time.Minute), time.UTC); d.CanCancel {
		t.Fatalf("decision %+v, ACCEPTED blocked while cancel-after-accepted is off", d)
	}
	if d := CancelPolicy(accepted, cfgLoose, placed.Add(time.Minute), time.UTC); !d.CanCancel {
		t.Fatalf("decision %+v, ACCEPTED allowed when cancel-after-accepted is on", d)
	}
}
