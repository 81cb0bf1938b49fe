package settings

// DB config keys and defaults for runtime ordering settings.
const (
	// CutoffLunchKey is the DB config key for the lunch ordering cutoff ("HH:MM").
	CutoffLunchKey = "CUTOFF_LUNCH"
	// CutoffDinnerKey is the DB config key for the dinner ordering cutoff ("HH:MM").
	CutoffDinnerKey = "CUTOFF_DINNER"
	// CancellationWindowMinutesKey bounds cancellation of non-voucher orders after placement.
	CancellationWindowMinutesKey = "CANCELLATION_WINDOW_MINUTES"
	// CancelAfterAcceptedKey allows non-voucher cancellation after kitchen acceptance.
	CancelAfterAcceptedKey = "CANCEL_AFTER_ACCEPTED"
	// AutoAcceptOrdersKey toggles automatic acceptance of voucher orders.
	AutoAcceptOrdersKey = "AUTO_ACCEPT_ORDERS"

	// DefaultCutoffLunch is the fallback lunch cutoff in the business timezone.
	DefaultCutoffLunch = "11:00"
	// DefaultCutoffDinner is the fallback dinner cutoff in the business timezone.
	DefaultCutoffDinner = "18:00"
	// DefaultCancellationWindowMinutes is the fallback non-voucher cancellation window.
	DefaultCancellationWindowMinutes = 30
	// DefaultCancelAfterAccepted disallows non-voucher cancellation after acceptance.
	DefaultCancelAfterAccepted = false
	// DefaultAutoAcceptOrders auto-accepts voucher orders without kitchen action.
	DefaultAutoAcceptOrders = true
)
