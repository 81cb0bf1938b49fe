package settings

// Runtime is a read-only snapshot of the ordering business settings. Policy
// functions take it as a value so a run sees one consistent configuration.
type Runtime struct {
	CutoffLunch               string // Lunch cutoff "HH:MM" in the business timezone.
	CutoffDinner              string // Dinner cutoff "HH:MM" in the business timezone.
	CancellationWindowMinutes int    // Non-voucher cancellation window after placement.
	CancelAfterAccepted       bool   // Allow non-voucher cancellation after ACCEPTED.
	AutoAcceptOrders          bool   // Auto-accept voucher orders on placement.
}

// Snapshot builds a Runtime from the current DB config, falling back to
// defaults for missing or malformed values.
func Snapshot() Runtime {
	return Runtime{
		CutoffLunch:               stringValue(CutoffLunchKey, DefaultCutoffLunch),
		CutoffDinner:              stringValue(CutoffDinnerKey, DefaultCutoffDinner),
		CancellationWindowMinutes: intValue(CancellationWindowMinutesKey, DefaultCancellationWindowMinutes),
		CancelAfterAccepted:       boolValue(CancelAfterAcceptedKey, DefaultCancelAfterAccepted),
		AutoAcceptOrders:          boolValue(AutoAcceptOrdersKey, DefaultAutoAcceptOrders),
	}
}
