// Package cutoff decides whether a meal window is still open for ordering.
// All comparisons happen in the fixed business timezone; host-local time is
// never consulted.
package cutoff

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/models"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/settings"
)

// Meal windows.
const (
	// WindowLunch is the lunch meal window.
	WindowLunch = "LUNCH"
	// WindowDinner is the dinner meal window.
	WindowDinner = "DINNER"
)

// Clock supplies the current time. Injectable for tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// Result is the verdict of a cutoff check.
type Result struct {
	IsPast     bool      // Whether the window's cutoff has passed today.
	CutoffTime time.Time // The effective cutoff instant for today.
	Message    string    // Customer-facing explanation when IsPast.
}

// ValidWindow reports whether window names a known meal window.
func ValidWindow(window string) bool {
	return window == WindowLunch || window == WindowDinner
}

// Check resolves the effective cutoff for a meal window and compares it with
// the current time in the business timezone. A kitchen's operating-hours
// close time, when present, overrides the global per-window default.
func Check(cfg settings.Runtime, clock Clock, loc *time.Location, window string, kitchen *models.Kitchen) (Result, error) {
	if clock == nil {
		clock = SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if !ValidWindow(window) {
		return Result{}, fmt.Errorf("cutoff: unknown meal window: %s", window)
	}

	spec := resolveCutoffSpec(cfg, window, kitchen)
	hour, minute, errParse := parseClockTime(spec)
	if errParse != nil {
		return Result{}, fmt.Errorf("cutoff: bad cutoff time %q for %s: %w", spec, window, errParse)
	}

	now := clock.Now().In(loc)
	cutoffAt := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)

	res := Result{CutoffTime: cutoffAt}
	if !now.Before(cutoffAt) {
		res.IsPast = true
		res.Message = fmt.Sprintf("%s ordering closed at %s", strings.ToLower(window), cutoffAt.Format("3:04 PM"))
	}
	return res, nil
}

// resolveCutoffSpec picks the kitchen override when set, else the global default.
func resolveCutoffSpec(cfg settings.Runtime, window string, kitchen *models.Kitchen) string {
	if kitchen != nil {
		switch window {
		case WindowLunch:
			if t := strings.TrimSpace(kitchen.LunchCloseTime); t != "" {
				return t
			}
		case WindowDinner:
			if t := strings.TrimSpace(kitchen.DinnerCloseTime); t != "" {
				return t
			}
		}
	}
	if window == WindowDinner {
		return cfg.CutoffDinner
	}
	return cfg.CutoffLunch
}

// parseClockTime parses an "HH:MM" civil time.
func parseClockTime(spec string) (int, int, error) {
	parts := strings.SplitN(strings.TrimSpace(spec), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want HH:MM")
	}
	hour, errHour := strconv.Atoi(parts[0])
	if errHour != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("bad hour %q", parts[0])
	}
	minute, errMinute := strconv.Atoi(parts[1])
	if errMinute != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("bad minute %q", parts[1])
	}
	return hour, minute, nil
}
