package cutoff

import (
	"testing"
	"time"

	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/models"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/settings"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func testRuntime() settings.Runtime {
	return settings.Runtime{CutoffLunch: "11:00", CutoffDinner: "18:00"}
}

func TestCheckBeforeAndAfterCutoff(t *testing.T) {
	loc := time.UTC
	cases := []struct {
		name     string
		now      time.Time
		window   string
		wantPast bool
	}{
		{"lunch before", time.Date(2026, 9, 1, 10, 59, 0, 0, loc), WindowLunch, false},
		{"lunch at cutoff", time.Date(2026, 9, 1, 11, 0, 0, 0, loc), WindowLunch, true},
		{"lunch after", time.Date(2026, 9, 1, 12, 0, 0, 0, loc), WindowLunch, true},
		{"dinner before", time.Date(2026, 9, 1, 17, 0, 0, 0, loc), WindowDinner, false},
		{"dinner after", time.Date(2026, 9, 1, 18, 30, 0, 0, loc), WindowDinner, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, errCheck := Check(testRuntime(), fixedClock{tc.now}, loc, tc.window, nil)
			if errCheck != nil {
				t.Fatalf("check: %v", errCheck)
			}
			if res.IsPast != tc.wantPast {
				t.Fatalf("IsPast = %t, want %t (cutoff %v)", res.IsPast, tc.wantPast, res.CutoffTime)
			}
			if tc.wantPast && res.Message == "" {
				t.Fatal("past cutoff must carry a message")
			}
		})
	}
}

func TestCheckUsesBusinessTimezoneNotHostLocal(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	// 06:00 UTC is 11:30 IST, past an 11:00 IST lunch cutoff.
	now := time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC)

	res, errCheck := Check(testRuntime(), fixedClock{now}, ist, WindowLunch, nil)
	if errCheck != nil {
		t.Fatalf("check: %v", errCheck)
	}
	if !res.IsPast {
		t.Fatalf("IsPast = false; 11:30 IST is past the 11:00 IST cutoff regardless of the UTC wall clock")
	}
}

func TestCheckKitchenOverride(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, loc)
	kitchen := &models.Kitchen{LunchCloseTime: "14:00"}

	res, errCheck := Check(testRuntime(), fixedClock{now}, loc, WindowLunch, kitchen)
	if errCheck != nil {
		t.Fatalf("check: %v", errCheck)
	}
	if res.IsPast {
		t.Fatal("kitchen close time 14:00 should override the 11:00 global cutoff")
	}

	// A blank override falls back to the global default.
	res, errCheck = Check(testRuntime(), fixedClock{now}, loc, WindowLunch, &models.Kitchen{})
	if errCheck != nil {
		t.Fatalf("check: %v", errCheck)
	}
	if !res.IsPast {
		t.Fatal("blank kitchen override must fall back to the global cutoff")
	}
}

func TestCheckRejectsBadInput(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, loc)

	if _, errCheck := Check(testRuntime(), fixedClock{now}, loc, "BRUNCH", nil); errCheck == nil {
		t.Fatal("unknown window must error")
	}
	bad := settings.Runtime{CutoffLunch: "eleven", CutoffDinner: "18:00"}
	if _, errCheck := Check(bad, fixedClock{now}, loc, WindowLunch, nil); errCheck == nil {
		t.Fatal("unparseable cutoff must error")
	}
}

func TestValidWindow(t *testing.T) {
	if !ValidWindow(WindowLunch) || !ValidWindow(WindowDinner) {
		t.Fatal("LUNCH and DINNER are valid windows")
	}
	if ValidWindow("") || ValidWindow("lunch") {
		t.Fatal("windows are upper-case exact matches")
	}
}
