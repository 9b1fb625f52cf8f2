package schedule

import (
	"testing"
	"time"
)

// mustLoc loads a timezone or fails the test.
func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("failed to load location %s: %v", name, err)
	}
	return loc
}

func TestNextRun_Daily(t *testing.T) {
	s := &Schedule{Cadence: CadenceDaily}
	after := time.Date(2026, 3, 18, 14, 30, 0, 0, time.UTC) // Wednesday afternoon

	next, fellBack := NextRun(s, after)
	if fellBack {
		t.Error("Daily cadence must not report a fallback")
	}

	want := time.Date(2026, 3, 19, 8, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("Expected %v, got %v", want, next)
	}
}

// A weekly schedule evaluated on a Wednesday runs the following Monday
// at 08:00, never the same day.
func TestNextRun_Weekly_FromWednesday(t *testing.T) {
	s := &Schedule{Cadence: CadenceWeekly}
	after := time.Date(2026, 3, 18, 10, 0, 0, 0, time.UTC) // Wednesday

	next, _ := NextRun(s, after)

	want := time.Date(2026, 3, 23, 8, 0, 0, 0, time.UTC) // next Monday
	if !next.Equal(want) {
		t.Errorf("Expected %v, got %v", want, next)
	}
	if next.Weekday() != time.Monday {
		t.Errorf("Expected a Monday, got %s", next.Weekday())
	}
}

// Evaluated on a Monday, weekly rolls a full week forward.
func TestNextRun_Weekly_FromMonday(t *testing.T) {
	s := &Schedule{Cadence: CadenceWeekly}
	after := time.Date(2026, 3, 16, 8, 0, 0, 0, time.UTC) // Monday 08:00

	next, _ := NextRun(s, after)

	want := time.Date(2026, 3, 23, 8, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("Expected the following Monday %v, got %v", want, next)
	}
}

func TestNextRun_Monthly(t *testing.T) {
	s := &Schedule{Cadence: CadenceMonthly}
	after := time.Date(2026, 3, 18, 10, 0, 0, 0, time.UTC)

	next, _ := NextRun(s, after)

	want := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("Expected %v, got %v", want, next)
	}
}

func TestNextRun_Monthly_DecemberRollover(t *testing.T) {
	s := &Schedule{Cadence: CadenceMonthly}
	after := time.Date(2026, 12, 15, 10, 0, 0, 0, time.UTC)

	next, _ := NextRun(s, after)

	want := time.Date(2027, 1, 1, 8, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("Expected January rollover %v, got %v", want, next)
	}
}

func TestNextRun_Timezone(t *testing.T) {
	berlin := mustLoc(t, "Europe/Berlin")
	s := &Schedule{Cadence: CadenceDaily, Timezone: "Europe/Berlin"}
	after := time.Date(2026, 3, 18, 23, 30, 0, 0, time.UTC) // already Mar 19 in Berlin

	next, _ := NextRun(s, after)

	want := time.Date(2026, 3, 20, 8, 0, 0, 0, berlin)
	if !next.Equal(want) {
		t.Errorf("Expected %v, got %v", want, next)
	}
}

func TestNextRun_CustomCron(t *testing.T) {
	s := &Schedule{Cadence: CadenceCustom, CronExpr: "0 6 * * 5"} // Fridays 06:00
	after := time.Date(2026, 3, 18, 10, 0, 0, 0, time.UTC)        // Wednesday

	next, fellBack := NextRun(s, after)
	if fellBack {
		t.Error("Valid cron must not report a fallback")
	}

	want := time.Date(2026, 3, 20, 6, 0, 0, 0, time.UTC) // Friday
	if !next.Equal(want) {
		t.Errorf("Expected %v, got %v", want, next)
	}
}

// An unparseable cron expression degrades to the daily cadence and
// reports the degradation.
func TestNextRun_CustomCron_Fallback(t *testing.T) {
	s := &Schedule{Cadence: CadenceCustom, CronExpr: "not a cron"}
	after := time.Date(2026, 3, 18, 10, 0, 0, 0, time.UTC)

	next, fellBack := NextRun(s, after)
	if !fellBack {
		t.Error("Expected fallback for unparseable expression")
	}

	want := time.Date(2026, 3, 19, 8, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("Expected daily fallback %v, got %v", want, next)
	}
}

func TestPeriodKey_Formats(t *testing.T) {
	dueAt := time.Date(2026, 3, 16, 8, 0, 0, 0, time.UTC) // Monday, ISO week 12

	tests := []struct {
		cadence Cadence
		want    string
	}{
		{CadenceDaily, "2026-03-16"},
		{CadenceWeekly, "2026-W12"},
		{CadenceMonthly, "2026-03"},
		{CadenceCustom, "2026-03-16T08:00"},
	}

	for _, tt := range tests {
		t.Run(string(tt.cadence), func(t *testing.T) {
			s := &Schedule{Cadence: tt.cadence, CronExpr: "0 8 * * *"}
			got := PeriodKey(s, dueAt)
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestValidateCron(t *testing.T) {
	if err := ValidateCron("0 8 * * 1"); err != nil {
		t.Errorf("Expected valid expression, got %v", err)
	}
	if err := ValidateCron("definitely broken"); err == nil {
		t.Error("Expected error for broken expression")
	}
}
