package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	"trackwell-hq/meridian/pkg/activity"
	"trackwell-hq/meridian/pkg/money"
)

// newFixedAnalyzer returns an Analyzer with a pinned clock.
func newFixedAnalyzer(src activity.Source) *Analyzer {
	a := NewAnalyzer(NewAggregator(src))
	a.now = func() time.Time { return testNow }
	return a
}

func TestAnalyzer_Increasing(t *testing.T) {
	src, _ := newTestProject(100000, 100)
	// Six consecutive days, oldest first: 100,100,100,200,200,200.
	amounts := []float64{200, 200, 200, 100, 100, 100} // daysAgo 1..6
	for i, amount := range amounts {
		addCost(src, "proj-1", i+1, amount, true)
	}

	a := newFixedAnalyzer(src)
	report, err := a.Trends(context.Background(), "proj-1", 30, GranularityDay)
	if err != nil {
		t.Fatalf("Trends failed: %v", err)
	}

	if report.Direction != DirectionIncreasing {
		t.Errorf("Expected increasing, got %s", report.Direction)
	}
	if len(report.Points) != 6 {
		t.Fatalf("Expected 6 points, got %d", len(report.Points))
	}
	if report.TrendPercent != 100 {
		t.Errorf("Expected trend percent 100, got %.2f", report.TrendPercent)
	}
	if !report.AverageCost.Equal(money.FromFloat(150)) {
		t.Errorf("Expected average 150.00, got %s", report.AverageCost)
	}
}

func TestAnalyzer_Decreasing(t *testing.T) {
	src, _ := newTestProject(100000, 100)
	amounts := []float64{50, 50, 50, 200, 200, 200} // daysAgo 1..6
	for i, amount := range amounts {
		addCost(src, "proj-1", i+1, amount, true)
	}

	a := newFixedAnalyzer(src)
	report, err := a.Trends(context.Background(), "proj-1", 30, GranularityDay)
	if err != nil {
		t.Fatalf("Trends failed: %v", err)
	}
	if report.Direction != DirectionDecreasing {
		t.Errorf("Expected decreasing, got %s", report.Direction)
	}
}

func TestAnalyzer_Stable(t *testing.T) {
	src, _ := newTestProject(100000, 100)
	for day := 1; day <= 6; day++ {
		addCost(src, "proj-1", day, 100, true)
	}

	a := newFixedAnalyzer(src)
	report, err := a.Trends(context.Background(), "proj-1", 30, GranularityDay)
	if err != nil {
		t.Fatalf("Trends failed: %v", err)
	}
	if report.Direction != DirectionStable {
		t.Errorf("Expected stable, got %s", report.Direction)
	}
	if report.TrendPercent != 0 {
		t.Errorf("Expected trend percent 0, got %.2f", report.TrendPercent)
	}
}

func TestAnalyzer_InsufficientData(t *testing.T) {
	src, _ := newTestProject(100000, 100)
	addCost(src, "proj-1", 1, 100, true)

	a := newFixedAnalyzer(src)
	report, err := a.Trends(context.Background(), "proj-1", 30, GranularityDay)
	if err != nil {
		t.Fatalf("Trends failed: %v", err)
	}
	if report.Direction != DirectionInsufficientData {
		t.Errorf("Expected insufficient_data, got %s", report.Direction)
	}
}

func TestAnalyzer_Validation(t *testing.T) {
	src, _ := newTestProject(100000, 100)
	a := newFixedAnalyzer(src)

	_, err := a.Trends(context.Background(), "proj-1", 0, GranularityDay)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("Expected ValidationError for zero window, got %v", err)
	}

	_, err = a.Trends(context.Background(), "proj-1", 30, Granularity("hour"))
	if !errors.As(err, &verr) {
		t.Errorf("Expected ValidationError for bad granularity, got %v", err)
	}
}

func TestPeriodKey(t *testing.T) {
	tests := []struct {
		name        string
		day         time.Time
		granularity Granularity
		want        string
	}{
		{"day", time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), GranularityDay, "2026-03-05"},
		{"month", time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), GranularityMonth, "2026-03"},
		{"week", time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), GranularityWeek, "2026-W10"},
		// Jan 1 2027 is a Friday in ISO week 53 of 2026.
		{"week_year_boundary", time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), GranularityWeek, "2026-W53"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := periodKey(tt.day, tt.granularity)
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestAnalyzer_WeekBuckets(t *testing.T) {
	src, _ := newTestProject(100000, 100)
	// Costs on testNow-1 (same ISO week as testNow) and testNow-8
	// (previous ISO week).
	addCost(src, "proj-1", 1, 300, true)
	addCost(src, "proj-1", 8, 100, true)

	a := newFixedAnalyzer(src)
	report, err := a.Trends(context.Background(), "proj-1", 30, GranularityWeek)
	if err != nil {
		t.Fatalf("Trends failed: %v", err)
	}

	if len(report.Points) != 2 {
		t.Fatalf("Expected 2 week buckets, got %d", len(report.Points))
	}
	if report.Direction != DirectionIncreasing {
		t.Errorf("Expected increasing, got %s", report.Direction)
	}
}
