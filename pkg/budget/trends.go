package budget

import (
	"context"
	"fmt"
	"sort"
	"time"

	"trackwell-hq/meridian/pkg/money"
)

// Analyzer buckets project costs into periods and classifies the
// spending trend.
type Analyzer struct {
	agg *Aggregator

	// now is injectable for tests.
	now func() time.Time
}

// NewAnalyzer creates an Analyzer over the given aggregator.
func NewAnalyzer(agg *Aggregator) *Analyzer {
	return &Analyzer{agg: agg, now: time.Now}
}

// Trends buckets the trailing windowDays of billable cost into periods of
// the given granularity and classifies the trend.
//
// The classification splits the chronologically ordered series into
// halves and compares means: a second half above 110% of the first is
// increasing, below 90% is decreasing, otherwise stable. Fewer than two
// periods with data yields insufficient_data.
func (a *Analyzer) Trends(ctx context.Context, projectID string, windowDays int, granularity Granularity) (*TrendReport, error) {
	if windowDays <= 0 {
		return nil, &ValidationError{Field: "window_days", Reason: "must be positive"}
	}
	switch granularity {
	case GranularityDay, GranularityWeek, GranularityMonth:
	default:
		return nil, &ValidationError{Field: "granularity", Reason: fmt.Sprintf("unknown granularity %q", granularity)}
	}

	now := a.now()
	start := now.AddDate(0, 0, -windowDays)

	days, err := a.agg.DailyCosts(ctx, projectID, start, now)
	if err != nil {
		return nil, err
	}

	// Re-bucket day costs into the requested period.
	byPeriod := make(map[string]money.Money)
	for _, d := range days {
		key := periodKey(d.Date, granularity)
		byPeriod[key] = byPeriod[key].Add(d.Cost)
	}

	points := make([]TrendPoint, 0, len(byPeriod))
	for key, cost := range byPeriod {
		points = append(points, TrendPoint{Period: key, Cost: cost})
	}
	// Period keys are zero-padded, so lexicographic order is
	// chronological order.
	sort.Slice(points, func(i, j int) bool { return points[i].Period < points[j].Period })

	report := &TrendReport{
		ProjectID:   projectID,
		Granularity: granularity,
		Points:      points,
	}

	if len(points) < 2 {
		report.Direction = DirectionInsufficientData
		if len(points) == 1 {
			report.AverageCost = points[0].Cost
		}
		return report, nil
	}

	total := money.Zero
	for _, p := range points {
		total = total.Add(p.Cost)
	}
	report.AverageCost = total.DivInt(int64(len(points)))

	report.Direction = classifyTrend(points)

	first := points[0].Cost.Float64()
	last := points[len(points)-1].Cost.Float64()
	if first != 0 {
		report.TrendPercent = (last - first) / first * 100
	}

	return report, nil
}

// classifyTrend compares the mean of the first and second halves of the
// chronologically ordered series.
func classifyTrend(points []TrendPoint) Direction {
	mid := len(points) / 2
	firstMean := meanCost(points[:mid])
	secondMean := meanCost(points[mid:])

	switch {
	case secondMean > firstMean*1.1:
		return DirectionIncreasing
	case secondMean < firstMean*0.9:
		return DirectionDecreasing
	default:
		return DirectionStable
	}
}

// meanCost returns the mean cost of the points as a float64.
func meanCost(points []TrendPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += p.Cost.Float64()
	}
	return sum / float64(len(points))
}

// periodKey formats the bucket key for a day under the given granularity:
// day is the ISO date, week is "{iso-year}-W{iso-week}", month is
// "{year}-{month}".
func periodKey(day time.Time, granularity Granularity) string {
	switch granularity {
	case GranularityWeek:
		year, week := day.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case GranularityMonth:
		return fmt.Sprintf("%d-%02d", day.Year(), int(day.Month()))
	default:
		return day.Format("2006-01-02")
	}
}
