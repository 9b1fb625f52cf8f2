package budget

import (
	"context"
	"math"
	"time"

	"trackwell-hq/meridian/pkg/activity"
)

// minConfidenceDays is the number of distinct days with cost required
// before variance-based confidence scoring applies.
const minConfidenceDays = 7

// Forecaster projects budget exhaustion dates from burn rates.
type Forecaster struct {
	source activity.Source
	agg    *Aggregator
	calc   *Calculator

	// now is injectable for tests.
	now func() time.Time
}

// NewForecaster creates a Forecaster over the given source and aggregator.
func NewForecaster(source activity.Source, agg *Aggregator) *Forecaster {
	return &Forecaster{
		source: source,
		agg:    agg,
		calc:   NewCalculator(agg),
		now:    time.Now,
	}
}

// Estimate projects when the project budget will be exhausted, based on
// the trailing windowDays of activity.
//
// Estimate is idempotent: repeated calls against unchanged activity
// return identical results. Projects without a configured budget yield a
// result with Applicable=false rather than a zero-valued forecast.
func (f *Forecaster) Estimate(ctx context.Context, projectID string, windowDays int) (*Forecast, error) {
	if windowDays <= 0 {
		return nil, &ValidationError{Field: "window_days", Reason: "must be positive"}
	}

	project, err := f.source.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if !project.HasBudget() {
		return &Forecast{
			ProjectID:  projectID,
			Applicable: false,
			Confidence: ConfidenceLow,
			Message:    "no budget configured",
		}, nil
	}

	now := f.now()
	today := dayOf(now)

	consumed, err := f.agg.Consumed(ctx, projectID, now)
	if err != nil {
		return nil, err
	}
	remaining := project.BudgetAmount.Sub(consumed)

	// An exhausted budget is an observed fact, not an extrapolation.
	if !remaining.IsPositive() {
		return &Forecast{
			ProjectID:       projectID,
			Applicable:      true,
			CompletionDate:  &today,
			DaysRemaining:   0,
			RemainingBudget: remaining,
			Confidence:      ConfidenceHigh,
			Message:         "budget exhausted",
		}, nil
	}

	rate, err := f.calc.Rate(ctx, projectID, windowDays)
	if err != nil {
		return nil, err
	}

	if rate.Daily.IsZero() {
		return &Forecast{
			ProjectID:       projectID,
			Applicable:      true,
			RemainingBudget: remaining,
			DailyBurnRate:   rate.Daily,
			Confidence:      ConfidenceLow,
			Message:         "no recent activity",
		}, nil
	}

	days := int(remaining.DivMoney(rate.Daily).Floor().IntPart())
	completion := today.AddDate(0, 0, days)

	confidence, err := f.confidence(ctx, projectID, windowDays, now)
	if err != nil {
		return nil, err
	}

	return &Forecast{
		ProjectID:       projectID,
		Applicable:      true,
		CompletionDate:  &completion,
		DaysRemaining:   days,
		RemainingBudget: remaining,
		DailyBurnRate:   rate.Daily,
		Confidence:      confidence,
	}, nil
}

// confidence scores forecast reliability from the coefficient of
// variation of per-day costs in the trailing window.
//
// Fewer than seven distinct days with cost scores low regardless of
// variance. Otherwise CV = stdev/mean: below 0.5 is high, below 1.0 is
// medium, anything above is low.
func (f *Forecaster) confidence(ctx context.Context, projectID string, windowDays int, now time.Time) (Confidence, error) {
	start := now.AddDate(0, 0, -windowDays)
	days, err := f.agg.DailyCosts(ctx, projectID, start, now)
	if err != nil {
		return ConfidenceLow, err
	}

	samples := make([]float64, 0, len(days))
	for _, d := range days {
		if d.Cost.IsZero() {
			continue
		}
		samples = append(samples, d.Cost.Float64())
	}

	if len(samples) < minConfidenceDays {
		return ConfidenceLow, nil
	}

	cv := coefficientOfVariation(samples)
	switch {
	case cv < 0.5:
		return ConfidenceHigh, nil
	case cv < 1.0:
		return ConfidenceMedium, nil
	default:
		return ConfidenceLow, nil
	}
}

// coefficientOfVariation returns stdev/mean of the samples.
func coefficientOfVariation(samples []float64) float64 {
	var sum float64
	for _, s := range samples {
		sum += s
	}
	mean := sum / float64(len(samples))
	if mean == 0 {
		return 0
	}

	var sq float64
	for _, s := range samples {
		d := s - mean
		sq += d * d
	}
	stdev := math.Sqrt(sq / float64(len(samples)))
	return stdev / mean
}
