package budget

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Calculator derives spend rates from a trailing window of cost activity.
type Calculator struct {
	agg *Aggregator

	// now is injectable for tests.
	now func() time.Time
}

// NewCalculator creates a Calculator over the given aggregator.
func NewCalculator(agg *Aggregator) *Calculator {
	return &Calculator{agg: agg, now: time.Now}
}

// Rate computes the burn rate for a project over the trailing windowDays.
//
// A window with no activity yields all-zero rates, which is a valid
// result and not an error. windowDays must be positive.
func (c *Calculator) Rate(ctx context.Context, projectID string, windowDays int) (*BurnRate, error) {
	if windowDays <= 0 {
		return nil, &ValidationError{Field: "window_days", Reason: "must be positive"}
	}

	now := c.now()
	start := now.AddDate(0, 0, -windowDays)

	total, err := c.agg.TotalCost(ctx, projectID, start, now)
	if err != nil {
		return nil, err
	}

	daily := total.DivInt(int64(windowDays))
	return &BurnRate{
		ProjectID:   projectID,
		WindowDays:  windowDays,
		PeriodTotal: total,
		Daily:       daily,
		Weekly:      daily.Mul(decimal.NewFromInt(7)),
		Monthly:     daily.Mul(decimal.NewFromInt(30)),
	}, nil
}
