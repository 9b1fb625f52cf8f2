package budget

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// hundred converts budget ratios to percentages.
var hundred = decimal.NewFromInt(100)

// Snapshot computes the point-in-time budget snapshot for a project.
//
// Returns ErrNoBudget when the project has no configured budget; callers
// must branch on it explicitly rather than treating it as zero spend.
func (a *Aggregator) Snapshot(ctx context.Context, projectID string, asOf time.Time) (*Snapshot, error) {
	project, err := a.source.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.HasBudget() {
		return nil, ErrNoBudget
	}

	consumed, err := a.Consumed(ctx, projectID, asOf)
	if err != nil {
		return nil, err
	}

	pctDecimal := consumed.DivMoney(project.BudgetAmount)
	pct, _ := pctDecimal.Mul(hundred).Float64()

	threshold := project.BudgetThresholdPercent
	if threshold <= 0 || threshold >= 100 {
		threshold = a.DefaultThreshold()
	}

	return &Snapshot{
		ProjectID:        projectID,
		BudgetAmount:     project.BudgetAmount,
		ConsumedAmount:   consumed,
		RemainingAmount:  project.BudgetAmount.Sub(consumed),
		ConsumedPercent:  pct,
		Status:           StatusFor(pct, threshold),
		ThresholdPercent: threshold,
	}, nil
}
