package budget

import (
	"errors"
	"fmt"
	"time"

	"trackwell-hq/meridian/pkg/money"
)

// Status classifies budget consumption for a project.
type Status string

const (
	// StatusHealthy means consumption is below the warning threshold.
	StatusHealthy Status = "healthy"

	// StatusWarning means consumption crossed the warning threshold but
	// is below 100%.
	StatusWarning Status = "warning"

	// StatusCritical means consumption is at or above 100% but below 105%.
	StatusCritical Status = "critical"

	// StatusOverBudget means consumption is at or above 105%.
	StatusOverBudget Status = "over_budget"
)

// DefaultWarningThreshold applies to projects without a threshold of
// their own.
const DefaultWarningThreshold = 80

// StatusFor maps a consumed percentage and warning threshold to a Status.
//
// The ranges are exclusive by construction: exactly one status applies to
// every percentage from 0 upward.
func StatusFor(consumedPercent, thresholdPercent float64) Status {
	switch {
	case consumedPercent >= 105:
		return StatusOverBudget
	case consumedPercent >= 100:
		return StatusCritical
	case consumedPercent >= thresholdPercent:
		return StatusWarning
	default:
		return StatusHealthy
	}
}

// Snapshot is a derived, point-in-time view of a project's budget.
// Snapshots are computed on demand and never persisted.
type Snapshot struct {
	// ProjectID identifies the project.
	ProjectID string `json:"project_id"`

	// BudgetAmount is the configured budget.
	BudgetAmount money.Money `json:"budget_amount"`

	// ConsumedAmount is the total billable cost to date.
	ConsumedAmount money.Money `json:"consumed_amount"`

	// RemainingAmount is BudgetAmount - ConsumedAmount (may be negative).
	RemainingAmount money.Money `json:"remaining_amount"`

	// ConsumedPercent is consumption as a percentage of budget.
	ConsumedPercent float64 `json:"consumed_percent"`

	// Status classifies the consumption level.
	Status Status `json:"status"`

	// ThresholdPercent is the warning threshold the status was computed
	// against.
	ThresholdPercent float64 `json:"threshold_percent"`
}

// BurnRate contains spend rates derived from a trailing window.
type BurnRate struct {
	// ProjectID identifies the project.
	ProjectID string `json:"project_id"`

	// WindowDays is the trailing window length the rates derive from.
	WindowDays int `json:"window_days"`

	// PeriodTotal is the total billable cost inside the window.
	PeriodTotal money.Money `json:"period_total"`

	// Daily is PeriodTotal / WindowDays.
	Daily money.Money `json:"daily"`

	// Weekly is Daily * 7.
	Weekly money.Money `json:"weekly"`

	// Monthly is Daily * 30.
	Monthly money.Money `json:"monthly"`
}

// Confidence is a qualitative forecast-reliability score.
type Confidence string

const (
	// ConfidenceHigh indicates stable recent spending (CV < 0.5) or an
	// observed fact such as an already-exhausted budget.
	ConfidenceHigh Confidence = "high"

	// ConfidenceMedium indicates moderately variable spending (CV < 1.0).
	ConfidenceMedium Confidence = "medium"

	// ConfidenceLow indicates highly variable spending, or fewer than
	// seven distinct days of cost data.
	ConfidenceLow Confidence = "low"
)

// Forecast is a budget-exhaustion projection.
//
// Applicable is false when the project has no budget configured; that
// result carries no numbers and must not be read as a zero-valued
// forecast.
type Forecast struct {
	// ProjectID identifies the project.
	ProjectID string `json:"project_id"`

	// Applicable is false when no budget is configured.
	Applicable bool `json:"applicable"`

	// CompletionDate is the projected exhaustion date. Nil when there is
	// no recent activity to extrapolate from.
	CompletionDate *time.Time `json:"completion_date,omitempty"`

	// DaysRemaining is the projected number of days until exhaustion.
	DaysRemaining int `json:"days_remaining"`

	// RemainingBudget is budget minus consumption at forecast time.
	RemainingBudget money.Money `json:"remaining_budget"`

	// DailyBurnRate is the daily rate the projection used.
	DailyBurnRate money.Money `json:"daily_burn_rate"`

	// Confidence scores the reliability of the projection.
	Confidence Confidence `json:"confidence"`

	// Message carries a human-readable note (e.g. "no recent activity").
	Message string `json:"message,omitempty"`
}

// Granularity selects the bucketing period for trend analysis.
type Granularity string

const (
	// GranularityDay buckets costs per ISO date.
	GranularityDay Granularity = "day"

	// GranularityWeek buckets costs per ISO week.
	GranularityWeek Granularity = "week"

	// GranularityMonth buckets costs per calendar month.
	GranularityMonth Granularity = "month"
)

// Direction classifies a spending trend.
type Direction string

const (
	// DirectionIncreasing means the second half of the series averages
	// more than 110% of the first half.
	DirectionIncreasing Direction = "increasing"

	// DirectionDecreasing means the second half averages less than 90%
	// of the first half.
	DirectionDecreasing Direction = "decreasing"

	// DirectionStable means the halves are within the 90-110% band.
	DirectionStable Direction = "stable"

	// DirectionInsufficientData means fewer than two periods had data.
	DirectionInsufficientData Direction = "insufficient_data"
)

// TrendPoint is the cost of a single period.
type TrendPoint struct {
	// Period is the period key (e.g. "2026-08-29", "2026-W35", "2026-08").
	Period string `json:"period"`

	// Cost is the total billable cost within the period.
	Cost money.Money `json:"cost"`
}

// TrendReport is the result of trend analysis over a trailing window.
type TrendReport struct {
	// ProjectID identifies the project.
	ProjectID string `json:"project_id"`

	// Granularity is the bucketing period used.
	Granularity Granularity `json:"granularity"`

	// Points is the chronologically ordered cost series.
	Points []TrendPoint `json:"points"`

	// Direction classifies the trend.
	Direction Direction `json:"direction"`

	// TrendPercent is (last - first) / first * 100, or 0 when the first
	// period cost is zero.
	TrendPercent float64 `json:"trend_percent"`

	// AverageCost is the mean cost per period.
	AverageCost money.Money `json:"average_cost"`
}

// UserAllocation is the share of project cost attributable to one user.
type UserAllocation struct {
	// UserID identifies the user.
	UserID string `json:"user_id"`

	// Hours is the total billable hours logged in the window.
	Hours float64 `json:"hours"`

	// Cost is Hours priced at the project hourly rate.
	Cost money.Money `json:"cost"`
}

// DayCost is the total billable cost of a single calendar day.
type DayCost struct {
	// Date is the day, truncated to midnight UTC.
	Date time.Time

	// Cost is the total billable cost on that day.
	Cost money.Money
}

// ValidationError reports invalid input to a computation. It is surfaced
// to the caller immediately and never retried.
type ValidationError struct {
	// Field names the offending input.
	Field string

	// Reason explains the violation.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ErrNoBudget is returned when an operation requires a configured budget
// and the project has none. Distinct from a healthy project with zero
// spend; callers must branch on it explicitly.
var ErrNoBudget = errors.New("no budget configured")
