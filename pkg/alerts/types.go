package alerts

import (
	"context"
	"errors"
	"time"

	"trackwell-hq/meridian/pkg/budget"
	"trackwell-hq/meridian/pkg/money"
)

// Type identifies a budget alert threshold.
type Type string

const (
	// TypeWarning fires when consumption crosses the project warning
	// threshold but stays below 100%.
	TypeWarning Type = "warning_80"

	// TypeCritical fires when consumption reaches 100% but stays below
	// 105%.
	TypeCritical Type = "warning_100"

	// TypeOverBudget fires when consumption reaches 105%.
	TypeOverBudget Type = "over_budget"
)

// TypeFor maps a consumed percentage and warning threshold to an alert
// type. The second return is false when no threshold has been crossed.
//
// The ranges are mutually exclusive by construction and mirror
// budget.StatusFor.
func TypeFor(consumedPercent, thresholdPercent float64) (Type, bool) {
	switch {
	case consumedPercent >= 105:
		return TypeOverBudget, true
	case consumedPercent >= 100:
		return TypeCritical, true
	case consumedPercent >= thresholdPercent:
		return TypeWarning, true
	default:
		return "", false
	}
}

// DedupWindow is the minimum interval during which a second
// unacknowledged alert of the same type for the same project is
// suppressed.
const DedupWindow = 24 * time.Hour

// Alert is a persisted budget alert record.
type Alert struct {
	// ID uniquely identifies the alert.
	ID string `json:"id"`

	// ProjectID is the project the alert belongs to. Alerts are owned
	// by their project and cascade-deleted with it.
	ProjectID string `json:"project_id"`

	// Type is the crossed threshold.
	Type Type `json:"alert_type"`

	// ConsumedPercent is the consumption percentage at alert time.
	ConsumedPercent float64 `json:"budget_consumed_percent"`

	// BudgetAmount is the project budget at alert time.
	BudgetAmount money.Money `json:"budget_amount"`

	// ConsumedAmount is the consumption at alert time.
	ConsumedAmount money.Money `json:"consumed_amount"`

	// Message is the human-readable alert text.
	Message string `json:"message"`

	// CreatedAt is when the alert was raised.
	CreatedAt time.Time `json:"created_at"`

	// Acknowledged marks whether the alert has been acknowledged.
	// The transition is one-way.
	Acknowledged bool `json:"is_acknowledged"`

	// AcknowledgedBy records who acknowledged the alert.
	AcknowledgedBy string `json:"acknowledged_by,omitempty"`

	// AcknowledgedAt records when the alert was acknowledged.
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
}

// Store persists alert records.
//
// Implementations must run the Insert dedup re-check and the row insert
// in the same transaction (or under an equivalent unique guard) so that
// concurrent evaluators cannot create duplicate unacknowledged alerts.
type Store interface {
	// Insert appends a new alert. Returns ErrDuplicateAlert when an
	// unacknowledged alert with the same (project, type) created after
	// alert.CreatedAt - DedupWindow already exists.
	Insert(ctx context.Context, alert *Alert) error

	// Acknowledge marks an alert acknowledged. Returns ErrAlertNotFound
	// for unknown IDs and ErrAlreadyAcknowledged when the alert was
	// acknowledged before; the transition is never reversed.
	Acknowledge(ctx context.Context, alertID, by string, at time.Time) error

	// Unacknowledged returns the most recent unacknowledged alert of the
	// given type for a project created at or after since, or nil.
	Unacknowledged(ctx context.Context, projectID string, typ Type, since time.Time) (*Alert, error)

	// ListByProject returns all alerts for a project, newest first.
	ListByProject(ctx context.Context, projectID string) ([]*Alert, error)

	// ListUnacknowledged returns all unacknowledged alerts, newest first.
	ListUnacknowledged(ctx context.Context) ([]*Alert, error)

	// Counts returns the total and unacknowledged alert counts.
	Counts(ctx context.Context) (total, unacknowledged int, err error)

	// DeleteByProject removes all alerts owned by a project.
	DeleteByProject(ctx context.Context, projectID string) error
}

// Summary is a cross-project budget and alert overview.
type Summary struct {
	// Projects is the number of projects evaluated.
	Projects int `json:"projects"`

	// ByStatus counts budgeted projects per budget status.
	ByStatus map[budget.Status]int `json:"by_status"`

	// NoBudget counts projects without a configured budget.
	NoBudget int `json:"no_budget"`

	// TotalBudget is the summed budget of all budgeted projects.
	TotalBudget money.Money `json:"total_budget"`

	// TotalConsumed is the summed consumption of all budgeted projects.
	TotalConsumed money.Money `json:"total_consumed"`

	// TotalAlerts is the all-time alert count.
	TotalAlerts int `json:"total_alerts"`

	// UnacknowledgedAlerts is the open alert count.
	UnacknowledgedAlerts int `json:"unacknowledged_alerts"`
}

// Store errors.
var (
	// ErrAlertNotFound is returned for unknown alert IDs.
	ErrAlertNotFound = errors.New("alert not found")

	// ErrAlreadyAcknowledged is returned when acknowledging an alert a
	// second time.
	ErrAlreadyAcknowledged = errors.New("alert already acknowledged")

	// ErrDuplicateAlert is returned when the dedup guard rejects an
	// insert.
	ErrDuplicateAlert = errors.New("duplicate unacknowledged alert within dedup window")
)
