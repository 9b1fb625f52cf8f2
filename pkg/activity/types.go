package activity

import (
	"context"
	"errors"
	"time"

	"trackwell-hq/meridian/pkg/money"
)

// ProjectStatus describes the lifecycle state of a project.
type ProjectStatus string

const (
	// ProjectActive marks a project that accrues cost and is evaluated
	// for alerts and forecasts.
	ProjectActive ProjectStatus = "active"

	// ProjectArchived marks a project that is excluded from evaluation.
	ProjectArchived ProjectStatus = "archived"
)

// Project is the budget-bearing unit consumed from the project
// collaborator.
type Project struct {
	// ID uniquely identifies the project.
	ID string

	// Name is the display name.
	Name string

	// BudgetAmount is the total budget. A zero amount means no budget is
	// configured; forecasting and alerting treat that as not applicable
	// rather than as an exhausted budget.
	BudgetAmount money.Money

	// BudgetThresholdPercent is the consumed percentage at which the
	// first warning fires (typically 80).
	BudgetThresholdPercent float64

	// HourlyRate prices billable time entries for this project.
	HourlyRate money.Money

	// Status is the project lifecycle state.
	Status ProjectStatus
}

// HasBudget reports whether a positive budget is configured.
func (p *Project) HasBudget() bool {
	return p.BudgetAmount.IsPositive()
}

// TimeEntry is a logged span of work on a project.
type TimeEntry struct {
	// ID uniquely identifies the entry.
	ID string

	// ProjectID is the project the time was logged against.
	ProjectID string

	// UserID identifies who logged the time.
	UserID string

	// Start and End bound the worked span.
	Start time.Time
	End   time.Time

	// Billable controls whether the entry contributes to cost.
	Billable bool
}

// Hours returns the worked duration in fractional hours.
func (e *TimeEntry) Hours() float64 {
	return e.End.Sub(e.Start).Hours()
}

// DirectCost is a non-time expense booked against a project.
type DirectCost struct {
	// ID uniquely identifies the cost record.
	ID string

	// ProjectID is the project the cost was booked against.
	ProjectID string

	// Amount is the expense amount.
	Amount money.Money

	// CostDate is the day the expense applies to.
	CostDate time.Time

	// Billable controls whether the cost contributes to consumption.
	Billable bool
}

// Source provides read access to cost activity.
//
// TimeEntries and DirectCosts return records whose date falls within
// [start, end]; an empty range yields an empty slice, never an error.
type Source interface {
	// Project returns the project with the given ID, or
	// ErrProjectNotFound.
	Project(ctx context.Context, id string) (*Project, error)

	// Projects returns all projects.
	Projects(ctx context.Context) ([]*Project, error)

	// TimeEntries returns time entries for a project whose start time
	// falls within [start, end].
	TimeEntries(ctx context.Context, projectID string, start, end time.Time) ([]*TimeEntry, error)

	// DirectCosts returns direct costs for a project whose cost date
	// falls within [start, end].
	DirectCosts(ctx context.Context, projectID string, start, end time.Time) ([]*DirectCost, error)
}

// ErrProjectNotFound is returned when a project ID does not exist.
var ErrProjectNotFound = errors.New("project not found")
