package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Cadence is the repetition pattern of a schedule. The set is closed;
// dispatch on it is by tagged switch, never by string matching free text.
type Cadence string

const (
	// CadenceDaily runs every calendar day.
	CadenceDaily Cadence = "daily"

	// CadenceWeekly runs every Monday.
	CadenceWeekly Cadence = "weekly"

	// CadenceMonthly runs on the first day of every month.
	CadenceMonthly Cadence = "monthly"

	// CadenceCustom runs per a cron expression in the schedule timezone.
	CadenceCustom Cadence = "custom"
)

// Kind identifies the work a schedule drives.
type Kind string

const (
	// KindInvoice generates a recurring invoice.
	KindInvoice Kind = "invoice"

	// KindReport renders and dispatches a scheduled report email.
	KindReport Kind = "report"

	// KindWebhookSweep retries failed webhook deliveries.
	KindWebhookSweep Kind = "webhook_sweep"
)

// Schedule is a persisted recurring job definition.
type Schedule struct {
	// ID uniquely identifies the schedule.
	ID string `json:"id"`

	// ProjectID is the owning project; schedules cascade-delete with it.
	ProjectID string `json:"project_id"`

	// Kind selects the generator that produces the occurrence artifact.
	Kind Kind `json:"kind"`

	// Cadence is the repetition pattern.
	Cadence Cadence `json:"cadence"`

	// CronExpr holds the cron expression for CadenceCustom.
	CronExpr string `json:"cron_expr,omitempty"`

	// Timezone is the IANA zone the cadence anchors to (e.g.
	// "Europe/Berlin"). Empty means UTC.
	Timezone string `json:"timezone,omitempty"`

	// NextRunAt is the next due time. It advances only after the
	// occurrence's artifact was produced.
	NextRunAt time.Time `json:"next_run_at"`

	// LastRunAt is when the schedule last executed successfully.
	LastRunAt *time.Time `json:"last_run_at,omitempty"`

	// Active gates execution. Deactivation is honored before any
	// follow-on side effect of an in-flight run where feasible.
	Active bool `json:"active"`

	// EndDate, when set, is the end of the series; no occurrence is
	// generated past it.
	EndDate *time.Time `json:"end_date,omitempty"`

	// Recipient and Subject parameterize delivery for kinds that send.
	Recipient string `json:"recipient,omitempty"`
	Subject   string `json:"subject,omitempty"`
}

// Location resolves the schedule timezone, defaulting to UTC.
func (s *Schedule) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Artifact is the output of one schedule occurrence (a generated
// invoice, a rendered report). At most one artifact exists per
// (schedule, period key), enforced by the store.
type Artifact struct {
	// ID uniquely identifies the artifact.
	ID string `json:"id"`

	// ScheduleID is the producing schedule.
	ScheduleID string `json:"schedule_id"`

	// PeriodKey identifies the occurrence (e.g. "2026-03-18",
	// "2026-W12"). The (ScheduleID, PeriodKey) pair is unique.
	PeriodKey string `json:"period_key"`

	// Kind mirrors the schedule kind.
	Kind Kind `json:"kind"`

	// Content is the rendered payload handed to delivery.
	Content string `json:"content"`

	// CreatedAt is when the artifact was generated.
	CreatedAt time.Time `json:"created_at"`
}

// FailedDelivery records an artifact whose delivery exhausted its
// retry budget. The artifact itself is already persisted; the record
// points at its occurrence so a webhook sweep can re-dispatch it.
type FailedDelivery struct {
	// ID uniquely identifies the record.
	ID string `json:"id"`

	// ScheduleID and PeriodKey locate the failed occurrence. One record
	// exists per occurrence; re-recording replaces it.
	ScheduleID string `json:"schedule_id"`
	PeriodKey  string `json:"period_key"`

	// Recipient is the delivery target at failure time.
	Recipient string `json:"recipient,omitempty"`

	// Attempts is how many sends were made before giving up.
	Attempts int `json:"attempts"`

	// LastError is the final failure, for operators.
	LastError string `json:"last_error"`

	// FailedAt is when the retry budget was exhausted.
	FailedAt time.Time `json:"failed_at"`
}

// Store persists schedules, artifacts, and failed-delivery records.
//
// Claim and Complete carry the concurrency contract: Claim is a
// compare-and-set that succeeds for exactly one caller per observed
// next-run time, and Complete commits the schedule advance and the
// artifact insert in one transaction.
type Store interface {
	// PutSchedule creates or replaces a schedule definition.
	PutSchedule(ctx context.Context, s *Schedule) error

	// GetSchedule returns a schedule by ID, or ErrScheduleNotFound.
	GetSchedule(ctx context.Context, id string) (*Schedule, error)

	// ListSchedules returns all schedules.
	ListSchedules(ctx context.Context) ([]*Schedule, error)

	// Due returns active schedules with NextRunAt <= now whose claim
	// lease (if any) has expired.
	Due(ctx context.Context, now time.Time) ([]*Schedule, error)

	// Claim atomically leases a due schedule for execution. It succeeds
	// only if the schedule is active, its NextRunAt still equals
	// observedNextRun, and no unexpired lease exists. Returns false when
	// another instance won the claim.
	Claim(ctx context.Context, id string, observedNextRun, leaseUntil time.Time) (bool, error)

	// Complete records a successful occurrence: sets LastRunAt, advances
	// NextRunAt, clears the lease, and inserts the artifact, all in one
	// transaction. If an artifact for (schedule, period) already exists
	// the schedule still advances and ErrDuplicateArtifact is returned.
	Complete(ctx context.Context, id string, lastRun, nextRun time.Time, artifact *Artifact) error

	// Deactivate sets Active to false.
	Deactivate(ctx context.Context, id string) error

	// Artifact returns the artifact for an occurrence, or nil.
	Artifact(ctx context.Context, scheduleID, periodKey string) (*Artifact, error)

	// ListArtifacts returns all artifacts of a schedule, newest first.
	ListArtifacts(ctx context.Context, scheduleID string) ([]*Artifact, error)

	// PutFailedDelivery records an exhausted delivery. A record for the
	// same (schedule, period) is replaced.
	PutFailedDelivery(ctx context.Context, fd *FailedDelivery) error

	// ListFailedDeliveries returns all recorded failures, oldest first.
	ListFailedDeliveries(ctx context.Context) ([]*FailedDelivery, error)

	// DeleteFailedDelivery removes a record after a successful re-send.
	DeleteFailedDelivery(ctx context.Context, id string) error

	// DeleteByProject removes all schedules, artifacts, and
	// failed-delivery records owned by a project.
	DeleteByProject(ctx context.Context, projectID string) error
}

// Generator produces the artifact for one occurrence of a schedule.
// Implementations live with the collaborators that own invoice and
// report rendering.
type Generator interface {
	Generate(ctx context.Context, s *Schedule, periodKey string) (*Artifact, error)
}

// Sender delivers a generated artifact (email, webhook). A Sender must
// classify failures: transient ones are retried, permanent ones abort.
type Sender interface {
	Send(ctx context.Context, s *Schedule, artifact *Artifact) error
}

// DeliveryError describes a delivery failure.
type DeliveryError struct {
	// Transient marks failures worth retrying (timeouts, 5xx).
	Transient bool

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *DeliveryError) Error() string {
	if e.Transient {
		return fmt.Sprintf("transient delivery failure: %v", e.Err)
	}
	return fmt.Sprintf("permanent delivery failure: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Store errors.
var (
	// ErrScheduleNotFound is returned for unknown schedule IDs.
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrDuplicateArtifact is returned when an occurrence's artifact
	// already exists.
	ErrDuplicateArtifact = errors.New("artifact already exists for period")
)
