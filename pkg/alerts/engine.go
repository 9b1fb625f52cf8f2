package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"trackwell-hq/meridian/pkg/activity"
	"trackwell-hq/meridian/pkg/budget"
)

// Engine evaluates project budgets against thresholds and manages the
// alert record lifecycle.
type Engine struct {
	store  Store
	source activity.Source
	agg    *budget.Aggregator
	logger *slog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewEngine creates an alert engine over the given store and activity
// source.
func NewEngine(store Store, source activity.Source, agg *budget.Aggregator) *Engine {
	return &Engine{
		store:  store,
		source: source,
		agg:    agg,
		logger: slog.Default().With("component", "alerts.engine"),
		now:    time.Now,
	}
}

// CheckProject evaluates a project's budget and raises an alert if a
// threshold has been crossed and no unacknowledged alert of the same
// type exists within the dedup window.
//
// Returns the created alert, or nil when nothing fired (healthy budget,
// no budget configured, or a suppressed duplicate).
func (e *Engine) CheckProject(ctx context.Context, projectID string) (*Alert, error) {
	now := e.now()

	snap, err := e.agg.Snapshot(ctx, projectID, now)
	if errors.Is(err, budget.ErrNoBudget) {
		alertChecks.WithLabelValues("no_budget").Inc()
		return nil, nil
	}
	if err != nil {
		alertChecks.WithLabelValues("error").Inc()
		return nil, err
	}

	budgetConsumedPercent.WithLabelValues(projectID).Set(snap.ConsumedPercent)

	typ, crossed := TypeFor(snap.ConsumedPercent, snap.ThresholdPercent)
	if !crossed {
		alertChecks.WithLabelValues("healthy").Inc()
		return nil, nil
	}

	// Dedup pre-check. The store re-checks inside the insert transaction;
	// this avoids building the record in the common suppressed case.
	existing, err := e.store.Unacknowledged(ctx, projectID, typ, now.Add(-DedupWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing alert: %w", err)
	}
	if existing != nil {
		alertChecks.WithLabelValues("suppressed").Inc()
		alertsSuppressed.WithLabelValues(string(typ)).Inc()
		return nil, nil
	}

	alert := &Alert{
		ID:              uuid.NewString(),
		ProjectID:       projectID,
		Type:            typ,
		ConsumedPercent: snap.ConsumedPercent,
		BudgetAmount:    snap.BudgetAmount,
		ConsumedAmount:  snap.ConsumedAmount,
		Message:         alertMessage(typ, snap),
		CreatedAt:       now,
	}

	if err := e.store.Insert(ctx, alert); err != nil {
		if errors.Is(err, ErrDuplicateAlert) {
			// Lost the race against a concurrent evaluator.
			alertChecks.WithLabelValues("suppressed").Inc()
			alertsSuppressed.WithLabelValues(string(typ)).Inc()
			return nil, nil
		}
		alertChecks.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to insert alert: %w", err)
	}

	alertChecks.WithLabelValues("created").Inc()
	alertsCreated.WithLabelValues(string(typ)).Inc()

	e.logger.Info("budget alert created",
		"project_id", projectID,
		"type", typ,
		"consumed_percent", snap.ConsumedPercent,
	)

	return alert, nil
}

// Acknowledge marks an alert acknowledged by the given user. The
// transition is one-way; a later threshold crossing creates a new alert
// instead of reopening this one.
func (e *Engine) Acknowledge(ctx context.Context, alertID, by string) error {
	if err := e.store.Acknowledge(ctx, alertID, by, e.now()); err != nil {
		return err
	}
	alertsAcknowledged.Inc()

	e.logger.Info("alert acknowledged",
		"alert_id", alertID,
		"acknowledged_by", by,
	)
	return nil
}

// ListByProject returns all alerts for a project, newest first.
func (e *Engine) ListByProject(ctx context.Context, projectID string) ([]*Alert, error) {
	return e.store.ListByProject(ctx, projectID)
}

// ListUnacknowledged returns all open alerts, newest first.
func (e *Engine) ListUnacknowledged(ctx context.Context) ([]*Alert, error) {
	return e.store.ListUnacknowledged(ctx)
}

// DeleteByProject removes all alerts owned by a project. Called by the
// project collaborator when a project is deleted.
func (e *Engine) DeleteByProject(ctx context.Context, projectID string) error {
	return e.store.DeleteByProject(ctx, projectID)
}

// Summary computes the cross-project budget and alert overview.
func (e *Engine) Summary(ctx context.Context) (*Summary, error) {
	projects, err := e.source.Projects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	now := e.now()
	summary := &Summary{
		Projects: len(projects),
		ByStatus: make(map[budget.Status]int),
	}

	for _, p := range projects {
		snap, err := e.agg.Snapshot(ctx, p.ID, now)
		if errors.Is(err, budget.ErrNoBudget) {
			summary.NoBudget++
			continue
		}
		if err != nil {
			return nil, err
		}
		summary.ByStatus[snap.Status]++
		summary.TotalBudget = summary.TotalBudget.Add(snap.BudgetAmount)
		summary.TotalConsumed = summary.TotalConsumed.Add(snap.ConsumedAmount)
	}

	total, unacked, err := e.store.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count alerts: %w", err)
	}
	summary.TotalAlerts = total
	summary.UnacknowledgedAlerts = unacked

	return summary, nil
}

// alertMessage renders the human-readable alert text.
func alertMessage(typ Type, snap *budget.Snapshot) string {
	switch typ {
	case TypeOverBudget:
		return fmt.Sprintf("Project budget exceeded: %s spent of %s (%.1f%%)",
			snap.ConsumedAmount, snap.BudgetAmount, snap.ConsumedPercent)
	case TypeCritical:
		return fmt.Sprintf("Project budget fully consumed: %s spent of %s (%.1f%%)",
			snap.ConsumedAmount, snap.BudgetAmount, snap.ConsumedPercent)
	default:
		return fmt.Sprintf("Project budget at %.1f%%: %s spent of %s",
			snap.ConsumedPercent, snap.ConsumedAmount, snap.BudgetAmount)
	}
}
