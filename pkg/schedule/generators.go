package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"trackwell-hq/meridian/pkg/activity"
	"trackwell-hq/meridian/pkg/budget"
)

// InvoiceGenerator renders a recurring invoice for the costs of the
// schedule's period.
type InvoiceGenerator struct {
	source activity.Source
	agg    *budget.Aggregator
}

// NewInvoiceGenerator creates an invoice generator over an activity
// source.
func NewInvoiceGenerator(source activity.Source) *InvoiceGenerator {
	return &InvoiceGenerator{
		source: source,
		agg:    budget.NewAggregator(source),
	}
}

// Generate renders the invoice artifact for one occurrence. The billed
// window is the period ending at the occurrence's due time.
func (g *InvoiceGenerator) Generate(ctx context.Context, s *Schedule, periodKey string) (*Artifact, error) {
	project, err := g.source.Project(ctx, s.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("invoice for %s: %w", s.ProjectID, err)
	}

	start, end := periodBounds(s, s.NextRunAt)
	total, err := g.agg.TotalCost(ctx, s.ProjectID, start, end)
	if err != nil {
		return nil, fmt.Errorf("invoice for %s: %w", s.ProjectID, err)
	}

	allocations, err := g.agg.ResourceAllocation(ctx, s.ProjectID, start, end)
	if err != nil {
		return nil, fmt.Errorf("invoice for %s: %w", s.ProjectID, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Invoice %s\n", periodKey)
	fmt.Fprintf(&b, "Project: %s\n", project.Name)
	fmt.Fprintf(&b, "Period: %s to %s\n",
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	b.WriteString("\n")
	for _, alloc := range allocations {
		fmt.Fprintf(&b, "  %-24s %8.2fh  %12s\n", alloc.UserID, alloc.Hours, alloc.Cost)
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", total)

	return &Artifact{
		ID:         uuid.NewString(),
		ScheduleID: s.ID,
		PeriodKey:  periodKey,
		Kind:       KindInvoice,
		Content:    b.String(),
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// ReportGenerator renders a budget status report for the project.
type ReportGenerator struct {
	source activity.Source
	agg    *budget.Aggregator
}

// NewReportGenerator creates a report generator over an activity
// source.
func NewReportGenerator(source activity.Source) *ReportGenerator {
	return &ReportGenerator{
		source: source,
		agg:    budget.NewAggregator(source),
	}
}

// Generate renders the report artifact for one occurrence.
func (g *ReportGenerator) Generate(ctx context.Context, s *Schedule, periodKey string) (*Artifact, error) {
	project, err := g.source.Project(ctx, s.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("report for %s: %w", s.ProjectID, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Budget report %s\n", periodKey)
	fmt.Fprintf(&b, "Project: %s\n", project.Name)

	if project.HasBudget() {
		snap, err := g.agg.Snapshot(ctx, s.ProjectID, s.NextRunAt)
		if err != nil {
			return nil, fmt.Errorf("report for %s: %w", s.ProjectID, err)
		}
		fmt.Fprintf(&b, "Status: %s\n", snap.Status)
		fmt.Fprintf(&b, "Budget: %s\n", snap.BudgetAmount)
		fmt.Fprintf(&b, "Consumed: %s (%.1f%%)\n", snap.ConsumedAmount, snap.ConsumedPercent)
		fmt.Fprintf(&b, "Remaining: %s\n", snap.RemainingAmount)
	} else {
		b.WriteString("Status: no budget configured\n")
		consumed, err := g.agg.Consumed(ctx, s.ProjectID, s.NextRunAt)
		if err != nil {
			return nil, fmt.Errorf("report for %s: %w", s.ProjectID, err)
		}
		fmt.Fprintf(&b, "Consumed: %s\n", consumed)
	}

	return &Artifact{
		ID:         uuid.NewString(),
		ScheduleID: s.ID,
		PeriodKey:  periodKey,
		Kind:       KindReport,
		Content:    b.String(),
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// periodBounds returns the covered window for an occurrence due at
// dueAt: one cadence length back from the due time.
func periodBounds(s *Schedule, dueAt time.Time) (start, end time.Time) {
	end = dueAt
	switch s.Cadence {
	case CadenceWeekly:
		start = end.AddDate(0, 0, -7)
	case CadenceMonthly:
		start = end.AddDate(0, -1, 0)
	default:
		start = end.AddDate(0, 0, -1)
	}
	return start, end
}
