package budget

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"trackwell-hq/meridian/pkg/activity"
	"trackwell-hq/meridian/pkg/money"
)

// Aggregator sums billable cost activity for projects.
//
// Cost is billable time (hours priced at the project hourly rate) plus
// billable direct costs. Non-billable records never contribute. All
// methods are read-only and safe for concurrent use.
type Aggregator struct {
	source activity.Source

	// defaultThreshold is the warning threshold applied to projects that
	// do not carry their own. Guarded by mu so config reloads can adjust
	// it while snapshots are being computed.
	mu               sync.RWMutex
	defaultThreshold float64
}

// NewAggregator creates an Aggregator over the given activity source.
func NewAggregator(source activity.Source) *Aggregator {
	return &Aggregator{source: source, defaultThreshold: DefaultWarningThreshold}
}

// SetDefaultThreshold overrides the warning threshold used for projects
// without one of their own. Values outside (0, 100) are ignored.
func (a *Aggregator) SetDefaultThreshold(pct float64) {
	if pct > 0 && pct < 100 {
		a.mu.Lock()
		a.defaultThreshold = pct
		a.mu.Unlock()
	}
}

// DefaultThreshold returns the fallback warning threshold.
func (a *Aggregator) DefaultThreshold() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.defaultThreshold
}

// TotalCost returns the total billable cost for a project within
// [start, end]. An empty window returns zero, never an error.
func (a *Aggregator) TotalCost(ctx context.Context, projectID string, start, end time.Time) (money.Money, error) {
	project, err := a.source.Project(ctx, projectID)
	if err != nil {
		return money.Zero, err
	}

	entries, err := a.source.TimeEntries(ctx, projectID, start, end)
	if err != nil {
		return money.Zero, fmt.Errorf("failed to load time entries: %w", err)
	}

	total := money.Zero
	for _, e := range entries {
		if !e.Billable {
			continue
		}
		total = total.Add(project.HourlyRate.MulFloat(e.Hours()))
	}

	costs, err := a.source.DirectCosts(ctx, projectID, start, end)
	if err != nil {
		return money.Zero, fmt.Errorf("failed to load direct costs: %w", err)
	}
	for _, c := range costs {
		if !c.Billable {
			continue
		}
		total = total.Add(c.Amount)
	}

	return total, nil
}

// Consumed returns the all-time billable cost for a project up to asOf.
func (a *Aggregator) Consumed(ctx context.Context, projectID string, asOf time.Time) (money.Money, error) {
	return a.TotalCost(ctx, projectID, time.Time{}, asOf)
}

// DailyCosts returns per-day billable costs within [start, end],
// chronologically ordered. Days without any cost are omitted.
func (a *Aggregator) DailyCosts(ctx context.Context, projectID string, start, end time.Time) ([]DayCost, error) {
	project, err := a.source.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}

	entries, err := a.source.TimeEntries(ctx, projectID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load time entries: %w", err)
	}
	costs, err := a.source.DirectCosts(ctx, projectID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load direct costs: %w", err)
	}

	byDay := make(map[time.Time]money.Money)
	for _, e := range entries {
		if !e.Billable {
			continue
		}
		day := dayOf(e.Start)
		byDay[day] = byDay[day].Add(project.HourlyRate.MulFloat(e.Hours()))
	}
	for _, c := range costs {
		if !c.Billable {
			continue
		}
		day := dayOf(c.CostDate)
		byDay[day] = byDay[day].Add(c.Amount)
	}

	out := make([]DayCost, 0, len(byDay))
	for day, cost := range byDay {
		out = append(out, DayCost{Date: day, Cost: cost})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// ResourceAllocation returns per-user billable hours and cost within
// [start, end], ordered by descending cost.
func (a *Aggregator) ResourceAllocation(ctx context.Context, projectID string, start, end time.Time) ([]UserAllocation, error) {
	project, err := a.source.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}

	entries, err := a.source.TimeEntries(ctx, projectID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load time entries: %w", err)
	}

	hoursByUser := make(map[string]float64)
	for _, e := range entries {
		if !e.Billable {
			continue
		}
		hoursByUser[e.UserID] += e.Hours()
	}

	out := make([]UserAllocation, 0, len(hoursByUser))
	for userID, hours := range hoursByUser {
		out = append(out, UserAllocation{
			UserID: userID,
			Hours:  hours,
			Cost:   project.HourlyRate.MulFloat(hours),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Cost.Cmp(out[j].Cost); c != 0 {
			return c > 0
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

// dayOf truncates a timestamp to midnight UTC.
func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
