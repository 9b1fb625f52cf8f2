package dashboard

import (
	"context"
	"fmt"
	"time"

	"trackwell-hq/meridian/pkg/activity"
	"trackwell-hq/meridian/pkg/alerts"
	"trackwell-hq/meridian/pkg/budget"
	"trackwell-hq/meridian/pkg/money"
)

// BurnRatePayload is the burn-rate dashboard card.
type BurnRatePayload struct {
	ProjectID   string           `json:"project_id"`
	ProjectName string           `json:"project_name"`
	Rate        *budget.BurnRate `json:"rate"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// CompletionPayload is the budget-exhaustion forecast card.
type CompletionPayload struct {
	ProjectID   string           `json:"project_id"`
	ProjectName string           `json:"project_name"`
	Forecast    *budget.Forecast `json:"forecast"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// AllocationPayload is the per-user cost breakdown card.
type AllocationPayload struct {
	ProjectID   string                  `json:"project_id"`
	ProjectName string                  `json:"project_name"`
	WindowDays  int                     `json:"window_days"`
	Users       []budget.UserAllocation `json:"users"`
	TotalHours  float64                 `json:"total_hours"`
	TotalCost   money.Money             `json:"total_cost"`
	GeneratedAt time.Time               `json:"generated_at"`
}

// TrendsPayload is the cost-trend chart data.
type TrendsPayload struct {
	ProjectID   string              `json:"project_id"`
	ProjectName string              `json:"project_name"`
	WindowDays  int                 `json:"window_days"`
	Report      *budget.TrendReport `json:"report"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// StatusPayload is the budget-status card: the snapshot plus the open
// alerts for the project.
type StatusPayload struct {
	ProjectID   string           `json:"project_id"`
	ProjectName string           `json:"project_name"`
	HasBudget   bool             `json:"has_budget"`
	Snapshot    *budget.Snapshot `json:"snapshot,omitempty"`
	OpenAlerts  []*alerts.Alert  `json:"open_alerts"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// SummaryPayload is the cross-project overview.
type SummaryPayload struct {
	Summary     *alerts.Summary `json:"summary"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Service computes dashboard payloads.
type Service struct {
	source     activity.Source
	agg        *budget.Aggregator
	calc       *budget.Calculator
	forecaster *budget.Forecaster
	analyzer   *budget.Analyzer
	engine     *alerts.Engine

	// now is the clock, overridable in tests.
	now func() time.Time
}

// NewService creates a dashboard service over the given activity source
// and alert engine. The budget calculators are derived internally.
func NewService(source activity.Source, engine *alerts.Engine) *Service {
	agg := budget.NewAggregator(source)
	return &Service{
		source:     source,
		agg:        agg,
		calc:       budget.NewCalculator(agg),
		forecaster: budget.NewForecaster(source, agg),
		analyzer:   budget.NewAnalyzer(agg),
		engine:     engine,
		now:        time.Now,
	}
}

// BurnRate assembles the burn-rate card for a project.
func (s *Service) BurnRate(ctx context.Context, projectID string, windowDays int) (*BurnRatePayload, error) {
	project, err := s.source.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}

	rate, err := s.calc.Rate(ctx, projectID, windowDays)
	if err != nil {
		return nil, fmt.Errorf("burn rate for %s: %w", projectID, err)
	}

	return &BurnRatePayload{
		ProjectID:   projectID,
		ProjectName: project.Name,
		Rate:        rate,
		GeneratedAt: s.now(),
	}, nil
}

// CompletionEstimate assembles the exhaustion-forecast card.
func (s *Service) CompletionEstimate(ctx context.Context, projectID string, windowDays int) (*CompletionPayload, error) {
	project, err := s.source.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}

	forecast, err := s.forecaster.Estimate(ctx, projectID, windowDays)
	if err != nil {
		return nil, fmt.Errorf("completion estimate for %s: %w", projectID, err)
	}

	return &CompletionPayload{
		ProjectID:   projectID,
		ProjectName: project.Name,
		Forecast:    forecast,
		GeneratedAt: s.now(),
	}, nil
}

// ResourceAllocation assembles the per-user cost breakdown over a
// trailing window.
func (s *Service) ResourceAllocation(ctx context.Context, projectID string, windowDays int) (*AllocationPayload, error) {
	if windowDays <= 0 {
		return nil, &budget.ValidationError{Field: "windowDays", Reason: "must be positive"}
	}

	project, err := s.source.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}

	end := s.now()
	start := end.AddDate(0, 0, -windowDays)
	users, err := s.agg.ResourceAllocation(ctx, projectID, start, end)
	if err != nil {
		return nil, fmt.Errorf("resource allocation for %s: %w", projectID, err)
	}

	payload := &AllocationPayload{
		ProjectID:   projectID,
		ProjectName: project.Name,
		WindowDays:  windowDays,
		Users:       users,
		TotalCost:   money.Zero,
		GeneratedAt: end,
	}
	for _, u := range users {
		payload.TotalHours += u.Hours
		payload.TotalCost = payload.TotalCost.Add(u.Cost)
	}
	return payload, nil
}

// CostTrends assembles the trend chart data.
func (s *Service) CostTrends(ctx context.Context, projectID string, windowDays int, granularity budget.Granularity) (*TrendsPayload, error) {
	project, err := s.source.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}

	report, err := s.analyzer.Trends(ctx, projectID, windowDays, granularity)
	if err != nil {
		return nil, fmt.Errorf("cost trends for %s: %w", projectID, err)
	}

	return &TrendsPayload{
		ProjectID:   projectID,
		ProjectName: project.Name,
		WindowDays:  windowDays,
		Report:      report,
		GeneratedAt: s.now(),
	}, nil
}

// BudgetStatus assembles the status card. Projects without a budget get
// HasBudget false and no snapshot rather than an error.
func (s *Service) BudgetStatus(ctx context.Context, projectID string) (*StatusPayload, error) {
	project, err := s.source.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}

	payload := &StatusPayload{
		ProjectID:   projectID,
		ProjectName: project.Name,
		OpenAlerts:  []*alerts.Alert{},
		GeneratedAt: s.now(),
	}

	if project.HasBudget() {
		snap, err := s.agg.Snapshot(ctx, projectID, s.now())
		if err != nil {
			return nil, fmt.Errorf("snapshot for %s: %w", projectID, err)
		}
		payload.HasBudget = true
		payload.Snapshot = snap
	}

	open, err := s.engine.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("alerts for %s: %w", projectID, err)
	}
	for _, alert := range open {
		if !alert.Acknowledged {
			payload.OpenAlerts = append(payload.OpenAlerts, alert)
		}
	}

	return payload, nil
}

// Summary assembles the cross-project overview.
func (s *Service) Summary(ctx context.Context) (*SummaryPayload, error) {
	summary, err := s.engine.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	return &SummaryPayload{
		Summary:     summary,
		GeneratedAt: s.now(),
	}, nil
}
