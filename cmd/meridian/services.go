package main

import (
	"fmt"

	"trackwell-hq/meridian/pkg/alerts"
	"trackwell-hq/meridian/pkg/budget"
	"trackwell-hq/meridian/pkg/cli"
	"trackwell-hq/meridian/pkg/config"
	"trackwell-hq/meridian/pkg/dashboard"
)

// services bundles the wired components a one-shot command needs.
type services struct {
	engine    *alerts.Engine
	dashboard *dashboard.Service
	close     func()
}

// buildServices loads the configuration and wires the activity source,
// storage, alert engine, and dashboard service for one-shot commands.
// The caller must invoke close when done.
func buildServices() (*services, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	source, err := newActivitySource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open activity source: %w", err)
	}

	st, err := newStore(cfg)
	if err != nil {
		if closer, ok := source.(interface{ Close() error }); ok {
			closer.Close()
		}
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	agg := budget.NewAggregator(source)
	agg.SetDefaultThreshold(cfg.Alerts.DefaultThresholdPercent)
	engine := alerts.NewEngine(st, source, agg)

	return &services{
		engine:    engine,
		dashboard: dashboard.NewService(source, engine),
		close: func() {
			if closer, ok := st.(interface{ Close() error }); ok {
				closer.Close()
			}
			if closer, ok := source.(interface{ Close() error }); ok {
				closer.Close()
			}
		},
	}, nil
}
