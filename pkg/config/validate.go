package config

import (
	"fmt"
	"net"
	"strings"
)

// Validate checks the configuration for invalid values.
// It must be called after ApplyDefaults; zero values that defaults
// would have filled are reported as errors.
func Validate(cfg *Config) error {
	if err := validateActivity(&cfg.Activity); err != nil {
		return fmt.Errorf("activity: %w", err)
	}
	if err := validateStorage(&cfg.Storage); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := validateBudget(&cfg.Budget); err != nil {
		return fmt.Errorf("budget: %w", err)
	}
	if err := validateAlerts(&cfg.Alerts); err != nil {
		return fmt.Errorf("alerts: %w", err)
	}
	if err := validateScheduler(&cfg.Scheduler); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	if err := validateTelemetry(&cfg.Telemetry); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	return nil
}

func validateActivity(cfg *ActivityConfig) error {
	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown backend %q (expected memory or sqlite)", cfg.Backend)
	}
	if cfg.BusyTimeout < 0 {
		return fmt.Errorf("busy_timeout cannot be negative")
	}
	return nil
}

func validateStorage(cfg *StorageConfig) error {
	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown backend %q (expected memory or sqlite)", cfg.Backend)
	}
	if cfg.CheckpointInterval <= 0 {
		return fmt.Errorf("checkpoint_interval must be positive")
	}
	if cfg.BusyTimeout < 0 {
		return fmt.Errorf("busy_timeout cannot be negative")
	}
	return nil
}

func validateBudget(cfg *BudgetConfig) error {
	if cfg.ForecastWindowDays <= 0 {
		return fmt.Errorf("forecast_window_days must be positive")
	}
	if cfg.TrendWindowDays <= 0 {
		return fmt.Errorf("trend_window_days must be positive")
	}
	return nil
}

func validateAlerts(cfg *AlertsConfig) error {
	if cfg.EvaluationInterval <= 0 {
		return fmt.Errorf("evaluation_interval must be positive")
	}
	if cfg.DefaultThresholdPercent <= 0 || cfg.DefaultThresholdPercent >= 100 {
		return fmt.Errorf("default_threshold_percent must be between 0 and 100 exclusive, got %v",
			cfg.DefaultThresholdPercent)
	}
	return nil
}

func validateScheduler(cfg *SchedulerConfig) error {
	if cfg.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive")
	}
	if cfg.Delivery.MaxAttempts <= 0 {
		return fmt.Errorf("delivery.max_attempts must be positive")
	}
	if cfg.Delivery.InitialBackoff <= 0 {
		return fmt.Errorf("delivery.initial_backoff must be positive")
	}
	return nil
}

func validateTelemetry(cfg *TelemetryConfig) error {
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging level %q", cfg.Logging.Level)
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown logging format %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(cfg.Metrics.ListenAddress); err != nil {
			return fmt.Errorf("invalid metrics listen_address %q: %w",
				cfg.Metrics.ListenAddress, err)
		}
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			return fmt.Errorf("metrics path must start with /, got %q", cfg.Metrics.Path)
		}
	}
	return nil
}
