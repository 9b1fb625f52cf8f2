package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, applies defaults,
// and validates the result. Environment variables are not consulted;
// use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Variables follow the naming
// convention MERIDIAN_SECTION_FIELD (e.g. MERIDIAN_STORAGE_SQLITE_PATH)
// and always take precedence over file-based configuration.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies MERIDIAN_* environment variables to the
// configuration. Values that fail to parse are ignored.
func applyEnvOverrides(cfg *Config) {
	// Activity overrides
	if val := os.Getenv("MERIDIAN_ACTIVITY_BACKEND"); val != "" {
		cfg.Activity.Backend = val
	}
	if val := os.Getenv("MERIDIAN_ACTIVITY_SQLITE_PATH"); val != "" {
		cfg.Activity.SQLitePath = val
	}
	if val := os.Getenv("MERIDIAN_ACTIVITY_BUSY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Activity.BusyTimeout = d
		}
	}

	// Storage overrides
	if val := os.Getenv("MERIDIAN_STORAGE_BACKEND"); val != "" {
		cfg.Storage.Backend = val
	}
	if val := os.Getenv("MERIDIAN_STORAGE_SQLITE_PATH"); val != "" {
		cfg.Storage.SQLitePath = val
	}
	if val := os.Getenv("MERIDIAN_STORAGE_CHECKPOINT_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Storage.CheckpointInterval = d
		}
	}
	if val := os.Getenv("MERIDIAN_STORAGE_BUSY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Storage.BusyTimeout = d
		}
	}

	// Budget overrides
	if val := os.Getenv("MERIDIAN_BUDGET_FORECAST_WINDOW_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Budget.ForecastWindowDays = i
		}
	}
	if val := os.Getenv("MERIDIAN_BUDGET_TREND_WINDOW_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Budget.TrendWindowDays = i
		}
	}

	// Alerts overrides
	if val := os.Getenv("MERIDIAN_ALERTS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Alerts.Enabled = b
		}
	}
	if val := os.Getenv("MERIDIAN_ALERTS_EVALUATION_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Alerts.EvaluationInterval = d
		}
	}
	if val := os.Getenv("MERIDIAN_ALERTS_DEFAULT_THRESHOLD_PERCENT"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Alerts.DefaultThresholdPercent = f
		}
	}

	// Scheduler overrides
	if val := os.Getenv("MERIDIAN_SCHEDULER_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Scheduler.Enabled = b
		}
	}
	if val := os.Getenv("MERIDIAN_SCHEDULER_TICK_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Scheduler.TickInterval = d
		}
	}
	if val := os.Getenv("MERIDIAN_SCHEDULER_DELIVERY_MAX_ATTEMPTS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Scheduler.Delivery.MaxAttempts = i
		}
	}
	if val := os.Getenv("MERIDIAN_SCHEDULER_DELIVERY_INITIAL_BACKOFF"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Scheduler.Delivery.InitialBackoff = d
		}
	}

	// Telemetry overrides
	if val := os.Getenv("MERIDIAN_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("MERIDIAN_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("MERIDIAN_TELEMETRY_LOGGING_ADD_SOURCE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Logging.AddSource = b
		}
	}
	if val := os.Getenv("MERIDIAN_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("MERIDIAN_TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
	if val := os.Getenv("MERIDIAN_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
}
