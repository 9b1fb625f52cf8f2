package config

import (
	"time"
)

// Config is the root configuration structure for meridian.
// It is loaded from a YAML file, merged with defaults and environment
// overrides, and validated before use.
type Config struct {
	// Activity configures the read-only cost activity source.
	Activity ActivityConfig `yaml:"activity"`

	// Storage configures alert and schedule persistence.
	Storage StorageConfig `yaml:"storage"`

	// Budget configures the derived-cost computations.
	Budget BudgetConfig `yaml:"budget"`

	// Alerts configures the alert evaluator.
	Alerts AlertsConfig `yaml:"alerts"`

	// Scheduler configures the recurring-task scheduler.
	Scheduler SchedulerConfig `yaml:"scheduler"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ActivityConfig configures where project, time-entry, and direct-cost
// records are read from. The source is never written to.
type ActivityConfig struct {
	// Backend selects the source implementation: "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// SQLitePath is the path to the activity database when the backend
	// is "sqlite".
	SQLitePath string `yaml:"sqlite_path"`

	// BusyTimeout is how long SQLite waits for locks before failing.
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// StorageConfig configures the persistence backend for alerts,
// schedules, and artifacts.
type StorageConfig struct {
	// Backend selects the store implementation: "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// SQLitePath is the path to the database file when the backend is
	// "sqlite".
	SQLitePath string `yaml:"sqlite_path"`

	// CheckpointInterval is how often the WAL is checkpointed.
	CheckpointInterval time.Duration `yaml:"checkpoint_interval"`

	// BusyTimeout is how long SQLite waits for locks before failing.
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// BudgetConfig configures the windows used by derived computations.
type BudgetConfig struct {
	// ForecastWindowDays is the trailing window the burn rate and
	// completion forecast derive from.
	ForecastWindowDays int `yaml:"forecast_window_days"`

	// TrendWindowDays is the trailing window for trend analysis.
	TrendWindowDays int `yaml:"trend_window_days"`
}

// AlertsConfig configures the periodic budget evaluation.
type AlertsConfig struct {
	// Enabled controls whether the evaluator loop runs.
	Enabled bool `yaml:"enabled"`

	// EvaluationInterval is the tick between evaluation sweeps.
	EvaluationInterval time.Duration `yaml:"evaluation_interval"`

	// DefaultThresholdPercent is the warning threshold applied to
	// projects that do not carry their own.
	DefaultThresholdPercent float64 `yaml:"default_threshold_percent"`
}

// SchedulerConfig configures the recurring-task scheduler.
type SchedulerConfig struct {
	// Enabled controls whether the scheduler loop runs.
	Enabled bool `yaml:"enabled"`

	// TickInterval is the polling interval for due schedules.
	TickInterval time.Duration `yaml:"tick_interval"`

	// Delivery configures artifact delivery retries.
	Delivery DeliveryConfig `yaml:"delivery"`
}

// DeliveryConfig bounds delivery retry behavior.
type DeliveryConfig struct {
	// MaxAttempts bounds send attempts per artifact.
	MaxAttempts int `yaml:"max_attempts"`

	// InitialBackoff is the wait before the second attempt; it doubles
	// per subsequent attempt.
	InitialBackoff time.Duration `yaml:"initial_backoff"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	// Level is the minimum level: debug, info, warn, error.
	Level string `yaml:"level"`

	// Format selects the handler: "json" or "text".
	Format string `yaml:"format"`

	// AddSource includes source positions in log records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures the Prometheus /metrics endpoint.
type MetricsConfig struct {
	// Enabled controls whether the endpoint is served.
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the host:port the metrics server binds to.
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path metrics are exposed on.
	Path string `yaml:"path"`
}
