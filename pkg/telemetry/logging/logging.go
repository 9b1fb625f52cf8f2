// Package logging builds the process-wide slog logger from
// configuration. Components derive their own loggers with
// logger.With("component", ...).
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Config controls the handler the logger is built with.
type Config struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string

	// Format selects the handler: "json" or "text".
	Format string

	// AddSource includes source positions in log records.
	AddSource bool

	// Writer is the output writer. Defaults to os.Stdout.
	Writer io.Writer
}

// New builds a slog.Logger from the configuration.
func New(cfg Config) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch cfg.Format {
	case "", "json":
		handler = slog.NewJSONHandler(writer, opts)
	case "text":
		handler = slog.NewTextHandler(writer, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return slog.New(handler), nil
}

// ParseLevel maps a level name to a slog.Level. An empty name means
// info.
func ParseLevel(name string) (slog.Level, error) {
	switch name {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", name)
	}
}
