package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DeliveryConfig configures the delivery worker.
type DeliveryConfig struct {
	// MaxAttempts bounds send attempts per artifact.
	// Default: 3
	MaxAttempts int

	// InitialBackoff is the wait before the second attempt; it doubles
	// per subsequent attempt.
	// Default: 2s
	InitialBackoff time.Duration
}

// DefaultDeliveryConfig returns the default delivery configuration.
func DefaultDeliveryConfig() DeliveryConfig {
	return DeliveryConfig{
		MaxAttempts:    3,
		InitialBackoff: 2 * time.Second,
	}
}

// Delivery sends generated artifacts through kind-specific senders with
// a bounded retry budget.
//
// Exhausted retries are surfaced, never swallowed, and never cause the
// artifact to be regenerated.
type Delivery struct {
	senders map[Kind]Sender
	config  DeliveryConfig
	logger  *slog.Logger
}

// NewDelivery creates a delivery worker with the given configuration.
func NewDelivery(config DeliveryConfig) *Delivery {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultDeliveryConfig().MaxAttempts
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = DefaultDeliveryConfig().InitialBackoff
	}
	return &Delivery{
		senders: make(map[Kind]Sender),
		config:  config,
		logger:  slog.Default().With("component", "schedule.delivery"),
	}
}

// RegisterSender installs the sender for a schedule kind.
func (d *Delivery) RegisterSender(kind Kind, sender Sender) {
	d.senders[kind] = sender
}

// Dispatch sends an artifact, retrying transient failures with
// exponential backoff up to the configured attempt budget.
//
// Permanent failures abort immediately. The returned error wraps the
// last failure when the budget is exhausted.
func (d *Delivery) Dispatch(ctx context.Context, s *Schedule, artifact *Artifact) error {
	sender, ok := d.senders[s.Kind]
	if !ok {
		deliveries.WithLabelValues(string(s.Kind), "no_sender").Inc()
		return fmt.Errorf("no sender registered for kind %q", s.Kind)
	}

	var lastErr error
	for attempt := 1; attempt <= d.config.MaxAttempts; attempt++ {
		lastErr = sender.Send(ctx, s, artifact)
		if lastErr == nil {
			deliveries.WithLabelValues(string(s.Kind), "delivered").Inc()
			deliveryAttempts.Observe(float64(attempt))
			return nil
		}

		var derr *DeliveryError
		if errors.As(lastErr, &derr) && !derr.Transient {
			deliveries.WithLabelValues(string(s.Kind), "permanent_failure").Inc()
			deliveryAttempts.Observe(float64(attempt))
			return fmt.Errorf("delivery of %s/%s failed permanently: %w",
				s.ID, artifact.PeriodKey, lastErr)
		}

		if attempt == d.config.MaxAttempts {
			break
		}

		backoff := d.config.InitialBackoff << (attempt - 1)
		d.logger.Warn("delivery attempt failed, retrying",
			"schedule_id", s.ID,
			"period_key", artifact.PeriodKey,
			"attempt", attempt,
			"backoff", backoff,
			"error", lastErr,
		)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			deliveries.WithLabelValues(string(s.Kind), "cancelled").Inc()
			return ctx.Err()
		}
	}

	deliveries.WithLabelValues(string(s.Kind), "exhausted").Inc()
	deliveryAttempts.Observe(float64(d.config.MaxAttempts))
	return fmt.Errorf("delivery of %s/%s failed after %d attempts: %w",
		s.ID, artifact.PeriodKey, d.config.MaxAttempts, lastErr)
}
