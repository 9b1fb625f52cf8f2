package schedule

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// WebhookSender delivers artifacts by POSTing them as JSON to the
// schedule's recipient URL.
type WebhookSender struct {
	client *http.Client
}

// NewWebhookSender creates a webhook sender with the given timeout.
func NewWebhookSender(timeout time.Duration) *WebhookSender {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebhookSender{
		client: &http.Client{Timeout: timeout},
	}
}

// webhookPayload is the JSON body POSTed to the recipient.
type webhookPayload struct {
	ScheduleID string `json:"schedule_id"`
	ProjectID  string `json:"project_id"`
	Kind       Kind   `json:"kind"`
	PeriodKey  string `json:"period_key"`
	Subject    string `json:"subject,omitempty"`
	Content    string `json:"content"`
}

// Send POSTs the artifact. Network errors and 5xx responses are
// transient; 4xx responses are permanent.
func (w *WebhookSender) Send(ctx context.Context, s *Schedule, artifact *Artifact) error {
	if s.Recipient == "" {
		return &DeliveryError{Err: fmt.Errorf("schedule %s has no recipient URL", s.ID)}
	}

	body, err := json.Marshal(webhookPayload{
		ScheduleID: s.ID,
		ProjectID:  s.ProjectID,
		Kind:       artifact.Kind,
		PeriodKey:  artifact.PeriodKey,
		Subject:    s.Subject,
		Content:    artifact.Content,
	})
	if err != nil {
		return &DeliveryError{Err: fmt.Errorf("failed to encode payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Recipient, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return &DeliveryError{Transient: true, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500:
		return &DeliveryError{Transient: true,
			Err: fmt.Errorf("webhook returned %d", resp.StatusCode)}
	default:
		return &DeliveryError{
			Err: fmt.Errorf("webhook returned %d", resp.StatusCode)}
	}
}

// RoutingSender dispatches by recipient shape: http and https
// recipients go through the webhook sender, everything else is logged.
// Outbound email is handled by an external collaborator, so non-URL
// recipients only leave an audit trail here.
type RoutingSender struct {
	webhook *WebhookSender
	log     *LogSender
}

// NewRoutingSender creates a routing sender.
func NewRoutingSender(webhook *WebhookSender, log *LogSender) *RoutingSender {
	return &RoutingSender{webhook: webhook, log: log}
}

// Send routes the artifact to the sender matching the recipient.
func (r *RoutingSender) Send(ctx context.Context, s *Schedule, artifact *Artifact) error {
	if strings.HasPrefix(s.Recipient, "http://") || strings.HasPrefix(s.Recipient, "https://") {
		return r.webhook.Send(ctx, s, artifact)
	}
	return r.log.Send(ctx, s, artifact)
}

// LogSender records artifacts to the log instead of sending them. Used
// for kinds without an outbound channel and in development setups.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a log-backed sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger.With("component", "schedule.logsender")}
}

// Send logs the artifact and always succeeds.
func (l *LogSender) Send(ctx context.Context, s *Schedule, artifact *Artifact) error {
	l.logger.Info("artifact produced",
		"schedule_id", s.ID,
		"project_id", s.ProjectID,
		"kind", artifact.Kind,
		"period_key", artifact.PeriodKey,
		"recipient", s.Recipient,
		"bytes", len(artifact.Content),
	)
	return nil
}
