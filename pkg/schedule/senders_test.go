package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func webhookFixture(url string) (*Schedule, *Artifact) {
	s := dueSchedule()
	s.Recipient = url
	s.Subject = "March invoice"
	artifact := &Artifact{
		ID:         "art-1",
		ScheduleID: s.ID,
		PeriodKey:  "2026-03-18",
		Kind:       KindInvoice,
		Content:    "Invoice body",
		CreatedAt:  schedNow,
	}
	return s, artifact
}

func TestWebhookSender_PostsPayload(t *testing.T) {
	var got webhookPayload
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("Invalid payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewWebhookSender(5 * time.Second)
	s, artifact := webhookFixture(srv.URL)

	if err := sender.Send(context.Background(), s, artifact); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if contentType != "application/json" {
		t.Errorf("Expected JSON content type, got %q", contentType)
	}
	if got.ScheduleID != "sched-1" || got.PeriodKey != "2026-03-18" {
		t.Errorf("Payload identity mismatch: %+v", got)
	}
	if got.Subject != "March invoice" || got.Content != "Invoice body" {
		t.Errorf("Payload body mismatch: %+v", got)
	}
}

func TestWebhookSender_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sender := NewWebhookSender(5 * time.Second)
	s, artifact := webhookFixture(srv.URL)

	err := sender.Send(context.Background(), s, artifact)
	var de *DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("Expected DeliveryError, got: %v", err)
	}
	if !de.Transient {
		t.Error("Expected 502 to be classified transient")
	}
}

func TestWebhookSender_ClientErrorIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	sender := NewWebhookSender(5 * time.Second)
	s, artifact := webhookFixture(srv.URL)

	err := sender.Send(context.Background(), s, artifact)
	var de *DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("Expected DeliveryError, got: %v", err)
	}
	if de.Transient {
		t.Error("Expected 404 to be classified permanent")
	}
}

func TestWebhookSender_ConnectionRefusedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	sender := NewWebhookSender(time.Second)
	s, artifact := webhookFixture(srv.URL)

	err := sender.Send(context.Background(), s, artifact)
	var de *DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("Expected DeliveryError, got: %v", err)
	}
	if !de.Transient {
		t.Error("Expected network error to be classified transient")
	}
}

func TestWebhookSender_MissingRecipient(t *testing.T) {
	sender := NewWebhookSender(time.Second)
	s, artifact := webhookFixture("")

	err := sender.Send(context.Background(), s, artifact)
	var de *DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("Expected DeliveryError, got: %v", err)
	}
	if de.Transient {
		t.Error("Expected missing recipient to be permanent")
	}
}

func TestRoutingSender(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewRoutingSender(NewWebhookSender(time.Second), NewLogSender(nil))

	s, artifact := webhookFixture(srv.URL)
	if err := sender.Send(context.Background(), s, artifact); err != nil {
		t.Fatalf("Send to URL recipient failed: %v", err)
	}
	if hits != 1 {
		t.Errorf("Expected one webhook hit, got %d", hits)
	}

	s.Recipient = "billing@example.com"
	if err := sender.Send(context.Background(), s, artifact); err != nil {
		t.Fatalf("Send to mail recipient failed: %v", err)
	}
	if hits != 1 {
		t.Errorf("Expected mail recipient to bypass webhook, got %d hits", hits)
	}
}

func TestLogSender_AlwaysSucceeds(t *testing.T) {
	sender := NewLogSender(nil)
	s, artifact := webhookFixture("anyone@example.com")

	if err := sender.Send(context.Background(), s, artifact); err != nil {
		t.Errorf("Send failed: %v", err)
	}
}
