package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kitecrm/export-service/internal/domain"
)

func TestWebhookNotifierDeliversEvent(t *testing.T) {
	var received *Event
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		var event Event
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			t.Errorf("failed to decode webhook body: %v", err)
		}
		received = &event
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "secret-token", 5*time.Second)
	err := n.JobFinished(context.Background(), &Event{
		JobID:       "job-1",
		Status:      domain.JobStatusCompleted,
		DownloadURL: "https://files.example.com/exports/job-1/file.csv",
		FileSize:    "1.2 kB",
		RecordCount: 42,
		FinishedAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("JobFinished failed: %v", err)
	}
	if received == nil {
		t.Fatal("webhook endpoint received nothing")
	}
	if received.JobID != "job-1" || received.Status != domain.JobStatusCompleted {
		t.Errorf("received event = %+v", received)
	}
	if received.RecordCount != 42 {
		t.Errorf("record count = %d, want 42", received.RecordCount)
	}
	if auth != "Bearer secret-token" {
		t.Errorf("Authorization header = %q", auth)
	}
}

func TestWebhookNotifierRejectedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "", time.Second)
	err := n.JobFinished(context.Background(), &Event{
		JobID:  "job-2",
		Status: domain.JobStatusFailed,
		Error:  "boom",
	})
	if err == nil {
		t.Error("rejected webhook did not error")
	}
}
