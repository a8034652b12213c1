package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kitecrm/export-service/internal/domain"
)

// Event describes a job that reached a terminal state.
type Event struct {
	JobID       string           `json:"job_id"`
	Status      domain.JobStatus `json:"status"`
	DownloadURL string           `json:"download_url,omitempty"`
	FileSize    string           `json:"file_size,omitempty"`
	RecordCount int64            `json:"record_count,omitempty"`
	Error       string           `json:"error,omitempty"`
	FinishedAt  time.Time        `json:"finished_at"`
}

// Notifier delivers terminal-state events to an external consumer.
type Notifier interface {
	JobFinished(ctx context.Context, event *Event) error
}

// WebhookNotifier posts terminal-state events to a configured URL.
type WebhookNotifier struct {
	client *resty.Client
	url    string
}

// NewWebhookNotifier creates a notifier posting to the given URL.
// Parameters:
//   - url: webhook endpoint.
//   - token: optional bearer token attached to every request.
//   - timeout: per-request timeout; zero uses 10 seconds.
// Returns:
//   - *WebhookNotifier: initialized notifier.
func NewWebhookNotifier(url, token string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "crm-export/1.0")
	if token != "" {
		client.SetAuthToken(token)
	}
	return &WebhookNotifier{client: client, url: url}
}

// JobFinished posts the event as JSON. Non-2xx responses are errors so the
// caller can log delivery failures; delivery is best-effort and never
// affects the job outcome.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - event: terminal-state event to deliver.
// Returns:
//   - error: non-nil if the request fails or the endpoint rejects it.
func (n *WebhookNotifier) JobFinished(ctx context.Context, event *Event) error {
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(event).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}
	return nil
}
