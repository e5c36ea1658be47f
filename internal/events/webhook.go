package events

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"
)

// WebhookRecorder POSTs trade events to an external endpoint, e.g. a
// chat notifier. Only trade and risk events are forwarded; signals are
// too chatty for a notification channel.
type WebhookRecorder struct {
	url    string
	client *http.Client
	log    *slog.Logger
}

// NewWebhookRecorder creates a webhook sink.
func NewWebhookRecorder(url string, log *slog.Logger) *WebhookRecorder {
	return &WebhookRecorder{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
		log:    log,
	}
}

func (r *WebhookRecorder) Record(ctx context.Context, ev Event) {
	if ev.Type != TypeTrade && ev.Type != TypeRisk {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(ev.JSON()))
	if err != nil {
		r.log.Warn("webhook request build failed", "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Warn("webhook delivery failed", "type", ev.Type, "err", err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		r.log.Warn("webhook rejected event", "type", ev.Type, "status", resp.StatusCode)
	}
}
