// Package webhook delivers signed job-completion callbacks.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/freema/convcom/internal/metrics"
)

// Payload is the webhook request body sent when a queued job finishes.
type Payload struct {
	RecordID      string    `json:"record_id,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Status        string    `json:"status"`
	Message       string    `json:"message,omitempty"`
	Error         string    `json:"error,omitempty"`
	TraceID       string    `json:"trace_id,omitempty"`
	FinishedAt    time.Time `json:"finished_at"`
}

// Sender posts payloads signed with HMAC-SHA256, retrying failed attempts.
type Sender struct {
	client     *http.Client
	secret     string
	maxRetries int
	baseDelay  time.Duration
}

// NewSender creates a sender that makes up to maxRetries extra attempts,
// waiting baseDelay, then 5x, 25x... between them.
func NewSender(secret string, maxRetries int, baseDelay time.Duration) *Sender {
	return &Sender{
		client:     &http.Client{Timeout: 10 * time.Second},
		secret:     secret,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

// Send delivers payload to callbackURL. It returns once a 2xx arrives, the
// retries run out or ctx is done.
func (s *Sender) Send(ctx context.Context, callbackURL string, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("X-Signature-256", "sha256="+Sign(s.secret, body))
	headers.Set("X-Convcom-Event", "message."+payload.Status)
	if payload.TraceID != "" {
		headers.Set("X-Trace-ID", payload.TraceID)
	}

	log := slog.With("url", callbackURL, "correlation_id", payload.CorrelationID)
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			delay := s.backoff(attempt)
			log.Info("webhook retry", "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				metrics.WebhookDeliveries.WithLabelValues("failed").Inc()
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		lastErr = s.attempt(ctx, callbackURL, headers, body)
		if lastErr == nil {
			log.Info("webhook delivered", "attempt", attempt)
			metrics.WebhookDeliveries.WithLabelValues("success").Inc()
			return nil
		}
		log.Warn("webhook attempt failed", "attempt", attempt, "error", lastErr)
	}

	metrics.WebhookDeliveries.WithLabelValues("failed").Inc()
	return fmt.Errorf("webhook delivery failed after %d attempts to %s: %w", s.maxRetries+1, callbackURL, lastErr)
}

func (s *Sender) attempt(ctx context.Context, url string, headers http.Header, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header = headers.Clone()

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// backoff returns the wait before the given retry (1-based).
func (s *Sender) backoff(attempt int) time.Duration {
	d := s.baseDelay
	for i := 1; i < attempt; i++ {
		d *= 5
	}
	return d
}

// Sign returns the hex HMAC-SHA256 of body under secret, as sent in
// X-Signature-256 after the "sha256=" prefix.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
