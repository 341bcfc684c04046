package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/memoriaapp/memoria-server/internal/domain"
)

// ErrPayloadTooLarge signals that the destination refused the payload
// for size; the send flow retries with a reference link instead.
var ErrPayloadTooLarge = errors.New("payload too large for destination")

// Deliverer posts a recalled media item to an externally resolved
// destination. The destination descriptor is opaque to the core; how it
// was resolved (fresh post, reply) is the presentation layer's concern.
type Deliverer interface {
	// Deliver posts the full payload.
	Deliver(ctx context.Context, destination string, rec domain.MediaRecord) error
	// DeliverReference posts only a link to the payload, used as the
	// fallback when the full payload is refused for size.
	DeliverReference(ctx context.Context, destination string, rec domain.MediaRecord) error
}

// WebhookDeliverer delivers by POSTing JSON to the destination URL.
type WebhookDeliverer struct {
	httpClient      *http.Client
	maxPayloadBytes int64
	logger          *slog.Logger
}

// NewWebhookDeliverer creates a deliverer with the given per-attempt
// timeout. Payloads above maxPayloadBytes are refused locally without a
// round trip; zero disables the local check.
func NewWebhookDeliverer(timeout time.Duration, maxPayloadBytes int64, logger *slog.Logger) *WebhookDeliverer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookDeliverer{
		httpClient:      &http.Client{Timeout: timeout},
		maxPayloadBytes: maxPayloadBytes,
		logger:          logger,
	}
}

// webhookPayload is the body posted to the destination.
type webhookPayload struct {
	MediaURL     string   `json:"media_url,omitempty"`
	MediaType    string   `json:"media_type,omitempty"`
	FileName     string   `json:"file_name,omitempty"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Content      string   `json:"content,omitempty"` // reference fallback
}

// Deliver posts the full payload.
func (d *WebhookDeliverer) Deliver(ctx context.Context, destination string, rec domain.MediaRecord) error {
	return d.post(ctx, destination, webhookPayload{
		MediaURL:     rec.MediaURL,
		MediaType:    string(rec.MediaType),
		FileName:     rec.FileName,
		ThumbnailURL: rec.ThumbnailURL,
		Tags:         rec.Tags,
	})
}

// DeliverReference posts a bare link to the media.
func (d *WebhookDeliverer) DeliverReference(ctx context.Context, destination string, rec domain.MediaRecord) error {
	return d.post(ctx, destination, webhookPayload{Content: rec.MediaURL})
}

func (d *WebhookDeliverer) post(ctx context.Context, destination string, payload webhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if d.maxPayloadBytes > 0 && int64(len(body)) > d.maxPayloadBytes {
		return ErrPayloadTooLarge
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, destination, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post to destination: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusRequestEntityTooLarge:
		return ErrPayloadTooLarge
	case resp.StatusCode >= 400:
		return fmt.Errorf("destination rejected payload: status %d", resp.StatusCode)
	}
	return nil
}
