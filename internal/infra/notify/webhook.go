package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ACONG-AC/miyar-arcteryx-monitor/internal/infra/backoff"
)

const embedColor = 0x2B65EC

type WebhookConfig struct {
	URL          string
	UserAgent    string
	Timeout      time.Duration
	RetryMax     int
	RetryBackoff time.Duration
}

// WebhookNotifier delivers messages as webhook embeds with the
// thumbnail shown beside the text. Delivery is best effort: a bounded
// retry, then a non-fatal error for the caller to log.
type WebhookNotifier struct {
	cfg    WebhookConfig
	http   *http.Client
	logger *zap.Logger
}

func NewWebhookNotifier(cfg WebhookConfig, logger *zap.Logger) *WebhookNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 1200 * time.Millisecond
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &WebhookNotifier{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger.Named("notify"),
	}
}

type embedThumbnail struct {
	URL string `json:"url"`
}

type embed struct {
	Color       int             `json:"color"`
	Description string          `json:"description"`
	Thumbnail   *embedThumbnail `json:"thumbnail,omitempty"`
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

// Dispatch posts one message. Without a configured URL it logs the
// rendered message instead, which keeps dry runs observable.
func (n *WebhookNotifier) Dispatch(ctx context.Context, message string, thumbnail *string) error {
	requestID := uuid.NewString()

	if n.cfg.URL == "" {
		n.logger.Info("test mode, would dispatch",
			zap.String("request_id", requestID),
			zap.String("message", message),
		)
		return nil
	}

	body := embed{
		Color:       embedColor,
		Description: strings.TrimSpace(message),
	}
	if thumbnail != nil && *thumbnail != "" {
		body.Thumbnail = &embedThumbnail{URL: *thumbnail}
	}
	payload, err := json.Marshal(webhookPayload{Embeds: []embed{body}})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	wait := backoff.New(n.cfg.RetryBackoff, 10*time.Second)
	var lastErr error
	for attempt := 1; attempt <= n.cfg.RetryMax; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := n.post(ctx, payload); err != nil {
			lastErr = err
			n.logger.Warn("webhook dispatch failed",
				zap.String("request_id", requestID),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			if attempt < n.cfg.RetryMax {
				wait.Sleep(ctx)
			}
			continue
		}
		n.logger.Debug("webhook dispatched", zap.String("request_id", requestID))
		return nil
	}
	return fmt.Errorf("dispatch after %d attempts: %w", n.cfg.RetryMax, lastErr)
}

func (n *WebhookNotifier) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", n.cfg.UserAgent)

	resp, err := n.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}
