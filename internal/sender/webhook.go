package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Wassi1m/app-surveince/internal/models"
)

// responseBodyLimit caps how much of the webhook response is kept in the
// notification metadata.
const responseBodyLimit = 500

// WebhookSender delivers alerts via HTTP POST to a configured URL.
type WebhookSender struct {
	httpClient *http.Client
}

// NewWebhookSender creates a webhook sender with a 30 second request timeout.
func NewWebhookSender() *WebhookSender {
	return &WebhookSender{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Type returns the channel type this sender handles.
func (s *WebhookSender) Type() models.ChannelType {
	return models.ChannelWebhook
}

// Send posts the alert payload to the channel's webhook URL. The provider
// message ID is read from the X-Message-ID response header and the status
// code plus a truncated response body are kept as metadata. Any status below
// 400 counts as accepted.
func (s *WebhookSender) Send(ctx context.Context, channel *models.NotificationChannel, alert *models.Alert, recipient *models.AlertRecipient) (*Result, error) {
	webhookURL := channel.Configuration.WebhookURL
	if webhookURL == "" {
		return nil, fmt.Errorf("webhook URL is required")
	}
	if !isValidURL(webhookURL) {
		return nil, fmt.Errorf("invalid webhook URL: %q (must be a valid HTTP/HTTPS URL)", webhookURL)
	}

	jsonData, err := json.Marshal(BuildWebhookPayload(alert))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range channel.Configuration.Headers {
		req.Header.Set(key, value)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		slog.Error("Failed to send webhook notification",
			"error", err,
			"webhook_url", webhookURL,
			"alert_id", alert.ID,
		)
		return nil, fmt.Errorf("failed to send webhook notification: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	result := &Result{
		ExternalID: resp.Header.Get("X-Message-ID"),
		Metadata: map[string]any{
			"status_code": resp.StatusCode,
			"response":    string(body),
		},
	}

	if resp.StatusCode >= 400 {
		slog.Error("Webhook returned error status",
			"status_code", resp.StatusCode,
			"webhook_url", webhookURL,
			"alert_id", alert.ID,
		)
		return result, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	slog.Info("Successfully sent webhook notification",
		"webhook_url", webhookURL,
		"alert_id", alert.ID,
		"channel_id", channel.ID,
	)
	return result, nil
}

// isValidURL checks the value parses as an absolute HTTP or HTTPS URL.
func isValidURL(value string) bool {
	parsed, err := url.Parse(value)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
