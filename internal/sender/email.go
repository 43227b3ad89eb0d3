package sender

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Wassi1m/app-surveince/internal/models"
	"github.com/Wassi1m/app-surveince/internal/sender/provider"
	"github.com/Wassi1m/app-surveince/internal/sender/retry"
)

// EmailSender delivers alerts via the configured email provider registry.
// Transient provider errors are retried with exponential backoff inside the
// adapter; the dispatcher above it makes exactly one delivery attempt per
// notification log row.
type EmailSender struct {
	providers   *provider.Registry
	defaultFrom string
	retryCfg    retry.Config
}

// NewEmailSender creates an email sender backed by the given provider
// registry. defaultFrom is used when the channel does not set a from address.
func NewEmailSender(providers *provider.Registry, defaultFrom string) *EmailSender {
	return &EmailSender{
		providers:   providers,
		defaultFrom: defaultFrom,
		retryCfg:    retry.DefaultConfig(),
	}
}

// Type returns the channel type this sender handles.
func (s *EmailSender) Type() models.ChannelType {
	return models.ChannelEmail
}

// Send renders the alert email and sends it to the recipient's address.
func (s *EmailSender) Send(ctx context.Context, channel *models.NotificationChannel, alert *models.Alert, recipient *models.AlertRecipient) (*Result, error) {
	to := recipient.User.Email
	if to == "" {
		return nil, fmt.Errorf("email recipient is required")
	}
	if !strings.Contains(to, "@") {
		return nil, fmt.Errorf("invalid email address format: %q (missing @ symbol)", to)
	}

	from := channel.Configuration.FromAddress
	if from == "" {
		from = s.defaultFrom
	}

	payload := BuildEmailPayload(alert)
	req := &provider.EmailRequest{
		From:    from,
		To:      []string{to},
		Subject: payload.Subject,
		Body:    payload.Body,
	}

	var messageID string
	operation := fmt.Sprintf("send email for alert %d", alert.ID)
	err := retry.WithRetry(ctx, s.retryCfg, operation, func() error {
		var sendErr error
		messageID, sendErr = s.providers.Send(ctx, req)
		return sendErr
	})
	if err != nil {
		slog.Error("Failed to send email notification",
			"error", err,
			"to", to,
			"alert_id", alert.ID,
		)
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("Successfully sent email notification",
		"from", from,
		"to", to,
		"subject", payload.Subject,
		"alert_id", alert.ID,
		"channel_id", channel.ID,
	)
	return &Result{ExternalID: messageID}, nil
}
