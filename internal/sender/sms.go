package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Wassi1m/app-surveince/internal/models"
)

// SMSSender delivers the short-form alert text to a phone number.
// Delivery is simulated until an SMS gateway is wired in; the generated
// message ID lets the rest of the pipeline behave as in production.
// TODO: integrate a real SMS gateway (Twilio or SNS) behind this sender.
type SMSSender struct{}

// NewSMSSender creates an SMS sender.
func NewSMSSender() *SMSSender {
	return &SMSSender{}
}

// Type returns the channel type this sender handles.
func (s *SMSSender) Type() models.ChannelType {
	return models.ChannelSMS
}

// Send delivers the alert text to the channel's phone number, falling back to
// the recipient's phone when the channel does not set one.
func (s *SMSSender) Send(ctx context.Context, channel *models.NotificationChannel, alert *models.Alert, recipient *models.AlertRecipient) (*Result, error) {
	phone := channel.Configuration.PhoneNumber
	if phone == "" {
		phone = recipient.User.Phone
	}
	if phone == "" {
		return nil, fmt.Errorf("sms recipient phone number is required")
	}

	message := BuildSMSMessage(alert)
	messageID := uuid.NewString()

	slog.Info("Sent SMS notification",
		"to", phone,
		"message", message,
		"message_id", messageID,
		"alert_id", alert.ID,
		"channel_id", channel.ID,
	)
	return &Result{ExternalID: messageID}, nil
}
