package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Wassi1m/app-surveince/internal/models"
)

// Broadcaster publishes a message to a realtime topic.
type Broadcaster interface {
	Publish(topic string, message any)
}

// PushSender delivers alerts to a user's realtime notification topic so
// connected dashboards surface them immediately.
type PushSender struct {
	broadcaster Broadcaster
}

// NewPushSender creates a push sender that publishes through broadcaster.
func NewPushSender(broadcaster Broadcaster) *PushSender {
	return &PushSender{broadcaster: broadcaster}
}

// Type returns the channel type this sender handles.
func (s *PushSender) Type() models.ChannelType {
	return models.ChannelPush
}

// pushMessage is the payload published to the user's notification topic.
type pushMessage struct {
	Type     string          `json:"type"`
	AlertID  int64           `json:"alert_id"`
	Title    string          `json:"title"`
	Message  string          `json:"message"`
	Priority models.Priority `json:"priority"`
}

// Send publishes the alert to the recipient's notification topic.
func (s *PushSender) Send(ctx context.Context, channel *models.NotificationChannel, alert *models.Alert, recipient *models.AlertRecipient) (*Result, error) {
	if s.broadcaster == nil {
		return nil, fmt.Errorf("push broadcaster not configured")
	}

	topic := fmt.Sprintf("notifications:%d", recipient.UserID)
	s.broadcaster.Publish(topic, pushMessage{
		Type:     "new_notification",
		AlertID:  alert.ID,
		Title:    alert.Title,
		Message:  BuildSMSMessage(alert),
		Priority: alert.Priority,
	})

	messageID := uuid.NewString()
	slog.Info("Sent push notification",
		"topic", topic,
		"message_id", messageID,
		"alert_id", alert.ID,
		"channel_id", channel.ID,
	)
	return &Result{ExternalID: messageID}, nil
}
