// Package sender provides the per-channel-type delivery strategies used by
// the notification dispatcher.
package sender

import (
	"context"

	"github.com/Wassi1m/app-surveince/internal/models"
)

// Result carries provider-side delivery context back to the dispatcher so it
// can be recorded on the notification log.
type Result struct {
	// ExternalID is the provider's message identifier, when one exists.
	ExternalID string
	// Metadata holds provider response details worth keeping, such as the
	// HTTP status code of a webhook call.
	Metadata map[string]any
}

// Sender is the interface that all channel delivery strategies implement.
type Sender interface {
	// Send delivers the alert over the channel to the recipient. A nil error
	// means the provider accepted the message.
	Send(ctx context.Context, channel *models.NotificationChannel, alert *models.Alert, recipient *models.AlertRecipient) (*Result, error)

	// Type returns the channel type this sender handles.
	Type() models.ChannelType
}

// Registry manages delivery strategies by channel type.
type Registry struct {
	senders map[models.ChannelType]Sender
}

// NewRegistry creates an empty sender registry.
func NewRegistry() *Registry {
	return &Registry{
		senders: make(map[models.ChannelType]Sender),
	}
}

// Register registers a delivery strategy.
func (r *Registry) Register(sender Sender) {
	r.senders[sender.Type()] = sender
}

// Get retrieves the strategy for a channel type.
func (r *Registry) Get(channelType models.ChannelType) (Sender, bool) {
	sender, ok := r.senders[channelType]
	return sender, ok
}

// List returns all registered channel types.
func (r *Registry) List() []models.ChannelType {
	types := make([]models.ChannelType, 0, len(r.senders))
	for t := range r.senders {
		types = append(types, t)
	}
	return types
}
