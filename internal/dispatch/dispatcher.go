// Package dispatch fans alert notifications out to recipient channels and
// records the outcome of every delivery attempt.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Wassi1m/app-surveince/internal/database"
	"github.com/Wassi1m/app-surveince/internal/models"
	"github.com/Wassi1m/app-surveince/internal/recipients"
	"github.com/Wassi1m/app-surveince/internal/sender"
	"github.com/Wassi1m/app-surveince/pkg/metrics"
)

// dispatchTimeout bounds a single delivery attempt.
const dispatchTimeout = 30 * time.Second

// Store is the persistence surface the dispatcher needs.
type Store interface {
	GetRecipientsForLocation(ctx context.Context, locationID int64) ([]*models.AlertRecipient, error)
	CreateNotificationLog(ctx context.Context, alertID, channelID int64, recipient string) (int64, error)
	MarkNotificationSending(ctx context.Context, notificationID int64) error
	MarkNotificationSent(ctx context.Context, notificationID int64, externalID string, metadata map[string]any) error
	MarkNotificationFailed(ctx context.Context, notificationID int64, errorMessage string, metadata map[string]any) error
	TouchChannelLastUsed(ctx context.Context, channelID int64) error
	MarkAlertDelivery(ctx context.Context, alertID int64, status models.AlertStatus) error
}

// Dispatcher delivers one alert to every eligible recipient channel using a
// bounded worker pool. Each (recipient, channel) pair gets its own
// notification log row; the alert's delivery status aggregates the attempts.
type Dispatcher struct {
	store     Store
	senders   *sender.Registry
	workers   int
	collector *metrics.Collector
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher with the given worker count. collector
// may be nil when metrics reporting is disabled.
func NewDispatcher(store Store, senders *sender.Registry, workers int, collector *metrics.Collector, logger *slog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 4
	}
	return &Dispatcher{
		store:     store,
		senders:   senders,
		workers:   workers,
		collector: collector,
		logger:    logger,
	}
}

// delivery is one (recipient, channel) pair to attempt.
type delivery struct {
	recipient *models.AlertRecipient
	channel   *models.NotificationChannel
}

// Dispatch delivers the alert to every eligible recipient channel and settles
// the alert's delivery status: sent when at least one notification succeeded
// or there was nothing to deliver, failed when every attempt failed.
func (d *Dispatcher) Dispatch(ctx context.Context, alert *models.Alert) error {
	candidates, err := d.store.GetRecipientsForLocation(ctx, alert.LocationID)
	if err != nil {
		return fmt.Errorf("failed to load recipients: %w", err)
	}

	eligible := filterEligible(candidates, alert.Priority, time.Now())

	deliveries := make([]delivery, 0)
	for _, recipient := range eligible {
		for i := range recipient.Channels {
			channel := &recipient.Channels[i]
			if !channel.IsActive {
				continue
			}
			deliveries = append(deliveries, delivery{recipient: recipient, channel: channel})
		}
	}

	if len(deliveries) == 0 {
		d.logger.Info("no eligible recipients for alert",
			"alert_id", alert.ID,
			"location_id", alert.LocationID,
			"priority", alert.Priority)
		return d.settle(ctx, alert, 0, 0)
	}

	d.logger.Info("dispatching alert notifications",
		"alert_id", alert.ID,
		"deliveries", len(deliveries),
		"workers", d.workers)

	jobs := make(chan delivery)
	var sent, failed atomic.Uint64
	var wg sync.WaitGroup

	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if d.deliver(ctx, alert, job) {
					sent.Add(1)
				} else {
					failed.Add(1)
				}
			}
		}()
	}

	for _, job := range deliveries {
		jobs <- job
	}
	close(jobs)
	wg.Wait()

	return d.settle(ctx, alert, sent.Load(), failed.Load())
}

// deliver attempts one notification and records its outcome. Returns true on
// success.
func (d *Dispatcher) deliver(ctx context.Context, alert *models.Alert, job delivery) bool {
	channelSender, ok := d.senders.Get(job.channel.ChannelType)
	if !ok {
		d.logger.Error("no sender registered for channel type",
			"channel_type", job.channel.ChannelType,
			"channel_id", job.channel.ID)
		return false
	}

	address := recipientAddress(job.channel, job.recipient)

	notificationID, err := d.store.CreateNotificationLog(ctx, alert.ID, job.channel.ID, address)
	if err != nil {
		d.logger.Error("failed to create notification log",
			"error", err,
			"alert_id", alert.ID,
			"channel_id", job.channel.ID)
		return false
	}

	if markErr := d.store.MarkNotificationSending(ctx, notificationID); markErr != nil {
		d.logger.Warn("failed to mark notification sending",
			"error", markErr,
			"notification_id", notificationID)
	}

	sendCtx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()

	// One attempt per log row. Adapters that want transient-failure retry
	// implement it behind Send.
	result, err := channelSender.Send(sendCtx, job.channel, alert, job.recipient)
	if err != nil {
		message := err.Error()
		// Senders may return provider context alongside the error, like the
		// webhook sender's response status and truncated body. Keep it.
		var failMeta map[string]any
		if result != nil {
			failMeta = result.Metadata
		}
		if markErr := d.store.MarkNotificationFailed(ctx, notificationID, message, failMeta); markErr != nil {
			d.logger.Error("failed to record notification failure",
				"error", markErr,
				"notification_id", notificationID)
		}
		if d.collector != nil {
			d.collector.RecordNotificationFailed()
		}
		d.logger.Warn("notification delivery failed",
			"notification_id", notificationID,
			"alert_id", alert.ID,
			"channel_type", job.channel.ChannelType,
			"error", err)
		return false
	}

	externalID := ""
	var meta map[string]any
	if result != nil {
		externalID = result.ExternalID
		meta = result.Metadata
	}
	if markErr := d.store.MarkNotificationSent(ctx, notificationID, externalID, meta); markErr != nil {
		d.logger.Error("failed to record notification success",
			"error", markErr,
			"notification_id", notificationID)
	}
	if touchErr := d.store.TouchChannelLastUsed(ctx, job.channel.ID); touchErr != nil {
		d.logger.Warn("failed to touch channel last_used",
			"error", touchErr,
			"channel_id", job.channel.ID)
	}
	if d.collector != nil {
		d.collector.RecordNotificationSent()
	}
	d.logger.Info("notification delivered",
		"notification_id", notificationID,
		"alert_id", alert.ID,
		"channel_type", job.channel.ChannelType,
		"recipient", address)
	return true
}

// settle records the aggregate fan-out outcome on the alert.
func (d *Dispatcher) settle(ctx context.Context, alert *models.Alert, sent, failed uint64) error {
	status := models.AlertSent
	if sent == 0 && failed > 0 {
		status = models.AlertFailed
	}

	if err := d.store.MarkAlertDelivery(ctx, alert.ID, status); err != nil {
		// A racing acknowledge already moved the alert on; delivery logs
		// still hold the per-channel outcomes.
		if errors.Is(err, database.ErrConflict) {
			return nil
		}
		return fmt.Errorf("failed to settle alert delivery: %w", err)
	}

	alert.Status = status
	d.logger.Info("alert delivery settled",
		"alert_id", alert.ID,
		"status", status,
		"sent", sent,
		"failed", failed)
	return nil
}

// filterEligible applies recipient delivery filters.
func filterEligible(candidates []*models.AlertRecipient, priority models.Priority, now time.Time) []*models.AlertRecipient {
	eligible := make([]*models.AlertRecipient, 0, len(candidates))
	for _, candidate := range candidates {
		if recipients.ShouldNotify(candidate, priority, now) {
			eligible = append(eligible, candidate)
		}
	}
	return eligible
}

// recipientAddress picks the address recorded on the notification log.
func recipientAddress(channel *models.NotificationChannel, recipient *models.AlertRecipient) string {
	switch channel.ChannelType {
	case models.ChannelSMS:
		if channel.Configuration.PhoneNumber != "" {
			return channel.Configuration.PhoneNumber
		}
		return recipient.User.Phone
	case models.ChannelWebhook:
		return channel.Configuration.WebhookURL
	default:
		return recipient.User.Email
	}
}
