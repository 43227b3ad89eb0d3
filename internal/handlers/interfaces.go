// Package handlers provides HTTP handlers for the surveillance alerting API.
package handlers

import (
	"context"
	"time"

	"github.com/Wassi1m/app-surveince/internal/database"
	"github.com/Wassi1m/app-surveince/internal/events"
	"github.com/Wassi1m/app-surveince/internal/models"
	"github.com/Wassi1m/app-surveince/pkg/metrics"
)

// Repository defines the interface for database operations.
// This allows handlers to be tested without a real database.
type Repository interface {
	// Detection operations
	GetDetection(ctx context.Context, eventID int64) (*models.DetectionEvent, error)
	ListDetections(ctx context.Context, filter database.DetectionFilter) ([]*models.DetectionEvent, error)
	VerifyDetection(ctx context.Context, eventID, reviewerID int64, falsePositive bool) (*models.DetectionEvent, error)

	// Rule operations
	CreateRule(ctx context.Context, rule *models.AlertRule) (*models.AlertRule, error)
	GetRule(ctx context.Context, ruleID int64) (*models.AlertRule, error)
	ListRules(ctx context.Context, locationID *int64) ([]*models.AlertRule, error)
	UpdateRule(ctx context.Context, rule *models.AlertRule) (*models.AlertRule, error)
	DeleteRule(ctx context.Context, ruleID int64) error

	// Alert operations
	GetAlert(ctx context.Context, alertID int64) (*models.Alert, error)
	ListAlerts(ctx context.Context, filter database.AlertFilter) ([]*models.Alert, error)
	AcknowledgeAlert(ctx context.Context, alertID, userID int64) (*models.Alert, error)
	ResolveAlert(ctx context.Context, alertID, userID int64, notes string) (*models.Alert, error)

	// Channel operations
	CreateChannel(ctx context.Context, channel *models.NotificationChannel) (*models.NotificationChannel, error)
	GetChannel(ctx context.Context, channelID int64) (*models.NotificationChannel, error)
	ListChannels(ctx context.Context) ([]*models.NotificationChannel, error)
	UpdateChannel(ctx context.Context, channel *models.NotificationChannel) (*models.NotificationChannel, error)
	DeleteChannel(ctx context.Context, channelID int64) error

	// Recipient operations
	GetRecipient(ctx context.Context, recipientID int64) (*models.AlertRecipient, error)
	ListRecipients(ctx context.Context, locationID *int64) ([]*models.AlertRecipient, error)
	CreateRecipient(ctx context.Context, recipient *models.AlertRecipient, channelIDs []int64) (*models.AlertRecipient, error)
	DeleteRecipient(ctx context.Context, recipientID int64) error

	// Notification log operations
	ListNotificationsForAlert(ctx context.Context, alertID int64) ([]*models.NotificationLog, error)
	ListNotificationHistory(ctx context.Context, limit, offset int) ([]*models.NotificationLog, error)
	MarkNotificationDelivered(ctx context.Context, notificationID int64, at time.Time) error

	// Location operations
	GetLocation(ctx context.Context, locationID int64) (*models.Location, error)
	ListLocations(ctx context.Context) ([]*models.Location, error)
	ListCamerasForLocation(ctx context.Context, locationID int64) ([]*models.Camera, error)
}

// Ensure the real database satisfies the Repository contract.
var _ Repository = (*database.DB)(nil)

// DetectionProcessor runs a detection through rule evaluation, alert
// creation and notification dispatch.
type DetectionProcessor interface {
	ProcessDetection(ctx context.Context, msg *events.DetectionMessage) (*models.DetectionEvent, []*models.Alert, error)
}

// Broadcaster publishes realtime messages to topic subscribers.
type Broadcaster interface {
	Publish(topic string, message any)
}

// MetricsSource reads per-component service metrics.
type MetricsSource interface {
	GetComponentMetrics(ctx context.Context, component string) (*metrics.ComponentMetrics, error)
	GetAllComponentMetrics(ctx context.Context) (map[string]*metrics.ComponentMetrics, error)
}
