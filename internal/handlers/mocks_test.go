// Package handlers provides test mocks for handler dependencies.
package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/Wassi1m/app-surveince/internal/database"
	"github.com/Wassi1m/app-surveince/internal/events"
	"github.com/Wassi1m/app-surveince/internal/models"
	"github.com/Wassi1m/app-surveince/pkg/metrics"
)

// mockRepository implements Repository for testing. Set the Fn callbacks to
// control behavior; unset methods return a plausible fixture.
type mockRepository struct {
	GetDetectionFn    func(ctx context.Context, eventID int64) (*models.DetectionEvent, error)
	ListDetectionsFn  func(ctx context.Context, filter database.DetectionFilter) ([]*models.DetectionEvent, error)
	VerifyDetectionFn func(ctx context.Context, eventID, reviewerID int64, falsePositive bool) (*models.DetectionEvent, error)

	CreateRuleFn func(ctx context.Context, rule *models.AlertRule) (*models.AlertRule, error)
	GetRuleFn    func(ctx context.Context, ruleID int64) (*models.AlertRule, error)
	ListRulesFn  func(ctx context.Context, locationID *int64) ([]*models.AlertRule, error)
	UpdateRuleFn func(ctx context.Context, rule *models.AlertRule) (*models.AlertRule, error)
	DeleteRuleFn func(ctx context.Context, ruleID int64) error

	GetAlertFn         func(ctx context.Context, alertID int64) (*models.Alert, error)
	ListAlertsFn       func(ctx context.Context, filter database.AlertFilter) ([]*models.Alert, error)
	AcknowledgeAlertFn func(ctx context.Context, alertID, userID int64) (*models.Alert, error)
	ResolveAlertFn     func(ctx context.Context, alertID, userID int64, notes string) (*models.Alert, error)

	CreateChannelFn func(ctx context.Context, channel *models.NotificationChannel) (*models.NotificationChannel, error)
	GetChannelFn    func(ctx context.Context, channelID int64) (*models.NotificationChannel, error)
	ListChannelsFn  func(ctx context.Context) ([]*models.NotificationChannel, error)
	UpdateChannelFn func(ctx context.Context, channel *models.NotificationChannel) (*models.NotificationChannel, error)
	DeleteChannelFn func(ctx context.Context, channelID int64) error

	GetRecipientFn    func(ctx context.Context, recipientID int64) (*models.AlertRecipient, error)
	ListRecipientsFn  func(ctx context.Context, locationID *int64) ([]*models.AlertRecipient, error)
	CreateRecipientFn func(ctx context.Context, recipient *models.AlertRecipient, channelIDs []int64) (*models.AlertRecipient, error)
	DeleteRecipientFn func(ctx context.Context, recipientID int64) error

	ListNotificationsForAlertFn func(ctx context.Context, alertID int64) ([]*models.NotificationLog, error)
	ListNotificationHistoryFn   func(ctx context.Context, limit, offset int) ([]*models.NotificationLog, error)
	MarkNotificationDeliveredFn func(ctx context.Context, notificationID int64, at time.Time) error

	GetLocationFn            func(ctx context.Context, locationID int64) (*models.Location, error)
	ListLocationsFn          func(ctx context.Context) ([]*models.Location, error)
	ListCamerasForLocationFn func(ctx context.Context, locationID int64) ([]*models.Camera, error)
}

func (m *mockRepository) GetDetection(ctx context.Context, eventID int64) (*models.DetectionEvent, error) {
	if m.GetDetectionFn != nil {
		return m.GetDetectionFn(ctx, eventID)
	}
	return &models.DetectionEvent{ID: eventID, EventType: models.EventIntrusion, Severity: models.SeverityHigh}, nil
}

func (m *mockRepository) ListDetections(ctx context.Context, filter database.DetectionFilter) ([]*models.DetectionEvent, error) {
	if m.ListDetectionsFn != nil {
		return m.ListDetectionsFn(ctx, filter)
	}
	return []*models.DetectionEvent{}, nil
}

func (m *mockRepository) VerifyDetection(ctx context.Context, eventID, reviewerID int64, falsePositive bool) (*models.DetectionEvent, error) {
	if m.VerifyDetectionFn != nil {
		return m.VerifyDetectionFn(ctx, eventID, reviewerID, falsePositive)
	}
	return &models.DetectionEvent{ID: eventID, IsVerified: true, FalsePositive: falsePositive}, nil
}

func (m *mockRepository) CreateRule(ctx context.Context, rule *models.AlertRule) (*models.AlertRule, error) {
	if m.CreateRuleFn != nil {
		return m.CreateRuleFn(ctx, rule)
	}
	created := *rule
	created.ID = 1
	created.CreatedAt = time.Now()
	return &created, nil
}

func (m *mockRepository) GetRule(ctx context.Context, ruleID int64) (*models.AlertRule, error) {
	if m.GetRuleFn != nil {
		return m.GetRuleFn(ctx, ruleID)
	}
	return &models.AlertRule{
		ID:          ruleID,
		LocationID:  1,
		Name:        "Intrusion watch",
		TriggerType: models.TriggerDetectionType,
		TriggerConditions: models.TriggerConditions{
			EventTypes: []models.EventType{models.EventIntrusion},
		},
		IsActive: true,
	}, nil
}

func (m *mockRepository) ListRules(ctx context.Context, locationID *int64) ([]*models.AlertRule, error) {
	if m.ListRulesFn != nil {
		return m.ListRulesFn(ctx, locationID)
	}
	return []*models.AlertRule{}, nil
}

func (m *mockRepository) UpdateRule(ctx context.Context, rule *models.AlertRule) (*models.AlertRule, error) {
	if m.UpdateRuleFn != nil {
		return m.UpdateRuleFn(ctx, rule)
	}
	updated := *rule
	return &updated, nil
}

func (m *mockRepository) DeleteRule(ctx context.Context, ruleID int64) error {
	if m.DeleteRuleFn != nil {
		return m.DeleteRuleFn(ctx, ruleID)
	}
	return nil
}

func (m *mockRepository) GetAlert(ctx context.Context, alertID int64) (*models.Alert, error) {
	if m.GetAlertFn != nil {
		return m.GetAlertFn(ctx, alertID)
	}
	return &models.Alert{ID: alertID, Title: "Intrusion - Gate 1", Priority: models.PriorityHigh, Status: models.AlertSent}, nil
}

func (m *mockRepository) ListAlerts(ctx context.Context, filter database.AlertFilter) ([]*models.Alert, error) {
	if m.ListAlertsFn != nil {
		return m.ListAlertsFn(ctx, filter)
	}
	return []*models.Alert{}, nil
}

func (m *mockRepository) AcknowledgeAlert(ctx context.Context, alertID, userID int64) (*models.Alert, error) {
	if m.AcknowledgeAlertFn != nil {
		return m.AcknowledgeAlertFn(ctx, alertID, userID)
	}
	return &models.Alert{ID: alertID, Status: models.AlertAcknowledged, AcknowledgedBy: &userID}, nil
}

func (m *mockRepository) ResolveAlert(ctx context.Context, alertID, userID int64, notes string) (*models.Alert, error) {
	if m.ResolveAlertFn != nil {
		return m.ResolveAlertFn(ctx, alertID, userID, notes)
	}
	return &models.Alert{ID: alertID, Status: models.AlertResolved, ResolvedBy: &userID}, nil
}

func (m *mockRepository) CreateChannel(ctx context.Context, channel *models.NotificationChannel) (*models.NotificationChannel, error) {
	if m.CreateChannelFn != nil {
		return m.CreateChannelFn(ctx, channel)
	}
	created := *channel
	created.ID = 1
	return &created, nil
}

func (m *mockRepository) GetChannel(ctx context.Context, channelID int64) (*models.NotificationChannel, error) {
	if m.GetChannelFn != nil {
		return m.GetChannelFn(ctx, channelID)
	}
	return &models.NotificationChannel{ID: channelID, Name: "Ops webhook", ChannelType: models.ChannelWebhook, IsActive: true}, nil
}

func (m *mockRepository) ListChannels(ctx context.Context) ([]*models.NotificationChannel, error) {
	if m.ListChannelsFn != nil {
		return m.ListChannelsFn(ctx)
	}
	return []*models.NotificationChannel{}, nil
}

func (m *mockRepository) UpdateChannel(ctx context.Context, channel *models.NotificationChannel) (*models.NotificationChannel, error) {
	if m.UpdateChannelFn != nil {
		return m.UpdateChannelFn(ctx, channel)
	}
	updated := *channel
	return &updated, nil
}

func (m *mockRepository) DeleteChannel(ctx context.Context, channelID int64) error {
	if m.DeleteChannelFn != nil {
		return m.DeleteChannelFn(ctx, channelID)
	}
	return nil
}

func (m *mockRepository) GetRecipient(ctx context.Context, recipientID int64) (*models.AlertRecipient, error) {
	if m.GetRecipientFn != nil {
		return m.GetRecipientFn(ctx, recipientID)
	}
	return &models.AlertRecipient{ID: recipientID, UserID: 1, LocationID: 1, IsActive: true}, nil
}

func (m *mockRepository) ListRecipients(ctx context.Context, locationID *int64) ([]*models.AlertRecipient, error) {
	if m.ListRecipientsFn != nil {
		return m.ListRecipientsFn(ctx, locationID)
	}
	return []*models.AlertRecipient{}, nil
}

func (m *mockRepository) CreateRecipient(ctx context.Context, recipient *models.AlertRecipient, channelIDs []int64) (*models.AlertRecipient, error) {
	if m.CreateRecipientFn != nil {
		return m.CreateRecipientFn(ctx, recipient, channelIDs)
	}
	created := *recipient
	created.ID = 1
	return &created, nil
}

func (m *mockRepository) DeleteRecipient(ctx context.Context, recipientID int64) error {
	if m.DeleteRecipientFn != nil {
		return m.DeleteRecipientFn(ctx, recipientID)
	}
	return nil
}

func (m *mockRepository) ListNotificationsForAlert(ctx context.Context, alertID int64) ([]*models.NotificationLog, error) {
	if m.ListNotificationsForAlertFn != nil {
		return m.ListNotificationsForAlertFn(ctx, alertID)
	}
	return []*models.NotificationLog{}, nil
}

func (m *mockRepository) ListNotificationHistory(ctx context.Context, limit, offset int) ([]*models.NotificationLog, error) {
	if m.ListNotificationHistoryFn != nil {
		return m.ListNotificationHistoryFn(ctx, limit, offset)
	}
	return []*models.NotificationLog{}, nil
}

func (m *mockRepository) MarkNotificationDelivered(ctx context.Context, notificationID int64, at time.Time) error {
	if m.MarkNotificationDeliveredFn != nil {
		return m.MarkNotificationDeliveredFn(ctx, notificationID, at)
	}
	return nil
}

func (m *mockRepository) GetLocation(ctx context.Context, locationID int64) (*models.Location, error) {
	if m.GetLocationFn != nil {
		return m.GetLocationFn(ctx, locationID)
	}
	return &models.Location{ID: locationID, Name: "Main site"}, nil
}

func (m *mockRepository) ListLocations(ctx context.Context) ([]*models.Location, error) {
	if m.ListLocationsFn != nil {
		return m.ListLocationsFn(ctx)
	}
	return []*models.Location{}, nil
}

func (m *mockRepository) ListCamerasForLocation(ctx context.Context, locationID int64) ([]*models.Camera, error) {
	if m.ListCamerasForLocationFn != nil {
		return m.ListCamerasForLocationFn(ctx, locationID)
	}
	return []*models.Camera{}, nil
}

// mockPipeline implements DetectionProcessor for testing.
type mockPipeline struct {
	ProcessDetectionFn func(ctx context.Context, msg *events.DetectionMessage) (*models.DetectionEvent, []*models.Alert, error)
}

func (m *mockPipeline) ProcessDetection(ctx context.Context, msg *events.DetectionMessage) (*models.DetectionEvent, []*models.Alert, error) {
	if m.ProcessDetectionFn != nil {
		return m.ProcessDetectionFn(ctx, msg)
	}
	return &models.DetectionEvent{ID: 1, EventType: msg.EventType, Severity: msg.Severity}, nil, nil
}

// mockMetricsSource implements MetricsSource for testing.
type mockMetricsSource struct {
	GetComponentMetricsFn    func(ctx context.Context, component string) (*metrics.ComponentMetrics, error)
	GetAllComponentMetricsFn func(ctx context.Context) (map[string]*metrics.ComponentMetrics, error)
}

func (m *mockMetricsSource) GetComponentMetrics(ctx context.Context, component string) (*metrics.ComponentMetrics, error) {
	if m.GetComponentMetricsFn != nil {
		return m.GetComponentMetricsFn(ctx, component)
	}
	return &metrics.ComponentMetrics{Component: component, Status: "healthy"}, nil
}

func (m *mockMetricsSource) GetAllComponentMetrics(ctx context.Context) (map[string]*metrics.ComponentMetrics, error) {
	if m.GetAllComponentMetricsFn != nil {
		return m.GetAllComponentMetricsFn(ctx)
	}
	return map[string]*metrics.ComponentMetrics{}, nil
}

// mockBroadcaster records published topics and payloads.
type mockBroadcaster struct {
	mu       sync.Mutex
	messages map[string][]any
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{messages: make(map[string][]any)}
}

func (b *mockBroadcaster) Publish(topic string, message any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages[topic] = append(b.messages[topic], message)
}

func (b *mockBroadcaster) published(topic string) []any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.messages[topic]
}
