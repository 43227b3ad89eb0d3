// Package pipeline orchestrates detection processing: persist the detection,
// evaluate alert rules, create alerts past the cooldown gate, dispatch
// notifications and broadcast realtime updates.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Wassi1m/app-surveince/internal/alerts"
	"github.com/Wassi1m/app-surveince/internal/database"
	"github.com/Wassi1m/app-surveince/internal/events"
	"github.com/Wassi1m/app-surveince/internal/models"
	"github.com/Wassi1m/app-surveince/internal/realtime"
	"github.com/Wassi1m/app-surveince/internal/rules"
	"github.com/Wassi1m/app-surveince/pkg/metrics"
)

// ErrInvalidDetection marks a detection message rejected by validation, as
// opposed to one that failed during persistence or evaluation.
var ErrInvalidDetection = errors.New("invalid detection message")

// Store is the persistence surface the pipeline needs.
type Store interface {
	CreateDetection(ctx context.Context, event *models.DetectionEvent) (*models.DetectionEvent, error)
	GetActiveRulesForLocation(ctx context.Context, locationID int64) ([]models.AlertRule, error)
	CreateAlertForRule(ctx context.Context, ruleID int64, alert *models.Alert) (int64, error)
}

// AlertDispatcher fans an alert's notifications out to recipients.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, alert *models.Alert) error
}

// Broadcaster publishes realtime messages to topic subscribers.
type Broadcaster interface {
	Publish(topic string, message any)
}

// Pipeline processes detections end to end. It is safe for concurrent use;
// the cooldown gate in the store arbitrates racing detections.
type Pipeline struct {
	store      Store
	matcher    *rules.Matcher
	dispatcher AlertDispatcher
	hub        Broadcaster
	collector  *metrics.Collector
	logger     *slog.Logger
}

// New creates a pipeline. collector may be nil when metrics reporting is
// disabled.
func New(store Store, matcher *rules.Matcher, dispatcher AlertDispatcher, hub Broadcaster, collector *metrics.Collector, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		store:      store,
		matcher:    matcher,
		dispatcher: dispatcher,
		hub:        hub,
		collector:  collector,
		logger:     logger,
	}
}

// ProcessDetection ingests one detection message and returns the persisted
// detection with any alerts it raised. A rule that matches but is inside its
// cooldown raises nothing.
func (p *Pipeline) ProcessDetection(ctx context.Context, msg *events.DetectionMessage) (*models.DetectionEvent, []*models.Alert, error) {
	start := time.Now()
	if p.collector != nil {
		p.collector.RecordDetectionReceived()
	}

	if err := msg.Validate(); err != nil {
		if p.collector != nil {
			p.collector.RecordError()
		}
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidDetection, err)
	}

	event, err := p.store.CreateDetection(ctx, msg.ToDetection(time.Now()))
	if err != nil {
		if p.collector != nil {
			p.collector.RecordError()
		}
		return nil, nil, fmt.Errorf("failed to persist detection: %w", err)
	}

	p.logger.Info("detection ingested",
		"detection_id", event.ID,
		"event_type", event.EventType,
		"severity", event.Severity,
		"confidence", event.Confidence,
		"camera", event.CameraName,
		"location_id", event.LocationID)

	p.broadcastDetection(event)

	raised, err := p.evaluateRules(ctx, event)
	if err != nil {
		if p.collector != nil {
			p.collector.RecordError()
		}
		return event, raised, err
	}

	if p.collector != nil {
		p.collector.RecordDetectionProcessed(time.Since(start))
	}
	p.logger.Info("detection processed",
		"detection_id", event.ID,
		"alerts_created", len(raised),
		"elapsed", time.Since(start))
	return event, raised, nil
}

// evaluateRules runs the detection through the location's active rules and
// creates one alert per matching rule that wins the cooldown gate.
func (p *Pipeline) evaluateRules(ctx context.Context, event *models.DetectionEvent) ([]*models.Alert, error) {
	ruleSet, err := p.store.GetActiveRulesForLocation(ctx, event.LocationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	matched := p.matcher.MatchAll(ruleSet, event, time.Now())
	raised := make([]*models.Alert, 0, len(matched))

	for i := range matched {
		rule := &matched[i]

		alert := alerts.NewFromMatch(rule, event, time.Now())
		id, err := p.store.CreateAlertForRule(ctx, rule.ID, alert)
		if err != nil {
			if errors.Is(err, database.ErrCooldown) {
				p.logger.Debug("rule suppressed by cooldown",
					"rule_id", rule.ID,
					"detection_id", event.ID)
				continue
			}
			p.logger.Error("failed to create alert",
				"error", err,
				"rule_id", rule.ID,
				"detection_id", event.ID)
			continue
		}
		alert.ID = id
		raised = append(raised, alert)
		if p.collector != nil {
			p.collector.RecordAlertCreated()
		}

		p.logger.Info("alert created",
			"alert_id", alert.ID,
			"rule_id", rule.ID,
			"title", alert.Title,
			"priority", alert.Priority)

		p.broadcastAlert(alert)

		if err := p.dispatcher.Dispatch(ctx, alert); err != nil {
			p.logger.Error("failed to dispatch alert notifications",
				"error", err,
				"alert_id", alert.ID)
		}
	}

	return raised, nil
}

// broadcastDetection publishes the detection to its location topic and the
// dashboard.
func (p *Pipeline) broadcastDetection(event *models.DetectionEvent) {
	if p.hub == nil {
		return
	}
	broadcast := events.NewDetectionBroadcast{
		Type:      "new_detection",
		Detection: events.BuildDetectionData(event),
	}
	p.hub.Publish(realtime.TopicDetections(event.LocationID), broadcast)
	p.hub.Publish(realtime.TopicDashboard, events.DashboardUpdate{
		Type:   "dashboard_update",
		Update: broadcast,
	})
}

// broadcastAlert publishes the new alert to its location topic and the
// dashboard.
func (p *Pipeline) broadcastAlert(alert *models.Alert) {
	if p.hub == nil {
		return
	}
	broadcast := events.BuildNewAlertBroadcast(alert)
	p.hub.Publish(realtime.TopicAlerts(alert.LocationID), broadcast)
	p.hub.Publish(realtime.TopicDashboard, events.DashboardUpdate{
		Type:   "dashboard_update",
		Update: broadcast,
	})
}
