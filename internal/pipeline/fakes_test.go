package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Wassi1m/app-surveince/internal/database"
	"github.com/Wassi1m/app-surveince/internal/models"
)

// fakeStore is an in-memory Store with a real cooldown gate so concurrent
// pipeline tests exercise the single-winner property.
type fakeStore struct {
	mu    sync.Mutex
	rules []models.AlertRule

	nextDetectionID int64
	nextAlertID     int64
	detections      []*models.DetectionEvent
	alerts          []*models.Alert
	createAlertErr  error

	cameraName string
	zoneName   string
	locationID int64
}

func newFakeStore(locationID int64, ruleSet ...models.AlertRule) *fakeStore {
	return &fakeStore{
		rules:      ruleSet,
		cameraName: "Entrance north",
		zoneName:   "Lobby",
		locationID: locationID,
	}
}

func (s *fakeStore) CreateDetection(ctx context.Context, event *models.DetectionEvent) (*models.DetectionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextDetectionID++
	stored := *event
	stored.ID = s.nextDetectionID
	stored.CameraName = s.cameraName
	stored.ZoneName = s.zoneName
	stored.LocationID = s.locationID
	s.detections = append(s.detections, &stored)
	return &stored, nil
}

func (s *fakeStore) GetActiveRulesForLocation(ctx context.Context, locationID int64) ([]models.AlertRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AlertRule, len(s.rules))
	copy(out, s.rules)
	return out, nil
}

func (s *fakeStore) CreateAlertForRule(ctx context.Context, ruleID int64, alert *models.Alert) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		rule := &s.rules[i]
		if rule.ID != ruleID {
			continue
		}
		now := time.Now()
		if rule.LastTriggered != nil && now.Sub(*rule.LastTriggered) < rule.Cooldown() {
			return 0, fmt.Errorf("rule %d: %w", ruleID, database.ErrCooldown)
		}
		if s.createAlertErr != nil {
			// A failed insert leaves last_triggered untouched, like the
			// rolled-back transaction in the real store.
			return 0, s.createAlertErr
		}
		triggered := now
		rule.LastTriggered = &triggered
		s.nextAlertID++
		stored := *alert
		stored.ID = s.nextAlertID
		s.alerts = append(s.alerts, &stored)
		return s.nextAlertID, nil
	}
	return 0, fmt.Errorf("rule %d: %w", ruleID, database.ErrNotFound)
}

func (s *fakeStore) alertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}

// fakeDispatcher records dispatched alerts.
type fakeDispatcher struct {
	mu     sync.Mutex
	alerts []*models.Alert
	err    error
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, alert *models.Alert) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.alerts = append(d.alerts, alert)
	return d.err
}

func (d *fakeDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.alerts)
}

// fakeHub records published topics and payloads.
type fakeHub struct {
	mu       sync.Mutex
	messages map[string][]any
}

func newFakeHub() *fakeHub {
	return &fakeHub{messages: make(map[string][]any)}
}

func (h *fakeHub) Publish(topic string, message any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages[topic] = append(h.messages[topic], message)
}

func (h *fakeHub) count(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages[topic])
}
