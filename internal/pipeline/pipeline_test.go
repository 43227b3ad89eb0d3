package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Wassi1m/app-surveince/internal/events"
	"github.com/Wassi1m/app-surveince/internal/models"
	"github.com/Wassi1m/app-surveince/internal/rules"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(store *fakeStore, dispatcher *fakeDispatcher, hub *fakeHub) *Pipeline {
	return New(store, rules.NewMatcher(testLogger()), dispatcher, hub, nil, testLogger())
}

func theftRule(id int64, cooldownMinutes int) models.AlertRule {
	return models.AlertRule{
		ID:              id,
		LocationID:      3,
		Name:            "Theft watch",
		TriggerType:     models.TriggerDetectionType,
		TriggerConditions: models.TriggerConditions{
			EventTypes: []models.EventType{models.EventTheft},
		},
		IsActive:        true,
		Priority:        1,
		CooldownMinutes: cooldownMinutes,
	}
}

func theftMessage() *events.DetectionMessage {
	return &events.DetectionMessage{
		CameraID:   1,
		ZoneID:     2,
		EventType:  models.EventTheft,
		Severity:   models.SeverityCritical,
		Confidence: 0.92,
		DetectedAt: time.Now(),
	}
}

func TestProcessDetectionEndToEnd(t *testing.T) {
	store := newFakeStore(3, theftRule(1, 5))
	dispatcher := &fakeDispatcher{}
	hub := newFakeHub()
	p := newTestPipeline(store, dispatcher, hub)

	event, raised, err := p.ProcessDetection(context.Background(), theftMessage())
	if err != nil {
		t.Fatalf("ProcessDetection() error = %v", err)
	}

	if event.ID == 0 || event.CameraName != "Entrance north" {
		t.Errorf("event = %+v, want persisted with camera context", event)
	}
	if len(raised) != 1 {
		t.Fatalf("alerts raised = %d, want 1", len(raised))
	}

	alert := raised[0]
	if alert.Title != "Theft - Entrance north" {
		t.Errorf("Title = %q, want %q", alert.Title, "Theft - Entrance north")
	}
	if alert.Priority != models.PriorityCritical {
		t.Errorf("Priority = %v, want critical", alert.Priority)
	}
	if alert.Metadata.Confidence != 0.92 || alert.Metadata.Severity != models.SeverityCritical {
		t.Errorf("Metadata = %+v, want frozen detection context", alert.Metadata)
	}

	if dispatcher.count() != 1 {
		t.Errorf("dispatched alerts = %d, want 1", dispatcher.count())
	}
	// Detection and alert each reach the location topic and the dashboard.
	if got := hub.count("detections:3"); got != 1 {
		t.Errorf("detections:3 messages = %d, want 1", got)
	}
	if got := hub.count("alerts:3"); got != 1 {
		t.Errorf("alerts:3 messages = %d, want 1", got)
	}
	if got := hub.count("dashboard"); got != 2 {
		t.Errorf("dashboard messages = %d, want 2", got)
	}
}

func TestProcessDetectionCooldownSuppressesSecondAlert(t *testing.T) {
	store := newFakeStore(3, theftRule(1, 5))
	dispatcher := &fakeDispatcher{}
	p := newTestPipeline(store, dispatcher, newFakeHub())

	for i := 0; i < 2; i++ {
		if _, _, err := p.ProcessDetection(context.Background(), theftMessage()); err != nil {
			t.Fatalf("ProcessDetection() #%d error = %v", i+1, err)
		}
	}

	if got := store.alertCount(); got != 1 {
		t.Errorf("alerts created = %d, want 1 (second suppressed by cooldown)", got)
	}
	if dispatcher.count() != 1 {
		t.Errorf("dispatched alerts = %d, want 1", dispatcher.count())
	}
}

func TestProcessDetectionConcurrentSingleWinner(t *testing.T) {
	store := newFakeStore(3, theftRule(1, 5))
	p := newTestPipeline(store, &fakeDispatcher{}, newFakeHub())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.ProcessDetection(context.Background(), theftMessage())
		}()
	}
	wg.Wait()

	if got := store.alertCount(); got != 1 {
		t.Errorf("alerts created = %d, want exactly 1 winner", got)
	}
}

func TestProcessDetectionZeroCooldownAlwaysFires(t *testing.T) {
	store := newFakeStore(3, theftRule(1, 0))
	p := newTestPipeline(store, &fakeDispatcher{}, newFakeHub())

	for i := 0; i < 3; i++ {
		p.ProcessDetection(context.Background(), theftMessage())
	}

	if got := store.alertCount(); got != 3 {
		t.Errorf("alerts created = %d, want 3 with zero cooldown", got)
	}
}

func TestProcessDetectionNonMatchingRuleRaisesNothing(t *testing.T) {
	fireRule := theftRule(1, 5)
	fireRule.TriggerConditions.EventTypes = []models.EventType{models.EventFire}
	store := newFakeStore(3, fireRule)
	dispatcher := &fakeDispatcher{}
	hub := newFakeHub()
	p := newTestPipeline(store, dispatcher, hub)

	_, raised, err := p.ProcessDetection(context.Background(), theftMessage())
	if err != nil {
		t.Fatalf("ProcessDetection() error = %v", err)
	}

	if len(raised) != 0 {
		t.Errorf("alerts raised = %d, want 0", len(raised))
	}
	// The detection itself is still persisted and broadcast.
	if len(store.detections) != 1 {
		t.Errorf("detections stored = %d, want 1", len(store.detections))
	}
	if got := hub.count("detections:3"); got != 1 {
		t.Errorf("detections:3 messages = %d, want 1", got)
	}
}

func TestProcessDetectionRejectsInvalidMessage(t *testing.T) {
	store := newFakeStore(3, theftRule(1, 5))
	p := newTestPipeline(store, &fakeDispatcher{}, newFakeHub())

	tests := []struct {
		name   string
		mutate func(*events.DetectionMessage)
	}{
		{"missing camera", func(m *events.DetectionMessage) { m.CameraID = 0 }},
		{"unknown event type", func(m *events.DetectionMessage) { m.EventType = "levitation" }},
		{"unknown severity", func(m *events.DetectionMessage) { m.Severity = "extreme" }},
		{"confidence above one", func(m *events.DetectionMessage) { m.Confidence = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := theftMessage()
			tt.mutate(msg)
			_, _, err := p.ProcessDetection(context.Background(), msg)
			if !errors.Is(err, ErrInvalidDetection) {
				t.Errorf("ProcessDetection() error = %v, want ErrInvalidDetection", err)
			}
		})
	}

	if len(store.detections) != 0 {
		t.Errorf("detections stored = %d, want 0 for invalid messages", len(store.detections))
	}
}

func TestProcessDetectionMultipleRulesEachRaiseAlerts(t *testing.T) {
	severityRule := models.AlertRule{
		ID:          2,
		LocationID:  3,
		Name:        "Critical anywhere",
		TriggerType: models.TriggerSeverityLevel,
		TriggerConditions: models.TriggerConditions{
			MinSeverity: models.SeverityHigh,
		},
		IsActive: true,
		Priority: 2,
	}
	store := newFakeStore(3, theftRule(1, 5), severityRule)
	dispatcher := &fakeDispatcher{}
	p := newTestPipeline(store, dispatcher, newFakeHub())

	_, raised, err := p.ProcessDetection(context.Background(), theftMessage())
	if err != nil {
		t.Fatalf("ProcessDetection() error = %v", err)
	}

	if len(raised) != 2 {
		t.Errorf("alerts raised = %d, want 2 (one per matching rule)", len(raised))
	}
	if dispatcher.count() != 2 {
		t.Errorf("dispatched alerts = %d, want 2", dispatcher.count())
	}
}

func TestProcessDetectionFailedAlertCreationReleasesCooldown(t *testing.T) {
	store := newFakeStore(3, theftRule(1, 5))
	dispatcher := &fakeDispatcher{}
	p := newTestPipeline(store, dispatcher, newFakeHub())

	store.createAlertErr = errors.New("insert failed")
	if _, raised, err := p.ProcessDetection(context.Background(), theftMessage()); err != nil {
		t.Fatalf("ProcessDetection() error = %v", err)
	} else if len(raised) != 0 {
		t.Fatalf("alerts raised = %d, want 0 when creation fails", len(raised))
	}

	// The rule must not be left stamped by the failed attempt.
	store.createAlertErr = nil
	_, raised, err := p.ProcessDetection(context.Background(), theftMessage())
	if err != nil {
		t.Fatalf("ProcessDetection() error = %v", err)
	}
	if len(raised) != 1 {
		t.Errorf("alerts raised = %d, want 1 after the failed attempt released the cooldown", len(raised))
	}
	if dispatcher.count() != 1 {
		t.Errorf("dispatched alerts = %d, want 1", dispatcher.count())
	}
}
