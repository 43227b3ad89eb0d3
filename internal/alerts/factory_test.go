package alerts

import (
	"testing"
	"time"

	"github.com/Wassi1m/app-surveince/internal/models"
)

func TestNewFromMatch(t *testing.T) {
	now := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	rule := &models.AlertRule{ID: 42, Name: "Theft watch"}
	event := &models.DetectionEvent{
		ID:         7,
		CameraID:   3,
		ZoneID:     5,
		EventType:  models.EventTheft,
		Severity:   models.SeverityCritical,
		Confidence: 0.92,
		CameraName: "Entrance north",
		ZoneName:   "Lobby",
		LocationID: 1,
	}

	alert := NewFromMatch(rule, event, now)

	if got, want := alert.Title, "Theft - Entrance north"; got != want {
		t.Errorf("Title = %q, want %q", got, want)
	}
	if got, want := alert.Message, "Theft detected in zone Lobby with 92% confidence"; got != want {
		t.Errorf("Message = %q, want %q", got, want)
	}
	if alert.Priority != models.PriorityCritical {
		t.Errorf("Priority = %v, want critical", alert.Priority)
	}
	if alert.Status != models.AlertPending {
		t.Errorf("Status = %v, want pending", alert.Status)
	}
	if alert.DetectionEventID != 7 || alert.AlertRuleID != 42 {
		t.Errorf("references = (%d, %d), want (7, 42)", alert.DetectionEventID, alert.AlertRuleID)
	}

	meta := alert.Metadata
	if meta.CameraID != 3 || meta.ZoneID != 5 || meta.Confidence != 0.92 || meta.Severity != models.SeverityCritical {
		t.Errorf("Metadata = %+v, want frozen detection context", meta)
	}
}

func TestNewFromMatchPriorityMapping(t *testing.T) {
	tests := []struct {
		severity models.Severity
		want     models.Priority
	}{
		{models.SeverityLow, models.PriorityLow},
		{models.SeverityMedium, models.PriorityMedium},
		{models.SeverityHigh, models.PriorityHigh},
		{models.SeverityCritical, models.PriorityCritical},
		{models.Severity("bogus"), models.PriorityLow},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			event := &models.DetectionEvent{Severity: tt.severity}
			alert := NewFromMatch(&models.AlertRule{}, event, time.Now())
			if alert.Priority != tt.want {
				t.Errorf("Priority = %v, want %v", alert.Priority, tt.want)
			}
		})
	}
}

func TestBuilderDefaults(t *testing.T) {
	alert := NewBuilder().Build()

	if alert.Priority != models.PriorityMedium {
		t.Errorf("Priority = %v, want medium", alert.Priority)
	}
	if alert.Detection == nil {
		t.Fatal("Detection = nil, want populated fixture")
	}
	if alert.Detection.CameraName == "" || alert.Detection.ZoneName == "" {
		t.Error("detection fixture missing camera or zone name")
	}
}

func TestBuilderWithDetectionRefreshesMetadata(t *testing.T) {
	event := &models.DetectionEvent{
		ID:         9,
		CameraID:   2,
		ZoneID:     4,
		EventType:  models.EventFire,
		Severity:   models.SeverityHigh,
		Confidence: 0.77,
	}

	alert := NewBuilder().WithDetection(event).Build()

	if alert.DetectionEventID != 9 {
		t.Errorf("DetectionEventID = %d, want 9", alert.DetectionEventID)
	}
	if alert.Metadata.Severity != models.SeverityHigh || alert.Metadata.Confidence != 0.77 {
		t.Errorf("Metadata = %+v, want refreshed from detection", alert.Metadata)
	}
}

func TestBuilderReturnsCopies(t *testing.T) {
	b := NewBuilder()
	first := b.Build()
	second := b.WithTitle("changed").Build()

	if first.Title == second.Title {
		t.Error("Build() returned aliased alerts, want independent copies")
	}
}
