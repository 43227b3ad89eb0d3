// Package events defines the wire formats crossing the pipeline's
// boundaries: detection ingest messages and realtime broadcast payloads.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Wassi1m/app-surveince/internal/models"
)

// DetectionMessage is the ingest payload accepted over Kafka and HTTP.
type DetectionMessage struct {
	CameraID      int64            `json:"camera_id"`
	ZoneID        int64            `json:"zone_id"`
	EventType     models.EventType `json:"event_type"`
	Severity      models.Severity  `json:"severity"`
	Confidence    float64          `json:"confidence"`
	DetectedAt    time.Time        `json:"detected_at"`
	BoundingBoxes json.RawMessage  `json:"bounding_boxes,omitempty"`
	Description   string           `json:"description,omitempty"`
	ImagePath     string           `json:"image_path,omitempty"`
	VideoClipPath string           `json:"video_clip_path,omitempty"`
}

// Validate checks the message is well formed before it enters the pipeline.
func (m *DetectionMessage) Validate() error {
	if m.CameraID <= 0 {
		return fmt.Errorf("camera_id is required")
	}
	if m.ZoneID <= 0 {
		return fmt.Errorf("zone_id is required")
	}
	if !m.EventType.Valid() {
		return fmt.Errorf("unknown event_type: %q", m.EventType)
	}
	if !m.Severity.Valid() {
		return fmt.Errorf("unknown severity: %q", m.Severity)
	}
	if m.Confidence < 0 || m.Confidence > 1 {
		return fmt.Errorf("confidence %v out of range [0, 1]", m.Confidence)
	}
	return nil
}

// ToDetection converts the message into a detection event record. A zero
// detected_at is stamped with now.
func (m *DetectionMessage) ToDetection(now time.Time) *models.DetectionEvent {
	detectedAt := m.DetectedAt
	if detectedAt.IsZero() {
		detectedAt = now
	}
	return &models.DetectionEvent{
		CameraID:      m.CameraID,
		ZoneID:        m.ZoneID,
		EventType:     m.EventType,
		Severity:      m.Severity,
		Confidence:    m.Confidence,
		DetectedAt:    detectedAt,
		BoundingBoxes: m.BoundingBoxes,
		Description:   m.Description,
		ImagePath:     m.ImagePath,
		VideoClipPath: m.VideoClipPath,
	}
}

// AlertData is the alert shape broadcast to realtime subscribers.
type AlertData struct {
	ID             int64               `json:"id"`
	Title          string              `json:"title"`
	Message        string              `json:"message"`
	Priority       models.Priority     `json:"priority"`
	Status         models.AlertStatus  `json:"status"`
	CreatedAt      string              `json:"created_at"`
	DetectionEvent *DetectionEventData `json:"detection_event,omitempty"`
	RuleName       string              `json:"rule_name"`
}

// DetectionEventData is the detection context embedded in broadcast alerts.
type DetectionEventData struct {
	ID               int64            `json:"id"`
	EventType        models.EventType `json:"event_type"`
	EventTypeDisplay string           `json:"event_type_display"`
	Severity         models.Severity  `json:"severity"`
	Confidence       float64          `json:"confidence"`
	CameraName       string           `json:"camera_name"`
	ZoneName         string           `json:"zone_name"`
	DetectedAt       string           `json:"detected_at"`
}

// NewAlertBroadcast is the message published to a location's alert topic when
// an alert is created. Sound and popup hints let clients escalate urgent
// alerts without re-deriving priority rules.
type NewAlertBroadcast struct {
	Type              string    `json:"type"`
	Alert             AlertData `json:"alert"`
	Sound             bool      `json:"sound"`
	NotificationPopup bool      `json:"notification_popup"`
}

// DashboardUpdate is the message published to the global dashboard topic.
type DashboardUpdate struct {
	Type   string `json:"type"`
	Update any    `json:"update"`
}

// AlertStatusBroadcast is published when an alert is acknowledged or
// resolved.
type AlertStatusBroadcast struct {
	Type    string             `json:"type"`
	AlertID int64              `json:"alert_id"`
	Status  models.AlertStatus `json:"status"`
	UserID  int64              `json:"user_id"`
}

// NewDetectionBroadcast is published to a location's detection topic when a
// detection is ingested.
type NewDetectionBroadcast struct {
	Type      string              `json:"type"`
	Detection *DetectionEventData `json:"detection"`
}

// BuildAlertData converts an alert into its broadcast shape.
func BuildAlertData(alert *models.Alert) AlertData {
	data := AlertData{
		ID:        alert.ID,
		Title:     alert.Title,
		Message:   alert.Message,
		Priority:  alert.Priority,
		Status:    alert.Status,
		CreatedAt: alert.CreatedAt.Format(time.RFC3339),
		RuleName:  alert.RuleName,
	}
	if alert.Detection != nil {
		data.DetectionEvent = BuildDetectionData(alert.Detection)
	}
	return data
}

// BuildDetectionData converts a detection event into its broadcast shape.
func BuildDetectionData(event *models.DetectionEvent) *DetectionEventData {
	return &DetectionEventData{
		ID:               event.ID,
		EventType:        event.EventType,
		EventTypeDisplay: event.EventType.Label(),
		Severity:         event.Severity,
		Confidence:       event.Confidence,
		CameraName:       event.CameraName,
		ZoneName:         event.ZoneName,
		DetectedAt:       event.DetectedAt.Format(time.RFC3339),
	}
}

// BuildNewAlertBroadcast builds the location topic message for a new alert.
func BuildNewAlertBroadcast(alert *models.Alert) NewAlertBroadcast {
	return NewAlertBroadcast{
		Type:              "new_alert",
		Alert:             BuildAlertData(alert),
		Sound:             alert.Priority == models.PriorityHigh || alert.Priority == models.PriorityCritical,
		NotificationPopup: alert.Priority == models.PriorityCritical,
	}
}
