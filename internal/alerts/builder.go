package alerts

import (
	"time"

	"github.com/Wassi1m/app-surveince/internal/models"
)

// Builder constructs fully-typed alerts without requiring persisted rows.
// It is used by the channel test endpoint and by tests that need realistic
// alert fixtures.
type Builder struct {
	alert models.Alert
}

// NewBuilder returns a builder seeded with a plausible medium-priority alert.
func NewBuilder() *Builder {
	now := time.Now().UTC()
	return &Builder{alert: models.Alert{
		Title:     "Test alert - verification",
		Message:   "This is a test alert to verify channel delivery",
		Priority:  models.PriorityMedium,
		Status:    models.AlertPending,
		CreatedAt: now,
		Metadata: models.AlertMetadata{
			Confidence: 0.95,
			Severity:   models.SeverityMedium,
		},
		Detection: &models.DetectionEvent{
			EventType:  models.EventSuspicious,
			Severity:   models.SeverityMedium,
			Confidence: 0.95,
			DetectedAt: now,
			CameraName: "Test camera",
			ZoneName:   "Test zone",
		},
	}}
}

// WithID sets the alert ID.
func (b *Builder) WithID(id int64) *Builder {
	b.alert.ID = id
	return b
}

// WithTitle sets the alert title.
func (b *Builder) WithTitle(title string) *Builder {
	b.alert.Title = title
	return b
}

// WithMessage sets the alert message.
func (b *Builder) WithMessage(message string) *Builder {
	b.alert.Message = message
	return b
}

// WithPriority sets the alert priority.
func (b *Builder) WithPriority(p models.Priority) *Builder {
	b.alert.Priority = p
	return b
}

// WithStatus sets the alert status.
func (b *Builder) WithStatus(s models.AlertStatus) *Builder {
	b.alert.Status = s
	return b
}

// WithCreatedAt sets the creation timestamp on both the alert and its
// detection fixture.
func (b *Builder) WithCreatedAt(t time.Time) *Builder {
	b.alert.CreatedAt = t
	if b.alert.Detection != nil {
		b.alert.Detection.DetectedAt = t
	}
	return b
}

// WithLocation sets the location the alert belongs to.
func (b *Builder) WithLocation(id int64) *Builder {
	b.alert.LocationID = id
	return b
}

// WithRule sets the originating rule reference.
func (b *Builder) WithRule(id int64, name string) *Builder {
	b.alert.AlertRuleID = id
	b.alert.RuleName = name
	return b
}

// WithDetection replaces the detection fixture and refreshes the frozen
// metadata snapshot from it.
func (b *Builder) WithDetection(event *models.DetectionEvent) *Builder {
	b.alert.Detection = event
	b.alert.DetectionEventID = event.ID
	b.alert.Metadata = models.AlertMetadata{
		CameraID:   event.CameraID,
		ZoneID:     event.ZoneID,
		Confidence: event.Confidence,
		Severity:   event.Severity,
	}
	return b
}

// Build returns a copy of the constructed alert.
func (b *Builder) Build() *models.Alert {
	alert := b.alert
	return &alert
}
