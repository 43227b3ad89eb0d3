// Package alerts builds alert records from rule matches and provides a typed
// builder for constructing alerts in tests and channel checks.
package alerts

import (
	"fmt"
	"time"

	"github.com/Wassi1m/app-surveince/internal/models"
)

// NewFromMatch builds the alert for a (rule, detection) match. The returned
// alert is pending with no ID; the store assigns one on insert. The metadata
// snapshot freezes the detection context at creation time.
func NewFromMatch(rule *models.AlertRule, event *models.DetectionEvent, now time.Time) *models.Alert {
	title := fmt.Sprintf("%s - %s", event.EventType.Label(), event.CameraName)
	message := fmt.Sprintf("%s detected in zone %s with %.0f%% confidence",
		event.EventType.Label(), event.ZoneName, event.Confidence*100)

	return &models.Alert{
		DetectionEventID: event.ID,
		AlertRuleID:      rule.ID,
		Title:            title,
		Message:          message,
		Priority:         models.PriorityFromSeverity(event.Severity),
		Status:           models.AlertPending,
		CreatedAt:        now,
		Metadata: models.AlertMetadata{
			CameraID:   event.CameraID,
			ZoneID:     event.ZoneID,
			Confidence: event.Confidence,
			Severity:   event.Severity,
		},
		LocationID: event.LocationID,
		RuleName:   rule.Name,
		Detection:  event,
	}
}
