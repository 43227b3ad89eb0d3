// Package rules evaluates alert rule trigger conditions against detection
// events.
package rules

import (
	"log/slog"
	"time"

	"github.com/Wassi1m/app-surveince/internal/models"
)

// DefaultMinConfidence is applied by confidence_threshold rules that do not
// set min_confidence explicitly.
const DefaultMinConfidence = 0.5

// Matcher evaluates trigger conditions. It is stateless and safe for
// concurrent use.
type Matcher struct {
	logger *slog.Logger
}

// NewMatcher creates a matcher that logs skipped rules to logger.
func NewMatcher(logger *slog.Logger) *Matcher {
	return &Matcher{logger: logger}
}

// Matches reports whether the detection event satisfies the rule's trigger
// conditions at now. Rules with an unknown trigger type never match; they are
// logged and skipped so a bad rule cannot flood alerts.
func (m *Matcher) Matches(rule *models.AlertRule, event *models.DetectionEvent, now time.Time) bool {
	cond := rule.TriggerConditions

	switch rule.TriggerType {
	case models.TriggerDetectionType:
		return containsEventType(cond.EventTypes, event.EventType)

	case models.TriggerSeverityLevel:
		return event.Severity.Ordinal() >= cond.MinSeverity.Ordinal()

	case models.TriggerConfidenceThreshold:
		min := DefaultMinConfidence
		if cond.MinConfidence != nil {
			min = *cond.MinConfidence
		}
		return event.Confidence >= min

	case models.TriggerCamera:
		return containsID(cond.CameraIDs, event.CameraID)

	case models.TriggerZone:
		return containsID(cond.ZoneIDs, event.ZoneID)

	case models.TriggerTimeWindow:
		// Evaluated against the wall clock at evaluation time, not the
		// detection timestamp. Hours are read in now's own zone; callers
		// pass server-local time.
		return inAnyHourWindow(cond.TimeWindows, now.Hour())

	default:
		m.logger.Warn("skipping rule with unknown trigger type",
			"rule_id", rule.ID,
			"trigger_type", rule.TriggerType)
		return false
	}
}

// MatchAll returns the subset of rules whose conditions the event satisfies
// at now. Inactive rules and rules still inside their cooldown are skipped.
// The cooldown read here only saves work; the store's conditional stamp
// remains the arbiter when concurrent detections race.
func (m *Matcher) MatchAll(ruleSet []models.AlertRule, event *models.DetectionEvent, now time.Time) []models.AlertRule {
	matched := make([]models.AlertRule, 0)
	for i := range ruleSet {
		rule := &ruleSet[i]
		if !rule.IsActive {
			continue
		}
		if rule.InCooldown(now) {
			continue
		}
		if m.Matches(rule, event, now) {
			matched = append(matched, *rule)
		}
	}
	return matched
}

func containsEventType(types []models.EventType, t models.EventType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// inAnyHourWindow reports whether hour falls inside any of the inclusive
// hour-of-day windows. Windows do not wrap midnight; an overnight rule uses
// two windows, one up to 23 and one from 0.
func inAnyHourWindow(windows []models.HourWindow, hour int) bool {
	for _, w := range windows {
		if hour >= w.Start && hour <= w.End {
			return true
		}
	}
	return false
}
