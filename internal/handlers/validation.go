package handlers

import (
	"fmt"
	"net/http"

	"github.com/Wassi1m/app-surveince/internal/models"
)

// Keep validation logic centralized to avoid divergence across endpoints.

// validateRuleFields validates the required rule fields.
// Returns true if valid, false otherwise (and writes error response).
func validateRuleFields(w http.ResponseWriter, rule *models.AlertRule) bool {
	if rule.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return false
	}
	if rule.LocationID <= 0 {
		http.Error(w, "location_id is required", http.StatusBadRequest)
		return false
	}
	if !rule.TriggerType.Valid() {
		http.Error(w, "trigger_type must be one of: detection_type, severity_level, camera, zone, time_window, confidence_threshold", http.StatusBadRequest)
		return false
	}
	if rule.CooldownMinutes < 0 {
		http.Error(w, "cooldown_minutes cannot be negative", http.StatusBadRequest)
		return false
	}
	return true
}

// validateRuleConditions checks that the condition payload carries the fields
// the trigger type evaluates. Returns true if valid, false otherwise (and
// writes error response).
func validateRuleConditions(w http.ResponseWriter, rule *models.AlertRule) bool {
	c := rule.TriggerConditions
	switch rule.TriggerType {
	case models.TriggerDetectionType:
		if len(c.EventTypes) == 0 {
			http.Error(w, "trigger_conditions.event_types is required for detection_type rules", http.StatusBadRequest)
			return false
		}
		for _, et := range c.EventTypes {
			if !et.Valid() {
				http.Error(w, fmt.Sprintf("unknown event type %q", et), http.StatusBadRequest)
				return false
			}
		}
	case models.TriggerSeverityLevel:
		if !c.MinSeverity.Valid() {
			http.Error(w, "trigger_conditions.min_severity must be one of: low, medium, high, critical", http.StatusBadRequest)
			return false
		}
	case models.TriggerCamera:
		if len(c.CameraIDs) == 0 {
			http.Error(w, "trigger_conditions.camera_ids is required for camera rules", http.StatusBadRequest)
			return false
		}
	case models.TriggerZone:
		if len(c.ZoneIDs) == 0 {
			http.Error(w, "trigger_conditions.zone_ids is required for zone rules", http.StatusBadRequest)
			return false
		}
	case models.TriggerTimeWindow:
		if len(c.TimeWindows) == 0 {
			http.Error(w, "trigger_conditions.time_windows is required for time_window rules", http.StatusBadRequest)
			return false
		}
		for _, win := range c.TimeWindows {
			if win.Start < 0 || win.Start > 23 || win.End < 0 || win.End > 23 {
				http.Error(w, "time window hours must be between 0 and 23", http.StatusBadRequest)
				return false
			}
		}
	case models.TriggerConfidenceThreshold:
		if c.MinConfidence != nil && (*c.MinConfidence < 0 || *c.MinConfidence > 1) {
			http.Error(w, "trigger_conditions.min_confidence must be between 0 and 1", http.StatusBadRequest)
			return false
		}
	}
	return true
}

// validateChannelFields validates the required channel fields.
// Returns true if valid, false otherwise (and writes error response).
func validateChannelFields(w http.ResponseWriter, channel *models.NotificationChannel) bool {
	if channel.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return false
	}
	if !channel.ChannelType.Valid() {
		http.Error(w, "channel_type must be one of: email, sms, webhook, push", http.StatusBadRequest)
		return false
	}
	if channel.ChannelType == models.ChannelWebhook && channel.Configuration.WebhookURL == "" {
		http.Error(w, "configuration.webhook_url is required for webhook channels", http.StatusBadRequest)
		return false
	}
	return true
}
