// Package models defines the domain entities and closed enums shared across
// the detection-to-notification pipeline.
package models

import (
	"encoding/json"
	"time"
)

// Severity is the AI-assigned severity of a detection event.
type Severity string

// Severity levels, ordered from least to most severe.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Ordinal returns the numeric rank used for severity comparisons.
// Unknown severities rank lowest.
func (s Severity) Ordinal() int {
	switch s {
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	default:
		return 0
	}
}

// Valid reports whether s is a known severity level.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Priority is the urgency assigned to an alert.
type Priority string

// Alert priority levels.
const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Valid reports whether p is a known priority level.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// PriorityFromSeverity maps a detection severity onto an alert priority.
// The mapping is identity for medium and above; everything else is low.
func PriorityFromSeverity(s Severity) Priority {
	switch s {
	case SeverityCritical:
		return PriorityCritical
	case SeverityHigh:
		return PriorityHigh
	case SeverityMedium:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// EventType classifies what the AI detected.
type EventType string

// Known detection event types.
const (
	EventIntrusion       EventType = "intrusion"
	EventTheft           EventType = "theft"
	EventSuspicious      EventType = "suspicious"
	EventAbandonedObject EventType = "abandoned_object"
	EventAccident        EventType = "accident"
	EventFire            EventType = "fire"
	EventCrowd           EventType = "crowd"
	EventViolence        EventType = "violence"
	EventVandalism       EventType = "vandalism"
	EventWeapon          EventType = "weapon"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	switch t {
	case EventIntrusion, EventTheft, EventSuspicious, EventAbandonedObject,
		EventAccident, EventFire, EventCrowd, EventViolence, EventVandalism, EventWeapon:
		return true
	}
	return false
}

// Label returns the human-readable name of the event type.
func (t EventType) Label() string {
	switch t {
	case EventIntrusion:
		return "Intrusion"
	case EventTheft:
		return "Theft"
	case EventSuspicious:
		return "Suspicious behavior"
	case EventAbandonedObject:
		return "Abandoned object"
	case EventAccident:
		return "Accident"
	case EventFire:
		return "Fire"
	case EventCrowd:
		return "Crowd gathering"
	case EventViolence:
		return "Violence"
	case EventVandalism:
		return "Vandalism"
	case EventWeapon:
		return "Weapon detected"
	default:
		return string(t)
	}
}

// TriggerType selects which condition an alert rule evaluates.
type TriggerType string

// Known rule trigger types.
const (
	TriggerDetectionType       TriggerType = "detection_type"
	TriggerSeverityLevel       TriggerType = "severity_level"
	TriggerCamera              TriggerType = "camera"
	TriggerZone                TriggerType = "zone"
	TriggerTimeWindow          TriggerType = "time_window"
	TriggerConfidenceThreshold TriggerType = "confidence_threshold"
)

// Valid reports whether t is a known trigger type.
func (t TriggerType) Valid() bool {
	switch t {
	case TriggerDetectionType, TriggerSeverityLevel, TriggerCamera,
		TriggerZone, TriggerTimeWindow, TriggerConfidenceThreshold:
		return true
	}
	return false
}

// ChannelType selects the delivery mechanism of a notification channel.
type ChannelType string

// Known notification channel types.
const (
	ChannelEmail   ChannelType = "email"
	ChannelSMS     ChannelType = "sms"
	ChannelWebhook ChannelType = "webhook"
	ChannelPush    ChannelType = "push"
)

// Valid reports whether t is a known channel type.
func (t ChannelType) Valid() bool {
	switch t {
	case ChannelEmail, ChannelSMS, ChannelWebhook, ChannelPush:
		return true
	}
	return false
}

// AlertStatus is the lifecycle state of an alert.
type AlertStatus string

// Alert lifecycle states. Transitions are monotonic:
// pending -> {sent, failed} -> acknowledged -> resolved.
const (
	AlertPending      AlertStatus = "pending"
	AlertSent         AlertStatus = "sent"
	AlertFailed       AlertStatus = "failed"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
)

// String returns the status as a string.
func (s AlertStatus) String() string { return string(s) }

// NotificationStatus is the delivery state of a single notification attempt.
type NotificationStatus string

// Notification delivery states. The dispatcher produces
// pending -> sending -> {sent, failed}; delivered, bounced and read are
// driven asynchronously by the provider.
const (
	NotificationPending   NotificationStatus = "pending"
	NotificationSending   NotificationStatus = "sending"
	NotificationSent      NotificationStatus = "sent"
	NotificationFailed    NotificationStatus = "failed"
	NotificationDelivered NotificationStatus = "delivered"
	NotificationBounced   NotificationStatus = "bounced"
	NotificationRead      NotificationStatus = "read"
)

// String returns the status as a string.
func (s NotificationStatus) String() string { return string(s) }

// RiskLevel weights a surveillance zone.
type RiskLevel string

// Zone risk levels.
const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// CameraStatus is the operational state of a camera.
type CameraStatus string

// Camera operational states.
const (
	CameraOnline      CameraStatus = "online"
	CameraOffline     CameraStatus = "offline"
	CameraMaintenance CameraStatus = "maintenance"
	CameraError       CameraStatus = "error"
)

// Location is a surveillance site. It owns zones, cameras and alert rules.
type Location struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Zone is a sub-area of a location.
type Zone struct {
	ID          int64           `json:"id"`
	LocationID  int64           `json:"location_id"`
	Name        string          `json:"name"`
	RiskLevel   RiskLevel       `json:"risk_level"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
	Description string          `json:"description,omitempty"`
	IsActive    bool            `json:"is_active"`
}

// Camera is a detection source bound to one location and zone.
type Camera struct {
	ID          int64        `json:"id"`
	LocationID  int64        `json:"location_id"`
	ZoneID      int64        `json:"zone_id"`
	Name        string       `json:"name"`
	IPAddress   string       `json:"ip_address"`
	Port        int          `json:"port"`
	StreamURL   string       `json:"stream_url"`
	Status      CameraStatus `json:"status"`
	Resolution  string       `json:"resolution"`
	FPS         int          `json:"fps"`
	LastSeen    *time.Time   `json:"last_seen,omitempty"`
	IsAIEnabled bool         `json:"is_ai_enabled"`
	CreatedAt   time.Time    `json:"created_at"`
}

// DetectionEvent is an AI-flagged occurrence at a camera. The detection facts
// are immutable once created; only the verification flags may be set later by
// a human reviewer.
type DetectionEvent struct {
	ID            int64           `json:"id"`
	CameraID      int64           `json:"camera_id"`
	ZoneID        int64           `json:"zone_id"`
	EventType     EventType       `json:"event_type"`
	Severity      Severity        `json:"severity"`
	Confidence    float64         `json:"confidence"`
	DetectedAt    time.Time       `json:"detected_at"`
	BoundingBoxes json.RawMessage `json:"bounding_boxes,omitempty"`
	Description   string          `json:"description,omitempty"`
	ImagePath     string          `json:"image_path,omitempty"`
	VideoClipPath string          `json:"video_clip_path,omitempty"`
	IsVerified    bool            `json:"is_verified"`
	VerifiedBy    *int64          `json:"verified_by,omitempty"`
	VerifiedAt    *time.Time      `json:"verified_at,omitempty"`
	FalsePositive bool            `json:"false_positive"`

	// Populated by the repository join; not columns of detection_events.
	CameraName string `json:"camera_name,omitempty"`
	ZoneName   string `json:"zone_name,omitempty"`
	LocationID int64  `json:"location_id,omitempty"`
}

// HourWindow is an inclusive hour-of-day interval for time_window rules.
type HourWindow struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// TriggerConditions is the structured condition payload of an alert rule.
// Only the fields relevant to the rule's trigger type are set.
type TriggerConditions struct {
	EventTypes    []EventType  `json:"event_types,omitempty"`
	MinSeverity   Severity     `json:"min_severity,omitempty"`
	MinConfidence *float64     `json:"min_confidence,omitempty"`
	CameraIDs     []int64      `json:"camera_ids,omitempty"`
	ZoneIDs       []int64      `json:"zone_ids,omitempty"`
	TimeWindows   []HourWindow `json:"time_windows,omitempty"`
}

// AlertRule is a declarative trigger that produces alerts from detections.
type AlertRule struct {
	ID                int64             `json:"id"`
	LocationID        int64             `json:"location_id"`
	Name              string            `json:"name"`
	Description       string            `json:"description,omitempty"`
	TriggerType       TriggerType       `json:"trigger_type"`
	TriggerConditions TriggerConditions `json:"trigger_conditions"`
	IsActive          bool              `json:"is_active"`
	Priority          int               `json:"priority"` // 1 = highest, processing order only
	CooldownMinutes   int               `json:"cooldown_minutes"`
	CreatedBy         int64             `json:"created_by"`
	CreatedAt         time.Time         `json:"created_at"`
	LastTriggered     *time.Time        `json:"last_triggered,omitempty"`
}

// Cooldown returns the rule's cooldown interval.
func (r *AlertRule) Cooldown() time.Duration {
	return time.Duration(r.CooldownMinutes) * time.Minute
}

// InCooldown reports whether the rule triggered within its cooldown window.
func (r *AlertRule) InCooldown(now time.Time) bool {
	return r.LastTriggered != nil && now.Sub(*r.LastTriggered) < r.Cooldown()
}

// AlertMetadata is the detection context frozen into an alert at creation
// time. It is never recomputed, even if the detection is later re-verified.
// ResolutionNotes is the one later addition, written when an operator
// resolves the alert.
type AlertMetadata struct {
	CameraID        int64    `json:"camera_id"`
	ZoneID          int64    `json:"zone_id"`
	Confidence      float64  `json:"confidence"`
	Severity        Severity `json:"severity"`
	ResolutionNotes string   `json:"resolution_notes,omitempty"`
}

// Alert is created exactly once per (rule, detection) match that passes the
// cooldown gate. Its detection event and rule references are immutable.
type Alert struct {
	ID               int64         `json:"id"`
	DetectionEventID int64         `json:"detection_event_id"`
	AlertRuleID      int64         `json:"alert_rule_id"`
	Title            string        `json:"title"`
	Message          string        `json:"message"`
	Priority         Priority      `json:"priority"`
	Status           AlertStatus   `json:"status"`
	CreatedAt        time.Time     `json:"created_at"`
	SentAt           *time.Time    `json:"sent_at,omitempty"`
	AcknowledgedAt   *time.Time    `json:"acknowledged_at,omitempty"`
	AcknowledgedBy   *int64        `json:"acknowledged_by,omitempty"`
	ResolvedAt       *time.Time    `json:"resolved_at,omitempty"`
	ResolvedBy       *int64        `json:"resolved_by,omitempty"`
	Metadata         AlertMetadata `json:"metadata"`

	// Denormalized context, populated at creation and by repository joins.
	LocationID int64           `json:"location_id,omitempty"`
	RuleName   string          `json:"rule_name,omitempty"`
	Detection  *DetectionEvent `json:"detection_event,omitempty"`
}

// ChannelConfig is the per-type configuration payload of a channel.
// Only the fields relevant to the channel's type are set.
type ChannelConfig struct {
	WebhookURL  string            `json:"webhook_url,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	PhoneNumber string            `json:"phone_number,omitempty"`
	DeviceToken string            `json:"device_token,omitempty"`
	FromAddress string            `json:"from_address,omitempty"`
}

// NotificationChannel is a delivery endpoint configuration.
type NotificationChannel struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	ChannelType   ChannelType   `json:"channel_type"`
	Configuration ChannelConfig `json:"configuration"`
	IsActive      bool          `json:"is_active"`
	CreatedAt     time.Time     `json:"created_at"`
	LastUsed      *time.Time    `json:"last_used,omitempty"`
}

// User is the minimal account shape the pipeline needs for delivery targets.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}

// TimeRestrictions limits when a recipient receives notifications.
// AllowedDays uses the original weekday encoding: 0=Monday .. 6=Sunday.
// StartTime/EndTime are "HH:MM" clock times; a window with start > end
// spans midnight.
type TimeRestrictions struct {
	AllowedDays []int  `json:"allowed_days,omitempty"`
	StartTime   string `json:"start_time,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
}

// AlertRecipient binds a user to a location with a set of channels and
// delivery filters.
type AlertRecipient struct {
	ID               int64                 `json:"id"`
	UserID           int64                 `json:"user_id"`
	LocationID       int64                 `json:"location_id"`
	User             User                  `json:"user"`
	Channels         []NotificationChannel `json:"channels"`
	IsActive         bool                  `json:"is_active"`
	PriorityFilter   []Priority            `json:"priority_filter,omitempty"`
	TimeRestrictions TimeRestrictions      `json:"time_restrictions"`
	CreatedAt        time.Time             `json:"created_at"`
}

// AllowsPriority reports whether the recipient's priority filter admits p.
// An empty filter admits every priority.
func (r *AlertRecipient) AllowsPriority(p Priority) bool {
	if len(r.PriorityFilter) == 0 {
		return true
	}
	for _, allowed := range r.PriorityFilter {
		if allowed == p {
			return true
		}
	}
	return false
}

// NotificationLog is one delivery attempt for one (alert, channel, recipient)
// combination. Rows are append-only history.
type NotificationLog struct {
	ID           int64              `json:"id"`
	AlertID      int64              `json:"alert_id"`
	ChannelID    int64              `json:"channel_id"`
	Recipient    string             `json:"recipient"`
	Status       NotificationStatus `json:"status"`
	SentAt       *time.Time         `json:"sent_at,omitempty"`
	DeliveredAt  *time.Time         `json:"delivered_at,omitempty"`
	ErrorMessage string             `json:"error_message,omitempty"`
	ExternalID   string             `json:"external_id,omitempty"`
	RetryCount   int                `json:"retry_count"`
	Metadata     map[string]any     `json:"metadata,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}
