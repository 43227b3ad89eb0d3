package handlers

import (
	"net/http"
	"time"

	"github.com/Wassi1m/app-surveince/internal/database"
	"github.com/Wassi1m/app-surveince/internal/events"
	"github.com/Wassi1m/app-surveince/internal/models"
	"github.com/Wassi1m/app-surveince/internal/realtime"
)

// AlertActionRequest identifies the operator acting on an alert. Notes are
// only read by resolve, where they are stored as resolution notes on the
// alert.
type AlertActionRequest struct {
	UserID int64  `json:"user_id"`
	Notes  string `json:"notes,omitempty"`
}

// AlertDetail bundles an alert with its notification delivery log.
type AlertDetail struct {
	Alert         *models.Alert             `json:"alert"`
	Notifications []*models.NotificationLog `json:"notifications"`
}

// GetAlert retrieves an alert and its delivery log.
func (h *Handlers) GetAlert(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	alertID, ok := requireIDParam(w, r, "alert_id")
	if !ok {
		return
	}

	ctx := r.Context()
	alert, err := h.db.GetAlert(ctx, alertID)
	if handleDBError(w, err, "alert", alertID) {
		return
	}

	notifications, err := h.db.ListNotificationsForAlert(ctx, alertID)
	if handleDBError(w, err, "notification log", alertID) {
		return
	}

	writeJSON(w, http.StatusOK, AlertDetail{Alert: alert, Notifications: notifications})
}

// ListAlerts retrieves alerts with optional filters.
// Query params: location_id, status, priority, since (RFC3339), limit, offset.
func (h *Handlers) ListAlerts(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	p := parsePagination(r)
	filter := database.AlertFilter{
		LocationID: optionalIDParam(r, "location_id"),
		Limit:      p.Limit,
		Offset:     p.Offset,
	}

	if v := r.URL.Query().Get("status"); v != "" {
		status := models.AlertStatus(v)
		filter.Status = &status
	}
	if v := r.URL.Query().Get("priority"); v != "" {
		priority := models.Priority(v)
		if !priority.Valid() {
			http.Error(w, "unknown priority", http.StatusBadRequest)
			return
		}
		filter.Priority = &priority
	}
	if v := r.URL.Query().Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "since must be an RFC3339 timestamp", http.StatusBadRequest)
			return
		}
		filter.Since = &since
	}

	alerts, err := h.db.ListAlerts(r.Context(), filter)
	if handleDBError(w, err, "alert", 0) {
		return
	}

	writeJSON(w, http.StatusOK, alerts)
}

// AcknowledgeAlert marks an alert acknowledged by an operator. The first
// acknowledger wins; a second attempt returns a conflict.
func (h *Handlers) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	alertID, ok := requireIDParam(w, r, "alert_id")
	if !ok {
		return
	}

	var req AlertActionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID <= 0 {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	alert, err := h.db.AcknowledgeAlert(r.Context(), alertID, req.UserID)
	if handleDBError(w, err, "alert", alertID) {
		return
	}

	h.broadcastAlertStatus(alert, req.UserID)
	writeJSON(w, http.StatusOK, alert)
}

// ResolveAlert marks an acknowledged alert resolved, storing any operator
// notes with it.
func (h *Handlers) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	alertID, ok := requireIDParam(w, r, "alert_id")
	if !ok {
		return
	}

	var req AlertActionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID <= 0 {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	alert, err := h.db.ResolveAlert(r.Context(), alertID, req.UserID, req.Notes)
	if handleDBError(w, err, "alert", alertID) {
		return
	}

	h.broadcastAlertStatus(alert, req.UserID)
	writeJSON(w, http.StatusOK, alert)
}

// broadcastAlertStatus publishes an alert_update to the alert's location
// topic and the dashboard so live clients see status changes as they happen.
func (h *Handlers) broadcastAlertStatus(alert *models.Alert, userID int64) {
	if h.hub == nil {
		return
	}
	broadcast := events.AlertStatusBroadcast{
		Type:    "alert_update",
		AlertID: alert.ID,
		Status:  alert.Status,
		UserID:  userID,
	}
	h.hub.Publish(realtime.TopicAlerts(alert.LocationID), broadcast)
	h.hub.Publish(realtime.TopicDashboard, events.DashboardUpdate{
		Type:   "dashboard_update",
		Update: broadcast,
	})
}
