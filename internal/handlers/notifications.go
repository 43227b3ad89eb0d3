package handlers

import (
	"net/http"
	"time"
)

// DeliveryReceiptRequest is the payload provider callbacks post when a sent
// notification is confirmed delivered.
type DeliveryReceiptRequest struct {
	NotificationID int64      `json:"notification_id"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
}

// ListAlertNotifications retrieves the delivery log for one alert.
func (h *Handlers) ListAlertNotifications(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	alertID, ok := requireIDParam(w, r, "alert_id")
	if !ok {
		return
	}

	notifications, err := h.db.ListNotificationsForAlert(r.Context(), alertID)
	if handleDBError(w, err, "notification log", alertID) {
		return
	}

	writeJSON(w, http.StatusOK, notifications)
}

// ConfirmNotificationDelivered moves a sent notification to delivered based
// on a provider delivery receipt. Only sent notifications can advance.
func (h *Handlers) ConfirmNotificationDelivered(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req DeliveryReceiptRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.NotificationID <= 0 {
		http.Error(w, "notification_id is required", http.StatusBadRequest)
		return
	}

	deliveredAt := time.Now().UTC()
	if req.DeliveredAt != nil {
		deliveredAt = *req.DeliveredAt
	}

	err := h.db.MarkNotificationDelivered(r.Context(), req.NotificationID, deliveredAt)
	if handleDBError(w, err, "notification log", req.NotificationID) {
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListNotificationHistory retrieves the global delivery log, newest first,
// with pagination.
func (h *Handlers) ListNotificationHistory(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	p := parsePagination(r)
	notifications, err := h.db.ListNotificationHistory(r.Context(), p.Limit, p.Offset)
	if handleDBError(w, err, "notification log", 0) {
		return
	}

	writeJSON(w, http.StatusOK, notifications)
}
