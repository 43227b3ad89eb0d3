package handlers

import (
	"net/http"

	"github.com/Wassi1m/app-surveince/internal/models"
)

// CreateRecipientRequest creates a recipient with its channel subscriptions.
type CreateRecipientRequest struct {
	Recipient  models.AlertRecipient `json:"recipient"`
	ChannelIDs []int64               `json:"channel_ids"`
}

// GetRecipient retrieves a recipient by ID.
func (h *Handlers) GetRecipient(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	recipientID, ok := requireIDParam(w, r, "recipient_id")
	if !ok {
		return
	}

	recipient, err := h.db.GetRecipient(r.Context(), recipientID)
	if handleDBError(w, err, "recipient", recipientID) {
		return
	}

	writeJSON(w, http.StatusOK, recipient)
}

// ListRecipients retrieves recipients, optionally filtered by location_id.
func (h *Handlers) ListRecipients(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	recipients, err := h.db.ListRecipients(r.Context(), optionalIDParam(r, "location_id"))
	if handleDBError(w, err, "recipient", 0) {
		return
	}

	writeJSON(w, http.StatusOK, recipients)
}

// CreateRecipient creates a recipient and subscribes it to channels.
func (h *Handlers) CreateRecipient(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req CreateRecipientRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Recipient.UserID <= 0 {
		http.Error(w, "recipient.user_id is required", http.StatusBadRequest)
		return
	}
	if req.Recipient.LocationID <= 0 {
		http.Error(w, "recipient.location_id is required", http.StatusBadRequest)
		return
	}
	for _, p := range req.Recipient.PriorityFilter {
		if !p.Valid() {
			http.Error(w, "priority_filter entries must be one of: low, medium, high, critical", http.StatusBadRequest)
			return
		}
	}

	created, err := h.db.CreateRecipient(r.Context(), &req.Recipient, req.ChannelIDs)
	if handleDBError(w, err, "recipient", req.Recipient.UserID) {
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// DeleteRecipient deletes a recipient and its channel subscriptions.
func (h *Handlers) DeleteRecipient(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodDelete) {
		return
	}

	recipientID, ok := requireIDParam(w, r, "recipient_id")
	if !ok {
		return
	}

	if err := h.db.DeleteRecipient(r.Context(), recipientID); handleDBError(w, err, "recipient", recipientID) {
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
