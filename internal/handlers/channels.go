package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Wassi1m/app-surveince/internal/alerts"
	"github.com/Wassi1m/app-surveince/internal/models"
)

const testSendTimeout = 15 * time.Second

// TestChannelRequest asks for a test notification through one channel.
type TestChannelRequest struct {
	ChannelID int64  `json:"channel_id"`
	Recipient string `json:"recipient"`
}

// TestChannelResponse reports the outcome of a test notification.
type TestChannelResponse struct {
	Success    bool   `json:"success"`
	ExternalID string `json:"external_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CreateChannel creates a notification channel.
func (h *Handlers) CreateChannel(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var channel models.NotificationChannel
	if !decodeJSON(w, r, &channel) {
		return
	}

	if !validateChannelFields(w, &channel) {
		return
	}

	created, err := h.db.CreateChannel(r.Context(), &channel)
	if handleDBError(w, err, "channel", 0) {
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// GetChannel retrieves a channel by ID.
func (h *Handlers) GetChannel(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	channelID, ok := requireIDParam(w, r, "channel_id")
	if !ok {
		return
	}

	channel, err := h.db.GetChannel(r.Context(), channelID)
	if handleDBError(w, err, "channel", channelID) {
		return
	}

	writeJSON(w, http.StatusOK, channel)
}

// ListChannels retrieves all notification channels.
func (h *Handlers) ListChannels(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	channels, err := h.db.ListChannels(r.Context())
	if handleDBError(w, err, "channel", 0) {
		return
	}

	writeJSON(w, http.StatusOK, channels)
}

// UpdateChannel replaces a channel's configuration.
func (h *Handlers) UpdateChannel(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPut) {
		return
	}

	channelID, ok := requireIDParam(w, r, "channel_id")
	if !ok {
		return
	}

	var channel models.NotificationChannel
	if !decodeJSON(w, r, &channel) {
		return
	}
	channel.ID = channelID

	if !validateChannelFields(w, &channel) {
		return
	}

	updated, err := h.db.UpdateChannel(r.Context(), &channel)
	if handleDBError(w, err, "channel", channelID) {
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeleteChannel deletes a channel.
func (h *Handlers) DeleteChannel(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodDelete) {
		return
	}

	channelID, ok := requireIDParam(w, r, "channel_id")
	if !ok {
		return
	}

	if err := h.db.DeleteChannel(r.Context(), channelID); handleDBError(w, err, "channel", channelID) {
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// TestChannel sends a fixed test alert through one channel so operators can
// verify its configuration end to end. The delivery is not logged against any
// real alert.
func (h *Handlers) TestChannel(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req TestChannelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ChannelID <= 0 {
		http.Error(w, "channel_id is required", http.StatusBadRequest)
		return
	}

	channel, err := h.db.GetChannel(r.Context(), req.ChannelID)
	if handleDBError(w, err, "channel", req.ChannelID) {
		return
	}

	s, ok := h.senders.Get(channel.ChannelType)
	if !ok {
		http.Error(w, "no sender registered for channel type "+string(channel.ChannelType), http.StatusBadRequest)
		return
	}

	alert := alerts.NewBuilder().
		WithTitle("Test notification - " + channel.Name).
		Build()

	recipient := &models.AlertRecipient{
		IsActive: true,
		User: models.User{
			Username: "channel-test",
			Email:    req.Recipient,
			Phone:    req.Recipient,
		},
	}

	ctx, cancel := context.WithTimeout(r.Context(), testSendTimeout)
	defer cancel()

	result, err := s.Send(ctx, channel, alert, recipient)
	if err != nil {
		writeJSON(w, http.StatusOK, TestChannelResponse{Success: false, Error: err.Error()})
		return
	}

	resp := TestChannelResponse{Success: true}
	if result != nil {
		resp.ExternalID = result.ExternalID
	}
	writeJSON(w, http.StatusOK, resp)
}
