package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Wassi1m/app-surveince/internal/database"
	"github.com/Wassi1m/app-surveince/internal/events"
	"github.com/Wassi1m/app-surveince/internal/models"
	"github.com/Wassi1m/app-surveince/internal/pipeline"
)

// IngestResponse is returned by the detection ingest endpoint.
type IngestResponse struct {
	Detection *models.DetectionEvent `json:"detection"`
	Alerts    []*models.Alert        `json:"alerts"`
}

// VerifyDetectionRequest flags a detection as reviewed by a human operator.
type VerifyDetectionRequest struct {
	ReviewerID    int64 `json:"reviewer_id"`
	FalsePositive bool  `json:"false_positive"`
}

// IngestDetection accepts a detection event over HTTP and runs it through
// the full pipeline: persist, evaluate rules, create alerts, dispatch
// notifications. This is the synchronous twin of the Kafka consumer path.
func (h *Handlers) IngestDetection(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var msg events.DetectionMessage
	if !decodeJSON(w, r, &msg) {
		return
	}

	detection, raised, err := h.pipeline.ProcessDetection(r.Context(), &msg)
	if err != nil {
		if errors.Is(err, pipeline.ErrInvalidDetection) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "failed to process detection: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if raised == nil {
		raised = []*models.Alert{}
	}
	writeJSON(w, http.StatusCreated, IngestResponse{Detection: detection, Alerts: raised})
}

// GetDetection retrieves a detection event by ID.
func (h *Handlers) GetDetection(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	eventID, ok := requireIDParam(w, r, "detection_id")
	if !ok {
		return
	}

	detection, err := h.db.GetDetection(r.Context(), eventID)
	if handleDBError(w, err, "detection", eventID) {
		return
	}

	writeJSON(w, http.StatusOK, detection)
}

// ListDetections retrieves detection events with optional filters.
// Query params: location_id, camera_id, event_type, severity, since (RFC3339),
// limit, offset.
func (h *Handlers) ListDetections(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	p := parsePagination(r)
	filter := database.DetectionFilter{
		LocationID: optionalIDParam(r, "location_id"),
		CameraID:   optionalIDParam(r, "camera_id"),
		Limit:      p.Limit,
		Offset:     p.Offset,
	}

	if v := r.URL.Query().Get("event_type"); v != "" {
		et := models.EventType(v)
		if !et.Valid() {
			http.Error(w, "unknown event_type", http.StatusBadRequest)
			return
		}
		filter.EventType = &et
	}
	if v := r.URL.Query().Get("severity"); v != "" {
		sev := models.Severity(v)
		if !sev.Valid() {
			http.Error(w, "unknown severity", http.StatusBadRequest)
			return
		}
		filter.Severity = &sev
	}
	if v := r.URL.Query().Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "since must be an RFC3339 timestamp", http.StatusBadRequest)
			return
		}
		filter.Since = &since
	}

	detections, err := h.db.ListDetections(r.Context(), filter)
	if handleDBError(w, err, "detection", 0) {
		return
	}

	writeJSON(w, http.StatusOK, detections)
}

// VerifyDetection records a human review of a detection. Setting
// false_positive clears the verified flag's trust without deleting the event
// or retracting alerts already raised from it.
func (h *Handlers) VerifyDetection(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	eventID, ok := requireIDParam(w, r, "detection_id")
	if !ok {
		return
	}

	var req VerifyDetectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ReviewerID <= 0 {
		http.Error(w, "reviewer_id is required", http.StatusBadRequest)
		return
	}

	detection, err := h.db.VerifyDetection(r.Context(), eventID, req.ReviewerID, req.FalsePositive)
	if handleDBError(w, err, "detection", eventID) {
		return
	}

	writeJSON(w, http.StatusOK, detection)
}
