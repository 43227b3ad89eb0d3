package handlers

import (
	"net/http"
)

// GetLocation retrieves a location by ID.
func (h *Handlers) GetLocation(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	locationID, ok := requireIDParam(w, r, "location_id")
	if !ok {
		return
	}

	location, err := h.db.GetLocation(r.Context(), locationID)
	if handleDBError(w, err, "location", locationID) {
		return
	}

	writeJSON(w, http.StatusOK, location)
}

// ListLocations retrieves all active locations.
func (h *Handlers) ListLocations(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	locations, err := h.db.ListLocations(r.Context())
	if handleDBError(w, err, "location", 0) {
		return
	}

	writeJSON(w, http.StatusOK, locations)
}

// ListCameras retrieves the cameras of one location.
func (h *Handlers) ListCameras(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	locationID, ok := requireIDParam(w, r, "location_id")
	if !ok {
		return
	}

	cameras, err := h.db.ListCamerasForLocation(r.Context(), locationID)
	if handleDBError(w, err, "camera", locationID) {
		return
	}

	writeJSON(w, http.StatusOK, cameras)
}
