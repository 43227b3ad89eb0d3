package handlers

import (
	"net/http"

	"github.com/Wassi1m/app-surveince/internal/models"
)

// ToggleRuleRequest toggles a rule's active flag.
type ToggleRuleRequest struct {
	IsActive bool `json:"is_active"`
}

// CreateRule creates a new alert rule.
func (h *Handlers) CreateRule(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var rule models.AlertRule
	if !decodeJSON(w, r, &rule) {
		return
	}

	if !validateRuleFields(w, &rule) {
		return
	}
	if !validateRuleConditions(w, &rule) {
		return
	}

	created, err := h.db.CreateRule(r.Context(), &rule)
	if handleDBError(w, err, "rule", rule.LocationID) {
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// GetRule retrieves a rule by ID.
func (h *Handlers) GetRule(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	ruleID, ok := requireIDParam(w, r, "rule_id")
	if !ok {
		return
	}

	rule, err := h.db.GetRule(r.Context(), ruleID)
	if handleDBError(w, err, "rule", ruleID) {
		return
	}

	writeJSON(w, http.StatusOK, rule)
}

// ListRules retrieves rules, optionally filtered by location_id.
func (h *Handlers) ListRules(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	ruleSet, err := h.db.ListRules(r.Context(), optionalIDParam(r, "location_id"))
	if handleDBError(w, err, "rule", 0) {
		return
	}

	writeJSON(w, http.StatusOK, ruleSet)
}

// UpdateRule replaces a rule's definition.
func (h *Handlers) UpdateRule(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPut) {
		return
	}

	ruleID, ok := requireIDParam(w, r, "rule_id")
	if !ok {
		return
	}

	var rule models.AlertRule
	if !decodeJSON(w, r, &rule) {
		return
	}
	rule.ID = ruleID

	if !validateRuleFields(w, &rule) {
		return
	}
	if !validateRuleConditions(w, &rule) {
		return
	}

	updated, err := h.db.UpdateRule(r.Context(), &rule)
	if handleDBError(w, err, "rule", ruleID) {
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// ToggleRule enables or disables a rule without touching its definition.
func (h *Handlers) ToggleRule(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	ruleID, ok := requireIDParam(w, r, "rule_id")
	if !ok {
		return
	}

	var req ToggleRuleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rule, err := h.db.GetRule(r.Context(), ruleID)
	if handleDBError(w, err, "rule", ruleID) {
		return
	}

	rule.IsActive = req.IsActive
	updated, err := h.db.UpdateRule(r.Context(), rule)
	if handleDBError(w, err, "rule", ruleID) {
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeleteRule deletes a rule.
func (h *Handlers) DeleteRule(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodDelete) {
		return
	}

	ruleID, ok := requireIDParam(w, r, "rule_id")
	if !ok {
		return
	}

	if err := h.db.DeleteRule(r.Context(), ruleID); handleDBError(w, err, "rule", ruleID) {
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
