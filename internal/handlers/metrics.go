package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Wassi1m/app-surveince/pkg/metrics"
)

// ComponentMetricsResponse wraps component metrics with the known component
// list so dashboards can render offline components too.
type ComponentMetricsResponse struct {
	Components      map[string]*metrics.ComponentMetrics `json:"components"`
	KnownComponents []string                             `json:"known_components"`
}

// GetServiceMetrics returns pipeline component metrics from Redis.
// GET /api/v1/services/metrics
func (h *Handlers) GetServiceMetrics(w http.ResponseWriter, r *http.Request) {
	if h.metrics == nil {
		http.Error(w, "service metrics are not enabled", http.StatusServiceUnavailable)
		return
	}

	ctx := r.Context()

	component := r.URL.Query().Get("component")
	if component != "" {
		componentMetrics, err := h.metrics.GetComponentMetrics(ctx, component)
		if err != nil {
			slog.Warn("Failed to get component metrics", "component", component, "error", err)
			componentMetrics = &metrics.ComponentMetrics{
				Component: component,
				Status:    "offline",
			}
		}
		writeJSON(w, http.StatusOK, componentMetrics)
		return
	}

	allMetrics, err := h.metrics.GetAllComponentMetrics(ctx)
	if err != nil {
		slog.Error("Failed to get all component metrics", "error", err)
		http.Error(w, "Failed to retrieve component metrics", http.StatusInternalServerError)
		return
	}

	// Include known components that might be offline
	for _, name := range metrics.ComponentNames {
		if _, exists := allMetrics[name]; !exists {
			allMetrics[name] = &metrics.ComponentMetrics{
				Component: name,
				Status:    "offline",
			}
		}
	}

	writeJSON(w, http.StatusOK, ComponentMetricsResponse{
		Components:      allMetrics,
		KnownComponents: metrics.ComponentNames,
	})
}
