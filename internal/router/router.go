// Package router provides HTTP routing configuration for the alerting API.
// It sets up routes and applies middleware like CORS and metrics tracking.
package router

import (
	"net/http"

	"github.com/Wassi1m/app-surveince/internal/handlers"
	"github.com/Wassi1m/app-surveince/internal/realtime"
	"github.com/Wassi1m/app-surveince/pkg/metrics"
)

// Router wraps the HTTP mux and provides route configuration.
type Router struct {
	mux       *http.ServeMux
	handlers  *handlers.Handlers
	ws        *realtime.WebSocketHandler
	collector *metrics.Collector
}

// NewRouter creates a new router with all routes configured. ws and collector
// may be nil; the matching routes and middleware are then skipped.
func NewRouter(h *handlers.Handlers, ws *realtime.WebSocketHandler, collector *metrics.Collector) *Router {
	r := &Router{
		mux:       http.NewServeMux(),
		handlers:  h,
		ws:        ws,
		collector: collector,
	}
	r.setupRoutes()
	return r
}

// Handler returns the HTTP handler with middleware applied.
func (r *Router) Handler() http.Handler {
	return corsMiddleware(metricsMiddleware(r.collector)(r.mux))
}
