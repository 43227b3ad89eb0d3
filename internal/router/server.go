// Package router provides HTTP routing configuration for the alerting API.
package router

import (
	"net/http"
	"time"

	"github.com/Wassi1m/app-surveince/internal/handlers"
	"github.com/Wassi1m/app-surveince/internal/realtime"
	"github.com/Wassi1m/app-surveince/pkg/metrics"
)

// NewServer creates a new HTTP server with the router configured.
// WriteTimeout is left unset so websocket connections are not cut off.
func NewServer(port string, h *handlers.Handlers, ws *realtime.WebSocketHandler, collector *metrics.Collector) *http.Server {
	router := NewRouter(h, ws, collector)
	return &http.Server{
		Addr:        ":" + port,
		Handler:     router.Handler(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
}
