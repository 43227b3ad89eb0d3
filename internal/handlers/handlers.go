// Package handlers provides HTTP handlers for the surveillance alerting API.
package handlers

import (
	"github.com/Wassi1m/app-surveince/internal/database"
	"github.com/Wassi1m/app-surveince/internal/sender"
	"github.com/Wassi1m/app-surveince/pkg/metrics"
)

// Handlers wraps dependencies for HTTP handlers.
type Handlers struct {
	db       Repository
	pipeline DetectionProcessor
	senders  *sender.Registry
	hub      Broadcaster
	metrics  MetricsSource
}

// NewHandlers creates a new handlers instance. hub and metricsReader may be
// nil when realtime broadcast or Redis-backed service metrics are disabled.
func NewHandlers(db *database.DB, pipeline DetectionProcessor, senders *sender.Registry, hub Broadcaster, metricsReader *metrics.Reader) *Handlers {
	h := &Handlers{
		db:       db,
		pipeline: pipeline,
		senders:  senders,
		hub:      hub,
	}
	if metricsReader != nil {
		h.metrics = metricsReader
	}
	return h
}

// NewHandlersWithDeps creates handlers with explicit interface dependencies.
// This constructor is primarily for testing.
func NewHandlersWithDeps(db Repository, pipeline DetectionProcessor, senders *sender.Registry, hub Broadcaster, metricsSource MetricsSource) *Handlers {
	return &Handlers{
		db:       db,
		pipeline: pipeline,
		senders:  senders,
		hub:      hub,
		metrics:  metricsSource,
	}
}
