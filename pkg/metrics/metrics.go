// Package metrics provides metrics collection and reporting for the
// surveillance pipeline. Components write metrics to Redis for centralized
// access by the monitoring API.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// MetricsKeyPrefix is the Redis key prefix for component metrics.
	MetricsKeyPrefix = "metrics:"
	// MetricsTTL is how long metrics stay in Redis if not refreshed.
	MetricsTTL = 2 * time.Minute
	// DefaultReportInterval is the default interval for writing metrics to Redis.
	DefaultReportInterval = 30 * time.Second
)

// ComponentMetrics holds metrics for a single pipeline component.
type ComponentMetrics struct {
	Component   string    `json:"component"`
	StartedAt   time.Time `json:"started_at"`
	LastUpdated time.Time `json:"last_updated"`
	Status      string    `json:"status"` // "healthy" or "unhealthy"

	// Counters (monotonically increasing since start)
	DetectionsReceived  uint64 `json:"detections_received"`
	DetectionsProcessed uint64 `json:"detections_processed"`
	AlertsCreated       uint64 `json:"alerts_created"`
	NotificationsSent   uint64 `json:"notifications_sent"`
	NotificationsFailed uint64 `json:"notifications_failed"`
	ProcessingErrors    uint64 `json:"processing_errors"`

	// Rates (per report interval)
	DetectionsPerSecond float64 `json:"detections_per_second"`

	// Latencies (averages in nanoseconds)
	AvgProcessingLatencyNs float64 `json:"avg_processing_latency_ns"`

	// Component-specific counters (flexible map)
	CustomCounters map[string]uint64 `json:"custom_counters,omitempty"`
}

// Collector collects and reports metrics for a pipeline component.
type Collector struct {
	component      string
	redis          *redis.Client
	startedAt      time.Time
	reportInterval time.Duration

	// Atomic counters
	detectionsReceived  atomic.Uint64
	detectionsProcessed atomic.Uint64
	alertsCreated       atomic.Uint64
	notificationsSent   atomic.Uint64
	notificationsFailed atomic.Uint64
	processingErrors    atomic.Uint64

	// For rate calculation
	lastReportTime     time.Time
	lastProcessedCount uint64

	// Latency tracking
	totalLatencyNs atomic.Uint64
	latencyCount   atomic.Uint64

	// Custom counters
	customMu       sync.RWMutex
	customCounters map[string]*atomic.Uint64

	// Stop channel
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewCollector creates a new metrics collector for a component.
func NewCollector(component string, redisClient *redis.Client) *Collector {
	return &Collector{
		component:      component,
		redis:          redisClient,
		startedAt:      time.Now().UTC(),
		reportInterval: DefaultReportInterval,
		lastReportTime: time.Now().UTC(),
		customCounters: make(map[string]*atomic.Uint64),
		stopCh:         make(chan struct{}),
	}
}

// SetReportInterval sets the interval for writing metrics to Redis.
func (c *Collector) SetReportInterval(interval time.Duration) {
	c.reportInterval = interval
}

// Start begins the periodic metrics reporting to Redis.
func (c *Collector) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.reportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				c.writeMetrics(context.Background()) // Final write
				return
			case <-c.stopCh:
				c.writeMetrics(context.Background()) // Final write
				return
			case <-ticker.C:
				c.writeMetrics(ctx)
			}
		}
	}()
}

// Stop stops the metrics reporting.
func (c *Collector) Stop() {
	close(c.stopCh)
	c.wg.Wait()
}

// RecordDetectionReceived increments the detections received counter.
func (c *Collector) RecordDetectionReceived() {
	c.detectionsReceived.Add(1)
}

// RecordDetectionProcessed increments the detections processed counter with
// the end-to-end pipeline latency for that detection.
func (c *Collector) RecordDetectionProcessed(latency time.Duration) {
	c.detectionsProcessed.Add(1)
	c.totalLatencyNs.Add(uint64(latency.Nanoseconds()))
	c.latencyCount.Add(1)
}

// RecordAlertCreated increments the alerts created counter.
func (c *Collector) RecordAlertCreated() {
	c.alertsCreated.Add(1)
}

// RecordNotificationSent increments the notifications sent counter.
func (c *Collector) RecordNotificationSent() {
	c.notificationsSent.Add(1)
}

// RecordNotificationFailed increments the notifications failed counter.
func (c *Collector) RecordNotificationFailed() {
	c.notificationsFailed.Add(1)
}

// RecordError increments the processing errors counter.
func (c *Collector) RecordError() {
	c.processingErrors.Add(1)
}

// IncrementCustom increments a custom counter by name.
func (c *Collector) IncrementCustom(name string) {
	c.customMu.RLock()
	counter, exists := c.customCounters[name]
	c.customMu.RUnlock()

	if !exists {
		c.customMu.Lock()
		// Double-check after acquiring write lock
		if counter, exists = c.customCounters[name]; !exists {
			counter = &atomic.Uint64{}
			c.customCounters[name] = counter
		}
		c.customMu.Unlock()
	}
	counter.Add(1)
}

// AddCustom adds a value to a custom counter.
func (c *Collector) AddCustom(name string, value uint64) {
	c.customMu.RLock()
	counter, exists := c.customCounters[name]
	c.customMu.RUnlock()

	if !exists {
		c.customMu.Lock()
		if counter, exists = c.customCounters[name]; !exists {
			counter = &atomic.Uint64{}
			c.customCounters[name] = counter
		}
		c.customMu.Unlock()
	}
	counter.Add(value)
}

// GetSnapshot returns current metrics without writing to Redis.
func (c *Collector) GetSnapshot() *ComponentMetrics {
	now := time.Now().UTC()
	processed := c.detectionsProcessed.Load()

	// Calculate rate
	elapsed := now.Sub(c.lastReportTime).Seconds()
	var rate float64
	if elapsed > 0 {
		rate = float64(processed-c.lastProcessedCount) / elapsed
	}

	// Calculate average latency in nanoseconds
	var avgLatencyNs float64
	latencyCount := c.latencyCount.Load()
	if latencyCount > 0 {
		avgLatencyNs = float64(c.totalLatencyNs.Load()) / float64(latencyCount)
	}

	// Build custom counters map
	c.customMu.RLock()
	customCounters := make(map[string]uint64, len(c.customCounters))
	for name, counter := range c.customCounters {
		customCounters[name] = counter.Load()
	}
	c.customMu.RUnlock()

	return &ComponentMetrics{
		Component:              c.component,
		StartedAt:              c.startedAt,
		LastUpdated:            now,
		Status:                 "healthy",
		DetectionsReceived:     c.detectionsReceived.Load(),
		DetectionsProcessed:    processed,
		AlertsCreated:          c.alertsCreated.Load(),
		NotificationsSent:      c.notificationsSent.Load(),
		NotificationsFailed:    c.notificationsFailed.Load(),
		ProcessingErrors:       c.processingErrors.Load(),
		DetectionsPerSecond:    rate,
		AvgProcessingLatencyNs: avgLatencyNs,
		CustomCounters:         customCounters,
	}
}

// writeMetrics writes current metrics to Redis.
func (c *Collector) writeMetrics(ctx context.Context) {
	if c.redis == nil {
		return
	}

	metrics := c.GetSnapshot()

	// Update rate calculation state
	c.lastReportTime = metrics.LastUpdated
	c.lastProcessedCount = metrics.DetectionsProcessed

	// Note: latency counters are not reset so the all-time average stays
	// visible after burst processing completes.

	data, err := json.Marshal(metrics)
	if err != nil {
		slog.Error("Failed to marshal metrics", "component", c.component, "error", err)
		return
	}

	key := MetricsKeyPrefix + c.component
	if err := c.redis.Set(ctx, key, data, MetricsTTL).Err(); err != nil {
		slog.Error("Failed to write metrics to Redis", "component", c.component, "error", err)
		return
	}

	slog.Debug("Metrics written to Redis", "component", c.component, "key", key)
}

// Reader reads component metrics from Redis.
type Reader struct {
	redis *redis.Client
}

// NewReader creates a new metrics reader.
func NewReader(redisClient *redis.Client) *Reader {
	return &Reader{redis: redisClient}
}

// GetComponentMetrics retrieves metrics for a specific component.
func (r *Reader) GetComponentMetrics(ctx context.Context, component string) (*ComponentMetrics, error) {
	key := MetricsKeyPrefix + component
	data, err := r.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("no metrics found for component: %s", component)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics: %w", err)
	}

	var metrics ComponentMetrics
	if err := json.Unmarshal(data, &metrics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metrics: %w", err)
	}

	// Check if metrics are stale (older than TTL)
	if time.Since(metrics.LastUpdated) > MetricsTTL {
		metrics.Status = "unhealthy"
	}

	return &metrics, nil
}

// GetAllComponentMetrics retrieves metrics for all components.
func (r *Reader) GetAllComponentMetrics(ctx context.Context) (map[string]*ComponentMetrics, error) {
	pattern := MetricsKeyPrefix + "*"
	keys, err := r.redis.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list metrics keys: %w", err)
	}

	result := make(map[string]*ComponentMetrics)
	for _, key := range keys {
		component := key[len(MetricsKeyPrefix):]
		metrics, err := r.GetComponentMetrics(ctx, component)
		if err != nil {
			slog.Warn("Failed to read metrics for component", "component", component, "error", err)
			continue
		}
		result[component] = metrics
	}

	return result, nil
}

// ComponentNames is the list of known pipeline components for the API.
var ComponentNames = []string{
	"pipeline",
	"dispatcher",
	"consumer",
	"api",
}

// ConnectRedis creates and validates a Redis connection.
// Returns the client and nil on success, or nil and an error on failure.
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return client, nil
}
