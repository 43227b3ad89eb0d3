// Package realtime provides topic-scoped broadcast of pipeline events to
// connected dashboard clients.
package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Topic names. Location and user scoped topics are built with the helpers
// below.
const TopicDashboard = "dashboard"

// TopicAlerts returns the alert topic for a location.
func TopicAlerts(locationID int64) string {
	return fmt.Sprintf("alerts:%d", locationID)
}

// TopicDetections returns the detection topic for a location.
func TopicDetections(locationID int64) string {
	return fmt.Sprintf("detections:%d", locationID)
}

// TopicNotifications returns the notification topic for a user.
func TopicNotifications(userID int64) string {
	return fmt.Sprintf("notifications:%d", userID)
}

// Envelope is the wire format delivered to subscribers.
type Envelope struct {
	Topic     string `json:"topic"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

// Subscriber is one consumer of hub messages. Messages arrive on the channel
// returned by Receive; a subscriber that stops draining loses messages rather
// than stalling the pipeline.
type Subscriber struct {
	ID     string
	topics []string
	send   chan []byte
}

// Receive returns the subscriber's message channel. It is closed on
// Unsubscribe.
func (s *Subscriber) Receive() <-chan []byte {
	return s.send
}

// Topics returns the topics the subscriber is bound to.
func (s *Subscriber) Topics() []string {
	return s.topics
}

// Hub routes published messages to topic subscribers. Publishing never
// blocks: a subscriber whose buffer is full has the message dropped.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscriber]struct{}
	buffer int
	logger *slog.Logger
	closed bool
}

// NewHub creates a hub whose subscribers buffer up to buffer messages each.
func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		topics: make(map[string]map[*Subscriber]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe registers a new subscriber on the given topics.
func (h *Hub) Subscribe(topics ...string) *Subscriber {
	sub := &Subscriber{
		ID:     uuid.NewString(),
		topics: topics,
		send:   make(chan []byte, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.send)
		return sub
	}
	for _, topic := range topics {
		if h.topics[topic] == nil {
			h.topics[topic] = make(map[*Subscriber]struct{})
		}
		h.topics[topic][sub] = struct{}{}
	}

	h.logger.Debug("subscriber registered", "subscriber_id", sub.ID, "topics", topics)
	return sub
}

// Unsubscribe removes the subscriber from all its topics and closes its
// channel. Safe to call more than once.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	removed := false
	for _, topic := range sub.topics {
		if subs, ok := h.topics[topic]; ok {
			if _, present := subs[sub]; present {
				delete(subs, sub)
				removed = true
			}
			if len(subs) == 0 {
				delete(h.topics, topic)
			}
		}
	}
	if removed {
		close(sub.send)
		h.logger.Debug("subscriber removed", "subscriber_id", sub.ID)
	}
}

// Publish sends a message to every subscriber of the topic. Slow subscribers
// are skipped, not waited for.
func (h *Hub) Publish(topic string, message any) {
	data, err := json.Marshal(Envelope{
		Topic:     topic,
		Data:      message,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		h.logger.Error("failed to marshal broadcast message", "error", err, "topic", topic)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	for sub := range h.topics[topic] {
		select {
		case sub.send <- data:
		default:
			h.logger.Warn("dropping message for slow subscriber",
				"subscriber_id", sub.ID,
				"topic", topic)
		}
	}
}

// SubscriberCount returns the number of subscribers on a topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Close shuts down the hub and closes all subscriber channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true

	seen := make(map[*Subscriber]struct{})
	for _, subs := range h.topics {
		for sub := range subs {
			if _, done := seen[sub]; !done {
				close(sub.send)
				seen[sub] = struct{}{}
			}
		}
	}
	h.topics = make(map[string]map[*Subscriber]struct{})
	h.logger.Info("realtime hub closed")
}
