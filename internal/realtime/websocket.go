package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Wassi1m/app-surveince/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	// Snapshot sent to alert subscribers on connect.
	recentAlertWindow = 24 * time.Hour
	recentAlertLimit  = 50
)

// AlertSnapshotter loads the recent alerts a new subscriber receives on
// connect.
type AlertSnapshotter interface {
	RecentAlertsForLocation(ctx context.Context, locationID int64, since time.Time, limit int) ([]*models.Alert, error)
}

// WebSocketHandler upgrades HTTP connections and bridges them to hub
// subscriptions.
type WebSocketHandler struct {
	hub      *Hub
	store    AlertSnapshotter
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler creates a websocket handler backed by the hub and
// snapshot store.
func NewWebSocketHandler(hub *Hub, store AlertSnapshotter, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:   hub,
		store: store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeAlerts handles GET /ws/alerts?location_id=N. The client receives a
// recent-alerts snapshot on connect, then live alert and detection events for
// the location.
func (h *WebSocketHandler) ServeAlerts(w http.ResponseWriter, r *http.Request) {
	locationID, err := strconv.ParseInt(r.URL.Query().Get("location_id"), 10, 64)
	if err != nil || locationID <= 0 {
		http.Error(w, "valid location_id query parameter is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	sub := h.hub.Subscribe(TopicAlerts(locationID), TopicDetections(locationID))
	h.sendRecentAlerts(r.Context(), conn, locationID)
	h.pump(conn, sub)
}

// ServeDashboard handles GET /ws/dashboard, a firehose of all alert activity.
func (h *WebSocketHandler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	sub := h.hub.Subscribe(TopicDashboard)
	h.pump(conn, sub)
}

// ServeNotifications handles GET /ws/notifications?user_id=N, the per-user
// push notification stream.
func (h *WebSocketHandler) ServeNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "valid user_id query parameter is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	sub := h.hub.Subscribe(TopicNotifications(userID))
	h.pump(conn, sub)
}

// sendRecentAlerts writes the on-connect snapshot of the location's alerts
// from the last day, capped so a busy site cannot flood a fresh client.
func (h *WebSocketHandler) sendRecentAlerts(ctx context.Context, conn *websocket.Conn, locationID int64) {
	since := time.Now().Add(-recentAlertWindow)
	alerts, err := h.store.RecentAlertsForLocation(ctx, locationID, since, recentAlertLimit)
	if err != nil {
		h.logger.Error("failed to load recent alerts snapshot",
			"error", err,
			"location_id", locationID)
		return
	}

	snapshot, err := json.Marshal(Envelope{
		Topic: TopicAlerts(locationID),
		Data: map[string]any{
			"type":   "recent_alerts",
			"alerts": alerts,
		},
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		h.logger.Error("failed to marshal recent alerts snapshot", "error", err)
		return
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, snapshot); err != nil {
		h.logger.Warn("failed to write recent alerts snapshot", "error", err)
	}
}

// pump runs the read and write loops for one connection. It returns when the
// client disconnects, cleaning up the subscription.
func (h *WebSocketHandler) pump(conn *websocket.Conn, sub *Subscriber) {
	done := make(chan struct{})

	// Read loop: the client sends nothing we act on, but reads detect
	// disconnects and answer pings.
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.hub.Unsubscribe(sub)
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-sub.Receive():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
