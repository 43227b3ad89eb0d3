package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Wassi1m/app-surveince/internal/database"
	"github.com/Wassi1m/app-surveince/internal/events"
	"github.com/Wassi1m/app-surveince/internal/models"
	"github.com/Wassi1m/app-surveince/internal/pipeline"
	"github.com/Wassi1m/app-surveince/internal/sender"
)

func newTestHandlers(repo *mockRepository, pipe *mockPipeline) *Handlers {
	if repo == nil {
		repo = &mockRepository{}
	}
	if pipe == nil {
		pipe = &mockPipeline{}
	}
	return NewHandlersWithDeps(repo, pipe, sender.NewRegistry(), nil, &mockMetricsSource{})
}

func newTestHandlersWithHub(repo *mockRepository, hub *mockBroadcaster) *Handlers {
	if repo == nil {
		repo = &mockRepository{}
	}
	return NewHandlersWithDeps(repo, &mockPipeline{}, sender.NewRegistry(), hub, &mockMetricsSource{})
}

func TestHandlers_IngestDetection(t *testing.T) {
	var got *events.DetectionMessage
	pipe := &mockPipeline{
		ProcessDetectionFn: func(ctx context.Context, msg *events.DetectionMessage) (*models.DetectionEvent, []*models.Alert, error) {
			got = msg
			return &models.DetectionEvent{ID: 7, EventType: msg.EventType},
				[]*models.Alert{{ID: 3, Title: "Theft - Gate 1"}}, nil
		},
	}
	h := newTestHandlers(nil, pipe)

	body := `{"camera_id":1,"zone_id":2,"event_type":"theft","severity":"critical","confidence":0.9}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/detections", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.IngestDetection(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	if got == nil || got.EventType != models.EventTheft {
		t.Errorf("pipeline received %+v, want theft message", got)
	}

	var resp IngestResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Detection.ID != 7 || len(resp.Alerts) != 1 {
		t.Errorf("response = %+v, want detection 7 with 1 alert", resp)
	}
}

func TestHandlers_IngestDetectionRejectsInvalidPayload(t *testing.T) {
	pipe := &mockPipeline{
		ProcessDetectionFn: func(ctx context.Context, msg *events.DetectionMessage) (*models.DetectionEvent, []*models.Alert, error) {
			return nil, nil, fmt.Errorf("%w: camera_id is required", pipeline.ErrInvalidDetection)
		},
	}
	h := newTestHandlers(nil, pipe)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/detections", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	h.IngestDetection(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandlers_IngestDetectionStoreFailureIsServerError(t *testing.T) {
	pipe := &mockPipeline{
		ProcessDetectionFn: func(ctx context.Context, msg *events.DetectionMessage) (*models.DetectionEvent, []*models.Alert, error) {
			return nil, nil, fmt.Errorf("failed to persist detection: connection refused")
		},
	}
	h := newTestHandlers(nil, pipe)

	body := `{"camera_id":1,"zone_id":2,"event_type":"theft","severity":"critical","confidence":0.9}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/detections", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.IngestDetection(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestHandlers_IngestDetectionRejectsWrongMethod(t *testing.T) {
	h := newTestHandlers(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/detections", nil)
	w := httptest.NewRecorder()
	h.IngestDetection(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}

func TestHandlers_CreateRule(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "valid detection_type rule",
			body:       `{"name":"Theft watch","location_id":1,"trigger_type":"detection_type","trigger_conditions":{"event_types":["theft"]}}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing name",
			body:       `{"location_id":1,"trigger_type":"detection_type","trigger_conditions":{"event_types":["theft"]}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown trigger type",
			body:       `{"name":"x","location_id":1,"trigger_type":"moon_phase"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "detection_type without event_types",
			body:       `{"name":"x","location_id":1,"trigger_type":"detection_type"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "severity_level with bad severity",
			body:       `{"name":"x","location_id":1,"trigger_type":"severity_level","trigger_conditions":{"min_severity":"extreme"}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "time_window with out-of-range hour",
			body:       `{"name":"x","location_id":1,"trigger_type":"time_window","trigger_conditions":{"time_windows":[{"start":22,"end":25}]}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative cooldown",
			body:       `{"name":"x","location_id":1,"trigger_type":"detection_type","trigger_conditions":{"event_types":["theft"]},"cooldown_minutes":-5}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandlers(nil, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/rules", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.CreateRule(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestHandlers_GetRuleNotFound(t *testing.T) {
	repo := &mockRepository{
		GetRuleFn: func(ctx context.Context, ruleID int64) (*models.AlertRule, error) {
			return nil, fmt.Errorf("rule %d: %w", ruleID, database.ErrNotFound)
		},
	}
	h := newTestHandlers(repo, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rules?rule_id=42", nil)
	w := httptest.NewRecorder()
	h.GetRule(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestHandlers_GetRuleRequiresID(t *testing.T) {
	h := newTestHandlers(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/rules", nil)
	w := httptest.NewRecorder()
	h.GetRule(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandlers_AcknowledgeAlert(t *testing.T) {
	var gotAlert, gotUser int64
	repo := &mockRepository{
		AcknowledgeAlertFn: func(ctx context.Context, alertID, userID int64) (*models.Alert, error) {
			gotAlert, gotUser = alertID, userID
			return &models.Alert{ID: alertID, Status: models.AlertAcknowledged, AcknowledgedBy: &userID}, nil
		},
	}
	h := newTestHandlers(repo, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/acknowledge?alert_id=5", strings.NewReader(`{"user_id":9}`))
	w := httptest.NewRecorder()
	h.AcknowledgeAlert(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if gotAlert != 5 || gotUser != 9 {
		t.Errorf("acknowledged (%d,%d), want (5,9)", gotAlert, gotUser)
	}
}

func TestHandlers_AcknowledgeAlertConflict(t *testing.T) {
	repo := &mockRepository{
		AcknowledgeAlertFn: func(ctx context.Context, alertID, userID int64) (*models.Alert, error) {
			return nil, fmt.Errorf("alert %d already acknowledged: %w", alertID, database.ErrConflict)
		},
	}
	h := newTestHandlers(repo, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/acknowledge?alert_id=5", strings.NewReader(`{"user_id":9}`))
	w := httptest.NewRecorder()
	h.AcknowledgeAlert(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestHandlers_ResolveAlertRequiresUser(t *testing.T) {
	h := newTestHandlers(nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/resolve?alert_id=5", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	h.ResolveAlert(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandlers_ListAlertsFilters(t *testing.T) {
	var got database.AlertFilter
	repo := &mockRepository{
		ListAlertsFn: func(ctx context.Context, filter database.AlertFilter) ([]*models.Alert, error) {
			got = filter
			return []*models.Alert{}, nil
		},
	}
	h := newTestHandlers(repo, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts?location_id=3&status=pending&priority=high&limit=10", nil)
	w := httptest.NewRecorder()
	h.ListAlerts(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got.LocationID == nil || *got.LocationID != 3 {
		t.Errorf("LocationID = %v, want 3", got.LocationID)
	}
	if got.Status == nil || *got.Status != models.AlertPending {
		t.Errorf("Status = %v, want pending", got.Status)
	}
	if got.Priority == nil || *got.Priority != models.PriorityHigh {
		t.Errorf("Priority = %v, want high", got.Priority)
	}
	if got.Limit != 10 {
		t.Errorf("Limit = %d, want 10", got.Limit)
	}
}

func TestHandlers_ListAlertsRejectsUnknownPriority(t *testing.T) {
	h := newTestHandlers(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts?priority=urgent", nil)
	w := httptest.NewRecorder()
	h.ListAlerts(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandlers_CreateChannelValidation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "valid email channel",
			body:       `{"name":"Ops email","channel_type":"email"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "webhook without url",
			body:       `{"name":"Ops hook","channel_type":"webhook"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown channel type",
			body:       `{"name":"Pager","channel_type":"pager"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandlers(nil, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/channels", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.CreateChannel(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestHandlers_TestChannelNoSenderRegistered(t *testing.T) {
	h := newTestHandlers(nil, nil)

	body, _ := json.Marshal(TestChannelRequest{ChannelID: 1, Recipient: "ops@example.com"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/channels/test", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.TestChannel(w, req)

	// Registry is empty in this test setup, so the webhook channel has no sender.
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d: %s", w.Code, http.StatusBadRequest, w.Body.String())
	}
}

func TestHandlers_VerifyDetection(t *testing.T) {
	var gotEvent, gotReviewer int64
	var gotFalsePositive bool
	repo := &mockRepository{
		VerifyDetectionFn: func(ctx context.Context, eventID, reviewerID int64, falsePositive bool) (*models.DetectionEvent, error) {
			gotEvent, gotReviewer, gotFalsePositive = eventID, reviewerID, falsePositive
			return &models.DetectionEvent{ID: eventID, IsVerified: true, FalsePositive: falsePositive}, nil
		},
	}
	h := newTestHandlers(repo, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/detections/verify?detection_id=11", strings.NewReader(`{"reviewer_id":2,"false_positive":true}`))
	w := httptest.NewRecorder()
	h.VerifyDetection(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if gotEvent != 11 || gotReviewer != 2 || !gotFalsePositive {
		t.Errorf("verify call = (%d,%d,%v), want (11,2,true)", gotEvent, gotReviewer, gotFalsePositive)
	}
}

func TestHandlers_ListNotificationHistoryPagination(t *testing.T) {
	var gotLimit, gotOffset int
	repo := &mockRepository{
		ListNotificationHistoryFn: func(ctx context.Context, limit, offset int) ([]*models.NotificationLog, error) {
			gotLimit, gotOffset = limit, offset
			return []*models.NotificationLog{}, nil
		},
	}
	h := newTestHandlers(repo, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications?limit=500&offset=20", nil)
	w := httptest.NewRecorder()
	h.ListNotificationHistory(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	// limit is capped at maxPageLimit
	if gotLimit != maxPageLimit || gotOffset != 20 {
		t.Errorf("pagination = (%d,%d), want (%d,20)", gotLimit, gotOffset, maxPageLimit)
	}
}

func TestHandlers_GetServiceMetrics(t *testing.T) {
	h := newTestHandlers(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/services/metrics", nil)
	w := httptest.NewRecorder()
	h.GetServiceMetrics(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp ComponentMetricsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// Known components absent from Redis are reported offline.
	for _, name := range resp.KnownComponents {
		component, ok := resp.Components[name]
		if !ok {
			t.Errorf("component %q missing from response", name)
			continue
		}
		if component.Status != "offline" {
			t.Errorf("component %q status = %q, want offline", name, component.Status)
		}
	}
}

func TestHandlers_ConfirmNotificationDelivered(t *testing.T) {
	var gotID int64
	var gotAt time.Time
	repo := &mockRepository{
		MarkNotificationDeliveredFn: func(ctx context.Context, notificationID int64, at time.Time) error {
			gotID, gotAt = notificationID, at
			return nil
		},
	}
	h := newTestHandlers(repo, nil)

	deliveredAt := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	body := fmt.Sprintf(`{"notification_id":7,"delivered_at":%q}`, deliveredAt.Format(time.RFC3339))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/delivered", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ConfirmNotificationDelivered(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusNoContent, w.Body.String())
	}
	if gotID != 7 {
		t.Errorf("notification ID = %d, want 7", gotID)
	}
	if !gotAt.Equal(deliveredAt) {
		t.Errorf("delivered_at = %v, want %v", gotAt, deliveredAt)
	}
}

func TestHandlers_ConfirmNotificationDeliveredRequiresID(t *testing.T) {
	h := newTestHandlers(nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/delivered", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	h.ConfirmNotificationDelivered(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandlers_ConfirmNotificationDeliveredNotSent(t *testing.T) {
	repo := &mockRepository{
		MarkNotificationDeliveredFn: func(ctx context.Context, notificationID int64, at time.Time) error {
			return fmt.Errorf("notification %d: %w", notificationID, database.ErrNotFound)
		},
	}
	h := newTestHandlers(repo, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/delivered", strings.NewReader(`{"notification_id":7}`))
	w := httptest.NewRecorder()
	h.ConfirmNotificationDelivered(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestHandlers_ResolveAlertPassesNotes(t *testing.T) {
	var gotNotes string
	repo := &mockRepository{
		ResolveAlertFn: func(ctx context.Context, alertID, userID int64, notes string) (*models.Alert, error) {
			gotNotes = notes
			return &models.Alert{ID: alertID, Status: models.AlertResolved, ResolvedBy: &userID,
				Metadata: models.AlertMetadata{ResolutionNotes: notes}}, nil
		},
	}
	h := newTestHandlers(repo, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/resolve?alert_id=5",
		strings.NewReader(`{"user_id":9,"notes":"false alarm, contractor on site"}`))
	w := httptest.NewRecorder()
	h.ResolveAlert(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if gotNotes != "false alarm, contractor on site" {
		t.Errorf("notes = %q, want operator notes passed through", gotNotes)
	}
}

func TestHandlers_AlertActionsBroadcastStatusUpdate(t *testing.T) {
	repo := &mockRepository{
		AcknowledgeAlertFn: func(ctx context.Context, alertID, userID int64) (*models.Alert, error) {
			return &models.Alert{ID: alertID, LocationID: 3, Status: models.AlertAcknowledged}, nil
		},
		ResolveAlertFn: func(ctx context.Context, alertID, userID int64, notes string) (*models.Alert, error) {
			return &models.Alert{ID: alertID, LocationID: 3, Status: models.AlertResolved}, nil
		},
	}
	hub := newMockBroadcaster()
	h := newTestHandlersWithHub(repo, hub)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/acknowledge?alert_id=5", strings.NewReader(`{"user_id":9}`))
	h.AcknowledgeAlert(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/alerts/resolve?alert_id=5", strings.NewReader(`{"user_id":9}`))
	h.ResolveAlert(httptest.NewRecorder(), req)

	published := hub.published("alerts:3")
	if len(published) != 2 {
		t.Fatalf("alerts:3 messages = %d, want 2", len(published))
	}
	first, ok := published[0].(events.AlertStatusBroadcast)
	if !ok {
		t.Fatalf("published[0] = %T, want AlertStatusBroadcast", published[0])
	}
	if first.Type != "alert_update" || first.Status != models.AlertAcknowledged || first.AlertID != 5 || first.UserID != 9 {
		t.Errorf("broadcast = %+v, want alert_update for acknowledged alert 5 by user 9", first)
	}
	second := published[1].(events.AlertStatusBroadcast)
	if second.Status != models.AlertResolved {
		t.Errorf("second broadcast status = %v, want resolved", second.Status)
	}
	if got := len(hub.published("dashboard")); got != 2 {
		t.Errorf("dashboard messages = %d, want 2", got)
	}
}
