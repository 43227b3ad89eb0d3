package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Wassi1m/app-surveince/internal/models"
)

const alertColumns = `a.id, a.detection_event_id, a.alert_rule_id, a.title, a.message,
	a.priority, a.status, a.created_at, a.sent_at, a.acknowledged_at, a.acknowledged_by,
	a.resolved_at, a.resolved_by, a.metadata, r.name, c.location_id`

const alertJoins = `
	FROM alerts a
	JOIN alert_rules r ON r.id = a.alert_rule_id
	JOIN detection_events d ON d.id = a.detection_event_id
	JOIN cameras c ON c.id = d.camera_id`

func scanAlert(row interface{ Scan(...any) error }) (*models.Alert, error) {
	var alert models.Alert
	var metadata []byte
	var sentAt, acknowledgedAt, resolvedAt sql.NullTime
	var acknowledgedBy, resolvedBy sql.NullInt64
	if err := row.Scan(
		&alert.ID,
		&alert.DetectionEventID,
		&alert.AlertRuleID,
		&alert.Title,
		&alert.Message,
		&alert.Priority,
		&alert.Status,
		&alert.CreatedAt,
		&sentAt,
		&acknowledgedAt,
		&acknowledgedBy,
		&resolvedAt,
		&resolvedBy,
		&metadata,
		&alert.RuleName,
		&alert.LocationID,
	); err != nil {
		return nil, err
	}
	unmarshalJSON(metadata, &alert.Metadata, "alert_id", alert.ID)
	if sentAt.Valid {
		alert.SentAt = &sentAt.Time
	}
	if acknowledgedAt.Valid {
		alert.AcknowledgedAt = &acknowledgedAt.Time
	}
	if acknowledgedBy.Valid {
		alert.AcknowledgedBy = &acknowledgedBy.Int64
	}
	if resolvedAt.Valid {
		alert.ResolvedAt = &resolvedAt.Time
	}
	if resolvedBy.Valid {
		alert.ResolvedBy = &resolvedBy.Int64
	}
	return &alert, nil
}

// CreateAlertForRule stamps the rule's last_triggered and inserts the alert
// in one transaction. The conditional update is the single arbiter when
// concurrent detections race on the same rule: exactly one caller wins, the
// rest get ErrCooldown. A failed insert rolls the stamp back so the rule is
// not left suppressed without an alert.
func (db *DB) CreateAlertForRule(ctx context.Context, ruleID int64, alert *models.Alert) (int64, error) {
	metadata, err := marshalJSON(alert.Metadata)
	if err != nil {
		return 0, err
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stampQuery := `
		UPDATE alert_rules
		SET last_triggered = NOW()
		WHERE id = $1
		  AND (last_triggered IS NULL
		       OR last_triggered <= NOW() - cooldown_minutes * INTERVAL '1 minute')`
	result, err := tx.ExecContext(ctx, stampQuery, ruleID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark rule triggered: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return 0, fmt.Errorf("rule %d: %w", ruleID, ErrCooldown)
	}

	insertQuery := `
		INSERT INTO alerts (detection_event_id, alert_rule_id, title, message, priority, status, created_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	var id int64
	err = tx.QueryRowContext(ctx, insertQuery,
		alert.DetectionEventID, alert.AlertRuleID, alert.Title, alert.Message,
		alert.Priority, alert.Status, alert.CreatedAt, metadata).Scan(&id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" { // foreign_key_violation
			return 0, fmt.Errorf("detection %d or rule %d not found: %w",
				alert.DetectionEventID, alert.AlertRuleID, ErrNotFound)
		}
		return 0, fmt.Errorf("failed to create alert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit alert creation: %w", err)
	}
	return id, nil
}

// GetAlert retrieves an alert by ID with its rule and location context.
func (db *DB) GetAlert(ctx context.Context, alertID int64) (*models.Alert, error) {
	query := `SELECT ` + alertColumns + alertJoins + ` WHERE a.id = $1`
	alert, err := scanAlert(db.conn.QueryRowContext(ctx, query, alertID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("alert %d: %w", alertID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return alert, nil
}

// AlertFilter narrows ListAlerts results.
type AlertFilter struct {
	LocationID *int64
	Status     *models.AlertStatus
	Priority   *models.Priority
	Since      *time.Time
	Limit      int
	Offset     int
}

// ListAlerts retrieves alerts, newest first.
func (db *DB) ListAlerts(ctx context.Context, filter AlertFilter) ([]*models.Alert, error) {
	query := `SELECT ` + alertColumns + alertJoins + ` WHERE 1=1`
	args := []any{}
	idx := 1
	if filter.LocationID != nil {
		query += fmt.Sprintf(" AND c.location_id = $%d", idx)
		args = append(args, *filter.LocationID)
		idx++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND a.status = $%d", idx)
		args = append(args, *filter.Status)
		idx++
	}
	if filter.Priority != nil {
		query += fmt.Sprintf(" AND a.priority = $%d", idx)
		args = append(args, *filter.Priority)
		idx++
	}
	if filter.Since != nil {
		query += fmt.Sprintf(" AND a.created_at >= $%d", idx)
		args = append(args, *filter.Since)
		idx++
	}
	query += " ORDER BY a.created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*models.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// RecentAlertsForLocation retrieves the alerts created since the given time
// for one location, newest first, capped at limit. This backs the snapshot a
// realtime subscriber receives on connect.
func (db *DB) RecentAlertsForLocation(ctx context.Context, locationID int64, since time.Time, limit int) ([]*models.Alert, error) {
	return db.ListAlerts(ctx, AlertFilter{
		LocationID: &locationID,
		Since:      &since,
		Limit:      limit,
	})
}

// MarkAlertDelivery records the fan-out outcome for a pending alert. Status
// must be sent or failed; sent also stamps sent_at. Alerts that already moved
// past pending are left untouched.
func (db *DB) MarkAlertDelivery(ctx context.Context, alertID int64, status models.AlertStatus) error {
	if status != models.AlertSent && status != models.AlertFailed {
		return fmt.Errorf("invalid delivery status %q", status)
	}
	query := `
		UPDATE alerts
		SET status = $2,
		    sent_at = CASE WHEN $2 = 'sent' THEN NOW() ELSE sent_at END
		WHERE id = $1 AND status = 'pending'`
	result, err := db.conn.ExecContext(ctx, query, alertID, status)
	if err != nil {
		return fmt.Errorf("failed to mark alert delivery: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("alert %d not pending: %w", alertID, ErrConflict)
	}
	return nil
}

// AcknowledgeAlert moves an alert to acknowledged. Any pre-resolution state
// may be acknowledged; the conditional update makes the first writer win.
func (db *DB) AcknowledgeAlert(ctx context.Context, alertID, userID int64) (*models.Alert, error) {
	query := `
		UPDATE alerts
		SET status = 'acknowledged',
		    acknowledged_at = NOW(),
		    acknowledged_by = $2
		WHERE id = $1 AND status IN ('pending', 'sent', 'failed')`
	result, err := db.conn.ExecContext(ctx, query, alertID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if _, getErr := db.GetAlert(ctx, alertID); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("alert %d cannot be acknowledged: %w", alertID, ErrConflict)
	}
	return db.GetAlert(ctx, alertID)
}

// ResolveAlert moves an acknowledged alert to resolved. Resolution requires
// a prior acknowledgement. Non-empty notes are merged into the alert
// metadata as resolution_notes.
func (db *DB) ResolveAlert(ctx context.Context, alertID, userID int64, notes string) (*models.Alert, error) {
	notesFragment := []byte(`{}`)
	if notes != "" {
		fragment, err := marshalJSON(map[string]string{"resolution_notes": notes})
		if err != nil {
			return nil, err
		}
		notesFragment = fragment
	}
	query := `
		UPDATE alerts
		SET status = 'resolved',
		    resolved_at = NOW(),
		    resolved_by = $2,
		    metadata = COALESCE(metadata, '{}'::jsonb) || $3::jsonb
		WHERE id = $1 AND status = 'acknowledged'`
	result, err := db.conn.ExecContext(ctx, query, alertID, userID, notesFragment)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve alert: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if _, getErr := db.GetAlert(ctx, alertID); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("alert %d is not acknowledged: %w", alertID, ErrConflict)
	}
	return db.GetAlert(ctx, alertID)
}
