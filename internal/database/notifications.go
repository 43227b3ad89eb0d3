package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Wassi1m/app-surveince/internal/models"
)

const notificationColumns = `id, alert_id, channel_id, recipient, status, sent_at, delivered_at,
	error_message, external_id, retry_count, metadata, created_at`

func scanNotification(row interface{ Scan(...any) error }) (*models.NotificationLog, error) {
	var entry models.NotificationLog
	var sentAt, deliveredAt sql.NullTime
	var errorMessage, externalID sql.NullString
	var metadata []byte
	if err := row.Scan(
		&entry.ID,
		&entry.AlertID,
		&entry.ChannelID,
		&entry.Recipient,
		&entry.Status,
		&sentAt,
		&deliveredAt,
		&errorMessage,
		&externalID,
		&entry.RetryCount,
		&metadata,
		&entry.CreatedAt,
	); err != nil {
		return nil, err
	}
	if sentAt.Valid {
		entry.SentAt = &sentAt.Time
	}
	if deliveredAt.Valid {
		entry.DeliveredAt = &deliveredAt.Time
	}
	entry.ErrorMessage = errorMessage.String
	entry.ExternalID = externalID.String
	unmarshalJSON(metadata, &entry.Metadata, "notification_id", entry.ID)
	return &entry, nil
}

// CreateNotificationLog inserts a pending delivery attempt and returns its
// generated ID. One row is written per (alert, channel, recipient) before the
// send is attempted, so history exists even if the process dies mid-send.
func (db *DB) CreateNotificationLog(ctx context.Context, alertID, channelID int64, recipient string) (int64, error) {
	query := `
		INSERT INTO notification_logs (alert_id, channel_id, recipient, status, retry_count, created_at)
		VALUES ($1, $2, $3, 'pending', 0, NOW())
		RETURNING id`
	var id int64
	err := db.conn.QueryRowContext(ctx, query, alertID, channelID, recipient).Scan(&id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" { // foreign_key_violation
			return 0, fmt.Errorf("alert %d or channel %d not found: %w", alertID, channelID, ErrNotFound)
		}
		return 0, fmt.Errorf("failed to create notification log: %w", err)
	}
	return id, nil
}

// MarkNotificationSending moves a pending notification into the in-flight
// state before a delivery attempt starts.
func (db *DB) MarkNotificationSending(ctx context.Context, notificationID int64) error {
	query := `
		UPDATE notification_logs
		SET status = 'sending'
		WHERE id = $1 AND status = 'pending'`
	result, err := db.conn.ExecContext(ctx, query, notificationID)
	if err != nil {
		return fmt.Errorf("failed to mark notification sending: %w", err)
	}
	return requireRow(result, notificationID)
}

// MarkNotificationSent records a successful delivery attempt.
func (db *DB) MarkNotificationSent(ctx context.Context, notificationID int64, externalID string, metadata map[string]any) error {
	meta, err := marshalJSON(metadata)
	if err != nil {
		return err
	}
	query := `
		UPDATE notification_logs
		SET status = 'sent',
		    sent_at = NOW(),
		    external_id = $2,
		    metadata = $3
		WHERE id = $1`
	result, err := db.conn.ExecContext(ctx, query, notificationID, externalID, meta)
	if err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return requireRow(result, notificationID)
}

// MarkNotificationFailed records a failed delivery attempt. Provider context
// such as an HTTP status and response body goes into metadata; a nil map
// leaves the column untouched. retry_count is left for an external retry
// policy to maintain.
func (db *DB) MarkNotificationFailed(ctx context.Context, notificationID int64, errorMessage string, metadata map[string]any) error {
	var meta any
	if metadata != nil {
		data, err := marshalJSON(metadata)
		if err != nil {
			return err
		}
		meta = data
	}
	query := `
		UPDATE notification_logs
		SET status = 'failed',
		    error_message = $2,
		    metadata = COALESCE($3, metadata)
		WHERE id = $1`
	result, err := db.conn.ExecContext(ctx, query, notificationID, errorMessage, meta)
	if err != nil {
		return fmt.Errorf("failed to mark notification failed: %w", err)
	}
	return requireRow(result, notificationID)
}

// MarkNotificationDelivered records provider-side delivery confirmation.
func (db *DB) MarkNotificationDelivered(ctx context.Context, notificationID int64, at time.Time) error {
	query := `
		UPDATE notification_logs
		SET status = 'delivered',
		    delivered_at = $2
		WHERE id = $1 AND status = 'sent'`
	result, err := db.conn.ExecContext(ctx, query, notificationID, at)
	if err != nil {
		return fmt.Errorf("failed to mark notification delivered: %w", err)
	}
	return requireRow(result, notificationID)
}

// ListNotificationsForAlert retrieves the delivery history of one alert,
// newest first.
func (db *DB) ListNotificationsForAlert(ctx context.Context, alertID int64) ([]*models.NotificationLog, error) {
	query := `SELECT ` + notificationColumns + `
		FROM notification_logs
		WHERE alert_id = $1
		ORDER BY created_at DESC`
	rows, err := db.conn.QueryContext(ctx, query, alertID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var entries []*models.NotificationLog
	for rows.Next() {
		entry, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ListNotificationHistory retrieves recent delivery attempts across all
// alerts, newest first.
func (db *DB) ListNotificationHistory(ctx context.Context, limit, offset int) ([]*models.NotificationLog, error) {
	query := `SELECT ` + notificationColumns + `
		FROM notification_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`
	rows, err := db.conn.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notification history: %w", err)
	}
	defer rows.Close()

	var entries []*models.NotificationLog
	for rows.Next() {
		entry, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func requireRow(result sql.Result, notificationID int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("notification %d: %w", notificationID, ErrNotFound)
	}
	return nil
}
