package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/Wassi1m/app-surveince/internal/models"
)

const recipientColumns = `ar.id, ar.user_id, ar.location_id, ar.is_active,
	ar.priority_filter, ar.time_restrictions, ar.created_at,
	u.username, u.email, u.phone`

const recipientJoins = `
	FROM alert_recipients ar
	JOIN users u ON u.id = ar.user_id`

func scanRecipient(row interface{ Scan(...any) error }) (*models.AlertRecipient, error) {
	var recipient models.AlertRecipient
	var priorityFilter, timeRestrictions []byte
	var phone sql.NullString
	if err := row.Scan(
		&recipient.ID,
		&recipient.UserID,
		&recipient.LocationID,
		&recipient.IsActive,
		&priorityFilter,
		&timeRestrictions,
		&recipient.CreatedAt,
		&recipient.User.Username,
		&recipient.User.Email,
		&phone,
	); err != nil {
		return nil, err
	}
	recipient.User.ID = recipient.UserID
	recipient.User.Phone = phone.String
	unmarshalJSON(priorityFilter, &recipient.PriorityFilter, "recipient_id", recipient.ID)
	unmarshalJSON(timeRestrictions, &recipient.TimeRestrictions, "recipient_id", recipient.ID)
	return &recipient, nil
}

// loadRecipientChannels attaches each recipient's channels from the
// recipient_channels join table.
func (db *DB) loadRecipientChannels(ctx context.Context, recipients []*models.AlertRecipient) error {
	if len(recipients) == 0 {
		return nil
	}
	ids := make([]int64, len(recipients))
	byID := make(map[int64]*models.AlertRecipient, len(recipients))
	for i, r := range recipients {
		ids[i] = r.ID
		byID[r.ID] = r
	}

	query := `
		SELECT rc.recipient_id, c.id, c.name, c.channel_type, c.configuration, c.is_active, c.created_at, c.last_used
		FROM recipient_channels rc
		JOIN notification_channels c ON c.id = rc.channel_id
		WHERE rc.recipient_id = ANY($1)
		ORDER BY rc.recipient_id, c.id`
	rows, err := db.conn.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load recipient channels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recipientID int64
		var channel models.NotificationChannel
		var configuration []byte
		var lastUsed sql.NullTime
		if err := rows.Scan(
			&recipientID,
			&channel.ID,
			&channel.Name,
			&channel.ChannelType,
			&configuration,
			&channel.IsActive,
			&channel.CreatedAt,
			&lastUsed,
		); err != nil {
			return fmt.Errorf("failed to scan recipient channel: %w", err)
		}
		unmarshalJSON(configuration, &channel.Configuration, "channel_id", channel.ID)
		if lastUsed.Valid {
			channel.LastUsed = &lastUsed.Time
		}
		if r, ok := byID[recipientID]; ok {
			r.Channels = append(r.Channels, channel)
		}
	}
	return rows.Err()
}

// GetRecipientsForLocation retrieves the active recipients of a location with
// their active channels attached. This is the candidate set the dispatcher
// filters per alert.
func (db *DB) GetRecipientsForLocation(ctx context.Context, locationID int64) ([]*models.AlertRecipient, error) {
	query := `SELECT ` + recipientColumns + recipientJoins + `
		WHERE ar.location_id = $1 AND ar.is_active = TRUE
		ORDER BY ar.id`
	rows, err := db.conn.QueryContext(ctx, query, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipients: %w", err)
	}
	defer rows.Close()

	var recipients []*models.AlertRecipient
	for rows.Next() {
		recipient, err := scanRecipient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipient: %w", err)
		}
		recipients = append(recipients, recipient)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := db.loadRecipientChannels(ctx, recipients); err != nil {
		return nil, err
	}
	return recipients, nil
}

// GetRecipient retrieves a recipient by ID with channels attached.
func (db *DB) GetRecipient(ctx context.Context, recipientID int64) (*models.AlertRecipient, error) {
	query := `SELECT ` + recipientColumns + recipientJoins + ` WHERE ar.id = $1`
	recipient, err := scanRecipient(db.conn.QueryRowContext(ctx, query, recipientID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("recipient %d: %w", recipientID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipient: %w", err)
	}
	if err := db.loadRecipientChannels(ctx, []*models.AlertRecipient{recipient}); err != nil {
		return nil, err
	}
	return recipient, nil
}

// ListRecipients retrieves recipients, optionally filtered by location.
func (db *DB) ListRecipients(ctx context.Context, locationID *int64) ([]*models.AlertRecipient, error) {
	query := `SELECT ` + recipientColumns + recipientJoins + ` ORDER BY ar.id`
	args := []any{}
	if locationID != nil {
		query = `SELECT ` + recipientColumns + recipientJoins + ` WHERE ar.location_id = $1 ORDER BY ar.id`
		args = []any{*locationID}
	}
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}
	defer rows.Close()

	var recipients []*models.AlertRecipient
	for rows.Next() {
		recipient, err := scanRecipient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipient: %w", err)
		}
		recipients = append(recipients, recipient)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := db.loadRecipientChannels(ctx, recipients); err != nil {
		return nil, err
	}
	return recipients, nil
}

// CreateRecipient binds a user to a location and attaches the given channel
// IDs in one transaction.
func (db *DB) CreateRecipient(ctx context.Context, recipient *models.AlertRecipient, channelIDs []int64) (*models.AlertRecipient, error) {
	priorityFilter, err := marshalJSON(recipient.PriorityFilter)
	if err != nil {
		return nil, err
	}
	timeRestrictions, err := marshalJSON(recipient.TimeRestrictions)
	if err != nil {
		return nil, err
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO alert_recipients (user_id, location_id, is_active, priority_filter, time_restrictions, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id`,
		recipient.UserID, recipient.LocationID, recipient.IsActive, priorityFilter, timeRestrictions).Scan(&id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" { // foreign_key_violation
			return nil, fmt.Errorf("user %d or location %d not found: %w", recipient.UserID, recipient.LocationID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to create recipient: %w", err)
	}

	for _, channelID := range channelIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recipient_channels (recipient_id, channel_id) VALUES ($1, $2)`,
			id, channelID); err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
				return nil, fmt.Errorf("channel %d not found: %w", channelID, ErrNotFound)
			}
			return nil, fmt.Errorf("failed to attach channel: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit recipient: %w", err)
	}
	return db.GetRecipient(ctx, id)
}

// DeleteRecipient removes a recipient and its channel bindings.
func (db *DB) DeleteRecipient(ctx context.Context, recipientID int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM alert_recipients WHERE id = $1`, recipientID)
	if err != nil {
		return fmt.Errorf("failed to delete recipient: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("recipient %d: %w", recipientID, ErrNotFound)
	}
	return nil
}
