package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/Wassi1m/app-surveince/internal/models"
)

const channelColumns = `id, name, channel_type, configuration, is_active, created_at, last_used`

func scanChannel(row interface{ Scan(...any) error }) (*models.NotificationChannel, error) {
	var channel models.NotificationChannel
	var configuration []byte
	var lastUsed sql.NullTime
	if err := row.Scan(
		&channel.ID,
		&channel.Name,
		&channel.ChannelType,
		&configuration,
		&channel.IsActive,
		&channel.CreatedAt,
		&lastUsed,
	); err != nil {
		return nil, err
	}
	unmarshalJSON(configuration, &channel.Configuration, "channel_id", channel.ID)
	if lastUsed.Valid {
		channel.LastUsed = &lastUsed.Time
	}
	return &channel, nil
}

// CreateChannel creates a notification channel and returns it with its
// generated ID.
func (db *DB) CreateChannel(ctx context.Context, channel *models.NotificationChannel) (*models.NotificationChannel, error) {
	configuration, err := marshalJSON(channel.Configuration)
	if err != nil {
		return nil, err
	}
	query := `
		INSERT INTO notification_channels (name, channel_type, configuration, is_active, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING ` + channelColumns
	created, err := scanChannel(db.conn.QueryRowContext(ctx, query,
		channel.Name, channel.ChannelType, configuration, channel.IsActive))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return nil, fmt.Errorf("channel %q already exists: %w", channel.Name, ErrConflict)
		}
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}
	return created, nil
}

// GetChannel retrieves a notification channel by ID.
func (db *DB) GetChannel(ctx context.Context, channelID int64) (*models.NotificationChannel, error) {
	query := `SELECT ` + channelColumns + ` FROM notification_channels WHERE id = $1`
	channel, err := scanChannel(db.conn.QueryRowContext(ctx, query, channelID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("channel %d: %w", channelID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return channel, nil
}

// ListChannels retrieves all notification channels.
func (db *DB) ListChannels(ctx context.Context) ([]*models.NotificationChannel, error) {
	query := `SELECT ` + channelColumns + ` FROM notification_channels ORDER BY created_at DESC`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	var channels []*models.NotificationChannel
	for rows.Next() {
		channel, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, channel)
	}
	return channels, rows.Err()
}

// UpdateChannel updates a channel's mutable fields.
func (db *DB) UpdateChannel(ctx context.Context, channel *models.NotificationChannel) (*models.NotificationChannel, error) {
	configuration, err := marshalJSON(channel.Configuration)
	if err != nil {
		return nil, err
	}
	query := `
		UPDATE notification_channels
		SET name = $2,
		    channel_type = $3,
		    configuration = $4,
		    is_active = $5
		WHERE id = $1
		RETURNING ` + channelColumns
	updated, err := scanChannel(db.conn.QueryRowContext(ctx, query,
		channel.ID, channel.Name, channel.ChannelType, configuration, channel.IsActive))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("channel %d: %w", channel.ID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update channel: %w", err)
	}
	return updated, nil
}

// DeleteChannel deletes a channel by ID.
func (db *DB) DeleteChannel(ctx context.Context, channelID int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM notification_channels WHERE id = $1`, channelID)
	if err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("channel %d: %w", channelID, ErrNotFound)
	}
	return nil
}

// TouchChannelLastUsed stamps the channel's last successful use.
func (db *DB) TouchChannelLastUsed(ctx context.Context, channelID int64) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE notification_channels SET last_used = NOW() WHERE id = $1`, channelID)
	if err != nil {
		return fmt.Errorf("failed to touch channel last_used: %w", err)
	}
	return nil
}
