package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Wassi1m/app-surveince/internal/models"
)

// GetLocation retrieves a location by ID.
func (db *DB) GetLocation(ctx context.Context, locationID int64) (*models.Location, error) {
	query := `SELECT id, name, address, description, is_active, created_at FROM locations WHERE id = $1`
	var location models.Location
	var description sql.NullString
	err := db.conn.QueryRowContext(ctx, query, locationID).Scan(
		&location.ID,
		&location.Name,
		&location.Address,
		&description,
		&location.IsActive,
		&location.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("location %d: %w", locationID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	location.Description = description.String
	return &location, nil
}

// ListLocations retrieves all active locations.
func (db *DB) ListLocations(ctx context.Context) ([]*models.Location, error) {
	query := `SELECT id, name, address, description, is_active, created_at
		FROM locations
		WHERE is_active = TRUE
		ORDER BY name`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	var locations []*models.Location
	for rows.Next() {
		var location models.Location
		var description sql.NullString
		if err := rows.Scan(
			&location.ID,
			&location.Name,
			&location.Address,
			&description,
			&location.IsActive,
			&location.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		location.Description = description.String
		locations = append(locations, &location)
	}
	return locations, rows.Err()
}

// ListCamerasForLocation retrieves the cameras of a location.
func (db *DB) ListCamerasForLocation(ctx context.Context, locationID int64) ([]*models.Camera, error) {
	query := `SELECT id, location_id, zone_id, name, ip_address, port, stream_url,
			status, resolution, fps, last_seen, is_ai_enabled, created_at
		FROM cameras
		WHERE location_id = $1
		ORDER BY name`
	rows, err := db.conn.QueryContext(ctx, query, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cameras: %w", err)
	}
	defer rows.Close()

	var cameras []*models.Camera
	for rows.Next() {
		var camera models.Camera
		var lastSeen sql.NullTime
		if err := rows.Scan(
			&camera.ID,
			&camera.LocationID,
			&camera.ZoneID,
			&camera.Name,
			&camera.IPAddress,
			&camera.Port,
			&camera.StreamURL,
			&camera.Status,
			&camera.Resolution,
			&camera.FPS,
			&lastSeen,
			&camera.IsAIEnabled,
			&camera.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan camera: %w", err)
		}
		if lastSeen.Valid {
			camera.LastSeen = &lastSeen.Time
		}
		cameras = append(cameras, &camera)
	}
	return cameras, rows.Err()
}
