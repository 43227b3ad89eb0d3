package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Wassi1m/app-surveince/internal/models"
)

const detectionColumns = `d.id, d.camera_id, d.zone_id, d.event_type, d.severity, d.confidence,
	d.detected_at, d.bounding_boxes, d.description, d.image_path, d.video_clip_path,
	d.is_verified, d.verified_by, d.verified_at, d.false_positive,
	c.name, z.name, c.location_id`

const detectionJoins = `
	FROM detection_events d
	JOIN cameras c ON c.id = d.camera_id
	JOIN zones z ON z.id = d.zone_id`

func scanDetection(row interface{ Scan(...any) error }) (*models.DetectionEvent, error) {
	var event models.DetectionEvent
	var boxes []byte
	var description, imagePath, videoPath sql.NullString
	var verifiedBy sql.NullInt64
	var verifiedAt sql.NullTime
	if err := row.Scan(
		&event.ID,
		&event.CameraID,
		&event.ZoneID,
		&event.EventType,
		&event.Severity,
		&event.Confidence,
		&event.DetectedAt,
		&boxes,
		&description,
		&imagePath,
		&videoPath,
		&event.IsVerified,
		&verifiedBy,
		&verifiedAt,
		&event.FalsePositive,
		&event.CameraName,
		&event.ZoneName,
		&event.LocationID,
	); err != nil {
		return nil, err
	}
	event.BoundingBoxes = boxes
	event.Description = description.String
	event.ImagePath = imagePath.String
	event.VideoClipPath = videoPath.String
	if verifiedBy.Valid {
		event.VerifiedBy = &verifiedBy.Int64
	}
	if verifiedAt.Valid {
		event.VerifiedAt = &verifiedAt.Time
	}
	return &event, nil
}

// CreateDetection inserts a detection event and returns it with the camera,
// zone and location context joined in.
func (db *DB) CreateDetection(ctx context.Context, event *models.DetectionEvent) (*models.DetectionEvent, error) {
	query := `
		INSERT INTO detection_events (camera_id, zone_id, event_type, severity, confidence,
			detected_at, bounding_boxes, description, image_path, video_clip_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	var id int64
	err := db.conn.QueryRowContext(ctx, query,
		event.CameraID, event.ZoneID, event.EventType, event.Severity, event.Confidence,
		event.DetectedAt, nullableJSON(event.BoundingBoxes), event.Description,
		event.ImagePath, event.VideoClipPath).Scan(&id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" { // foreign_key_violation
			return nil, fmt.Errorf("camera %d or zone %d not found: %w", event.CameraID, event.ZoneID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to create detection: %w", err)
	}
	return db.GetDetection(ctx, id)
}

// GetDetection retrieves a detection event by ID with its camera and zone
// context.
func (db *DB) GetDetection(ctx context.Context, eventID int64) (*models.DetectionEvent, error) {
	query := `SELECT ` + detectionColumns + detectionJoins + ` WHERE d.id = $1`
	event, err := scanDetection(db.conn.QueryRowContext(ctx, query, eventID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("detection %d: %w", eventID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get detection: %w", err)
	}
	return event, nil
}

// DetectionFilter narrows ListDetections results.
type DetectionFilter struct {
	LocationID *int64
	CameraID   *int64
	EventType  *models.EventType
	Severity   *models.Severity
	Since      *time.Time
	Limit      int
	Offset     int
}

// ListDetections retrieves detection events, newest first.
func (db *DB) ListDetections(ctx context.Context, filter DetectionFilter) ([]*models.DetectionEvent, error) {
	query := `SELECT ` + detectionColumns + detectionJoins + ` WHERE 1=1`
	args := []any{}
	idx := 1
	if filter.LocationID != nil {
		query += fmt.Sprintf(" AND c.location_id = $%d", idx)
		args = append(args, *filter.LocationID)
		idx++
	}
	if filter.CameraID != nil {
		query += fmt.Sprintf(" AND d.camera_id = $%d", idx)
		args = append(args, *filter.CameraID)
		idx++
	}
	if filter.EventType != nil {
		query += fmt.Sprintf(" AND d.event_type = $%d", idx)
		args = append(args, *filter.EventType)
		idx++
	}
	if filter.Severity != nil {
		query += fmt.Sprintf(" AND d.severity = $%d", idx)
		args = append(args, *filter.Severity)
		idx++
	}
	if filter.Since != nil {
		query += fmt.Sprintf(" AND d.detected_at >= $%d", idx)
		args = append(args, *filter.Since)
		idx++
	}
	query += " ORDER BY d.detected_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list detections: %w", err)
	}
	defer rows.Close()

	var events []*models.DetectionEvent
	for rows.Next() {
		event, err := scanDetection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// VerifyDetection records a human review of a detection event. The detection
// facts themselves stay immutable; only the verification flags change.
func (db *DB) VerifyDetection(ctx context.Context, eventID, reviewerID int64, falsePositive bool) (*models.DetectionEvent, error) {
	query := `
		UPDATE detection_events
		SET is_verified = TRUE,
		    verified_by = $2,
		    verified_at = NOW(),
		    false_positive = $3
		WHERE id = $1`
	result, err := db.conn.ExecContext(ctx, query, eventID, reviewerID, falsePositive)
	if err != nil {
		return nil, fmt.Errorf("failed to verify detection: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("detection %d: %w", eventID, ErrNotFound)
	}
	return db.GetDetection(ctx, eventID)
}

// nullableJSON passes raw JSON through, turning empty payloads into NULL.
func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
