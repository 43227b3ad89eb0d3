// Package database provides PostgreSQL operations for detections, rules,
// alerts, channels, recipients and notification logs.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// Sentinel errors returned by store operations. Callers match them with
// errors.Is to pick status codes and retry behavior.
var (
	// ErrNotFound means the referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a conditional update lost to an earlier writer.
	ErrConflict = errors.New("conflict")
	// ErrCooldown means the rule is still inside its cooldown window.
	ErrCooldown = errors.New("rule in cooldown")
)

// DB wraps a database connection and provides the pipeline's persistence
// operations.
type DB struct {
	conn *sql.DB
}

// NewDB creates a new database connection using the provided DSN.
func NewDB(dsn string) (*DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Configure connection pool
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Successfully connected to PostgreSQL database")

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn != nil {
		slog.Info("Closing database connection")
		return db.conn.Close()
	}
	return nil
}

// marshalJSON serializes v for a JSONB column. A nil value becomes '{}'.
func marshalJSON(v any) ([]byte, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON column: %w", err)
	}
	return data, nil
}

// unmarshalJSON deserializes a JSONB column into out, tolerating NULL and
// empty values. Malformed JSON is logged and left as the zero value so a bad
// row cannot take down a listing.
func unmarshalJSON(raw []byte, out any, warnAttrs ...any) {
	if len(raw) == 0 {
		return
	}
	if err := json.Unmarshal(raw, out); err != nil {
		slog.Warn("Failed to unmarshal JSON column", append([]any{"error", err}, warnAttrs...)...)
	}
}
