package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/Wassi1m/app-surveince/internal/models"
)

const ruleColumns = `id, location_id, name, description, trigger_type, trigger_conditions,
	is_active, priority, cooldown_minutes, created_by, created_at, last_triggered`

func scanRule(row interface{ Scan(...any) error }) (*models.AlertRule, error) {
	var rule models.AlertRule
	var conditions []byte
	var lastTriggered sql.NullTime
	if err := row.Scan(
		&rule.ID,
		&rule.LocationID,
		&rule.Name,
		&rule.Description,
		&rule.TriggerType,
		&conditions,
		&rule.IsActive,
		&rule.Priority,
		&rule.CooldownMinutes,
		&rule.CreatedBy,
		&rule.CreatedAt,
		&lastTriggered,
	); err != nil {
		return nil, err
	}
	unmarshalJSON(conditions, &rule.TriggerConditions, "rule_id", rule.ID)
	if lastTriggered.Valid {
		rule.LastTriggered = &lastTriggered.Time
	}
	return &rule, nil
}

// CreateRule creates a new alert rule and returns it with its generated ID.
func (db *DB) CreateRule(ctx context.Context, rule *models.AlertRule) (*models.AlertRule, error) {
	conditions, err := marshalJSON(rule.TriggerConditions)
	if err != nil {
		return nil, err
	}
	query := `
		INSERT INTO alert_rules (location_id, name, description, trigger_type, trigger_conditions,
			is_active, priority, cooldown_minutes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING ` + ruleColumns
	created, err := scanRule(db.conn.QueryRowContext(ctx, query,
		rule.LocationID, rule.Name, rule.Description, rule.TriggerType, conditions,
		rule.IsActive, rule.Priority, rule.CooldownMinutes, rule.CreatedBy))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23503" { // foreign_key_violation
				return nil, fmt.Errorf("location not found: %d: %w", rule.LocationID, ErrNotFound)
			}
			if pqErr.Code == "23505" { // unique_violation
				return nil, fmt.Errorf("rule %q already exists for location %d: %w", rule.Name, rule.LocationID, ErrConflict)
			}
		}
		return nil, fmt.Errorf("failed to create rule: %w", err)
	}
	return created, nil
}

// GetRule retrieves a rule by ID.
func (db *DB) GetRule(ctx context.Context, ruleID int64) (*models.AlertRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM alert_rules WHERE id = $1`
	rule, err := scanRule(db.conn.QueryRowContext(ctx, query, ruleID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("rule %d: %w", ruleID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return rule, nil
}

// ListRules retrieves rules, optionally filtered by location.
func (db *DB) ListRules(ctx context.Context, locationID *int64) ([]*models.AlertRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM alert_rules ORDER BY priority ASC, created_at DESC`
	args := []any{}
	if locationID != nil {
		query = `SELECT ` + ruleColumns + ` FROM alert_rules WHERE location_id = $1 ORDER BY priority ASC, created_at DESC`
		args = []any{*locationID}
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rules []*models.AlertRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// GetActiveRulesForLocation retrieves the active rules for a location in
// priority order. This is the rule set the pipeline evaluates for each
// detection.
func (db *DB) GetActiveRulesForLocation(ctx context.Context, locationID int64) ([]models.AlertRule, error) {
	query := `SELECT ` + ruleColumns + `
		FROM alert_rules
		WHERE location_id = $1 AND is_active = TRUE
		ORDER BY priority ASC, id ASC`
	rows, err := db.conn.QueryContext(ctx, query, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active rules: %w", err)
	}
	defer rows.Close()

	var rules []models.AlertRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}

// UpdateRule updates a rule's mutable fields.
func (db *DB) UpdateRule(ctx context.Context, rule *models.AlertRule) (*models.AlertRule, error) {
	conditions, err := marshalJSON(rule.TriggerConditions)
	if err != nil {
		return nil, err
	}
	query := `
		UPDATE alert_rules
		SET name = $2,
		    description = $3,
		    trigger_type = $4,
		    trigger_conditions = $5,
		    is_active = $6,
		    priority = $7,
		    cooldown_minutes = $8
		WHERE id = $1
		RETURNING ` + ruleColumns
	updated, err := scanRule(db.conn.QueryRowContext(ctx, query,
		rule.ID, rule.Name, rule.Description, rule.TriggerType, conditions,
		rule.IsActive, rule.Priority, rule.CooldownMinutes))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("rule %d: %w", rule.ID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update rule: %w", err)
	}
	return updated, nil
}

// DeleteRule deletes a rule by ID.
func (db *DB) DeleteRule(ctx context.Context, ruleID int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM alert_rules WHERE id = $1`, ruleID)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("rule %d: %w", ruleID, ErrNotFound)
	}
	return nil
}

