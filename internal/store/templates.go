package store

import (
	"database/sql"
	"fmt"

	"github.com/vthunder/dayplan/internal/schedule"
)

// AddTemplate inserts a new template and fills in its assigned ID
func (s *Store) AddTemplate(t *schedule.Template) error {
	if t.AlertStyle == "" {
		t.AlertStyle = schedule.AlertVisualThenAlarm
	}
	res, err := s.db.Exec(`
		INSERT INTO templates (name, category, duration_minutes, recurrence, preferred_window, alert_style, enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.Name, t.Category, t.DurationMinutes, t.Recurrence, t.PreferredWindow, string(t.AlertStyle), boolInt(t.Enabled))
	if err != nil {
		return fmt.Errorf("failed to insert template: %w", err)
	}
	t.ID, err = res.LastInsertId()
	return err
}

// GetTemplate returns a template by ID, or ErrNotFound
func (s *Store) GetTemplate(id int64) (*schedule.Template, error) {
	row := s.db.QueryRow(`
		SELECT id, name, category, duration_minutes, recurrence, preferred_window, alert_style, enabled
		FROM templates WHERE id = ?
	`, id)
	return scanTemplate(row)
}

// ListTemplates returns templates ordered by name. With enabledOnly set,
// disabled templates (including ad hoc backing templates) are excluded.
func (s *Store) ListTemplates(enabledOnly bool) ([]schedule.Template, error) {
	query := `
		SELECT id, name, category, duration_minutes, recurrence, preferred_window, alert_style, enabled
		FROM templates`
	if enabledOnly {
		query += ` WHERE enabled = 1`
	}
	query += ` ORDER BY name`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	var result []schedule.Template
	for rows.Next() {
		var t schedule.Template
		var style string
		var enabled int
		if err := rows.Scan(&t.ID, &t.Name, &t.Category, &t.DurationMinutes,
			&t.Recurrence, &t.PreferredWindow, &style, &enabled); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		t.AlertStyle = schedule.AlertStyle(style)
		t.Enabled = enabled != 0
		result = append(result, t)
	}
	return result, rows.Err()
}

// UpdateTemplate overwrites all mutable fields of an existing template
func (s *Store) UpdateTemplate(t *schedule.Template) error {
	res, err := s.db.Exec(`
		UPDATE templates
		SET name = ?, category = ?, duration_minutes = ?, recurrence = ?,
		    preferred_window = ?, alert_style = ?, enabled = ?
		WHERE id = ?
	`, t.Name, t.Category, t.DurationMinutes, t.Recurrence, t.PreferredWindow,
		string(t.AlertStyle), boolInt(t.Enabled), t.ID)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	return requireRow(res)
}

// DisableTemplate soft-deletes a template so historical instances remain intact
func (s *Store) DisableTemplate(id int64) error {
	res, err := s.db.Exec(`UPDATE templates SET enabled = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to disable template: %w", err)
	}
	return requireRow(res)
}

func scanTemplate(row *sql.Row) (*schedule.Template, error) {
	var t schedule.Template
	var style string
	var enabled int
	err := row.Scan(&t.ID, &t.Name, &t.Category, &t.DurationMinutes,
		&t.Recurrence, &t.PreferredWindow, &style, &enabled)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan template: %w", err)
	}
	t.AlertStyle = schedule.AlertStyle(style)
	t.Enabled = enabled != 0
	return &t, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
