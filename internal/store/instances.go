package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/vthunder/dayplan/internal/schedule"
)

const instanceColumns = `id, template_id, date, planned_start, planned_end, actual_start, status`

// InsertInstances writes a batch of newly materialized instances in one
// transaction. The UNIQUE(template_id, date) constraint makes the write safe
// against a concurrent materialization of the same day: the loser's duplicate
// rows are silently ignored rather than double-created.
func (s *Store) InsertInstances(instances []schedule.Instance) error {
	if len(instances) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range instances {
		inst := &instances[i]
		res, err := tx.Exec(`
			INSERT INTO schedule_instances (template_id, date, planned_start, planned_end, status)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(template_id, date) DO NOTHING
		`, inst.TemplateID, formatDate(inst.Date), formatClockTime(inst.Start),
			formatClockTime(inst.End), string(inst.Status))
		if err != nil {
			return fmt.Errorf("failed to insert instance: %w", err)
		}
		// A conflict-skipped row leaves LastInsertId pointing at some earlier
		// insert; only a row that actually landed gets its id back.
		if n, err := res.RowsAffected(); err == nil && n == 1 {
			if id, err := res.LastInsertId(); err == nil {
				inst.ID = id
			}
		}
	}
	return tx.Commit()
}

// GetInstance returns an instance by ID, or ErrNotFound
func (s *Store) GetInstance(id int64) (*schedule.Instance, error) {
	row := s.db.QueryRow(`SELECT `+instanceColumns+` FROM schedule_instances WHERE id = ?`, id)
	inst, err := scanInstance(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// InstancesForDate returns the day's instances ordered by planned start
func (s *Store) InstancesForDate(day time.Time) ([]schedule.Instance, error) {
	rows, err := s.db.Query(`
		SELECT `+instanceColumns+`
		FROM schedule_instances
		WHERE date = ?
		ORDER BY planned_start, id
	`, formatDate(day))
	if err != nil {
		return nil, fmt.Errorf("failed to query instances: %w", err)
	}
	defer rows.Close()

	var result []schedule.Instance
	for rows.Next() {
		inst, err := scanInstance(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *inst)
	}
	return result, rows.Err()
}

// UpdateInstanceTimes persists a reschedule or snooze (planned times only)
func (s *Store) UpdateInstanceTimes(inst *schedule.Instance) error {
	res, err := s.db.Exec(`
		UPDATE schedule_instances SET planned_start = ?, planned_end = ? WHERE id = ?
	`, formatClockTime(inst.Start), formatClockTime(inst.End), inst.ID)
	if err != nil {
		return fmt.Errorf("failed to update instance times: %w", err)
	}
	return requireRow(res)
}

// UpdateInstance persists planned times and status together in one statement
func (s *Store) UpdateInstance(inst *schedule.Instance) error {
	res, err := s.db.Exec(`
		UPDATE schedule_instances SET planned_start = ?, planned_end = ?, status = ? WHERE id = ?
	`, formatClockTime(inst.Start), formatClockTime(inst.End), string(inst.Status), inst.ID)
	if err != nil {
		return fmt.Errorf("failed to update instance: %w", err)
	}
	return requireRow(res)
}

// MarkActualStart stamps the wall-clock moment an instance was first observed
// active. Write-once: later observations leave the original stamp alone.
func (s *Store) MarkActualStart(id int64, now time.Time) error {
	_, err := s.db.Exec(`
		UPDATE schedule_instances SET actual_start = ? WHERE id = ? AND actual_start IS NULL
	`, now, id)
	if err != nil {
		return fmt.Errorf("failed to mark actual start: %w", err)
	}
	return nil
}

// CreateAdHoc writes the disabled backing template and its same-day instance
// as one transaction, so a crash cannot leave an orphan template behind.
func (s *Store) CreateAdHoc(tmpl *schedule.Template, inst *schedule.Instance) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO templates (name, category, duration_minutes, recurrence, preferred_window, alert_style, enabled)
		VALUES (?, ?, ?, '', '', ?, 0)
	`, tmpl.Name, tmpl.Category, tmpl.DurationMinutes, string(tmpl.AlertStyle))
	if err != nil {
		return fmt.Errorf("failed to insert ad hoc template: %w", err)
	}
	tmpl.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}

	inst.TemplateID = tmpl.ID
	res, err = tx.Exec(`
		INSERT INTO schedule_instances (template_id, date, planned_start, planned_end, status)
		VALUES (?, ?, ?, ?, ?)
	`, inst.TemplateID, formatDate(inst.Date), formatClockTime(inst.Start),
		formatClockTime(inst.End), string(inst.Status))
	if err != nil {
		return fmt.Errorf("failed to insert ad hoc instance: %w", err)
	}
	inst.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}
	return tx.Commit()
}

// scanInstance decodes one schedule_instances row. The scan function comes
// from either sql.Row or sql.Rows.
func scanInstance(scan func(...any) error) (*schedule.Instance, error) {
	var inst schedule.Instance
	var dateStr, startStr, endStr, status string
	var actual sql.NullTime
	if err := scan(&inst.ID, &inst.TemplateID, &dateStr, &startStr, &endStr, &actual, &status); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan instance: %w", err)
	}

	// SQLite may hand back the date column as a full timestamp depending on
	// how it was written; keep only the date part.
	if idx := strings.IndexAny(dateStr, "T "); idx > 0 {
		dateStr = dateStr[:idx]
	}

	start, err := combineDateClock(dateStr, startStr)
	if err != nil {
		return nil, err
	}
	end, err := combineDateClock(dateStr, endStr)
	if err != nil {
		return nil, err
	}

	inst.Date = schedule.Midnight(start)
	inst.Start = start
	inst.End = end
	inst.Status = schedule.Status(status)
	if actual.Valid {
		t := actual.Time
		inst.ActualStart = &t
	}
	return &inst, nil
}
