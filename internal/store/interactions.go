package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vthunder/dayplan/internal/schedule"
)

// StartInteraction records a new alert-start event for an instance. Each call
// inserts a fresh open row; resolution always operates on the most recent one.
func (s *Store) StartInteraction(instanceID int64, alertType string, now time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO interactions (instance_id, alert_type, alert_started_at)
		VALUES (?, ?, ?)
	`, instanceID, alertType, now)
	if err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}
	return nil
}

// LatestInteraction returns the most recently started interaction for an
// instance, or nil if it has none.
func (s *Store) LatestInteraction(instanceID int64) (*schedule.Interaction, error) {
	row := s.db.QueryRow(`
		SELECT id, instance_id, alert_type, alert_started_at, response_type, response_stage, responded_at
		FROM interactions
		WHERE instance_id = ?
		ORDER BY alert_started_at DESC, id DESC
		LIMIT 1
	`, instanceID)
	ia, err := scanInteraction(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return ia, err
}

// ApplyAcknowledge appends an acknowledge audit event and resolves the most
// recent interaction, all in one transaction. If the latest interaction is
// already resolved this is a no-op on it; if the instance has no interaction
// at all, an already-resolved one is synthesized (the client acknowledged
// before its start call landed).
func (s *Store) ApplyAcknowledge(instanceID int64, stage schedule.ResponseStage, now time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO acknowledge_events (instance_id, created_at) VALUES (?, ?)
	`, instanceID, now); err != nil {
		return fmt.Errorf("failed to insert acknowledge event: %w", err)
	}

	if err := resolveLatest(tx, instanceID, schedule.ResponseAcknowledge, stage, now); err != nil {
		return err
	}
	return tx.Commit()
}

// ApplySnooze persists a snooze in one transaction: the already-extended
// planned end, the audit event, and the interaction resolution.
func (s *Store) ApplySnooze(inst *schedule.Instance, minutes int, stage schedule.ResponseStage, now time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE schedule_instances SET planned_end = ? WHERE id = ?
	`, formatClockTime(inst.End), inst.ID)
	if err != nil {
		return fmt.Errorf("failed to update planned end: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}

	if _, err := tx.Exec(`
		INSERT INTO snooze_events (instance_id, minutes, created_at) VALUES (?, ?, ?)
	`, inst.ID, minutes, now); err != nil {
		return fmt.Errorf("failed to insert snooze event: %w", err)
	}

	if err := resolveLatest(tx, inst.ID, schedule.ResponseSnooze, stage, now); err != nil {
		return err
	}
	return tx.Commit()
}

// resolveLatest closes the most recent open interaction for an instance with
// the given response, synthesizing an already-resolved row when none exists.
// Resolving an already-resolved interaction is a silent no-op.
func resolveLatest(tx *sql.Tx, instanceID int64, rtype schedule.ResponseType, stage schedule.ResponseStage, now time.Time) error {
	var id int64
	var responseType sql.NullString
	err := tx.QueryRow(`
		SELECT id, response_type FROM interactions
		WHERE instance_id = ?
		ORDER BY alert_started_at DESC, id DESC
		LIMIT 1
	`, instanceID).Scan(&id, &responseType)

	switch {
	case err == sql.ErrNoRows:
		_, err = tx.Exec(`
			INSERT INTO interactions (instance_id, alert_type, alert_started_at, response_type, response_stage, responded_at)
			VALUES (?, 'task_start', ?, ?, ?, ?)
		`, instanceID, now, string(rtype), string(stage), now)
		if err != nil {
			return fmt.Errorf("failed to synthesize interaction: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to find latest interaction: %w", err)
	case !responseType.Valid:
		_, err = tx.Exec(`
			UPDATE interactions SET response_type = ?, response_stage = ?, responded_at = ?
			WHERE id = ? AND response_type IS NULL
		`, string(rtype), string(stage), now, id)
		if err != nil {
			return fmt.Errorf("failed to resolve interaction: %w", err)
		}
	}
	return nil
}

// SweepStale resolves every interaction still open past the cutoff to a
// "none" response. Returns how many rows were closed. Interactions already
// resolved are untouched.
func (s *Store) SweepStale(cutoff, now time.Time) (int, error) {
	res, err := s.db.Exec(`
		UPDATE interactions
		SET response_type = 'none', response_stage = 'none', responded_at = ?
		WHERE response_type IS NULL AND alert_started_at <= ?
	`, now, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep stale interactions: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// HistoryItem is one row of the interaction history view
type HistoryItem struct {
	schedule.Interaction
	TaskName string `json:"task_name"`
	Category string `json:"category"`
}

// RecentInteractions returns the newest interactions joined with their task
// names, most recent first. Limit is clamped to [1, 200].
func (s *Store) RecentInteractions(limit int) ([]HistoryItem, error) {
	if limit <= 0 {
		limit = 1
	}
	if limit > 200 {
		limit = 200
	}

	rows, err := s.db.Query(`
		SELECT i.id, i.instance_id, i.alert_type, i.alert_started_at,
		       i.response_type, i.response_stage, i.responded_at,
		       t.name, t.category
		FROM interactions i
		JOIN schedule_instances si ON i.instance_id = si.id
		JOIN templates t ON si.template_id = t.id
		ORDER BY i.alert_started_at DESC, i.id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query interaction history: %w", err)
	}
	defer rows.Close()

	var result []HistoryItem
	for rows.Next() {
		var item HistoryItem
		var rtype, rstage sql.NullString
		var responded sql.NullTime
		if err := rows.Scan(&item.ID, &item.InstanceID, &item.AlertType, &item.StartedAt,
			&rtype, &rstage, &responded, &item.TaskName, &item.Category); err != nil {
			return nil, fmt.Errorf("failed to scan history item: %w", err)
		}
		fillResponse(&item.Interaction, rtype, rstage, responded)
		result = append(result, item)
	}
	return result, rows.Err()
}

func scanInteraction(scan func(...any) error) (*schedule.Interaction, error) {
	var ia schedule.Interaction
	var rtype, rstage sql.NullString
	var responded sql.NullTime
	if err := scan(&ia.ID, &ia.InstanceID, &ia.AlertType, &ia.StartedAt, &rtype, &rstage, &responded); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan interaction: %w", err)
	}
	fillResponse(&ia, rtype, rstage, responded)
	return &ia, nil
}

func fillResponse(ia *schedule.Interaction, rtype, rstage sql.NullString, responded sql.NullTime) {
	if rtype.Valid {
		ia.ResponseType = schedule.ResponseType(rtype.String)
	}
	if rstage.Valid {
		ia.ResponseStage = schedule.ResponseStage(rstage.String)
	}
	if responded.Valid {
		t := responded.Time
		ia.RespondedAt = &t
	}
}
