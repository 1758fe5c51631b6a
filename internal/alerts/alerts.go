// Package alerts manages the interaction lifecycle for schedule instances:
// alert starts, acknowledge/snooze resolution, and the automatic timeout that
// guarantees no interaction stays open forever.
package alerts

import (
	"time"

	"github.com/vthunder/dayplan/internal/logging"
	"github.com/vthunder/dayplan/internal/schedule"
	"github.com/vthunder/dayplan/internal/store"
)

// DefaultAlertType tags interactions opened when an instance's start alert fires
const DefaultAlertType = "task_start"

// DefaultStaleCutoff is how long an interaction may stay open before the
// sweep resolves it to "none"
const DefaultStaleCutoff = 10 * time.Minute

// Manager drives interaction state for instances. Each operation sources a
// single "now" so timestamp comparisons inside one call cannot disagree.
type Manager struct {
	store  *store.Store
	cutoff time.Duration
	now    func() time.Time
}

// New creates a Manager. A zero cutoff selects the default 10 minutes; a nil
// clock selects time.Now.
func New(s *store.Store, cutoff time.Duration, now func() time.Time) *Manager {
	if cutoff <= 0 {
		cutoff = DefaultStaleCutoff
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{store: s, cutoff: cutoff, now: now}
}

// Start records a new alert-start for the instance. There is no lookup for an
// existing open interaction: every call appends a fresh row, and resolution
// always targets the most recent one.
func (m *Manager) Start(instanceID int64, alertType string) error {
	if alertType == "" {
		alertType = DefaultAlertType
	}
	return m.store.StartInteraction(instanceID, alertType, m.now())
}

// Acknowledge resolves the instance's current interaction as acknowledged,
// recording which escalation stage the user responded at (visual by default),
// and appends the acknowledge audit event. Safe to call when no interaction
// exists or the latest one is already resolved.
func (m *Manager) Acknowledge(instanceID int64, stage schedule.ResponseStage) error {
	if stage == "" {
		stage = schedule.StageVisual
	}
	return m.store.ApplyAcknowledge(instanceID, stage, m.now())
}

// Snooze persists an instance whose planned end the caller has already
// extended, records the snooze audit event, and resolves the current
// interaction as snoozed, all in one store transaction. The planned start and
// every other instance are untouched.
func (m *Manager) Snooze(inst *schedule.Instance, minutes int, stage schedule.ResponseStage) error {
	if stage == "" {
		stage = schedule.StageVisual
	}
	return m.store.ApplySnooze(inst, minutes, stage, m.now())
}

// SweepStale auto-resolves every interaction left open past the cutoff to
// response "none", stage "none". Invoked on every today read so history
// queries always see closed records.
func (m *Manager) SweepStale() (int, error) {
	now := m.now()
	n, err := m.store.SweepStale(now.Add(-m.cutoff), now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logging.Debug("alerts", "swept %d stale interaction(s)", n)
	}
	return n, nil
}
