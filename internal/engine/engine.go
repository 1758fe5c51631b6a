// Package engine exposes the scheduler's external operations: materializing
// and reading today's timeline, ad hoc task injection, instance mutation, and
// the alert interaction flow. Each operation is a short synchronous
// request/response; mutating steps commit through single store transactions.
package engine

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vthunder/dayplan/internal/alerts"
	"github.com/vthunder/dayplan/internal/logging"
	"github.com/vthunder/dayplan/internal/schedule"
	"github.com/vthunder/dayplan/internal/store"
)

// Options configures the engine
type Options struct {
	// DayStart is where sequential placement begins (offset from midnight).
	// Zero selects the default 09:00.
	DayStart time.Duration
	// StaleCutoff is the interaction timeout. Zero selects 10 minutes.
	StaleCutoff time.Duration
	// Now sources the clock; nil selects time.Now. Every operation reads it
	// exactly once.
	Now func() time.Time
}

// Engine is the temporal scheduling and state-derivation core
type Engine struct {
	store    *store.Store
	alerts   *alerts.Manager
	dayStart time.Duration
	now      func() time.Time

	// Serializes materialization/sweep/read for the single per-user
	// timeline, so concurrent today reads cannot double-create instances.
	mu sync.Mutex
}

// New creates an Engine over the given store
func New(s *store.Store, opts Options) *Engine {
	if opts.DayStart <= 0 {
		opts.DayStart = schedule.DefaultDayStart
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		store:    s,
		alerts:   alerts.New(s, opts.StaleCutoff, opts.Now),
		dayStart: opts.DayStart,
		now:      opts.Now,
	}
}

// Alerts exposes the interaction lifecycle manager (for the refresh cron)
func (e *Engine) Alerts() *alerts.Manager {
	return e.alerts
}

// TodayItem is one entry of today's ordered timeline, with the read-time
// derived status collapsed into Status.
type TodayItem struct {
	InstanceID       int64           `json:"id"`
	TemplateID       int64           `json:"task_id"`
	Name             string          `json:"task_name"`
	Category         string          `json:"category"`
	Date             string          `json:"date"`
	PlannedStart     string          `json:"planned_start_time"`
	PlannedEnd       string          `json:"planned_end_time"`
	Status           schedule.Status `json:"status"`
	RemainingSeconds *int            `json:"remaining_seconds"`
	ServerNow        time.Time       `json:"server_now"`
	IsAdhoc          bool            `json:"is_adhoc"`
}

// GetTodaySchedule materializes any missing instances for today, sweeps stale
// interactions, and returns the full timeline ordered by planned start.
func (e *Engine) GetTodaySchedule() ([]TodayItem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()

	existing, err := e.store.InstancesForDate(now)
	if err != nil {
		return nil, err
	}
	enabled, err := e.store.ListTemplates(true)
	if err != nil {
		return nil, err
	}

	created := schedule.MaterializeToday(enabled, existing, now, e.dayStart)
	if len(created) > 0 {
		if err := e.store.InsertInstances(created); err != nil {
			return nil, err
		}
		logging.Info("engine", "materialized %d instance(s) for %s", len(created), now.Format("2006-01-02"))
	}

	if _, err := e.alerts.SweepStale(); err != nil {
		return nil, err
	}

	instances, err := e.store.InstancesForDate(now)
	if err != nil {
		return nil, err
	}
	byID, err := e.templatesByID()
	if err != nil {
		return nil, err
	}

	items := make([]TodayItem, 0, len(instances))
	for i := range instances {
		inst := &instances[i]
		tmpl, ok := byID[inst.TemplateID]
		if !ok {
			continue
		}

		status, _ := schedule.EffectiveStatus(*inst, now)
		if status == schedule.StatusActive && inst.ActualStart == nil {
			// First observed transition to active; stamped once
			if err := e.store.MarkActualStart(inst.ID, now); err != nil {
				return nil, err
			}
		}

		items = append(items, e.todayItem(inst, &tmpl, now))
	}
	return items, nil
}

// CreateAdHocToday injects a one-off task directly into today's timeline,
// backed by a disabled template so it never auto-recurs.
func (e *Engine) CreateAdHocToday(name, category string, durationMinutes int, start time.Duration) (*TodayItem, error) {
	if durationMinutes <= 0 {
		return nil, validationf("duration must be positive")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("name is required")
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = "misc"
	}
	duration := time.Duration(durationMinutes) * time.Minute
	if start < 0 || start+duration >= 24*time.Hour {
		return nil, validationf("task from %s for %d minutes would cross midnight",
			schedule.FormatClock(start), durationMinutes)
	}

	now := e.now()
	midnight := schedule.Midnight(now)

	tmpl := schedule.Template{
		Name:            name,
		Category:        category,
		DurationMinutes: durationMinutes,
		AlertStyle:      schedule.AlertVisualThenAlarm,
		Enabled:         false,
	}
	inst := schedule.Instance{
		Date:   midnight,
		Start:  midnight.Add(start),
		End:    midnight.Add(start).Add(duration),
		Status: schedule.StatusPending,
	}
	if err := e.store.CreateAdHoc(&tmpl, &inst); err != nil {
		return nil, err
	}

	item := e.todayItem(&inst, &tmpl, now)
	return &item, nil
}

// UpdateInstance applies a user-initiated reschedule and/or manual status
// change. Reschedules preserve the template duration; status writes are
// checked against the closed enum.
func (e *Engine) UpdateInstance(id int64, newStart *time.Duration, newStatus *schedule.Status) (*TodayItem, error) {
	inst, err := e.store.GetInstance(id)
	if err != nil {
		return nil, err
	}
	tmpl, err := e.store.GetTemplate(inst.TemplateID)
	if err != nil {
		return nil, err
	}

	if newStart != nil {
		if err := schedule.Reschedule(inst, *tmpl, *newStart); err != nil {
			return nil, validationf("%v", err)
		}
	}
	if newStatus != nil {
		if err := schedule.SetStatus(inst, *newStatus); err != nil {
			return nil, validationf("%v", err)
		}
	}

	if err := e.store.UpdateInstance(inst); err != nil {
		return nil, err
	}

	item := e.todayItem(inst, tmpl, e.now())
	return &item, nil
}

// StartInteraction records that an alert began for the instance
func (e *Engine) StartInteraction(id int64, alertType string) error {
	if _, err := e.store.GetInstance(id); err != nil {
		return err
	}
	return e.alerts.Start(id, alertType)
}

// Acknowledge resolves the instance's current alert as acknowledged
func (e *Engine) Acknowledge(id int64, stage schedule.ResponseStage) (*TodayItem, error) {
	inst, err := e.store.GetInstance(id)
	if err != nil {
		return nil, err
	}
	tmpl, err := e.store.GetTemplate(inst.TemplateID)
	if err != nil {
		return nil, err
	}
	if err := e.alerts.Acknowledge(id, stage); err != nil {
		return nil, err
	}

	item := e.todayItem(inst, tmpl, e.now())
	return &item, nil
}

// Snooze extends the instance's planned end by minutes and resolves its
// current alert as snoozed.
func (e *Engine) Snooze(id int64, minutes int, stage schedule.ResponseStage) (*TodayItem, error) {
	if minutes <= 0 {
		return nil, validationf("snooze minutes must be positive")
	}
	inst, err := e.store.GetInstance(id)
	if err != nil {
		return nil, err
	}
	tmpl, err := e.store.GetTemplate(inst.TemplateID)
	if err != nil {
		return nil, err
	}
	if err := schedule.ExtendEnd(inst, minutes); err != nil {
		return nil, validationf("%v", err)
	}
	if err := e.alerts.Snooze(inst, minutes, stage); err != nil {
		return nil, err
	}

	item := e.todayItem(inst, tmpl, e.now())
	return &item, nil
}

// RecentInteractions returns newest-first interaction history for display
func (e *Engine) RecentInteractions(limit int) ([]store.HistoryItem, error) {
	return e.store.RecentInteractions(limit)
}

func (e *Engine) templatesByID() (map[int64]schedule.Template, error) {
	all, err := e.store.ListTemplates(false)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]schedule.Template, len(all))
	for _, t := range all {
		byID[t.ID] = t
	}
	return byID, nil
}

func (e *Engine) todayItem(inst *schedule.Instance, tmpl *schedule.Template, now time.Time) TodayItem {
	status, remaining := schedule.EffectiveStatus(*inst, now)
	return TodayItem{
		InstanceID:       inst.ID,
		TemplateID:       inst.TemplateID,
		Name:             tmpl.Name,
		Category:         tmpl.Category,
		Date:             inst.Date.Format("2006-01-02"),
		PlannedStart:     inst.Start.Format("15:04:05"),
		PlannedEnd:       inst.End.Format("15:04:05"),
		Status:           status,
		RemainingSeconds: remaining,
		ServerNow:        now,
		// Disabled backing template means this is a one-off entry
		IsAdhoc: !tmpl.Enabled,
	}
}

// String renders an item compactly for logs
func (ti TodayItem) String() string {
	return fmt.Sprintf("%s %s-%s [%s]", ti.Name, ti.PlannedStart, ti.PlannedEnd, ti.Status)
}
