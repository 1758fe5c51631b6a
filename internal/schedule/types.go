package schedule

import "time"

// Status is an instance status. The persisted column only ever records manual
// overrides (paused/cancelled) plus the initial pending; the active/pending
// distinction for unpaused instances is derived on read from the clock.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCancelled Status = "cancelled"
)

// AlertStyle controls how an instance's alert escalates
type AlertStyle string

const (
	AlertVisualThenAlarm AlertStyle = "visual_then_alarm"
	AlertVisualOnly      AlertStyle = "visual_only"
	AlertAlarmOnly       AlertStyle = "alarm_only"
)

// ResponseType records how an interaction was resolved
type ResponseType string

const (
	ResponseAcknowledge ResponseType = "acknowledge"
	ResponseSnooze      ResponseType = "snooze"
	ResponseNone        ResponseType = "none"
)

// ResponseStage records whether the audio escalation had fired before the
// user responded
type ResponseStage string

const (
	StageVisual ResponseStage = "visual"
	StageAlarm  ResponseStage = "alarm"
	StageNone   ResponseStage = "none"
)

// Template is a reusable recurring task definition. Ad hoc one-offs are backed
// by a disabled template so they never recur on their own.
type Template struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Category        string     `json:"category"`
	DurationMinutes int        `json:"default_duration_minutes"`
	Recurrence      string     `json:"recurrence_pattern"`     // daily, weekdays, weekends, or "mon,wed,fri"
	PreferredWindow string     `json:"preferred_time_window"`  // free text "HH:MM-HH:MM", advisory
	AlertStyle      AlertStyle `json:"default_alert_style"`
	Enabled         bool       `json:"enabled"`
}

// Duration returns the template's default duration
func (t Template) Duration() time.Duration {
	return time.Duration(t.DurationMinutes) * time.Minute
}

// Instance is one concrete occurrence of a template on a specific date.
// Date is midnight in local time; Start and End are full timestamps on that
// date, Start strictly before End.
type Instance struct {
	ID          int64      `json:"id"`
	TemplateID  int64      `json:"template_id"`
	Date        time.Time  `json:"date"`
	Start       time.Time  `json:"planned_start"`
	End         time.Time  `json:"planned_end"`
	ActualStart *time.Time `json:"actual_start,omitempty"` // set once, on first transition to active
	Status      Status     `json:"status"`                 // persisted: pending, paused, or cancelled
}

// Interval returns the planned window as a closed-open interval
func (i Instance) Interval() Interval {
	return Interval{Start: i.Start, End: i.End}
}

// Interaction is the record of one alert shown to the user for an instance
// and how (or whether) it was resolved. Response fields are empty while the
// interaction is open.
type Interaction struct {
	ID            int64         `json:"id"`
	InstanceID    int64         `json:"schedule_instance_id"`
	AlertType     string        `json:"alert_type"`
	StartedAt     time.Time     `json:"alert_started_at"`
	ResponseType  ResponseType  `json:"response_type,omitempty"`
	ResponseStage ResponseStage `json:"response_stage,omitempty"`
	RespondedAt   *time.Time    `json:"responded_at,omitempty"`
}

// Open reports whether the interaction is still awaiting a response
func (ia Interaction) Open() bool {
	return ia.ResponseType == ""
}

// Interval is a closed-open time interval [Start, End)
type Interval struct {
	Start time.Time
	End   time.Time
}

// Window is a preferred time-of-day range, expressed as offsets from midnight
type Window struct {
	Start time.Duration
	End   time.Duration
}
