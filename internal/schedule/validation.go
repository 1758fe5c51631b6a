package schedule

import (
	"fmt"
	"strings"
)

// validStatuses contains the closed set of persisted/derived status values
var validStatuses = map[Status]bool{
	StatusPending:   true,
	StatusActive:    true,
	StatusPaused:    true,
	StatusCancelled: true,
}

// ValidStatus reports whether s is one of the four known statuses
func ValidStatus(s Status) bool {
	return validStatuses[s]
}

// validAlertStyles contains the allowed alert escalation styles
var validAlertStyles = map[AlertStyle]bool{
	AlertVisualThenAlarm: true,
	AlertVisualOnly:      true,
	AlertAlarmOnly:       true,
}

// ValidAlertStyle reports whether s is a known alert style
func ValidAlertStyle(s AlertStyle) bool {
	return validAlertStyles[s]
}

// ValidateTemplate checks a template against the rules the engine relies on.
// The recurrence rule is deliberately not validated: unrecognized patterns
// fall back to daily at materialization time, and the preferred window is
// advisory free text that degrades to "no window" when unparsable.
func ValidateTemplate(t *Template) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("template name is required")
	}
	if t.DurationMinutes <= 0 {
		return fmt.Errorf("duration must be positive, got %d", t.DurationMinutes)
	}
	if t.AlertStyle != "" && !ValidAlertStyle(t.AlertStyle) {
		return fmt.Errorf("invalid alert style %q", t.AlertStyle)
	}
	return nil
}
