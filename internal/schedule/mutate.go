package schedule

import (
	"fmt"
	"time"
)

// Reschedule moves an instance to a new start time of day. The template's
// duration is always preserved: the user moves the block, not its length.
// Fails if the recomputed end would cross midnight.
func Reschedule(inst *Instance, tmpl Template, newStart time.Duration) error {
	start := Midnight(inst.Date).Add(newStart)
	end := start.Add(tmpl.Duration())
	if err := checkSameDay(inst.Date, end); err != nil {
		return err
	}
	inst.Start = start
	inst.End = end
	return nil
}

// SetStatus overwrites the persisted status with a manual override. Only the
// four known statuses are accepted.
func SetStatus(inst *Instance, status Status) error {
	if !ValidStatus(status) {
		return fmt.Errorf("invalid status %q", status)
	}
	inst.Status = status
	return nil
}

// ExtendEnd pushes an instance's planned end out by the given number of
// minutes, leaving the start untouched. Used by snooze. Fails on non-positive
// minutes or if the new end would cross midnight.
func ExtendEnd(inst *Instance, minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("minutes must be positive, got %d", minutes)
	}
	end := inst.End.Add(time.Duration(minutes) * time.Minute)
	if err := checkSameDay(inst.Date, end); err != nil {
		return err
	}
	inst.End = end
	return nil
}

// checkSameDay requires the end to land strictly inside the instance's date.
// The persisted clock column has no way to say 24:00, so an end at next
// midnight would read back as 00:00 and invert the start/end ordering.
func checkSameDay(date, end time.Time) error {
	if !end.Before(Midnight(date).Add(24 * time.Hour)) {
		return fmt.Errorf("planned end %s would cross midnight", end.Format("15:04"))
	}
	return nil
}
