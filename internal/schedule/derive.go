package schedule

import "time"

// EffectiveStatus projects an instance's live status at the given moment.
//
// Manual overrides (paused/cancelled) pass through untouched; anything else is
// active while now's time of day falls inside the planned window and pending
// otherwise. Remaining is the whole seconds until planned end, populated only
// for active and paused instances. The function reads nothing but its
// arguments, so the same stored row and the same clock always derive the same
// answer, before or after a restart.
func EffectiveStatus(inst Instance, now time.Time) (Status, *int) {
	status := inst.Status
	if status != StatusCancelled && status != StatusPaused {
		nowOnDate := Midnight(inst.Date).Add(clockOffset(now))
		if !inst.Start.After(nowOnDate) && nowOnDate.Before(inst.End) {
			status = StatusActive
		} else {
			status = StatusPending
		}
	}

	if status == StatusActive || status == StatusPaused {
		remaining := int(inst.End.Sub(now).Seconds())
		if remaining < 0 {
			remaining = 0
		}
		return status, &remaining
	}
	return status, nil
}

// clockOffset returns a timestamp's time of day as an offset from midnight
func clockOffset(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}
