package schedule

import (
	"sort"
	"time"
)

// FindSlot computes the earliest start inside the preferred window on the
// given day at which a block of the given duration fits without overlapping
// any already-placed interval. Returns false if nothing fits (including when
// the window itself is empty or inverted).
//
// Intervals are treated as closed-open. The input order of placed does not
// matter; it is sorted by start before the sweep.
func FindSlot(day time.Time, duration time.Duration, window Window, placed []Interval) (time.Time, bool) {
	if window.Start >= window.End || duration <= 0 {
		return time.Time{}, false
	}

	midnight := Midnight(day)
	windowStart := midnight.Add(window.Start)
	windowEnd := midnight.Add(window.End)

	sorted := make([]Interval, len(placed))
	copy(sorted, placed)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	// Single left-to-right sweep: the cursor only ever moves forward.
	cursor := windowStart
	for _, iv := range sorted {
		if !iv.Start.Before(windowEnd) {
			break
		}
		if !iv.Start.Before(cursor.Add(duration)) {
			// The gap before this interval is big enough
			break
		}
		if iv.End.After(cursor) {
			cursor = iv.End
		}
	}

	if !cursor.Add(duration).After(windowEnd) {
		return cursor, true
	}
	return time.Time{}, false
}

// Midnight truncates a timestamp to the start of its day in its location
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
