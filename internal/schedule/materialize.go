package schedule

import (
	"sort"
	"time"
)

// DefaultDayStart is where sequential placement begins when a template has no
// preferred window and nothing is scheduled yet.
const DefaultDayStart = 9 * time.Hour

// MaterializeToday expands the applicable, enabled templates into new schedule
// instances for the given day. It is a pure function: persistence of the
// result is the caller's concern.
//
// On the first call of the day (no existing instances) it builds the full set;
// afterwards it only tops up with templates not yet represented, so repeated
// calls with the same inputs create nothing (idempotent).
//
// Templates with a parseable preferred window are placed via FindSlot against
// everything already on the timeline; if no slot fits, the template is skipped
// for the day. That skip is deliberate policy — a windowed template must never
// fall back to sequential placement. Templates without a window are placed
// back to back behind a sequential cursor, which starts at dayStart (or after
// the latest existing planned end when topping up) and stops placing once a
// block would run to or past midnight.
func MaterializeToday(templates []Template, existing []Instance, day time.Time, dayStart time.Duration) []Instance {
	midnight := Midnight(day)
	endOfDay := midnight.Add(24 * time.Hour)

	sorted := make([]Template, len(templates))
	copy(sorted, templates)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	have := make(map[int64]bool, len(existing))
	placed := make([]Interval, 0, len(existing))
	cursor := midnight.Add(dayStart)
	for _, inst := range existing {
		have[inst.TemplateID] = true
		placed = append(placed, inst.Interval())
		if inst.End.After(cursor) {
			cursor = inst.End
		}
	}

	var created []Instance
	for _, tmpl := range sorted {
		if !tmpl.Enabled || tmpl.DurationMinutes <= 0 {
			continue
		}
		if have[tmpl.ID] {
			continue
		}
		if !AppliesOn(tmpl.Recurrence, day) {
			continue
		}

		var start time.Time
		window, windowed := ParseWindow(tmpl.PreferredWindow)
		if windowed {
			slot, fits := FindSlot(day, tmpl.Duration(), window, placed)
			if !fits {
				// No room inside the window today: skip, don't fall back
				continue
			}
			start = slot
		} else {
			if !cursor.Add(tmpl.Duration()).Before(endOfDay) {
				// Sequential block would run to or past midnight
				continue
			}
			start = cursor
		}

		inst := Instance{
			TemplateID: tmpl.ID,
			Date:       midnight,
			Start:      start,
			End:        start.Add(tmpl.Duration()),
			Status:     StatusPending,
		}
		created = append(created, inst)
		have[tmpl.ID] = true
		placed = append(placed, inst.Interval())
		if !windowed {
			cursor = inst.End
		}
	}

	return created
}
