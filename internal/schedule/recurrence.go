package schedule

import (
	"strings"
	"time"
)

// weekdayAbbrev maps three-letter weekday abbreviations to Go weekdays.
// Longer forms ("monday") match because only the first three letters are used.
var weekdayAbbrev = map[string]time.Weekday{
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
	"sun": time.Sunday,
}

// AppliesOn reports whether a recurrence rule selects the given day.
//
// The vocabulary is fixed: empty or "daily" matches every day, "weekdays"
// matches Monday through Friday, "weekends" matches Saturday and Sunday, and a
// comma-separated list of weekday abbreviations matches those days. Anything
// unrecognized falls back to daily; that fallback is deliberate policy, so a
// template with a typo'd rule still shows up rather than silently vanishing.
func AppliesOn(rule string, day time.Time) bool {
	pattern := strings.ToLower(strings.TrimSpace(rule))
	if pattern == "" || pattern == "daily" {
		return true
	}

	wd := day.Weekday()
	switch pattern {
	case "weekdays":
		return wd >= time.Monday && wd <= time.Friday
	case "weekends":
		return wd == time.Saturday || wd == time.Sunday
	}

	allowed := make(map[time.Weekday]bool)
	for _, part := range strings.Split(pattern, ",") {
		part = strings.TrimSpace(part)
		if len(part) < 3 {
			continue
		}
		if w, ok := weekdayAbbrev[part[:3]]; ok {
			allowed[w] = true
		}
	}
	if len(allowed) > 0 {
		return allowed[wd]
	}

	// Unrecognized pattern: treat as daily
	return true
}
