package schedule

import (
	"fmt"
	"strings"
	"time"
)

// ParseClock parses an "HH:MM" time of day into an offset from midnight
func ParseClock(s string) (time.Duration, error) {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// FormatClock renders an offset from midnight as "HH:MM"
func FormatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

// ParseWindow parses free-text "HH:MM-HH:MM" into a preferred window. The
// window is advisory, so malformed text degrades to "no window" rather than
// erroring: the second return is false and the template is scheduled as if it
// had no preference.
func ParseWindow(text string) (Window, bool) {
	parts := strings.SplitN(strings.TrimSpace(text), "-", 2)
	if len(parts) != 2 {
		return Window{}, false
	}
	start, err := ParseClock(parts[0])
	if err != nil {
		return Window{}, false
	}
	end, err := ParseClock(parts[1])
	if err != nil {
		return Window{}, false
	}
	return Window{Start: start, End: end}, true
}
