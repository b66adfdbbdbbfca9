// Package clock renders and parses the fixed timestamp format stored in
// note frontmatter, and derives hierarchical day-key tags from instants.
package clock

import (
	"fmt"
	"strings"
	"time"
)

// StampLayout is the timestamp format written to the created/modified fields.
const StampLayout = "2006-01-02 15:04:05"

// Now returns the current local time rendered in StampLayout.
func Now() string {
	return time.Now().Format(StampLayout)
}

// DayKey returns the slash-joined day tag for t, e.g. "date/2025/10/19".
// Two day keys are equal iff their rendered strings are equal.
func DayKey(base string, t time.Time) string {
	return fmt.Sprintf("%s/%04d/%02d/%02d", base, t.Year(), int(t.Month()), t.Day())
}

// ParseStamp parses a stored timestamp back into an instant. The second
// return is false when v is empty or unparseable; callers treat that as
// "no date known", never as a failure.
func ParseStamp(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(StampLayout, v, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
