package booking

import (
	"strings"
	"time"
)

var scheduleLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseSchedule accepts the timestamp formats the admin panel sends.
// Values without a zone are read as UTC. The result has second precision.
func ParseSchedule(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range scheduleLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.Truncate(time.Second), true
		}
	}
	return time.Time{}, false
}

// sameSchedule compares two schedules at second precision
func sameSchedule(a, b time.Time) bool {
	return a.Truncate(time.Second).Equal(b.Truncate(time.Second))
}
