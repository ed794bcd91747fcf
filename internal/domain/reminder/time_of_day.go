// internal/domain/reminder/time_of_day.go
package reminder

import (
	"fmt"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time (hour and minute) in the bot's single global timezone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// At is a small constructor used mostly by the preset catalog and tests.
func At(hour, minute int) TimeOfDay {
	return TimeOfDay{Hour: hour, Minute: minute}
}

// Valid reports whether the time is within 00:00..23:59.
func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

// String renders the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// compact renders HHMM, used inside job keys.
func (t TimeOfDay) compact() string {
	return fmt.Sprintf("%02d%02d", t.Hour, t.Minute)
}

// MostRecent returns the latest occurrence of t at or before now, in now's location.
func (t TimeOfDay) MostRecent(now time.Time) time.Time {
	occ := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, 0, 0, now.Location())
	if occ.After(now) {
		occ = occ.AddDate(0, 0, -1)
	}
	return occ
}

// FormatTimes joins times for user-facing confirmations, e.g. "07:30, 12:30".
func FormatTimes(times []TimeOfDay) string {
	parts := make([]string, 0, len(times))
	for _, t := range times {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, ", ")
}

// Dedupe drops repeated times, keeping the first occurrence and the input order.
func Dedupe(times []TimeOfDay) []TimeOfDay {
	seen := make(map[TimeOfDay]struct{}, len(times))
	out := make([]TimeOfDay, 0, len(times))
	for _, t := range times {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
