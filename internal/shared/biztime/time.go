// Package biztime provides UTC date helpers for sync-range arithmetic.
// All storage, watermarks, and upstream date parameters use UTC dates; the
// upstream platform reports insights per calendar day.
package biztime

import "time"

// DateLayout is the wire format for upstream date parameters.
const DateLayout = "2006-01-02"

// NowUTC returns the current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// Today returns the current UTC day truncated to midnight.
func Today() time.Time {
	return StartOfDay(NowUTC())
}

// Yesterday returns the prior full UTC day truncated to midnight.
func Yesterday() time.Time {
	return Today().AddDate(0, 0, -1)
}

// StartOfDay truncates t to UTC midnight.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate renders t as an upstream date parameter.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate parses an upstream date parameter into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// DaysBetween returns each UTC day from start to end inclusive.
func DaysBetween(start, end time.Time) []time.Time {
	start = StartOfDay(start)
	end = StartOfDay(end)
	if end.Before(start) {
		return nil
	}
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
