package utils

import (
	"strings"
	"time"
)

const (
	layoutDate        = "2006-01-02"
	layoutDisplayDate = "02 Jan 2006"
	layoutDisplayTime = "15:04:05"
)

// ParseDate parses YYYY-MM-DD in the given location (UTC when nil).
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(layoutDate, strings.TrimSpace(s), loc)
}

// ParseTimestamp accepts RFC3339 or "YYYY-MM-DD HH:MM:SS" and returns nil
// for empty or unparseable input.
func ParseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// DisplayDate renders "05 Mar 2024", or "-" when t is absent.
func DisplayDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format(layoutDisplayDate)
}

// DisplayTime renders "14:05:09", or "-" when t is absent.
func DisplayTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format(layoutDisplayTime)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
