package util

import (
	"time"
)

// SeanceLayout is the on-disk date format of the SEANCE column.
const SeanceLayout = "2006-01-02"

// ParseSeance parses a trading-session date. Accepts the plain date layout
// plus RFC3339 timestamps (the scraper sometimes emits full timestamps).
// Returns (t, true) normalized to midnight UTC if any layout worked.
func ParseSeance(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(SeanceLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return Normalize(t), true
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return Normalize(t), true
	}
	return time.Time{}, false
}

// FormatSeance renders a session date in the on-disk layout.
func FormatSeance(t time.Time) string {
	return t.Format(SeanceLayout)
}

// Normalize strips the time-of-day component, keeping the calendar date in UTC.
func Normalize(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two timestamps fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return Normalize(a).Equal(Normalize(b))
}
