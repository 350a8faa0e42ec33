// Package datekey owns the canonical DD_MM_YYYY calendar-day key used by the
// slot ledger, appointment records, and the availability query. Every
// component that reads or writes a date key must go through Format so the
// three never disagree on encoding.
package datekey

import (
	"fmt"
	"regexp"
	"time"
)

const Layout = "DD_MM_YYYY"

var keyPattern = regexp.MustCompile(`^(\d{2})_(\d{2})_(\d{4})$`)

// Format encodes the calendar day of t as a date key.
func Format(t time.Time) string {
	return fmt.Sprintf("%02d_%02d_%04d", t.Day(), int(t.Month()), t.Year())
}

// Parse decodes a date key back into a calendar day at midnight in loc.
func Parse(key string, loc *time.Location) (time.Time, error) {
	m := keyPattern.FindStringSubmatch(key)
	if m == nil {
		return time.Time{}, fmt.Errorf("invalid date key %q, want %s", key, Layout)
	}
	t, err := time.ParseInLocation("02_01_2006", key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}
	return t, nil
}

// Valid reports whether key is a well-formed date key.
func Valid(key string) bool {
	_, err := Parse(key, time.UTC)
	return err == nil
}

// NextHalfHour rounds t up to the next half-hour boundary. Times already on a
// boundary are returned unchanged.
func NextHalfHour(t time.Time) time.Time {
	switch m := t.Minute(); {
	case m == 0 && t.Second() == 0 && t.Nanosecond() == 0:
		return t
	case m < 30 || (m == 30 && t.Second() == 0 && t.Nanosecond() == 0):
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 30, 0, 0, t.Location())
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, t.Location())
	}
}
