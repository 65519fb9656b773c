package domain

import (
	"strings"
	"time"
)

const (
	isoLayout         = "2006-01-02T15:04:05-07:00"
	isoMicroLayout    = "2006-01-02T15:04:05.000000-07:00"
	naiveLayout       = "2006-01-02T15:04:05.999999999"
	spacedLayout      = "2006-01-02 15:04:05.999999999-07:00"
	spacedNaiveLayout = "2006-01-02 15:04:05.999999999"
)

// FormatISO renders t in UTC as ISO-8601 with an explicit +00:00 offset.
// The fraction is written with microsecond precision and only when non-zero,
// so the same instant always produces the same string.
func FormatISO(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format(isoLayout)
	}
	return t.Format(isoMicroLayout)
}

// ParseISO accepts the timestamp shapes a ledger may return: RFC 3339 with
// either offset or Z, a space instead of T, and naive values which are read as UTC.
func ParseISO(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range []string{time.RFC3339Nano, naiveLayout, spacedLayout, spacedNaiveLayout} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// NormalizeISO maps a ledger timestamp onto the FormatISO form. Values that do
// not parse are returned trimmed so they still compare by string.
func NormalizeISO(s string) string {
	t, err := ParseISO(s)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return FormatISO(t)
}
