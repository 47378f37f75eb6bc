// Package codec holds wire-format helpers shared by the runtime fields.
package codec

import (
	"errors"
	"time"
)

// ParseRFC3339 parses an RFC3339 timestamp, accepting a trailing offset or
// "Z" and optional fractional seconds.
func ParseRFC3339(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty time string")
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// FormatRFC3339 renders t in canonical RFC3339 form, keeping sub-second
// precision only when present.
func FormatRFC3339(t time.Time) string {
	if t.Nanosecond() == 0 {
		return t.Format(time.RFC3339)
	}
	return t.Format(time.RFC3339Nano)
}
