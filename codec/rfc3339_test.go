package codec

import (
	"testing"
	"time"
)

func TestParseRFC3339(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2024-06-01T12:00:00Z", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)},
		{"2024-06-01T12:00:00.25Z", time.Date(2024, 6, 1, 12, 0, 0, 250_000_000, time.UTC)},
		{"2024-06-01T12:00:00+02:00", time.Date(2024, 6, 1, 12, 0, 0, 0, time.FixedZone("", 2*3600))},
	}
	for _, tc := range cases {
		got, err := ParseRFC3339(tc.in)
		if err != nil {
			t.Errorf("ParseRFC3339(%q): %v", tc.in, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("ParseRFC3339(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	for _, bad := range []string{"", "yesterday", "2024-06-01", "2024-06-01 12:00:00"} {
		if _, err := ParseRFC3339(bad); err == nil {
			t.Errorf("ParseRFC3339(%q) should fail", bad)
		}
	}
}

func TestFormatRFC3339(t *testing.T) {
	whole := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	if got := FormatRFC3339(whole); got != "2024-06-01T12:00:00Z" {
		t.Errorf("FormatRFC3339 = %q", got)
	}
	frac := time.Date(2024, 6, 1, 12, 0, 0, 250_000_000, time.UTC)
	if got := FormatRFC3339(frac); got != "2024-06-01T12:00:00.25Z" {
		t.Errorf("FormatRFC3339 = %q", got)
	}
}

func TestRoundTrip(t *testing.T) {
	orig := time.Date(2030, 1, 2, 3, 4, 5, 600_000_000, time.UTC)
	got, err := ParseRFC3339(FormatRFC3339(orig))
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if !got.Equal(orig) {
		t.Fatalf("round trip = %v, want %v", got, orig)
	}
}
