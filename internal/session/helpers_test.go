package session

import (
	"testing"
	"time"
)

func TestFormatTimeSortsAsText(t *testing.T) {
	whole := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	half := whole.Add(500 * time.Millisecond)
	next := whole.Add(time.Second)

	a, b, c := formatTime(whole), formatTime(half), formatTime(next)
	if !(a < b && b < c) {
		t.Fatalf("text order does not follow time order: %q %q %q", a, b, c)
	}
	if len(a) != len(b) || len(b) != len(c) {
		t.Fatalf("expected fixed width, got %q %q %q", a, b, c)
	}
}

func TestFormatTimeRoundTrip(t *testing.T) {
	local := time.FixedZone("CET", 3600)
	want := time.Date(2026, 3, 1, 13, 4, 5, 120, local)
	got, err := parseTimeString(formatTime(want))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.Equal(want) || got.Location() != time.UTC {
		t.Fatalf("round trip = %v, want %v in UTC", got, want)
	}
}

func TestParseTimeStringAcceptsTrimmedFractions(t *testing.T) {
	got, err := parseTimeString("2026-03-01T12:00:00.5Z")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Nanosecond() != 500_000_000 {
		t.Fatalf("nanoseconds = %d", got.Nanosecond())
	}
}
