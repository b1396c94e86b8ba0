package model

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds uint32
		want    string
	}{
		{9, "9s"},
		{65, "1m 05s"},
		{3600, "1h 00m 00s"},
		{3905, "1h 05m 05s"},
		{28800, "8h 00m 00s"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.seconds); got != tc.want {
			t.Fatalf("FormatDuration(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestClampDuration(t *testing.T) {
	start := time.Date(2024, 9, 1, 9, 0, 0, 0, time.UTC)
	max := 8 * time.Hour

	if got := ClampDuration(start, start.Add(90*time.Minute), max); got != 5400 {
		t.Fatalf("expected 5400, got %d", got)
	}
	// Sessions longer than the maximum report the maximum.
	if got := ClampDuration(start, start.Add(20*time.Hour), max); got != 28800 {
		t.Fatalf("expected clamp to 28800, got %d", got)
	}
	// A start after the end (client clock ahead) collapses to zero.
	if got := ClampDuration(start, start.Add(-time.Minute), max); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestTerminal(t *testing.T) {
	if Terminal(StatusActive) {
		t.Fatal("ACTIVE must not be terminal")
	}
	if !Terminal(StatusCompleted) || !Terminal(StatusInterrupted) {
		t.Fatal("COMPLETED and INTERRUPTED must be terminal")
	}
}
