package bot

import (
	"testing"
	"time"
)

func TestParseReminderDelayDurations(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		arg  string
		want time.Duration
	}{
		{"45s", 45 * time.Second},
		{"10m", 10 * time.Minute},
		{"2h", 2 * time.Hour},
		{"1d", 24 * time.Hour},
		{"1d2h3m4s", 24*time.Hour + 2*time.Hour + 3*time.Minute + 4*time.Second},
		{"2h30m", 2*time.Hour + 30*time.Minute},
	}

	for _, tc := range cases {
		due, err := parseReminderDelay(tc.arg, now)
		if err != nil {
			t.Errorf("parseReminderDelay(%q) failed: %v", tc.arg, err)
			continue
		}
		if got := due.Sub(now); got != tc.want {
			t.Errorf("parseReminderDelay(%q) = %v, want %v", tc.arg, got, tc.want)
		}
	}
}

func TestParseReminderDelayClockTimes(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	// A time later today stays on the same day.
	due, err := parseReminderDelay("15:30", now)
	if err != nil {
		t.Fatalf("parseReminderDelay() failed: %v", err)
	}
	want := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)
	if !due.Equal(want) {
		t.Errorf("expected %v, got %v", want, due)
	}

	// A time already past today rolls to tomorrow.
	due, err = parseReminderDelay("09:00:30", now)
	if err != nil {
		t.Fatalf("parseReminderDelay() failed: %v", err)
	}
	want = time.Date(2024, 3, 11, 9, 0, 30, 0, time.UTC)
	if !due.Equal(want) {
		t.Errorf("expected %v, got %v", want, due)
	}
}

func TestParseReminderDelayRejectsGarbage(t *testing.T) {
	now := time.Now()

	for _, arg := range []string{"", "0s", "soon", "12", "h2", "25:99", "1x"} {
		if _, err := parseReminderDelay(arg, now); err == nil {
			t.Errorf("parseReminderDelay(%q) accepted garbage", arg)
		}
	}
}
