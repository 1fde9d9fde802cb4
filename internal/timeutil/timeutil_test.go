package timeutil

import (
	"testing"
	"time"
)

func TestStartOfDay(t *testing.T) {
	t.Parallel()

	input := time.Date(2026, 3, 1, 14, 37, 9, 123, time.Local)
	got := StartOfDay(input)

	if got.Year() != 2026 || got.Month() != time.March || got.Day() != 1 {
		t.Fatalf("unexpected date: %v", got)
	}
	if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 || got.Nanosecond() != 0 {
		t.Fatalf("expected midnight, got %v", got)
	}
}

func TestSameDay(t *testing.T) {
	t.Parallel()

	a := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)
	b := time.Date(2026, 3, 1, 18, 30, 0, 0, time.Local)
	c := time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local)

	if !SameDay(a, b) {
		t.Fatalf("expected same day for %v and %v", a, b)
	}
	if SameDay(a, c) {
		t.Fatalf("expected different days for %v and %v", a, c)
	}
}

func TestMinutesFromMidnight(t *testing.T) {
	t.Parallel()

	input := time.Date(2026, 3, 1, 13, 25, 0, 0, time.Local)
	if got := MinutesFromMidnight(input); got != 805 {
		t.Fatalf("expected 805, got %d", got)
	}
}

func TestDayKeyAndMonthDays(t *testing.T) {
	t.Parallel()

	input := time.Date(2026, 2, 14, 23, 59, 0, 0, time.UTC)
	if got := DayKey(input); got != "2026-02-14" {
		t.Fatalf("expected 2026-02-14, got %s", got)
	}

	first, last := MonthDays(input)
	if first != "2026-02-01" || last != "2026-02-28" {
		t.Fatalf("unexpected month range %s..%s", first, last)
	}
}

func TestClockOnDay(t *testing.T) {
	t.Parallel()

	day, err := ParseDay("2026-03-01", time.UTC)
	if err != nil {
		t.Fatalf("parse day: %v", err)
	}
	got, err := ClockOnDay(day, "13:25")
	if err != nil {
		t.Fatalf("clock on day: %v", err)
	}
	if MinutesFromMidnight(got) != 805 || DayKey(got) != "2026-03-01" {
		t.Fatalf("unexpected combined time %v", got)
	}

	if _, err := ClockOnDay(day, "25:00"); err == nil {
		t.Fatalf("expected error for invalid clock")
	}
}

func TestFormatMinutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		minutes int
		want    string
	}{
		{0, "0m"},
		{45, "45m"},
		{60, "1h 00m"},
		{390, "6h 30m"},
		{-30, "-30m"},
	}
	for _, tt := range tests {
		if got := FormatMinutes(tt.minutes); got != tt.want {
			t.Errorf("FormatMinutes(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestFormatElapsed(t *testing.T) {
	t.Parallel()

	if got := FormatElapsed(time.Hour + time.Minute + time.Second); got != "01:01:01" {
		t.Fatalf("expected 01:01:01, got %s", got)
	}
}
