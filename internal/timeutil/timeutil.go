package timeutil

import (
	"fmt"
	"strings"
	"time"
)

const (
	DayLayout   = "2006-01-02"
	MonthLayout = "2006-01"
)

func StartOfDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}

func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func MinutesFromMidnight(value time.Time) int {
	return value.Hour()*60 + value.Minute()
}

// DayKey returns the YYYY-MM-DD key entries are filed under.
func DayKey(value time.Time) string {
	return value.Format(DayLayout)
}

func ParseDay(value string, loc *time.Location) (time.Time, error) {
	parsed, err := time.ParseInLocation(DayLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", value)
	}
	return parsed, nil
}

func ParseMonth(value string, loc *time.Location) (time.Time, error) {
	parsed, err := time.ParseInLocation(MonthLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q (expected YYYY-MM)", value)
	}
	return parsed, nil
}

// MonthDays returns the first and last day key of the month containing value.
func MonthDays(value time.Time) (string, string) {
	first := time.Date(value.Year(), value.Month(), 1, 0, 0, 0, 0, value.Location())
	last := first.AddDate(0, 1, -1)
	return DayKey(first), DayKey(last)
}

// ClockOnDay combines a day with an HH:MM clock value.
func ClockOnDay(day time.Time, clock string) (time.Time, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (expected HH:MM)", clock)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, day.Location()), nil
}

// FormatMinutes renders minutes as "7h 05m" or "45m".
func FormatMinutes(minutes int) string {
	sign := ""
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	if minutes >= 60 {
		return fmt.Sprintf("%s%dh %02dm", sign, minutes/60, minutes%60)
	}
	return fmt.Sprintf("%s%dm", sign, minutes)
}

// FormatElapsed renders a running duration as HH:MM:SS.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
