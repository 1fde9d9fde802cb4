package importer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"2.1.2006",
}

var clockLayouts = []string{
	"15:04",
	"15:04:05",
	"03:04 PM",
	"3:04 PM",
}

func parseDate(raw string, loc *time.Location) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("missing date")
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.ParseInLocation(layout, value, loc); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format: %q", value)
}

// parseTimeOnDay accepts a bare clock time, which is placed on day, or a
// full timestamp.
func parseTimeOnDay(day time.Time, raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("missing time")
	}

	for _, layout := range clockLayouts {
		if clock, err := time.Parse(layout, strings.ToUpper(value)); err == nil {
			return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), clock.Second(), 0, day.Location()), nil
		}
	}

	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	for _, layout := range []string{"2006-01-02 15:04", "02.01.2006 15:04"} {
		if parsed, err := time.ParseInLocation(layout, value, day.Location()); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format: %q", value)
}

func parseGermanDecimalHoursToMinutes(raw string) (int, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0, nil
	}
	if strings.Contains(cleaned, ",") {
		if strings.Contains(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		}
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	hours, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse hours %q: %w", raw, err)
	}

	minutes := int(math.Round(hours * 60))
	if minutes < 0 {
		return 0, fmt.Errorf("hours must not be negative")
	}
	return minutes, nil
}

func parseMinutes(raw string) (int, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0, nil
	}
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	minutes, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse minutes %q: %w", raw, err)
	}

	rounded := int(math.Round(minutes))
	if rounded < 0 {
		return 0, fmt.Errorf("minutes must not be negative")
	}
	return rounded, nil
}
