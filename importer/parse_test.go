package importer

import (
	"testing"
	"time"
)

func TestParseMinutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "empty", input: "", want: 0},
		{name: "integer minutes", input: "8", want: 8},
		{name: "decimal dot", input: "7.5", want: 8},
		{name: "decimal comma", input: "7,4", want: 7},
		{name: "negative", input: "-1", wantErr: true},
		{name: "invalid", input: "abc", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseMinutes(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tc.input, err)
			}
			if got != tc.want {
				t.Fatalf("unexpected minutes for %q: want %d, got %d", tc.input, tc.want, got)
			}
		})
	}
}

func TestParseTimeOnDay(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{name: "clock", input: "08:30", want: time.Date(2026, 3, 5, 8, 30, 0, 0, time.UTC)},
		{name: "clock with seconds", input: "17:05:09", want: time.Date(2026, 3, 5, 17, 5, 9, 0, time.UTC)},
		{name: "am pm", input: "01:15 pm", want: time.Date(2026, 3, 5, 13, 15, 0, 0, time.UTC)},
		{name: "full timestamp", input: "2026-03-06 07:00", want: time.Date(2026, 3, 6, 7, 0, 0, 0, time.UTC)},
		{name: "rfc3339", input: "2026-03-05T09:00:00Z", want: time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseTimeOnDay(day, tc.input)
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tc.input, err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("unexpected time for %q: want %s, got %s", tc.input, tc.want, got)
			}
		})
	}

	if _, err := parseTimeOnDay(day, "later"); err == nil {
		t.Fatalf("expected error for unparseable time")
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"2026-03-05", "05.03.2026", "5.3.2026"} {
		got, err := parseDate(input, time.UTC)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", input, err)
		}
		if got.Format("2006-01-02") != "2026-03-05" {
			t.Fatalf("unexpected date for %q: %s", input, got)
		}
	}
	if _, err := parseDate("", time.UTC); err == nil {
		t.Fatalf("expected error for missing date")
	}
}

func TestParseGermanDecimalHoursToMinutes(t *testing.T) {
	t.Parallel()

	got, err := parseGermanDecimalHoursToMinutes("1,5")
	if err != nil || got != 90 {
		t.Fatalf("expected 90 minutes, got %d err=%v", got, err)
	}
	if _, err := parseGermanDecimalHoursToMinutes("-2"); err == nil {
		t.Fatalf("expected error for negative hours")
	}
}
