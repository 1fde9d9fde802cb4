package output

import (
	"strconv"
	"time"

	"shiftclock/compliance"
	"shiftclock/duration"
	"shiftclock/internal/timeutil"
	"shiftclock/timeentry"
)

// DailyRow is one exported day: the evaluated result plus the span the
// entries cover.
type DailyRow struct {
	Date       string
	FirstStart time.Time
	LastEnd    time.Time
	EntryCount int
	Result     duration.DailyResult
}

// BuildDailyRows evaluates entries per day, ascending by date. An open entry
// ends the span at now.
func BuildDailyRows(entries []timeentry.Entry, profile compliance.Profile, now time.Time) []DailyRow {
	days := duration.ComputeDays(entries, profile, now)
	if len(days) == 0 {
		return []DailyRow{}
	}

	byDay := make(map[string][]timeentry.Entry, len(days))
	for _, entry := range entries {
		byDay[entry.Date] = append(byDay[entry.Date], entry)
	}

	rows := make([]DailyRow, 0, len(days))
	for _, day := range days {
		row := DailyRow{Date: day.Date, Result: day.Result, EntryCount: len(byDay[day.Date])}
		for _, entry := range byDay[day.Date] {
			end := now
			if entry.End != nil {
				end = *entry.End
			}
			if row.FirstStart.IsZero() || entry.Start.Before(row.FirstStart) {
				row.FirstStart = entry.Start
			}
			if end.After(row.LastEnd) {
				row.LastEnd = end
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func entryValues(entry timeentry.Entry) []string {
	end := ""
	minutes := 0
	if entry.End != nil {
		end = entry.End.Format(time.RFC3339)
		minutes = int(entry.Duration(*entry.End) / time.Minute)
	}
	return []string{
		string(entry.ID),
		entry.Date,
		string(entry.Kind),
		entry.Start.Format(time.RFC3339),
		end,
		strconv.Itoa(minutes),
		strconv.FormatBool(entry.IsManual),
		entry.Note,
	}
}

func reportValues(row DailyRow) []string {
	return []string{
		row.Date,
		row.FirstStart.Format("15:04"),
		row.LastEnd.Format("15:04"),
		strconv.Itoa(row.EntryCount),
		strconv.Itoa(row.Result.Gross),
		strconv.Itoa(row.Result.TakenBreak),
		strconv.Itoa(row.Result.RequiredBreak),
		strconv.Itoa(row.Result.DeductedBreak),
		strconv.Itoa(row.Result.Net),
		timeutil.FormatMinutes(row.Result.Net),
		strconv.FormatBool(row.Result.IsCompliant),
		row.Result.Severity.String(),
	}
}
