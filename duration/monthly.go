package duration

import (
	"sort"
	"time"

	"shiftclock/compliance"
	"shiftclock/timeentry"
)

type DayResult struct {
	Date   string      `json:"date"`
	Result DailyResult `json:"result"`
}

type MonthlySummary struct {
	Month            string      `json:"month"`
	Days             []DayResult `json:"days"`
	TotalGross       int         `json:"totalGross"`
	TotalTakenBreak  int         `json:"totalTakenBreak"`
	TotalDeducted    int         `json:"totalDeducted"`
	TotalNet         int         `json:"totalNet"`
	NonCompliantDays int         `json:"nonCompliantDays"`
}

// ComputeDays groups entries by their filed date and computes every day.
// Days are returned in ascending order.
func ComputeDays(entries []timeentry.Entry, profile compliance.Profile, now time.Time) []DayResult {
	byDay := make(map[string][]timeentry.Entry)
	for _, entry := range entries {
		byDay[entry.Date] = append(byDay[entry.Date], entry)
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	out := make([]DayResult, 0, len(days))
	for _, day := range days {
		out = append(out, DayResult{Date: day, Result: ComputeDaily(byDay[day], profile, now)})
	}
	return out
}

// BuildMonthlySummary sums per-day results. Days are sorted by date.
func BuildMonthlySummary(month string, days []DayResult) MonthlySummary {
	sorted := append([]DayResult(nil), days...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date < sorted[j].Date
	})

	summary := MonthlySummary{Month: month, Days: sorted}
	for _, day := range sorted {
		summary.TotalGross += day.Result.Gross
		summary.TotalTakenBreak += day.Result.TakenBreak
		summary.TotalDeducted += day.Result.DeductedBreak
		summary.TotalNet += day.Result.Net
		if !day.Result.IsCompliant {
			summary.NonCompliantDays++
		}
	}
	return summary
}
