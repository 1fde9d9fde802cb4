// Package duration derives the payable work time of a day from its entries.
package duration

import (
	"sort"
	"time"

	"shiftclock/compliance"
	"shiftclock/timeentry"
)

// DailyResult is derived per user-day and never persisted. All values are
// whole minutes.
type DailyResult struct {
	Gross         int                 `json:"gross"`
	ExplicitBreak int                 `json:"explicitBreak"`
	Gaps          int                 `json:"gaps"`
	TakenBreak    int                 `json:"takenBreak"`
	RequiredBreak int                 `json:"requiredBreak"`
	DeductedBreak int                 `json:"deductedBreak"`
	Net           int                 `json:"net"`
	IsCompliant   bool                `json:"isCompliant"`
	Severity      compliance.Severity `json:"severity"`
}

type interval struct {
	start time.Time
	end   time.Time
}

// ComputeDaily evaluates one day's entries for profile. Open entries are
// measured against now, so the result for a day with an active session
// changes as now advances. Overlapping work entries are summed, not merged.
func ComputeDaily(entries []timeentry.Entry, profile compliance.Profile, now time.Time) DailyResult {
	var (
		work       time.Duration
		breaks     time.Duration
		closedWork = make([]timeentry.Entry, 0, len(entries))
		breakSpans = make([]interval, 0, len(entries))
	)

	for _, entry := range entries {
		switch entry.Kind {
		case timeentry.KindWork:
			work += entry.Duration(now)
			if !entry.Open() && entry.End.After(entry.Start) {
				closedWork = append(closedWork, entry)
			}
		case timeentry.KindBreak:
			span := entry.Duration(now)
			breaks += span
			if span > 0 {
				breakSpans = append(breakSpans, interval{start: entry.Start, end: entry.Start.Add(span)})
			}
		}
	}

	result := DailyResult{
		Gross:         wholeMinutes(work),
		ExplicitBreak: wholeMinutes(breaks),
		Gaps:          wholeMinutes(implicitGaps(closedWork, breakSpans)),
	}
	result.TakenBreak = result.ExplicitBreak + result.Gaps

	eval := compliance.Evaluate(profile, result.Gross, result.TakenBreak)
	result.RequiredBreak = eval.RequiredBreak
	result.DeductedBreak = eval.DeductedBreak
	result.IsCompliant = eval.Compliant
	result.Severity = eval.Severity
	result.Net = result.Gross - result.DeductedBreak
	return result
}

// implicitGaps sums the time between consecutive closed work entries that is
// not covered by a logged break, so a toggled break is not counted twice.
func implicitGaps(closedWork []timeentry.Entry, breakSpans []interval) time.Duration {
	if len(closedWork) < 2 {
		return 0
	}
	sorted := append([]timeentry.Entry(nil), closedWork...)
	timeentry.SortByStart(sorted)

	total := time.Duration(0)
	for i := 1; i < len(sorted); i++ {
		gapStart := *sorted[i-1].End
		gapEnd := sorted[i].Start
		if !gapEnd.After(gapStart) {
			continue
		}
		gap := gapEnd.Sub(gapStart) - mergedCoverageWithinWindow(breakSpans, gapStart, gapEnd)
		if gap > 0 {
			total += gap
		}
	}
	return total
}

func mergedCoverageWithinWindow(intervals []interval, windowStart, windowEnd time.Time) time.Duration {
	if len(intervals) == 0 || !windowEnd.After(windowStart) {
		return 0
	}

	clipped := make([]interval, 0, len(intervals))
	for _, candidate := range intervals {
		start := maxTime(candidate.start, windowStart)
		end := minTime(candidate.end, windowEnd)
		if end.After(start) {
			clipped = append(clipped, interval{start: start, end: end})
		}
	}
	if len(clipped) == 0 {
		return 0
	}

	sort.Slice(clipped, func(i, j int) bool {
		return clipped[i].start.Before(clipped[j].start)
	})

	currentStart := clipped[0].start
	currentEnd := clipped[0].end
	covered := time.Duration(0)
	for _, candidate := range clipped[1:] {
		if candidate.start.After(currentEnd) {
			covered += currentEnd.Sub(currentStart)
			currentStart = candidate.start
			currentEnd = candidate.end
			continue
		}
		if candidate.end.After(currentEnd) {
			currentEnd = candidate.end
		}
	}
	covered += currentEnd.Sub(currentStart)
	return covered
}

func wholeMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
