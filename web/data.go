package web

import (
	"time"

	"shiftclock/compliance"
	"shiftclock/duration"
	"shiftclock/internal/timeutil"
	"shiftclock/session"
	"shiftclock/timeentry"
)

type EntryRow struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	Kind         string `json:"kind"`
	Start        string `json:"start"`
	End          string `json:"end,omitempty"`
	DurationMins int    `json:"durationMins"`
	Open         bool   `json:"open"`
	Manual       bool   `json:"manual"`
	Note         string `json:"note,omitempty"`
}

type DayView struct {
	Date    string               `json:"date"`
	Entries []EntryRow           `json:"entries"`
	Result  duration.DailyResult `json:"result"`
	Net     string               `json:"net"`
}

type ActiveView struct {
	ID          string    `json:"id,omitempty"`
	Pending     bool      `json:"pending"`
	Kind        string    `json:"kind"`
	Start       time.Time `json:"start"`
	ElapsedSecs int64     `json:"elapsedSecs"`
	Elapsed     string    `json:"elapsed"`
}

// SessionView is the live state of the controller. Worked and break minutes
// include the running entry.
type SessionView struct {
	UserID     string               `json:"userId"`
	Day        string               `json:"day"`
	State      session.State        `json:"state"`
	Active     *ActiveView          `json:"active,omitempty"`
	WorkedMins int                  `json:"workedMins"`
	BreakMins  int                  `json:"breakMins"`
	Daily      duration.DailyResult `json:"daily"`
}

type MonthDayRow struct {
	Date       string              `json:"date"`
	HasEntries bool                `json:"hasEntries"`
	Gross      int                 `json:"gross"`
	TakenBreak int                 `json:"takenBreak"`
	Deducted   int                 `json:"deducted"`
	Net        int                 `json:"net"`
	Compliant  bool                `json:"compliant"`
	Severity   compliance.Severity `json:"severity"`
}

type MonthView struct {
	Month            string        `json:"month"`
	Days             []MonthDayRow `json:"days"`
	TotalGross       int           `json:"totalGross"`
	TotalTakenBreak  int           `json:"totalTakenBreak"`
	TotalDeducted    int           `json:"totalDeducted"`
	TotalNet         int           `json:"totalNet"`
	NonCompliantDays int           `json:"nonCompliantDays"`
}

func BuildEntryRows(entries []timeentry.Entry, now time.Time) []EntryRow {
	rows := make([]EntryRow, 0, len(entries))
	for _, entry := range entries {
		row := EntryRow{
			ID:           string(entry.ID),
			Date:         entry.Date,
			Kind:         string(entry.Kind),
			Start:        entry.Start.Format("15:04"),
			DurationMins: int(entry.Duration(now) / time.Minute),
			Open:         entry.Open(),
			Manual:       entry.IsManual,
			Note:         entry.Note,
		}
		if entry.End != nil {
			row.End = entry.End.Format("15:04")
		}
		rows = append(rows, row)
	}
	return rows
}

func BuildDayView(date string, entries []timeentry.Entry, profile compliance.Profile, now time.Time) DayView {
	result := duration.ComputeDaily(entries, profile, now)
	return DayView{
		Date:    date,
		Entries: BuildEntryRows(entries, now),
		Result:  result,
		Net:     timeutil.FormatMinutes(result.Net),
	}
}

func BuildSessionView(controller *session.Controller, profile compliance.Profile, now time.Time) SessionView {
	view := SessionView{
		UserID: controller.UserID(),
		Day:    controller.Day(),
		State:  controller.State(),
		Daily:  duration.ComputeDaily(controller.Entries(), profile, now),
	}

	worked := controller.TotalWorkTime()
	breaks := controller.TotalBreakTime()
	if active, ok := controller.ActiveEntry(); ok {
		elapsed := active.Elapsed(now)
		activeView := &ActiveView{
			Kind:        string(active.Kind),
			Start:       active.Start,
			ElapsedSecs: int64(elapsed / time.Second),
			Elapsed:     timeutil.FormatElapsed(elapsed),
		}
		if id, confirmed := active.ID(); confirmed {
			activeView.ID = string(id)
		} else {
			activeView.Pending = true
		}
		view.Active = activeView

		// A session carried over from yesterday is not part of today's totals.
		if active.Start.In(now.Location()).Format(timeutil.DayLayout) >= view.Day {
			if active.Kind == timeentry.KindBreak {
				breaks += elapsed
			} else {
				worked += elapsed
			}
		}
	}
	view.WorkedMins = int(worked / time.Minute)
	view.BreakMins = int(breaks / time.Minute)
	return view
}

// BuildMonthView lists every day of the month, including days without
// entries.
func BuildMonthView(monthStart time.Time, summary duration.MonthlySummary) MonthView {
	byDate := make(map[string]duration.DailyResult, len(summary.Days))
	for _, day := range summary.Days {
		byDate[day.Date] = day.Result
	}

	view := MonthView{
		Month:            summary.Month,
		TotalGross:       summary.TotalGross,
		TotalTakenBreak:  summary.TotalTakenBreak,
		TotalDeducted:    summary.TotalDeducted,
		TotalNet:         summary.TotalNet,
		NonCompliantDays: summary.NonCompliantDays,
	}
	end := monthStart.AddDate(0, 1, 0)
	for day := monthStart; day.Before(end); day = day.AddDate(0, 0, 1) {
		key := day.Format(timeutil.DayLayout)
		row := MonthDayRow{Date: key, Compliant: true}
		if result, ok := byDate[key]; ok {
			row = MonthDayRow{
				Date:       key,
				HasEntries: true,
				Gross:      result.Gross,
				TakenBreak: result.TakenBreak,
				Deducted:   result.DeductedBreak,
				Net:        result.Net,
				Compliant:  result.IsCompliant,
				Severity:   result.Severity,
			}
		}
		view.Days = append(view.Days, row)
	}
	return view
}
