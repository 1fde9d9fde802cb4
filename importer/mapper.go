package importer

import (
	"fmt"
	"strings"
	"time"

	"shiftclock/internal/timeutil"
	"shiftclock/timeentry"
)

// Column aliases accepted for each field, compared after header
// normalization.
var (
	dateColumns     = []string{"date", "datum", "day"}
	kindColumns     = []string{"kind", "type", "art"}
	startColumns    = []string{"start", "from", "von", "begin"}
	endColumns      = []string{"end", "to", "bis"}
	minutesColumns  = []string{"minutes", "duration"}
	hoursColumns    = []string{"hours", "stunden"}
	noteColumns     = []string{"note", "comment", "description", "beschreibung"}
)

// MapRecord converts one row into a manual entry. Blank rows are skipped with
// ok=false. An end clock earlier than the start rolls to the next day. The
// note is taken as is; an empty one fails ValidateManual.
func MapRecord(record Record, userID string, loc *time.Location) (timeentry.ManualEntry, bool, error) {
	if record.Blank() {
		return timeentry.ManualEntry{}, false, nil
	}

	day, err := parseDate(record.Get(dateColumns...), loc)
	if err != nil {
		return timeentry.ManualEntry{}, false, fmt.Errorf("row %d: %w", record.RowNumber, err)
	}

	kind := timeentry.KindWork
	if raw := record.Get(kindColumns...); raw != "" {
		kind, err = parseKindAlias(raw)
		if err != nil {
			return timeentry.ManualEntry{}, false, fmt.Errorf("row %d: %w", record.RowNumber, err)
		}
	}

	start, err := parseTimeOnDay(day, record.Get(startColumns...))
	if err != nil {
		return timeentry.ManualEntry{}, false, fmt.Errorf("row %d: parse start: %w", record.RowNumber, err)
	}

	end, err := resolveEnd(record, day, start)
	if err != nil {
		return timeentry.ManualEntry{}, false, fmt.Errorf("row %d: %w", record.RowNumber, err)
	}

	return timeentry.ManualEntry{
		UserID: userID,
		Date:   day.Format(timeutil.DayLayout),
		Kind:   kind,
		Start:  start,
		End:    end,
		Note:   record.Get(noteColumns...),
	}, true, nil
}

func resolveEnd(record Record, day, start time.Time) (time.Time, error) {
	if raw := record.Get(endColumns...); raw != "" {
		end, err := parseTimeOnDay(day, raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse end: %w", err)
		}
		if end.Before(start) && timeutil.SameDay(end, start) {
			end = end.AddDate(0, 0, 1)
		}
		return end, nil
	}

	minutes, err := parseMinutes(record.Get(minutesColumns...))
	if err != nil {
		return time.Time{}, err
	}
	if minutes == 0 {
		minutes, err = parseGermanDecimalHoursToMinutes(record.Get(hoursColumns...))
		if err != nil {
			return time.Time{}, err
		}
	}
	if minutes == 0 {
		return time.Time{}, fmt.Errorf("missing end or duration")
	}
	return start.Add(time.Duration(minutes) * time.Minute), nil
}

func parseKindAlias(raw string) (timeentry.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "arbeit", "arbeitszeit":
		return timeentry.KindWork, nil
	case "pausenzeit":
		return timeentry.KindBreak, nil
	}
	return timeentry.ParseKind(raw)
}
