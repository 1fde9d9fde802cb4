package classify

import (
	"time"

	"shiftclock/timeentry"
)

// Overlap pairs an import candidate with the stored entry it collides with.
type Overlap struct {
	Candidate timeentry.ManualEntry
	Existing  timeentry.Entry
}

// ClassifyImport splits candidates into entries to store, overlaps with
// existing entries and a count of exact duplicates. Candidates accepted
// earlier in the same call are treated as existing for later ones.
func ClassifyImport(candidates []timeentry.ManualEntry, existing []timeentry.Entry) ([]timeentry.ManualEntry, []Overlap, int) {
	toAdd := make([]timeentry.ManualEntry, 0, len(candidates))
	overlaps := make([]Overlap, 0)
	duplicates := 0

	known := append([]timeentry.Entry(nil), existing...)
	for _, candidate := range candidates {
		isDuplicate := false
		for _, entry := range known {
			if Equivalent(entry, candidate) {
				isDuplicate = true
				break
			}
		}
		if isDuplicate {
			duplicates++
			continue
		}

		hasOverlap := false
		for _, entry := range known {
			if Overlaps(entry, candidate) {
				overlaps = append(overlaps, Overlap{Candidate: candidate, Existing: entry})
				hasOverlap = true
				break
			}
		}
		if hasOverlap {
			continue
		}

		toAdd = append(toAdd, candidate)
		known = append(known, asEntry(candidate))
	}

	return toAdd, overlaps, duplicates
}

// Equivalent reports whether entry and candidate describe the same closed
// interval of the same kind. Notes are ignored.
func Equivalent(entry timeentry.Entry, candidate timeentry.ManualEntry) bool {
	if entry.Open() || entry.UserID != candidate.UserID || entry.Kind != candidate.Kind {
		return false
	}
	return entry.Start.Equal(candidate.Start) && entry.End.Equal(candidate.End)
}

// Overlaps reports whether the candidate interval intersects entry. An open
// entry extends indefinitely.
func Overlaps(entry timeentry.Entry, candidate timeentry.ManualEntry) bool {
	if entry.UserID != candidate.UserID {
		return false
	}
	if !candidate.Start.Before(entryEnd(entry)) {
		return false
	}
	return entry.Start.Before(candidate.End)
}

func entryEnd(entry timeentry.Entry) time.Time {
	if entry.End == nil {
		return time.Unix(1<<62, 0)
	}
	return *entry.End
}

func asEntry(candidate timeentry.ManualEntry) timeentry.Entry {
	end := candidate.End
	return timeentry.Entry{
		UserID:   candidate.UserID,
		Kind:     candidate.Kind,
		Start:    candidate.Start,
		End:      &end,
		Date:     candidate.Date,
		IsManual: true,
		Note:     candidate.Note,
	}
}
