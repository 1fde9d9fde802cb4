package classify

import (
	"testing"
	"time"

	"shiftclock/timeentry"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
}

func baseExistingEntry() timeentry.Entry {
	end := at(12, 0)
	return timeentry.Entry{
		ID:     timeentry.ID("e1"),
		UserID: "u1",
		Kind:   timeentry.KindWork,
		Start:  at(8, 0),
		End:    &end,
		Date:   "2026-03-02",
		Note:   "morning",
	}
}

func candidate(kind timeentry.Kind, start, end time.Time) timeentry.ManualEntry {
	return timeentry.ManualEntry{
		UserID: "u1",
		Date:   "2026-03-02",
		Kind:   kind,
		Start:  start,
		End:    end,
		Note:   "imported",
	}
}

func TestClassifyImport_Duplicate(t *testing.T) {
	t.Parallel()

	existing := []timeentry.Entry{baseExistingEntry()}
	local := []timeentry.ManualEntry{candidate(timeentry.KindWork, at(8, 0), at(12, 0))}

	toAdd, overlaps, duplicates := ClassifyImport(local, existing)
	if duplicates != 1 {
		t.Fatalf("expected 1 duplicate, got %d", duplicates)
	}
	if len(overlaps) != 0 {
		t.Fatalf("expected no overlaps, got %d", len(overlaps))
	}
	if len(toAdd) != 0 {
		t.Fatalf("expected no add candidates, got %d", len(toAdd))
	}
}

func TestClassifyImport_Overlap(t *testing.T) {
	t.Parallel()

	existing := []timeentry.Entry{baseExistingEntry()}
	local := []timeentry.ManualEntry{candidate(timeentry.KindBreak, at(11, 30), at(12, 15))}

	toAdd, overlaps, duplicates := ClassifyImport(local, existing)
	if duplicates != 0 {
		t.Fatalf("expected 0 duplicates, got %d", duplicates)
	}
	if len(overlaps) != 1 {
		t.Fatalf("expected 1 overlap, got %d", len(overlaps))
	}
	if overlaps[0].Existing.Note != "morning" {
		t.Fatalf("unexpected overlap partner: %+v", overlaps[0].Existing)
	}
	if len(toAdd) != 0 {
		t.Fatalf("expected no add candidates, got %d", len(toAdd))
	}
}

func TestClassifyImport_AdjacentIsAdded(t *testing.T) {
	t.Parallel()

	existing := []timeentry.Entry{baseExistingEntry()}
	local := []timeentry.ManualEntry{candidate(timeentry.KindBreak, at(12, 0), at(12, 30))}

	toAdd, overlaps, duplicates := ClassifyImport(local, existing)
	if duplicates != 0 || len(overlaps) != 0 {
		t.Fatalf("expected clean add, got %d duplicates and %d overlaps", duplicates, len(overlaps))
	}
	if len(toAdd) != 1 {
		t.Fatalf("expected 1 add candidate, got %d", len(toAdd))
	}
}

func TestClassifyImport_DuplicateWithinBatch(t *testing.T) {
	t.Parallel()

	row := candidate(timeentry.KindWork, at(13, 0), at(17, 0))
	toAdd, _, duplicates := ClassifyImport([]timeentry.ManualEntry{row, row}, nil)
	if len(toAdd) != 1 {
		t.Fatalf("expected 1 add candidate, got %d", len(toAdd))
	}
	if duplicates != 1 {
		t.Fatalf("expected 1 duplicate, got %d", duplicates)
	}
}

func TestOverlaps_OpenEntryExtends(t *testing.T) {
	t.Parallel()

	open := timeentry.Entry{UserID: "u1", Kind: timeentry.KindWork, Start: at(7, 0), Date: "2026-03-02"}
	if !Overlaps(open, candidate(timeentry.KindWork, at(20, 0), at(21, 0))) {
		t.Fatalf("expected open entry to overlap later interval")
	}
	if Overlaps(open, candidate(timeentry.KindWork, at(5, 0), at(7, 0))) {
		t.Fatalf("did not expect interval ending at open start to overlap")
	}
}

func TestOverlaps_OtherUserIgnored(t *testing.T) {
	t.Parallel()

	other := baseExistingEntry()
	other.UserID = "u2"
	if Overlaps(other, candidate(timeentry.KindWork, at(9, 0), at(10, 0))) {
		t.Fatalf("did not expect entries of other users to overlap")
	}
	if Equivalent(other, candidate(timeentry.KindWork, at(8, 0), at(12, 0))) {
		t.Fatalf("did not expect entries of other users to be equivalent")
	}
}
