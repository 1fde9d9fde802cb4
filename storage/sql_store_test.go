package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"shiftclock/timeentry"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "shiftclock_test.db")
	store, err := OpenSQLite(dbPath, WithLocation(time.UTC))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mustParseRFC3339(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return parsed
}

func TestSQLStore_CreateAndCloseEntry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)

	start := mustParseRFC3339(t, "2026-03-05T08:00:00Z")
	id, err := store.Create(ctx, timeentry.Entry{UserID: "u1", Kind: timeentry.KindWork, Start: start, Date: "2026-03-05"})
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if id == "" {
		t.Fatalf("expected generated id")
	}

	open, found, err := store.FindOpen(ctx, "u1")
	if err != nil {
		t.Fatalf("find open: %v", err)
	}
	if !found || open.ID != id {
		t.Fatalf("expected open entry %s, got found=%v id=%s", id, found, open.ID)
	}

	end := mustParseRFC3339(t, "2026-03-05T12:00:00Z")
	if err := store.CloseEntry(ctx, id, end); err != nil {
		t.Fatalf("close entry: %v", err)
	}

	entries, err := store.ListDay(ctx, "u1", "2026-03-05")
	if err != nil {
		t.Fatalf("list day: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	got := entries[0]
	if got.End == nil || !got.End.Equal(end) {
		t.Fatalf("expected end %s, got %v", end, got.End)
	}
	if !got.Start.Equal(start) || got.Kind != timeentry.KindWork || got.IsManual {
		t.Fatalf("unexpected stored entry: %+v", got)
	}

	if _, found, err := store.FindOpen(ctx, "u1"); err != nil || found {
		t.Fatalf("expected no open entry after close, found=%v err=%v", found, err)
	}
}

func TestSQLStore_RejectsSecondOpenEntry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)

	start := mustParseRFC3339(t, "2026-03-05T08:00:00Z")
	if _, err := store.Create(ctx, timeentry.Entry{UserID: "u1", Kind: timeentry.KindWork, Start: start, Date: "2026-03-05"}); err != nil {
		t.Fatalf("create first entry: %v", err)
	}

	_, err := store.Create(ctx, timeentry.Entry{UserID: "u1", Kind: timeentry.KindBreak, Start: start.Add(time.Hour), Date: "2026-03-05"})
	if !errors.Is(err, timeentry.ErrOpenEntryExists) {
		t.Fatalf("expected ErrOpenEntryExists, got %v", err)
	}

	// Another user is unaffected.
	if _, err := store.Create(ctx, timeentry.Entry{UserID: "u2", Kind: timeentry.KindWork, Start: start, Date: "2026-03-05"}); err != nil {
		t.Fatalf("create entry for second user: %v", err)
	}
}

func TestSQLStore_CloseErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)

	start := mustParseRFC3339(t, "2026-03-05T08:00:00Z")
	id, err := store.Create(ctx, timeentry.Entry{UserID: "u1", Kind: timeentry.KindWork, Start: start, Date: "2026-03-05"})
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}

	if err := store.CloseEntry(ctx, "missing", start.Add(time.Hour)); !errors.Is(err, timeentry.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.CloseEntry(ctx, id, start); !timeentry.IsValidation(err) {
		t.Fatalf("expected validation error for end == start, got %v", err)
	}
	if err := store.CloseEntry(ctx, id, start.Add(time.Hour)); err != nil {
		t.Fatalf("close entry: %v", err)
	}
	if err := store.CloseEntry(ctx, id, start.Add(2*time.Hour)); !errors.Is(err, timeentry.ErrEntryClosed) {
		t.Fatalf("expected ErrEntryClosed, got %v", err)
	}
}

func TestSQLStore_ManualEntryLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)

	manual := timeentry.ManualEntry{
		UserID: "u1",
		Date:   "2026-03-06",
		Kind:   timeentry.KindWork,
		Start:  mustParseRFC3339(t, "2026-03-06T09:00:00Z"),
		End:    mustParseRFC3339(t, "2026-03-06T11:30:00Z"),
		Note:   "  forgot to clock in  ",
	}
	id, err := store.CreateManual(ctx, manual)
	if err != nil {
		t.Fatalf("create manual entry: %v", err)
	}

	stored, found, err := store.GetByID(ctx, id)
	if err != nil || !found {
		t.Fatalf("get manual entry: found=%v err=%v", found, err)
	}
	if !stored.IsManual || stored.Note != "forgot to clock in" {
		t.Fatalf("unexpected manual entry: %+v", stored)
	}
	if stored.Duration(time.Time{}) != 150*time.Minute {
		t.Fatalf("expected 150m, got %s", stored.Duration(time.Time{}))
	}

	manual.Kind = timeentry.KindBreak
	manual.End = mustParseRFC3339(t, "2026-03-06T09:45:00Z")
	manual.Note = "was lunch"
	if err := store.UpdateManual(ctx, id, manual); err != nil {
		t.Fatalf("update manual entry: %v", err)
	}
	updated, _, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get updated entry: %v", err)
	}
	if updated.Kind != timeentry.KindBreak || updated.Note != "was lunch" || !updated.End.Equal(manual.End) {
		t.Fatalf("unexpected updated entry: %+v", updated)
	}

	deleted, err := store.Delete(ctx, id)
	if err != nil {
		t.Fatalf("delete entry: %v", err)
	}
	if !deleted {
		t.Fatalf("expected entry to be deleted")
	}
	if _, found, err := store.GetByID(ctx, id); err != nil || found {
		t.Fatalf("expected entry to be gone, found=%v err=%v", found, err)
	}

	deleted, err = store.Delete(ctx, id)
	if err != nil {
		t.Fatalf("delete missing entry: %v", err)
	}
	if deleted {
		t.Fatalf("expected second delete to report false")
	}
}

func TestSQLStore_ManualEntryValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.CreateManual(ctx, timeentry.ManualEntry{
		UserID: "u1",
		Date:   "2026-03-06",
		Kind:   timeentry.KindWork,
		Start:  mustParseRFC3339(t, "2026-03-06T09:00:00Z"),
		End:    mustParseRFC3339(t, "2026-03-06T11:00:00Z"),
		Note:   "   ",
	})
	var validationErr *timeentry.ValidationError
	if !errors.As(err, &validationErr) || validationErr.Field != "note" {
		t.Fatalf("expected note validation error, got %v", err)
	}

	openID, err := store.Create(ctx, timeentry.Entry{UserID: "u1", Kind: timeentry.KindWork, Start: mustParseRFC3339(t, "2026-03-06T12:00:00Z"), Date: "2026-03-06"})
	if err != nil {
		t.Fatalf("create open entry: %v", err)
	}
	err = store.UpdateManual(ctx, openID, timeentry.ManualEntry{
		UserID: "u1",
		Date:   "2026-03-06",
		Kind:   timeentry.KindWork,
		Start:  mustParseRFC3339(t, "2026-03-06T12:00:00Z"),
		End:    mustParseRFC3339(t, "2026-03-06T13:00:00Z"),
		Note:   "edit",
	})
	if !timeentry.IsValidation(err) {
		t.Fatalf("expected validation error when editing the open entry, got %v", err)
	}
}

func TestSQLStore_ListRangeOrdersByDateAndStart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)

	for _, item := range []struct {
		date  string
		start string
		end   string
	}{
		{"2026-03-07", "2026-03-07T13:00:00Z", "2026-03-07T14:00:00Z"},
		{"2026-03-06", "2026-03-06T08:00:00Z", "2026-03-06T09:00:00Z"},
		{"2026-03-07", "2026-03-07T08:00:00Z", "2026-03-07T12:00:00Z"},
		{"2026-04-01", "2026-04-01T08:00:00Z", "2026-04-01T09:00:00Z"},
	} {
		end := mustParseRFC3339(t, item.end)
		if _, err := store.Create(ctx, timeentry.Entry{
			UserID: "u1",
			Kind:   timeentry.KindWork,
			Start:  mustParseRFC3339(t, item.start),
			End:    &end,
			Date:   item.date,
		}); err != nil {
			t.Fatalf("create entry: %v", err)
		}
	}

	entries, err := store.ListRange(ctx, "u1", "2026-03-01", "2026-03-31")
	if err != nil {
		t.Fatalf("list range: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries in March, got %d", len(entries))
	}
	want := []string{"2026-03-06T08:00:00Z", "2026-03-07T08:00:00Z", "2026-03-07T13:00:00Z"}
	for i, entry := range entries {
		if !entry.Start.Equal(mustParseRFC3339(t, want[i])) {
			t.Fatalf("entry %d: expected start %s, got %s", i, want[i], entry.Start)
		}
	}
}

func TestSQLStore_SnapshotCarriesOverOpenEntry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)

	if _, err := store.Create(ctx, timeentry.Entry{
		UserID: "u1",
		Kind:   timeentry.KindWork,
		Start:  mustParseRFC3339(t, "2026-03-05T22:00:00Z"),
		Date:   "2026-03-05",
	}); err != nil {
		t.Fatalf("create entry: %v", err)
	}

	snap, err := store.Snapshot(ctx, "u1", "2026-03-06")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Entries) != 0 {
		t.Fatalf("expected no entries filed on the next day, got %d", len(snap.Entries))
	}
	if snap.Carryover == nil || snap.Carryover.Date != "2026-03-05" {
		t.Fatalf("expected carryover from previous day, got %+v", snap.Carryover)
	}

	sameDay, err := store.Snapshot(ctx, "u1", "2026-03-05")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if sameDay.Carryover != nil || len(sameDay.Entries) != 1 {
		t.Fatalf("expected the open entry among the day's entries, got %+v", sameDay)
	}
}

func TestSQLStore_SubscribeDeliversSnapshots(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := openTestStore(t)

	updates, err := store.Subscribe(ctx, "u1", "2026-03-05")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	initial := receiveSnapshot(t, updates)
	if len(initial.Entries) != 0 {
		t.Fatalf("expected empty initial snapshot, got %d entries", len(initial.Entries))
	}

	if _, err := store.Create(ctx, timeentry.Entry{
		UserID: "u1",
		Kind:   timeentry.KindWork,
		Start:  mustParseRFC3339(t, "2026-03-05T08:00:00Z"),
		Date:   "2026-03-05",
	}); err != nil {
		t.Fatalf("create entry: %v", err)
	}

	pushed := receiveSnapshot(t, updates)
	if len(pushed.Entries) != 1 || !pushed.Entries[0].Open() {
		t.Fatalf("expected pushed snapshot with one open entry, got %+v", pushed.Entries)
	}

	cancel()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-updates:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("expected subscription channel to close after cancel")
		}
	}
}

func receiveSnapshot(t *testing.T, updates <-chan timeentry.Snapshot) timeentry.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-updates:
		if !ok {
			t.Fatalf("subscription closed unexpectedly")
		}
		return snap
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for snapshot")
	}
	return timeentry.Snapshot{}
}

func TestSQLStore_DeleteAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)

	for _, day := range []string{"2026-03-05", "2026-03-06"} {
		start := mustParseRFC3339(t, day+"T08:00:00Z")
		end := start.Add(time.Hour)
		if _, err := store.Create(ctx, timeentry.Entry{UserID: "u1", Kind: timeentry.KindWork, Start: start, End: &end, Date: day}); err != nil {
			t.Fatalf("create entry: %v", err)
		}
	}

	deleted, err := store.DeleteAll(ctx)
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted rows, got %d", deleted)
	}
}

func TestRebindForPostgres(t *testing.T) {
	t.Parallel()

	store := &SQLStore{driver: DriverPostgres}
	got := store.rebind("SELECT * FROM t WHERE a = ? AND b = ?;")
	if got != "SELECT * FROM t WHERE a = $1 AND b = $2;" {
		t.Fatalf("unexpected rebound query: %s", got)
	}

	sqliteStore := &SQLStore{driver: DriverSQLite}
	if sqliteStore.rebind("a = ?") != "a = ?" {
		t.Fatalf("sqlite queries must not be rebound")
	}
}

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	if _, err := Open("mysql", "x"); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
	if _, err := Open("sqlite", "  "); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}
