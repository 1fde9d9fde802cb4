package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"shiftclock/timeentry"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SQLStore is the time entry repository. SQLite and PostgreSQL share one
// schema; queries are written with ? placeholders and rebound for postgres.
type SQLStore struct {
	db     *sql.DB
	driver string
	loc    *time.Location
	now    func() time.Time
	feed   *Feed
}

type Option func(*SQLStore)

func WithLocation(loc *time.Location) Option {
	return func(s *SQLStore) {
		s.loc = loc
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *SQLStore) {
		s.now = now
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *SQLStore) {
		s.feed.log = logger
	}
}

func OpenSQLite(path string, opts ...Option) (*SQLStore, error) {
	return Open(DriverSQLite, path, opts...)
}

func Open(driver, dsn string, opts ...Option) (*SQLStore, error) {
	driverName := ""
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite:
		driver, driverName = DriverSQLite, "sqlite"
	case DriverPostgres, "pgx":
		driver, driverName = DriverPostgres, "pgx"
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: sqlite, postgres)", driver)
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("database dsn is empty")
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One connection keeps writes serialized and lets :memory: work.
		db.SetMaxOpenConns(1)
	}

	store := &SQLStore{
		db:     db,
		driver: driver,
		loc:    time.Local,
		now:    time.Now,
	}
	store.feed = NewFeed(store.Snapshot)
	for _, opt := range opts {
		opt(store)
	}

	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) ensureSchema() error {
	// The partial unique index is the server-side single-active-entry guard:
	// two clients racing startWork cannot both insert an open entry.
	statements := []string{
		`CREATE TABLE IF NOT EXISTS time_entries (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	kind TEXT NOT NULL CHECK(kind IN ('work', 'break')),
	start_ms BIGINT NOT NULL,
	end_ms BIGINT,
	entry_date TEXT NOT NULL,
	is_manual INTEGER NOT NULL DEFAULT 0,
	note TEXT NOT NULL DEFAULT '',
	created_at_ms BIGINT NOT NULL,
	updated_at_ms BIGINT NOT NULL,
	CHECK(end_ms IS NULL OR end_ms > start_ms)
);`,
		`CREATE INDEX IF NOT EXISTS ix_time_entries_user_date ON time_entries(user_id, entry_date, start_ms);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_time_entries_open ON time_entries(user_id) WHERE end_ms IS NULL;`,
	}
	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

const selectColumns = `
SELECT
	id,
	user_id,
	kind,
	start_ms,
	end_ms,
	entry_date,
	is_manual,
	note,
	created_at_ms,
	updated_at_ms
FROM time_entries`

// Create inserts a new entry and returns its ID. Inserting a second open
// entry for a user fails with timeentry.ErrOpenEntryExists.
func (s *SQLStore) Create(ctx context.Context, entry timeentry.Entry) (timeentry.ID, error) {
	if !entry.Kind.Valid() {
		return "", &timeentry.ValidationError{Field: "kind", Reason: "must be work or break"}
	}
	if entry.Start.IsZero() {
		return "", &timeentry.ValidationError{Field: "start", Reason: "is required"}
	}
	if entry.End != nil && !entry.End.After(entry.Start) {
		return "", &timeentry.ValidationError{Field: "end", Reason: "must be after start"}
	}
	if strings.TrimSpace(entry.Date) == "" {
		entry.Date = entry.Start.In(s.loc).Format("2006-01-02")
	}

	now := s.now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = now
	}
	entry.ID = timeentry.ID(uuid.NewString())

	const insertStmt = `
INSERT INTO time_entries (
	id,
	user_id,
	kind,
	start_ms,
	end_ms,
	entry_date,
	is_manual,
	note,
	created_at_ms,
	updated_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	_, err := s.db.ExecContext(
		ctx,
		s.rebind(insertStmt),
		string(entry.ID),
		entry.UserID,
		string(entry.Kind),
		entry.Start.UnixMilli(),
		nullableMillis(entry.End),
		entry.Date,
		boolToInt(entry.IsManual),
		entry.Note,
		entry.CreatedAt.UnixMilli(),
		entry.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		if entry.End == nil && isUniqueViolation(err) {
			return "", timeentry.ErrOpenEntryExists
		}
		return "", &timeentry.PersistenceError{Op: "insert time entry", Err: err}
	}

	s.feed.Publish(ctx, entry.UserID)
	return entry.ID, nil
}

// CreateManual validates and stores an already closed entry.
func (s *SQLStore) CreateManual(ctx context.Context, manual timeentry.ManualEntry) (timeentry.ID, error) {
	if err := timeentry.ValidateManual(manual); err != nil {
		return "", err
	}
	return s.Create(ctx, manual.Entry())
}

// CloseEntry sets the end of an open entry. Nothing but end and updated_at
// changes.
func (s *SQLStore) CloseEntry(ctx context.Context, id timeentry.ID, end time.Time) error {
	existing, found, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return timeentry.ErrNotFound
	}
	if !existing.Open() {
		return timeentry.ErrEntryClosed
	}
	if !end.After(existing.Start) {
		return &timeentry.ValidationError{Field: "end", Reason: "must be after start"}
	}

	const updateStmt = `
UPDATE time_entries
SET end_ms = ?,
	updated_at_ms = ?
WHERE id = ? AND end_ms IS NULL;`

	res, err := s.db.ExecContext(ctx, s.rebind(updateStmt), end.UnixMilli(), s.now().UnixMilli(), string(id))
	if err != nil {
		return &timeentry.PersistenceError{Op: fmt.Sprintf("close time entry %s", id), Err: err}
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return &timeentry.PersistenceError{Op: "read closed row count", Err: err}
	}
	if rowsAffected == 0 {
		return timeentry.ErrEntryClosed
	}

	s.feed.Publish(ctx, existing.UserID)
	return nil
}

// UpdateManual replaces the times, kind and note of a closed entry and marks
// it manual. Open entries belong to the session controller and are rejected.
func (s *SQLStore) UpdateManual(ctx context.Context, id timeentry.ID, manual timeentry.ManualEntry) error {
	if err := timeentry.ValidateManual(manual); err != nil {
		return err
	}
	existing, found, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !found || existing.UserID != manual.UserID {
		return timeentry.ErrNotFound
	}
	if existing.Open() {
		return &timeentry.ValidationError{Field: "id", Reason: "refers to the active session and cannot be edited"}
	}

	const updateStmt = `
UPDATE time_entries
SET kind = ?,
	start_ms = ?,
	end_ms = ?,
	entry_date = ?,
	is_manual = 1,
	note = ?,
	updated_at_ms = ?
WHERE id = ?;`

	res, err := s.db.ExecContext(
		ctx,
		s.rebind(updateStmt),
		string(manual.Kind),
		manual.Start.UnixMilli(),
		manual.End.UnixMilli(),
		manual.Date,
		strings.TrimSpace(manual.Note),
		s.now().UnixMilli(),
		string(id),
	)
	if err != nil {
		return &timeentry.PersistenceError{Op: fmt.Sprintf("update time entry %s", id), Err: err}
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return &timeentry.PersistenceError{Op: "read updated row count", Err: err}
	}
	if rowsAffected == 0 {
		return timeentry.ErrNotFound
	}

	s.feed.Publish(ctx, existing.UserID)
	return nil
}

// Delete removes the entry permanently. It reports false when no row
// matched.
func (s *SQLStore) Delete(ctx context.Context, id timeentry.ID) (bool, error) {
	existing, found, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM time_entries WHERE id = ?;`), string(id))
	if err != nil {
		return false, &timeentry.PersistenceError{Op: fmt.Sprintf("delete time entry %s", id), Err: err}
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, &timeentry.PersistenceError{Op: "read deleted row count", Err: err}
	}
	if rowsAffected > 0 {
		s.feed.Publish(ctx, existing.UserID)
	}
	return rowsAffected > 0, nil
}

// DeleteAll removes every stored entry and returns the number of deleted
// rows.
func (s *SQLStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM time_entries;`)
	if err != nil {
		return 0, &timeentry.PersistenceError{Op: "delete all time entries", Err: err}
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, &timeentry.PersistenceError{Op: "read deleted row count", Err: err}
	}
	return rowsAffected, nil
}

// GetByID returns one entry by ID.
func (s *SQLStore) GetByID(ctx context.Context, id timeentry.ID) (timeentry.Entry, bool, error) {
	if strings.TrimSpace(string(id)) == "" {
		return timeentry.Entry{}, false, &timeentry.ValidationError{Field: "id", Reason: "is required"}
	}

	row := s.db.QueryRowContext(ctx, s.rebind(selectColumns+` WHERE id = ?;`), string(id))
	entry, err := s.scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return timeentry.Entry{}, false, nil
		}
		return timeentry.Entry{}, false, &timeentry.PersistenceError{Op: fmt.Sprintf("query time entry %s", id), Err: err}
	}
	return entry, true, nil
}

// ListDay returns the entries filed under day, ascending by start.
func (s *SQLStore) ListDay(ctx context.Context, userID, day string) ([]timeentry.Entry, error) {
	return s.ListRange(ctx, userID, day, day)
}

// ListRange returns the entries filed between fromDay and toDay inclusive.
func (s *SQLStore) ListRange(ctx context.Context, userID, fromDay, toDay string) ([]timeentry.Entry, error) {
	const where = `
WHERE user_id = ? AND entry_date >= ? AND entry_date <= ?
ORDER BY entry_date, start_ms, id;`

	rows, err := s.db.QueryContext(ctx, s.rebind(selectColumns+where), userID, fromDay, toDay)
	if err != nil {
		return nil, &timeentry.PersistenceError{Op: "query time entries", Err: err}
	}
	defer rows.Close()

	entries := make([]timeentry.Entry, 0, 32)
	for rows.Next() {
		entry, err := s.scanEntry(rows)
		if err != nil {
			return nil, &timeentry.PersistenceError{Op: "scan time entry", Err: err}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, &timeentry.PersistenceError{Op: "iterate time entries", Err: err}
	}
	return entries, nil
}

// FindOpen returns the user's open entry regardless of its date.
func (s *SQLStore) FindOpen(ctx context.Context, userID string) (timeentry.Entry, bool, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(selectColumns+` WHERE user_id = ? AND end_ms IS NULL ORDER BY start_ms DESC LIMIT 1;`), userID)
	entry, err := s.scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return timeentry.Entry{}, false, nil
		}
		return timeentry.Entry{}, false, &timeentry.PersistenceError{Op: "query open time entry", Err: err}
	}
	return entry, true, nil
}

// Snapshot reads the full entry set of a user-day. An entry left open on an
// earlier day is attached as carryover.
func (s *SQLStore) Snapshot(ctx context.Context, userID, day string) (timeentry.Snapshot, error) {
	entries, err := s.ListDay(ctx, userID, day)
	if err != nil {
		return timeentry.Snapshot{}, err
	}
	snap := timeentry.Snapshot{UserID: userID, Day: day, Entries: entries}

	open, found, err := s.FindOpen(ctx, userID)
	if err != nil {
		return timeentry.Snapshot{}, err
	}
	if found && open.Date < day {
		snap.Carryover = &open
	}
	return snap, nil
}

// Subscribe streams snapshots of the user-day; see Feed.
func (s *SQLStore) Subscribe(ctx context.Context, userID, day string) (<-chan timeentry.Snapshot, error) {
	return s.feed.Subscribe(ctx, userID, day)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLStore) scanEntry(row rowScanner) (timeentry.Entry, error) {
	var (
		entry     timeentry.Entry
		id        string
		kind      string
		startMs   int64
		endMs     sql.NullInt64
		isManual  int
		createdMs int64
		updatedMs int64
	)
	if err := row.Scan(&id, &entry.UserID, &kind, &startMs, &endMs, &entry.Date, &isManual, &entry.Note, &createdMs, &updatedMs); err != nil {
		return timeentry.Entry{}, err
	}

	entry.ID = timeentry.ID(id)
	entry.Kind = timeentry.Kind(kind)
	entry.Start = time.UnixMilli(startMs).In(s.loc)
	if endMs.Valid {
		end := time.UnixMilli(endMs.Int64).In(s.loc)
		entry.End = &end
	}
	entry.IsManual = isManual != 0
	entry.CreatedAt = time.UnixMilli(createdMs).In(s.loc)
	entry.UpdatedAt = time.UnixMilli(updatedMs).In(s.loc)
	return entry, nil
}

func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE")
	}
	return false
}

func nullableMillis(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UnixMilli()
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
