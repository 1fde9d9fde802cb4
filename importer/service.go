package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"shiftclock/internal/classify"
	"shiftclock/timeentry"
)

// Sink stores mapped entries. The SQL store satisfies it.
type Sink interface {
	CreateManual(ctx context.Context, entry timeentry.ManualEntry) (timeentry.ID, error)
}

// DayLister is implemented by sinks that can report stored entries. When the
// sink provides it, rows already stored are skipped and rows overlapping
// stored entries are reported instead of written.
type DayLister interface {
	ListDay(ctx context.Context, userID, day string) ([]timeentry.Entry, error)
}

type RowError struct {
	File      string
	RowNumber int
	Err       error
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s row %d: %v", filepath.Base(e.File), e.RowNumber, e.Err)
}

type Result struct {
	FilesProcessed int
	RowsRead       int
	RowsMapped     int
	RowsSkipped    int
	RowsInvalid    int
	RowsStored     int
	RowsDuplicate  int
	RowsOverlap    int
	Errors         []RowError
	Entries        []timeentry.ManualEntry
}

type RunOptions struct {
	UserID   string
	Format   string
	Location *time.Location
	DryRun   bool
	// StopOnError aborts on the first invalid row instead of collecting it.
	StopOnError bool
	Logger      zerolog.Logger
}

// Run reads every file, maps rows to manual entries and stores them through
// sink unless DryRun is set. Invalid rows are collected in Result.Errors;
// storage failures abort the run.
func Run(ctx context.Context, paths []string, sink Sink, options RunOptions) (*Result, error) {
	if strings.TrimSpace(options.UserID) == "" {
		return nil, fmt.Errorf("import requires a user id")
	}
	loc := options.Location
	if loc == nil {
		loc = time.Local
	}

	result := &Result{Entries: make([]timeentry.ManualEntry, 0, 64)}
	lister, _ := sink.(DayLister)
	known := make(map[string][]timeentry.Entry)
	for _, path := range paths {
		reader, err := ReaderForPath(path, options.Format)
		if err != nil {
			return nil, err
		}

		records, err := reader.Read(path)
		if err != nil {
			return nil, err
		}

		result.FilesProcessed++
		result.RowsRead += len(records)
		for _, record := range records {
			entry, ok, mapErr := MapRecord(record, options.UserID, loc)
			if mapErr == nil && ok {
				mapErr = timeentry.ValidateManual(entry)
			}
			if mapErr != nil {
				rowErr := RowError{File: path, RowNumber: record.RowNumber, Err: mapErr}
				if options.StopOnError {
					return nil, rowErr
				}
				result.RowsInvalid++
				result.Errors = append(result.Errors, rowErr)
				options.Logger.Warn().Str("file", path).Int("row", record.RowNumber).Err(mapErr).Msg("skipping invalid row")
				continue
			}
			if !ok {
				result.RowsSkipped++
				continue
			}

			result.RowsMapped++
			result.Entries = append(result.Entries, entry)
			if lister != nil {
				existing, loaded := known[entry.Date]
				if !loaded {
					existing, err = lister.ListDay(ctx, options.UserID, entry.Date)
					if err != nil {
						return result, fmt.Errorf("load stored entries for %s: %w", entry.Date, err)
					}
				}
				toAdd, overlaps, duplicates := classify.ClassifyImport([]timeentry.ManualEntry{entry}, existing)
				if duplicates > 0 {
					result.RowsDuplicate++
					known[entry.Date] = existing
					continue
				}
				if len(overlaps) > 0 {
					result.RowsOverlap++
					known[entry.Date] = existing
					overlap := overlaps[0].Existing
					result.Errors = append(result.Errors, RowError{
						File:      path,
						RowNumber: record.RowNumber,
						Err:       fmt.Errorf("overlaps stored %s entry %s-%s", overlap.Kind, overlap.Start.In(loc).Format("15:04"), formatEnd(overlap, loc)),
					})
					continue
				}
				existing = append(existing, storedView(toAdd[0]))
				known[entry.Date] = existing
			}

			if options.DryRun || sink == nil {
				continue
			}

			if _, err := sink.CreateManual(ctx, entry); err != nil {
				var validationErr *timeentry.ValidationError
				if errors.As(err, &validationErr) && !options.StopOnError {
					result.RowsInvalid++
					result.Errors = append(result.Errors, RowError{File: path, RowNumber: record.RowNumber, Err: err})
					continue
				}
				return result, fmt.Errorf("store row %d of %s: %w", record.RowNumber, path, err)
			}
			result.RowsStored++
		}
	}

	return result, nil
}

func storedView(entry timeentry.ManualEntry) timeentry.Entry {
	end := entry.End
	return timeentry.Entry{
		UserID:   entry.UserID,
		Kind:     entry.Kind,
		Start:    entry.Start,
		End:      &end,
		Date:     entry.Date,
		IsManual: true,
		Note:     entry.Note,
	}
}

func formatEnd(entry timeentry.Entry, loc *time.Location) string {
	if entry.End == nil {
		return "running"
	}
	return entry.End.In(loc).Format("15:04")
}
