// Package timeentry holds the work/break interval record shared by the
// session controller, the duration calculator and the repository.
package timeentry

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ID is the repository-assigned identifier of an entry.
type ID string

type Kind string

const (
	KindWork  Kind = "work"
	KindBreak Kind = "break"
)

func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "work", "w":
		return KindWork, nil
	case "break", "b", "pause":
		return KindBreak, nil
	default:
		return "", fmt.Errorf("unsupported entry kind: %q (supported: work, break)", value)
	}
}

// Opposite returns the kind a break toggle switches to.
func (k Kind) Opposite() Kind {
	if k == KindBreak {
		return KindWork
	}
	return KindBreak
}

func (k Kind) Valid() bool {
	return k == KindWork || k == KindBreak
}

// Entry is one contiguous interval of work or break. End is nil while the
// entry is open.
type Entry struct {
	ID        ID
	UserID    string
	Kind      Kind
	Start     time.Time
	End       *time.Time
	Date      string
	IsManual  bool
	Note      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e Entry) Open() bool {
	return e.End == nil
}

// Duration measures the entry against now when it is still open. Entries
// whose end does not follow their start count as zero.
func (e Entry) Duration(now time.Time) time.Duration {
	end := now
	if e.End != nil {
		end = *e.End
	}
	if !end.After(e.Start) {
		return 0
	}
	return end.Sub(e.Start)
}

// Closed returns a copy of e ending at end.
func (e Entry) Closed(end time.Time) Entry {
	closed := e
	closed.End = &end
	closed.UpdatedAt = end
	return closed
}

// SortByStart orders entries ascending by start time; ties keep the shorter
// (or closed) entry first.
func SortByStart(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Start.Equal(entries[j].Start) {
			if entries[i].End == nil || entries[j].End == nil {
				return entries[j].End == nil && entries[i].End != nil
			}
			return entries[i].End.Before(*entries[j].End)
		}
		return entries[i].Start.Before(entries[j].Start)
	})
}

// Snapshot is the full entry set of one user-day as delivered by the
// repository. Carryover is an entry still open from an earlier date; it
// decides the active session but never counts towards Day.
type Snapshot struct {
	UserID    string
	Day       string
	Entries   []Entry
	Carryover *Entry
}

// Open returns the open entry of the snapshot, looking at the day's entries
// first and the carryover second.
func (s Snapshot) Open() (Entry, bool) {
	for i := len(s.Entries) - 1; i >= 0; i-- {
		if s.Entries[i].Open() {
			return s.Entries[i], true
		}
	}
	if s.Carryover != nil && s.Carryover.Open() {
		return *s.Carryover, true
	}
	return Entry{}, false
}

// Find looks up an entry of the day or the carryover by ID.
func (s Snapshot) Find(id ID) (Entry, bool) {
	for _, entry := range s.Entries {
		if entry.ID == id {
			return entry, true
		}
	}
	if s.Carryover != nil && s.Carryover.ID == id {
		return *s.Carryover, true
	}
	return Entry{}, false
}

// Clone copies the entry slice so callers can modify it freely.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Entries = append([]Entry(nil), s.Entries...)
	if s.Carryover != nil {
		carry := *s.Carryover
		out.Carryover = &carry
	}
	return out
}
