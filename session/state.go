// Package session runs the work/break toggle protocol for one user's day.
//
// The controller holds the latest snapshot pushed by the repository plus an
// overlay of its own writes that the snapshot does not reflect yet. Every
// read is derived from those two; nothing else is mutable.
package session

import (
	"time"

	"github.com/google/uuid"

	"shiftclock/timeentry"
)

type State int

const (
	Idle State = iota
	Working
	OnBreak
)

func (s State) String() string {
	switch s {
	case Working:
		return "working"
	case OnBreak:
		return "on_break"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func stateOf(kind timeentry.Kind) State {
	if kind == timeentry.KindBreak {
		return OnBreak
	}
	return Working
}

// Handle identifies the active entry: Pending while its create is in
// flight, Confirmed once the repository assigned an ID.
type Handle interface {
	isHandle()
}

type Pending struct {
	Local uuid.UUID
}

type Confirmed struct {
	ID timeentry.ID
}

func (Pending) isHandle()   {}
func (Confirmed) isHandle() {}

// Active describes the open entry. Its elapsed time is not stored; callers
// add Elapsed(now) to the day's totals themselves.
type Active struct {
	Handle Handle
	Kind   timeentry.Kind
	Start  time.Time
}

func (a Active) Elapsed(now time.Time) time.Duration {
	if !now.After(a.Start) {
		return 0
	}
	return now.Sub(a.Start)
}

// ID returns the repository ID of a confirmed active entry.
func (a Active) ID() (timeentry.ID, bool) {
	confirmed, ok := a.Handle.(Confirmed)
	if !ok {
		return "", false
	}
	return confirmed.ID, true
}

type Op string

const (
	OpStartWork   Op = "start_work"
	OpStopWork    Op = "stop_work"
	OpToggleBreak Op = "toggle_break"
)

// Result reports the outcome of a command. On success After is the
// confirmed state; on failure it is the state the controller reverted to.
type Result struct {
	Op      Op
	Applied bool
	Before  State
	After   State
	Active  *Active
}
