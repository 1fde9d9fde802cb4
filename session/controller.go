package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"shiftclock/internal/timeutil"
	"shiftclock/timeentry"
)

// Repository is the write side the controller needs.
type Repository interface {
	Create(ctx context.Context, entry timeentry.Entry) (timeentry.ID, error)
	CloseEntry(ctx context.Context, id timeentry.ID, end time.Time) error
}

// SnapshotSource pulls the current entry set of a user-day.
type SnapshotSource interface {
	Snapshot(ctx context.Context, userID, day string) (timeentry.Snapshot, error)
}

// Feed pushes a full snapshot of the user-day on every change.
type Feed interface {
	Subscribe(ctx context.Context, userID, day string) (<-chan timeentry.Snapshot, error)
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.log = logger
	}
}

// WithLocation sets the time zone day keys are computed in.
func WithLocation(loc *time.Location) Option {
	return func(c *Controller) {
		c.loc = loc
	}
}

// WithStrictTransitions makes commands issued from the wrong state return
// timeentry.ErrInvalidTransition instead of being ignored.
func WithStrictTransitions() Option {
	return func(c *Controller) {
		c.strict = true
	}
}

// WithDayCheckInterval sets how often Run checks for a day change.
// Non-positive values are ignored.
func WithDayCheckInterval(interval time.Duration) Option {
	return func(c *Controller) {
		if interval > 0 {
			c.dayCheck = interval
		}
	}
}

// WithSnapshotSource sets where the controller re-reads the day after a
// write conflicts with the stored state. Load sets it too.
func WithSnapshotSource(source SnapshotSource) Option {
	return func(c *Controller) {
		c.source = source
	}
}

// Controller enforces a single active session per user. Commands are
// serialized; reads see the optimistic state of a command in flight.
type Controller struct {
	repo     Repository
	source   SnapshotSource
	userID   string
	now      func() time.Time
	loc      *time.Location
	log      zerolog.Logger
	strict   bool
	dayCheck time.Duration

	opMu sync.Mutex

	mu       sync.RWMutex
	snapshot timeentry.Snapshot
	overlay  overlay
}

func NewController(repo Repository, userID string, opts ...Option) *Controller {
	c := &Controller{
		repo:     repo,
		userID:   userID,
		now:      time.Now,
		loc:      time.Local,
		log:      zerolog.Nop(),
		dayCheck: time.Minute,
		overlay:  newOverlay(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.snapshot = timeentry.Snapshot{UserID: userID, Day: c.dayKey(c.now())}
	return c
}

func (c *Controller) UserID() string {
	return c.userID
}

// Day is the day key of the snapshot the controller currently holds.
func (c *Controller) Day() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.Day
}

func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return buildView(c.snapshot, c.overlay).state()
}

func (c *Controller) ActiveEntry() (Active, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	active := buildView(c.snapshot, c.overlay).active
	if active == nil {
		return Active{}, false
	}
	return *active, true
}

// Entries returns the day's entries including local writes not yet
// reflected by the repository, ordered by start.
func (c *Controller) Entries() []timeentry.Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return buildView(c.snapshot, c.overlay).entries
}

// TotalWorkTime sums the day's closed work entries.
func (c *Controller) TotalWorkTime() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return buildView(c.snapshot, c.overlay).total(timeentry.KindWork)
}

// TotalBreakTime sums the day's closed break entries.
func (c *Controller) TotalBreakTime() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return buildView(c.snapshot, c.overlay).total(timeentry.KindBreak)
}

// Apply replaces the held snapshot. Snapshots of other users are ignored.
func (c *Controller) Apply(snap timeentry.Snapshot) {
	if snap.UserID != c.userID {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = snap.Clone()
	c.overlay.reconcile(c.snapshot)
}

// Load pulls today's snapshot once and keeps source for resynchronizing
// after conflicts unless one was set already.
func (c *Controller) Load(ctx context.Context, source SnapshotSource) error {
	c.mu.Lock()
	if c.source == nil {
		c.source = source
	}
	c.mu.Unlock()

	day := c.dayKey(c.now())
	snap, err := source.Snapshot(ctx, c.userID, day)
	if err != nil {
		return fmt.Errorf("load session day %s: %w", day, err)
	}
	c.Apply(snap)
	return nil
}

// Run applies every snapshot pushed by feed until ctx ends. When the day
// changes it resubscribes for the new day.
func (c *Controller) Run(ctx context.Context, feed Feed) error {
	for {
		day := c.dayKey(c.now())
		subCtx, cancel := context.WithCancel(ctx)
		snapshots, err := feed.Subscribe(subCtx, c.userID, day)
		if err != nil {
			cancel()
			return fmt.Errorf("subscribe session day %s: %w", day, err)
		}
		rolled, err := c.consume(ctx, snapshots, day)
		cancel()
		if !rolled {
			return err
		}
		c.log.Info().Str("user", c.userID).Str("previous_day", day).Msg("day changed, resubscribing")
	}
}

func (c *Controller) consume(ctx context.Context, snapshots <-chan timeentry.Snapshot, day string) (bool, error) {
	ticker := time.NewTicker(c.dayCheck)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case snap, ok := <-snapshots:
			if !ok {
				return false, nil
			}
			c.Apply(snap)
		case <-ticker.C:
			if c.dayKey(c.now()) != day {
				return true, nil
			}
		}
	}
}

// StartWork opens a work entry. Only valid while idle.
func (c *Controller) StartWork(ctx context.Context) (Result, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	now := c.now()
	c.mu.Lock()
	before := buildView(c.snapshot, c.overlay).state()
	if before != Idle {
		c.mu.Unlock()
		return c.reject(OpStartWork, before)
	}
	saved := c.overlay.clone()
	entry := c.newEntry(timeentry.KindWork, now)
	local := Pending{Local: uuid.New()}
	c.overlay.opened = append(c.overlay.opened, openedEntry{handle: local, entry: entry})
	c.mu.Unlock()

	id, err := c.repo.Create(ctx, entry)
	if err != nil {
		return c.fail(ctx, OpStartWork, before, saved, err), fmt.Errorf("start work: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.confirmLocked(local, id)
	return c.transitionLocked(OpStartWork, before), nil
}

// StopWork closes the open work entry. Only valid while working.
func (c *Controller) StopWork(ctx context.Context) (Result, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	now := c.now()
	c.mu.Lock()
	current := buildView(c.snapshot, c.overlay)
	before := current.state()
	id, confirmed := activeID(current.active)
	if before != Working || !confirmed {
		c.mu.Unlock()
		return c.reject(OpStopWork, before)
	}
	saved := c.overlay.clone()
	c.overlay.closes[id] = now
	c.mu.Unlock()

	if err := c.repo.CloseEntry(ctx, id, now); err != nil {
		return c.fail(ctx, OpStopWork, before, saved, err), fmt.Errorf("stop work: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.overlay.reconcile(c.snapshot)
	return c.transitionLocked(OpStopWork, before), nil
}

// ToggleBreak closes the open entry and opens one of the opposite kind at
// the same instant. If the close lands but the open fails the controller is
// left idle with the close kept.
func (c *Controller) ToggleBreak(ctx context.Context) (Result, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	now := c.now()
	c.mu.Lock()
	current := buildView(c.snapshot, c.overlay)
	before := current.state()
	id, confirmed := activeID(current.active)
	if before == Idle || !confirmed {
		c.mu.Unlock()
		return c.reject(OpToggleBreak, before)
	}
	saved := c.overlay.clone()
	next := c.newEntry(current.active.Kind.Opposite(), now)
	local := Pending{Local: uuid.New()}
	c.overlay.closes[id] = now
	c.overlay.opened = append(c.overlay.opened, openedEntry{handle: local, entry: next})
	c.mu.Unlock()

	if err := c.repo.CloseEntry(ctx, id, now); err != nil {
		return c.fail(ctx, OpToggleBreak, before, saved, err), fmt.Errorf("toggle break: close %s entry: %w", current.active.Kind, err)
	}

	newID, err := c.repo.Create(ctx, next)
	if err != nil {
		closedOnly := saved.clone()
		closedOnly.closes[id] = now
		return c.fail(ctx, OpToggleBreak, before, closedOnly, err), fmt.Errorf("toggle break: open %s entry: %w", next.Kind, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.confirmLocked(local, newID)
	return c.transitionLocked(OpToggleBreak, before), nil
}

func (c *Controller) newEntry(kind timeentry.Kind, now time.Time) timeentry.Entry {
	return timeentry.Entry{
		UserID:    c.userID,
		Kind:      kind,
		Start:     now,
		Date:      c.dayKey(now),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Controller) confirmLocked(local Pending, id timeentry.ID) {
	for i := range c.overlay.opened {
		if pending, ok := c.overlay.opened[i].handle.(Pending); ok && pending == local {
			c.overlay.opened[i].handle = Confirmed{ID: id}
			c.overlay.opened[i].entry.ID = id
		}
	}
	c.overlay.reconcile(c.snapshot)
}

// fail rolls the overlay back to restored. When the repository disagrees
// with the held snapshot the day is re-read so the result reflects the
// stored state.
func (c *Controller) fail(ctx context.Context, op Op, before State, restored overlay, cause error) Result {
	c.mu.Lock()
	c.rollbackLocked(op, restored, cause)
	c.mu.Unlock()

	if isConflict(cause) {
		c.resync(ctx, op)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resultLocked(op, before, false)
}

func (c *Controller) resync(ctx context.Context, op Op) {
	c.mu.RLock()
	source := c.source
	day := c.snapshot.Day
	c.mu.RUnlock()
	if source == nil {
		return
	}

	snap, err := source.Snapshot(context.WithoutCancel(ctx), c.userID, day)
	if err != nil {
		c.log.Warn().Err(err).Str("user", c.userID).Str("op", string(op)).Msg("session resync failed")
		return
	}
	c.Apply(snap)
	c.log.Info().
		Str("user", c.userID).
		Str("op", string(op)).
		Str("state", c.State().String()).
		Msg("session resynchronized with stored entries")
}

func isConflict(err error) bool {
	return errors.Is(err, timeentry.ErrOpenEntryExists) ||
		errors.Is(err, timeentry.ErrEntryClosed) ||
		errors.Is(err, timeentry.ErrNotFound)
}

func (c *Controller) rollbackLocked(op Op, restored overlay, cause error) {
	c.overlay = restored
	c.overlay.reconcile(c.snapshot)
	c.log.Warn().
		Err(cause).
		Str("user", c.userID).
		Str("op", string(op)).
		Str("state", buildView(c.snapshot, c.overlay).state().String()).
		Msg("session write failed, local state rolled back")
}

func (c *Controller) reject(op Op, state State) (Result, error) {
	c.log.Debug().Str("user", c.userID).Str("op", string(op)).Str("state", state.String()).Msg("session command ignored")
	result := Result{Op: op, Before: state, After: state}
	if active, ok := c.ActiveEntry(); ok {
		result.Active = &active
	}
	if c.strict {
		return result, fmt.Errorf("%s from %s: %w", op, state, timeentry.ErrInvalidTransition)
	}
	return result, nil
}

func (c *Controller) transitionLocked(op Op, before State) Result {
	result := c.resultLocked(op, before, true)
	c.log.Debug().
		Str("user", c.userID).
		Str("op", string(op)).
		Str("from", before.String()).
		Str("to", result.After.String()).
		Msg("session transition")
	return result
}

func (c *Controller) resultLocked(op Op, before State, applied bool) Result {
	current := buildView(c.snapshot, c.overlay)
	result := Result{Op: op, Applied: applied, Before: before, After: current.state()}
	if current.active != nil {
		active := *current.active
		result.Active = &active
	}
	return result
}

func (c *Controller) dayKey(t time.Time) string {
	return timeutil.DayKey(t.In(c.loc))
}

func activeID(active *Active) (timeentry.ID, bool) {
	if active == nil {
		return "", false
	}
	return active.ID()
}
