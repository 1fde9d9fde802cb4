package storage

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"shiftclock/timeentry"
)

// SnapshotLoader reads the entry set of a user-day.
type SnapshotLoader func(ctx context.Context, userID, day string) (timeentry.Snapshot, error)

// Feed fans out user-day snapshots to subscribers. Each subscription holds at
// most one pending snapshot; a newer one replaces it.
type Feed struct {
	load SnapshotLoader
	log  zerolog.Logger

	mu   sync.Mutex
	next int
	subs map[int]*subscription
}

type subscription struct {
	userID string
	day    string
	ch     chan timeentry.Snapshot
}

func NewFeed(load SnapshotLoader) *Feed {
	return &Feed{
		load: load,
		log:  zerolog.Nop(),
		subs: make(map[int]*subscription),
	}
}

// Subscribe delivers the current snapshot immediately and a fresh one after
// every change to the user's entries. The channel closes when ctx is done.
func (f *Feed) Subscribe(ctx context.Context, userID, day string) (<-chan timeentry.Snapshot, error) {
	snap, err := f.load(ctx, userID, day)
	if err != nil {
		return nil, err
	}

	sub := &subscription{userID: userID, day: day, ch: make(chan timeentry.Snapshot, 1)}
	sub.ch <- snap

	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = sub
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.subs, id)
		close(sub.ch)
		f.mu.Unlock()
	}()
	return sub.ch, nil
}

// Publish reloads and pushes the snapshot of every day the user is
// subscribed to.
func (f *Feed) Publish(ctx context.Context, userID string) {
	ctx = context.WithoutCancel(ctx)

	f.mu.Lock()
	targets := make(map[int]string)
	for id, sub := range f.subs {
		if sub.userID == userID {
			targets[id] = sub.day
		}
	}
	f.mu.Unlock()

	loaded := make(map[string]timeentry.Snapshot, len(targets))
	for id, day := range targets {
		snap, ok := loaded[day]
		if !ok {
			var err error
			snap, err = f.load(ctx, userID, day)
			if err != nil {
				f.log.Warn().Err(err).Str("user", userID).Str("day", day).Msg("snapshot reload failed")
				continue
			}
			loaded[day] = snap
		}
		f.deliver(id, snap)
	}
}

// Subscribers counts the open subscriptions.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *Feed) deliver(id int, snap timeentry.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sub, ok := f.subs[id]
	if !ok {
		return
	}
	// Senders hold f.mu, so after draining the buffer the send cannot block.
	select {
	case <-sub.ch:
	default:
	}
	sub.ch <- snap.Clone()
}
