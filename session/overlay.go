package session

import (
	"time"

	"shiftclock/timeentry"
)

// overlay holds local writes the latest snapshot does not show yet.
type overlay struct {
	closes map[timeentry.ID]time.Time
	opened []openedEntry
}

type openedEntry struct {
	handle Handle
	entry  timeentry.Entry
}

func newOverlay() overlay {
	return overlay{closes: make(map[timeentry.ID]time.Time)}
}

func (o overlay) clone() overlay {
	out := overlay{
		closes: make(map[timeentry.ID]time.Time, len(o.closes)),
		opened: append([]openedEntry(nil), o.opened...),
	}
	for id, end := range o.closes {
		out.closes[id] = end
	}
	return out
}

func (o overlay) apply(entry timeentry.Entry) timeentry.Entry {
	if entry.ID == "" || !entry.Open() {
		return entry
	}
	if end, ok := o.closes[entry.ID]; ok {
		return entry.Closed(end)
	}
	return entry
}

// reconcile drops everything the snapshot already reflects. A pending open
// stays until the snapshot holds an open entry of the same kind and start;
// the repository may push that snapshot before the create returns.
func (o *overlay) reconcile(snap timeentry.Snapshot) {
	kept := o.opened[:0]
	for _, opened := range o.opened {
		confirmed, ok := opened.handle.(Confirmed)
		if !ok {
			if !snapshotHoldsOpen(snap, opened.entry) {
				kept = append(kept, opened)
			}
			continue
		}
		if _, found := snap.Find(confirmed.ID); found {
			continue
		}
		if opened.entry.Date != snap.Day {
			continue
		}
		kept = append(kept, opened)
	}
	o.opened = kept

	for id := range o.closes {
		entry, found := snap.Find(id)
		if found && !entry.Open() {
			delete(o.closes, id)
			continue
		}
		if !found && !o.references(id) {
			delete(o.closes, id)
		}
	}
}

func snapshotHoldsOpen(snap timeentry.Snapshot, local timeentry.Entry) bool {
	matches := func(entry timeentry.Entry) bool {
		return entry.Open() &&
			entry.Kind == local.Kind &&
			entry.Start.UnixMilli() == local.Start.UnixMilli()
	}
	for _, entry := range snap.Entries {
		if matches(entry) {
			return true
		}
	}
	return snap.Carryover != nil && matches(*snap.Carryover)
}

func (o overlay) references(id timeentry.ID) bool {
	for _, opened := range o.opened {
		if opened.entry.ID == id {
			return true
		}
	}
	return false
}

// view merges snapshot and overlay into the day's entries and the active
// entry, if any.
type view struct {
	entries []timeentry.Entry
	active  *Active
}

func buildView(snap timeentry.Snapshot, o overlay) view {
	v := view{entries: make([]timeentry.Entry, 0, len(snap.Entries)+len(o.opened))}
	for _, entry := range snap.Entries {
		v.entries = append(v.entries, o.apply(entry))
	}
	for _, opened := range o.opened {
		v.entries = append(v.entries, o.apply(opened.entry))
	}
	timeentry.SortByStart(v.entries)

	for i := len(o.opened) - 1; i >= 0; i-- {
		entry := o.apply(o.opened[i].entry)
		if entry.Open() {
			v.active = &Active{Handle: o.opened[i].handle, Kind: entry.Kind, Start: entry.Start}
			return v
		}
	}
	for i := len(snap.Entries) - 1; i >= 0; i-- {
		entry := o.apply(snap.Entries[i])
		if entry.Open() {
			v.active = &Active{Handle: Confirmed{ID: entry.ID}, Kind: entry.Kind, Start: entry.Start}
			return v
		}
	}
	if snap.Carryover != nil {
		entry := o.apply(*snap.Carryover)
		if entry.Open() {
			v.active = &Active{Handle: Confirmed{ID: entry.ID}, Kind: entry.Kind, Start: entry.Start}
		}
	}
	return v
}

func (v view) state() State {
	if v.active == nil {
		return Idle
	}
	return stateOf(v.active.Kind)
}

func (v view) total(kind timeentry.Kind) time.Duration {
	total := time.Duration(0)
	for _, entry := range v.entries {
		if entry.Kind != kind || entry.Open() {
			continue
		}
		total += entry.Duration(*entry.End)
	}
	return total
}
