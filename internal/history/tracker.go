package history

import (
	"log/slog"
	"sync"

	"pkgdeck/internal/clock"
	"pkgdeck/pkg/manager"
	"pkgdeck/pkg/snapshot"
)

// Options configures a Tracker.
type Options struct {
	Store     *Store
	Snapshots *snapshot.Store
	Limit     int
	Clock     clock.Clock
	IDs       clock.IDGenerator
	Logger    *slog.Logger
}

// Tracker records operations and reconciles listings against the stored
// snapshot. Every change is persisted immediately. Persistence failures are
// logged and never returned, so a read-only data directory cannot break a
// package operation.
type Tracker struct {
	store     *Store
	snapshots *snapshot.Store
	clock     clock.Clock
	ids       clock.IDGenerator
	log       *slog.Logger

	mu      sync.Mutex
	history *History
}

// NewTracker loads the stored history. An unreadable history file is logged
// and replaced by an empty history on the next write.
func NewTracker(opts Options) *Tracker {
	t := &Tracker{
		store:     opts.Store,
		snapshots: opts.Snapshots,
		clock:     clock.OrReal(opts.Clock),
		ids:       clock.OrUUIDs(opts.IDs),
		log:       opts.Logger,
		history:   New(opts.Limit),
	}
	if t.log == nil {
		t.log = slog.Default()
	}
	if t.store != nil {
		entries, err := t.store.Load()
		if err != nil {
			t.log.Warn("history unreadable, starting empty", "path", t.store.Path(), "err", err)
		}
		t.history.Replace(entries)
	}
	return t
}

// RecordInstall appends an install of pkg.
func (t *Tracker) RecordInstall(pkg manager.Package) Entry {
	return t.record(Entry{
		Operation:    OpInstall,
		Package:      pkg.Name,
		Source:       pkg.Source,
		VersionAfter: pkg.Version,
		SizeChange:   pkg.SizeBytes,
	})
}

// RecordRemove appends a removal of pkg.
func (t *Tracker) RecordRemove(pkg manager.Package) Entry {
	return t.record(Entry{
		Operation:     OpRemove,
		Package:       pkg.Name,
		Source:        pkg.Source,
		VersionBefore: pkg.Version,
		SizeChange:    -pkg.SizeBytes,
	})
}

// RecordUpdate appends a version change of pkg. A size of 0 is unknown, so
// the size change is only computed when both sizes are known.
func (t *Tracker) RecordUpdate(pkg manager.Package, from, to string, oldSize, newSize int64) Entry {
	var delta int64
	if oldSize > 0 && newSize > 0 {
		delta = newSize - oldSize
	}
	return t.record(Entry{
		Operation:     OpUpdate,
		Package:       pkg.Name,
		Source:        pkg.Source,
		VersionBefore: from,
		VersionAfter:  to,
		SizeChange:    delta,
	})
}

// RecordCleanup appends a cache cleanup of source that freed freedBytes.
func (t *Tracker) RecordCleanup(source manager.Source, freedBytes int64) Entry {
	return t.record(Entry{
		Operation:  OpCleanup,
		Source:     source,
		SizeChange: -freedBytes,
	})
}

func (t *Tracker) record(e Entry) Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	e = t.stamp(e)
	t.history.Add(e)
	t.persistLocked()
	return e
}

func (t *Tracker) stamp(e Entry) Entry {
	e.ID = t.ids.NewID()
	e.Timestamp = t.clock.Now().UTC()
	return e
}

// DetectExternalChanges compares current against the stored snapshot and
// appends one external entry per difference. Without a stored snapshot
// there is no baseline and nothing is recorded.
func (t *Tracker) DetectExternalChanges(current []manager.Package) []Entry {
	return t.detect(current, nil)
}

// detect diffs current against the baseline, restricted to sources when
// sources is non-nil.
func (t *Tracker) detect(current []manager.Package, sources []manager.Source) []Entry {
	prev := t.baseline()
	if prev == nil {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	next := snapshot.Capture(current, now)
	if sources != nil {
		prev, next = prev.Only(sources...), next.Only(sources...)
	}
	diff := snapshot.Compare(prev, next)
	if diff.IsEmpty() {
		return nil
	}
	t.log.Debug("external changes detected", "summary", diff.Summary())

	byKey := manager.Index(current)
	var added []Entry
	for _, c := range diff.All() {
		e := Entry{Package: c.Key.Name, Source: c.Key.Source, External: true}
		switch c.Type {
		case snapshot.ChangeAdded:
			e.Operation = OpInstall
			e.VersionAfter = c.NewVersion
			e.SizeChange = byKey[c.Key].SizeBytes
		case snapshot.ChangeRemoved:
			e.Operation = OpRemove
			e.VersionBefore = c.OldVersion
		case snapshot.ChangeUpdated:
			e.Operation = OpUpdate
			e.VersionBefore = c.OldVersion
			e.VersionAfter = c.NewVersion
		}
		e = t.stamp(e)
		t.history.Add(e)
		added = append(added, e)
	}
	t.persistLocked()
	return added
}

// TakeSnapshot replaces the stored baseline with current.
func (t *Tracker) TakeSnapshot(current []manager.Package) {
	if t.snapshots == nil {
		return
	}
	if err := t.snapshots.Save(snapshot.Capture(current, t.clock.Now())); err != nil {
		t.log.Warn("failed to save snapshot", "path", t.snapshots.Path(), "err", err)
	}
}

// Reconcile detects external changes and then takes a new snapshot.
func (t *Tracker) Reconcile(current []manager.Package) []Entry {
	entries := t.DetectExternalChanges(current)
	t.TakeSnapshot(current)
	return entries
}

// ReconcileSources is Reconcile limited to the listed sources. Baseline
// entries of every other source are kept, so a source that failed to list
// is not reported as removed.
func (t *Tracker) ReconcileSources(current []manager.Package, sources []manager.Source) []Entry {
	if sources == nil {
		sources = []manager.Source{}
	}
	entries := t.detect(current, sources)
	t.RefreshBaseline(current, sources)
	return entries
}

// RefreshBaseline replaces the listed sources' part of the baseline with
// current without recording anything. It is used after pkgdeck changed a
// source itself.
func (t *Tracker) RefreshBaseline(current []manager.Package, sources []manager.Source) {
	if t.snapshots == nil {
		return
	}
	next := snapshot.Capture(current, t.clock.Now())
	if prev := t.baseline(); prev != nil {
		next = prev.Merge(next, sources...)
	} else {
		next = next.Only(sources...)
	}
	if err := t.snapshots.Save(next); err != nil {
		t.log.Warn("failed to save snapshot", "path", t.snapshots.Path(), "err", err)
	}
}

// baseline loads the stored snapshot. A missing or unreadable snapshot
// yields nil.
func (t *Tracker) baseline() *snapshot.Snapshot {
	if t.snapshots == nil {
		return nil
	}
	prev, err := t.snapshots.Load()
	if err != nil {
		t.log.Warn("snapshot unreadable, skipping change detection", "path", t.snapshots.Path(), "err", err)
		return nil
	}
	return prev
}

// MarkUndone flags the entry with the given id as reverted.
func (t *Tracker) MarkUndone(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.history.MarkUndone(id); err != nil {
		return err
	}
	t.persistLocked()
	return nil
}

// Get returns the entry with the given id.
func (t *Tracker) Get(id string) (Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.history.Get(id)
}

// Entries returns the full history, most recent first.
func (t *Tracker) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.history.Entries()
}

// Clear removes every entry.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.history.Clear()
	t.persistLocked()
}

func (t *Tracker) persistLocked() {
	if t.store == nil {
		return
	}
	if err := t.store.Save(t.history.Entries()); err != nil {
		t.log.Warn("failed to save history", "path", t.store.Path(), "err", err)
	}
}
