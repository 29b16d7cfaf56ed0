package snapshot

import (
	"fmt"
	"sort"
	"strings"

	"pkgdeck/pkg/manager"
)

// ChangeType represents the kind of change between two snapshots.
type ChangeType string

const (
	ChangeAdded   ChangeType = "added"
	ChangeRemoved ChangeType = "removed"
	ChangeUpdated ChangeType = "updated"
)

// Change represents a single package difference.
type Change struct {
	Type       ChangeType
	Key        manager.Key
	OldVersion string // empty for added packages
	NewVersion string // empty for removed packages
}

// String returns a human-readable representation of the change.
func (c Change) String() string {
	switch c.Type {
	case ChangeAdded:
		return fmt.Sprintf("+ %s (%s) [%s]", c.Key.Name, c.NewVersion, c.Key.Source)
	case ChangeRemoved:
		return fmt.Sprintf("- %s (%s) [%s]", c.Key.Name, c.OldVersion, c.Key.Source)
	case ChangeUpdated:
		return fmt.Sprintf("~ %s (%s -> %s) [%s]", c.Key.Name, c.OldVersion, c.NewVersion, c.Key.Source)
	}
	return c.Key.String()
}

// Diff is the set of changes between two snapshots.
type Diff struct {
	Added   []Change
	Removed []Change
	Updated []Change
}

// IsEmpty returns true if there are no differences.
func (d *Diff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Updated) == 0
}

// Total returns the total number of changes.
func (d *Diff) Total() int {
	return len(d.Added) + len(d.Removed) + len(d.Updated)
}

// All returns every change: added, then removed, then updated.
func (d *Diff) All() []Change {
	all := make([]Change, 0, d.Total())
	all = append(all, d.Added...)
	all = append(all, d.Removed...)
	return append(all, d.Updated...)
}

// BySource groups the changes by package source.
func (d *Diff) BySource() map[manager.Source][]Change {
	out := make(map[manager.Source][]Change)
	for _, c := range d.All() {
		out[c.Key.Source] = append(out[c.Key.Source], c)
	}
	return out
}

// Summary returns a brief summary of the diff.
func (d *Diff) Summary() string {
	if d.IsEmpty() {
		return "No changes"
	}

	var parts []string
	if n := len(d.Added); n > 0 {
		parts = append(parts, fmt.Sprintf("%d added", n))
	}
	if n := len(d.Removed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d removed", n))
	}
	if n := len(d.Updated); n > 0 {
		parts = append(parts, fmt.Sprintf("%d updated", n))
	}
	return strings.Join(parts, ", ")
}

// Invert swaps the direction of the diff, describing how to get from the
// newer state back to the older one.
func (d *Diff) Invert() *Diff {
	inv := &Diff{}
	for _, c := range d.Added {
		inv.Removed = append(inv.Removed, Change{Type: ChangeRemoved, Key: c.Key, OldVersion: c.NewVersion})
	}
	for _, c := range d.Removed {
		inv.Added = append(inv.Added, Change{Type: ChangeAdded, Key: c.Key, NewVersion: c.OldVersion})
	}
	for _, c := range d.Updated {
		inv.Updated = append(inv.Updated, Change{Type: ChangeUpdated, Key: c.Key, OldVersion: c.NewVersion, NewVersion: c.OldVersion})
	}
	sortChanges(inv.Added)
	sortChanges(inv.Removed)
	sortChanges(inv.Updated)
	return inv
}

// Compare returns the changes from old to current. A key present only in
// current is added, one present only in old is removed, and one present in
// both with a different version is updated. A nil snapshot is empty.
func Compare(old, current *Snapshot) *Diff {
	d := &Diff{}
	oldPkgs := packages(old)
	curPkgs := packages(current)

	for k, cur := range curPkgs {
		key := keyOf(k, cur)
		prev, ok := oldPkgs[k]
		switch {
		case !ok:
			d.Added = append(d.Added, Change{Type: ChangeAdded, Key: key, NewVersion: cur.Version})
		case prev.Version != cur.Version:
			d.Updated = append(d.Updated, Change{Type: ChangeUpdated, Key: key, OldVersion: prev.Version, NewVersion: cur.Version})
		}
	}
	for k, prev := range oldPkgs {
		if _, ok := curPkgs[k]; !ok {
			d.Removed = append(d.Removed, Change{Type: ChangeRemoved, Key: keyOf(k, prev), OldVersion: prev.Version})
		}
	}

	sortChanges(d.Added)
	sortChanges(d.Removed)
	sortChanges(d.Updated)
	return d
}

func packages(s *Snapshot) map[string]Entry {
	if s == nil {
		return nil
	}
	return s.Packages
}

// keyOf recovers the package identity from a map key. The entry's source is
// authoritative; the name is everything after the first "/".
func keyOf(k string, e Entry) manager.Key {
	_, name, ok := strings.Cut(k, "/")
	if !ok {
		name = k
	}
	return manager.Key{Source: e.Source, Name: name}
}

func sortChanges(changes []Change) {
	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Key.Source != changes[j].Key.Source {
			return changes[i].Key.Source < changes[j].Key.Source
		}
		return changes[i].Key.Name < changes[j].Key.Name
	})
}
