// Package snapshot captures the set of installed packages across all sources
// so later listings can be compared against it. Changes made outside pkgdeck
// are found by diffing a fresh listing with the stored baseline.
package snapshot

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"pkgdeck/internal/fileutil"
	"pkgdeck/pkg/manager"
)

// Entry is the recorded state of one package.
type Entry struct {
	Version string         `json:"version"`
	Source  manager.Source `json:"source"`
}

// Snapshot is the set of installed packages at a point in time, keyed by
// "source/name" so same-named packages from different sources never collide.
type Snapshot struct {
	TakenAt  time.Time        `json:"taken_at"`
	Packages map[string]Entry `json:"packages"`
}

// Capture builds a snapshot from an installed-package listing. Later
// duplicates of the same key win.
func Capture(pkgs []manager.Package, takenAt time.Time) *Snapshot {
	s := &Snapshot{
		TakenAt:  takenAt.UTC(),
		Packages: make(map[string]Entry, len(pkgs)),
	}
	for _, p := range pkgs {
		s.Packages[p.Key().String()] = Entry{Version: p.Version, Source: p.Source}
	}
	return s
}

// Len returns the number of packages in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Packages)
}

// Get returns the recorded state for a package.
func (s *Snapshot) Get(key manager.Key) (Entry, bool) {
	if s == nil {
		return Entry{}, false
	}
	e, ok := s.Packages[key.String()]
	return e, ok
}

// Keys returns every package key in sorted order.
func (s *Snapshot) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.Packages))
	for k := range s.Packages {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CountBySource returns how many packages each source contributed.
func (s *Snapshot) CountBySource() map[manager.Source]int {
	counts := make(map[manager.Source]int)
	if s == nil {
		return counts
	}
	for _, e := range s.Packages {
		counts[e.Source]++
	}
	return counts
}

// FormatTime returns a human-readable timestamp.
func (s *Snapshot) FormatTime() string {
	return s.TakenAt.Local().Format("2006-01-02 15:04:05")
}

// Summary returns a brief description of the snapshot.
func (s *Snapshot) Summary() string {
	return fmt.Sprintf("%s (%d packages)", s.FormatTime(), s.Len())
}

// Only returns the part of s that belongs to the given sources.
func (s *Snapshot) Only(sources ...manager.Source) *Snapshot {
	out := &Snapshot{Packages: make(map[string]Entry)}
	if s == nil {
		return out
	}
	out.TakenAt = s.TakenAt
	for k, e := range s.Packages {
		if slices.Contains(sources, e.Source) {
			out.Packages[k] = e
		}
	}
	return out
}

// Merge returns a copy of s in which the entries of the given sources are
// replaced by those of current. Entries of other sources are kept as they
// are. TakenAt is taken from current.
func (s *Snapshot) Merge(current *Snapshot, sources ...manager.Source) *Snapshot {
	out := &Snapshot{Packages: make(map[string]Entry)}
	if current != nil {
		out.TakenAt = current.TakenAt
	}
	if s != nil {
		for k, e := range s.Packages {
			if !slices.Contains(sources, e.Source) {
				out.Packages[k] = e
			}
		}
	}
	for k, e := range current.Only(sources...).Packages {
		out.Packages[k] = e
	}
	return out
}

// Store persists the single baseline snapshot as a JSON file.
type Store struct {
	path string
}

// NewStore returns a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (st *Store) Path() string {
	return st.path
}

// Load returns the stored snapshot, or nil when none has been taken yet.
func (st *Store) Load() (*Snapshot, error) {
	var s Snapshot
	found, err := fileutil.ReadJSON(st.path, &s)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if !found {
		return nil, nil
	}
	if s.Packages == nil {
		s.Packages = make(map[string]Entry)
	}
	return &s, nil
}

// Save replaces the stored snapshot.
func (st *Store) Save(s *Snapshot) error {
	if err := fileutil.WriteJSON(st.path, s); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}
