package history

import (
	"fmt"
	"sort"

	"pkgdeck/internal/fileutil"
)

// Store persists the history as a JSON file.
type Store struct {
	path string
}

// NewStore returns a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load reads every stored entry, most recent first. A missing file is an
// empty history.
func (s *Store) Load() ([]Entry, error) {
	var entries []Entry
	if _, err := fileutil.ReadJSON(s.path, &entries); err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

// Save replaces the stored history.
func (s *Store) Save(entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	if err := fileutil.WriteJSON(s.path, entries); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}
