// Package database caches the last aggregated package listing so commands
// can answer from disk while it is fresh, and maps application names across
// sources.
package database

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"pkgdeck/internal/clock"
	"pkgdeck/internal/fileutil"
	"pkgdeck/pkg/manager"
)

// MaxAge is how long a listing is served before it counts as stale.
const MaxAge = time.Hour

// Listing is a cached aggregate listing.
type Listing struct {
	Packages    []manager.Package `json:"packages"`
	LastUpdated time.Time         `json:"last_updated"`
}

// IsStale reports whether the listing is older than MaxAge at now.
func (l *Listing) IsStale(now time.Time) bool {
	return l == nil || now.Sub(l.LastUpdated) >= MaxAge
}

// Age returns how long ago the listing was taken.
func (l *Listing) Age(now time.Time) time.Duration {
	return now.Sub(l.LastUpdated)
}

// Get returns the cached package with the given identity.
func (l *Listing) Get(k manager.Key) (manager.Package, bool) {
	for _, p := range l.Packages {
		if p.Key() == k {
			return p, true
		}
	}
	return manager.Package{}, false
}

// BySource returns the cached packages from one source.
func (l *Listing) BySource(src manager.Source) []manager.Package {
	var out []manager.Package
	for _, p := range l.Packages {
		if p.Source == src {
			out = append(out, p)
		}
	}
	return out
}

// CountBySource returns the number of cached packages per source.
func (l *Listing) CountBySource() map[manager.Source]int {
	counts := make(map[manager.Source]int)
	for _, p := range l.Packages {
		counts[p.Source]++
	}
	return counts
}

// Match returns cached packages whose name or description contains every
// token of query. Exact name matches sort first, then prefix matches, then
// the rest by name.
func (l *Listing) Match(query string) []manager.Package {
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil
	}
	q := strings.ToLower(strings.TrimSpace(query))

	var out []manager.Package
	for _, p := range l.Packages {
		words := tokenize(p.Name + " " + p.Description)
		if containsAll(words, terms) {
			out = append(out, p)
		}
	}

	rank := func(p manager.Package) int {
		name := strings.ToLower(p.Name)
		switch {
		case name == q:
			return 0
		case strings.HasPrefix(name, q):
			return 1
		}
		return 2
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := rank(out[i]), rank(out[j])
		if ri != rj {
			return ri < rj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// containsAll reports whether every term is a prefix of some word.
func containsAll(words, terms []string) bool {
	for _, t := range terms {
		found := false
		for _, w := range words {
			if strings.HasPrefix(w, t) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Store persists the listing as a JSON file.
type Store struct {
	path  string
	clock clock.Clock
}

// NewStore returns a store backed by the file at path.
func NewStore(path string, clk clock.Clock) *Store {
	return &Store{path: path, clock: clock.OrReal(clk)}
}

// Load returns the cached listing, or nil when there is none.
func (s *Store) Load() (*Listing, error) {
	var l Listing
	found, err := fileutil.ReadJSON(s.path, &l)
	if err != nil {
		return nil, fmt.Errorf("failed to load package listing: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &l, nil
}

// Fresh returns the cached listing only if it is not stale.
func (s *Store) Fresh() (*Listing, bool) {
	l, err := s.Load()
	if err != nil || l.IsStale(s.clock.Now()) {
		return nil, false
	}
	return l, true
}

// Save replaces the cached listing with pkgs, taken now. Transient states
// are settled before writing.
func (s *Store) Save(pkgs []manager.Package) (*Listing, error) {
	l := &Listing{
		Packages:    make([]manager.Package, len(pkgs)),
		LastUpdated: s.clock.Now().UTC(),
	}
	for i, p := range pkgs {
		p.Status = p.Status.Settled()
		l.Packages[i] = p
	}
	if err := fileutil.WriteJSON(s.path, l); err != nil {
		return nil, fmt.Errorf("failed to save package listing: %w", err)
	}
	return l, nil
}

// Invalidate removes the cached listing.
func (s *Store) Invalidate() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove package listing: %w", err)
	}
	return nil
}

// tokenize splits text into lower-case alphanumeric tokens.
func tokenize(text string) []string {
	var tokens []string
	var current []rune

	for _, r := range text {
		if isAlphanumeric(r) {
			current = append(current, toLower(r))
		} else if len(current) > 0 {
			tokens = append(tokens, string(current))
			current = current[:0]
		}
	}

	if len(current) > 0 {
		tokens = append(tokens, string(current))
	}

	return tokens
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
