// Package manager provides the uniform model and backend contract shared by
// every package source.
package manager

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Status is the state of a package as reported by its source.
type Status int

const (
	StatusInstalled Status = iota
	StatusUpdateAvailable
	StatusNotInstalled
	StatusInstalling
	StatusRemoving
	StatusUpdating
)

var statusNames = [...]string{
	StatusInstalled:       "installed",
	StatusUpdateAvailable: "update-available",
	StatusNotInstalled:    "not-installed",
	StatusInstalling:      "installing",
	StatusRemoving:        "removing",
	StatusUpdating:        "updating",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

// Transient reports whether s only describes an operation in progress.
// Transient states are never persisted.
func (s Status) Transient() bool {
	return s == StatusInstalling || s == StatusRemoving || s == StatusUpdating
}

// Settled maps a transient state back to a persistable one.
func (s Status) Settled() Status {
	switch s {
	case StatusInstalling, StatusUpdating, StatusRemoving:
		return StatusInstalled
	}
	return s
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if name == string(text) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown package status: %q", text)
}

// Enrichment is optional metadata fetched from an online index.
type Enrichment struct {
	Homepage      string   `json:"homepage,omitempty"`
	Repository    string   `json:"repository,omitempty"`
	License       string   `json:"license,omitempty"`
	Maintainer    string   `json:"maintainer,omitempty"`
	LatestVersion string   `json:"latest_version,omitempty"`
	Popularity    float64  `json:"popularity,omitempty"`
	Votes         int      `json:"votes,omitempty"`
	Downloads     int64    `json:"downloads,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
}

// Package represents a software package from any source.
type Package struct {
	Name             string      `json:"name"`
	Version          string      `json:"version"`
	AvailableVersion string      `json:"available_version,omitempty"`
	Description      string      `json:"description,omitempty"`
	Source           Source      `json:"source"`
	Status           Status      `json:"status"`
	SizeBytes        int64       `json:"size_bytes,omitempty"` // 0 when unknown
	Homepage         string      `json:"homepage,omitempty"`
	License          string      `json:"license,omitempty"`
	Maintainer       string      `json:"maintainer,omitempty"`
	Dependencies     []string    `json:"dependencies,omitempty"`
	InstallDate      string      `json:"install_date,omitempty"` // as printed by the tool
	Enrichment       *Enrichment `json:"enrichment,omitempty"`
}

// Key identifies a package across listings.
type Key struct {
	Source Source
	Name   string
}

func (k Key) String() string {
	return k.Source.String() + "/" + k.Name
}

// ParseKey parses "source/name".
func ParseKey(s string) (Key, error) {
	src, name, ok := strings.Cut(s, "/")
	if !ok || name == "" {
		return Key{}, fmt.Errorf("invalid package key %q: want source/name", s)
	}
	source, err := ParseSource(src)
	if err != nil {
		return Key{}, err
	}
	return Key{Source: source, Name: name}, nil
}

// Key returns the identity of p. Version and status are not part of it.
func (p Package) Key() Key {
	return Key{Source: p.Source, Name: p.Name}
}

// Equal reports whether p and o are the same package from the same source.
func (p Package) Equal(o Package) bool {
	return p.Key() == o.Key()
}

// HasUpdate reports whether a newer version is offered.
func (p Package) HasUpdate() bool {
	return p.AvailableVersion != ""
}

var installDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Mon 02 Jan 2006 03:04:05 PM MST",
	"Mon 02 Jan 2006 15:04:05 MST",
	"Mon Jan _2 15:04:05 2006",
	time.UnixDate,
}

// InstalledAt parses InstallDate. Tools print it in many layouts, so parsing
// is deferred until a caller needs the value.
func (p Package) InstalledAt() (time.Time, bool) {
	s := strings.TrimSpace(p.InstallDate)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range installDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SortPackages orders packages by source, then name.
func SortPackages(pkgs []Package) {
	sort.SliceStable(pkgs, func(i, j int) bool {
		if pkgs[i].Source != pkgs[j].Source {
			return pkgs[i].Source < pkgs[j].Source
		}
		return pkgs[i].Name < pkgs[j].Name
	})
}

// Index maps packages by identity. Later duplicates win.
func Index(pkgs []Package) map[Key]Package {
	m := make(map[Key]Package, len(pkgs))
	for _, p := range pkgs {
		m[p.Key()] = p
	}
	return m
}
