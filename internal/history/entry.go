// Package history records package operations, including changes detected
// outside pkgdeck, in a bounded most-recent-first log.
package history

import (
	"errors"
	"fmt"
	"time"

	"pkgdeck/pkg/manager"
)

// Operation represents the type of package operation.
type Operation string

const (
	OpInstall Operation = "install"
	OpRemove  Operation = "remove"
	OpUpdate  Operation = "update"
	OpCleanup Operation = "cleanup"
)

// ParseOperation parses an operation name.
func ParseOperation(s string) (Operation, error) {
	switch op := Operation(s); op {
	case OpInstall, OpRemove, OpUpdate, OpCleanup:
		return op, nil
	}
	return "", fmt.Errorf("unknown history operation %q", s)
}

var (
	// ErrEntryNotFound is returned for an id that is not in the history.
	ErrEntryNotFound = errors.New("history entry not found")

	// ErrNotReversible is returned by Inverse for entries that cannot be undone.
	ErrNotReversible = errors.New("operation cannot be undone")

	// ErrAlreadyUndone is returned by Inverse for entries already reverted.
	ErrAlreadyUndone = errors.New("operation was already undone")
)

// Entry represents a single operation in the history.
type Entry struct {
	ID            string         `json:"id"`
	Timestamp     time.Time      `json:"timestamp"`
	Operation     Operation      `json:"operation"`
	Package       string         `json:"package,omitempty"` // empty for cleanup
	Source        manager.Source `json:"source"`
	VersionBefore string         `json:"version_before,omitempty"`
	VersionAfter  string         `json:"version_after,omitempty"`
	SizeChange    int64          `json:"size_change,omitempty"` // signed bytes
	Undone        bool           `json:"undone"`

	// External marks entries found by comparing listings rather than
	// recorded when pkgdeck ran the operation.
	External bool `json:"external,omitempty"`
}

// Key returns the identity of the affected package.
func (e Entry) Key() manager.Key {
	return manager.Key{Source: e.Source, Name: e.Package}
}

// FormatTime returns a human-readable timestamp.
func (e Entry) FormatTime() string {
	return e.Timestamp.Local().Format("2006-01-02 15:04:05")
}

// Versions renders the version transition, e.g. "1.0 -> 1.1".
func (e Entry) Versions() string {
	switch {
	case e.VersionBefore != "" && e.VersionAfter != "":
		return e.VersionBefore + " -> " + e.VersionAfter
	case e.VersionAfter != "":
		return e.VersionAfter
	}
	return e.VersionBefore
}

// Summary returns a brief summary of the operation.
func (e Entry) Summary() string {
	s := e.FormatTime() + " " + string(e.Operation)
	if e.Package != "" {
		s += " " + e.Package
	}
	if v := e.Versions(); v != "" {
		s += " (" + v + ")"
	}
	s += " [" + e.Source.String() + "]"
	if e.External {
		s += " external"
	}
	if e.Undone {
		s += " undone"
	}
	return s
}

// Undo describes the backend call that reverses an entry.
type Undo struct {
	Op      manager.Op
	Key     manager.Key
	Version string // set for OpDowngrade
}

func (u Undo) String() string {
	if u.Version != "" {
		return fmt.Sprintf("%s %s to %s", u.Op, u.Key, u.Version)
	}
	return fmt.Sprintf("%s %s", u.Op, u.Key)
}

// Inverse returns the operation that reverses e. An install is undone by a
// removal and a removal by an install. An update is undone by installing its
// previous version, which needs a backend that supports downgrades.
func Inverse(e Entry) (Undo, error) {
	if e.Undone {
		return Undo{}, ErrAlreadyUndone
	}
	key := e.Key()
	switch e.Operation {
	case OpInstall:
		return Undo{Op: manager.OpRemove, Key: key}, nil
	case OpRemove:
		return Undo{Op: manager.OpInstall, Key: key}, nil
	case OpUpdate:
		if e.VersionBefore == "" {
			return Undo{}, fmt.Errorf("%w: previous version of %s is unknown", ErrNotReversible, e.Package)
		}
		return Undo{Op: manager.OpDowngrade, Key: key, Version: e.VersionBefore}, nil
	}
	return Undo{}, fmt.Errorf("%w: %s", ErrNotReversible, e.Operation)
}
