package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pkgdeck/internal/executor"
)

// Error kinds. Backends wrap these so callers can branch with errors.Is.
var (
	ErrSourceUnavailable  = errors.New("source is not available on this host")
	ErrSourceDisabled     = errors.New("source is disabled in configuration")
	ErrAlreadyInstalled   = errors.New("package is already installed")
	ErrNotInstalled       = errors.New("package is not installed")
	ErrPackageNotFound    = errors.New("package not found")
	ErrInvalidName        = errors.New("invalid package name")
	ErrVersionNotFound    = errors.New("version not offered by source")
	ErrDependencyConflict = errors.New("dependency conflict")
	ErrInsufficientSpace  = errors.New("insufficient disk space")
	ErrResourceBusy       = errors.New("package database is in use")
	ErrCorrupt            = errors.New("corrupt configuration or cache")
	ErrCancelled          = errors.New("operation cancelled")
	ErrUnsupported        = errors.New("operation not supported by source")

	// ErrAuthorization matches a dismissed or refused elevation prompt.
	ErrAuthorization = executor.ErrAuthorization
)

// Op names a backend operation.
type Op string

const (
	OpList      Op = "list"
	OpCheck     Op = "check-updates"
	OpSearch    Op = "search"
	OpInstall   Op = "install"
	OpRemove    Op = "remove"
	OpUpdate    Op = "update"
	OpDowngrade Op = "downgrade"
	OpCleanup   Op = "cleanup"
)

// SourceError reports a source that cannot be used.
type SourceError struct {
	Source  Source
	Missing []string
	Err     error // ErrSourceUnavailable or ErrSourceDisabled
}

func (e *SourceError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Source, e.Err)
	if len(e.Missing) > 0 {
		msg += " (missing: " + strings.Join(e.Missing, ", ") + ")"
	}
	return msg
}

func (e *SourceError) Unwrap() error { return e.Err }

// OperationError is a failed backend operation.
type OperationError struct {
	Op         Op
	Package    string
	Source     Source
	Details    string // displayable, without the suggestion
	Suggestion string // manual recovery command, if any
	Kind       error  // classified error kind, may be nil
	Err        error
}

func (e *OperationError) Error() string {
	target := e.Package
	if target == "" {
		target = e.Source.String()
	} else {
		target += " (" + e.Source.String() + ")"
	}
	msg := fmt.Sprintf("%s %s failed", e.Op, target)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return msg
}

func (e *OperationError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewOperationError wraps err with operation context, separating any embedded
// manual command from the displayable detail and classifying the tool's
// stderr. A nil err returns nil.
func NewOperationError(op Op, source Source, pkg string, err error) error {
	if err == nil {
		return nil
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return err
	}

	clean, suggestion, _ := executor.SplitSuggestion(err.Error())
	text := clean
	var cmdErr *executor.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Stderr != "" {
		text = cmdErr.Stderr
	}

	kind := Classify(text)
	if kind == nil && errors.Is(err, context.Canceled) {
		kind = ErrCancelled
	}

	return &OperationError{
		Op:         op,
		Package:    pkg,
		Source:     source,
		Details:    clean,
		Suggestion: suggestion,
		Kind:       kind,
		Err:        err,
	}
}

// NetworkError is a failed online lookup.
type NetworkError struct {
	URL     string
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("request to %s timed out", e.URL)
	}
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ValidateName rejects names that could be mistaken for options or that a
// package manager cannot accept.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if strings.HasPrefix(name, "-") {
		return fmt.Errorf("%w: %q looks like an option", ErrInvalidName, name)
	}
	for _, r := range name {
		if r <= ' ' || r == 0x7f {
			return fmt.Errorf("%w: %q contains whitespace or control characters", ErrInvalidName, name)
		}
	}
	return nil
}
