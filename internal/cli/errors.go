package cli

import (
	"errors"
	"fmt"
	"strings"

	"pkgdeck/pkg/manager"
)

var (
	// ErrNoManager is returned when no native package source was detected.
	ErrNoManager = errors.New("no native package manager detected; specify one with --source")

	// ErrAborted is returned when the user declines a confirmation.
	ErrAborted = fmt.Errorf("%w by user", manager.ErrCancelled)

	// ErrNotFoundAnywhere is returned when no source offers a package.
	ErrNotFoundAnywhere = errors.New("package not found in any source")

	// ErrOperationsFailed is returned when some steps of a batch failed.
	// The individual failures have already been reported.
	ErrOperationsFailed = errors.New("some operations failed")
)

// isUsageError reports whether err came from argument validation.
func isUsageError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag") ||
		strings.Contains(msg, "arg(s)")
}
