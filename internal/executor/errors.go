package executor

import (
	"errors"
	"fmt"
	"strings"
)

// SuggestMarker separates an error's displayable detail from a manual
// recovery command. Everything after the marker is the command verbatim.
const SuggestMarker = "::suggest::"

// ErrAuthorization is matched by errors produced when the user dismisses or
// is refused the elevation prompt.
var ErrAuthorization = errors.New("authorization was not granted")

// CommandError is a process that ran and exited non-zero.
type CommandError struct {
	Name       string
	Args       []string
	ExitCode   int
	Stderr     string
	Suggestion string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", CommandLine(e.Name, e.Args), e.ExitCode)
	if detail := strings.TrimSpace(e.Stderr); detail != "" {
		msg += ": " + detail
	}
	return withSuggestion(msg, e.Suggestion)
}

// AuthError reports that pkexec did not obtain authorization.
type AuthError struct {
	Command    string
	ExitCode   int
	Suggestion string
}

func (e *AuthError) Error() string {
	reason := "was denied"
	if e.ExitCode == launcherDismissed {
		reason = "was cancelled"
	}
	return withSuggestion(fmt.Sprintf("authorization for %s %s", e.Command, reason), e.Suggestion)
}

func (e *AuthError) Unwrap() error { return ErrAuthorization }

// PrivilegeError wraps a failure to start the elevated process at all.
type PrivilegeError struct {
	Command    string
	Suggestion string
	Err        error
}

func (e *PrivilegeError) Error() string {
	return withSuggestion(fmt.Sprintf("could not elevate %s: %v", e.Command, e.Err), e.Suggestion)
}

func (e *PrivilegeError) Unwrap() error { return e.Err }

func withSuggestion(msg, suggestion string) string {
	if suggestion == "" {
		return msg
	}
	return msg + " " + SuggestMarker + suggestion
}

// SplitSuggestion separates msg at SuggestMarker. The suggestion is exactly
// the text after the marker; clean is the trimmed text before it. Without a
// marker the whole trimmed message is returned and ok is false.
func SplitSuggestion(msg string) (clean, suggestion string, ok bool) {
	i := strings.Index(msg, SuggestMarker)
	if i < 0 {
		return strings.TrimSpace(msg), "", false
	}
	return strings.TrimSpace(msg[:i]), msg[i+len(SuggestMarker):], true
}

// ExitCode returns the exit status carried by err, or -1 when err is not a
// *CommandError.
func ExitCode(err error) int {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	return -1
}
