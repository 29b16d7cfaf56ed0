package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pkgdeck/internal/executor"
)

// Remedy is the user-facing rendering of an error.
type Remedy struct {
	// Summary is a short, specific one-line description.
	Summary string
	// Detail is the explanation, with any embedded suggestion removed.
	Detail string
	// Action is a concrete next step: a command to run, a setting to change.
	// Empty when nothing actionable exists.
	Action string
	// Warning marks errors that should not be reported as failures, such as
	// a dismissed authorization prompt or an idempotent no-op.
	Warning bool
}

var cleanupHints = map[Source]string{
	SourceAPT:     "sudo apt-get clean",
	SourceDNF:     "sudo dnf clean all",
	SourcePacman:  "sudo pacman -Sc",
	SourceZypper:  "sudo zypper clean --all",
	SourceFlatpak: "flatpak uninstall --unused",
	SourceNPM:     "npm cache clean --force",
	SourcePip:     "pip cache purge",
	SourceCargo:   "cargo cache --autoclean",
	SourceBrew:    "brew cleanup",
	SourceConda:   "conda clean --all",
	SourceMamba:   "mamba clean --all",
}

// Describe renders err for display. Every error yields at least a summary.
func Describe(err error) Remedy {
	if err == nil {
		return Remedy{}
	}

	detail, suggestion, _ := executor.SplitSuggestion(err.Error())
	r := Remedy{Detail: detail}

	var opErr *OperationError
	hasOp := errors.As(err, &opErr)
	if hasOp && opErr.Suggestion != "" {
		suggestion = opErr.Suggestion
	}
	source := func() string {
		if hasOp {
			return opErr.Source.String()
		}
		var srcErr *SourceError
		if errors.As(err, &srcErr) {
			return srcErr.Source.String()
		}
		return "the source"
	}
	pkg := "the package"
	if hasOp && opErr.Package != "" {
		pkg = opErr.Package
	}

	var (
		srcErr *SourceError
		netErr *NetworkError
		cmdErr *executor.CommandError
	)

	switch {
	case errors.Is(err, ErrAuthorization):
		r.Summary = "Authorization was not granted"
		r.Warning = true
		r.Action = suggestion
	case errors.Is(err, ErrSourceDisabled):
		r.Summary = fmt.Sprintf("%s is disabled", source())
		r.Action = fmt.Sprintf("Remove %q from [sources] disabled in config.toml", source())
	case errors.As(err, &srcErr) && errors.Is(err, ErrSourceUnavailable):
		r.Summary = fmt.Sprintf("%s is not available on this system", srcErr.Source)
		if len(srcErr.Missing) > 0 {
			r.Action = "Install " + strings.Join(srcErr.Missing, ", ")
		}
	case errors.As(err, &netErr):
		if netErr.Timeout {
			r.Summary = "The metadata server did not respond in time"
			r.Action = "Retry later or raise [enrichment] timeout_seconds in config.toml"
		} else {
			r.Summary = "Could not reach the metadata server"
			r.Action = "Check your network connection"
		}
	case errors.Is(err, ErrAlreadyInstalled):
		r.Summary = fmt.Sprintf("%s is already installed", pkg)
		r.Warning = true
	case errors.Is(err, ErrNotInstalled):
		r.Summary = fmt.Sprintf("%s is not installed", pkg)
		r.Warning = true
	case errors.Is(err, ErrInvalidName):
		r.Summary = "Invalid package name"
		r.Action = "Use the name exactly as shown by search"
	case errors.Is(err, ErrPackageNotFound):
		r.Summary = fmt.Sprintf("%s was not found in %s", pkg, source())
		r.Action = "Refresh the package index and check the spelling"
	case errors.Is(err, ErrVersionNotFound):
		r.Summary = fmt.Sprintf("The requested version of %s is not offered by %s", pkg, source())
		r.Action = fmt.Sprintf("List available versions with: pkgdeck downgrade %s --list", pkg)
	case errors.Is(err, ErrDependencyConflict):
		r.Summary = "The operation would break package dependencies"
		r.Action = "Update the system first, then retry"
		if names := ConflictingPackages(r.Detail); len(names) > 0 {
			r.Detail += "\nAffected packages: " + strings.Join(names, ", ")
		}
	case errors.Is(err, ErrInsufficientSpace):
		r.Summary = "Not enough free disk space"
		r.Action = "Free disk space"
		if hasOp {
			if hint, ok := cleanupHints[opErr.Source]; ok {
				r.Action += ", for example: " + hint
			}
		}
	case errors.Is(err, ErrResourceBusy):
		r.Summary = "Another package manager is running"
		r.Action = "Wait for it to finish, then retry"
	case errors.Is(err, ErrCorrupt):
		r.Summary = "Configuration or cache data is corrupt"
		r.Action = "Remove the damaged file under the pkgdeck data directory; it is rebuilt on next run"
	case errors.Is(err, ErrUnsupported):
		r.Summary = fmt.Sprintf("%s does not support this operation", source())
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		r.Summary = "Cancelled"
		r.Warning = true
	case errors.As(err, &cmdErr):
		r.Summary = fmt.Sprintf("%s exited with status %d", cmdErr.Name, cmdErr.ExitCode)
		r.Action = suggestion
	case hasOp:
		r.Summary = fmt.Sprintf("Could not %s %s", opErr.Op, pkg)
		r.Action = suggestion
	default:
		r.Summary = firstLine(detail)
		r.Action = suggestion
	}

	if r.Action == "" && suggestion != "" {
		r.Action = suggestion
	}
	return r
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
