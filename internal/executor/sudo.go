package executor

import (
	"errors"
	"os"
	"os/exec"
)

// Launcher is the polkit helper privileged operations run through.
const Launcher = "pkexec"

// pkexec exit codes for a dismissed dialog and a refused authorization.
const (
	launcherDismissed = 126
	launcherDenied    = 127
)

// ErrNoPrivileges means the process is not root and pkexec is missing.
var ErrNoPrivileges = errors.New("root privileges required, but pkexec is not available")

func isRoot() bool { return os.Geteuid() == 0 }

// IsRoot reports whether the process runs with effective uid 0.
func IsRoot() bool { return isRoot() }

// HasLauncher reports whether pkexec is on PATH.
func HasLauncher() bool {
	_, err := exec.LookPath(Launcher)
	return err == nil
}

// CheckPrivileges fails with ErrNoPrivileges when needsRoot is set and
// there is no way to elevate.
func CheckPrivileges(needsRoot bool) error {
	if needsRoot && !isRoot() && !HasLauncher() {
		return ErrNoPrivileges
	}
	return nil
}
