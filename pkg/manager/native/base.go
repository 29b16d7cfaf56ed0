// Package native implements the distribution package managers and the
// file-based sources that install through them.
package native

import (
	"context"
	"os/exec"
	"slices"

	"pkgdeck/internal/executor"
	"pkgdeck/pkg/manager"
)

// Base provides the plumbing shared by every backend: the source identity,
// the primary binary and the executor used to run it.
type Base struct {
	source   manager.Source
	binary   string
	exec     *executor.Executor
	lookPath func(string) (string, error)
}

// NewBase creates a Base. A nil executor gets a default one.
func NewBase(source manager.Source, binary string, exec *executor.Executor) *Base {
	if exec == nil {
		exec = executor.New(false, false)
	}
	return &Base{
		source:   source,
		binary:   binary,
		exec:     exec,
		lookPath: execLookPath,
	}
}

func execLookPath(name string) (string, error) { return exec.LookPath(name) }

// Source returns the source this backend serves.
func (b *Base) Source() manager.Source {
	return b.source
}

// Binary returns the primary binary name for this backend.
func (b *Base) Binary() string {
	return b.binary
}

// SetBinary changes the binary to use (e.g., switching from dart to flutter).
func (b *Base) SetBinary(binary string) {
	b.binary = binary
}

// Executor returns the executor instance.
func (b *Base) Executor() *executor.Executor {
	return b.exec
}

// SetExecutor sets the executor instance.
func (b *Base) SetExecutor(exec *executor.Executor) {
	b.exec = exec
}

// SetLookPath replaces the PATH lookup used for availability checks.
func (b *Base) SetLookPath(fn func(string) (string, error)) {
	b.lookPath = fn
}

// Has reports whether an executable is on PATH.
func (b *Base) Has(name string) bool {
	_, err := b.lookPath(name)
	return err == nil
}

// IsAvailable returns true if the primary binary is installed.
func (b *Base) IsAvailable() bool {
	return b.Has(b.binary)
}

// Query runs a read-only command and returns stdout. Exit codes listed in
// allowed are tool conventions for "nothing found" or "results found" and
// are not errors.
func (b *Base) Query(ctx context.Context, allowed []int, name string, args ...string) (string, error) {
	res, err := b.exec.Query(ctx, name, args...)
	if err != nil {
		if code := executor.ExitCode(err); code > 0 && slices.Contains(allowed, code) {
			return res.Stdout, nil
		}
		return "", err
	}
	return res.Stdout, nil
}

// Mutate validates pkg and runs a mutating command, through pkexec when
// privileged is set. Failures come back as *manager.OperationError.
func (b *Base) Mutate(ctx context.Context, op manager.Op, pkg string, privileged bool, name string, args ...string) error {
	if pkg != "" {
		if err := manager.ValidateName(pkg); err != nil {
			return manager.NewOperationError(op, b.source, pkg, err)
		}
	}

	var err error
	if privileged {
		_, err = b.exec.RunPrivileged(ctx, name, args...)
	} else {
		_, err = b.exec.Run(ctx, name, args...)
	}
	return manager.NewOperationError(op, b.source, pkg, err)
}
