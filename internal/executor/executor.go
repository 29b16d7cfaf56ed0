// Package executor runs package-manager processes, capturing their output,
// and elevates privileged calls through pkexec.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Result holds the captured output of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// SpawnFunc starts a process and waits for it to exit. A non-zero exit is
// reported through Result.ExitCode, not through the error, which is reserved
// for failures to start or wait on the process.
type SpawnFunc func(ctx context.Context, name string, args []string) (Result, error)

// Executor handles command execution with optional privilege elevation.
type Executor struct {
	dryRun  bool
	verbose bool
	spawn   SpawnFunc
	isRoot  func() bool
	out     io.Writer
}

// New creates a new Executor with the given options.
func New(dryRun, verbose bool) *Executor {
	return &Executor{
		dryRun:  dryRun,
		verbose: verbose,
		spawn:   spawnProcess,
		isRoot:  isRoot,
		out:     os.Stderr,
	}
}

// SetDryRun enables or disables dry-run mode.
func (e *Executor) SetDryRun(dryRun bool) {
	e.dryRun = dryRun
}

// SetVerbose enables or disables verbose mode.
func (e *Executor) SetVerbose(verbose bool) {
	e.verbose = verbose
}

// DryRun reports whether commands are only printed.
func (e *Executor) DryRun() bool {
	return e.dryRun
}

// SetSpawner replaces the process launcher. Tests use this to feed canned output.
func (e *Executor) SetSpawner(fn SpawnFunc) {
	e.spawn = fn
}

// SetRootCheck replaces the effective-uid check used by RunPrivileged.
func (e *Executor) SetRootCheck(fn func() bool) {
	e.isRoot = fn
}

// SetOutput redirects dry-run and verbose messages.
func (e *Executor) SetOutput(w io.Writer) {
	e.out = w
}

// Run executes a command and captures stdout and stderr separately.
// A non-zero exit status is returned as a *CommandError together with the
// captured result so callers can apply tool-specific exit conventions.
func (e *Executor) Run(ctx context.Context, name string, args ...string) (Result, error) {
	if e.dryRun {
		e.printDryRun(name, args)
		return Result{}, nil
	}
	return e.run(ctx, name, args)
}

// Output runs a command and returns its stdout.
func (e *Executor) Output(ctx context.Context, name string, args ...string) (string, error) {
	res, err := e.Run(ctx, name, args...)
	return res.Stdout, err
}

// Query runs a read-only command. Unlike Run it is executed in dry-run mode
// too, since listings have no side effects.
func (e *Executor) Query(ctx context.Context, name string, args ...string) (Result, error) {
	return e.run(ctx, name, args)
}

// RunPrivileged executes a command through pkexec, or directly when the
// process already runs as root. Arguments are passed as a vector and never
// through a shell. Failures carry the equivalent manual sudo command.
func (e *Executor) RunPrivileged(ctx context.Context, name string, args ...string) (Result, error) {
	if e.dryRun {
		e.printDryRunPrivileged(name, args)
		return Result{}, nil
	}

	if e.isRoot() {
		return e.run(ctx, name, args)
	}

	line := CommandLine(name, args)
	suggestion := "sudo " + line

	res, err := e.run(ctx, Launcher, append([]string{name}, args...))
	if err == nil {
		return res, nil
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		if errors.Is(err, exec.ErrNotFound) {
			err = ErrNoPrivileges
		}
		return res, &PrivilegeError{Command: line, Suggestion: suggestion, Err: err}
	}

	switch cmdErr.ExitCode {
	case launcherDismissed, launcherDenied:
		return res, &AuthError{Command: line, ExitCode: cmdErr.ExitCode, Suggestion: suggestion}
	}

	cmdErr.Name = name
	cmdErr.Args = args
	cmdErr.Suggestion = suggestion
	return res, cmdErr
}

func (e *Executor) run(ctx context.Context, name string, args []string) (Result, error) {
	if e.verbose {
		fmt.Fprintf(e.out, "Executing: %s\n", CommandLine(name, args))
	}

	res, err := e.spawn(ctx, name, args)
	if err != nil {
		return res, fmt.Errorf("failed to run %s: %w", CommandLine(name, args), err)
	}
	if res.ExitCode != 0 {
		return res, &CommandError{
			Name:     name,
			Args:     args,
			ExitCode: res.ExitCode,
			Stderr:   res.Stderr,
		}
	}
	return res, nil
}

func spawnProcess(ctx context.Context, name string, args []string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		return res, err
	}
	return res, nil
}

// CommandLine renders name and args as a copyable shell command, quoting
// arguments that contain shell metacharacters.
func CommandLine(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quoteArg(name))
	for _, a := range args {
		parts = append(parts, quoteArg(a))
	}
	return strings.Join(parts, " ")
}

func quoteArg(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./=:@+%,", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func (e *Executor) printDryRun(name string, args []string) {
	fmt.Fprintf(e.out, "[dry-run] Would execute: %s\n", CommandLine(name, args))
}

func (e *Executor) printDryRunPrivileged(name string, args []string) {
	if e.isRoot() {
		fmt.Fprintf(e.out, "[dry-run] Would execute (as root): %s\n", CommandLine(name, args))
	} else {
		fmt.Fprintf(e.out, "[dry-run] Would execute (with pkexec): %s %s\n", Launcher, CommandLine(name, args))
	}
}
