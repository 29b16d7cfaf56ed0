// Package testutil provides fakes shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"pkgdeck/internal/executor"
)

// Spawner answers process invocations from a table of canned results keyed
// by the full command line ("pacman -Qi"). Unknown commands fail as if the
// binary were missing. Safe for concurrent use.
type Spawner struct {
	mu      sync.Mutex
	results map[string]executor.Result
	calls   []string
}

// NewSpawner creates an empty Spawner.
func NewSpawner() *Spawner {
	return &Spawner{results: make(map[string]executor.Result)}
}

// On registers stdout for a command line that exits zero.
func (s *Spawner) On(cmdline, stdout string) *Spawner {
	return s.OnResult(cmdline, executor.Result{Stdout: stdout})
}

// OnExit registers a command line that exits with code and stderr.
func (s *Spawner) OnExit(cmdline string, code int, stdout, stderr string) *Spawner {
	return s.OnResult(cmdline, executor.Result{Stdout: stdout, Stderr: stderr, ExitCode: code})
}

// OnResult registers a full result.
func (s *Spawner) OnResult(cmdline string, res executor.Result) *Spawner {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[cmdline] = res
	return s
}

// Spawn implements executor.SpawnFunc.
func (s *Spawner) Spawn(_ context.Context, name string, args []string) (executor.Result, error) {
	line := strings.Join(append([]string{name}, args...), " ")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, line)
	res, ok := s.results[line]
	if !ok {
		return executor.Result{}, fmt.Errorf("exec: %q: unexpected command", line)
	}
	return res, nil
}

// Calls returns every command line spawned so far.
func (s *Spawner) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// Executor returns an executor wired to s that behaves as a non-root user.
func (s *Spawner) Executor() *executor.Executor {
	e := executor.New(false, false)
	e.SetSpawner(s.Spawn)
	e.SetRootCheck(func() bool { return false })
	return e
}

// LookPath reports every name in present as installed under /usr/bin.
func LookPath(present ...string) func(string) (string, error) {
	set := make(map[string]bool, len(present))
	for _, p := range present {
		set[p] = true
	}
	return func(name string) (string, error) {
		if set[name] {
			return "/usr/bin/" + name, nil
		}
		return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
	}
}
