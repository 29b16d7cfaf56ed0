// Package probe reports which package sources are usable on this host.
package probe

import (
	"context"
	"log/slog"
	"os/exec"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"pkgdeck/internal/executor"
	"pkgdeck/pkg/manager"
	"pkgdeck/pkg/manager/parse"
)

// Status is one row of the provider report.
type Status struct {
	Source    manager.Source    `json:"source"`
	Available bool              `json:"available"`
	Enabled   bool              `json:"enabled"`
	Paths     map[string]string `json:"paths,omitempty"` // executable -> resolved path
	Version   string            `json:"version,omitempty"`
	Reason    string            `json:"reason,omitempty"`
}

// Options configures a probe run. Zero values use the real PATH, a default
// executor and no disabled sources.
type Options struct {
	LookPath func(string) (string, error)
	Exec     *executor.Executor
	Disabled func(manager.Source) bool
	Logger   *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.LookPath == nil {
		o.LookPath = exec.LookPath
	}
	if o.Exec == nil {
		o.Exec = executor.New(false, false)
	}
	if o.Disabled == nil {
		o.Disabled = func(manager.Source) bool { return false }
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Run probes every backend and returns one row each, unavailable sources
// last and otherwise alphabetical. Version lookups run concurrently; a
// failed lookup leaves the version empty.
func Run(ctx context.Context, backends []manager.Backend, opts Options) []Status {
	opts = opts.withDefaults()
	rows := make([]Status, len(backends))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(6)
	for i, b := range backends {
		g.Go(func() error {
			rows[i] = probeOne(ctx, b, opts)
			return nil
		})
	}
	g.Wait() //nolint:errcheck

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Available != rows[j].Available {
			return rows[i].Available
		}
		return rows[i].Source.String() < rows[j].Source.String()
	})
	return rows
}

func probeOne(ctx context.Context, b manager.Backend, opts Options) Status {
	spec := b.Probe()
	st := Status{
		Source:  b.Source(),
		Enabled: !opts.Disabled(b.Source()),
		Paths:   make(map[string]string),
	}

	for _, bin := range spec.Executables() {
		if path, err := opts.LookPath(bin); err == nil {
			st.Paths[bin] = path
		}
	}

	missing := spec.Missing(opts.LookPath)
	switch {
	case len(missing) > 0:
		st.Reason = "Missing: " + strings.Join(missing, ", ")
	case !b.IsAvailable():
		st.Reason = "Not available on this host"
	default:
		st.Available = true
	}
	if !st.Enabled {
		st.Reason = "Disabled in configuration"
	}

	if st.Available && len(spec.VersionArgs) > 0 {
		if bin := versionBinary(spec, st.Paths); bin != "" {
			st.Version = queryVersion(ctx, opts, bin, spec.VersionArgs)
		}
	}
	return st
}

// versionBinary returns the first resolved required binary, falling back to
// the first resolved alternative.
func versionBinary(spec manager.ProbeSpec, paths map[string]string) string {
	for _, group := range [][]string{spec.Binaries, spec.AnyOf} {
		for _, bin := range group {
			if _, ok := paths[bin]; ok {
				return bin
			}
		}
	}
	return ""
}

func queryVersion(ctx context.Context, opts Options, bin string, args []string) string {
	res, err := opts.Exec.Query(ctx, bin, args...)
	if err != nil {
		opts.Logger.Debug("version query failed", "binary", bin, "error", err)
		return ""
	}
	out := res.Stdout
	if strings.TrimSpace(out) == "" {
		out = res.Stderr
	}
	for _, line := range parse.Lines(out) {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
