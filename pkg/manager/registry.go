package manager

import (
	"context"
	"log/slog"
	"os/exec"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"pkgdeck/internal/config"
)

// maxParallel bounds how many package manager processes run at once during
// an aggregate call.
const maxParallel = 6

// Registry holds one backend per source and provides unified access.
type Registry struct {
	backends map[Source]Backend
	native   Source
	hasNat   bool
	cfg      *config.Config
	log      *slog.Logger
	mu       sync.RWMutex
}

// NewRegistry creates a new backend registry.
func NewRegistry(cfg *config.Config, logger *slog.Logger) *Registry {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		backends: make(map[Source]Backend),
		cfg:      cfg,
		log:      logger,
	}
}

// Register adds a backend to the registry, replacing any previous backend
// for the same source.
func (r *Registry) Register(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[b.Source()] = b
}

// SetNative records the distribution's own package source. It sorts first
// among sources with equal configured priority.
func (r *Registry) SetNative(src Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.native, r.hasNat = src, true
}

// Native returns the distribution's package source, if detected.
func (r *Registry) Native() (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.hasNat {
		return nil, false
	}
	b, ok := r.backends[r.native]
	return b, ok
}

// Get returns the backend for a source, whether or not it is usable.
func (r *Registry) Get(src Source) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[src]
	return b, ok
}

// Backend returns the backend for a source if it is enabled and installed.
func (r *Registry) Backend(src Source) (Backend, error) {
	b, ok := r.Get(src)
	if !ok {
		return nil, &SourceError{Source: src, Err: ErrSourceUnavailable}
	}
	if r.cfg.IsDisabled(src.String()) {
		return nil, &SourceError{Source: src, Err: ErrSourceDisabled}
	}
	if !b.IsAvailable() {
		return nil, &SourceError{
			Source:  src,
			Missing: b.Probe().Missing(exec.LookPath),
			Err:     ErrSourceUnavailable,
		}
	}
	return b, nil
}

// All returns every registered backend in source order.
func (r *Registry) All() []Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Backend, 0, len(r.backends))
	for _, b := range r.backends {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Source() < all[j].Source() })
	return all
}

// Enabled returns installed backends that are not disabled, in priority order.
func (r *Registry) Enabled() []Backend {
	var enabled []Backend
	for _, b := range r.All() {
		if r.cfg.IsDisabled(b.Source().String()) || !b.IsAvailable() {
			continue
		}
		enabled = append(enabled, b)
	}
	r.sortByPriority(enabled)
	return enabled
}

// Aggregate is the merged result of one call across all enabled backends.
// Failures holds the sources that contributed nothing because they failed.
type Aggregate struct {
	Packages []Package
	Failures map[Source]error
}

// ListAll lists installed packages from every enabled backend concurrently.
func (r *Registry) ListAll(ctx context.Context) Aggregate {
	return r.ListFrom(ctx, r.Enabled())
}

// CheckAll collects available updates from every enabled backend concurrently.
func (r *Registry) CheckAll(ctx context.Context) Aggregate {
	return r.CheckFrom(ctx, r.Enabled())
}

// SearchAll searches every enabled backend concurrently.
func (r *Registry) SearchAll(ctx context.Context, query string) Aggregate {
	return r.SearchFrom(ctx, r.Enabled(), query)
}

// ListFrom is ListAll over the given backends.
func (r *Registry) ListFrom(ctx context.Context, backends []Backend) Aggregate {
	return r.collect(ctx, backends, OpList, func(ctx context.Context, b Backend) ([]Package, error) {
		return b.ListInstalled(ctx)
	})
}

// CheckFrom is CheckAll over the given backends.
func (r *Registry) CheckFrom(ctx context.Context, backends []Backend) Aggregate {
	return r.collect(ctx, backends, OpCheck, func(ctx context.Context, b Backend) ([]Package, error) {
		pkgs, err := b.CheckUpdates(ctx)
		return OnlyUpdates(pkgs), err
	})
}

// SearchFrom is SearchAll over the given backends.
func (r *Registry) SearchFrom(ctx context.Context, backends []Backend, query string) Aggregate {
	return r.collect(ctx, backends, OpSearch, func(ctx context.Context, b Backend) ([]Package, error) {
		pkgs, err := b.Search(ctx, query)
		return CapSearch(pkgs), err
	})
}

// collect fans fn out over backends. A failing source is logged and
// contributes nothing; it never blocks the others.
func (r *Registry) collect(ctx context.Context, backends []Backend, op Op, fn func(context.Context, Backend) ([]Package, error)) Aggregate {
	results := make([][]Package, len(backends))
	errs := make([]error, len(backends))

	var g errgroup.Group
	g.SetLimit(maxParallel)
	for i, b := range backends {
		g.Go(func() error {
			pkgs, err := fn(ctx, b)
			if err != nil {
				errs[i] = NewOperationError(op, b.Source(), "", err)
				return nil
			}
			results[i] = pkgs
			return nil
		})
	}
	_ = g.Wait()

	agg := Aggregate{Failures: make(map[Source]error)}
	for i, b := range backends {
		if errs[i] != nil {
			r.log.Warn("source failed", "source", b.Source().String(), "op", string(op), "err", errs[i])
			agg.Failures[b.Source()] = errs[i]
			continue
		}
		agg.Packages = append(agg.Packages, results[i]...)
	}
	r.sortPackagesByPriority(agg.Packages)
	return agg
}

func (r *Registry) priorities() map[Source]int {
	priority := make(map[Source]int)
	for i, name := range r.cfg.Sources.Priority {
		if src, err := ParseSource(name); err == nil {
			priority[src] = i
		}
	}
	r.mu.RLock()
	if _, ok := priority[r.native]; r.hasNat && !ok {
		priority[r.native] = -1
	}
	r.mu.RUnlock()
	return priority
}

func rank(src Source, priority map[Source]int) int {
	if p, ok := priority[src]; ok {
		return p
	}
	return len(priority) + int(src)
}

// sortByPriority sorts backends by the configured priority, then source order.
func (r *Registry) sortByPriority(backends []Backend) {
	priority := r.priorities()
	sort.SliceStable(backends, func(i, j int) bool {
		return rank(backends[i].Source(), priority) < rank(backends[j].Source(), priority)
	})
}

// sortPackagesByPriority sorts packages by their source's priority, then name.
func (r *Registry) sortPackagesByPriority(packages []Package) {
	priority := r.priorities()
	sort.SliceStable(packages, func(i, j int) bool {
		pi := rank(packages[i].Source, priority)
		pj := rank(packages[j].Source, priority)
		if pi != pj {
			return pi < pj
		}
		return packages[i].Name < packages[j].Name
	})
}
