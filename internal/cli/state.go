package cli

import (
	"context"
	"sort"

	"pkgdeck/internal/clock"
	"pkgdeck/internal/config"
	"pkgdeck/internal/history"
	"pkgdeck/internal/ui"
	"pkgdeck/pkg/database"
	"pkgdeck/pkg/enrich"
	"pkgdeck/pkg/manager"
	"pkgdeck/pkg/schedule"
	"pkgdeck/pkg/snapshot"
)

func openTracker() *history.Tracker {
	return history.NewTracker(history.Options{
		Store:     history.NewStore(config.HistoryPath()),
		Snapshots: snapshotStore(),
		Limit:     cfg.General.HistoryLimit,
		Logger:    logger,
	})
}

func snapshotStore() *snapshot.Store {
	return snapshot.NewStore(config.SnapshotPath())
}

func listingStore() *database.Store {
	return database.NewStore(config.ListingPath(), clock.Real{})
}

func openScheduler() (*schedule.Scheduler, error) {
	if err := config.EnsureDataDir(); err != nil {
		return nil, err
	}
	return schedule.Open(config.SchedulePath(), schedule.Options{Logger: logger})
}

// openEnricher starts the enrichment cache worker. The returned function
// stops it and writes any pending entries.
func openEnricher(ctx context.Context) (*enrich.Enricher, func()) {
	cache := enrich.NewCache(config.EnrichmentPath(), enrich.CacheOptions{
		TTL:    cfg.EnrichmentTTL(),
		Logger: logger,
	})
	cache.Start(ctx)
	e := enrich.NewEnricher(cache, enrich.DefaultFetchers(client), logger)
	return e, func() {
		if err := cache.Close(); err != nil {
			logger.Warn("failed to write enrichment cache", "err", err)
		}
	}
}

// selectedBackends returns the backend named by --source, or every enabled
// one.
func selectedBackends() ([]manager.Backend, error) {
	if source == "" {
		return registry.Enabled(), nil
	}
	b, err := getBackend()
	if err != nil {
		return nil, err
	}
	return []manager.Backend{b}, nil
}

// listInstalled lists installed packages. A fresh cached listing is used
// unless refresh is set or a single source is selected. Fresh listings are
// cached and reconciled with the snapshot, which records changes made
// outside pkgdeck.
func listInstalled(ctx context.Context, refresh bool) ([]manager.Package, error) {
	store := listingStore()
	if !refresh && source == "" {
		if l, ok := store.Fresh(); ok {
			logger.Debug("using cached listing", "packages", len(l.Packages))
			return l.Packages, nil
		}
	}

	backends, err := selectedBackends()
	if err != nil {
		return nil, err
	}

	var agg manager.Aggregate
	err = ui.WithSpinner("Listing installed packages...", func() error {
		agg = registry.ListFrom(ctx, backends)
		return ctx.Err()
	})
	if err != nil {
		return nil, err
	}
	reportFailures(agg.Failures)

	if source == "" && len(agg.Failures) == 0 {
		if _, err := store.Save(agg.Packages); err != nil {
			logger.Warn("failed to cache listing", "err", err)
		}
	}

	if cfg.General.Snapshots {
		reconcile(agg.Packages, answered(backends, agg.Failures))
	}
	return agg.Packages, nil
}

// answered returns the sources that listed successfully.
func answered(backends []manager.Backend, failures map[manager.Source]error) []manager.Source {
	var out []manager.Source
	for _, b := range backends {
		if _, failed := failures[b.Source()]; !failed {
			out = append(out, b.Source())
		}
	}
	return out
}

func reconcile(pkgs []manager.Package, sources []manager.Source) {
	entries := openTracker().ReconcileSources(pkgs, sources)
	if len(entries) > 0 {
		ui.InfoMsg("Recorded %d change(s) made outside pkgdeck", len(entries))
	}
}

// reportFailures prints one line per source that contributed nothing.
func reportFailures(failures map[manager.Source]error) {
	sources := make([]manager.Source, 0, len(failures))
	for src := range failures {
		sources = append(sources, src)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })
	for _, src := range sources {
		r := manager.Describe(failures[src])
		ui.WarningMsg("%s skipped: %s", src, r.Summary)
	}
}

// afterChange drops the cached listing and folds the source's new state
// into the snapshot, so pkgdeck's own changes are never reported as
// external ones. pkgs is the source's listing after the change, or nil when
// it could not be listed.
func afterChange(tracker *history.Tracker, b manager.Backend, pkgs []manager.Package) {
	if err := listingStore().Invalidate(); err != nil {
		logger.Warn("failed to drop cached listing", "err", err)
	}
	if pkgs == nil || !cfg.General.Snapshots {
		return
	}
	tracker.RefreshBaseline(pkgs, []manager.Source{b.Source()})
}
