package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"pkgdeck/internal/fetch"
	"pkgdeck/pkg/manager"
)

// maxLookups bounds concurrent network lookups.
const maxLookups = 4

// DefaultFetchers returns a fetcher for every source with an online index.
func DefaultFetchers(client *fetch.Client) map[manager.Source]Fetcher {
	pypi := PyPIFetcher{Client: client}
	return map[manager.Source]Fetcher{
		manager.SourceAUR:   AURFetcher{Client: client},
		manager.SourceNPM:   NPMFetcher{Client: client},
		manager.SourcePip:   pypi,
		manager.SourcePipx:  pypi,
		manager.SourceCargo: CratesFetcher{Client: client},
	}
}

// Enricher attaches cached or freshly fetched metadata to packages.
type Enricher struct {
	cache    *Cache
	fetchers map[manager.Source]Fetcher
	log      *slog.Logger
}

// NewEnricher creates an Enricher.
func NewEnricher(cache *Cache, fetchers map[manager.Source]Fetcher, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{cache: cache, fetchers: fetchers, log: logger}
}

// Supports reports whether src has an online index.
func (e *Enricher) Supports(src manager.Source) bool {
	_, ok := e.fetchers[src]
	return ok
}

// Lookup returns metadata for one package, from the cache when still valid.
func (e *Enricher) Lookup(ctx context.Context, k manager.Key) (manager.Enrichment, error) {
	if data, ok := e.cache.Get(k); ok {
		return data, nil
	}
	f, ok := e.fetchers[k.Source]
	if !ok {
		return manager.Enrichment{}, fmt.Errorf("%w: %s has no online index", manager.ErrUnsupported, k.Source)
	}
	data, err := f.Fetch(ctx, k.Name)
	if err != nil {
		return manager.Enrichment{}, err
	}
	e.cache.Put(k, data)
	return data, nil
}

// Enrich returns a copy of pkgs with Enrichment set wherever a lookup
// succeeded. Empty Homepage and License fields are filled from the lookup.
// Failed lookups are logged and leave the package unchanged.
func (e *Enricher) Enrich(ctx context.Context, pkgs []manager.Package) []manager.Package {
	out := make([]manager.Package, len(pkgs))
	copy(out, pkgs)

	var g errgroup.Group
	g.SetLimit(maxLookups)
	for i := range out {
		if !e.Supports(out[i].Source) {
			continue
		}
		g.Go(func() error {
			data, err := e.Lookup(ctx, out[i].Key())
			if err != nil {
				var netErr *manager.NetworkError
				if errors.As(err, &netErr) && netErr.Timeout {
					e.log.Debug("enrichment lookup timed out", "package", out[i].Key().String())
				} else {
					e.log.Debug("enrichment lookup failed", "package", out[i].Key().String(), "err", err)
				}
				return nil
			}
			apply(&out[i], data)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func apply(p *manager.Package, data manager.Enrichment) {
	d := data
	p.Enrichment = &d
	if p.Homepage == "" {
		p.Homepage = data.Homepage
	}
	if p.License == "" {
		p.License = data.License
	}
	if p.Maintainer == "" {
		p.Maintainer = data.Maintainer
	}
}
