// Package enrich decorates packages with metadata from online indexes and
// caches what it fetched on disk.
package enrich

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"pkgdeck/internal/clock"
	"pkgdeck/internal/fileutil"
	"pkgdeck/pkg/manager"
)

// DefaultTTL is how long a cached lookup stays valid.
const DefaultTTL = 7 * 24 * time.Hour

// Entry is one cached lookup.
type Entry struct {
	Data      manager.Enrichment `json:"data"`
	FetchedAt time.Time          `json:"fetched_at"`
}

// CacheOptions configures a Cache.
type CacheOptions struct {
	TTL    time.Duration
	Clock  clock.Clock
	Logger *slog.Logger
}

// Cache holds enrichment data keyed by "source:name". Reads and writes are
// safe for concurrent use. Put never blocks on disk: it only signals the
// background worker started by Start, which writes the file.
type Cache struct {
	path  string
	ttl   time.Duration
	clock clock.Clock
	log   *slog.Logger

	mu      sync.RWMutex
	entries map[string]Entry
	dirty   bool

	flushCh   chan struct{}
	stopCh    chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// CacheKey returns the cache key of a package.
func CacheKey(k manager.Key) string {
	return k.Source.String() + ":" + k.Name
}

// NewCache loads the cache file at path. A missing or unreadable file starts
// an empty cache. An empty path keeps the cache in memory only.
func NewCache(path string, opts CacheOptions) *Cache {
	c := &Cache{
		path:    path,
		ttl:     opts.TTL,
		clock:   clock.OrReal(opts.Clock),
		log:     opts.Logger,
		entries: make(map[string]Entry),
		flushCh: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	if path != "" {
		if _, err := fileutil.ReadJSON(path, &c.entries); err != nil {
			c.log.Warn("enrichment cache unreadable, starting empty", "path", path, "err", err)
			c.entries = make(map[string]Entry)
		}
		if c.entries == nil {
			c.entries = make(map[string]Entry)
		}
	}
	return c
}

func (c *Cache) valid(e Entry) bool {
	return c.clock.Now().Sub(e.FetchedAt) < c.ttl
}

// Get returns the cached data for k if it has not expired.
func (c *Cache) Get(k manager.Key) (manager.Enrichment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[CacheKey(k)]
	if !ok || !c.valid(e) {
		return manager.Enrichment{}, false
	}
	return e.Data, true
}

// Put stores data for k and schedules a write.
func (c *Cache) Put(k manager.Key, data manager.Enrichment) {
	c.mu.Lock()
	c.entries[CacheKey(k)] = Entry{Data: data, FetchedAt: c.clock.Now().UTC()}
	c.dirty = true
	c.mu.Unlock()

	select {
	case c.flushCh <- struct{}{}:
	default:
	}
}

// Len returns the number of cached entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Prune drops expired entries and returns how many were removed.
func (c *Cache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, e := range c.entries {
		if !c.valid(e) {
			delete(c.entries, k)
			n++
		}
	}
	if n > 0 {
		c.dirty = true
	}
	return n
}

// Start launches the background writer. It runs until ctx is done or Close
// is called, writing the file whenever Put has signalled a change.
func (c *Cache) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		c.wg.Add(1)
		go c.run(ctx)
	})
}

func (c *Cache) run(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-c.flushCh:
			if err := c.Flush(); err != nil {
				c.log.Warn("failed to write enrichment cache", "path", c.path, "err", err)
			}
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		}
	}
}

// Close stops the background writer and writes any pending changes.
func (c *Cache) Close() error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
	return c.Flush()
}

// Flush writes the cache to disk if it changed since the last write.
func (c *Cache) Flush() error {
	if c.path == "" {
		return nil
	}

	c.mu.Lock()
	if !c.dirty {
		c.mu.Unlock()
		return nil
	}
	snapshot := make(map[string]Entry, len(c.entries))
	for k, e := range c.entries {
		snapshot[k] = e
	}
	c.dirty = false
	c.mu.Unlock()

	if err := fileutil.WriteJSON(c.path, snapshot); err != nil {
		c.mu.Lock()
		c.dirty = true
		c.mu.Unlock()
		return err
	}
	return nil
}
