// Package watch reports changes to the on-disk package databases of the
// installed sources, so external installs and removals can be reconciled
// without polling the package managers themselves.
package watch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"pkgdeck/pkg/manager"
)

// DefaultDebounce is how long the watcher waits for activity to settle
// before reporting. Package managers touch many files per transaction.
const DefaultDebounce = 2 * time.Second

// databasePaths lists the directories each source rewrites when packages
// change.
var databasePaths = map[manager.Source][]string{
	manager.SourceAPT:      {"/var/lib/dpkg"},
	manager.SourceDNF:      {"/var/lib/rpm", "/usr/lib/sysimage/rpm"},
	manager.SourceZypper:   {"/var/lib/rpm", "/usr/lib/sysimage/rpm"},
	manager.SourcePacman:   {"/var/lib/pacman/local"},
	manager.SourceAUR:      {"/var/lib/pacman/local"},
	manager.SourceFlatpak:  {"/var/lib/flatpak/app", "~/.local/share/flatpak/app"},
	manager.SourceSnap:     {"/var/lib/snapd/snaps"},
	manager.SourceBrew:     {"/home/linuxbrew/.linuxbrew/Cellar", "/opt/homebrew/Cellar", "/usr/local/Cellar"},
	manager.SourceCargo:    {"~/.cargo"},
	manager.SourcePipx:     {"~/.local/share/pipx/venvs"},
	manager.SourceAppImage: {"~/Applications"},
}

// Paths returns the existing database directories for the given sources,
// deduplicated and sorted.
func Paths(sources []manager.Source) []string {
	home, _ := os.UserHomeDir() //nolint:errcheck
	seen := make(map[string]bool)
	var out []string
	for _, src := range sources {
		for _, p := range databasePaths[src] {
			if len(p) > 1 && p[0] == '~' {
				if home == "" {
					continue
				}
				p = filepath.Join(home, p[1:])
			}
			if seen[p] {
				continue
			}
			seen[p] = true
			if info, err := os.Stat(p); err == nil && info.IsDir() {
				out = append(out, p)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Watcher batches file system events under a set of directories and calls
// OnChange once activity has been quiet for the debounce interval.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	onChange func(changed []string)
	log      *slog.Logger

	stopCh   chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// ErrNothingToWatch is returned when none of the paths could be watched.
var ErrNothingToWatch = errors.New("no package database directories to watch")

// New creates a watcher over paths. Paths that cannot be watched are logged
// and skipped. A non-positive debounce uses DefaultDebounce.
func New(paths []string, debounce time.Duration, onChange func(changed []string), logger *slog.Logger) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("onChange callback cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	added := 0
	for _, p := range paths {
		if err := fsw.Add(p); err != nil {
			logger.Debug("cannot watch path", "path", p, "err", err)
			continue
		}
		added++
	}
	if added == 0 {
		fsw.Close()
		return nil, ErrNothingToWatch
	}

	return &Watcher{
		fsw:      fsw,
		debounce: debounce,
		onChange: onChange,
		log:      logger,
		stopCh:   make(chan struct{}),
	}, nil
}

// Watched returns the directories being watched.
func (w *Watcher) Watched() []string {
	list := w.fsw.WatchList()
	sort.Strings(list)
	return list
}

// Start begins delivering events.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			pending[ev.Name] = true
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watcher error", "err", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)
			w.log.Debug("package database changed", "files", len(changed))
			w.onChange(changed)

		case <-w.stopCh:
			return
		}
	}
}

// Stop halts the watcher. Pending events that have not settled are dropped.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		err = w.fsw.Close()
	})
	return err
}
