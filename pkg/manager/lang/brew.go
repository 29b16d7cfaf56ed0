package lang

import (
	"context"
	"strings"

	"pkgdeck/internal/executor"
	"pkgdeck/pkg/manager"
	"pkgdeck/pkg/manager/native"
	"pkgdeck/pkg/manager/parse"
)

// Brew implements the Backend interface for Homebrew (macOS and Linux).
type Brew struct {
	*native.Base
}

// NewBrew creates a new Homebrew backend.
func NewBrew(exec *executor.Executor) *Brew {
	return &Brew{Base: native.NewBase(manager.SourceBrew, "brew", exec)}
}

// Probe describes the executables Homebrew needs.
func (b *Brew) Probe() manager.ProbeSpec {
	return manager.ProbeSpec{Binaries: []string{"brew"}, VersionArgs: []string{"--version"}}
}

// ListInstalled returns installed formulae and casks. When several versions
// of a keg are installed the last one listed is reported.
func (b *Brew) ListInstalled(ctx context.Context) ([]manager.Package, error) {
	output, err := b.Query(ctx, nil, "brew", "list", "--versions")
	if err != nil {
		return nil, err
	}
	var packages []manager.Package
	for _, line := range parse.Lines(output) {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		packages = append(packages, manager.Package{
			Name:    fields[0],
			Version: fields[len(fields)-1],
			Source:  manager.SourceBrew,
			Status:  manager.StatusInstalled,
		})
	}
	return packages, nil
}

// CheckUpdates returns outdated formulae and casks.
func (b *Brew) CheckUpdates(ctx context.Context) ([]manager.Package, error) {
	output, err := b.Query(ctx, nil, "brew", "outdated", "--json=v2")
	if err != nil {
		return nil, err
	}
	return manager.OnlyUpdates(parseBrewOutdated(output)), nil
}

// parseBrewOutdated reads both sections of `brew outdated --json=v2`.
// installed_versions is an array for formulae and, on older releases, a
// bare string for casks.
func parseBrewOutdated(output string) []manager.Package {
	doc := parse.JSON(output)
	var packages []manager.Package
	for _, section := range []string{"formulae", "casks"} {
		for _, e := range doc.Get(section).Array() {
			name := e.Get("name").String()
			if name == "" {
				continue
			}
			installed := e.Get("installed_versions")
			current := installed.String()
			if versions := installed.Strings(); len(versions) > 0 {
				current = versions[len(versions)-1]
			}
			packages = append(packages, manager.Package{
				Name:             name,
				Version:          current,
				AvailableVersion: e.Get("current_version").String(),
				Source:           manager.SourceBrew,
				Status:           manager.StatusUpdateAvailable,
			})
		}
	}
	return packages
}

// Search finds formulae and casks by name.
func (b *Brew) Search(ctx context.Context, query string) ([]manager.Package, error) {
	output, err := b.Query(ctx, []int{1}, "brew", "search", "--", query)
	if err != nil {
		return nil, err
	}
	var packages []manager.Package
	seen := make(map[string]bool)
	for _, line := range parse.Lines(output) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "==>") || strings.Contains(line, " ") || seen[line] {
			continue
		}
		seen[line] = true
		packages = append(packages, manager.Package{
			Name:   line,
			Source: manager.SourceBrew,
			Status: manager.StatusNotInstalled,
		})
	}
	return manager.CapSearch(packages), nil
}

// Install installs a formula or cask.
func (b *Brew) Install(ctx context.Context, name string) error {
	return b.Mutate(ctx, manager.OpInstall, name, false, "brew", "install", "--", name)
}

// Remove uninstalls a formula or cask.
func (b *Brew) Remove(ctx context.Context, name string) error {
	return b.Mutate(ctx, manager.OpRemove, name, false, "brew", "uninstall", "--", name)
}

// Update upgrades a formula or cask.
func (b *Brew) Update(ctx context.Context, name string) error {
	return b.Mutate(ctx, manager.OpUpdate, name, false, "brew", "upgrade", "--", name)
}

// Cleanup removes old versions and stale downloads.
func (b *Brew) Cleanup(ctx context.Context) error {
	return b.Mutate(ctx, manager.OpCleanup, "", false, "brew", "cleanup")
}
