package lang

import (
	"context"

	"pkgdeck/internal/executor"
	"pkgdeck/pkg/manager"
	"pkgdeck/pkg/manager/native"
	"pkgdeck/pkg/manager/parse"
)

// Conda implements the Backend interface for the packages of the active
// conda environment. Mamba speaks the same command line, so one type
// serves both sources.
type Conda struct {
	*native.Base
}

// NewConda creates a conda backend.
func NewConda(exec *executor.Executor) *Conda {
	return &Conda{Base: native.NewBase(manager.SourceConda, "conda", exec)}
}

// NewMamba creates a mamba backend.
func NewMamba(exec *executor.Executor) *Conda {
	return &Conda{Base: native.NewBase(manager.SourceMamba, "mamba", exec)}
}

// Probe describes the executable this backend needs.
func (c *Conda) Probe() manager.ProbeSpec {
	return manager.ProbeSpec{Binaries: []string{c.Binary()}, VersionArgs: []string{"--version"}}
}

// ListInstalled returns packages in the active environment.
func (c *Conda) ListInstalled(ctx context.Context) ([]manager.Package, error) {
	output, err := c.Query(ctx, nil, c.Binary(), "list", "--json")
	if err != nil {
		return nil, err
	}
	return parseCondaList(output, c.Source()), nil
}

func parseCondaList(output string, source manager.Source) []manager.Package {
	var packages []manager.Package
	for _, e := range parse.JSON(output).Array() {
		name := e.Get("name").String()
		if name == "" {
			continue
		}
		packages = append(packages, manager.Package{
			Name:    name,
			Version: e.Get("version").String(),
			Source:  source,
			Status:  manager.StatusInstalled,
		})
	}
	return packages
}

// CheckUpdates runs a dry-run update of the environment and reports every
// package that would be replaced.
func (c *Conda) CheckUpdates(ctx context.Context) ([]manager.Package, error) {
	output, err := c.Query(ctx, nil, c.Binary(), "update", "--all", "--dry-run", "--json")
	if err != nil {
		return nil, err
	}
	return manager.OnlyUpdates(parseCondaDryRun(output, c.Source())), nil
}

// parseCondaDryRun pairs LINK and UNLINK actions by name. A LINK without a
// matching UNLINK is a new dependency, not an update.
func parseCondaDryRun(output string, source manager.Source) []manager.Package {
	actions := parse.JSON(output).Get("actions")
	old := make(map[string]string)
	for _, e := range actions.Get("UNLINK").Array() {
		old[e.Get("name").String()] = e.Get("version").String()
	}
	var packages []manager.Package
	for _, e := range actions.Get("LINK").Array() {
		name := e.Get("name").String()
		prev, ok := old[name]
		if name == "" || !ok {
			continue
		}
		packages = append(packages, manager.Package{
			Name:             name,
			Version:          prev,
			AvailableVersion: e.Get("version").String(),
			Source:           source,
			Status:           manager.StatusUpdateAvailable,
		})
	}
	return packages
}

// Search finds packages on the configured channels. conda exits 1 with a
// PackagesNotFoundError document when nothing matches.
func (c *Conda) Search(ctx context.Context, query string) ([]manager.Package, error) {
	output, err := c.Query(ctx, []int{1}, c.Binary(), "search", "--json", "--", query)
	if err != nil {
		return nil, err
	}
	doc := parse.JSON(output)
	var packages []manager.Package
	for _, name := range doc.Keys() {
		builds := doc.Get(name).Array()
		if len(builds) == 0 {
			continue
		}
		newest := builds[len(builds)-1]
		packages = append(packages, manager.Package{
			Name:             name,
			AvailableVersion: newest.Get("version").String(),
			License:          newest.Get("license").String(),
			Source:           c.Source(),
			Status:           manager.StatusNotInstalled,
		})
	}
	return manager.CapSearch(packages), nil
}

// Install installs a package into the active environment.
func (c *Conda) Install(ctx context.Context, name string) error {
	return c.Mutate(ctx, manager.OpInstall, name, false, c.Binary(), "install", "-y", "--", name)
}

// Remove removes a package from the active environment.
func (c *Conda) Remove(ctx context.Context, name string) error {
	return c.Mutate(ctx, manager.OpRemove, name, false, c.Binary(), "remove", "-y", "--", name)
}

// Update updates a package.
func (c *Conda) Update(ctx context.Context, name string) error {
	return c.Mutate(ctx, manager.OpUpdate, name, false, c.Binary(), "update", "-y", "--", name)
}

// AvailableVersions lists every version on the configured channels,
// oldest first.
func (c *Conda) AvailableVersions(ctx context.Context, name string) ([]string, error) {
	if err := manager.ValidateName(name); err != nil {
		return nil, err
	}
	output, err := c.Query(ctx, []int{1}, c.Binary(), "search", "--json", "--", name)
	if err != nil {
		return nil, err
	}
	var versions []string
	seen := make(map[string]bool)
	for _, e := range parse.JSON(output).Get(name).Array() {
		if v := e.Get("version").String(); v != "" && !seen[v] {
			seen[v] = true
			versions = append(versions, v)
		}
	}
	return versions, nil
}

// DowngradeTo installs a pinned version.
func (c *Conda) DowngradeTo(ctx context.Context, name, version string) error {
	if err := manager.ValidateName(version); err != nil {
		return manager.NewOperationError(manager.OpDowngrade, c.Source(), name, manager.ErrVersionNotFound)
	}
	return c.Mutate(ctx, manager.OpDowngrade, name, false, c.Binary(), "install", "-y", "--", name+"="+version)
}

// Cleanup removes unused packages and tarballs from the package cache.
func (c *Conda) Cleanup(ctx context.Context) error {
	return c.Mutate(ctx, manager.OpCleanup, "", false, c.Binary(), "clean", "--all", "-y")
}
