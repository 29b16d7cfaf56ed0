// Package lang implements the language ecosystem package managers: npm,
// pip, pipx, cargo, Homebrew, conda, mamba and the Dart pub cache.
package lang

import (
	"context"

	"pkgdeck/internal/executor"
	"pkgdeck/pkg/manager"
	"pkgdeck/pkg/manager/native"
	"pkgdeck/pkg/manager/parse"
)

// NPM implements the Backend interface for globally installed npm packages.
type NPM struct {
	*native.Base
}

// NewNPM creates a new npm backend.
func NewNPM(exec *executor.Executor) *NPM {
	return &NPM{Base: native.NewBase(manager.SourceNPM, "npm", exec)}
}

// Probe describes the executables npm needs.
func (n *NPM) Probe() manager.ProbeSpec {
	return manager.ProbeSpec{Binaries: []string{"npm"}, VersionArgs: []string{"--version"}}
}

// ListInstalled returns global packages. npm ls exits 1 on extraneous or
// missing peer dependencies but still prints the tree.
func (n *NPM) ListInstalled(ctx context.Context) ([]manager.Package, error) {
	output, err := n.Query(ctx, []int{1}, "npm", "ls", "-g", "--depth=0", "--json")
	if err != nil {
		return nil, err
	}
	deps := parse.JSON(output).Get("dependencies")
	var packages []manager.Package
	for _, name := range deps.Keys() {
		packages = append(packages, manager.Package{
			Name:    name,
			Version: deps.Path(name, "version").String(),
			Source:  manager.SourceNPM,
			Status:  manager.StatusInstalled,
		})
	}
	return packages, nil
}

// CheckUpdates returns outdated global packages. npm exits 1 when any are
// found.
func (n *NPM) CheckUpdates(ctx context.Context) ([]manager.Package, error) {
	output, err := n.Query(ctx, []int{1}, "npm", "outdated", "-g", "--json")
	if err != nil {
		return nil, err
	}
	doc := parse.JSON(output)
	var packages []manager.Package
	for _, name := range doc.Keys() {
		entry := doc.Get(name)
		packages = append(packages, manager.Package{
			Name:             name,
			Version:          entry.Get("current").String(),
			AvailableVersion: entry.First("latest", "wanted").String(),
			Source:           manager.SourceNPM,
			Status:           manager.StatusUpdateAvailable,
		})
	}
	return manager.OnlyUpdates(packages), nil
}

// Search finds packages in the registry.
func (n *NPM) Search(ctx context.Context, query string) ([]manager.Package, error) {
	output, err := n.Query(ctx, nil, "npm", "search", "--json", "--searchlimit=50", "--", query)
	if err != nil {
		return nil, err
	}
	var packages []manager.Package
	for _, e := range parse.JSON(output).Array() {
		name := e.Get("name").String()
		if name == "" {
			continue
		}
		packages = append(packages, manager.Package{
			Name:             name,
			AvailableVersion: e.Get("version").String(),
			Description:      e.Get("description").String(),
			Maintainer:       e.Path("publisher", "username").String(),
			Homepage:         e.Path("links", "homepage").String(),
			Source:           manager.SourceNPM,
			Status:           manager.StatusNotInstalled,
		})
	}
	return manager.CapSearch(packages), nil
}

// Install installs a global package.
func (n *NPM) Install(ctx context.Context, name string) error {
	return n.Mutate(ctx, manager.OpInstall, name, false, "npm", "install", "-g", "--", name)
}

// Remove uninstalls a global package.
func (n *NPM) Remove(ctx context.Context, name string) error {
	return n.Mutate(ctx, manager.OpRemove, name, false, "npm", "uninstall", "-g", "--", name)
}

// Update installs the latest release of a global package.
func (n *NPM) Update(ctx context.Context, name string) error {
	return n.Mutate(ctx, manager.OpUpdate, name, false, "npm", "install", "-g", "--", name+"@latest")
}

// AvailableVersions lists every published version.
func (n *NPM) AvailableVersions(ctx context.Context, name string) ([]string, error) {
	if err := manager.ValidateName(name); err != nil {
		return nil, err
	}
	output, err := n.Query(ctx, nil, "npm", "view", "--json", "--", name, "versions")
	if err != nil {
		return nil, err
	}
	doc := parse.JSON(output)
	if versions := doc.Strings(); versions != nil {
		return versions, nil
	}
	if v := doc.String(); v != "" {
		return []string{v}, nil
	}
	return nil, nil
}

// DowngradeTo installs a specific version.
func (n *NPM) DowngradeTo(ctx context.Context, name, version string) error {
	if err := manager.ValidateName(version); err != nil {
		return manager.NewOperationError(manager.OpDowngrade, n.Source(), name, manager.ErrVersionNotFound)
	}
	return n.Mutate(ctx, manager.OpDowngrade, name, false, "npm", "install", "-g", "--", name+"@"+version)
}

// Cleanup verifies and garbage collects the npm cache.
func (n *NPM) Cleanup(ctx context.Context) error {
	return n.Mutate(ctx, manager.OpCleanup, "", false, "npm", "cache", "verify")
}
