package native

import (
	"context"

	"pkgdeck/internal/executor"
	"pkgdeck/pkg/manager"
	"pkgdeck/pkg/manager/parse"
)

// zypperNoMatch is the exit code zypper uses when a search finds nothing.
const zypperNoMatch = 104

// Zypper implements the Backend interface for openSUSE's zypper package manager.
type Zypper struct {
	*Base
}

// NewZypper creates a new Zypper backend.
func NewZypper(exec *executor.Executor) *Zypper {
	return &Zypper{Base: NewBase(manager.SourceZypper, "zypper", exec)}
}

// Probe describes the executables zypper needs.
func (z *Zypper) Probe() manager.ProbeSpec {
	return manager.ProbeSpec{
		Binaries:    []string{"zypper"},
		Privilege:   []string{executor.Launcher},
		VersionArgs: []string{"--version"},
	}
}

// ListInstalled returns all installed packages.
func (z *Zypper) ListInstalled(ctx context.Context) ([]manager.Package, error) {
	output, err := z.Query(ctx, []int{zypperNoMatch}, "zypper", "--quiet", "search", "-is")
	if err != nil {
		return nil, err
	}
	return parseZypperInstalled(output), nil
}

// zypperRows returns the data rows of a "|" separated zypper table.
func zypperRows(output string, minCols int) [][]string {
	var rows [][]string
	for _, row := range parse.Columns(output, "|", minCols) {
		if row[1] == "Name" || row[1] == "Repository" {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// parseZypperInstalled parses "S | Name | Type | Version | Arch | Repository".
func parseZypperInstalled(output string) []manager.Package {
	var packages []manager.Package
	seen := make(map[string]bool)
	for _, row := range zypperRows(output, 6) {
		if row[2] != "package" || seen[row[1]] {
			continue
		}
		seen[row[1]] = true
		packages = append(packages, manager.Package{
			Name:    row[1],
			Version: row[3],
			Source:  manager.SourceZypper,
			Status:  manager.StatusInstalled,
		})
	}
	return packages
}

// CheckUpdates returns packages with a newer version available.
func (z *Zypper) CheckUpdates(ctx context.Context) ([]manager.Package, error) {
	output, err := z.Query(ctx, nil, "zypper", "--quiet", "list-updates")
	if err != nil {
		return nil, err
	}
	return parseZypperUpdates(output), nil
}

// parseZypperUpdates parses
// "S | Repository | Name | Current Version | Available Version | Arch".
func parseZypperUpdates(output string) []manager.Package {
	var packages []manager.Package
	for _, row := range zypperRows(output, 6) {
		packages = append(packages, manager.Package{
			Name:             row[2],
			Version:          row[3],
			AvailableVersion: row[4],
			Source:           manager.SourceZypper,
			Status:           manager.StatusUpdateAvailable,
		})
	}
	return packages
}

// Search finds packages matching the query.
func (z *Zypper) Search(ctx context.Context, query string) ([]manager.Package, error) {
	output, err := z.Query(ctx, []int{zypperNoMatch}, "zypper", "--quiet", "search", "--", query)
	if err != nil {
		return nil, err
	}
	return manager.CapSearch(parseZypperSearch(output)), nil
}

// parseZypperSearch parses "S | Name | Summary | Type".
func parseZypperSearch(output string) []manager.Package {
	var packages []manager.Package
	for _, row := range zypperRows(output, 4) {
		if row[3] != "package" {
			continue
		}
		packages = append(packages, manager.Package{
			Name:        row[1],
			Description: row[2],
			Source:      manager.SourceZypper,
			Status:      manager.StatusNotInstalled,
		})
	}
	return packages
}

// Install installs a package.
func (z *Zypper) Install(ctx context.Context, name string) error {
	return z.Mutate(ctx, manager.OpInstall, name, true, "zypper", "-n", "install", "--", name)
}

// Remove removes a package.
func (z *Zypper) Remove(ctx context.Context, name string) error {
	return z.Mutate(ctx, manager.OpRemove, name, true, "zypper", "-n", "remove", "--", name)
}

// Update upgrades a single installed package.
func (z *Zypper) Update(ctx context.Context, name string) error {
	return z.Mutate(ctx, manager.OpUpdate, name, true, "zypper", "-n", "update", "--", name)
}

// AvailableVersions lists every version the repositories offer.
func (z *Zypper) AvailableVersions(ctx context.Context, name string) ([]string, error) {
	if err := manager.ValidateName(name); err != nil {
		return nil, err
	}
	output, err := z.Query(ctx, []int{zypperNoMatch}, "zypper", "--quiet", "search", "-s", "--match-exact", "--", name)
	if err != nil {
		return nil, err
	}
	var versions []string
	seen := make(map[string]bool)
	for _, row := range zypperRows(output, 6) {
		if row[1] != name || seen[row[3]] {
			continue
		}
		seen[row[3]] = true
		versions = append(versions, row[3])
	}
	return versions, nil
}

// DowngradeTo installs a specific older version.
func (z *Zypper) DowngradeTo(ctx context.Context, name, version string) error {
	if err := manager.ValidateName(version); err != nil {
		return manager.NewOperationError(manager.OpDowngrade, z.Source(), name, manager.ErrVersionNotFound)
	}
	return z.Mutate(ctx, manager.OpDowngrade, name, true,
		"zypper", "-n", "install", "--oldpackage", "--", name+"="+version)
}

// Cleanup removes cached packages and metadata.
func (z *Zypper) Cleanup(ctx context.Context) error {
	return z.Mutate(ctx, manager.OpCleanup, "", true, "zypper", "clean", "--all")
}
