package native

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"pkgdeck/internal/executor"
	"pkgdeck/pkg/manager"
	"pkgdeck/pkg/manager/parse"
)

// APT implements the Backend interface for Debian/Ubuntu's APT package manager.
type APT struct {
	*Base
}

// NewAPT creates a new APT backend.
func NewAPT(exec *executor.Executor) *APT {
	return &APT{Base: NewBase(manager.SourceAPT, "apt-get", exec)}
}

// Probe describes the executables APT needs.
func (a *APT) Probe() manager.ProbeSpec {
	return manager.ProbeSpec{
		Binaries:    []string{"apt-get", "apt-cache", "dpkg-query"},
		Privilege:   []string{executor.Launcher},
		VersionArgs: []string{"--version"},
	}
}

const dpkgQueryFormat = "${Package}\\t${Version}\\t${Status}\\t${Installed-Size}\\t${binary:Summary}\\n"

// ListInstalled returns all installed packages.
func (a *APT) ListInstalled(ctx context.Context) ([]manager.Package, error) {
	output, err := a.Query(ctx, nil, "dpkg-query", "-W", "-f="+dpkgQueryFormat)
	if err != nil {
		return nil, err
	}
	return parseDpkgQuery(output), nil
}

// parseDpkgQuery parses tab separated dpkg-query output, keeping only
// packages whose status is "install ok installed".
func parseDpkgQuery(output string) []manager.Package {
	var packages []manager.Package
	for _, row := range parse.Columns(output, "\t", 3) {
		if !strings.HasSuffix(row[2], " installed") {
			continue
		}
		pkg := manager.Package{
			Name:    row[0],
			Version: row[1],
			Source:  manager.SourceAPT,
			Status:  manager.StatusInstalled,
		}
		if len(row) > 3 {
			if kib, err := strconv.ParseInt(row[3], 10, 64); err == nil {
				pkg.SizeBytes = kib * 1024
			}
		}
		if len(row) > 4 {
			pkg.Description = row[4]
		}
		packages = append(packages, pkg)
	}
	return packages
}

// Matches: "vim/jammy-updates 2:8.2.3995-1ubuntu2.16 amd64 [upgradable from: 2:8.2.3995-1ubuntu2.15]"
var aptUpgradablePattern = regexp.MustCompile(`^(\S+)/\S+\s+(\S+)\s+\S+\s+\[upgradable from: ([^\]]+)\]`)

// CheckUpdates returns packages with a newer candidate version.
func (a *APT) CheckUpdates(ctx context.Context) ([]manager.Package, error) {
	output, err := a.Query(ctx, nil, "apt", "list", "--upgradable")
	if err != nil {
		return nil, err
	}
	return parseAptUpgradable(output), nil
}

func parseAptUpgradable(output string) []manager.Package {
	var packages []manager.Package
	for _, line := range parse.Lines(output) {
		m := aptUpgradablePattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		packages = append(packages, manager.Package{
			Name:             m[1],
			Version:          m[3],
			AvailableVersion: m[2],
			Source:           manager.SourceAPT,
			Status:           manager.StatusUpdateAvailable,
		})
	}
	return packages
}

// Search finds packages matching the query.
func (a *APT) Search(ctx context.Context, query string) ([]manager.Package, error) {
	output, err := a.Query(ctx, nil, "apt-cache", "search", "--", query)
	if err != nil {
		return nil, err
	}
	return manager.CapSearch(parseAptSearch(output)), nil
}

// parseAptSearch parses "name - description" lines from apt-cache search.
func parseAptSearch(output string) []manager.Package {
	var packages []manager.Package
	for _, line := range parse.Lines(output) {
		name, desc, ok := strings.Cut(line, " - ")
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		packages = append(packages, manager.Package{
			Name:        strings.TrimSpace(name),
			Description: strings.TrimSpace(desc),
			Source:      manager.SourceAPT,
			Status:      manager.StatusNotInstalled,
		})
	}
	return packages
}

// Install installs a package.
func (a *APT) Install(ctx context.Context, name string) error {
	return a.Mutate(ctx, manager.OpInstall, name, true, "apt-get", "install", "-y", "--", name)
}

// Remove removes a package.
func (a *APT) Remove(ctx context.Context, name string) error {
	return a.Mutate(ctx, manager.OpRemove, name, true, "apt-get", "remove", "-y", "--", name)
}

// Update upgrades a single installed package.
func (a *APT) Update(ctx context.Context, name string) error {
	return a.Mutate(ctx, manager.OpUpdate, name, true, "apt-get", "install", "--only-upgrade", "-y", "--", name)
}

// AvailableVersions lists every version the configured repositories offer.
func (a *APT) AvailableVersions(ctx context.Context, name string) ([]string, error) {
	if err := manager.ValidateName(name); err != nil {
		return nil, err
	}
	output, err := a.Query(ctx, nil, "apt-cache", "madison", "--", name)
	if err != nil {
		return nil, err
	}
	return parseMadison(output), nil
}

// parseMadison parses "vim | 2:9.1.0016-1ubuntu7 | http://archive... Packages".
func parseMadison(output string) []string {
	var versions []string
	seen := make(map[string]bool)
	for _, row := range parse.Columns(output, "|", 3) {
		if v := row[1]; v != "" && !seen[v] {
			seen[v] = true
			versions = append(versions, v)
		}
	}
	return versions
}

// DowngradeTo installs a specific version.
func (a *APT) DowngradeTo(ctx context.Context, name, version string) error {
	if err := manager.ValidateName(version); err != nil {
		return manager.NewOperationError(manager.OpDowngrade, a.Source(), name, manager.ErrVersionNotFound)
	}
	return a.Mutate(ctx, manager.OpDowngrade, name, true,
		"apt-get", "install", "-y", "--allow-downgrades", "--", name+"="+version)
}

// Cleanup removes cached package files.
func (a *APT) Cleanup(ctx context.Context) error {
	return a.Mutate(ctx, manager.OpCleanup, "", true, "apt-get", "clean")
}
