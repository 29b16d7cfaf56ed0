package native

import (
	"context"
	"strconv"
	"strings"
	"time"

	"pkgdeck/internal/executor"
	"pkgdeck/pkg/manager"
	"pkgdeck/pkg/manager/parse"
)

// DNF implements the Backend interface for Fedora/RHEL's DNF package manager.
type DNF struct {
	*Base
}

// NewDNF creates a new DNF backend.
func NewDNF(exec *executor.Executor) *DNF {
	return &DNF{Base: NewBase(manager.SourceDNF, "dnf", exec)}
}

// Probe describes the executables DNF needs.
func (d *DNF) Probe() manager.ProbeSpec {
	return manager.ProbeSpec{
		Binaries:    []string{"dnf", "rpm"},
		Privilege:   []string{executor.Launcher},
		VersionArgs: []string{"--version"},
	}
}

const rpmQueryFormat = "%{NAME}\\t%{EPOCHNUM}:%{VERSION}-%{RELEASE}\\t%{SIZE}\\t%{INSTALLTIME}\\t%{SUMMARY}\\n"

// dnfUpdatesFound is the exit code of `dnf check-update` when updates exist.
const dnfUpdatesFound = 100

// ListInstalled returns all installed packages.
func (d *DNF) ListInstalled(ctx context.Context) ([]manager.Package, error) {
	output, err := d.Query(ctx, nil, "rpm", "-qa", "--queryformat", rpmQueryFormat)
	if err != nil {
		return nil, err
	}
	return parseRPMQuery(output), nil
}

func parseRPMQuery(output string) []manager.Package {
	var packages []manager.Package
	for _, row := range parse.Columns(output, "\t", 2) {
		if row[0] == "gpg-pubkey" {
			continue
		}
		pkg := manager.Package{
			Name:    row[0],
			Version: strings.TrimPrefix(row[1], "0:"),
			Source:  manager.SourceDNF,
			Status:  manager.StatusInstalled,
		}
		if len(row) > 2 {
			pkg.SizeBytes, _ = strconv.ParseInt(row[2], 10, 64) //nolint:errcheck
		}
		if len(row) > 3 {
			if secs, err := strconv.ParseInt(row[3], 10, 64); err == nil {
				pkg.InstallDate = time.Unix(secs, 0).UTC().Format(time.RFC3339)
			}
		}
		if len(row) > 4 {
			pkg.Description = row[4]
		}
		packages = append(packages, pkg)
	}
	return packages
}

// CheckUpdates returns packages with a newer version in the enabled
// repositories. dnf does not report the installed version here.
func (d *DNF) CheckUpdates(ctx context.Context) ([]manager.Package, error) {
	output, err := d.Query(ctx, []int{dnfUpdatesFound}, "dnf", "check-update", "-q")
	if err != nil {
		return nil, err
	}
	return parseDNFCheckUpdate(output), nil
}

// parseDNFCheckUpdate parses "name.arch  version  repo" lines, stopping at
// the obsoletes section.
func parseDNFCheckUpdate(output string) []manager.Package {
	var packages []manager.Package
	for _, line := range parse.Lines(output) {
		if strings.HasPrefix(line, "Obsoleting Packages") || strings.HasPrefix(line, "Security:") {
			break
		}
		if line == "" || line[0] == ' ' {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		packages = append(packages, manager.Package{
			Name:             stripArch(fields[0]),
			AvailableVersion: fields[1],
			Source:           manager.SourceDNF,
			Status:           manager.StatusUpdateAvailable,
		})
	}
	return packages
}

// Search finds packages matching the query.
func (d *DNF) Search(ctx context.Context, query string) ([]manager.Package, error) {
	output, err := d.Query(ctx, nil, "dnf", "search", "-q", "--", query)
	if err != nil {
		return nil, err
	}
	return manager.CapSearch(parseDNFSearch(output)), nil
}

// parseDNFSearch parses "name.arch : summary" lines. Section headers
// ("=== Name Exactly Matched ===", "Matched fields: name") are skipped.
func parseDNFSearch(output string) []manager.Package {
	var packages []manager.Package
	seen := make(map[string]bool)
	for _, line := range parse.Lines(output) {
		left, summary, ok := strings.Cut(line, " : ")
		if !ok {
			continue
		}
		name := stripArch(strings.TrimSpace(left))
		if name == "" || strings.ContainsAny(name, " =") || seen[name] {
			continue
		}
		seen[name] = true
		packages = append(packages, manager.Package{
			Name:        name,
			Description: strings.TrimSpace(summary),
			Source:      manager.SourceDNF,
			Status:      manager.StatusNotInstalled,
		})
	}
	return packages
}

var rpmArches = map[string]bool{
	"x86_64": true, "i686": true, "noarch": true, "aarch64": true,
	"armv7hl": true, "ppc64le": true, "s390x": true, "src": true,
}

// stripArch removes a trailing ".arch" from an RPM name.
func stripArch(name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 && rpmArches[name[i+1:]] {
		return name[:i]
	}
	return name
}

// Install installs a package.
func (d *DNF) Install(ctx context.Context, name string) error {
	return d.Mutate(ctx, manager.OpInstall, name, true, "dnf", "install", "-y", "--", name)
}

// Remove removes a package.
func (d *DNF) Remove(ctx context.Context, name string) error {
	return d.Mutate(ctx, manager.OpRemove, name, true, "dnf", "remove", "-y", "--", name)
}

// Update upgrades a single installed package.
func (d *DNF) Update(ctx context.Context, name string) error {
	return d.Mutate(ctx, manager.OpUpdate, name, true, "dnf", "upgrade", "-y", "--", name)
}

// Downgrade steps a package back to the previous version in the repositories.
func (d *DNF) Downgrade(ctx context.Context, name string) error {
	return d.Mutate(ctx, manager.OpDowngrade, name, true, "dnf", "downgrade", "-y", "--", name)
}

// AvailableVersions lists every version the repositories offer.
func (d *DNF) AvailableVersions(ctx context.Context, name string) ([]string, error) {
	if err := manager.ValidateName(name); err != nil {
		return nil, err
	}
	output, err := d.Query(ctx, nil, "dnf", "list", "--showduplicates", "-q", "--", name)
	if err != nil {
		return nil, err
	}
	var versions []string
	seen := make(map[string]bool)
	for _, line := range parse.Lines(output) {
		fields := strings.Fields(line)
		if len(fields) < 3 || stripArch(fields[0]) != name || seen[fields[1]] {
			continue
		}
		seen[fields[1]] = true
		versions = append(versions, fields[1])
	}
	return versions, nil
}

// DowngradeTo installs a specific version.
func (d *DNF) DowngradeTo(ctx context.Context, name, version string) error {
	if err := manager.ValidateName(version); err != nil {
		return manager.NewOperationError(manager.OpDowngrade, d.Source(), name, manager.ErrVersionNotFound)
	}
	return d.Mutate(ctx, manager.OpDowngrade, name, true, "dnf", "install", "-y", "--", name+"-"+version)
}

// Cleanup removes cached repository data and packages.
func (d *DNF) Cleanup(ctx context.Context) error {
	return d.Mutate(ctx, manager.OpCleanup, "", true, "dnf", "clean", "all")
}
