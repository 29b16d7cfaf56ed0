package lang

import (
	"context"
	"strconv"
	"strings"

	"pkgdeck/internal/executor"
	"pkgdeck/pkg/manager"
	"pkgdeck/pkg/manager/native"
	"pkgdeck/pkg/manager/parse"
)

// Cargo implements the Backend interface for binaries installed with
// `cargo install`.
type Cargo struct {
	*native.Base
}

// NewCargo creates a new cargo backend.
func NewCargo(exec *executor.Executor) *Cargo {
	return &Cargo{Base: native.NewBase(manager.SourceCargo, "cargo", exec)}
}

// Probe describes the executables cargo needs.
func (c *Cargo) Probe() manager.ProbeSpec {
	return manager.ProbeSpec{Binaries: []string{"cargo"}, VersionArgs: []string{"--version"}}
}

// ListInstalled returns installed crates.
//
//	ripgrep v14.1.0:
//	    rg
func (c *Cargo) ListInstalled(ctx context.Context) ([]manager.Package, error) {
	output, err := c.Query(ctx, nil, "cargo", "install", "--list")
	if err != nil {
		return nil, err
	}
	var packages []manager.Package
	for _, line := range parse.Lines(output) {
		if line == "" || line[0] == ' ' || !strings.HasSuffix(line, ":") {
			continue
		}
		fields := strings.Fields(strings.TrimSuffix(line, ":"))
		if len(fields) < 2 {
			continue
		}
		packages = append(packages, manager.Package{
			Name:    fields[0],
			Version: strings.TrimPrefix(fields[1], "v"),
			Source:  manager.SourceCargo,
			Status:  manager.StatusInstalled,
		})
	}
	return packages, nil
}

// CheckUpdates uses the cargo-update plugin when it is installed and
// returns nothing otherwise.
//
//	Package  Installed  Latest   Needs update
//	ripgrep  v14.1.0    v14.1.1  Yes
func (c *Cargo) CheckUpdates(ctx context.Context) ([]manager.Package, error) {
	if !c.Has("cargo-install-update") {
		return nil, nil
	}
	output, err := c.Query(ctx, nil, "cargo", "install-update", "-l")
	if err != nil {
		return nil, err
	}
	var packages []manager.Package
	for _, row := range parse.Table(output, "Package", 4) {
		if row[len(row)-1] != "Yes" {
			continue
		}
		packages = append(packages, manager.Package{
			Name:             row[0],
			Version:          strings.TrimPrefix(row[1], "v"),
			AvailableVersion: strings.TrimPrefix(row[2], "v"),
			Source:           manager.SourceCargo,
			Status:           manager.StatusUpdateAvailable,
		})
	}
	return packages, nil
}

// Search finds crates on crates.io.
//
//	ripgrep = "14.1.0"    # ripgrep is a line-oriented search tool
func (c *Cargo) Search(ctx context.Context, query string) ([]manager.Package, error) {
	output, err := c.Query(ctx, nil, "cargo", "search", "--limit", strconv.Itoa(manager.SearchLimit), "--", query)
	if err != nil {
		return nil, err
	}
	return manager.CapSearch(parseCargoSearch(output)), nil
}

func parseCargoSearch(output string) []manager.Package {
	var packages []manager.Package
	for _, line := range parse.Lines(output) {
		name, rest, ok := strings.Cut(line, " = ")
		if !ok || strings.HasPrefix(line, "...") {
			continue
		}
		version, desc, _ := strings.Cut(rest, "#")
		packages = append(packages, manager.Package{
			Name:             strings.TrimSpace(name),
			AvailableVersion: strings.Trim(strings.TrimSpace(version), `"`),
			Description:      strings.TrimSpace(desc),
			Source:           manager.SourceCargo,
			Status:           manager.StatusNotInstalled,
		})
	}
	return packages
}

// Install builds and installs a crate.
func (c *Cargo) Install(ctx context.Context, name string) error {
	return c.Mutate(ctx, manager.OpInstall, name, false, "cargo", "install", "--", name)
}

// Remove uninstalls a crate.
func (c *Cargo) Remove(ctx context.Context, name string) error {
	return c.Mutate(ctx, manager.OpRemove, name, false, "cargo", "uninstall", "--", name)
}

// Update reinstalls the newest release of a crate.
func (c *Cargo) Update(ctx context.Context, name string) error {
	return c.Mutate(ctx, manager.OpUpdate, name, false, "cargo", "install", "--force", "--", name)
}

// AvailableVersions is answered from the search index, which only reports
// the newest release.
func (c *Cargo) AvailableVersions(ctx context.Context, name string) ([]string, error) {
	pkgs, err := c.Search(ctx, name)
	if err != nil {
		return nil, err
	}
	for _, p := range pkgs {
		if p.Name == name {
			return []string{p.AvailableVersion}, nil
		}
	}
	return nil, nil
}

// DowngradeTo installs a specific release.
func (c *Cargo) DowngradeTo(ctx context.Context, name, version string) error {
	if err := manager.ValidateName(version); err != nil {
		return manager.NewOperationError(manager.OpDowngrade, c.Source(), name, manager.ErrVersionNotFound)
	}
	return c.Mutate(ctx, manager.OpDowngrade, name, false,
		"cargo", "install", "--force", "--version", version, "--", name)
}
