package lang

import (
	"context"
	"strings"

	"pkgdeck/internal/executor"
	"pkgdeck/pkg/manager"
	"pkgdeck/pkg/manager/native"
	"pkgdeck/pkg/manager/parse"
)

// Pip implements the Backend interface for Python packages installed with
// pip into the user site.
type Pip struct {
	*native.Base
}

// NewPip creates a new pip backend. pip3 is used when plain pip is not on
// PATH.
func NewPip(exec *executor.Executor) *Pip {
	p := &Pip{Base: native.NewBase(manager.SourcePip, "pip", exec)}
	if !p.Has("pip") && p.Has("pip3") {
		p.SetBinary("pip3")
	}
	return p
}

// Probe describes the executables pip needs.
func (p *Pip) Probe() manager.ProbeSpec {
	return manager.ProbeSpec{AnyOf: []string{"pip", "pip3"}, VersionArgs: []string{"--version"}}
}

// IsAvailable reports whether pip or pip3 is installed.
func (p *Pip) IsAvailable() bool {
	return p.Has("pip") || p.Has("pip3")
}

// ListInstalled returns installed distributions.
func (p *Pip) ListInstalled(ctx context.Context) ([]manager.Package, error) {
	output, err := p.Query(ctx, nil, p.Binary(), "list", "--format=json")
	if err != nil {
		return nil, err
	}
	return parsePipList(output, manager.StatusInstalled), nil
}

// CheckUpdates returns outdated distributions.
func (p *Pip) CheckUpdates(ctx context.Context) ([]manager.Package, error) {
	output, err := p.Query(ctx, nil, p.Binary(), "list", "--outdated", "--format=json")
	if err != nil {
		return nil, err
	}
	return manager.OnlyUpdates(parsePipList(output, manager.StatusUpdateAvailable)), nil
}

// parsePipList reads `pip list --format=json`, with or without --outdated.
// Elements without a name are skipped.
func parsePipList(output string, status manager.Status) []manager.Package {
	var packages []manager.Package
	for _, e := range parse.JSON(output).Array() {
		name := e.Get("name").String()
		if name == "" {
			continue
		}
		packages = append(packages, manager.Package{
			Name:             name,
			Version:          e.Get("version").String(),
			AvailableVersion: e.Get("latest_version").String(),
			Source:           manager.SourcePip,
			Status:           status,
		})
	}
	return packages
}

// Search looks up the exact project name on the index. PyPI has no search
// API, so at most one result is returned.
func (p *Pip) Search(ctx context.Context, query string) ([]manager.Package, error) {
	output, err := p.Query(ctx, []int{1}, p.Binary(), "index", "versions", "--", query)
	if err != nil {
		return nil, err
	}
	name, latest, _ := parsePipIndex(output)
	if name == "" {
		return nil, nil
	}
	return []manager.Package{{
		Name:             name,
		AvailableVersion: latest,
		Source:           manager.SourcePip,
		Status:           manager.StatusNotInstalled,
	}}, nil
}

// parsePipIndex parses `pip index versions` output:
//
//	requests (2.32.3)
//	Available versions: 2.32.3, 2.32.2, 2.31.0
func parsePipIndex(output string) (name, latest string, versions []string) {
	for _, line := range parse.Lines(output) {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "Available versions:"); ok {
			for _, v := range strings.Split(rest, ",") {
				if v = strings.TrimSpace(v); v != "" {
					versions = append(versions, v)
				}
			}
			continue
		}
		if name == "" && strings.HasSuffix(line, ")") {
			if n, v, ok := strings.Cut(line, " ("); ok && !strings.Contains(n, " ") {
				name, latest = n, strings.TrimSuffix(v, ")")
			}
		}
	}
	return name, latest, versions
}

// Install installs a distribution into the user site.
func (p *Pip) Install(ctx context.Context, name string) error {
	return p.Mutate(ctx, manager.OpInstall, name, false, p.Binary(), "install", "--user", "--", name)
}

// Remove uninstalls a distribution.
func (p *Pip) Remove(ctx context.Context, name string) error {
	return p.Mutate(ctx, manager.OpRemove, name, false, p.Binary(), "uninstall", "-y", "--", name)
}

// Update upgrades a distribution.
func (p *Pip) Update(ctx context.Context, name string) error {
	return p.Mutate(ctx, manager.OpUpdate, name, false, p.Binary(), "install", "--user", "--upgrade", "--", name)
}

// AvailableVersions lists the versions on the index.
func (p *Pip) AvailableVersions(ctx context.Context, name string) ([]string, error) {
	if err := manager.ValidateName(name); err != nil {
		return nil, err
	}
	output, err := p.Query(ctx, nil, p.Binary(), "index", "versions", "--", name)
	if err != nil {
		return nil, err
	}
	_, _, versions := parsePipIndex(output)
	return versions, nil
}

// DowngradeTo installs a pinned version.
func (p *Pip) DowngradeTo(ctx context.Context, name, version string) error {
	if err := manager.ValidateName(version); err != nil {
		return manager.NewOperationError(manager.OpDowngrade, p.Source(), name, manager.ErrVersionNotFound)
	}
	return p.Mutate(ctx, manager.OpDowngrade, name, false, p.Binary(), "install", "--user", "--", name+"=="+version)
}

// Cleanup empties pip's wheel cache.
func (p *Pip) Cleanup(ctx context.Context) error {
	return p.Mutate(ctx, manager.OpCleanup, "", false, p.Binary(), "cache", "purge")
}
