package native

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"pkgdeck/internal/executor"
	"pkgdeck/pkg/manager"
	"pkgdeck/pkg/manager/parse"
)

// DefaultPacmanCache is where pacman keeps downloaded packages.
const DefaultPacmanCache = "/var/cache/pacman/pkg"

// Pacman implements the Backend interface for Arch Linux's pacman package manager.
type Pacman struct {
	*Base
	cacheDir string
}

// NewPacman creates a new Pacman backend.
func NewPacman(exec *executor.Executor) *Pacman {
	return &Pacman{
		Base:     NewBase(manager.SourcePacman, "pacman", exec),
		cacheDir: DefaultPacmanCache,
	}
}

// SetCacheDir changes the package cache scanned for older versions.
func (p *Pacman) SetCacheDir(dir string) {
	p.cacheDir = dir
}

// Probe describes the executables pacman needs.
func (p *Pacman) Probe() manager.ProbeSpec {
	return manager.ProbeSpec{
		Binaries:    []string{"pacman"},
		Privilege:   []string{executor.Launcher},
		VersionArgs: []string{"--version"},
	}
}

// ListInstalled returns all installed packages.
func (p *Pacman) ListInstalled(ctx context.Context) ([]manager.Package, error) {
	output, err := p.Query(ctx, nil, "pacman", "-Qi")
	if err != nil {
		return nil, err
	}
	return parsePacmanInfo(output), nil
}

// parsePacmanInfo parses pacman -Qi/-Si output.
func parsePacmanInfo(output string) []manager.Package {
	var packages []manager.Package
	for _, rec := range parse.KeyValueBlocks(output, "Name") {
		pkg := manager.Package{
			Name:        rec["Name"],
			Version:     rec["Version"],
			Description: rec["Description"],
			Homepage:    noneToEmpty(rec["URL"]),
			License:     noneToEmpty(rec["Licenses"]),
			Maintainer:  noneToEmpty(rec["Packager"]),
			InstallDate: rec["Install Date"],
			Source:      manager.SourcePacman,
			Status:      manager.StatusInstalled,
		}
		if size, err := humanize.ParseBytes(rec["Installed Size"]); err == nil {
			pkg.SizeBytes = int64(size)
		}
		if deps := noneToEmpty(rec["Depends On"]); deps != "" {
			pkg.Dependencies = strings.Fields(deps)
		}
		packages = append(packages, pkg)
	}
	return packages
}

func noneToEmpty(s string) string {
	if s == "None" {
		return ""
	}
	return s
}

// CheckUpdates returns packages with a newer version in the sync
// databases. checkupdates is preferred since it does not need root to
// refresh them.
func (p *Pacman) CheckUpdates(ctx context.Context) ([]manager.Package, error) {
	var (
		output string
		err    error
	)
	if p.Has("checkupdates") {
		output, err = p.Query(ctx, []int{2}, "checkupdates")
	} else {
		output, err = p.Query(ctx, []int{1}, "pacman", "-Qu")
	}
	if err != nil {
		return nil, err
	}
	return ArrowUpdates(output, manager.SourcePacman), nil
}

// ArrowUpdates parses "name old -> new" lines, as printed by pacman
// and the AUR helpers.
func ArrowUpdates(output string, source manager.Source) []manager.Package {
	var packages []manager.Package
	for _, line := range parse.Lines(parse.StripANSI(output)) {
		fields := strings.Fields(line)
		if len(fields) < 4 || fields[2] != "->" {
			continue
		}
		packages = append(packages, manager.Package{
			Name:             fields[0],
			Version:          fields[1],
			AvailableVersion: fields[3],
			Source:           source,
			Status:           manager.StatusUpdateAvailable,
		})
	}
	return packages
}

// Search finds packages matching the query. pacman exits 1 when nothing
// matches.
func (p *Pacman) Search(ctx context.Context, query string) ([]manager.Package, error) {
	output, err := p.Query(ctx, []int{1}, "pacman", "-Ss", "--", query)
	if err != nil {
		return nil, err
	}
	return manager.CapSearch(SearchBlocks(parse.PairedBlocks(output), manager.SourcePacman)), nil
}

// SearchBlocks converts paired search blocks into not-installed packages.
func SearchBlocks(blocks []parse.Block, source manager.Source) []manager.Package {
	packages := make([]manager.Package, 0, len(blocks))
	for _, b := range blocks {
		packages = append(packages, manager.Package{
			Name:             b.Name,
			AvailableVersion: b.Version,
			Description:      b.Description,
			Source:           source,
			Status:           manager.StatusNotInstalled,
		})
	}
	return packages
}

// Install installs a package, skipping it when already up to date.
func (p *Pacman) Install(ctx context.Context, name string) error {
	return p.Mutate(ctx, manager.OpInstall, name, true, "pacman", "-S", "--needed", "--noconfirm", "--", name)
}

// Remove removes a package.
func (p *Pacman) Remove(ctx context.Context, name string) error {
	return p.Mutate(ctx, manager.OpRemove, name, true, "pacman", "-R", "--noconfirm", "--", name)
}

// Update upgrades a single installed package.
func (p *Pacman) Update(ctx context.Context, name string) error {
	return p.Mutate(ctx, manager.OpUpdate, name, true, "pacman", "-S", "--noconfirm", "--", name)
}

// AvailableVersions lists the versions of name left in the package cache.
func (p *Pacman) AvailableVersions(_ context.Context, name string) ([]string, error) {
	if err := manager.ValidateName(name); err != nil {
		return nil, err
	}
	files, err := p.cachedFiles(name)
	if err != nil {
		return nil, err
	}
	versions := make([]string, 0, len(files))
	for _, f := range files {
		versions = append(versions, f.version)
	}
	return versions, nil
}

// DowngradeTo installs a cached package file of the given version.
func (p *Pacman) DowngradeTo(ctx context.Context, name, version string) error {
	if err := manager.ValidateName(name); err != nil {
		return manager.NewOperationError(manager.OpDowngrade, p.Source(), name, err)
	}
	files, err := p.cachedFiles(name)
	if err != nil {
		return manager.NewOperationError(manager.OpDowngrade, p.Source(), name, err)
	}
	for _, f := range files {
		if f.version == version {
			return p.Mutate(ctx, manager.OpDowngrade, name, true, "pacman", "-U", "--noconfirm", "--", f.path)
		}
	}
	return manager.NewOperationError(manager.OpDowngrade, p.Source(), name, manager.ErrVersionNotFound)
}

// Cleanup removes cached packages that are no longer installed.
func (p *Pacman) Cleanup(ctx context.Context) error {
	return p.Mutate(ctx, manager.OpCleanup, "", true, "pacman", "-Sc", "--noconfirm")
}

type cachedPackage struct {
	version string
	path    string
}

func (p *Pacman) cachedFiles(name string) ([]cachedPackage, error) {
	entries, err := os.ReadDir(p.cacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var files []cachedPackage
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		pkgName, version, ok := parseCacheFilename(e.Name())
		if !ok || pkgName != name {
			continue
		}
		files = append(files, cachedPackage{version: version, path: filepath.Join(p.cacheDir, e.Name())})
	}
	return files, nil
}

// parseCacheFilename splits "name-pkgver-pkgrel-arch.pkg.tar.zst" into the
// package name and "pkgver-pkgrel". Detached signatures are ignored.
func parseCacheFilename(file string) (name, version string, ok bool) {
	base, _, found := strings.Cut(file, ".pkg.tar")
	if !found || strings.HasSuffix(file, ".sig") {
		return "", "", false
	}
	parts := strings.Split(base, "-")
	if len(parts) < 4 {
		return "", "", false
	}
	n := len(parts)
	return strings.Join(parts[:n-3], "-"), parts[n-3] + "-" + parts[n-2], true
}
