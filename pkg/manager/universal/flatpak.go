// Package universal implements the sandboxed and community sources that run
// alongside a distribution package manager: Flatpak, Snap and the AUR.
package universal

import (
	"context"
	"strings"

	"github.com/dustin/go-humanize"

	"pkgdeck/internal/executor"
	"pkgdeck/pkg/manager"
	"pkgdeck/pkg/manager/native"
	"pkgdeck/pkg/manager/parse"
)

// DefaultFlatpakRemote is used when no remote is configured.
const DefaultFlatpakRemote = "flathub"

// Flatpak implements the Backend interface for Flatpak applications.
type Flatpak struct {
	*native.Base
	remote string
}

// NewFlatpak creates a new Flatpak backend installing from remote.
func NewFlatpak(exec *executor.Executor, remote string) *Flatpak {
	if remote == "" {
		remote = DefaultFlatpakRemote
	}
	return &Flatpak{
		Base:   native.NewBase(manager.SourceFlatpak, "flatpak", exec),
		remote: remote,
	}
}

// Remote returns the remote used for installs.
func (f *Flatpak) Remote() string {
	return f.remote
}

// Probe describes the executables Flatpak needs.
func (f *Flatpak) Probe() manager.ProbeSpec {
	return manager.ProbeSpec{
		Binaries:    []string{"flatpak"},
		VersionArgs: []string{"--version"},
	}
}

// ListInstalled returns installed applications. Runtimes are omitted.
func (f *Flatpak) ListInstalled(ctx context.Context) ([]manager.Package, error) {
	output, err := f.Query(ctx, nil, "flatpak", "list", "--app",
		"--columns=application,version,name,description,size")
	if err != nil {
		return nil, err
	}
	return parseFlatpakList(output), nil
}

func parseFlatpakList(output string) []manager.Package {
	var packages []manager.Package
	for _, row := range parse.Columns(output, "\t", 2) {
		pkg := manager.Package{
			Name:    row[0],
			Version: row[1],
			Source:  manager.SourceFlatpak,
			Status:  manager.StatusInstalled,
		}
		if len(row) > 3 {
			pkg.Description = row[3]
			if pkg.Description == "" {
				pkg.Description = row[2]
			}
		}
		if len(row) > 4 {
			pkg.SizeBytes = parseFlatpakSize(row[4])
		}
		packages = append(packages, pkg)
	}
	return packages
}

// parseFlatpakSize parses sizes such as "1.2 GB". Flatpak separates the
// unit with a no-break space.
func parseFlatpakSize(s string) int64 {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0
	}
	return int64(n)
}

// CheckUpdates returns applications with an update on their remote. The
// installed version is not part of this listing.
func (f *Flatpak) CheckUpdates(ctx context.Context) ([]manager.Package, error) {
	output, err := f.Query(ctx, nil, "flatpak", "remote-ls", "--updates", "--app",
		"--columns=application,version")
	if err != nil {
		return nil, err
	}
	var packages []manager.Package
	for _, row := range parse.Columns(output, "\t", 2) {
		packages = append(packages, manager.Package{
			Name:             row[0],
			AvailableVersion: row[1],
			Source:           manager.SourceFlatpak,
			Status:           manager.StatusUpdateAvailable,
		})
	}
	return manager.OnlyUpdates(packages), nil
}

// Search finds applications on the configured remotes.
func (f *Flatpak) Search(ctx context.Context, query string) ([]manager.Package, error) {
	output, err := f.Query(ctx, nil, "flatpak", "search",
		"--columns=application,version,name,description", "--", query)
	if err != nil {
		return nil, err
	}
	return manager.CapSearch(parseFlatpakSearch(output)), nil
}

func parseFlatpakSearch(output string) []manager.Package {
	var packages []manager.Package
	seen := make(map[string]bool)
	for _, row := range parse.Columns(output, "\t", 2) {
		if strings.Contains(row[0], " ") || seen[row[0]] {
			continue
		}
		seen[row[0]] = true
		pkg := manager.Package{
			Name:             row[0],
			AvailableVersion: row[1],
			Source:           manager.SourceFlatpak,
			Status:           manager.StatusNotInstalled,
		}
		if len(row) > 3 {
			pkg.Description = row[3]
		}
		packages = append(packages, pkg)
	}
	return packages
}

// Install installs an application from the configured remote.
func (f *Flatpak) Install(ctx context.Context, name string) error {
	return f.Mutate(ctx, manager.OpInstall, name, false,
		"flatpak", "install", "-y", "--noninteractive", "--", f.remote, name)
}

// Remove uninstalls an application.
func (f *Flatpak) Remove(ctx context.Context, name string) error {
	return f.Mutate(ctx, manager.OpRemove, name, false,
		"flatpak", "uninstall", "-y", "--noninteractive", "--", name)
}

// Update updates an application.
func (f *Flatpak) Update(ctx context.Context, name string) error {
	return f.Mutate(ctx, manager.OpUpdate, name, false,
		"flatpak", "update", "-y", "--noninteractive", "--", name)
}

// Cleanup removes runtimes no application uses anymore.
func (f *Flatpak) Cleanup(ctx context.Context) error {
	return f.Mutate(ctx, manager.OpCleanup, "", false,
		"flatpak", "uninstall", "--unused", "-y", "--noninteractive")
}
