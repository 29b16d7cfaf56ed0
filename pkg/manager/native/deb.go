package native

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"pkgdeck/internal/executor"
	"pkgdeck/pkg/manager"
	"pkgdeck/pkg/manager/parse"
)

// Deb manages standalone .deb files kept in a local directory. Packages are
// installed through apt-get so their dependencies resolve, and appear as
// installed only while dpkg knows them.
type Deb struct {
	*Base
	dir string
}

// NewDeb creates a backend for the .deb files in dir.
func NewDeb(exec *executor.Executor, dir string) *Deb {
	return &Deb{Base: NewBase(manager.SourceDeb, "dpkg-deb", exec), dir: dir}
}

// Dir returns the directory scanned for .deb files.
func (d *Deb) Dir() string {
	return d.dir
}

// Probe describes the executables the deb source needs.
func (d *Deb) Probe() manager.ProbeSpec {
	return manager.ProbeSpec{
		Binaries:    []string{"dpkg-deb", "dpkg-query", "dpkg", "apt-get"},
		Privilege:   []string{executor.Launcher},
		VersionArgs: []string{"--version"},
	}
}

type debFile struct {
	name        string
	version     string
	description string
	path        string
}

// localFiles reads the control fields of every .deb in the directory.
// Unreadable files are skipped.
func (d *Deb) localFiles(ctx context.Context) ([]debFile, error) {
	paths, err := filepath.Glob(filepath.Join(d.dir, "*.deb"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var files []debFile
	for _, path := range paths {
		output, err := d.Query(ctx, nil, "dpkg-deb", "-f", path, "Package", "Version", "Description")
		if err != nil {
			continue
		}
		f, ok := parseDebControl(output)
		if !ok {
			continue
		}
		f.path = path
		files = append(files, f)
	}
	return files, nil
}

// parseDebControl parses `dpkg-deb -f` output. Only the first line of a
// multi-line description is kept.
func parseDebControl(output string) (debFile, bool) {
	records := parse.KeyValueBlocks(firstParagraph(output), "Package")
	if len(records) == 0 {
		return debFile{}, false
	}
	rec := records[0]
	return debFile{
		name:        rec["Package"],
		version:     rec["Version"],
		description: rec["Description"],
	}, true
}

func firstParagraph(output string) string {
	var b strings.Builder
	for _, line := range parse.Lines(output) {
		if line != "" && (line[0] == ' ' || line[0] == '\t') {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// installedVersion returns the dpkg version of name, or "" when it is not
// installed.
func (d *Deb) installedVersion(ctx context.Context, name string) string {
	output, err := d.Query(ctx, nil, "dpkg-query", "-W", "-f=${Status}\\t${Version}", "--", name)
	if err != nil {
		return ""
	}
	status, version, ok := strings.Cut(strings.TrimSpace(output), "\t")
	if !ok || !strings.HasSuffix(status, " installed") {
		return ""
	}
	return version
}

// newer reports whether version a sorts after b in dpkg ordering.
func (d *Deb) newer(ctx context.Context, a, b string) bool {
	_, err := d.Query(ctx, nil, "dpkg", "--compare-versions", a, "gt", b)
	return err == nil
}

// latest keeps the highest version of each package.
func (d *Deb) latest(ctx context.Context, files []debFile) map[string]debFile {
	best := make(map[string]debFile, len(files))
	for _, f := range files {
		cur, ok := best[f.name]
		if !ok || d.newer(ctx, f.version, cur.version) {
			best[f.name] = f
		}
	}
	return best
}

// ListInstalled returns the local packages dpkg reports as installed, with
// the installed version.
func (d *Deb) ListInstalled(ctx context.Context) ([]manager.Package, error) {
	files, err := d.localFiles(ctx)
	if err != nil {
		return nil, err
	}
	var packages []manager.Package
	seen := make(map[string]bool)
	for _, f := range files {
		if seen[f.name] {
			continue
		}
		seen[f.name] = true
		version := d.installedVersion(ctx, f.name)
		if version == "" {
			continue
		}
		packages = append(packages, manager.Package{
			Name:        f.name,
			Version:     version,
			Description: f.description,
			Source:      manager.SourceDeb,
			Status:      manager.StatusInstalled,
		})
	}
	return packages, nil
}

// CheckUpdates reports installed packages with a newer local file.
func (d *Deb) CheckUpdates(ctx context.Context) ([]manager.Package, error) {
	files, err := d.localFiles(ctx)
	if err != nil {
		return nil, err
	}
	best := d.latest(ctx, files)
	names := make([]string, 0, len(best))
	for name := range best {
		names = append(names, name)
	}
	sort.Strings(names)

	var packages []manager.Package
	for _, name := range names {
		f := best[name]
		installed := d.installedVersion(ctx, name)
		if installed == "" || !d.newer(ctx, f.version, installed) {
			continue
		}
		packages = append(packages, manager.Package{
			Name:             name,
			Version:          installed,
			AvailableVersion: f.version,
			Description:      f.description,
			Source:           manager.SourceDeb,
			Status:           manager.StatusUpdateAvailable,
		})
	}
	return packages, nil
}

// Search matches the query against local package names and file names.
func (d *Deb) Search(ctx context.Context, query string) ([]manager.Package, error) {
	files, err := d.localFiles(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var packages []manager.Package
	for _, f := range files {
		if !strings.Contains(strings.ToLower(f.name), q) &&
			!strings.Contains(strings.ToLower(filepath.Base(f.path)), q) {
			continue
		}
		packages = append(packages, manager.Package{
			Name:             f.name,
			AvailableVersion: f.version,
			Description:      f.description,
			Source:           manager.SourceDeb,
			Status:           manager.StatusNotInstalled,
		})
	}
	return manager.CapSearch(packages), nil
}

// Install installs the newest local file for name.
func (d *Deb) Install(ctx context.Context, name string) error {
	return d.installFile(ctx, manager.OpInstall, name)
}

// Update reinstalls name from its newest local file.
func (d *Deb) Update(ctx context.Context, name string) error {
	return d.installFile(ctx, manager.OpUpdate, name)
}

func (d *Deb) installFile(ctx context.Context, op manager.Op, name string) error {
	if err := manager.ValidateName(name); err != nil {
		return manager.NewOperationError(op, d.Source(), name, err)
	}
	files, err := d.localFiles(ctx)
	if err != nil {
		return manager.NewOperationError(op, d.Source(), name, err)
	}
	f, ok := d.latest(ctx, files)[name]
	if !ok {
		return manager.NewOperationError(op, d.Source(), name, manager.ErrPackageNotFound)
	}
	path, err := filepath.Abs(f.path)
	if err != nil {
		return manager.NewOperationError(op, d.Source(), name, err)
	}
	return d.Mutate(ctx, op, name, true, "apt-get", "install", "-y", "--", path)
}

// Remove removes an installed package.
func (d *Deb) Remove(ctx context.Context, name string) error {
	return d.Mutate(ctx, manager.OpRemove, name, true, "dpkg", "-r", "--", name)
}
