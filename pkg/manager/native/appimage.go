package native

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"pkgdeck/internal/executor"
	"pkgdeck/pkg/manager"
)

// AppImage manages self-contained AppImage files. Downloads are picked up
// from one directory and installed by copying them into another.
type AppImage struct {
	*Base
	downloadDir string
	installDir  string
}

// NewAppImage creates a backend that installs AppImages from downloadDir
// into installDir.
func NewAppImage(exec *executor.Executor, downloadDir, installDir string) *AppImage {
	return &AppImage{
		Base:        NewBase(manager.SourceAppImage, "", exec),
		downloadDir: downloadDir,
		installDir:  installDir,
	}
}

// Probe reports no executables: AppImages run on their own.
func (a *AppImage) Probe() manager.ProbeSpec {
	return manager.ProbeSpec{}
}

// IsAvailable reports whether either directory exists.
func (a *AppImage) IsAvailable() bool {
	return isDir(a.downloadDir) || isDir(a.installDir)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Matches "Obsidian-1.5.3.AppImage", "nvim-v0.10.0-x86_64.appimage",
// "krita_5.2.2_amd64.AppImage".
var appImagePattern = regexp.MustCompile(`(?i)^(.+?)[-_]v?(\d[0-9A-Za-z.+~]*)(?:[-_](?:x86_64|amd64|aarch64|arm64|i686|armhf))?\.appimage$`)

// parseAppImageName derives the package name and version from a file name.
// Files without a version keep their base name and an empty version.
func parseAppImageName(file string) (name, version string, ok bool) {
	if !strings.EqualFold(filepath.Ext(file), ".appimage") {
		return "", "", false
	}
	if m := appImagePattern.FindStringSubmatch(file); m != nil {
		return m[1], m[2], true
	}
	return strings.TrimSuffix(file, filepath.Ext(file)), "", true
}

type appImageFile struct {
	name    string
	version string
	path    string
	size    int64
}

func scanAppImages(dir string) ([]appImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var files []appImageFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, version, ok := parseAppImageName(e.Name())
		if !ok {
			continue
		}
		f := appImageFile{name: name, version: version, path: filepath.Join(dir, e.Name())}
		if info, err := e.Info(); err == nil {
			f.size = info.Size()
		}
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })
	return files, nil
}

func (f appImageFile) toPackage(status manager.Status) manager.Package {
	pkg := manager.Package{
		Name:      f.name,
		Version:   f.version,
		Source:    manager.SourceAppImage,
		Status:    status,
		SizeBytes: f.size,
	}
	if status == manager.StatusNotInstalled {
		pkg.Version = ""
		pkg.AvailableVersion = f.version
	}
	return pkg
}

// ListInstalled returns the AppImages in the install directory.
func (a *AppImage) ListInstalled(_ context.Context) ([]manager.Package, error) {
	files, err := scanAppImages(a.installDir)
	if err != nil {
		return nil, err
	}
	packages := make([]manager.Package, 0, len(files))
	for _, f := range files {
		packages = append(packages, f.toPackage(manager.StatusInstalled))
	}
	return packages, nil
}

// CheckUpdates is not offered: AppImages carry no update feed.
func (a *AppImage) CheckUpdates(_ context.Context) ([]manager.Package, error) {
	return nil, nil
}

// Search matches the query against the AppImages in the download directory.
func (a *AppImage) Search(_ context.Context, query string) ([]manager.Package, error) {
	files, err := scanAppImages(a.downloadDir)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var packages []manager.Package
	for _, f := range files {
		if strings.Contains(strings.ToLower(filepath.Base(f.path)), q) {
			packages = append(packages, f.toPackage(manager.StatusNotInstalled))
		}
	}
	return manager.CapSearch(packages), nil
}

// find returns the downloaded file for name, matched by package name or
// file name.
func find(files []appImageFile, name string) (appImageFile, bool) {
	for _, f := range files {
		if strings.EqualFold(f.name, name) || filepath.Base(f.path) == name {
			return f, true
		}
	}
	return appImageFile{}, false
}

// Install copies a downloaded AppImage into the install directory and marks
// it executable.
func (a *AppImage) Install(_ context.Context, name string) error {
	if err := manager.ValidateName(name); err != nil {
		return manager.NewOperationError(manager.OpInstall, a.Source(), name, err)
	}
	files, err := scanAppImages(a.downloadDir)
	if err != nil {
		return manager.NewOperationError(manager.OpInstall, a.Source(), name, err)
	}
	f, ok := find(files, name)
	if !ok {
		return manager.NewOperationError(manager.OpInstall, a.Source(), name, manager.ErrPackageNotFound)
	}
	dst := filepath.Join(a.installDir, filepath.Base(f.path))
	if a.Executor().DryRun() {
		fmt.Fprintf(os.Stderr, "[dry-run] cp %s %s\n", f.path, dst)
		return nil
	}
	if err := copyExecutable(f.path, dst); err != nil {
		return manager.NewOperationError(manager.OpInstall, a.Source(), name, err)
	}
	return nil
}

func copyExecutable(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".appimage-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o755); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

// Remove deletes every installed file for name.
func (a *AppImage) Remove(_ context.Context, name string) error {
	if err := manager.ValidateName(name); err != nil {
		return manager.NewOperationError(manager.OpRemove, a.Source(), name, err)
	}
	files, err := scanAppImages(a.installDir)
	if err != nil {
		return manager.NewOperationError(manager.OpRemove, a.Source(), name, err)
	}
	removed := 0
	for _, f := range files {
		if !strings.EqualFold(f.name, name) && filepath.Base(f.path) != name {
			continue
		}
		if a.Executor().DryRun() {
			fmt.Fprintf(os.Stderr, "[dry-run] rm %s\n", f.path)
		} else if err := os.Remove(f.path); err != nil {
			return manager.NewOperationError(manager.OpRemove, a.Source(), name, err)
		}
		removed++
	}
	if removed == 0 {
		return manager.NewOperationError(manager.OpRemove, a.Source(), name, manager.ErrNotInstalled)
	}
	return nil
}

// Update is not offered: install the newer download instead.
func (a *AppImage) Update(_ context.Context, name string) error {
	return manager.NewOperationError(manager.OpUpdate, a.Source(), name, manager.ErrUnsupported)
}
