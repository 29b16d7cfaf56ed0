package lang

import (
	"context"
	"net/url"
	"strings"

	"pkgdeck/internal/executor"
	"pkgdeck/internal/fetch"
	"pkgdeck/pkg/manager"
	"pkgdeck/pkg/manager/native"
	"pkgdeck/pkg/manager/parse"
)

// DefaultPubURL is the pub.dev API root.
const DefaultPubURL = "https://pub.dev/api"

// Dart implements the Backend interface for globally activated Dart
// packages. The dart binary is preferred; flutter is used when it is the
// only SDK front end on PATH, or when preferFlutter is set.
type Dart struct {
	*native.Base
	client *fetch.Client
	pubURL string
}

// NewDart creates a new Dart backend.
func NewDart(exec *executor.Executor, client *fetch.Client, preferFlutter bool) *Dart {
	if client == nil {
		client = fetch.New(0)
	}
	d := &Dart{
		Base:   native.NewBase(manager.SourceDart, "dart", exec),
		client: client,
		pubURL: DefaultPubURL,
	}
	switch {
	case preferFlutter && d.Has("flutter"):
		d.SetBinary("flutter")
	case !d.Has("dart") && d.Has("flutter"):
		d.SetBinary("flutter")
	}
	return d
}

// SetPubURL points package search at another pub server.
func (d *Dart) SetPubURL(u string) {
	d.pubURL = strings.TrimSuffix(u, "/")
}

// Probe describes the executables Dart needs.
func (d *Dart) Probe() manager.ProbeSpec {
	return manager.ProbeSpec{AnyOf: []string{"dart", "flutter"}, VersionArgs: []string{"--version"}}
}

// IsAvailable reports whether dart or flutter is installed.
func (d *Dart) IsAvailable() bool {
	return d.Has("dart") || d.Has("flutter")
}

// ListInstalled returns globally activated packages.
//
//	devtools 2.34.3
//	stagehand 3.3.11 at path "/home/me/stagehand"
func (d *Dart) ListInstalled(ctx context.Context) ([]manager.Package, error) {
	output, err := d.Query(ctx, nil, d.Binary(), "pub", "global", "list")
	if err != nil {
		return nil, err
	}
	var packages []manager.Package
	for _, p := range parse.Pairs(output) {
		packages = append(packages, manager.Package{
			Name:    p.Name,
			Version: p.Version,
			Source:  manager.SourceDart,
			Status:  manager.StatusInstalled,
		})
	}
	return packages, nil
}

// CheckUpdates is not offered: pub has no outdated listing for global
// packages.
func (d *Dart) CheckUpdates(_ context.Context) ([]manager.Package, error) {
	return nil, nil
}

// Search queries the pub.dev search API, which returns names only.
func (d *Dart) Search(ctx context.Context, query string) ([]manager.Package, error) {
	body, err := d.client.Get(ctx, d.pubURL+"/search?q="+url.QueryEscape(query))
	if err != nil {
		return nil, err
	}
	var packages []manager.Package
	for _, e := range parse.JSON(string(body)).Get("packages").Array() {
		name := e.Get("package").String()
		if name == "" {
			continue
		}
		packages = append(packages, manager.Package{
			Name:   name,
			Source: manager.SourceDart,
			Status: manager.StatusNotInstalled,
		})
	}
	return manager.CapSearch(packages), nil
}

// Install activates a package globally.
func (d *Dart) Install(ctx context.Context, name string) error {
	return d.Mutate(ctx, manager.OpInstall, name, false, d.Binary(), "pub", "global", "activate", "--", name)
}

// Remove deactivates a package.
func (d *Dart) Remove(ctx context.Context, name string) error {
	return d.Mutate(ctx, manager.OpRemove, name, false, d.Binary(), "pub", "global", "deactivate", "--", name)
}

// Update activates the package again, which fetches the newest version.
func (d *Dart) Update(ctx context.Context, name string) error {
	return d.Mutate(ctx, manager.OpUpdate, name, false, d.Binary(), "pub", "global", "activate", "--", name)
}

// AvailableVersions lists the published versions from pub.dev.
func (d *Dart) AvailableVersions(ctx context.Context, name string) ([]string, error) {
	if err := manager.ValidateName(name); err != nil {
		return nil, err
	}
	body, err := d.client.Get(ctx, d.pubURL+"/packages/"+url.PathEscape(name))
	if err != nil {
		return nil, err
	}
	var versions []string
	for _, v := range parse.JSON(string(body)).Get("versions").Array() {
		if s := v.Get("version").String(); s != "" {
			versions = append(versions, s)
		}
	}
	return versions, nil
}

// DowngradeTo activates a specific version.
func (d *Dart) DowngradeTo(ctx context.Context, name, version string) error {
	if err := manager.ValidateName(version); err != nil {
		return manager.NewOperationError(manager.OpDowngrade, d.Source(), name, manager.ErrVersionNotFound)
	}
	return d.Mutate(ctx, manager.OpDowngrade, name, false,
		d.Binary(), "pub", "global", "activate", "--", name, version)
}
