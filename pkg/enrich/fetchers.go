package enrich

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"pkgdeck/internal/fetch"
	"pkgdeck/pkg/manager"
	"pkgdeck/pkg/manager/parse"
)

// Online index endpoints.
const (
	DefaultAURURL    = "https://aur.archlinux.org/rpc/v5"
	DefaultNPMURL    = "https://registry.npmjs.org"
	DefaultPyPIURL   = "https://pypi.org/pypi"
	DefaultCratesURL = "https://crates.io/api/v1/crates"
)

// Fetcher looks up metadata for one package name.
type Fetcher interface {
	Fetch(ctx context.Context, name string) (manager.Enrichment, error)
}

// AURFetcher queries the AUR RPC info endpoint.
type AURFetcher struct {
	Client  *fetch.Client
	BaseURL string
}

// Fetch returns votes, popularity, upstream URL and maintainer.
func (f AURFetcher) Fetch(ctx context.Context, name string) (manager.Enrichment, error) {
	endpoint := fmt.Sprintf("%s/info?arg[]=%s", orDefault(f.BaseURL, DefaultAURURL), url.QueryEscape(name))
	body, err := f.Client.Get(ctx, endpoint)
	if err != nil {
		return manager.Enrichment{}, err
	}
	return parseAURInfo(string(body), name)
}

func parseAURInfo(body, name string) (manager.Enrichment, error) {
	doc := parse.JSON(body)
	if msg := doc.Get("error").String(); msg != "" {
		return manager.Enrichment{}, fmt.Errorf("AUR API error: %s", msg)
	}
	for _, r := range doc.Get("results").Array() {
		if r.Get("Name").String() != name {
			continue
		}
		return manager.Enrichment{
			Homepage:      r.Get("URL").String(),
			License:       strings.Join(r.Get("License").Strings(), ", "),
			Maintainer:    r.Get("Maintainer").String(),
			LatestVersion: r.Get("Version").String(),
			Popularity:    r.Get("Popularity").Float(),
			Votes:         int(r.Get("NumVotes").Int()),
			Keywords:      r.Get("Keywords").Strings(),
		}, nil
	}
	return manager.Enrichment{}, fmt.Errorf("%w: %s", manager.ErrPackageNotFound, name)
}

// NPMFetcher queries the npm registry.
type NPMFetcher struct {
	Client  *fetch.Client
	BaseURL string
}

// Fetch returns the latest version and project links.
func (f NPMFetcher) Fetch(ctx context.Context, name string) (manager.Enrichment, error) {
	// Scoped names are fetched as "@scope%2Fname".
	endpoint := orDefault(f.BaseURL, DefaultNPMURL) + "/" + url.PathEscape(name)
	body, err := f.Client.Get(ctx, endpoint)
	if err != nil {
		return manager.Enrichment{}, err
	}
	return parseNPMPackument(string(body)), nil
}

func parseNPMPackument(body string) manager.Enrichment {
	doc := parse.JSON(body)
	e := manager.Enrichment{
		Homepage:      doc.Get("homepage").String(),
		LatestVersion: doc.Path("dist-tags", "latest").String(),
		Keywords:      doc.Get("keywords").Strings(),
	}

	license := doc.Get("license")
	e.License = license.String()
	if e.License == "" {
		e.License = license.Get("type").String()
	}

	repo := doc.Get("repository")
	e.Repository = repo.String()
	if e.Repository == "" {
		e.Repository = repo.Get("url").String()
	}
	e.Repository = strings.TrimSuffix(strings.TrimPrefix(e.Repository, "git+"), ".git")

	if m := doc.Get("maintainers").Array(); len(m) > 0 {
		e.Maintainer = m[0].Get("name").String()
	}
	return e
}

// PyPIFetcher queries the PyPI JSON API.
type PyPIFetcher struct {
	Client  *fetch.Client
	BaseURL string
}

// Fetch returns the latest release and project links.
func (f PyPIFetcher) Fetch(ctx context.Context, name string) (manager.Enrichment, error) {
	endpoint := orDefault(f.BaseURL, DefaultPyPIURL) + "/" + url.PathEscape(name) + "/json"
	body, err := f.Client.Get(ctx, endpoint)
	if err != nil {
		return manager.Enrichment{}, err
	}
	return parsePyPI(string(body)), nil
}

func parsePyPI(body string) manager.Enrichment {
	info := parse.JSON(body).Get("info")
	urls := info.Get("project_urls")

	e := manager.Enrichment{
		Homepage:      info.Get("home_page").String(),
		License:       info.Get("license").String(),
		LatestVersion: info.Get("version").String(),
		Repository:    urls.First("Source", "Source Code", "Repository", "GitHub").String(),
	}
	if e.Homepage == "" {
		e.Homepage = urls.First("Homepage", "Home").String()
	}
	if e.Maintainer = info.Get("maintainer").String(); e.Maintainer == "" {
		e.Maintainer = info.Get("author").String()
	}
	// Long license texts are not useful as a label.
	if strings.Contains(e.License, "\n") || len(e.License) > 64 {
		e.License = ""
	}
	if kw := info.Get("keywords").String(); kw != "" {
		e.Keywords = strings.FieldsFunc(kw, func(r rune) bool { return r == ',' || r == ' ' })
	}
	return e
}

// CratesFetcher queries the crates.io API.
type CratesFetcher struct {
	Client  *fetch.Client
	BaseURL string
}

// Fetch returns the latest stable version, links and download count.
func (f CratesFetcher) Fetch(ctx context.Context, name string) (manager.Enrichment, error) {
	endpoint := orDefault(f.BaseURL, DefaultCratesURL) + "/" + url.PathEscape(name)
	body, err := f.Client.Get(ctx, endpoint)
	if err != nil {
		return manager.Enrichment{}, err
	}
	return parseCrate(string(body)), nil
}

func parseCrate(body string) manager.Enrichment {
	doc := parse.JSON(body)
	crate := doc.Get("crate")

	e := manager.Enrichment{
		Homepage:      crate.Get("homepage").String(),
		Repository:    crate.Get("repository").String(),
		LatestVersion: crate.First("max_stable_version", "max_version").String(),
		Downloads:     crate.Get("downloads").Int(),
		Keywords:      crate.Get("keywords").Strings(),
	}
	if v := doc.Get("versions").Array(); len(v) > 0 {
		e.License = v[0].Get("license").String()
	}
	return e
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return strings.TrimSuffix(s, "/")
}
