package manager

import "context"

// SearchLimit bounds the number of results any backend returns from Search.
const SearchLimit = 50

// Backend is the contract every package source implements.
type Backend interface {
	// Source returns the identity of this backend.
	Source() Source

	// Probe describes the executables that indicate presence on this host.
	Probe() ProbeSpec

	// IsAvailable returns true if the underlying tool is installed. It must
	// not have side effects.
	IsAvailable() bool

	// ListInstalled returns installed packages with StatusInstalled.
	ListInstalled(ctx context.Context) ([]Package, error)

	// CheckUpdates returns packages with StatusUpdateAvailable. AvailableVersion
	// is always set; Version may be empty where the tool does not report it.
	CheckUpdates(ctx context.Context) ([]Package, error)

	// Install installs a single package.
	Install(ctx context.Context, name string) error

	// Remove uninstalls a single package.
	Remove(ctx context.Context, name string) error

	// Update upgrades a single package to the newest version offered.
	Update(ctx context.Context, name string) error

	// Search returns at most SearchLimit packages with StatusNotInstalled.
	Search(ctx context.Context, query string) ([]Package, error)
}

// Downgrader is implemented by backends that can step a package back to its
// previous version without being told which one.
type Downgrader interface {
	Downgrade(ctx context.Context, name string) error
}

// VersionDowngrader is implemented by backends that can install a specific
// older version.
type VersionDowngrader interface {
	AvailableVersions(ctx context.Context, name string) ([]string, error)
	DowngradeTo(ctx context.Context, name, version string) error
}

// Cleaner is implemented by backends that can drop cached downloads.
type Cleaner interface {
	Cleanup(ctx context.Context) error
}

// ProbeSpec is a static description of what a source needs on the host.
type ProbeSpec struct {
	// Binaries must all be present.
	Binaries []string
	// AnyOf lists alternative front ends; one present is enough.
	AnyOf []string
	// Privilege lists the elevation helpers mutations go through.
	Privilege []string
	// VersionArgs queries the version of the first resolved binary.
	VersionArgs []string
}

// Executables returns every binary the descriptor names, required ones first.
func (s ProbeSpec) Executables() []string {
	out := make([]string, 0, len(s.Binaries)+len(s.AnyOf)+len(s.Privilege))
	out = append(out, s.Binaries...)
	out = append(out, s.AnyOf...)
	out = append(out, s.Privilege...)
	return out
}

// Missing lists exactly the absent executables. Alternatives are only
// reported, all of them, when none is present.
func (s ProbeSpec) Missing(lookPath func(string) (string, error)) []string {
	var missing []string
	for _, bin := range s.Binaries {
		if _, err := lookPath(bin); err != nil {
			missing = append(missing, bin)
		}
	}
	if len(s.AnyOf) > 0 {
		found := false
		for _, bin := range s.AnyOf {
			if _, err := lookPath(bin); err == nil {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, s.AnyOf...)
		}
	}
	for _, bin := range s.Privilege {
		if _, err := lookPath(bin); err != nil {
			missing = append(missing, bin)
		}
	}
	return missing
}

// CapSearch truncates complete records to SearchLimit.
func CapSearch(pkgs []Package) []Package {
	if len(pkgs) > SearchLimit {
		return pkgs[:SearchLimit]
	}
	return pkgs
}

// OnlyUpdates drops records without an available version.
func OnlyUpdates(pkgs []Package) []Package {
	out := pkgs[:0]
	for _, p := range pkgs {
		if p.AvailableVersion == "" {
			continue
		}
		p.Status = StatusUpdateAvailable
		out = append(out, p)
	}
	return out
}
