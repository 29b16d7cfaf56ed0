package universal

import (
	"context"
	"os/exec"

	"pkgdeck/internal/executor"
	"pkgdeck/pkg/manager"
	"pkgdeck/pkg/manager/native"
	"pkgdeck/pkg/manager/parse"
)

// aurHelpers are the pacman wrappers tried, in order, when the configured
// helper is not installed.
var aurHelpers = []string{"yay", "paru"}

// AUR implements the Backend interface on top of an AUR helper. The helper
// elevates on its own, so commands never go through pkexec.
type AUR struct {
	*native.Base
	preferred string
}

// NewAUR creates an AUR backend. The helper is chosen once: preferred if
// installed, then yay, then paru.
func NewAUR(exec *executor.Executor, preferred string) *AUR {
	return newAUR(exec, preferred, lookPath)
}

func lookPath(name string) (string, error) { return exec.LookPath(name) }

func newAUR(exec *executor.Executor, preferred string, look func(string) (string, error)) *AUR {
	a := &AUR{
		Base:      native.NewBase(manager.SourceAUR, detectHelper(preferred, look), exec),
		preferred: preferred,
	}
	a.SetLookPath(look)
	return a
}

// detectHelper returns the first installed helper, or "" when none is.
func detectHelper(preferred string, look func(string) (string, error)) string {
	candidates := aurHelpers
	if preferred != "" {
		candidates = append([]string{preferred}, aurHelpers...)
	}
	for _, h := range candidates {
		if _, err := look(h); err == nil {
			return h
		}
	}
	return ""
}

// Helper returns the selected helper binary, or "" when none is installed.
func (a *AUR) Helper() string {
	return a.Binary()
}

// Probe describes the executables the AUR source needs.
func (a *AUR) Probe() manager.ProbeSpec {
	anyOf := aurHelpers
	if a.preferred != "" && a.preferred != "yay" && a.preferred != "paru" {
		anyOf = append([]string{a.preferred}, aurHelpers...)
	}
	return manager.ProbeSpec{
		Binaries:    []string{"pacman"},
		AnyOf:       anyOf,
		VersionArgs: []string{"--version"},
	}
}

// IsAvailable reports whether a helper was found.
func (a *AUR) IsAvailable() bool {
	return a.Binary() != "" && a.Has(a.Binary())
}

// ListInstalled returns foreign packages, which are the ones built from the AUR.
func (a *AUR) ListInstalled(ctx context.Context) ([]manager.Package, error) {
	if err := a.requireHelper(); err != nil {
		return nil, err
	}
	output, err := a.Query(ctx, []int{1}, a.Binary(), "-Qm")
	if err != nil {
		return nil, err
	}
	var packages []manager.Package
	for _, p := range parse.Pairs(parse.StripANSI(output)) {
		packages = append(packages, manager.Package{
			Name:    p.Name,
			Version: p.Version,
			Source:  manager.SourceAUR,
			Status:  manager.StatusInstalled,
		})
	}
	return packages, nil
}

// CheckUpdates returns AUR packages with a newer version. Helpers exit 1
// when everything is current.
func (a *AUR) CheckUpdates(ctx context.Context) ([]manager.Package, error) {
	if err := a.requireHelper(); err != nil {
		return nil, err
	}
	output, err := a.Query(ctx, []int{1}, a.Binary(), "-Qua")
	if err != nil {
		return nil, err
	}
	return native.ArrowUpdates(output, manager.SourceAUR), nil
}

// Search finds packages in the AUR only.
func (a *AUR) Search(ctx context.Context, query string) ([]manager.Package, error) {
	if err := a.requireHelper(); err != nil {
		return nil, err
	}
	output, err := a.Query(ctx, []int{1}, a.Binary(), "-Ssa", "--", query)
	if err != nil {
		return nil, err
	}
	blocks := parse.PairedBlocks(parse.StripANSI(output))
	return manager.CapSearch(native.SearchBlocks(blocks, manager.SourceAUR)), nil
}

// Install builds and installs a package.
func (a *AUR) Install(ctx context.Context, name string) error {
	if err := a.requireHelper(); err != nil {
		return manager.NewOperationError(manager.OpInstall, a.Source(), name, err)
	}
	return a.Mutate(ctx, manager.OpInstall, name, false, a.Binary(), "-S", "--noconfirm", "--", name)
}

// Remove removes a package.
func (a *AUR) Remove(ctx context.Context, name string) error {
	if err := a.requireHelper(); err != nil {
		return manager.NewOperationError(manager.OpRemove, a.Source(), name, err)
	}
	return a.Mutate(ctx, manager.OpRemove, name, false, a.Binary(), "-R", "--noconfirm", "--", name)
}

// Update rebuilds a package from the latest PKGBUILD.
func (a *AUR) Update(ctx context.Context, name string) error {
	if err := a.requireHelper(); err != nil {
		return manager.NewOperationError(manager.OpUpdate, a.Source(), name, err)
	}
	return a.Mutate(ctx, manager.OpUpdate, name, false, a.Binary(), "-S", "--noconfirm", "--", name)
}

// Cleanup removes the helper's build cache.
func (a *AUR) Cleanup(ctx context.Context) error {
	if err := a.requireHelper(); err != nil {
		return manager.NewOperationError(manager.OpCleanup, a.Source(), "", err)
	}
	return a.Mutate(ctx, manager.OpCleanup, "", false, a.Binary(), "-Sc", "--noconfirm")
}

func (a *AUR) requireHelper() error {
	if a.Binary() == "" {
		return &manager.SourceError{Source: manager.SourceAUR, Missing: a.Probe().AnyOf, Err: manager.ErrSourceUnavailable}
	}
	return nil
}
