package lang

import (
	"context"

	"pkgdeck/internal/executor"
	"pkgdeck/pkg/manager"
	"pkgdeck/pkg/manager/native"
	"pkgdeck/pkg/manager/parse"
)

// Pipx implements the Backend interface for applications installed in
// isolated pipx environments.
type Pipx struct {
	*native.Base
}

// NewPipx creates a new pipx backend.
func NewPipx(exec *executor.Executor) *Pipx {
	return &Pipx{Base: native.NewBase(manager.SourcePipx, "pipx", exec)}
}

// Probe describes the executables pipx needs.
func (p *Pipx) Probe() manager.ProbeSpec {
	return manager.ProbeSpec{Binaries: []string{"pipx"}, VersionArgs: []string{"--version"}}
}

// ListInstalled returns the main package of every pipx environment.
func (p *Pipx) ListInstalled(ctx context.Context) ([]manager.Package, error) {
	output, err := p.Query(ctx, nil, "pipx", "list", "--json")
	if err != nil {
		return nil, err
	}
	venvs := parse.JSON(output).Get("venvs")
	var packages []manager.Package
	for _, env := range venvs.Keys() {
		main := venvs.Path(env, "metadata", "main_package")
		name := main.Get("package").String()
		if name == "" {
			name = env
		}
		packages = append(packages, manager.Package{
			Name:    name,
			Version: main.Get("package_version").String(),
			Source:  manager.SourcePipx,
			Status:  manager.StatusInstalled,
		})
	}
	return packages, nil
}

// CheckUpdates is not offered: pipx cannot list outdated environments.
func (p *Pipx) CheckUpdates(_ context.Context) ([]manager.Package, error) {
	return nil, nil
}

// Search is not offered by pipx.
func (p *Pipx) Search(_ context.Context, _ string) ([]manager.Package, error) {
	return nil, nil
}

// Install installs an application into a new environment.
func (p *Pipx) Install(ctx context.Context, name string) error {
	return p.Mutate(ctx, manager.OpInstall, name, false, "pipx", "install", "--", name)
}

// Remove deletes an application's environment.
func (p *Pipx) Remove(ctx context.Context, name string) error {
	return p.Mutate(ctx, manager.OpRemove, name, false, "pipx", "uninstall", "--", name)
}

// Update upgrades an application.
func (p *Pipx) Update(ctx context.Context, name string) error {
	return p.Mutate(ctx, manager.OpUpdate, name, false, "pipx", "upgrade", "--", name)
}
