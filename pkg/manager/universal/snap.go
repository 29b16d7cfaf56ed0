package universal

import (
	"context"
	"strings"

	"pkgdeck/internal/executor"
	"pkgdeck/pkg/manager"
	"pkgdeck/pkg/manager/native"
	"pkgdeck/pkg/manager/parse"
)

// Snap implements the Backend interface for Canonical's snap packages.
type Snap struct {
	*native.Base
	allowClassic bool
}

// NewSnap creates a new Snap backend. allowClassic installs with
// --classic confinement.
func NewSnap(exec *executor.Executor, allowClassic bool) *Snap {
	return &Snap{
		Base:         native.NewBase(manager.SourceSnap, "snap", exec),
		allowClassic: allowClassic,
	}
}

// Probe describes the executables snap needs.
func (s *Snap) Probe() manager.ProbeSpec {
	return manager.ProbeSpec{
		Binaries:    []string{"snap"},
		Privilege:   []string{executor.Launcher},
		VersionArgs: []string{"version"},
	}
}

// ListInstalled returns installed snaps.
//
//	Name    Version   Rev    Tracking       Publisher   Notes
//	core22  20240408  1380   latest/stable  canonical✓  base
func (s *Snap) ListInstalled(ctx context.Context) ([]manager.Package, error) {
	output, err := s.Query(ctx, nil, "snap", "list")
	if err != nil {
		return nil, err
	}
	var packages []manager.Package
	for _, row := range parse.Table(output, "Name", 2) {
		packages = append(packages, manager.Package{
			Name:       row[0],
			Version:    row[1],
			Maintainer: column(row, 4),
			Source:     manager.SourceSnap,
			Status:     manager.StatusInstalled,
		})
	}
	return packages, nil
}

func column(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSuffix(row[i], "✓")
	}
	return ""
}

// CheckUpdates returns snaps with a pending refresh. The installed version
// is not part of this listing.
func (s *Snap) CheckUpdates(ctx context.Context) ([]manager.Package, error) {
	output, err := s.Query(ctx, nil, "snap", "refresh", "--list")
	if err != nil {
		return nil, err
	}
	if strings.Contains(output, "All snaps up to date") {
		return nil, nil
	}
	var packages []manager.Package
	for _, row := range parse.Table(output, "Name", 2) {
		packages = append(packages, manager.Package{
			Name:             row[0],
			AvailableVersion: row[1],
			Source:           manager.SourceSnap,
			Status:           manager.StatusUpdateAvailable,
		})
	}
	return packages, nil
}

// Search finds snaps in the store.
//
//	Name  Version  Publisher    Notes  Summary
//	htop  3.3.0    maxiberta    -      Interactive processes viewer
func (s *Snap) Search(ctx context.Context, query string) ([]manager.Package, error) {
	output, err := s.Query(ctx, nil, "snap", "find", "--", query)
	if err != nil {
		if strings.Contains(err.Error(), "No matching snaps") {
			return nil, nil
		}
		return nil, err
	}
	var packages []manager.Package
	for _, row := range parse.Table(output, "Name", 4) {
		pkg := manager.Package{
			Name:             row[0],
			AvailableVersion: row[1],
			Maintainer:       column(row, 2),
			Source:           manager.SourceSnap,
			Status:           manager.StatusNotInstalled,
		}
		if len(row) > 4 {
			pkg.Description = strings.Join(row[4:], " ")
		}
		packages = append(packages, pkg)
	}
	return manager.CapSearch(packages), nil
}

// Install installs a snap.
func (s *Snap) Install(ctx context.Context, name string) error {
	args := []string{"install"}
	if s.allowClassic {
		args = append(args, "--classic")
	}
	args = append(args, "--", name)
	return s.Mutate(ctx, manager.OpInstall, name, true, "snap", args...)
}

// Remove removes a snap.
func (s *Snap) Remove(ctx context.Context, name string) error {
	return s.Mutate(ctx, manager.OpRemove, name, true, "snap", "remove", "--", name)
}

// Update refreshes a snap.
func (s *Snap) Update(ctx context.Context, name string) error {
	return s.Mutate(ctx, manager.OpUpdate, name, true, "snap", "refresh", "--", name)
}

// Downgrade reverts a snap to its previous revision.
func (s *Snap) Downgrade(ctx context.Context, name string) error {
	return s.Mutate(ctx, manager.OpDowngrade, name, true, "snap", "revert", "--", name)
}
