package cli

import (
	"context"
	"fmt"
	"strings"

	"pkgdeck/internal/history"
	"pkgdeck/internal/ui"
	"pkgdeck/pkg/database"
	"pkgdeck/pkg/manager"
)

// perform runs one package operation on b and records it in the history.
// version is only used by OpDowngrade; empty steps back to the previous
// version where the source supports that.
func perform(ctx context.Context, tracker *history.Tracker, b manager.Backend, op manager.Op, name, version string) error {
	var before manager.Package
	var had bool
	if op != manager.OpInstall {
		before, had = lookup(ctx, b, name)
	}

	var err error
	switch op {
	case manager.OpInstall:
		err = b.Install(ctx, name)
	case manager.OpRemove:
		err = b.Remove(ctx, name)
	case manager.OpUpdate:
		err = b.Update(ctx, name)
	case manager.OpDowngrade:
		err = downgrade(ctx, b, name, version)
	default:
		return fmt.Errorf("cannot run %q on %s", op, name)
	}
	if err != nil || cfg.General.DryRun {
		return err
	}

	pkgs, listErr := b.ListInstalled(ctx)
	if listErr != nil {
		logger.Debug("listing after change failed", "source", b.Source(), "err", listErr)
		pkgs = nil
	}
	after, has := manager.Index(pkgs)[manager.Key{Source: b.Source(), Name: name}]
	if !has {
		after = manager.Package{Name: name, Source: b.Source(), Version: version}
	}
	if !had {
		before = manager.Package{Name: name, Source: b.Source()}
	}

	switch op {
	case manager.OpInstall:
		tracker.RecordInstall(after)
	case manager.OpRemove:
		tracker.RecordRemove(before)
	case manager.OpUpdate, manager.OpDowngrade:
		if had && has && before.Version == after.Version {
			ui.MutedMsg("%s is unchanged at %s", name, after.Version)
			break
		}
		tracker.RecordUpdate(after, before.Version, after.Version, before.SizeBytes, after.SizeBytes)
	}
	afterChange(tracker, b, pkgs)
	return nil
}

// downgrade installs version, or steps back one version when version is
// empty.
func downgrade(ctx context.Context, b manager.Backend, name, version string) error {
	if version == "" {
		if d, ok := b.(manager.Downgrader); ok {
			return d.Downgrade(ctx, name)
		}
		return &manager.OperationError{
			Op: manager.OpDowngrade, Package: name, Source: b.Source(),
			Details: "a target version is required",
			Kind:    manager.ErrUnsupported,
		}
	}
	vd, ok := b.(manager.VersionDowngrader)
	if !ok {
		return &manager.OperationError{
			Op: manager.OpDowngrade, Package: name, Source: b.Source(),
			Details: "cannot install a specific version",
			Kind:    manager.ErrUnsupported,
		}
	}
	return vd.DowngradeTo(ctx, name, version)
}

// lookup returns the installed record of name in b.
func lookup(ctx context.Context, b manager.Backend, name string) (manager.Package, bool) {
	pkgs, err := b.ListInstalled(ctx)
	if err != nil {
		logger.Debug("listing failed", "source", b.Source(), "err", err)
		return manager.Package{}, false
	}
	p, ok := manager.Index(pkgs)[manager.Key{Source: b.Source(), Name: name}]
	return p, ok
}

// target is a package paired with the backend that handles it.
type target struct {
	name    string
	backend manager.Backend
}

// resolveAvailable finds the source to install name from: --source when
// given, otherwise the exact-name search matches in priority order. The
// user picks when several sources offer the package.
func resolveAvailable(ctx context.Context, name string) (target, error) {
	if err := manager.ValidateName(name); err != nil {
		return target{}, err
	}
	if source != "" {
		b, err := getBackend()
		return target{name: name, backend: b}, err
	}

	aliases := database.NewAliases(database.CommonAliases()...)
	names := aliases.Names(name)

	var matches []manager.Package
	for _, query := range aliases.Candidates(name) {
		agg := registry.SearchAll(ctx, query)
		if matches = namedMatches(agg.Packages, name, names); len(matches) > 0 {
			break
		}
	}
	if len(matches) == 0 {
		return target{}, fmt.Errorf("%s: %w", name, ErrNotFoundAnywhere)
	}
	return pickTarget(matches, fmt.Sprintf("Select a source for %s", name))
}

// resolveInstalled finds the source name is installed from.
func resolveInstalled(ctx context.Context, name string) (target, error) {
	if err := manager.ValidateName(name); err != nil {
		return target{}, err
	}
	if source != "" {
		b, err := getBackend()
		return target{name: name, backend: b}, err
	}

	pkgs, err := listInstalled(ctx, false)
	if err != nil {
		return target{}, err
	}
	matches := exactMatches(pkgs, name)
	if len(matches) == 0 {
		return target{}, fmt.Errorf("%s: %w", name, manager.ErrNotInstalled)
	}
	return pickTarget(matches, fmt.Sprintf("%s is installed from several sources", name))
}

func pickTarget(matches []manager.Package, prompt string) (target, error) {
	chosen := &matches[0]
	if len(matches) > 1 && !cfg.General.AutoConfirm {
		var err error
		if chosen, err = ui.SelectPackage(matches, prompt); err != nil {
			return target{}, err
		}
	}
	b, err := registry.Backend(chosen.Source)
	return target{name: chosen.Name, backend: b}, err
}

// exactMatches keeps packages named name, ignoring case, one per source.
func exactMatches(pkgs []manager.Package, name string) []manager.Package {
	return namedMatches(pkgs, name, nil)
}

// namedMatches is exactMatches that also accepts each source's alias for
// name. An exact name wins over an alias from the same source.
func namedMatches(pkgs []manager.Package, name string, aliases map[manager.Source]string) []manager.Package {
	best := make(map[manager.Source]int)
	var out []manager.Package
	for _, p := range pkgs {
		exact := strings.EqualFold(p.Name, name)
		alias := aliases[p.Source] != "" && strings.EqualFold(p.Name, aliases[p.Source])
		if !exact && !alias {
			continue
		}
		if i, ok := best[p.Source]; ok {
			if exact && !strings.EqualFold(out[i].Name, name) {
				out[i] = p
			}
			continue
		}
		best[p.Source] = len(out)
		out = append(out, p)
	}
	return out
}

// runBatch performs op on every target, reporting each outcome. It returns
// ErrOperationsFailed when any target really failed; warnings such as a
// dismissed authorization prompt do not count.
func runBatch(ctx context.Context, tracker *history.Tracker, op manager.Op, targets []target, verb string) error {
	failed := 0
	for _, t := range targets {
		err := ui.WithSpinner(fmt.Sprintf("%s %s (%s)...", verb, t.name, t.backend.Source()), func() error {
			return perform(ctx, tracker, t.backend, op, t.name, "")
		})
		if err != nil {
			if ui.ReportError(err) {
				failed++
			}
			continue
		}
		if cfg.General.DryRun {
			continue
		}
		ui.SuccessMsg("%s %s", pastTense(op), t.name)
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrOperationsFailed, failed, len(targets))
	}
	return nil
}

func pastTense(op manager.Op) string {
	switch op {
	case manager.OpInstall:
		return "Installed"
	case manager.OpRemove:
		return "Removed"
	case manager.OpUpdate:
		return "Updated"
	case manager.OpDowngrade:
		return "Downgraded"
	}
	return string(op)
}

// printPlan lists targets and asks for confirmation.
func printPlan(title string, targets []target) error {
	ui.InfoMsg("%s:", title)
	for _, t := range targets {
		ui.MutedMsg("  - %s from %s", t.name, t.backend.Source().DisplayName())
	}
	ok, err := confirm("Proceed?")
	if err != nil {
		return err
	}
	if !ok {
		return ErrAborted
	}
	return nil
}
