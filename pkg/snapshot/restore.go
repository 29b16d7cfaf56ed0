package snapshot

import (
	"context"
	"fmt"

	"pkgdeck/pkg/manager"
)

// Action is a single step of a restore plan.
type Action struct {
	Op      manager.Op
	Key     manager.Key
	Version string // target version for OpDowngrade
}

func (a Action) String() string {
	if a.Version != "" {
		return fmt.Sprintf("%s %s=%s", a.Op, a.Key, a.Version)
	}
	return fmt.Sprintf("%s %s", a.Op, a.Key)
}

// RestorePlan lists what must be done to bring the system from its current
// state back to a target snapshot. Installs run before removals.
type RestorePlan struct {
	Install  []Action
	Remove   []Action
	Versions []Action // packages whose version must be set back
}

// IsEmpty returns true if the plan has nothing to do.
func (p *RestorePlan) IsEmpty() bool {
	return len(p.Install) == 0 && len(p.Remove) == 0 && len(p.Versions) == 0
}

// Actions returns every step in execution order.
func (p *RestorePlan) Actions() []Action {
	all := make([]Action, 0, len(p.Install)+len(p.Remove)+len(p.Versions))
	all = append(all, p.Install...)
	all = append(all, p.Remove...)
	return append(all, p.Versions...)
}

// PlanRestore computes the plan that turns current into target. When
// sources is non-empty only those sources are considered.
func PlanRestore(current, target *Snapshot, sources ...manager.Source) *RestorePlan {
	keep := make(map[manager.Source]bool, len(sources))
	for _, s := range sources {
		keep[s] = true
	}
	wanted := func(k manager.Key) bool { return len(keep) == 0 || keep[k.Source] }

	d := Compare(current, target)
	plan := &RestorePlan{}
	for _, c := range d.Added {
		if wanted(c.Key) {
			plan.Install = append(plan.Install, Action{Op: manager.OpInstall, Key: c.Key})
		}
	}
	for _, c := range d.Removed {
		if wanted(c.Key) {
			plan.Remove = append(plan.Remove, Action{Op: manager.OpRemove, Key: c.Key})
		}
	}
	for _, c := range d.Updated {
		if wanted(c.Key) {
			plan.Versions = append(plan.Versions, Action{Op: manager.OpDowngrade, Key: c.Key, Version: c.NewVersion})
		}
	}
	return plan
}

// Resolver returns the usable backend for a source.
type Resolver func(manager.Source) (manager.Backend, error)

// Result is the outcome of one executed action.
type Result struct {
	Action Action
	Err    error
}

// RestoreOpts control plan execution.
type RestoreOpts struct {
	DryRun bool

	// Progress, if set, is called before each action runs.
	Progress func(Action)
}

// Execute runs every action of the plan in order and reports each outcome.
// A failing action does not stop the rest. Version steps need a backend that
// can install a specific version; others fail with ErrUnsupported.
func Execute(ctx context.Context, plan *RestorePlan, resolve Resolver, opts RestoreOpts) []Result {
	var results []Result
	for _, a := range plan.Actions() {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{Action: a, Err: err})
			continue
		}
		if opts.Progress != nil {
			opts.Progress(a)
		}
		if opts.DryRun {
			results = append(results, Result{Action: a})
			continue
		}
		results = append(results, Result{Action: a, Err: run(ctx, a, resolve)})
	}
	return results
}

func run(ctx context.Context, a Action, resolve Resolver) error {
	b, err := resolve(a.Key.Source)
	if err != nil {
		return err
	}
	switch a.Op {
	case manager.OpInstall:
		return b.Install(ctx, a.Key.Name)
	case manager.OpRemove:
		return b.Remove(ctx, a.Key.Name)
	case manager.OpDowngrade:
		vd, ok := b.(manager.VersionDowngrader)
		if !ok {
			return &manager.OperationError{
				Op:      manager.OpDowngrade,
				Package: a.Key.Name,
				Source:  a.Key.Source,
				Details: "cannot install a specific version",
				Kind:    manager.ErrUnsupported,
			}
		}
		return vd.DowngradeTo(ctx, a.Key.Name, a.Version)
	}
	return fmt.Errorf("unexpected restore action %q", a.Op)
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
