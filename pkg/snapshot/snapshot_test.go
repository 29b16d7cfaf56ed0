package snapshot

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"pkgdeck/pkg/manager"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func pkg(src manager.Source, name, version string) manager.Package {
	return manager.Package{Name: name, Version: version, Source: src, Status: manager.StatusInstalled}
}

func TestCapture(t *testing.T) {
	s := Capture([]manager.Package{
		pkg(manager.SourceAPT, "vim", "9.0"),
		pkg(manager.SourceFlatpak, "vim", "9.1"),
		pkg(manager.SourceNPM, "typescript", "5.4.5"),
	}, t0)

	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	e, ok := s.Get(manager.Key{Source: manager.SourceFlatpak, Name: "vim"})
	if !ok || e.Version != "9.1" {
		t.Errorf("Get(flatpak/vim) = %+v, %v", e, ok)
	}
	if got := s.Keys(); !reflect.DeepEqual(got, []string{"apt/vim", "flatpak/vim", "npm/typescript"}) {
		t.Errorf("Keys() = %v", got)
	}
	if got := s.CountBySource()[manager.SourceAPT]; got != 1 {
		t.Errorf("CountBySource()[apt] = %d, want 1", got)
	}
}

func TestCompare(t *testing.T) {
	old := Capture([]manager.Package{
		pkg(manager.SourceAPT, "vim", "9.0"),
		pkg(manager.SourceAPT, "curl", "8.5"),
		pkg(manager.SourcePip, "requests", "2.31.0"),
	}, t0)
	current := Capture([]manager.Package{
		pkg(manager.SourceAPT, "vim", "9.1"),
		pkg(manager.SourcePip, "requests", "2.31.0"),
		pkg(manager.SourceCargo, "ripgrep", "14.1.0"),
	}, t0.Add(time.Hour))

	d := Compare(old, current)

	wantAdded := []Change{{Type: ChangeAdded, Key: manager.Key{Source: manager.SourceCargo, Name: "ripgrep"}, NewVersion: "14.1.0"}}
	wantRemoved := []Change{{Type: ChangeRemoved, Key: manager.Key{Source: manager.SourceAPT, Name: "curl"}, OldVersion: "8.5"}}
	wantUpdated := []Change{{Type: ChangeUpdated, Key: manager.Key{Source: manager.SourceAPT, Name: "vim"}, OldVersion: "9.0", NewVersion: "9.1"}}

	if !reflect.DeepEqual(d.Added, wantAdded) {
		t.Errorf("Added = %+v", d.Added)
	}
	if !reflect.DeepEqual(d.Removed, wantRemoved) {
		t.Errorf("Removed = %+v", d.Removed)
	}
	if !reflect.DeepEqual(d.Updated, wantUpdated) {
		t.Errorf("Updated = %+v", d.Updated)
	}
	if d.Summary() != "1 added, 1 removed, 1 updated" {
		t.Errorf("Summary() = %q", d.Summary())
	}
}

func TestCompareIdempotent(t *testing.T) {
	s := Capture([]manager.Package{
		pkg(manager.SourceAPT, "vim", "9.0"),
		pkg(manager.SourceSnap, "core", "16"),
	}, t0)

	d := Compare(s, s)
	if !d.IsEmpty() {
		t.Errorf("Compare(s, s) = %s, want no changes", d.Summary())
	}
	if d.Summary() != "No changes" {
		t.Errorf("Summary() = %q", d.Summary())
	}
}

func TestCompareCompleteness(t *testing.T) {
	old := Capture([]manager.Package{
		pkg(manager.SourceAPT, "a", "1"),
		pkg(manager.SourceAPT, "b", "1"),
		pkg(manager.SourceAPT, "c", "1"),
	}, t0)
	current := Capture([]manager.Package{
		pkg(manager.SourceAPT, "b", "2"),
		pkg(manager.SourceAPT, "c", "1"),
		pkg(manager.SourceAPT, "d", "1"),
	}, t0)

	d := Compare(old, current)
	seen := make(map[string]int)
	for _, c := range d.All() {
		seen[c.Key.String()]++
	}
	for _, k := range []string{"apt/a", "apt/b", "apt/d"} {
		if seen[k] != 1 {
			t.Errorf("%s appears %d times, want exactly once", k, seen[k])
		}
	}
	if seen["apt/c"] != 0 {
		t.Error("unchanged package apt/c reported as a change")
	}
}

func TestCompareNil(t *testing.T) {
	s := Capture([]manager.Package{pkg(manager.SourceAPT, "vim", "9.0")}, t0)

	if d := Compare(nil, s); len(d.Added) != 1 || d.Total() != 1 {
		t.Errorf("Compare(nil, s) = %s", d.Summary())
	}
	if d := Compare(s, nil); len(d.Removed) != 1 || d.Total() != 1 {
		t.Errorf("Compare(s, nil) = %s", d.Summary())
	}
	if d := Compare(nil, nil); !d.IsEmpty() {
		t.Error("Compare(nil, nil) should be empty")
	}
}

func TestInvert(t *testing.T) {
	old := Capture([]manager.Package{pkg(manager.SourceAPT, "vim", "9.0"), pkg(manager.SourceAPT, "curl", "8.5")}, t0)
	current := Capture([]manager.Package{pkg(manager.SourceAPT, "vim", "9.1"), pkg(manager.SourceNPM, "eslint", "9.0.0")}, t0)

	got := Compare(old, current).Invert()
	want := Compare(current, old)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Invert() = %+v, want %+v", got, want)
	}
}

func TestOnlyAndMerge(t *testing.T) {
	base := Capture([]manager.Package{
		pkg(manager.SourceAPT, "vim", "9.0"),
		pkg(manager.SourceAPT, "curl", "8.5"),
		pkg(manager.SourceSnap, "core22", "1"),
	}, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	if got := base.Only(manager.SourceAPT).Len(); got != 2 {
		t.Errorf("Only(apt).Len() = %d, want 2", got)
	}
	if got := (*Snapshot)(nil).Only(manager.SourceAPT).Len(); got != 0 {
		t.Errorf("nil Only().Len() = %d, want 0", got)
	}

	fresh := Capture([]manager.Package{
		pkg(manager.SourceAPT, "vim", "9.1"),
		pkg(manager.SourceSnap, "firefox", "120"),
	}, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))

	merged := base.Merge(fresh, manager.SourceAPT)
	if !merged.TakenAt.Equal(fresh.TakenAt) {
		t.Errorf("TakenAt = %v, want %v", merged.TakenAt, fresh.TakenAt)
	}
	want := []string{"apt/vim", "snap/core22"}
	got := merged.Keys()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Merge keys = %v, want %v", got, want)
	}
	if e, _ := merged.Get(manager.Key{Source: manager.SourceAPT, Name: "vim"}); e.Version != "9.1" {
		t.Errorf("vim version = %q, want 9.1", e.Version)
	}
}

func TestChangeString(t *testing.T) {
	key := manager.Key{Source: manager.SourceAPT, Name: "vim"}
	tests := []struct {
		change Change
		want   string
	}{
		{Change{Type: ChangeAdded, Key: key, NewVersion: "9.1"}, "+ vim (9.1) [apt]"},
		{Change{Type: ChangeRemoved, Key: key, OldVersion: "9.0"}, "- vim (9.0) [apt]"},
		{Change{Type: ChangeUpdated, Key: key, OldVersion: "9.0", NewVersion: "9.1"}, "~ vim (9.0 -> 9.1) [apt]"},
	}
	for _, tt := range tests {
		t.Run(string(tt.change.Type), func(t *testing.T) {
			if got := tt.change.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStore(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "snapshot.json"))

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() on empty store error: %v", err)
	}
	if got != nil {
		t.Fatal("Load() on empty store should return nil")
	}

	s := Capture([]manager.Package{pkg(manager.SourceAPT, "vim", "9.0"), pkg(manager.SourceFlatpak, "org.gimp.GIMP", "2.10")}, t0)
	if err := store.Save(s); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err = store.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !got.TakenAt.Equal(t0) {
		t.Errorf("TakenAt = %v, want %v", got.TakenAt, t0)
	}
	if !Compare(s, got).IsEmpty() {
		t.Error("loaded snapshot differs from saved one")
	}
}

type fakeBackend struct {
	manager.Backend
	src   manager.Source
	calls []string
	fail  map[string]error
}

func (f *fakeBackend) Source() manager.Source { return f.src }

func (f *fakeBackend) Install(_ context.Context, name string) error {
	f.calls = append(f.calls, "install "+name)
	return f.fail[name]
}

func (f *fakeBackend) Remove(_ context.Context, name string) error {
	f.calls = append(f.calls, "remove "+name)
	return f.fail[name]
}

type versionBackend struct {
	*fakeBackend
}

func (v versionBackend) AvailableVersions(context.Context, string) ([]string, error) {
	return nil, nil
}

func (v versionBackend) DowngradeTo(_ context.Context, name, version string) error {
	v.calls = append(v.calls, "downgrade "+name+"="+version)
	return nil
}

func TestPlanRestore(t *testing.T) {
	target := Capture([]manager.Package{pkg(manager.SourceAPT, "vim", "9.0"), pkg(manager.SourceAPT, "curl", "8.5")}, t0)
	current := Capture([]manager.Package{pkg(manager.SourceAPT, "vim", "9.1"), pkg(manager.SourceNPM, "eslint", "9.0.0")}, t0)

	plan := PlanRestore(current, target)
	var got []string
	for _, a := range plan.Actions() {
		got = append(got, a.String())
	}
	want := []string{"install apt/curl", "remove npm/eslint", "downgrade apt/vim=9.0"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Actions() = %v, want %v", got, want)
	}

	filtered := PlanRestore(current, target, manager.SourceNPM)
	if len(filtered.Actions()) != 1 || filtered.Remove[0].Key.Name != "eslint" {
		t.Errorf("filtered plan = %+v", filtered.Actions())
	}

	if !PlanRestore(target, target).IsEmpty() {
		t.Error("plan between identical snapshots should be empty")
	}
}

func TestExecute(t *testing.T) {
	apt := &fakeBackend{src: manager.SourceAPT}
	npm := &fakeBackend{src: manager.SourceNPM, fail: map[string]error{"eslint": errors.New("boom")}}
	backends := map[manager.Source]manager.Backend{
		manager.SourceAPT: versionBackend{apt},
		manager.SourceNPM: npm,
	}
	resolve := func(src manager.Source) (manager.Backend, error) {
		if b, ok := backends[src]; ok {
			return b, nil
		}
		return nil, &manager.SourceError{Source: src, Err: manager.ErrSourceUnavailable}
	}

	plan := &RestorePlan{
		Install: []Action{
			{Op: manager.OpInstall, Key: manager.Key{Source: manager.SourceAPT, Name: "curl"}},
			{Op: manager.OpInstall, Key: manager.Key{Source: manager.SourceSnap, Name: "core"}},
		},
		Remove: []Action{{Op: manager.OpRemove, Key: manager.Key{Source: manager.SourceNPM, Name: "eslint"}}},
		Versions: []Action{
			{Op: manager.OpDowngrade, Key: manager.Key{Source: manager.SourceAPT, Name: "vim"}, Version: "9.0"},
			{Op: manager.OpDowngrade, Key: manager.Key{Source: manager.SourceNPM, Name: "eslint"}, Version: "8.0.0"},
		},
	}

	results := Execute(context.Background(), plan, resolve, RestoreOpts{})
	if len(results) != 5 {
		t.Fatalf("got %d results, want 5", len(results))
	}

	if want := []string{"install curl", "downgrade vim=9.0"}; !reflect.DeepEqual(apt.calls, want) {
		t.Errorf("apt calls = %v, want %v", apt.calls, want)
	}

	failed := Failed(results)
	if len(failed) != 3 {
		t.Fatalf("got %d failures, want 3", len(failed))
	}
	if !errors.Is(failed[0].Err, manager.ErrSourceUnavailable) {
		t.Errorf("snap install error = %v, want ErrSourceUnavailable", failed[0].Err)
	}
	if !errors.Is(failed[2].Err, manager.ErrUnsupported) {
		t.Errorf("npm downgrade error = %v, want ErrUnsupported", failed[2].Err)
	}
}

func TestExecuteDryRun(t *testing.T) {
	apt := &fakeBackend{src: manager.SourceAPT}
	plan := &RestorePlan{Install: []Action{{Op: manager.OpInstall, Key: manager.Key{Source: manager.SourceAPT, Name: "curl"}}}}

	var progressed []Action
	results := Execute(context.Background(), plan, func(manager.Source) (manager.Backend, error) { return apt, nil },
		RestoreOpts{DryRun: true, Progress: func(a Action) { progressed = append(progressed, a) }})

	if len(results) != 1 || results[0].Err != nil {
		t.Errorf("results = %+v", results)
	}
	if len(apt.calls) != 0 {
		t.Errorf("dry run executed %v", apt.calls)
	}
	if len(progressed) != 1 {
		t.Errorf("progress called %d times, want 1", len(progressed))
	}
}
