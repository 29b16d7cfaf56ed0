package database

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"pkgdeck/internal/clock"
	"pkgdeck/pkg/manager"
)

var now = time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC)

func samplePackages() []manager.Package {
	return []manager.Package{
		{Name: "vim", Version: "9.1", Source: manager.SourceAPT, Description: "Vi IMproved - enhanced vi editor"},
		{Name: "vim-gtk3", Version: "9.1", Source: manager.SourceAPT, Description: "Vi IMproved - GTK3 GUI"},
		{Name: "neovim", Version: "0.9.5", Source: manager.SourceAPT, Description: "heavily refactored vim fork", Status: manager.StatusUpdating},
		{Name: "org.gimp.GIMP", Version: "2.10", Source: manager.SourceFlatpak, Description: "GNU Image Manipulation Program"},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	clk := clock.NewStub(now)
	store := NewStore(filepath.Join(t.TempDir(), "packages.json"), clk)

	if l, err := store.Load(); err != nil || l != nil {
		t.Fatalf("Load() on empty store = %v, %v", l, err)
	}

	if _, err := store.Save(samplePackages()); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	l, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(l.Packages) != 4 || !l.LastUpdated.Equal(now) {
		t.Fatalf("Load() = %d packages at %v", len(l.Packages), l.LastUpdated)
	}
	for _, p := range l.Packages {
		if p.Status.Transient() {
			t.Errorf("%s persisted with transient status %s", p.Name, p.Status)
		}
	}
}

func TestStoreFresh(t *testing.T) {
	clk := clock.NewStub(now)
	store := NewStore(filepath.Join(t.TempDir(), "packages.json"), clk)

	if _, ok := store.Fresh(); ok {
		t.Error("Fresh() with no listing should be false")
	}

	store.Save(samplePackages())
	clk.Advance(MaxAge - time.Minute)
	if _, ok := store.Fresh(); !ok {
		t.Error("listing should be fresh before MaxAge")
	}

	clk.Advance(time.Minute)
	if _, ok := store.Fresh(); ok {
		t.Error("listing should be stale at MaxAge")
	}
}

func TestStoreInvalidate(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "packages.json"), clock.NewStub(now))
	store.Save(samplePackages())

	if err := store.Invalidate(); err != nil {
		t.Fatalf("Invalidate() error: %v", err)
	}
	if l, _ := store.Load(); l != nil {
		t.Error("listing should be gone after Invalidate()")
	}
	if err := store.Invalidate(); err != nil {
		t.Errorf("second Invalidate() error: %v", err)
	}
}

func TestListingIsStaleNil(t *testing.T) {
	var l *Listing
	if !l.IsStale(now) {
		t.Error("nil listing should be stale")
	}
}

func TestListingMatch(t *testing.T) {
	l := &Listing{Packages: samplePackages()}

	tests := []struct {
		query string
		want  []string
	}{
		{"vim", []string{"vim", "vim-gtk3", "neovim"}},
		{"VIM gui", []string{"vim-gtk3"}},
		{"image", []string{"org.gimp.GIMP"}},
		{"emacs", nil},
		{"  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got []string
			for _, p := range l.Match(tt.query) {
				got = append(got, p.Name)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Match(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestListingLookups(t *testing.T) {
	l := &Listing{Packages: samplePackages(), LastUpdated: now}

	if p, ok := l.Get(manager.Key{Source: manager.SourceFlatpak, Name: "org.gimp.GIMP"}); !ok || p.Version != "2.10" {
		t.Errorf("Get() = %+v, %v", p, ok)
	}
	if _, ok := l.Get(manager.Key{Source: manager.SourceSnap, Name: "vim"}); ok {
		t.Error("Get() matched across sources")
	}
	if n := len(l.BySource(manager.SourceAPT)); n != 3 {
		t.Errorf("BySource(apt) = %d packages, want 3", n)
	}
	if c := l.CountBySource()[manager.SourceFlatpak]; c != 1 {
		t.Errorf("CountBySource()[flatpak] = %d", c)
	}
	if age := l.Age(now.Add(time.Minute)); age != time.Minute {
		t.Errorf("Age() = %v", age)
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize("Vi IMproved - GTK3 GUI")
	want := []string{"vi", "improved", "gtk3", "gui"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tokenize() = %v, want %v", got, want)
	}
}
