package database

import (
	"reflect"
	"testing"

	"pkgdeck/pkg/manager"
)

func TestAliasesNames(t *testing.T) {
	a := NewAliases(CommonAliases()...)

	tests := []struct {
		name  string
		query string
		src   manager.Source
		want  string
	}{
		{"canonical", "firefox", manager.SourceFlatpak, "org.mozilla.firefox"},
		{"case insensitive", "Firefox", manager.SourceFlatpak, "org.mozilla.firefox"},
		{"by source name", "org.gimp.GIMP", manager.SourceAPT, "gimp"},
		{"by other source name", "vim-enhanced", manager.SourceBrew, "vim"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Names(tt.query)[tt.src]; got != tt.want {
				t.Errorf("Names(%q)[%s] = %q, want %q", tt.query, tt.src, got, tt.want)
			}
		})
	}

	if got := a.Names("no-such-app"); got != nil {
		t.Errorf("Names(unknown) = %v, want nil", got)
	}
}

func TestAliasesCandidates(t *testing.T) {
	a := NewAliases(Alias{Canonical: "fd", Names: map[manager.Source]string{
		manager.SourcePacman: "fd",
		manager.SourceAPT:    "fd-find",
		manager.SourceCargo:  "fd-find",
	}})

	want := []string{"fd", "fd-find"}
	if got := a.Candidates("fd"); !reflect.DeepEqual(got, want) {
		t.Errorf("Candidates(fd) = %v, want %v", got, want)
	}
	if got := a.Candidates("unknown"); !reflect.DeepEqual(got, []string{"unknown"}) {
		t.Errorf("Candidates(unknown) = %v", got)
	}
}

func TestAliasesReplace(t *testing.T) {
	a := NewAliases(Alias{Canonical: "editor", Names: map[manager.Source]string{manager.SourceAPT: "old-name"}})
	a.Add(Alias{Canonical: "editor", Names: map[manager.Source]string{manager.SourceAPT: "new-name"}})

	if a.Len() != 1 {
		t.Errorf("Len() = %d, want 1", a.Len())
	}
	if got := a.Names("old-name"); got != nil {
		t.Errorf("stale reverse entry: %v", got)
	}
	if got := a.Names("new-name")[manager.SourceAPT]; got != "new-name" {
		t.Errorf("Names(new-name) = %q", got)
	}
}
