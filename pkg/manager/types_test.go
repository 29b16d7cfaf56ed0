package manager

import (
	"encoding/json"
	"testing"
)

func TestPackageEquality(t *testing.T) {
	base := Package{Name: "vim", Version: "9.0", Source: SourceAPT, Status: StatusInstalled, Description: "Vi IMproved"}

	tests := []struct {
		name  string
		other Package
		want  bool
	}{
		{"identical", base, true},
		{"different version", Package{Name: "vim", Version: "9.1", Source: SourceAPT}, true},
		{"different status", Package{Name: "vim", Source: SourceAPT, Status: StatusUpdateAvailable, AvailableVersion: "9.1"}, true},
		{"different description", Package{Name: "vim", Source: SourceAPT, Description: "editor"}, true},
		{"different source", Package{Name: "vim", Version: "9.0", Source: SourceSnap}, false},
		{"different name", Package{Name: "neovim", Version: "9.0", Source: SourceAPT}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Equal(tt.other); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
			// Equality and hashing must agree.
			if got := base.Key() == tt.other.Key(); got != tt.want {
				t.Errorf("Key() equality = %v, want %v", got, tt.want)
			}
			set := map[Key]bool{base.Key(): true}
			if set[tt.other.Key()] != tt.want {
				t.Errorf("map lookup = %v, want %v", set[tt.other.Key()], tt.want)
			}
		})
	}
}

func TestParseKey(t *testing.T) {
	k, err := ParseKey("flatpak/org.gimp.GIMP")
	if err != nil {
		t.Fatalf("ParseKey() error: %v", err)
	}
	if k != (Key{Source: SourceFlatpak, Name: "org.gimp.GIMP"}) {
		t.Errorf("ParseKey() = %+v", k)
	}
	if k.String() != "flatpak/org.gimp.GIMP" {
		t.Errorf("String() = %q", k.String())
	}

	// npm scoped packages keep their slash.
	k, err = ParseKey("npm/@vue/cli")
	if err != nil || k.Name != "@vue/cli" {
		t.Errorf("ParseKey(npm/@vue/cli) = %+v, %v", k, err)
	}

	for _, bad := range []string{"vim", "apt/", "nosuch/vim"} {
		if _, err := ParseKey(bad); err == nil {
			t.Errorf("ParseKey(%q) should fail", bad)
		}
	}
}

func TestStatusTransient(t *testing.T) {
	tests := []struct {
		status    Status
		transient bool
		settled   Status
	}{
		{StatusInstalled, false, StatusInstalled},
		{StatusUpdateAvailable, false, StatusUpdateAvailable},
		{StatusNotInstalled, false, StatusNotInstalled},
		{StatusInstalling, true, StatusInstalled},
		{StatusRemoving, true, StatusInstalled},
		{StatusUpdating, true, StatusInstalled},
	}
	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			if tt.status.Transient() != tt.transient {
				t.Errorf("Transient() = %v", tt.status.Transient())
			}
			if tt.status.Settled() != tt.settled {
				t.Errorf("Settled() = %v, want %v", tt.status.Settled(), tt.settled)
			}
		})
	}
}

func TestPackageJSON(t *testing.T) {
	pkg := Package{Name: "ripgrep", Version: "14.1.0", Source: SourceCargo, Status: StatusUpdateAvailable, AvailableVersion: "14.1.1"}
	data, err := json.Marshal(pkg)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["source"] != "cargo" || raw["status"] != "update-available" {
		t.Errorf("source/status should encode as text: %s", data)
	}

	var back Package
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if back.Source != SourceCargo || back.Status != StatusUpdateAvailable || back.AvailableVersion != "14.1.1" {
		t.Errorf("decoded = %+v", back)
	}
}

func TestInstalledAt(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		year int
	}{
		{"2024-03-01T10:00:00Z", true, 2024},
		{"2023-11-05 08:15:00", true, 2023},
		{"2022-01-09", true, 2022},
		{"Mon 04 Mar 2024 10:22:31 AM UTC", true, 2024},
		{"", false, 0},
		{"yesterday", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ts, ok := Package{InstallDate: tt.in}.InstalledAt()
			if ok != tt.ok {
				t.Fatalf("InstalledAt(%q) ok = %v", tt.in, ok)
			}
			if ok && ts.Year() != tt.year {
				t.Errorf("year = %d, want %d", ts.Year(), tt.year)
			}
		})
	}
}

func TestSortPackages(t *testing.T) {
	pkgs := []Package{
		{Name: "zsh", Source: SourceAPT},
		{Name: "gimp", Source: SourceFlatpak},
		{Name: "bash", Source: SourceAPT},
		{Name: "black", Source: SourcePipx},
	}
	SortPackages(pkgs)

	want := []string{"apt/bash", "apt/zsh", "flatpak/gimp", "pipx/black"}
	for i, p := range pkgs {
		if p.Key().String() != want[i] {
			t.Errorf("position %d = %s, want %s", i, p.Key(), want[i])
		}
	}
}
