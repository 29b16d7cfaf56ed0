package detector

import (
	"runtime"
	"strings"
	"testing"

	"pkgdeck/pkg/manager"
)

func TestDetect(t *testing.T) {
	info, err := Detect()
	if err != nil {
		t.Fatalf("Detect() returned error: %v", err)
	}
	if info.Arch != runtime.GOARCH {
		t.Errorf("expected Arch '%s', got '%s'", runtime.GOARCH, info.Arch)
	}
	if info.OS != runtime.GOOS {
		t.Errorf("expected OS '%s', got '%s'", runtime.GOOS, info.OS)
	}
}

func TestParseOSRelease(t *testing.T) {
	const osRelease = `NAME="Linux Mint"
VERSION="21.2 (Victoria)"
ID=linuxmint
ID_LIKE="ubuntu debian"
PRETTY_NAME="Linux Mint 21.2"
VERSION_ID="21.2"
# comment
BROKEN LINE
`
	info, err := ParseOSRelease(strings.NewReader(osRelease))
	if err != nil {
		t.Fatalf("ParseOSRelease() error: %v", err)
	}
	if info.ID != "linuxmint" || info.VersionID != "21.2" || info.PrettyName != "Linux Mint 21.2" {
		t.Errorf("unexpected info: %+v", info)
	}
	if len(info.IDLike) != 2 || info.IDLike[0] != "ubuntu" || info.IDLike[1] != "debian" {
		t.Errorf("IDLike = %v", info.IDLike)
	}
}

func TestHostLineage(t *testing.T) {
	tests := []struct {
		name string
		host Host
		want []string
	}{
		{"with family", Host{Distribution: "linuxmint", Family: []string{"ubuntu", "debian"}}, []string{"linuxmint", "ubuntu", "debian"}},
		{"id only", Host{Distribution: "arch"}, []string{"arch"}},
		{"family only", Host{Family: []string{"fedora"}}, []string{"fedora"}},
		{"empty", Host{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.host.Lineage()
			if len(got) != len(tt.want) {
				t.Fatalf("Lineage() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Lineage() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestSystemSource(t *testing.T) {
	tests := []struct {
		distro string
		idLike []string
		want   manager.Source
		ok     bool
	}{
		{"ubuntu", nil, manager.SourceAPT, true},
		{"fedora", nil, manager.SourceDNF, true},
		{"manjaro", nil, manager.SourcePacman, true},
		{"opensuse-tumbleweed", nil, manager.SourceZypper, true},
		{"linuxmint", []string{"ubuntu", "debian"}, manager.SourceAPT, true},
		{"rocky", []string{"rhel", "fedora"}, manager.SourceDNF, true},
		{"somethingnew", []string{"arch"}, manager.SourcePacman, true},
		{"void", nil, 0, false},
		{"unknown", []string{"alsounknown"}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.distro, func(t *testing.T) {
			h := &Host{OS: "linux", Distribution: tt.distro, Family: tt.idLike}
			got, ok := h.SystemSource()
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("SystemSource(%s, %v) = %v, %v, want %v, %v",
					tt.distro, tt.idLike, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestSystemSourceDarwin(t *testing.T) {
	h := &Host{OS: "darwin"}
	if src, ok := h.SystemSource(); !ok || src != manager.SourceBrew {
		t.Errorf("SystemSource() = %v, %v, want brew", src, ok)
	}
}
