package manager

import (
	"fmt"
	"strings"
)

// Source identifies a package manager. Declaration order is the display
// and sort order.
type Source int

const (
	SourceAPT Source = iota
	SourceDNF
	SourcePacman
	SourceZypper
	SourceFlatpak
	SourceSnap
	SourceNPM
	SourcePip
	SourcePipx
	SourceCargo
	SourceBrew
	SourceAUR
	SourceConda
	SourceMamba
	SourceDart
	SourceDeb
	SourceAppImage
)

// Category groups sources by the kind of software they manage.
type Category string

const (
	// CategorySystem represents distribution package managers (apt, dnf, pacman, zypper)
	CategorySystem Category = "system"
	// CategorySandbox represents sandboxed application stores (flatpak, snap)
	CategorySandbox Category = "sandbox"
	// CategoryLanguage represents language and tool installers (npm, pip, cargo, ...)
	CategoryLanguage Category = "language"
	// CategoryFile represents package files on disk (deb, appimage)
	CategoryFile Category = "file"
	// CategoryMeta represents sources layered on another manager (aur)
	CategoryMeta Category = "meta"
)

var sourceInfo = [...]struct {
	name     string
	display  string
	category Category
}{
	SourceAPT:      {"apt", "APT (Debian/Ubuntu)", CategorySystem},
	SourceDNF:      {"dnf", "DNF (Fedora/RHEL)", CategorySystem},
	SourcePacman:   {"pacman", "Pacman (Arch Linux)", CategorySystem},
	SourceZypper:   {"zypper", "Zypper (openSUSE)", CategorySystem},
	SourceFlatpak:  {"flatpak", "Flatpak", CategorySandbox},
	SourceSnap:     {"snap", "Snap", CategorySandbox},
	SourceNPM:      {"npm", "npm (global)", CategoryLanguage},
	SourcePip:      {"pip", "pip (user)", CategoryLanguage},
	SourcePipx:     {"pipx", "pipx", CategoryLanguage},
	SourceCargo:    {"cargo", "Cargo", CategoryLanguage},
	SourceBrew:     {"brew", "Homebrew", CategoryLanguage},
	SourceAUR:      {"aur", "AUR", CategoryMeta},
	SourceConda:    {"conda", "Conda", CategoryLanguage},
	SourceMamba:    {"mamba", "Mamba", CategoryLanguage},
	SourceDart:     {"dart", "Dart pub (global)", CategoryLanguage},
	SourceDeb:      {"deb", "Local .deb files", CategoryFile},
	SourceAppImage: {"appimage", "AppImage", CategoryFile},
}

// AllSources returns every known source in declaration order.
func AllSources() []Source {
	out := make([]Source, len(sourceInfo))
	for i := range sourceInfo {
		out[i] = Source(i)
	}
	return out
}

func (s Source) valid() bool {
	return s >= 0 && int(s) < len(sourceInfo)
}

// String returns the short identifier ("apt", "flatpak").
func (s Source) String() string {
	if !s.valid() {
		return fmt.Sprintf("source(%d)", int(s))
	}
	return sourceInfo[s].name
}

// DisplayName returns a human-readable name.
func (s Source) DisplayName() string {
	if !s.valid() {
		return s.String()
	}
	return sourceInfo[s].display
}

// Category returns the kind of software the source manages.
func (s Source) Category() Category {
	if !s.valid() {
		return ""
	}
	return sourceInfo[s].category
}

// ParseSource resolves a short identifier, case-insensitively.
func ParseSource(name string) (Source, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, info := range sourceInfo {
		if info.name == name {
			return Source(i), nil
		}
	}
	return 0, fmt.Errorf("unknown package source: %q", name)
}

// MarshalText encodes the source as its short identifier.
func (s Source) MarshalText() ([]byte, error) {
	if !s.valid() {
		return nil, fmt.Errorf("invalid source %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a short identifier.
func (s *Source) UnmarshalText(text []byte) error {
	parsed, err := ParseSource(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
