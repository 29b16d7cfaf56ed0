package detector

import (
	"bufio"
	"io"
	"os"
	"os/exec"
	"strings"

	"pkgdeck/pkg/manager"
)

// LinuxInfo contains information parsed from /etc/os-release.
type LinuxInfo struct {
	ID         string   // e.g. "ubuntu", "arch", "fedora"
	IDLike     []string // related distributions
	VersionID  string   // e.g. "22.04", "39"
	PrettyName string
	Name       string
}

// DetectLinux detects the Linux distribution by reading /etc/os-release.
func DetectLinux() (*LinuxInfo, error) {
	if f, err := os.Open("/etc/os-release"); err == nil {
		defer f.Close()
		if info, err := ParseOSRelease(f); err == nil && info.ID != "" {
			return info, nil
		}
	}

	info := &LinuxInfo{}
	if err := parseLSBRelease(info); err == nil && info.ID != "" {
		return info, nil
	}

	if err := parseReleaseFiles(info); err == nil {
		return info, nil
	}

	info.ID = "unknown"
	info.PrettyName = "Unknown Linux"
	return info, nil
}

// ParseOSRelease parses the KEY=value format of os-release(5).
func ParseOSRelease(r io.Reader) (*LinuxInfo, error) {
	info := &LinuxInfo{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		switch key {
		case "ID":
			info.ID = value
		case "ID_LIKE":
			info.IDLike = strings.Fields(value)
		case "VERSION_ID":
			info.VersionID = value
		case "PRETTY_NAME":
			info.PrettyName = value
		case "NAME":
			info.Name = value
		}
	}
	return info, scanner.Err()
}

// parseLSBRelease uses the lsb_release command as a fallback.
func parseLSBRelease(info *LinuxInfo) error {
	output, err := exec.Command("lsb_release", "-a").Output()
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(strings.NewReader(string(output)))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.TrimSpace(key) {
		case "Distributor ID":
			info.ID = strings.ToLower(value)
		case "Release":
			info.VersionID = value
		case "Description":
			info.PrettyName = value
		}
	}
	return scanner.Err()
}

// parseReleaseFiles checks distribution-specific release files.
func parseReleaseFiles(info *LinuxInfo) error {
	releaseFiles := []struct {
		path   string
		distro string
	}{
		{"/etc/arch-release", "arch"},
		{"/etc/debian_version", "debian"},
		{"/etc/fedora-release", "fedora"},
		{"/etc/redhat-release", "rhel"},
		{"/etc/SuSE-release", "opensuse"},
	}

	for _, rf := range releaseFiles {
		if _, err := os.Stat(rf.path); err == nil {
			info.ID = rf.distro
			info.PrettyName = rf.distro
			return nil
		}
	}

	return os.ErrNotExist
}

var distroSources = map[string]manager.Source{
	// Debian family
	"debian":     manager.SourceAPT,
	"ubuntu":     manager.SourceAPT,
	"linuxmint":  manager.SourceAPT,
	"pop":        manager.SourceAPT,
	"elementary": manager.SourceAPT,
	"zorin":      manager.SourceAPT,
	"kali":       manager.SourceAPT,
	"raspbian":   manager.SourceAPT,

	// Red Hat family
	"fedora":    manager.SourceDNF,
	"rhel":      manager.SourceDNF,
	"centos":    manager.SourceDNF,
	"rocky":     manager.SourceDNF,
	"almalinux": manager.SourceDNF,
	"nobara":    manager.SourceDNF,

	// Arch family
	"arch":        manager.SourcePacman,
	"manjaro":     manager.SourcePacman,
	"endeavouros": manager.SourcePacman,
	"garuda":      manager.SourcePacman,
	"artix":       manager.SourcePacman,
	"cachyos":     manager.SourcePacman,

	// SUSE family
	"opensuse":            manager.SourceZypper,
	"opensuse-leap":       manager.SourceZypper,
	"opensuse-tumbleweed": manager.SourceZypper,
	"suse":                manager.SourceZypper,
	"sles":                manager.SourceZypper,
}

// SourceForDistro returns the system package source for a distribution ID.
func SourceForDistro(distroID string) (manager.Source, bool) {
	src, ok := distroSources[distroID]
	return src, ok
}
