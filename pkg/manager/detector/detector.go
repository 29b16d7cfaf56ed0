// Package detector identifies the host distribution and its system package source.
package detector

import (
	"runtime"
	"slices"

	"pkgdeck/pkg/manager"
)

// Host describes the machine pkgdeck runs on.
type Host struct {
	OS           string
	Arch         string
	Distribution string   // os-release ID
	Family       []string // os-release ID_LIKE
	PrettyName   string
	VersionID    string
}

// Detect reads the host description. On Linux an unreadable os-release
// still yields a Host with Distribution "unknown".
func Detect() (*Host, error) {
	h := &Host{OS: runtime.GOOS, Arch: runtime.GOARCH}

	switch h.OS {
	case "linux":
		rel, err := DetectLinux()
		if err != nil {
			return h, err
		}
		h.Distribution, h.Family = rel.ID, rel.IDLike
		h.PrettyName, h.VersionID = rel.PrettyName, rel.VersionID
	case "darwin":
		h.Distribution, h.PrettyName = "macos", "macOS"
	}
	return h, nil
}

// Lineage returns the distribution ID followed by its family, closest first.
func (h *Host) Lineage() []string {
	if h.Distribution == "" {
		return slices.Clone(h.Family)
	}
	return append([]string{h.Distribution}, h.Family...)
}

// SystemSource returns the distribution's own package source, if known.
func (h *Host) SystemSource() (manager.Source, bool) {
	if h.OS == "darwin" {
		return manager.SourceBrew, true
	}
	for _, id := range h.Lineage() {
		if src, ok := SourceForDistro(id); ok {
			return src, true
		}
	}
	return 0, false
}
