package database

import (
	"sort"
	"strings"
	"sync"

	"pkgdeck/pkg/manager"
)

// Alias ties together the names one application goes by in different
// sources. For example "firefox" in apt is "org.mozilla.firefox" in flatpak.
type Alias struct {
	// Canonical is the common name users type.
	Canonical string

	// Names maps each source to the package name it uses.
	Names map[manager.Source]string
}

// Aliases resolves application names across sources.
type Aliases struct {
	mu        sync.RWMutex
	canonical map[string]*Alias
	reverse   map[manager.Key]string // source name -> canonical
}

// NewAliases creates an alias set seeded with mappings.
func NewAliases(mappings ...Alias) *Aliases {
	a := &Aliases{
		canonical: make(map[string]*Alias),
		reverse:   make(map[manager.Key]string),
	}
	for _, m := range mappings {
		a.Add(m)
	}
	return a
}

// Add adds or replaces a mapping.
func (a *Aliases) Add(m Alias) {
	a.mu.Lock()
	defer a.mu.Unlock()

	name := strings.ToLower(m.Canonical)
	if old, ok := a.canonical[name]; ok {
		for src, n := range old.Names {
			delete(a.reverse, manager.Key{Source: src, Name: strings.ToLower(n)})
		}
	}
	stored := &Alias{Canonical: name, Names: make(map[manager.Source]string, len(m.Names))}
	for src, n := range m.Names {
		stored.Names[src] = n
		a.reverse[manager.Key{Source: src, Name: strings.ToLower(n)}] = name
	}
	a.canonical[name] = stored
}

// Names returns the per-source names for name, which may be either the
// canonical name or any source's name for the same application. It returns
// nil when name is unknown.
func (a *Aliases) Names(name string) map[manager.Source]string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	m := a.find(strings.ToLower(name))
	if m == nil {
		return nil
	}
	out := make(map[manager.Source]string, len(m.Names))
	for src, n := range m.Names {
		out[src] = n
	}
	return out
}

// Candidates returns every name worth looking for: name itself first, then
// the known aliases, sorted and without duplicates.
func (a *Aliases) Candidates(name string) []string {
	seen := map[string]bool{strings.ToLower(name): true}
	var extra []string
	for _, n := range a.Names(name) {
		if !seen[strings.ToLower(n)] {
			seen[strings.ToLower(n)] = true
			extra = append(extra, n)
		}
	}
	sort.Strings(extra)
	return append([]string{name}, extra...)
}

// Len returns the number of mappings.
func (a *Aliases) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.canonical)
}

func (a *Aliases) find(name string) *Alias {
	if m, ok := a.canonical[name]; ok {
		return m
	}
	for key, canonical := range a.reverse {
		if key.Name == name {
			return a.canonical[canonical]
		}
	}
	return nil
}

// CommonAliases returns mappings for widely used desktop applications.
func CommonAliases() []Alias {
	return []Alias{
		// Browsers
		{Canonical: "firefox", Names: map[manager.Source]string{
			manager.SourcePacman:  "firefox",
			manager.SourceAPT:     "firefox",
			manager.SourceDNF:     "firefox",
			manager.SourceFlatpak: "org.mozilla.firefox",
			manager.SourceSnap:    "firefox",
			manager.SourceBrew:    "firefox",
		}},
		{Canonical: "chromium", Names: map[manager.Source]string{
			manager.SourcePacman:  "chromium",
			manager.SourceAPT:     "chromium-browser",
			manager.SourceDNF:     "chromium",
			manager.SourceFlatpak: "org.chromium.Chromium",
			manager.SourceSnap:    "chromium",
		}},
		{Canonical: "google-chrome", Names: map[manager.Source]string{
			manager.SourceAUR:     "google-chrome",
			manager.SourceAPT:     "google-chrome-stable",
			manager.SourceFlatpak: "com.google.Chrome",
		}},

		// Editors
		{Canonical: "vscode", Names: map[manager.Source]string{
			manager.SourceAUR:     "visual-studio-code-bin",
			manager.SourceAPT:     "code",
			manager.SourceFlatpak: "com.visualstudio.code",
			manager.SourceSnap:    "code",
			manager.SourceBrew:    "visual-studio-code",
		}},
		{Canonical: "vim", Names: map[manager.Source]string{
			manager.SourcePacman: "vim",
			manager.SourceAPT:    "vim",
			manager.SourceDNF:    "vim-enhanced",
			manager.SourceBrew:   "vim",
		}},
		{Canonical: "neovim", Names: map[manager.Source]string{
			manager.SourcePacman:  "neovim",
			manager.SourceAPT:     "neovim",
			manager.SourceDNF:     "neovim",
			manager.SourceFlatpak: "io.neovim.nvim",
			manager.SourceSnap:    "nvim",
			manager.SourceBrew:    "neovim",
		}},

		// Communication
		{Canonical: "discord", Names: map[manager.Source]string{
			manager.SourceAUR:     "discord",
			manager.SourceFlatpak: "com.discordapp.Discord",
			manager.SourceSnap:    "discord",
			manager.SourceBrew:    "discord",
		}},
		{Canonical: "slack", Names: map[manager.Source]string{
			manager.SourceAUR:     "slack-desktop",
			manager.SourceFlatpak: "com.slack.Slack",
			manager.SourceSnap:    "slack",
			manager.SourceBrew:    "slack",
		}},
		{Canonical: "telegram", Names: map[manager.Source]string{
			manager.SourcePacman:  "telegram-desktop",
			manager.SourceAPT:     "telegram-desktop",
			manager.SourceFlatpak: "org.telegram.desktop",
			manager.SourceSnap:    "telegram-desktop",
			manager.SourceBrew:    "telegram",
		}},

		// Media
		{Canonical: "vlc", Names: map[manager.Source]string{
			manager.SourcePacman:  "vlc",
			manager.SourceAPT:     "vlc",
			manager.SourceDNF:     "vlc",
			manager.SourceFlatpak: "org.videolan.VLC",
			manager.SourceSnap:    "vlc",
			manager.SourceBrew:    "vlc",
		}},
		{Canonical: "gimp", Names: map[manager.Source]string{
			manager.SourcePacman:  "gimp",
			manager.SourceAPT:     "gimp",
			manager.SourceDNF:     "gimp",
			manager.SourceFlatpak: "org.gimp.GIMP",
			manager.SourceSnap:    "gimp",
			manager.SourceBrew:    "gimp",
		}},
		{Canonical: "obs", Names: map[manager.Source]string{
			manager.SourcePacman:  "obs-studio",
			manager.SourceAPT:     "obs-studio",
			manager.SourceDNF:     "obs-studio",
			manager.SourceFlatpak: "com.obsproject.Studio",
			manager.SourceBrew:    "obs",
		}},
		{Canonical: "spotify", Names: map[manager.Source]string{
			manager.SourceAUR:     "spotify",
			manager.SourceFlatpak: "com.spotify.Client",
			manager.SourceSnap:    "spotify",
			manager.SourceBrew:    "spotify",
		}},

		// Development
		{Canonical: "ripgrep", Names: map[manager.Source]string{
			manager.SourcePacman: "ripgrep",
			manager.SourceAPT:    "ripgrep",
			manager.SourceDNF:    "ripgrep",
			manager.SourceCargo:  "ripgrep",
			manager.SourceBrew:   "ripgrep",
		}},
		{Canonical: "fd", Names: map[manager.Source]string{
			manager.SourcePacman: "fd",
			manager.SourceAPT:    "fd-find",
			manager.SourceDNF:    "fd-find",
			manager.SourceCargo:  "fd-find",
			manager.SourceBrew:   "fd",
		}},
		{Canonical: "typescript", Names: map[manager.Source]string{
			manager.SourceNPM:    "typescript",
			manager.SourcePacman: "typescript",
			manager.SourceBrew:   "typescript",
		}},
		{Canonical: "httpie", Names: map[manager.Source]string{
			manager.SourceAPT:    "httpie",
			manager.SourcePacman: "httpie",
			manager.SourcePip:    "httpie",
			manager.SourcePipx:   "httpie",
			manager.SourceBrew:   "httpie",
		}},
	}
}
