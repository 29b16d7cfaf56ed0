package ui

import (
	"github.com/charmbracelet/lipgloss"

	"pkgdeck/pkg/manager"
)

// Color palette
var (
	ColorPrimary = lipgloss.Color("#7C3AED") // Purple
	ColorSuccess = lipgloss.Color("#10B981") // Green
	ColorWarning = lipgloss.Color("#F59E0B") // Yellow
	ColorError   = lipgloss.Color("#EF4444") // Red
	ColorMuted   = lipgloss.Color("#6B7280") // Gray
)

// sourceColors gives each source a recognisable badge color.
var sourceColors = map[manager.Source]lipgloss.Color{
	manager.SourceAPT:      lipgloss.Color("#A80030"), // Debian red
	manager.SourceDNF:      lipgloss.Color("#51A2DA"), // Fedora blue
	manager.SourcePacman:   lipgloss.Color("#1793D1"), // Arch blue
	manager.SourceAUR:      lipgloss.Color("#1793D1"),
	manager.SourceZypper:   lipgloss.Color("#73BA25"), // openSUSE green
	manager.SourceFlatpak:  lipgloss.Color("#4A90D9"),
	manager.SourceSnap:     lipgloss.Color("#E95420"), // Ubuntu orange
	manager.SourceBrew:     lipgloss.Color("#FBB040"),
	manager.SourceNPM:      lipgloss.Color("#CB3837"),
	manager.SourcePip:      lipgloss.Color("#3776AB"),
	manager.SourcePipx:     lipgloss.Color("#3776AB"),
	manager.SourceCargo:    lipgloss.Color("#DEA584"),
	manager.SourceConda:    lipgloss.Color("#44A833"),
	manager.SourceMamba:    lipgloss.Color("#44A833"),
	manager.SourceDart:     lipgloss.Color("#0175C2"),
	manager.SourceDeb:      lipgloss.Color("#A80030"),
	manager.SourceAppImage: lipgloss.Color("#6B7280"),
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	okStyle    = lipgloss.NewStyle().Foreground(ColorSuccess)
	warnStyle  = lipgloss.NewStyle().Foreground(ColorWarning)
	errStyle   = lipgloss.NewStyle().Foreground(ColorError)
	mutedStyle = lipgloss.NewStyle().Foreground(ColorMuted)
)

func render(s lipgloss.Style, text string) string {
	if !UseColors {
		return text
	}
	return s.Render(text)
}

// Title renders a section title.
func Title(text string) string {
	return render(titleStyle, text)
}

// SourceBadge renders "[source]" in the source's color.
func SourceBadge(src manager.Source) string {
	style := lipgloss.NewStyle().Bold(true)
	if c, ok := sourceColors[src]; ok {
		style = style.Foreground(c)
	}
	return render(style, "["+src.String()+"]")
}

// OK renders text in the success color.
func OK(text string) string { return render(okStyle, text) }

// Warn renders text in the warning color.
func Warn(text string) string { return render(warnStyle, text) }

// Bad renders text in the error color.
func Bad(text string) string { return render(errStyle, text) }

// Dim renders text in the muted color.
func Dim(text string) string { return render(mutedStyle, text) }
