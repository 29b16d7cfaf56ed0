package ui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"pkgdeck/pkg/manager"
)

// Table wraps tabwriter for consistent styling.
type Table struct {
	writer  *tabwriter.Writer
	headers []string
}

// NewTable creates a table on Out.
func NewTable(header ...string) *Table {
	return NewTableWriter(Out, header...)
}

// NewTableWriter creates a new table that writes to a specific writer.
func NewTableWriter(w io.Writer, header ...string) *Table {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	t := &Table{writer: tw, headers: header}
	if len(header) > 0 {
		row := make([]string, len(header))
		for i, h := range header {
			row[i] = Bold(strings.ToUpper(h))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return t
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	fmt.Fprintln(t.writer, strings.Join(cells, "\t"))
}

// Render flushes the table.
func (t *Table) Render() {
	t.writer.Flush()
}

// Size renders a byte count, or "-" when unknown.
func Size(bytes int64) string {
	if bytes <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(bytes))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func statusText(s manager.Status) string {
	switch s {
	case manager.StatusInstalled:
		return OK(s.String())
	case manager.StatusUpdateAvailable:
		return Warn(s.String())
	case manager.StatusNotInstalled:
		return Dim(s.String())
	}
	return s.String()
}

// PrintPackages prints installed packages in a table.
func PrintPackages(packages []manager.Package) {
	if len(packages) == 0 {
		MutedMsg("No packages found")
		return
	}

	t := NewTable("source", "name", "version", "size", "status", "description")
	for _, p := range packages {
		t.AddRow(
			SourceBadge(p.Source),
			PackageName.Sprint(p.Name),
			PackageVersion.Sprint(p.Version),
			Size(p.SizeBytes),
			statusText(p.Status),
			truncate(p.Description, 50),
		)
	}
	t.Render()
}

// PrintUpdates prints pending updates with their current and offered
// versions.
func PrintUpdates(packages []manager.Package) {
	if len(packages) == 0 {
		SuccessMsg("Everything is up to date")
		return
	}

	t := NewTable("source", "name", "installed", "available")
	for _, p := range packages {
		current := p.Version
		if current == "" {
			current = "?"
		}
		t.AddRow(
			SourceBadge(p.Source),
			PackageName.Sprint(p.Name),
			PackageVersion.Sprint(current),
			NewVersion.Sprint(p.AvailableVersion),
		)
	}
	t.Render()
}

// PrintSearchResults prints search results grouped by source, in source
// order. installed marks results that are already present.
func PrintSearchResults(packages []manager.Package, installed map[manager.Key]manager.Package) {
	if len(packages) == 0 {
		MutedMsg("No packages found")
		return
	}

	grouped := make(map[manager.Source][]manager.Package)
	for _, p := range packages {
		grouped[p.Source] = append(grouped[p.Source], p)
	}

	HeaderMsg("Found %d results across %d sources", len(packages), len(grouped))

	for _, src := range manager.AllSources() {
		pkgs := grouped[src]
		if len(pkgs) == 0 {
			continue
		}
		fmt.Fprintf(Out, "\n%s (%d):\n", SourceBadge(src), len(pkgs))

		for _, p := range pkgs {
			line := "  " + PackageName.Sprint(p.Name)
			if p.Version != "" {
				line += " " + PackageVersion.Sprint(p.Version)
			}
			if _, ok := installed[p.Key()]; ok {
				line += " " + Installed.Sprint("[installed]")
			}
			fmt.Fprintln(Out, line)

			if p.Description != "" {
				MutedMsg("    %s", truncate(p.Description, 70))
			}
		}
	}
}

// PrintPackageInfo prints detailed package information, including any
// fetched enrichment.
func PrintPackageInfo(p manager.Package) {
	HeaderMsg("Package Information")

	printField("Name", p.Name)
	printField("Version", p.Version)
	if p.AvailableVersion != "" {
		printField("Available", p.AvailableVersion)
	}
	printField("Source", p.Source.DisplayName())
	printField("Status", statusText(p.Status))

	if p.Description != "" {
		printField("Description", p.Description)
	}
	if p.SizeBytes > 0 {
		printField("Size", Size(p.SizeBytes))
	}
	if p.InstallDate != "" {
		printField("Installed", p.InstallDate)
	}
	if p.Homepage != "" {
		printField("Homepage", p.Homepage)
	}
	if p.License != "" {
		printField("License", p.License)
	}
	if p.Maintainer != "" {
		printField("Maintainer", p.Maintainer)
	}
	if len(p.Dependencies) > 0 {
		printField("Dependencies", strings.Join(p.Dependencies, ", "))
	}

	e := p.Enrichment
	if e == nil {
		return
	}
	if e.Repository != "" {
		printField("Repository", e.Repository)
	}
	if e.LatestVersion != "" && e.LatestVersion != p.Version {
		printField("Latest", e.LatestVersion)
	}
	if e.Votes > 0 {
		printField("Votes", humanize.Comma(int64(e.Votes)))
	}
	if e.Popularity > 0 {
		printField("Popularity", fmt.Sprintf("%.2f", e.Popularity))
	}
	if e.Downloads > 0 {
		printField("Downloads", humanize.Comma(e.Downloads))
	}
	if len(e.Keywords) > 0 {
		printField("Keywords", strings.Join(e.Keywords, ", "))
	}
}

func printField(label, value string) {
	fmt.Fprintf(Out, "  %s: %s\n", Cyan(label), value)
}
