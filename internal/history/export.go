package history

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// CSVHeader is the first row written by ExportCSV.
var CSVHeader = []string{
	"timestamp", "operation", "package", "source",
	"version_before", "version_after", "size_change", "undone",
}

// csvTimeLayout is always rendered in UTC.
const csvTimeLayout = "2006-01-02 15:04:05"

// ExportJSON writes the full history, most recent first, as indented JSON.
func (t *Tracker) ExportJSON(w io.Writer) error {
	return WriteJSON(w, t.Entries())
}

// ExportCSV writes the full history, most recent first, as CSV.
func (t *Tracker) ExportCSV(w io.Writer) error {
	return WriteCSV(w, t.Entries())
}

// WriteJSON writes entries as indented JSON.
func WriteJSON(w io.Writer, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("failed to export history: %w", err)
	}
	return nil
}

// ReadJSON parses a history previously written by WriteJSON.
func ReadJSON(r io.Reader) ([]Entry, error) {
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}
	return entries, nil
}

// WriteCSV writes entries as CSV with CSVHeader. Absent versions are left
// blank.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{
			e.Timestamp.UTC().Format(csvTimeLayout),
			string(e.Operation),
			e.Package,
			e.Source.String(),
			e.VersionBefore,
			e.VersionAfter,
			strconv.FormatInt(e.SizeChange, 10),
			strconv.FormatBool(e.Undone),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to export history: %w", err)
	}
	return nil
}
