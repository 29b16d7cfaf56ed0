// Package parse holds the output grammars shared by package manager backends.
// Every function is pure: raw tool output in, records out. Lines that do not
// fit a grammar are dropped rather than reported.
package parse

import (
	"strings"
)

// Lines splits output into lines, dropping a trailing carriage return.
func Lines(out string) []string {
	out = strings.ReplaceAll(out, "\r\n", "\n")
	lines := strings.Split(out, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// Pair is a "name version" line.
type Pair struct {
	Name    string
	Version string
}

// Pairs parses whitespace separated "name version" lines. Lines with fewer
// than two fields, or starting with one of skipPrefixes, are dropped.
func Pairs(out string, skipPrefixes ...string) []Pair {
	var pairs []Pair
	for _, line := range Lines(out) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || hasAnyPrefix(trimmed, skipPrefixes) {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) < 2 {
			continue
		}
		pairs = append(pairs, Pair{Name: fields[0], Version: fields[1]})
	}
	return pairs
}

// Block is one record of the two-line search format:
//
//	repo/name version [flags]
//	    description
type Block struct {
	Repo        string
	Name        string
	Version     string
	Flags       []string
	Description string
}

// PairedBlocks parses repeated two-line records. A header without "/" in its
// first field is skipped by advancing one line, so a stray line cannot shift
// every following record. The description is only consumed when the next
// line is indented.
func PairedBlocks(out string) []Block {
	lines := Lines(out)
	var blocks []Block

	for i := 0; i < len(lines); {
		header := lines[i]
		if header == "" || isIndented(header) {
			i++
			continue
		}
		fields := strings.Fields(header)
		repo, name, ok := strings.Cut(fields[0], "/")
		if !ok || name == "" {
			i++
			continue
		}

		b := Block{Repo: repo, Name: name}
		if len(fields) > 1 {
			b.Version = fields[1]
		}
		if len(fields) > 2 {
			b.Flags = fields[2:]
		}
		i++
		if i < len(lines) && isIndented(lines[i]) {
			b.Description = strings.TrimSpace(lines[i])
			i++
		}
		blocks = append(blocks, b)
	}
	return blocks
}

// Record is one key:value block.
type Record map[string]string

// KeyValueBlocks parses blank-line separated blocks of "Key: value" lines.
// A record is emitted only when nameKey was seen; the trailing block is
// flushed at end of input. Indented lines without a key continue the
// previous value.
func KeyValueBlocks(out, nameKey string) []Record {
	var (
		records []Record
		cur     = Record{}
		lastKey string
	)
	flush := func() {
		if cur[nameKey] != "" {
			records = append(records, cur)
		}
		cur = Record{}
		lastKey = ""
	}

	for _, line := range Lines(out) {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if isIndented(line) && lastKey != "" {
			cont := strings.TrimSpace(line)
			if cur[lastKey] == "" {
				cur[lastKey] = cont
			} else {
				cur[lastKey] += " " + cont
			}
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		lastKey = strings.TrimSpace(key)
		cur[lastKey] = strings.TrimSpace(value)
	}
	flush()
	return records
}

// Columns splits each line on sep and trims the fields. Lines with fewer
// than minCols columns are dropped.
func Columns(out, sep string, minCols int) [][]string {
	var rows [][]string
	for _, line := range Lines(out) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, sep)
		if len(parts) < minCols {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		rows = append(rows, parts)
	}
	return rows
}

// Table parses a whitespace aligned table such as `snap list`. The header
// row, recognised by its first field, is skipped wherever it appears. Rows
// with fewer than minCols fields are dropped.
func Table(out, headerFirst string, minCols int) [][]string {
	var rows [][]string
	for _, line := range Lines(out) {
		fields := strings.Fields(line)
		if len(fields) < minCols {
			continue
		}
		if headerFirst != "" && fields[0] == headerFirst {
			continue
		}
		rows = append(rows, fields)
	}
	return rows
}

// StripANSI removes terminal color escape sequences some helpers emit even
// when not attached to a terminal.
func StripANSI(s string) string {
	if !strings.Contains(s, "\x1b[") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && (s[j] < 0x40 || s[j] > 0x7e) {
				j++
			}
			i = j
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isIndented(line string) bool {
	return line != "" && (line[0] == ' ' || line[0] == '\t')
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
