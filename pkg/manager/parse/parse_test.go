package parse

import (
	"reflect"
	"testing"
)

func TestPairs(t *testing.T) {
	out := "Listing...\nbat 0.24.0\nripgrep 14.1.0 extra\n\nlonely\n  fd   9.0.0  \n"
	got := Pairs(out, "Listing")
	want := []Pair{{"bat", "0.24.0"}, {"ripgrep", "14.1.0"}, {"fd", "9.0.0"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Pairs() = %v, want %v", got, want)
	}
}

func TestPairedBlocks(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want []Block
	}{
		{
			name: "pacman -Ss",
			out: `extra/vim 9.1.0-1 [installed]
    Vi Improved, a highly configurable, improved version of the vi text editor
extra/vim-airline 0.11-4
    Lean & mean status/tabline for vim that's light as air
`,
			want: []Block{
				{Repo: "extra", Name: "vim", Version: "9.1.0-1", Flags: []string{"[installed]"}, Description: "Vi Improved, a highly configurable, improved version of the vi text editor"},
				{Repo: "extra", Name: "vim-airline", Version: "0.11-4", Description: "Lean & mean status/tabline for vim that's light as air"},
			},
		},
		{
			name: "stray header advances one line",
			out: `:: Synchronizing package databases...
core/bash 5.2.026-2
    The GNU Bourne Again shell
`,
			want: []Block{
				{Repo: "core", Name: "bash", Version: "5.2.026-2", Description: "The GNU Bourne Again shell"},
			},
		},
		{
			name: "header without description",
			out: `aur/foo-git r12.abc-1
aur/bar 1.0-1 (+12 0.53)
    Bar tool
`,
			want: []Block{
				{Repo: "aur", Name: "foo-git", Version: "r12.abc-1"},
				{Repo: "aur", Name: "bar", Version: "1.0-1", Flags: []string{"(+12", "0.53)"}, Description: "Bar tool"},
			},
		},
		{
			name: "garbage",
			out:  "nothing here\n    floating description\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PairedBlocks(tt.out)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PairedBlocks() =\n%+v\nwant\n%+v", got, tt.want)
			}
		})
	}
}

func TestKeyValueBlocks(t *testing.T) {
	out := `Name            : bash
Version         : 5.2.026-2
Description     : The GNU Bourne Again shell
Optional Deps   : bash-completion: for tab completion
                  bash-docs: manuals

Version         : 1.0
Description     : block without a name

Name            : zlib
Version         : 1:1.3.1-1
Install Date    : Mon 04 Mar 2024 10:22:31 AM UTC`

	got := KeyValueBlocks(out, "Name")
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d: %v", len(got), got)
	}
	if got[0]["Name"] != "bash" || got[0]["Version"] != "5.2.026-2" {
		t.Errorf("first record = %v", got[0])
	}
	if got[0]["Optional Deps"] != "bash-completion: for tab completion bash-docs: manuals" {
		t.Errorf("continuation = %q", got[0]["Optional Deps"])
	}
	// The trailing block has no terminating blank line.
	if got[1]["Name"] != "zlib" || got[1]["Version"] != "1:1.3.1-1" {
		t.Errorf("trailing record = %v", got[1])
	}
	if got[1]["Install Date"] != "Mon 04 Mar 2024 10:22:31 AM UTC" {
		t.Errorf("value with colons = %q", got[1]["Install Date"])
	}
}

func TestKeyValueBlocksEmpty(t *testing.T) {
	if got := KeyValueBlocks("", "Package"); len(got) != 0 {
		t.Errorf("expected no records, got %v", got)
	}
	if got := KeyValueBlocks("\n\n\n", "Package"); len(got) != 0 {
		t.Errorf("expected no records, got %v", got)
	}
}

func TestColumns(t *testing.T) {
	out := "S  | Name    | Type    | Version\n---+---------+---------+--------\ni+ | vim     | package | 9.1\ni  | broken\n"
	got := Columns(out, "|", 4)
	want := [][]string{
		{"S", "Name", "Type", "Version"},
		{"i+", "vim", "package", "9.1"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Columns() = %v, want %v", got, want)
	}

	tabbed := Columns("GIMP\torg.gimp.GIMP\t2.10.38\nshort\n", "\t", 3)
	if len(tabbed) != 1 || tabbed[0][1] != "org.gimp.GIMP" {
		t.Errorf("tab columns = %v", tabbed)
	}
}

func TestTable(t *testing.T) {
	out := `Name    Version   Rev    Tracking       Publisher   Notes
core22  20240111  1122   latest/stable  canonical✓  base
firefox 124.0-2   3941   latest/stable  mozilla✓    -
x
`
	got := Table(out, "Name", 4)
	if len(got) != 2 {
		t.Fatalf("Table() = %v", got)
	}
	if got[1][0] != "firefox" || got[1][1] != "124.0-2" {
		t.Errorf("row = %v", got[1])
	}
}

func TestStripANSI(t *testing.T) {
	in := "\x1b[1m\x1b[35maur\x1b[0m/\x1b[1mfoo\x1b[0m 1.0"
	if got := StripANSI(in); got != "aur/foo 1.0" {
		t.Errorf("StripANSI() = %q", got)
	}
	if got := StripANSI("plain"); got != "plain" {
		t.Errorf("StripANSI(plain) = %q", got)
	}
}

func TestLines(t *testing.T) {
	got := Lines("a\r\nb\n\nc\n")
	want := []string{"a", "b", "", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Lines() = %q, want %q", got, want)
	}
}
