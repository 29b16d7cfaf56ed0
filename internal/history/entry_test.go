package history

import (
	"errors"
	"testing"
	"time"

	"pkgdeck/pkg/manager"
)

func TestParseOperation(t *testing.T) {
	tests := []struct {
		input   string
		want    Operation
		wantErr bool
	}{
		{"install", OpInstall, false},
		{"remove", OpRemove, false},
		{"update", OpUpdate, false},
		{"cleanup", OpCleanup, false},
		{"uninstall", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOperation(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOperation(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseOperation(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEntryVersions(t *testing.T) {
	tests := []struct {
		name   string
		entry  Entry
		expect string
	}{
		{"update", Entry{VersionBefore: "1.0", VersionAfter: "1.1"}, "1.0 -> 1.1"},
		{"install", Entry{VersionAfter: "2.0"}, "2.0"},
		{"remove", Entry{VersionBefore: "3.0"}, "3.0"},
		{"cleanup", Entry{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.Versions(); got != tt.expect {
				t.Errorf("Versions() = %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestEntrySummary(t *testing.T) {
	e := Entry{
		Timestamp:    time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local),
		Operation:    OpInstall,
		Package:      "vim",
		Source:       manager.SourceAPT,
		VersionAfter: "9.1",
		External:     true,
	}

	want := "2024-01-15 10:30:00 install vim (9.1) [apt] external"
	if got := e.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestInverse(t *testing.T) {
	key := manager.Key{Source: manager.SourceAPT, Name: "vim"}

	tests := []struct {
		name    string
		entry   Entry
		want    Undo
		wantErr error
	}{
		{
			name:  "install is undone by remove",
			entry: Entry{Operation: OpInstall, Package: "vim", Source: manager.SourceAPT},
			want:  Undo{Op: manager.OpRemove, Key: key},
		},
		{
			name:  "remove is undone by install",
			entry: Entry{Operation: OpRemove, Package: "vim", Source: manager.SourceAPT},
			want:  Undo{Op: manager.OpInstall, Key: key},
		},
		{
			name:  "update is undone by downgrade",
			entry: Entry{Operation: OpUpdate, Package: "vim", Source: manager.SourceAPT, VersionBefore: "9.0", VersionAfter: "9.1"},
			want:  Undo{Op: manager.OpDowngrade, Key: key, Version: "9.0"},
		},
		{
			name:    "update without previous version",
			entry:   Entry{Operation: OpUpdate, Package: "vim", Source: manager.SourceAPT, VersionAfter: "9.1"},
			wantErr: ErrNotReversible,
		},
		{
			name:    "cleanup",
			entry:   Entry{Operation: OpCleanup, Source: manager.SourceAPT},
			wantErr: ErrNotReversible,
		},
		{
			name:    "already undone",
			entry:   Entry{Operation: OpInstall, Package: "vim", Source: manager.SourceAPT, Undone: true},
			wantErr: ErrAlreadyUndone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Inverse(tt.entry)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Inverse() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Inverse() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Inverse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHistoryBounded(t *testing.T) {
	h := New(3)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		h.Add(Entry{ID: id})
	}

	entries := h.Entries()
	if len(entries) != 3 {
		t.Fatalf("Len() = %d, want 3", len(entries))
	}
	for i, want := range []string{"e", "d", "c"} {
		if entries[i].ID != want {
			t.Errorf("entries[%d].ID = %q, want %q", i, entries[i].ID, want)
		}
	}

	if _, err := h.Get("a"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("oldest entry should have been dropped, Get() error = %v", err)
	}
}

func TestHistoryDefaultLimit(t *testing.T) {
	if got := New(0).Limit(); got != DefaultLimit {
		t.Errorf("New(0).Limit() = %d, want %d", got, DefaultLimit)
	}

	h := New(0)
	for i := 0; i < DefaultLimit+5; i++ {
		h.Add(Entry{})
	}
	if h.Len() != DefaultLimit {
		t.Errorf("Len() = %d, want %d", h.Len(), DefaultLimit)
	}
}

func TestHistoryMarkUndone(t *testing.T) {
	h := New(10)
	h.Add(Entry{ID: "x"})

	if err := h.MarkUndone("x"); err != nil {
		t.Fatalf("MarkUndone() error: %v", err)
	}
	e, _ := h.Get("x")
	if !e.Undone {
		t.Error("entry should be marked undone")
	}
	if err := h.MarkUndone("missing"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("MarkUndone(missing) error = %v, want ErrEntryNotFound", err)
	}
}
