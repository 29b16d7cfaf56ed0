package ui

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"pkgdeck/pkg/manager"
)

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	oldOut, oldErr, oldColors := Out, Err, UseColors
	Out, Err = &out, &errOut
	Init(false, false)
	t.Cleanup(func() {
		Out, Err = oldOut, oldErr
		Init(oldColors, true)
	})
	return &out, &errOut
}

func TestSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "-"},
		{-1, "-"},
		{512, "512 B"},
		{2_000_000, "2.0 MB"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Size(tt.in); got != tt.want {
				t.Errorf("Size(%d) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("a very long description", 10); got != "a very ..." {
		t.Errorf("truncate long = %q", got)
	}
	if got := truncate("ééééééé", 5); got != "éé..." {
		t.Errorf("truncate runes = %q", got)
	}
}

func TestReportError(t *testing.T) {
	t.Run("failure", func(t *testing.T) {
		_, errOut := capture(t)
		err := &manager.OperationError{Op: manager.OpInstall, Package: "vim", Source: manager.SourceAPT, Kind: manager.ErrPackageNotFound, Err: manager.ErrPackageNotFound}
		if !ReportError(err) {
			t.Error("ReportError() = false for a failure")
		}
		if !strings.Contains(errOut.String(), "[ERROR]") {
			t.Errorf("output %q lacks error marker", errOut.String())
		}
	})

	t.Run("authorization is a warning", func(t *testing.T) {
		_, errOut := capture(t)
		err := fmt.Errorf("install: %w", manager.ErrAuthorization)
		if ReportError(err) {
			t.Error("ReportError() = true for a dismissed prompt")
		}
		if !strings.Contains(errOut.String(), "[WARN]") {
			t.Errorf("output %q lacks warning marker", errOut.String())
		}
	})

	t.Run("nil", func(t *testing.T) {
		if ReportError(nil) {
			t.Error("ReportError(nil) = true")
		}
	})
}

func TestPrintSearchResultsSourceOrder(t *testing.T) {
	out, _ := capture(t)
	pkgs := []manager.Package{
		{Name: "ripgrep", Source: manager.SourceCargo},
		{Name: "ripgrep", Source: manager.SourceAPT, Version: "13.0"},
	}
	installed := manager.Index([]manager.Package{{Name: "ripgrep", Source: manager.SourceAPT}})
	PrintSearchResults(pkgs, installed)

	s := out.String()
	apt, cargo := strings.Index(s, "[apt]"), strings.Index(s, "[cargo]")
	if apt < 0 || cargo < 0 || apt > cargo {
		t.Fatalf("sources out of order:\n%s", s)
	}
	if strings.Count(s, "[installed]") != 1 {
		t.Errorf("want one installed marker:\n%s", s)
	}
}

func TestPrintUpdatesEmpty(t *testing.T) {
	out, _ := capture(t)
	PrintUpdates(nil)
	if !strings.Contains(out.String(), "up to date") {
		t.Errorf("output = %q", out.String())
	}
}
