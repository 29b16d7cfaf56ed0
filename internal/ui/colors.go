// Package ui provides terminal output helpers for pkgdeck.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"pkgdeck/pkg/manager"
)

var (
	// Colors for different message types
	Success = color.New(color.FgGreen, color.Bold)
	Error   = color.New(color.FgRed, color.Bold)
	Warning = color.New(color.FgYellow, color.Bold)
	Info    = color.New(color.FgCyan)
	Header  = color.New(color.FgMagenta, color.Bold)
	Muted   = color.New(color.FgHiBlack)

	// Colors for specific elements
	PackageName    = color.New(color.FgWhite, color.Bold)
	PackageVersion = color.New(color.FgGreen)
	NewVersion     = color.New(color.FgYellow, color.Bold)
	Installed      = color.New(color.FgGreen)
)

// Out receives regular output and Err receives errors and warnings.
var (
	Out io.Writer = os.Stdout
	Err io.Writer = os.Stderr
)

// UseColors represents whether colors should be used.
var UseColors = true

// UseUnicode represents whether unicode symbols should be used.
var UseUnicode = true

// Symbols for status indicators
var (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "!"
	SymbolInfo    = "→"
	SymbolArrow   = "→"
)

// Init initializes the UI settings based on configuration.
func Init(useColors, useUnicode bool) {
	UseColors = useColors
	UseUnicode = useUnicode

	if !useColors || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
		UseColors = false
	}

	if !useUnicode {
		SymbolSuccess = "[OK]"
		SymbolError = "[ERROR]"
		SymbolWarning = "[WARN]"
		SymbolInfo = "->"
		SymbolArrow = "->"
	}
}

// SuccessMsg prints a success message.
func SuccessMsg(format string, args ...any) {
	Success.Fprintf(Out, SymbolSuccess+" "+format+"\n", args...)
}

// ErrorMsg prints an error message.
func ErrorMsg(format string, args ...any) {
	Error.Fprintf(Err, SymbolError+" "+format+"\n", args...)
}

// WarningMsg prints a warning message.
func WarningMsg(format string, args ...any) {
	Warning.Fprintf(Err, SymbolWarning+" "+format+"\n", args...)
}

// InfoMsg prints an info message.
func InfoMsg(format string, args ...any) {
	Info.Fprintf(Out, SymbolInfo+" "+format+"\n", args...)
}

// HeaderMsg prints a header message.
func HeaderMsg(format string, args ...any) {
	Header.Fprintf(Out, "\n"+format+"\n", args...)
}

// MutedMsg prints a muted (dim) message.
func MutedMsg(format string, args ...any) {
	Muted.Fprintf(Out, format+"\n", args...)
}

// Println prints a plain line with formatting.
func Println(format string, args ...any) {
	fmt.Fprintf(Out, format+"\n", args...)
}

// Bold returns a bold string.
func Bold(s string) string {
	return color.New(color.Bold).Sprint(s)
}

// Cyan returns a cyan string.
func Cyan(s string) string {
	return color.CyanString(s)
}

// ReportError prints err with its remedy. Errors that only warrant a
// warning, such as a dismissed authorization prompt, print as warnings.
// It returns true when err was a real failure.
func ReportError(err error) bool {
	if err == nil {
		return false
	}
	r := manager.Describe(err)
	if r.Warning {
		WarningMsg("%s", r.Summary)
	} else {
		ErrorMsg("%s", r.Summary)
	}
	if r.Detail != "" && r.Detail != r.Summary {
		Muted.Fprintf(Err, "  %s\n", r.Detail)
	}
	if r.Action != "" {
		fmt.Fprintf(Err, "  %s %s\n", SymbolArrow, r.Action)
	}
	return !r.Warning
}
