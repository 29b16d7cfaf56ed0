package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"pkgdeck/internal/executor"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   error
	}{
		{"pacman lock", "error: failed to init transaction (unable to lock database)", ErrResourceBusy},
		{"apt lock", "E: Could not get lock /var/lib/dpkg/lock-frontend. It is held by process 1234 (apt)", ErrResourceBusy},
		{"zypper lock", "System management is locked by the application with pid 812 (zypper).", ErrResourceBusy},
		{"no space", "write error: No space left on device", ErrInsufficientSpace},
		{"apt space", "E: You don't have enough free space in /var/cache/apt/archives/.", ErrInsufficientSpace},
		{"pacman conflict", "error: failed to prepare transaction (could not satisfy dependencies)", ErrDependencyConflict},
		{"apt unmet", "The following packages have unmet dependencies:\n foo : Depends: bar", ErrDependencyConflict},
		{"dnf nothing provides", " - nothing provides libfoo.so.1()(64bit) needed by bar-1.0", ErrDependencyConflict},
		{"pip version", "ERROR: Could not find a version that satisfies the requirement requests==99.0", ErrVersionNotFound},
		{"apt version", "E: Version '1.0' for 'vim' was not found", ErrVersionNotFound},
		{"apt not installed", "Package 'vim' is not installed, so not removed", ErrNotInstalled},
		{"dnf nothing to remove", "No packages marked for removal.", ErrNotInstalled},
		{"already installed", "warning: vim-9.0 is up to date -- skipping", ErrAlreadyInstalled},
		{"pip already", "Requirement already satisfied: requests in ./lib", ErrAlreadyInstalled},
		{"pacman not found", "error: target not found: nosuchpkg", ErrPackageNotFound},
		{"apt not found", "E: Unable to locate package nosuchpkg", ErrPackageNotFound},
		{"dnf not found", "No match for argument: nosuchpkg", ErrPackageNotFound},
		{"corrupt", "error: could not open file /var/lib/pacman/sync/core.db: Unrecognized archive format (corrupt)", ErrCorrupt},
		{"unknown", "something odd happened", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.output); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConflictingPackages(t *testing.T) {
	stderr := `resolving dependencies...
error: failed to prepare transaction (could not satisfy dependencies)
:: installing gst-plugins-base-libs (1.26.10-3) breaks dependency 'gst-plugins-base-libs=1.26.10-1' required by gst-plugins-bad-libs
:: installing pipewire (1.2.3-4) breaks dependency 'pipewire=1.2.3-1' required by wireplumber
:: pipewire and pulseaudio are in conflict`

	got := ConflictingPackages(stderr)
	want := []string{"gst-plugins-base-libs", "gst-plugins-bad-libs", "pipewire", "wireplumber", "pulseaudio"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("ConflictingPackages() = %v, want %v", got, want)
	}
}

func TestNewOperationError(t *testing.T) {
	cmdErr := &executor.CommandError{
		Name:       "pacman",
		Args:       []string{"-S", "--noconfirm", "--", "vim"},
		ExitCode:   1,
		Stderr:     "error: failed to init transaction (unable to lock database)\n",
		Suggestion: "sudo pacman -S --noconfirm -- vim",
	}

	err := NewOperationError(OpInstall, SourcePacman, "vim", cmdErr)

	var opErr *OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected *OperationError, got %T", err)
	}
	if opErr.Suggestion != "sudo pacman -S --noconfirm -- vim" {
		t.Errorf("Suggestion = %q", opErr.Suggestion)
	}
	if strings.Contains(opErr.Details, executor.SuggestMarker) {
		t.Errorf("Details still carries the marker: %q", opErr.Details)
	}
	if !errors.Is(err, ErrResourceBusy) {
		t.Error("expected the lock failure to be classified")
	}
	if !errors.As(err, new(*executor.CommandError)) {
		t.Error("the command error must stay reachable")
	}
	if !strings.HasPrefix(err.Error(), "install vim (pacman) failed") {
		t.Errorf("Error() = %q", err.Error())
	}

	if NewOperationError(OpInstall, SourceAPT, "vim", nil) != nil {
		t.Error("nil error should stay nil")
	}
	if again := NewOperationError(OpRemove, SourceAPT, "x", err); again != err {
		t.Error("an operation error must not be wrapped twice")
	}
}

func TestNewOperationErrorAuthorization(t *testing.T) {
	authErr := &executor.AuthError{Command: "apt-get remove -y -- vim", ExitCode: 126, Suggestion: "sudo apt-get remove -y -- vim"}
	err := NewOperationError(OpRemove, SourceAPT, "vim", authErr)

	if !errors.Is(err, ErrAuthorization) {
		t.Fatal("authorization failures must stay distinguishable")
	}
	r := Describe(err)
	if !r.Warning {
		t.Error("authorization failures are warnings, not errors")
	}
	if r.Action != "sudo apt-get remove -y -- vim" {
		t.Errorf("Action = %q", r.Action)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantSummary string
		wantAction  string
		warning     bool
	}{
		{
			name:        "disabled",
			err:         &SourceError{Source: SourceSnap, Err: ErrSourceDisabled},
			wantSummary: "snap is disabled",
			wantAction:  `Remove "snap" from [sources] disabled in config.toml`,
		},
		{
			name:        "unavailable",
			err:         &SourceError{Source: SourceFlatpak, Missing: []string{"flatpak"}, Err: ErrSourceUnavailable},
			wantSummary: "flatpak is not available on this system",
			wantAction:  "Install flatpak",
		},
		{
			name:        "network timeout",
			err:         &NetworkError{URL: "https://aur.archlinux.org", Timeout: true},
			wantSummary: "The metadata server did not respond in time",
			wantAction:  "Retry later or raise [enrichment] timeout_seconds in config.toml",
		},
		{
			name:        "network failure",
			err:         &NetworkError{URL: "https://pypi.org", Err: errors.New("connection refused")},
			wantSummary: "Could not reach the metadata server",
			wantAction:  "Check your network connection",
		},
		{
			name:        "disk space",
			err:         &OperationError{Op: OpInstall, Package: "gimp", Source: SourceAPT, Kind: ErrInsufficientSpace},
			wantSummary: "Not enough free disk space",
			wantAction:  "Free disk space, for example: sudo apt-get clean",
		},
		{
			name:        "already installed",
			err:         &OperationError{Op: OpInstall, Package: "vim", Source: SourceAPT, Kind: ErrAlreadyInstalled},
			wantSummary: "vim is already installed",
			warning:     true,
		},
		{
			name:        "invalid name",
			err:         fmt.Errorf("%w: empty name", ErrInvalidName),
			wantSummary: "Invalid package name",
			wantAction:  "Use the name exactly as shown by search",
		},
		{
			name:        "cancelled",
			err:         context.Canceled,
			wantSummary: "Cancelled",
			warning:     true,
		},
		{
			name:        "unclassified command failure",
			err:         NewOperationError(OpUpdate, SourceDNF, "vim", &executor.CommandError{Name: "dnf", ExitCode: 3, Stderr: "weird", Suggestion: "sudo dnf upgrade -y -- vim"}),
			wantSummary: "dnf exited with status 3",
			wantAction:  "sudo dnf upgrade -y -- vim",
		},
		{
			name:        "plain error",
			err:         errors.New("first line\nsecond line"),
			wantSummary: "first line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Describe(tt.err)
			if r.Summary != tt.wantSummary {
				t.Errorf("Summary = %q, want %q", r.Summary, tt.wantSummary)
			}
			if r.Action != tt.wantAction {
				t.Errorf("Action = %q, want %q", r.Action, tt.wantAction)
			}
			if r.Warning != tt.warning {
				t.Errorf("Warning = %v, want %v", r.Warning, tt.warning)
			}
			if r.Summary == "" {
				t.Error("every error needs a summary")
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"vim", true},
		{"@vue/cli", true},
		{"org.gimp.GIMP", true},
		{"libfoo++", true},
		{"", false},
		{"-rf", false},
		{"--help", false},
		{"foo bar", false},
		{"foo\nbar", false},
		{"tab\tname", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.name)
			if (err == nil) != tt.valid {
				t.Errorf("ValidateName(%q) = %v, valid want %v", tt.name, err, tt.valid)
			}
			if err != nil && !errors.Is(err, ErrInvalidName) {
				t.Errorf("error should wrap ErrInvalidName: %v", err)
			}
		})
	}
}
