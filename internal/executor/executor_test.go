package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"reflect"
	"strings"
	"testing"
	"time"
)

type call struct {
	name string
	args []string
}

// fakeSpawner records invocations and answers with a fixed result.
func fakeSpawner(res Result, err error, calls *[]call) SpawnFunc {
	return func(_ context.Context, name string, args []string) (Result, error) {
		*calls = append(*calls, call{name: name, args: append([]string(nil), args...)})
		return res, err
	}
}

func TestOutput(t *testing.T) {
	e := New(false, false)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := e.Output(ctx, "echo", "hello")
	if err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if !strings.Contains(output, "hello") {
		t.Errorf("Output() = %s, want to contain 'hello'", output)
	}
}

func TestRunCapturesStreamsSeparately(t *testing.T) {
	e := New(false, false)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := e.Run(ctx, "sh", "-c", "echo out; echo err >&2; exit 3")
	if err == nil {
		t.Fatal("Run() should return error for non-zero exit")
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected *CommandError, got %T", err)
	}
	if cmdErr.ExitCode != 3 || res.ExitCode != 3 {
		t.Errorf("exit code = %d / %d, want 3", cmdErr.ExitCode, res.ExitCode)
	}
	if strings.TrimSpace(res.Stdout) != "out" {
		t.Errorf("Stdout = %q", res.Stdout)
	}
	if strings.TrimSpace(res.Stderr) != "err" {
		t.Errorf("Stderr = %q", res.Stderr)
	}
	if ExitCode(err) != 3 {
		t.Errorf("ExitCode(err) = %d, want 3", ExitCode(err))
	}
}

func TestRunMissingBinary(t *testing.T) {
	e := New(false, false)
	_, err := e.Run(context.Background(), "pkgdeck-definitely-not-installed")
	if err == nil {
		t.Fatal("expected spawn failure")
	}
	if !errors.Is(err, exec.ErrNotFound) {
		t.Errorf("expected exec.ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "pkgdeck-definitely-not-installed") {
		t.Errorf("error should name the attempted command: %v", err)
	}
	if ExitCode(err) != -1 {
		t.Errorf("ExitCode of spawn failure = %d, want -1", ExitCode(err))
	}
}

func TestRunDryRun(t *testing.T) {
	var out bytes.Buffer
	var calls []call
	e := New(true, false)
	e.SetOutput(&out)
	e.SetSpawner(fakeSpawner(Result{ExitCode: 1}, nil, &calls))

	if _, err := e.Run(context.Background(), "apt-get", "install", "-y", "--", "vim"); err != nil {
		t.Errorf("Run() in dry-run mode should not error: %v", err)
	}
	if len(calls) != 0 {
		t.Errorf("dry-run spawned %d processes", len(calls))
	}
	if !strings.Contains(out.String(), "[dry-run] Would execute: apt-get install -y -- vim") {
		t.Errorf("unexpected dry-run output: %q", out.String())
	}
}

func TestQueryRunsInDryRun(t *testing.T) {
	var calls []call
	e := New(true, false)
	e.SetSpawner(fakeSpawner(Result{Stdout: "vim 9.0\n"}, nil, &calls))

	res, err := e.Query(context.Background(), "dpkg-query", "-W")
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if res.Stdout != "vim 9.0\n" || len(calls) != 1 {
		t.Errorf("Query() = %+v after %d calls", res, len(calls))
	}
}

func TestContextCancellation(t *testing.T) {
	e := New(false, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Output(ctx, "sleep", "10"); err == nil {
		t.Error("Output() should error with cancelled context")
	}
}

func TestRunPrivileged(t *testing.T) {
	tests := []struct {
		name     string
		root     bool
		res      Result
		spawnErr error
		wantCall call
		check    func(t *testing.T, err error)
	}{
		{
			name:     "success through pkexec",
			res:      Result{},
			wantCall: call{"pkexec", []string{"apt-get", "install", "-y", "--", "vim"}},
			check: func(t *testing.T, err error) {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			},
		},
		{
			name:     "root runs directly",
			root:     true,
			res:      Result{},
			wantCall: call{"apt-get", []string{"install", "-y", "--", "vim"}},
			check: func(t *testing.T, err error) {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			},
		},
		{
			name:     "tool failure carries suggestion",
			res:      Result{ExitCode: 100, Stderr: "E: Unable to locate package vim\n"},
			wantCall: call{"pkexec", []string{"apt-get", "install", "-y", "--", "vim"}},
			check: func(t *testing.T, err error) {
				var cmdErr *CommandError
				if !errors.As(err, &cmdErr) {
					t.Fatalf("expected *CommandError, got %T", err)
				}
				if cmdErr.Name != "apt-get" || cmdErr.ExitCode != 100 {
					t.Errorf("CommandError = %+v", cmdErr)
				}
				clean, suggestion, ok := SplitSuggestion(err.Error())
				if !ok || suggestion != "sudo apt-get install -y -- vim" {
					t.Errorf("suggestion = %q (ok=%v)", suggestion, ok)
				}
				if strings.Contains(clean, SuggestMarker) || !strings.Contains(clean, "Unable to locate package") {
					t.Errorf("clean message = %q", clean)
				}
				if errors.Is(err, ErrAuthorization) {
					t.Error("tool failure must not be an authorization error")
				}
			},
		},
		{
			name:     "dialog dismissed",
			res:      Result{ExitCode: 126},
			wantCall: call{"pkexec", []string{"apt-get", "install", "-y", "--", "vim"}},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrAuthorization) {
					t.Fatalf("expected ErrAuthorization, got %v", err)
				}
				if !strings.Contains(err.Error(), "cancelled") {
					t.Errorf("message = %q", err.Error())
				}
			},
		},
		{
			name:     "not authorized",
			res:      Result{ExitCode: 127},
			wantCall: call{"pkexec", []string{"apt-get", "install", "-y", "--", "vim"}},
			check: func(t *testing.T, err error) {
				var authErr *AuthError
				if !errors.As(err, &authErr) || authErr.ExitCode != 127 {
					t.Fatalf("expected *AuthError with 127, got %v", err)
				}
			},
		},
		{
			name:     "launcher missing",
			spawnErr: exec.ErrNotFound,
			wantCall: call{"pkexec", []string{"apt-get", "install", "-y", "--", "vim"}},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrNoPrivileges) {
					t.Fatalf("expected ErrNoPrivileges, got %v", err)
				}
				if _, s, ok := SplitSuggestion(err.Error()); !ok || s != "sudo apt-get install -y -- vim" {
					t.Errorf("suggestion = %q", s)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []call
			e := New(false, false)
			e.SetRootCheck(func() bool { return tt.root })
			e.SetSpawner(fakeSpawner(tt.res, tt.spawnErr, &calls))

			_, err := e.RunPrivileged(context.Background(), "apt-get", "install", "-y", "--", "vim")
			tt.check(t, err)

			if len(calls) != 1 {
				t.Fatalf("expected 1 call, got %d", len(calls))
			}
			if !reflect.DeepEqual(calls[0], tt.wantCall) {
				t.Errorf("call = %+v, want %+v", calls[0], tt.wantCall)
			}
		})
	}
}

func TestRunPrivilegedDryRun(t *testing.T) {
	var out bytes.Buffer
	var calls []call
	e := New(true, false)
	e.SetOutput(&out)
	e.SetRootCheck(func() bool { return false })
	e.SetSpawner(fakeSpawner(Result{}, nil, &calls))

	if _, err := e.RunPrivileged(context.Background(), "dnf", "remove", "-y", "--", "vim"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 0 {
		t.Error("dry-run must not spawn")
	}
	if !strings.Contains(out.String(), "pkexec dnf remove -y -- vim") {
		t.Errorf("dry-run output = %q", out.String())
	}
}

func TestSplitSuggestion(t *testing.T) {
	tests := []struct {
		name           string
		msg            string
		wantClean      string
		wantSuggestion string
		wantOK         bool
	}{
		{
			name:           "with marker",
			msg:            "install failed: lock held " + SuggestMarker + "sudo pacman -S --noconfirm -- vim",
			wantClean:      "install failed: lock held",
			wantSuggestion: "sudo pacman -S --noconfirm -- vim",
			wantOK:         true,
		},
		{
			name:           "suggestion kept verbatim",
			msg:            "x" + SuggestMarker + " sudo apt-get  install ",
			wantClean:      "x",
			wantSuggestion: " sudo apt-get  install ",
			wantOK:         true,
		},
		{
			name:      "no marker",
			msg:       "  plain failure \n",
			wantClean: "plain failure",
		},
		{
			name:   "marker only",
			msg:    SuggestMarker,
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clean, suggestion, ok := SplitSuggestion(tt.msg)
			if clean != tt.wantClean || suggestion != tt.wantSuggestion || ok != tt.wantOK {
				t.Errorf("SplitSuggestion(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.msg, clean, suggestion, ok, tt.wantClean, tt.wantSuggestion, tt.wantOK)
			}
		})
	}
}

func TestCommandLineQuoting(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"install", "-y", "--", "vim"}, "apt-get install -y -- vim"},
		{[]string{"install", "--", "foo; rm -rf /"}, "apt-get install -- 'foo; rm -rf /'"},
		{[]string{"install", "--", "it's"}, `apt-get install -- 'it'\''s'`},
		{[]string{"install", "--", "libfoo=1.2-3"}, "apt-get install -- libfoo=1.2-3"},
		{[]string{""}, "apt-get ''"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := CommandLine("apt-get", tt.args); got != tt.want {
				t.Errorf("CommandLine() = %q, want %q", got, tt.want)
			}
		})
	}
}
