package executor

import (
	"errors"
	"os"
	"testing"
)

func TestIsRoot(t *testing.T) {
	if got, want := IsRoot(), os.Geteuid() == 0; got != want {
		t.Errorf("IsRoot() = %v, want %v", got, want)
	}
}

func TestCheckPrivileges(t *testing.T) {
	if err := CheckPrivileges(false); err != nil {
		t.Errorf("CheckPrivileges(false) = %v, want nil", err)
	}

	err := CheckPrivileges(true)
	switch {
	case IsRoot() || HasLauncher():
		if err != nil {
			t.Errorf("CheckPrivileges(true) = %v, want nil", err)
		}
	case !errors.Is(err, ErrNoPrivileges):
		t.Errorf("CheckPrivileges(true) = %v, want ErrNoPrivileges", err)
	}
}
