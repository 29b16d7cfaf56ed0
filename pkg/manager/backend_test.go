package manager

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestCapSearch(t *testing.T) {
	for _, n := range []int{0, 10, SearchLimit, SearchLimit + 1, 500} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			pkgs := make([]Package, n)
			for i := range pkgs {
				pkgs[i] = Package{Name: fmt.Sprintf("pkg%d", i), Description: fmt.Sprintf("desc %d", i)}
			}
			got := CapSearch(pkgs)

			want := min(n, SearchLimit)
			if len(got) != want {
				t.Fatalf("len = %d, want %d", len(got), want)
			}
			for i, p := range got {
				if p.Description != fmt.Sprintf("desc %d", i) {
					t.Errorf("record %d lost its description", i)
				}
			}
		})
	}
}

func TestOnlyUpdates(t *testing.T) {
	pkgs := []Package{
		{Name: "a", Version: "1", AvailableVersion: "2"},
		{Name: "b", Version: "1"},
		{Name: "c", AvailableVersion: "3"},
	}
	got := OnlyUpdates(pkgs)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for _, p := range got {
		if p.AvailableVersion == "" {
			t.Errorf("%s has no available version", p.Name)
		}
		if p.Status != StatusUpdateAvailable {
			t.Errorf("%s status = %v", p.Name, p.Status)
		}
	}
}

func TestProbeSpecMissing(t *testing.T) {
	present := map[string]bool{"apt-get": true, "dpkg-query": true, "paru": true}
	lookPath := func(bin string) (string, error) {
		if present[bin] {
			return "/usr/bin/" + bin, nil
		}
		return "", errors.New("not found")
	}

	tests := []struct {
		name string
		spec ProbeSpec
		want []string
	}{
		{
			name: "all present",
			spec: ProbeSpec{Binaries: []string{"apt-get", "dpkg-query"}},
		},
		{
			name: "required missing",
			spec: ProbeSpec{Binaries: []string{"apt-get", "apt-cache"}, Privilege: []string{"pkexec"}},
			want: []string{"apt-cache", "pkexec"},
		},
		{
			name: "one alternative present",
			spec: ProbeSpec{AnyOf: []string{"yay", "paru"}},
		},
		{
			name: "no alternative present",
			spec: ProbeSpec{Binaries: []string{"dpkg-query"}, AnyOf: []string{"dart", "flutter"}},
			want: []string{"dart", "flutter"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.spec.Missing(lookPath)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Missing() = %v, want %v", got, tt.want)
			}
		})
	}
}
