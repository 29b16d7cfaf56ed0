package manager

import (
	"regexp"
)

// Regular expressions for recognising package manager failures. Each pattern
// is matched case-insensitively against captured stderr.
var classifiers = []struct {
	pattern *regexp.Regexp
	kind    error
}{
	// pacman: "error: failed to init transaction (unable to lock database)"
	// apt: "E: Could not get lock /var/lib/dpkg/lock-frontend"
	// zypper: "System management is locked by the application with pid 123"
	{regexp.MustCompile(`(?i)unable to lock database|could not get lock|dpkg frontend lock|system management is locked|waiting for cache lock|another app is currently holding|snap .* has .*change in progress`), ErrResourceBusy},

	{regexp.MustCompile(`(?i)no space left on device|not enough (free )?(disk )?space|insufficient (free )?(disk )?space|you don't have enough free space`), ErrInsufficientSpace},

	// pacman: "error: failed to prepare transaction (could not satisfy dependencies)"
	// pacman: ":: pkg and other-pkg are in conflict"
	// apt: "The following packages have unmet dependencies"
	// dnf: "nothing provides libfoo.so needed by bar"
	{regexp.MustCompile(`(?i)could not satisfy dependencies|breaks dependency|:: \S+ and \S+ are in conflict|unmet dependencies|nothing provides|conflicting requests|resolutionimpossible|problem: .*conflicts with`), ErrDependencyConflict},

	// pip: "Could not find a version that satisfies the requirement foo==9.9"
	// apt: "E: Version '1.0' for 'foo' was not found"
	{regexp.MustCompile(`(?i)could not find a version that satisfies|version '[^']*' for '[^']*' was not found|no matching version|notarget no matching version`), ErrVersionNotFound},

	// pacman -R: "error: target not found: foo" is also what -S prints, so the
	// removal phrasings are checked before the generic lookup failures.
	{regexp.MustCompile(`(?i)is not installed|package .* not installed|no packages marked for removal|not installed, so not removed`), ErrNotInstalled},

	{regexp.MustCompile(`(?i)is already installed|already the newest version|requirement already satisfied|is up to date -- skipping|already installed`), ErrAlreadyInstalled},

	// pacman: "error: target not found: foo"
	// apt: "E: Unable to locate package foo"
	{regexp.MustCompile(`(?i)target not found|unable to locate package|no matching distribution found|snap "[^"]*" not found|no remote refs found|no match for argument|not found in package names|404 not found|e404`), ErrPackageNotFound},

	{regexp.MustCompile(`(?i)database disk image is malformed|corrupt|unexpected end of json input|invalid or corrupted package|bad signature`), ErrCorrupt},
}

// Classify maps a tool's error output to an error kind, or nil when the
// output matches no known failure.
func Classify(output string) error {
	if output == "" {
		return nil
	}
	for _, c := range classifiers {
		if c.pattern.MatchString(output) {
			return c.kind
		}
	}
	return nil
}

var (
	breaksDepPattern = regexp.MustCompile(`:: installing (\S+) .* breaks dependency .* required by (\S+)`)
	conflictPattern  = regexp.MustCompile(`:: (\S+) and (\S+) are in conflict`)
)

// ConflictingPackages extracts the package names pacman reports in a
// dependency conflict, in order of first appearance.
func ConflictingPackages(output string) []string {
	seen := make(map[string]bool)
	var packages []string

	for _, re := range []*regexp.Regexp{breaksDepPattern, conflictPattern} {
		for _, m := range re.FindAllStringSubmatch(output, -1) {
			for _, name := range m[1:] {
				if !seen[name] {
					packages = append(packages, name)
					seen[name] = true
				}
			}
		}
	}

	return packages
}
