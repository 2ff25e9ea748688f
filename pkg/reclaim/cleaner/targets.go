// Package cleaner decides which files are candidates for removal and
// drives the recovery manager as the only path to deletion. It never
// touches archive state itself.
package cleaner

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Target identifies a cleanup class. The set is closed: cleanup
// categories are known and finite, so targets are tagged variants with
// a uniform locate-candidates capability rather than open-ended
// dispatch.
type Target string

// Supported cleanup targets.
const (
	// TargetDuplicates removes duplicate-group removal candidates.
	// Candidates come from a duplicate detection pass, not from a
	// well-known path set.
	TargetDuplicates Target = "duplicates"

	// TargetCache removes user-level application caches.
	TargetCache Target = "cache"

	// TargetBuild removes build artifacts from well-known tool caches.
	TargetBuild Target = "build"

	// TargetTemp removes temporary files.
	TargetTemp Target = "temp"

	// TargetLogs removes rotated log files.
	TargetLogs Target = "logs"
)

// Targets lists every supported target in display order.
func Targets() []Target {
	return []Target{TargetDuplicates, TargetCache, TargetBuild, TargetTemp, TargetLogs}
}

// ParseTarget parses a target name.
func ParseTarget(s string) (Target, error) {
	t := Target(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Targets() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown cleanup target %q (valid: %s)", s, joinTargets())
}

// Paths returns the well-known locations for a category target,
// expanded and filtered to those that exist. TargetDuplicates has no
// path set; its candidates come from a detection pass.
func (t Target) Paths() []string {
	var raw []string
	switch t {
	case TargetCache:
		if runtime.GOOS == "darwin" {
			raw = []string{"~/Library/Caches"}
		} else {
			raw = []string{"~/.cache"}
		}
	case TargetBuild:
		raw = []string{
			"~/.cache/go-build",
			"~/.cargo/registry/cache",
			"~/.gradle/caches",
			"~/.npm/_cacache",
		}
	case TargetTemp:
		raw = []string{os.TempDir(), "/var/tmp"}
	case TargetLogs:
		if runtime.GOOS == "darwin" {
			raw = []string{"~/Library/Logs"}
		} else {
			raw = []string{"~/.local/state"}
		}
	case TargetDuplicates:
		return nil
	}

	var paths []string
	for _, p := range raw {
		expanded, err := expandHome(p)
		if err != nil {
			continue
		}
		if info, err := os.Stat(expanded); err == nil && info.IsDir() {
			paths = append(paths, expanded)
		}
	}
	return paths
}

// expandHome expands a leading ~ to the user's home directory.
func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func joinTargets() string {
	names := make([]string, 0, len(Targets()))
	for _, t := range Targets() {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}
