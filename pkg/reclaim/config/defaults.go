// Package config provides configuration management for reclaim.
package config

// Default configuration values for reclaim.
const (
	// DefaultMinSize is the minimum file size considered by duplicate
	// detection. Small files rarely justify the hashing cost.
	DefaultMinSize = "1MB"

	// DefaultPath is the default path to scan when none is specified.
	DefaultPath = "."

	// DefaultRetentionDays is how long recovery manifests are retained
	// before becoming eligible for purge.
	DefaultRetentionDays = 30

	// DefaultHashWorkers is the hashing worker count. Zero means one
	// worker per CPU core.
	DefaultHashWorkers = 0
)

// DefaultExclusions contains paths excluded from scanning by default.
var DefaultExclusions = []string{
	"/proc",
	"/sys",
	"/dev",
}
