// Package dupes finds files with identical content. Detection runs in
// two stages: files are bucketed by exact byte size, then only buckets
// with two or more members are content-hashed. Singleton buckets can
// never contain a duplicate, so the dominant cost (hashing) is skipped
// for unique files.
package dupes

import (
	"runtime"

	"github.com/jamesainslie/reclaim/pkg/reclaim/types"
)

// Options configures a duplicate detection pass.
type Options struct {
	// Root is the directory subtree to scan.
	Root string

	// MinSize is the minimum file size in bytes to consider.
	// Files smaller than this are ignored.
	MinSize int64

	// Exclude contains glob patterns for paths to skip during scanning.
	Exclude []string

	// HashWorkers bounds the number of concurrent hashing goroutines.
	// Zero means one worker per CPU core.
	HashWorkers int

	// OnProgress is called periodically with detection progress updates.
	// It must be safe to call from multiple goroutines.
	OnProgress func(Progress)
}

// Progress reports real-time detection progress.
type Progress struct {
	// FilesScanned is the number of regular files examined so far.
	FilesScanned int64 `json:"files_scanned"`

	// FilesHashed is the number of files content-hashed so far.
	FilesHashed int64 `json:"files_hashed"`

	// CurrentPath is the path currently being processed.
	CurrentPath string `json:"current_path"`
}

// Result contains the outcome of a duplicate detection pass.
type Result struct {
	// Groups are the detected duplicate groups, ordered by descending
	// reclaimable size so the highest-value opportunities come first.
	Groups []types.DuplicateGroup `json:"groups"`

	// FilesScanned is the total number of regular files examined.
	FilesScanned int64 `json:"files_scanned"`

	// FilesHashed is the number of files that required content hashing.
	FilesHashed int64 `json:"files_hashed"`

	// TotalSize is the combined size of all scanned files in bytes.
	TotalSize int64 `json:"total_size"`

	// ReclaimableSize is the combined size of all removal candidates.
	ReclaimableSize int64 `json:"reclaimable_size"`

	// Errors contains per-path errors collected during the pass.
	// They never abort the scan.
	Errors []types.ScanError `json:"errors,omitempty"`
}

// Validate applies defaults for unset or invalid option values.
func (o *Options) Validate() {
	if o.Root == "" {
		o.Root = "."
	}
	if o.HashWorkers < 1 {
		o.HashWorkers = runtime.NumCPU()
	}
}
