// Package recovery implements the write-ahead archival store that guards
// every destructive operation in reclaim. Files are copied into a
// checksum-verified, content-addressed archive and recorded in a durable
// manifest before any original is deleted, so a deletion is always
// reversible until its retention deadline passes.
//
// Store layout under the recovery root:
//
//	manifests/<id>.json   one manifest per run
//	archive/<id>/<category>/<digest[:2]>/<digest>
//	index.json            lightweight catalog of all manifests
//	index.lock            cross-process writer lock
package recovery

import "time"

// Item records one file staged into the archive. Items are immutable
// after staging except for the terminal RestoredAt marker.
type Item struct {
	// OriginalPath is the absolute path the file was archived from.
	OriginalPath string `json:"original_path"`

	// ArchivePath is the content-addressed location of the archived
	// copy, relative to the recovery root.
	ArchivePath string `json:"archive_path"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// Checksum is the content digest used for verification.
	Checksum string `json:"checksum"`

	// Category labels the cleanup class (cache, build, duplicate, ...).
	Category string `json:"category"`

	// Source is a free-text tag describing what produced the candidate.
	Source string `json:"source"`

	// CanRegenerate marks data that is trivially regenerable.
	CanRegenerate bool `json:"can_regenerate"`

	// RestoredAt is set when the item has been restored.
	RestoredAt *time.Time `json:"restored_at,omitempty"`
}

// Manifest is the durable record of one archive batch. It is written
// atomically at the end of a successful staging pass, before any
// original file is removed.
type Manifest struct {
	// ID identifies the run, derived from its start time plus a
	// collision-resistant suffix.
	ID string `json:"id"`

	// Timestamp is when the batch was staged.
	Timestamp time.Time `json:"timestamp"`

	// TotalSize is the combined size of all items in bytes.
	TotalSize int64 `json:"total_size"`

	// Items are the staged files, in staging order.
	Items []Item `json:"items"`

	// RetentionUntil is the deadline after which an explicit purge may
	// remove this manifest and its archive bytes.
	RetentionUntil time.Time `json:"retention_until"`
}

// Restored reports whether every item in the manifest has been restored.
// A fully restored manifest is eligible for purge before its retention
// deadline.
func (m *Manifest) Restored() bool {
	if len(m.Items) == 0 {
		return false
	}
	for i := range m.Items {
		if m.Items[i].RestoredAt == nil {
			return false
		}
	}
	return true
}

// IndexEntry is the lightweight summary of one manifest kept in the
// index, enabling listing without loading manifest bodies.
type IndexEntry struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	TotalSize      int64     `json:"total_size"`
	Items          int       `json:"items"`
	RetentionUntil time.Time `json:"retention_until"`
	Restored       bool      `json:"restored,omitempty"`
}

// Index is the process-wide catalog of manifests. It follows a strict
// load, mutate, persist lifecycle with no background writes.
type Index struct {
	Recoveries []IndexEntry `json:"recoveries"`
}

// ItemFailure reports a per-item failure that did not invalidate the
// batch, such as an unlink that failed after the manifest was committed.
type ItemFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// RestoreResult reports the outcome of restoring a single item.
type RestoreResult struct {
	// OriginalPath is the path the item was archived from.
	OriginalPath string `json:"original_path"`

	// RestoredPath is where the bytes were written. It differs from
	// OriginalPath when a conflict forced an alternate path.
	RestoredPath string `json:"restored_path,omitempty"`

	// Conflict is true when the original path was occupied by different
	// content and the item was written to the alternate path.
	Conflict bool `json:"conflict,omitempty"`

	// Error is set when this item could not be restored.
	Error string `json:"error,omitempty"`
}
