// Package types provides core data types for the reclaim file-maintenance
// engine. It includes records produced by directory scans, duplicate group
// structures, and utility functions for parsing and formatting file sizes.
package types

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
	TiB int64 = 1024 * GiB
)

// FileRecord describes one regular file observed during a scan pass.
// Records are ephemeral: they live for the duration of a single scan
// invocation and are never persisted.
type FileRecord struct {
	// Path is the absolute path to the file.
	Path string `json:"path"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// ModTime is the last modification time of the file.
	ModTime time.Time `json:"mod_time"`

	// Digest is the content digest, computed lazily. Empty until the
	// file has been hashed.
	Digest string `json:"digest,omitempty"`
}

// HumanSize returns the file size formatted as a human-readable string.
func (f *FileRecord) HumanSize() string {
	return FormatSize(f.Size)
}

// DuplicateGroup is a set of files sharing one content digest. Every
// member has identical size and digest, and a group always has at least
// two members. The member at KeepIndex is the canonical keep; all others
// are removal candidates.
type DuplicateGroup struct {
	// Digest is the content digest shared by every member.
	Digest string `json:"digest"`

	// Size is the byte size of each member (identical across the group).
	Size int64 `json:"size"`

	// Files are the group members, in the order the detector emitted them.
	Files []FileRecord `json:"files"`

	// KeepIndex is the index into Files of the canonical keep.
	KeepIndex int `json:"keep_index"`
}

// Keep returns the canonical-keep member of the group.
func (g *DuplicateGroup) Keep() FileRecord {
	return g.Files[g.KeepIndex]
}

// RemovalCandidates returns every member except the canonical keep.
func (g *DuplicateGroup) RemovalCandidates() []FileRecord {
	out := make([]FileRecord, 0, len(g.Files)-1)
	for i, f := range g.Files {
		if i != g.KeepIndex {
			out = append(out, f)
		}
	}
	return out
}

// ReclaimableSize returns the bytes freed by removing every non-kept
// member of the group.
func (g *DuplicateGroup) ReclaimableSize() int64 {
	return g.Size * int64(len(g.Files)-1)
}

// ScanError represents an error encountered during scanning or hashing.
// It pairs a file path with the error message for reporting; per-path
// errors never abort a scan.
type ScanError struct {
	// Path is the file or directory path where the error occurred.
	Path string `json:"path"`

	// Error is the error message describing what went wrong.
	Error string `json:"error"`
}

// sizePattern matches size strings like "100M", "2G", "500K", "1.5GB", etc.
var sizePattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([KMGT]?(?:i?B)?)\s*$`)

// ErrInvalidSize indicates that the size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ErrNegativeSize indicates that a negative size value was provided.
var ErrNegativeSize = errors.New("size cannot be negative")

// ParseSize parses a human-readable size string and returns the size in bytes.
// It supports the following formats:
//   - Plain bytes: "1024", "0"
//   - With byte suffix: "512B", "512b"
//   - Kilobytes: "100K", "100k", "100KB", "100KiB"
//   - Megabytes: "50M", "50m", "50MB", "50MiB"
//   - Gigabytes: "2G", "2g", "2GB", "2GiB"
//   - Terabytes: "1T", "1t", "1TB", "1TiB"
//
// Decimal values are supported and truncated to the nearest byte.
// Leading and trailing whitespace is ignored.
//
// Returns ErrInvalidSize if the format is not recognized.
// Returns ErrNegativeSize if the value is negative.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}

	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeSize
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	suffix := strings.ToUpper(matches[2])
	suffix = strings.TrimSuffix(suffix, "IB")
	suffix = strings.TrimSuffix(suffix, "B")

	var multiplier int64
	switch suffix {
	case "":
		multiplier = 1
	case "K":
		multiplier = KiB
	case "M":
		multiplier = MiB
	case "G":
		multiplier = GiB
	case "T":
		multiplier = TiB
	default:
		return 0, fmt.Errorf("%w: unknown suffix %q", ErrInvalidSize, suffix)
	}

	return int64(value * float64(multiplier)), nil
}

// FormatSize converts a size in bytes to a human-readable string.
// It uses binary (IEC) units (KiB, MiB, GiB, TiB) for consistency
// with common filesystem tools.
func FormatSize(bytes int64) string {
	return humanize.IBytes(uint64(bytes))
}
