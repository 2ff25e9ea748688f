package recovery

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that no manifest exists for the requested ID.
var ErrNotFound = errors.New("recovery not found")

// ErrInsufficientSpace indicates that the recovery store lacks capacity
// for the staging batch. It is returned before anything is copied or
// deleted.
var ErrInsufficientSpace = errors.New("insufficient space in recovery store")

// ErrNoCandidates indicates that a staging batch was requested with an
// empty candidate list.
var ErrNoCandidates = errors.New("no candidates to stage")

// ChecksumError indicates that an archived copy did not match its
// source. It aborts the entire staging batch.
type ChecksumError struct {
	Path string
	Want string
	Got  string
}

// Error returns the formatted error message.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: want %s, got %s", e.Path, e.Want, e.Got)
}

// ManifestCorruptError indicates that a durable manifest failed to
// parse. It is surfaced to the caller but does not block access to
// other manifests.
type ManifestCorruptError struct {
	ID  string
	Err error
}

// Error returns the formatted error message.
func (e *ManifestCorruptError) Error() string {
	return fmt.Sprintf("manifest %s is corrupt: %v", e.ID, e.Err)
}

// Unwrap returns the underlying parse error.
func (e *ManifestCorruptError) Unwrap() error {
	return e.Err
}
