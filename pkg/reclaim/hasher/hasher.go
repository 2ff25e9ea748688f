// Package hasher computes content digests for files. The digest is the
// common primitive shared by duplicate detection and archive addressing:
// identical bytes always produce identical digests, and any byte
// difference produces a different digest with overwhelming probability.
//
// Hashing is streamed, so memory use is independent of file size.
package hasher

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// DigestLen is the length in hex characters of a content digest.
const DigestLen = 64

// PathError is an I/O failure attributable to a specific path. It wraps
// the underlying error so callers can use errors.Is and errors.As.
type PathError struct {
	Op   string
	Path string
	Err  error
}

// Error returns the formatted error message.
func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *PathError) Unwrap() error {
	return e.Err
}

// HashFile computes the BLAKE3 digest of the file at path, returned as a
// lowercase hex string. The file is streamed through the hasher in fixed
// buffers. An unreadable file yields a *PathError naming that path; it
// carries no state that could affect hashing of other files.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &PathError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	return Hash(f, path)
}

// Hash computes the BLAKE3 digest of everything readable from r. The
// path is used only for error attribution.
func Hash(r io.Reader, path string) (string, error) {
	h := blake3.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", &PathError{Op: "read", Path: path, Err: err}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes computes the BLAKE3 digest of b. Intended for tests and
// small in-memory values; file content should go through HashFile.
func HashBytes(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}
