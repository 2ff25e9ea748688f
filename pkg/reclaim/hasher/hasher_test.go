package hasher

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestHashFileDeterministic(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	content := []byte("the same bytes every time")
	a := writeFile(t, dir, "a.bin", content)
	b := writeFile(t, dir, "b.bin", content)

	hashA, err := HashFile(a)
	if err != nil {
		t.Fatalf("HashFile(a) error = %v", err)
	}
	hashB, err := HashFile(b)
	if err != nil {
		t.Fatalf("HashFile(b) error = %v", err)
	}

	if hashA != hashB {
		t.Errorf("identical content produced different digests: %s vs %s", hashA, hashB)
	}
	if len(hashA) != DigestLen {
		t.Errorf("digest length = %d, want %d", len(hashA), DigestLen)
	}
}

func TestHashFilePerturbations(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	base := bytes.Repeat([]byte{0x42}, 4096)
	basePath := writeFile(t, dir, "base.bin", base)
	baseHash, err := HashFile(basePath)
	if err != nil {
		t.Fatalf("HashFile(base) error = %v", err)
	}

	// Flip one byte at several positions; every perturbation must
	// change the digest.
	for _, pos := range []int{0, 1, 2047, 4094, 4095} {
		mutated := bytes.Clone(base)
		mutated[pos] ^= 0x01

		path := writeFile(t, dir, "mutated.bin", mutated)
		hash, err := HashFile(path)
		if err != nil {
			t.Fatalf("HashFile(mutated@%d) error = %v", pos, err)
		}
		if hash == baseHash {
			t.Errorf("flipping byte %d did not change the digest", pos)
		}
	}

	// Truncation changes the digest too.
	truncated := writeFile(t, dir, "short.bin", base[:4095])
	hash, err := HashFile(truncated)
	if err != nil {
		t.Fatalf("HashFile(short) error = %v", err)
	}
	if hash == baseHash {
		t.Error("truncated content yielded the same digest")
	}
}

func TestHashFileMissing(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "does-not-exist")
	_, err := HashFile(missing)
	if err == nil {
		t.Fatal("HashFile() error = nil, want error for missing file")
	}

	var pathErr *PathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("error type = %T, want *PathError", err)
	}
	if pathErr.Path != missing {
		t.Errorf("PathError.Path = %q, want %q", pathErr.Path, missing)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("PathError does not unwrap to os.ErrNotExist")
	}
}

func TestHashBytesMatchesHashFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	content := []byte("stream and in-memory hashing must agree")
	path := writeFile(t, dir, "f.bin", content)

	fromFile, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile() error = %v", err)
	}
	if fromBytes := HashBytes(content); fromBytes != fromFile {
		t.Errorf("HashBytes = %s, HashFile = %s", fromBytes, fromFile)
	}
}

func TestHashEmptyFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	a := writeFile(t, dir, "empty1", nil)
	b := writeFile(t, dir, "empty2", nil)

	hashA, err := HashFile(a)
	if err != nil {
		t.Fatalf("HashFile(empty) error = %v", err)
	}
	hashB, _ := HashFile(b)
	if hashA != hashB {
		t.Error("empty files produced different digests")
	}
}
