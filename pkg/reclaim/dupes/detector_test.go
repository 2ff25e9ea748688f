package dupes

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func detect(t *testing.T, opts Options) *Result {
	t.Helper()
	result, err := New(opts).Detect(context.Background())
	require.NoError(t, err)
	return result
}

func TestDetectIdenticalContent(t *testing.T) {
	dir := t.TempDir()

	// a.txt and b.txt share 100 bytes of content; c.txt has the same
	// size but different bytes, so size bucketing alone must not group it.
	content := make([]byte, 100)
	for i := range content {
		content[i] = byte(i)
	}
	other := make([]byte, 100)
	for i := range other {
		other[i] = byte(100 - i)
	}

	a := writeFile(t, dir, "a.txt", content)
	b := writeFile(t, dir, "b.txt", content)
	writeFile(t, dir, "c.txt", other)

	result := detect(t, Options{Root: dir})

	require.Len(t, result.Groups, 1)
	group := result.Groups[0]
	assert.Equal(t, int64(100), group.Size)
	require.Len(t, group.Files, 2)
	assert.Equal(t, a, group.Files[0].Path)
	assert.Equal(t, b, group.Files[1].Path)
	assert.Equal(t, int64(100), group.ReclaimableSize())
	assert.Equal(t, int64(100), result.ReclaimableSize)
}

func TestDetectNoDuplicates(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "one.txt", []byte("content one"))
	writeFile(t, dir, "two.txt", []byte("content two!"))
	writeFile(t, dir, "three.txt", []byte("third"))

	result := detect(t, Options{Root: dir})

	assert.Empty(t, result.Groups)
	assert.Equal(t, int64(0), result.ReclaimableSize)
	// All sizes are unique, so nothing should have been hashed.
	assert.Equal(t, int64(0), result.FilesHashed)
}

func TestDetectMultipleGroupsOrdered(t *testing.T) {
	dir := t.TempDir()

	small := []byte("small duplicate content")
	large := make([]byte, 4096)

	writeFile(t, dir, "s1.txt", small)
	writeFile(t, dir, "s2.txt", small)
	writeFile(t, dir, "l1.bin", large)
	writeFile(t, dir, "l2.bin", large)
	writeFile(t, dir, "l3.bin", large)

	result := detect(t, Options{Root: dir})

	require.Len(t, result.Groups, 2)
	// Groups come back ordered by descending reclaimable size: the
	// large group frees 2*4096, the small one len(small).
	assert.Equal(t, int64(8192), result.Groups[0].ReclaimableSize())
	assert.Len(t, result.Groups[0].Files, 3)
	assert.Equal(t, int64(len(small)), result.Groups[1].ReclaimableSize())
}

func TestDetectMinSizeFilter(t *testing.T) {
	dir := t.TempDir()

	big := make([]byte, 2048)
	writeFile(t, dir, "big1.bin", big)
	writeFile(t, dir, "big2.bin", big)
	writeFile(t, dir, "tiny1.txt", []byte("tiny"))
	writeFile(t, dir, "tiny2.txt", []byte("tiny"))

	result := detect(t, Options{Root: dir, MinSize: 1024})

	require.Len(t, result.Groups, 1)
	assert.Equal(t, int64(2048), result.Groups[0].Size)
}

func TestCanonicalKeepOldestWins(t *testing.T) {
	dir := t.TempDir()

	content := []byte("identical bytes in all three files")
	old := writeFile(t, dir, "z_oldest.txt", content)
	writeFile(t, dir, "a_newer.txt", content)
	writeFile(t, dir, "m_newest.txt", content)

	base := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, base, base))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "a_newer.txt"), base.Add(time.Hour), base.Add(time.Hour)))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "m_newest.txt"), base.Add(2*time.Hour), base.Add(2*time.Hour)))

	result := detect(t, Options{Root: dir})

	require.Len(t, result.Groups, 1)
	group := result.Groups[0]
	assert.Equal(t, old, group.Keep().Path, "earliest mtime must be kept despite sorting last by path")

	candidates := group.RemovalCandidates()
	require.Len(t, candidates, 2)
	for _, c := range candidates {
		assert.NotEqual(t, old, c.Path)
	}
}

func TestCanonicalKeepTieBrokenByPath(t *testing.T) {
	dir := t.TempDir()

	content := []byte("same content, same mtime")
	a := writeFile(t, dir, "aaa.txt", content)
	b := writeFile(t, dir, "bbb.txt", content)

	mtime := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(a, mtime, mtime))
	require.NoError(t, os.Chtimes(b, mtime, mtime))

	result := detect(t, Options{Root: dir})

	require.Len(t, result.Groups, 1)
	assert.Equal(t, a, result.Groups[0].Keep().Path, "lexicographically smallest path wins ties")
}

func TestDetectIdempotent(t *testing.T) {
	dir := t.TempDir()

	content := []byte("repeated runs must agree")
	writeFile(t, dir, "x/one.txt", content)
	writeFile(t, dir, "y/two.txt", content)
	writeFile(t, dir, "z/three.txt", []byte("unrelated content here"))
	writeFile(t, dir, "z/four.txt", []byte("unrelated content here"))

	first := detect(t, Options{Root: dir})
	second := detect(t, Options{Root: dir})

	require.Equal(t, len(first.Groups), len(second.Groups))
	for i := range first.Groups {
		assert.Equal(t, first.Groups[i].Digest, second.Groups[i].Digest)
		assert.Equal(t, first.Groups[i].Keep().Path, second.Groups[i].Keep().Path)
		assert.Equal(t, first.Groups[i].Files, second.Groups[i].Files)
	}
}

func TestDetectorReusable(t *testing.T) {
	dir := t.TempDir()

	content := []byte("reused detector sees the tree fresh")
	writeFile(t, dir, "a.txt", content)
	writeFile(t, dir, "b.txt", content)

	d := New(Options{Root: dir})

	first, err := d.Detect(context.Background())
	require.NoError(t, err)
	second, err := d.Detect(context.Background())
	require.NoError(t, err)

	// A second pass over an unchanged tree must not accumulate state
	// from the first.
	assert.Equal(t, first.FilesScanned, second.FilesScanned)
	assert.Equal(t, first.TotalSize, second.TotalSize)
	assert.Equal(t, first.ReclaimableSize, second.ReclaimableSize)
	require.Len(t, second.Groups, 1)
	assert.Len(t, second.Groups[0].Files, 2)
	assert.Empty(t, second.Errors)
}

func TestDetectSkipsSymlinks(t *testing.T) {
	dir := t.TempDir()

	content := []byte("linked content should count once")
	target := writeFile(t, dir, "real.txt", content)
	require.NoError(t, os.Symlink(target, filepath.Join(dir, "link.txt")))

	result := detect(t, Options{Root: dir})

	// The symlink must not pair with its target.
	assert.Empty(t, result.Groups)
}

func TestDetectExclusions(t *testing.T) {
	dir := t.TempDir()

	content := []byte("duplicate across included and excluded dirs")
	writeFile(t, dir, "keep/a.txt", content)
	writeFile(t, dir, "keep/b.txt", content)
	writeFile(t, dir, "skip/c.txt", content)

	result := detect(t, Options{
		Root:    dir,
		Exclude: []string{filepath.Join(dir, "skip")},
	})

	require.Len(t, result.Groups, 1)
	assert.Len(t, result.Groups[0].Files, 2)
}

func TestDetectCollectsPerPathErrors(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	dir := t.TempDir()

	content := make([]byte, 256)
	writeFile(t, dir, "ok1.bin", content)
	writeFile(t, dir, "ok2.bin", content)
	locked := writeFile(t, dir, "locked.bin", content)
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o644) })

	result := detect(t, Options{Root: dir})

	// The unreadable file fails to hash but the others still group.
	require.Len(t, result.Groups, 1)
	assert.Len(t, result.Groups[0].Files, 2)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, locked, result.Errors[0].Path)
}

func TestDetectCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", []byte("content"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{Root: dir}).Detect(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetectRootNotDirectory(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "f.txt", []byte("x"))

	_, err := New(Options{Root: file}).Detect(context.Background())
	require.Error(t, err)
}
