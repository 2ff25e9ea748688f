package recovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v4/disk"
	"golang.org/x/sync/errgroup"

	"github.com/jamesainslie/reclaim/pkg/reclaim/hasher"
	"github.com/jamesainslie/reclaim/pkg/reclaim/logging"
	"github.com/jamesainslie/reclaim/pkg/reclaim/types"
)

var logger = logging.Get("recovery")

const (
	manifestDir = "manifests"
	archiveDir  = "archive"
	lockFile    = "index.lock"

	// copyRetries bounds retry attempts for transient archive write
	// failures. A copy that still fails after this many attempts fails
	// the whole batch.
	copyRetries = 3

	// restoredSuffix is appended to the restore destination when the
	// original path is occupied by different content.
	restoredSuffix = ".restored"
)

// Manager owns the recovery store: the archive bytes, every manifest,
// and the index. Other components hand it candidate lists; they never
// write archive state directly.
//
// All index and manifest mutations go through one exclusive-writer path
// per run. Concurrent runs use distinct run identifiers and disjoint
// archive namespaces, so they may proceed independently.
type Manager struct {
	root string
	lock *flock.Flock
	mu   sync.Mutex

	// usage reports filesystem capacity for the store root. Overridable
	// in tests to simulate a full disk.
	usage func(path string) (*disk.UsageStat, error)
}

// DefaultRoot returns the default recovery store location under the XDG
// data directory.
func DefaultRoot() string {
	return filepath.Join(xdg.DataHome, "reclaim", "recovery")
}

// NewManager opens (creating if necessary) the recovery store at root.
func NewManager(root string) (*Manager, error) {
	if root == "" {
		return nil, errors.New("recovery root cannot be empty")
	}

	for _, dir := range []string{
		root,
		filepath.Join(root, manifestDir),
		filepath.Join(root, archiveDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating recovery store: %w", err)
		}
	}

	return &Manager{
		root:  root,
		lock:  flock.New(filepath.Join(root, lockFile)),
		usage: disk.Usage,
	}, nil
}

// Root returns the recovery store root directory.
func (m *Manager) Root() string {
	return m.root
}

// StageAndDelete archives every candidate into the store, writes one
// durable manifest, and only then unlinks the originals.
//
// Staging is all-or-nothing: any failure while copying or verifying
// aborts the whole batch, removes already-archived segments, and leaves
// no manifest behind. Once the manifest is durably visible, per-item
// unlink failures are reported in the returned failure list but do not
// invalidate the recovery record, since the archive copy is itself a
// safe outcome.
//
// A batch in progress cannot be cancelled; it completes or fails
// atomically.
func (m *Manager) StageAndDelete(candidates []types.FileRecord, category, source string, retention time.Duration) (*Manifest, []ItemFailure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(candidates) == 0 {
		return nil, nil, ErrNoCandidates
	}

	id := newRunID()
	now := time.Now().UTC()

	var totalSize int64
	for i := range candidates {
		totalSize += candidates[i].Size
	}

	if err := m.checkSpace(totalSize); err != nil {
		return nil, nil, err
	}

	logger.Info("staging batch", "manifest", id, "category", category,
		"files", len(candidates), "size", types.FormatSize(totalSize))

	items, err := m.stage(id, category, source, candidates)
	if err != nil {
		// All-or-nothing: drop whatever this batch already archived.
		_ = os.RemoveAll(filepath.Join(m.root, archiveDir, id))
		return nil, nil, err
	}

	manifest := &Manifest{
		ID:             id,
		Timestamp:      now,
		TotalSize:      totalSize,
		Items:          items,
		RetentionUntil: now.Add(retention),
	}

	// Write-ahead invariant: the manifest and index must be durably
	// visible before any original is removed.
	if err := m.persistManifest(manifest); err != nil {
		_ = os.RemoveAll(filepath.Join(m.root, archiveDir, id))
		return nil, nil, err
	}
	if err := m.mutateIndex(func(idx *Index) error {
		idx.Recoveries = append(idx.Recoveries, IndexEntry{
			ID:             manifest.ID,
			Timestamp:      manifest.Timestamp,
			TotalSize:      manifest.TotalSize,
			Items:          len(manifest.Items),
			RetentionUntil: manifest.RetentionUntil,
		})
		return nil
	}); err != nil {
		_ = os.Remove(m.manifestPath(id))
		_ = os.RemoveAll(filepath.Join(m.root, archiveDir, id))
		return nil, nil, err
	}

	failures := m.unlinkOriginals(manifest)

	logger.Info("batch committed", "manifest", id,
		"items", len(manifest.Items), "unlink_failures", len(failures))

	return manifest, failures, nil
}

// stage copies every candidate into its content-addressed archive
// location and verifies the copy by re-reading it. Copies run in
// parallel across independent files; the first failure aborts the rest.
// Candidates with identical content share one destination, so writes
// are serialized per archive path and the object is copied only once.
func (m *Manager) stage(id, category, source string, candidates []types.FileRecord) ([]Item, error) {
	items := make([]Item, len(candidates))

	var destMu sync.Mutex
	destLocks := make(map[string]*sync.Mutex)
	lockFor := func(path string) *sync.Mutex {
		destMu.Lock()
		defer destMu.Unlock()
		l, ok := destLocks[path]
		if !ok {
			l = &sync.Mutex{}
			destLocks[path] = l
		}
		return l
	}

	// Cancellation of the caller's context is deliberately not honored
	// here: a staging batch completes or fails atomically.
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.NumCPU())

	for i, cand := range candidates {
		i, cand := i, cand
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			checksum, err := hasher.HashFile(cand.Path)
			if err != nil {
				return err
			}

			relPath := filepath.Join(archiveDir, id, category, checksum[:2], checksum)
			absPath := filepath.Join(m.root, relPath)

			lock := lockFor(absPath)
			lock.Lock()
			err = m.stageObject(cand.Path, absPath, checksum)
			lock.Unlock()
			if err != nil {
				return err
			}

			items[i] = Item{
				OriginalPath:  cand.Path,
				ArchivePath:   relPath,
				Size:          cand.Size,
				Checksum:      checksum,
				Category:      category,
				Source:        source,
				CanRegenerate: regenerable(category),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// stageObject archives one content object. An object already present
// and verifying at the destination is reused without copying; otherwise
// the source is copied and the copy re-read. A mismatch after copying
// means the archive cannot honor the write-ahead guarantee.
func (m *Manager) stageObject(src, dst, checksum string) error {
	if got, err := hasher.HashFile(dst); err == nil && got == checksum {
		return nil
	}
	if err := copyFileRetry(src, dst); err != nil {
		return err
	}
	archived, err := hasher.HashFile(dst)
	if err != nil {
		return err
	}
	if archived != checksum {
		return &ChecksumError{Path: src, Want: checksum, Got: archived}
	}
	return nil
}

// unlinkOriginals removes the source files of a committed manifest.
// Failures are collected per item.
func (m *Manager) unlinkOriginals(manifest *Manifest) []ItemFailure {
	var failures []ItemFailure
	for i := range manifest.Items {
		path := manifest.Items[i].OriginalPath
		if err := os.Remove(path); err != nil {
			logger.Warn("unlink failed", "path", path, "error", err)
			failures = append(failures, ItemFailure{Path: path, Error: err.Error()})
		}
	}
	return failures
}

// Restore copies every item of the manifest back to its original path.
// Archived checksums are verified before copying. If an original path
// is now occupied by different content, the item is written to a
// conflict-suffixed alternate path instead of overwriting. Each
// successfully restored item is marked in the manifest; a manifest with
// all items restored becomes eligible for early purge.
func (m *Manager) Restore(id string) ([]RestoreResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	manifest, err := m.Load(id)
	if err != nil {
		return nil, err
	}

	results := make([]RestoreResult, len(manifest.Items))
	now := time.Now().UTC()
	restored := 0

	for i := range manifest.Items {
		item := &manifest.Items[i]
		results[i] = m.restoreItem(item, now)
		if results[i].Error == "" {
			restored++
		}
	}

	if err := m.persistManifest(manifest); err != nil {
		return results, err
	}
	if err := m.mutateIndex(func(idx *Index) error {
		if e := idx.entry(id); e != nil {
			e.Restored = manifest.Restored()
		}
		return nil
	}); err != nil {
		return results, err
	}

	logger.Info("restore complete", "manifest", id,
		"restored", restored, "items", len(manifest.Items))

	return results, nil
}

// restoreItem restores one item and returns its result. Failures are
// per-item and never abort the rest of the restore.
func (m *Manager) restoreItem(item *Item, now time.Time) RestoreResult {
	result := RestoreResult{OriginalPath: item.OriginalPath}

	archivePath := filepath.Join(m.root, item.ArchivePath)
	archived, err := hasher.HashFile(archivePath)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if archived != item.Checksum {
		result.Error = (&ChecksumError{Path: archivePath, Want: item.Checksum, Got: archived}).Error()
		return result
	}

	dest := item.OriginalPath
	if existing, err := hasher.HashFile(dest); err == nil {
		if existing == item.Checksum {
			// Identical content already in place; nothing to copy.
			item.RestoredAt = &now
			result.RestoredPath = dest
			return result
		}
		dest = conflictPath(dest)
		result.Conflict = true
	}

	if err := copyFileRetry(archivePath, dest); err != nil {
		result.Error = err.Error()
		return result
	}

	item.RestoredAt = &now
	result.RestoredPath = dest
	return result
}

// Load reads the full manifest for id. A missing manifest yields
// ErrNotFound; a manifest that fails to parse yields a
// *ManifestCorruptError.
func (m *Manager) Load(id string) (*Manifest, error) {
	data, err := os.ReadFile(m.manifestPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("reading manifest %s: %w", id, err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, &ManifestCorruptError{ID: id, Err: err}
	}
	return &manifest, nil
}

// List returns lightweight summaries of every recovery, newest first.
// It reads only the index, never manifest bodies.
func (m *Manager) List() ([]IndexEntry, error) {
	idx, err := m.loadIndex()
	if err != nil {
		return nil, err
	}
	idx.sortNewestFirst()
	return idx.Recoveries, nil
}

// PurgeExpired removes every manifest whose retention deadline has
// passed, along with its archive bytes and index entry. Manifests with
// all items restored are purged early. Purge is explicit: it is never
// invoked automatically, so data loss always requires a deliberate
// action.
func (m *Manager) PurgeExpired(now time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var purged []string
	err := m.mutateIndex(func(idx *Index) error {
		for _, e := range idx.Recoveries {
			if !e.RetentionUntil.Before(now) && !e.Restored {
				continue
			}
			if err := os.RemoveAll(filepath.Join(m.root, archiveDir, e.ID)); err != nil {
				return fmt.Errorf("removing archive for %s: %w", e.ID, err)
			}
			if err := os.Remove(m.manifestPath(e.ID)); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("removing manifest %s: %w", e.ID, err)
			}
			purged = append(purged, e.ID)
		}
		idx.remove(purged)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(purged) > 0 {
		logger.Info("purged recoveries", "count", len(purged))
	}
	return purged, nil
}

// persistManifest writes the manifest durably via temp-write and rename.
func (m *Manager) persistManifest(manifest *Manifest) error {
	return writeFileAtomic(m.manifestPath(manifest.ID), manifest)
}

// manifestPath returns the on-disk path of the manifest for id.
func (m *Manager) manifestPath(id string) string {
	return filepath.Join(m.root, manifestDir, id+".json")
}

// checkSpace verifies the store's filesystem has room for the batch
// before anything is copied.
func (m *Manager) checkSpace(needed int64) error {
	stat, err := m.usage(m.root)
	if err != nil {
		// Capacity probes are best effort; staging itself will surface
		// real write failures.
		logger.Warn("cannot probe store capacity", "error", err)
		return nil
	}
	if stat.Free < uint64(needed) {
		return fmt.Errorf("%w: need %s, have %s", ErrInsufficientSpace,
			types.FormatSize(needed), types.FormatSize(int64(stat.Free)))
	}
	return nil
}

// newRunID derives a run identifier from the start time plus a random
// suffix, so concurrent runs get disjoint archive namespaces.
func newRunID() string {
	ts := time.Now().UTC().Format("2006-01-02_15-04-05")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return ts + "-" + suffix
}

// conflictPath returns the alternate restore destination for an
// occupied original path.
func conflictPath(path string) string {
	return path + restoredSuffix
}

// regenerable reports whether a category's data is trivially
// regenerable by the tool that produced it.
func regenerable(category string) bool {
	switch category {
	case "cache", "build", "temp":
		return true
	default:
		return false
	}
}

// copyFileRetry copies src to dst, creating parent directories, with
// bounded retries for transient failures. It always copies, never
// moves.
func copyFileRetry(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating archive directory: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < copyRetries; attempt++ {
		if lastErr = copyFile(src, dst); lastErr == nil {
			return nil
		}
		logger.Debug("copy attempt failed", "src", src, "attempt", attempt+1, "error", lastErr)
	}
	return lastErr
}

// copyFile copies src to dst and syncs the destination.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return &hasher.PathError{Op: "open", Path: src, Err: err}
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return &hasher.PathError{Op: "create", Path: dst, Err: err}
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return &hasher.PathError{Op: "copy", Path: dst, Err: err}
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return &hasher.PathError{Op: "sync", Path: dst, Err: err}
	}
	return out.Close()
}
