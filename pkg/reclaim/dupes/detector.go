package dupes

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
	"golang.org/x/sync/errgroup"

	"github.com/jamesainslie/reclaim/pkg/reclaim/hasher"
	"github.com/jamesainslie/reclaim/pkg/reclaim/logging"
	"github.com/jamesainslie/reclaim/pkg/reclaim/types"
)

var logger = logging.Get("dupes")

// Detector performs duplicate detection over a directory subtree.
// It only reads; detection has no side effects and is safe to cancel
// at any point.
type Detector struct {
	opts Options

	filesScanned atomic.Int64
	filesHashed  atomic.Int64
	bytesScanned atomic.Int64
	lastProgress atomic.Int64

	records   []types.FileRecord
	recordsMu sync.Mutex

	errs   []types.ScanError
	errsMu sync.Mutex
}

// New creates a Detector with the given options. Defaults are applied
// for unset values.
func New(opts Options) *Detector {
	opts.Validate()
	return &Detector{opts: opts}
}

// Detect scans the subtree rooted at Options.Root and returns the
// duplicate groups found. Per-path errors are collected in the result;
// only root validation failures and context cancellation abort the pass.
//
// Re-running Detect on an unchanged tree yields the identical set of
// groups with the same canonical-keep choices.
func (d *Detector) Detect(ctx context.Context) (*Result, error) {
	start := time.Now()
	d.reset()

	root, err := d.validateRoot()
	if err != nil {
		return nil, err
	}

	if err := d.collect(ctx, root); err != nil {
		return nil, err
	}

	buckets := d.bucketBySize()
	if err := d.hashBuckets(ctx, buckets); err != nil {
		return nil, err
	}

	groups := d.groupByDigest(buckets)

	result := &Result{
		Groups:       groups,
		FilesScanned: d.filesScanned.Load(),
		FilesHashed:  d.filesHashed.Load(),
		TotalSize:    d.bytesScanned.Load(),
		Errors:       d.errs,
	}
	for i := range groups {
		result.ReclaimableSize += groups[i].ReclaimableSize()
	}

	logger.Info("detection complete",
		"root", root,
		"files", result.FilesScanned,
		"hashed", result.FilesHashed,
		"groups", len(result.Groups),
		"reclaimable", types.FormatSize(result.ReclaimableSize),
		"elapsed", time.Since(start))

	return result, nil
}

// reset clears state accumulated by a previous pass, so one Detector
// can run Detect repeatedly without double counting.
func (d *Detector) reset() {
	d.filesScanned.Store(0)
	d.filesHashed.Store(0)
	d.bytesScanned.Store(0)
	d.lastProgress.Store(0)
	d.records = nil
	d.errs = nil
}

// validateRoot resolves the root path to absolute and verifies it is a
// directory.
func (d *Detector) validateRoot() (string, error) {
	root, err := filepath.Abs(d.opts.Root)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", &hasher.PathError{Op: "scan", Path: root, Err: os.ErrInvalid}
	}
	return root, nil
}

// collect traverses the subtree and records every regular file meeting
// the minimum-size filter. Symlinks are not followed, which prevents
// cycles and double counting.
func (d *Detector) collect(ctx context.Context, root string) error {
	conf := fastwalk.Config{
		Follow: false,
	}

	err := fastwalk.Walk(&conf, root, func(path string, entry fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			d.addError(path, err)
			return nil
		}

		if entry.IsDir() {
			if d.isExcluded(path) {
				return fastwalk.SkipDir
			}
			return nil
		}

		if !entry.Type().IsRegular() || d.isExcluded(path) {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			d.addError(path, err)
			return nil
		}

		size := info.Size()
		d.filesScanned.Add(1)
		d.bytesScanned.Add(size)
		d.reportProgress(path)

		if size < d.opts.MinSize {
			return nil
		}

		d.recordsMu.Lock()
		d.records = append(d.records, types.FileRecord{
			Path:    path,
			Size:    size,
			ModTime: info.ModTime(),
		})
		d.recordsMu.Unlock()
		return nil
	})

	if err != nil && !errors.Is(err, fastwalk.ErrSkipFiles) {
		return err
	}
	return nil
}

// bucketBySize partitions collected records by exact byte size and
// discards singleton buckets without hashing them.
func (d *Detector) bucketBySize() map[int64][]*types.FileRecord {
	buckets := make(map[int64][]*types.FileRecord)
	for i := range d.records {
		r := &d.records[i]
		buckets[r.Size] = append(buckets[r.Size], r)
	}
	for size, members := range buckets {
		if len(members) < 2 {
			delete(buckets, size)
		}
	}
	return buckets
}

// hashBuckets computes content digests for every member of every
// surviving bucket. Hashing is independent per file and runs on a
// bounded worker pool. Files that fail to hash keep an empty digest
// and are excluded from grouping; the failure is reported per path.
func (d *Detector) hashBuckets(ctx context.Context, buckets map[int64][]*types.FileRecord) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.HashWorkers)

	for _, members := range buckets {
		for _, rec := range members {
			rec := rec
			g.Go(func() error {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}

				digest, err := hasher.HashFile(rec.Path)
				if err != nil {
					d.addError(rec.Path, err)
					return nil
				}
				rec.Digest = digest
				d.filesHashed.Add(1)
				d.reportProgress(rec.Path)
				return nil
			})
		}
	}

	return g.Wait()
}

// groupByDigest sub-groups each size bucket by digest and emits every
// sub-group with at least two members as a DuplicateGroup.
func (d *Detector) groupByDigest(buckets map[int64][]*types.FileRecord) []types.DuplicateGroup {
	var groups []types.DuplicateGroup

	for size, members := range buckets {
		byDigest := make(map[string][]types.FileRecord)
		for _, rec := range members {
			if rec.Digest == "" {
				continue // hashing failed, reported already
			}
			byDigest[rec.Digest] = append(byDigest[rec.Digest], *rec)
		}

		for digest, files := range byDigest {
			if len(files) < 2 {
				continue
			}

			sort.Slice(files, func(i, j int) bool {
				return files[i].Path < files[j].Path
			})

			groups = append(groups, types.DuplicateGroup{
				Digest:    digest,
				Size:      size,
				Files:     files,
				KeepIndex: keepIndex(files),
			})
		}
	}

	// Highest-value cleanup opportunities surface first; digest breaks
	// ties so output order is reproducible.
	sort.Slice(groups, func(i, j int) bool {
		ri, rj := groups[i].ReclaimableSize(), groups[j].ReclaimableSize()
		if ri != rj {
			return ri > rj
		}
		return groups[i].Digest < groups[j].Digest
	})

	return groups
}

// keepIndex selects the canonical keep: the member with the earliest
// last-modified timestamp, ties broken by lexicographically smallest
// path. The files slice must already be sorted by path, so the first
// member with the earliest ModTime wins ties naturally.
func keepIndex(files []types.FileRecord) int {
	keep := 0
	for i := 1; i < len(files); i++ {
		if files[i].ModTime.Before(files[keep].ModTime) {
			keep = i
		}
	}
	return keep
}

// isExcluded checks if a path matches any exclusion pattern.
func (d *Detector) isExcluded(path string) bool {
	for _, pattern := range d.opts.Exclude {
		if pattern == "" {
			continue
		}

		if path == pattern {
			return true
		}
		if len(path) > len(pattern) && path[:len(pattern)+1] == pattern+string(filepath.Separator) {
			return true
		}

		if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
		if matched, err := filepath.Match(pattern, path); err == nil && matched {
			return true
		}
	}
	return false
}

// addError adds an error to the error list thread-safely.
func (d *Detector) addError(path string, err error) {
	d.errsMu.Lock()
	d.errs = append(d.errs, types.ScanError{
		Path:  path,
		Error: err.Error(),
	})
	d.errsMu.Unlock()
}

// reportProgress calls the progress callback if configured, throttled
// to every 10ms.
func (d *Detector) reportProgress(path string) {
	if d.opts.OnProgress == nil {
		return
	}

	now := time.Now().UnixMilli()
	last := d.lastProgress.Load()
	if now-last < 10 {
		return
	}
	if !d.lastProgress.CompareAndSwap(last, now) {
		return
	}

	d.opts.OnProgress(Progress{
		FilesScanned: d.filesScanned.Load(),
		FilesHashed:  d.filesHashed.Load(),
		CurrentPath:  path,
	})
}
