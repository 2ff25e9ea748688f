package cleaner

import (
	"context"
	"errors"
	"io/fs"
	"sort"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/reclaim/pkg/reclaim/logging"
	"github.com/jamesainslie/reclaim/pkg/reclaim/recovery"
	"github.com/jamesainslie/reclaim/pkg/reclaim/types"
)

var logger = logging.Get("cleaner")

// ErrDeclined indicates that the confirmation callback rejected the
// plan. Nothing was staged or deleted.
var ErrDeclined = errors.New("cleanup declined")

// ConfirmFunc decides whether a cleanup plan may proceed. Interactive
// prompting is injected through this type so the orchestrator has no
// dependency on any particular user interface.
type ConfirmFunc func(*Plan) bool

// Plan is the candidate set for one cleanup operation, computed by a
// preview with no side effects.
type Plan struct {
	// Target is the cleanup class this plan serves.
	Target Target `json:"target"`

	// Source describes where the candidates came from.
	Source string `json:"source"`

	// Candidates are the files that would be archived and removed.
	Candidates []types.FileRecord `json:"candidates"`

	// TotalSize is the combined candidate size in bytes: the space
	// reclaimed if the plan executes.
	TotalSize int64 `json:"total_size"`

	// Errors contains per-path errors collected while locating
	// candidates.
	Errors []types.ScanError `json:"errors,omitempty"`
}

// Orchestrator translates cleanup targets into recovery manager calls.
// It is the only component that initiates deletion, and deletion only
// ever happens through StageAndDelete.
type Orchestrator struct {
	manager *recovery.Manager
}

// New creates an Orchestrator backed by the given recovery manager.
func New(manager *recovery.Manager) *Orchestrator {
	return &Orchestrator{manager: manager}
}

// Preview locates candidates for a category target and reports the
// reclaimable size. Nothing is staged or deleted. TargetDuplicates has
// no path set of its own; use PlanDuplicates with detector output.
func (o *Orchestrator) Preview(ctx context.Context, target Target) (*Plan, error) {
	return o.PreviewPaths(ctx, target, target.Paths())
}

// PreviewPaths locates candidates under an explicit set of roots. Used
// by Preview with the target's well-known paths; callers may substitute
// their own roots.
func (o *Orchestrator) PreviewPaths(ctx context.Context, target Target, roots []string) (*Plan, error) {
	if target == TargetDuplicates {
		return nil, errors.New("duplicates target requires a detection pass; use PlanDuplicates")
	}

	plan := &Plan{Target: target, Source: "category scan"}
	for _, root := range roots {
		if err := o.locate(ctx, root, plan); err != nil {
			return nil, err
		}
	}

	// The concurrent walk emits candidates in arbitrary order; sort so
	// previews of an unchanged tree are reproducible.
	sort.Slice(plan.Candidates, func(i, j int) bool {
		return plan.Candidates[i].Path < plan.Candidates[j].Path
	})

	logger.Debug("preview complete", "target", target,
		"candidates", len(plan.Candidates), "size", types.FormatSize(plan.TotalSize))
	return plan, nil
}

// PlanDuplicates builds a plan from duplicate detection output. The
// canonical keep of every group is preserved; only removal candidates
// enter the plan.
func (o *Orchestrator) PlanDuplicates(groups []types.DuplicateGroup, source string) *Plan {
	plan := &Plan{Target: TargetDuplicates, Source: source}
	for i := range groups {
		for _, f := range groups[i].RemovalCandidates() {
			plan.Candidates = append(plan.Candidates, f)
			plan.TotalSize += f.Size
		}
	}
	return plan
}

// Execute runs a plan: after the injected confirmation accepts it, the
// whole candidate set goes to the recovery manager in a single
// stage-and-delete batch. A nil confirm skips confirmation (callers
// pass one for every interactive surface).
func (o *Orchestrator) Execute(plan *Plan, retention time.Duration, confirm ConfirmFunc) (*recovery.Manifest, []recovery.ItemFailure, error) {
	if len(plan.Candidates) == 0 {
		return nil, nil, recovery.ErrNoCandidates
	}
	if confirm != nil && !confirm(plan) {
		return nil, nil, ErrDeclined
	}

	return o.manager.StageAndDelete(plan.Candidates, string(plan.Target), plan.Source, retention)
}

// locate walks root and appends every regular file to the plan.
// Symlinks are not followed; per-path errors are collected, never
// fatal. The walk callback runs concurrently, so plan mutation is
// serialized.
func (o *Orchestrator) locate(ctx context.Context, root string, plan *Plan) error {
	conf := fastwalk.Config{Follow: false}
	var mu sync.Mutex

	err := fastwalk.Walk(&conf, root, func(path string, entry fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			mu.Lock()
			plan.Errors = append(plan.Errors, types.ScanError{Path: path, Error: err.Error()})
			mu.Unlock()
			return nil
		}
		if entry.IsDir() || !entry.Type().IsRegular() {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			mu.Lock()
			plan.Errors = append(plan.Errors, types.ScanError{Path: path, Error: err.Error()})
			mu.Unlock()
			return nil
		}

		mu.Lock()
		plan.Candidates = append(plan.Candidates, types.FileRecord{
			Path:    path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		plan.TotalSize += info.Size()
		mu.Unlock()
		return nil
	})
	if err != nil && !errors.Is(err, fastwalk.ErrSkipFiles) {
		return err
	}
	return nil
}
