package cleaner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/reclaim/pkg/reclaim/recovery"
	"github.com/jamesainslie/reclaim/pkg/reclaim/types"
)

func newOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	manager, err := recovery.NewManager(filepath.Join(t.TempDir(), "recovery"))
	require.NoError(t, err)
	return New(manager)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPreviewPaths(t *testing.T) {
	o := newOrchestrator(t)
	root := t.TempDir()

	writeFile(t, root, "b.log", "second file")
	writeFile(t, root, "a.log", "first")
	writeFile(t, root, "nested/c.log", "third file here")

	plan, err := o.PreviewPaths(context.Background(), TargetLogs, []string{root})
	require.NoError(t, err)

	require.Len(t, plan.Candidates, 3)
	// Candidates come back sorted by path.
	assert.Equal(t, filepath.Join(root, "a.log"), plan.Candidates[0].Path)
	assert.Equal(t, filepath.Join(root, "b.log"), plan.Candidates[1].Path)
	assert.Equal(t, filepath.Join(root, "nested/c.log"), plan.Candidates[2].Path)

	var want int64
	for _, c := range plan.Candidates {
		want += c.Size
	}
	assert.Equal(t, want, plan.TotalSize)

	// Previewing has no side effects.
	for _, c := range plan.Candidates {
		assert.FileExists(t, c.Path)
	}
}

func TestPreviewPathsRejectsDuplicates(t *testing.T) {
	o := newOrchestrator(t)

	_, err := o.PreviewPaths(context.Background(), TargetDuplicates, nil)
	require.Error(t, err)
}

func TestPlanDuplicatesPreservesKeep(t *testing.T) {
	o := newOrchestrator(t)
	now := time.Now()

	groups := []types.DuplicateGroup{
		{
			Digest: "d1",
			Size:   100,
			Files: []types.FileRecord{
				{Path: "/data/keep.txt", Size: 100, ModTime: now.Add(-time.Hour)},
				{Path: "/data/copy1.txt", Size: 100, ModTime: now},
				{Path: "/data/copy2.txt", Size: 100, ModTime: now},
			},
			KeepIndex: 0,
		},
		{
			Digest: "d2",
			Size:   50,
			Files: []types.FileRecord{
				{Path: "/data/x.bin", Size: 50, ModTime: now},
				{Path: "/data/y.bin", Size: 50, ModTime: now},
			},
			KeepIndex: 1,
		},
	}

	plan := o.PlanDuplicates(groups, "dupes scan")

	assert.Equal(t, TargetDuplicates, plan.Target)
	require.Len(t, plan.Candidates, 3)
	for _, c := range plan.Candidates {
		assert.NotEqual(t, "/data/keep.txt", c.Path)
		assert.NotEqual(t, "/data/y.bin", c.Path)
	}
	assert.Equal(t, int64(250), plan.TotalSize)
}

func TestExecuteDeclined(t *testing.T) {
	o := newOrchestrator(t)
	root := t.TempDir()

	path := writeFile(t, root, "victim.txt", "must survive a declined plan")
	plan, err := o.PreviewPaths(context.Background(), TargetTemp, []string{root})
	require.NoError(t, err)

	decline := func(*Plan) bool { return false }
	_, _, err = o.Execute(plan, time.Hour, decline)
	require.ErrorIs(t, err, ErrDeclined)

	// Declining leaves everything untouched.
	assert.FileExists(t, path)
}

func TestExecuteEmptyPlan(t *testing.T) {
	o := newOrchestrator(t)

	plan := &Plan{Target: TargetCache, Source: "category scan"}
	_, _, err := o.Execute(plan, time.Hour, nil)
	require.ErrorIs(t, err, recovery.ErrNoCandidates)
}

func TestExecuteStagesAndDeletes(t *testing.T) {
	o := newOrchestrator(t)
	root := t.TempDir()

	a := writeFile(t, root, "a.tmp", "temporary content a")
	b := writeFile(t, root, "b.tmp", "temporary content b")

	plan, err := o.PreviewPaths(context.Background(), TargetTemp, []string{root})
	require.NoError(t, err)

	var confirmed *Plan
	confirm := func(p *Plan) bool {
		confirmed = p
		return true
	}

	manifest, failures, err := o.Execute(plan, time.Hour, confirm)
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Same(t, plan, confirmed)

	assert.NoFileExists(t, a)
	assert.NoFileExists(t, b)
	require.Len(t, manifest.Items, 2)
	assert.Equal(t, string(TargetTemp), manifest.Items[0].Category)
}

func TestExecuteNilConfirmSkipsPrompt(t *testing.T) {
	o := newOrchestrator(t)
	root := t.TempDir()

	path := writeFile(t, root, "f.tmp", "confirmed by flag")
	plan, err := o.PreviewPaths(context.Background(), TargetTemp, []string{root})
	require.NoError(t, err)

	_, _, err = o.Execute(plan, time.Hour, nil)
	require.NoError(t, err)
	assert.NoFileExists(t, path)
}
