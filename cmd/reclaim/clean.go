package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/reclaim/pkg/reclaim/cleaner"
	"github.com/jamesainslie/reclaim/pkg/reclaim/output"
	"github.com/jamesainslie/reclaim/pkg/reclaim/types"
)

// errPartialFailure marks a cleanup that committed its manifest but
// failed to unlink some originals. The batch is consistent and
// restorable; the exit code tells scripts to look closer.
var errPartialFailure = errors.New("some files could not be removed")

var cleanCmd = &cobra.Command{
	Use:   "clean <target>",
	Short: "Archive and remove unwanted files",
	Long: `Clean files in a target category: duplicates, cache, build, temp, logs.

Before anything is deleted, every file is copied into the recovery
store, verified by checksum, and recorded in a durable manifest. The
originals are only removed after the manifest is safely on disk, so a
cleanup can always be undone with 'reclaim recover restore' until its
retention deadline passes.

Use --dry-run to preview the candidate set without touching anything.`,
	Args: cobra.ExactArgs(1),
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolP("dry-run", "d", false, "preview candidates without archiving or deleting")
	cleanCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	cleanCmd.Flags().Int("retention", 0, "retention period in days (default from config)")
	cleanCmd.Flags().StringP("path", "p", "", "subtree to scan for the duplicates target")
	cleanCmd.Flags().StringP("min-size", "s", "", "minimum file size for the duplicates target")
	rootCmd.AddCommand(cleanCmd)
}

// runClean builds the cleanup plan for the requested target and either
// previews or executes it.
func runClean(cmd *cobra.Command, args []string) error {
	target, err := cleaner.ParseTarget(args[0])
	if err != nil {
		return err
	}

	manager, err := getRecoveryManager()
	if err != nil {
		return fmt.Errorf("opening recovery store: %w", err)
	}
	orch := cleaner.New(manager)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	plan, err := buildPlan(ctx, cmd, orch, target)
	if err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if dryRun {
		return renderPlan(plan)
	}

	if len(plan.Candidates) == 0 {
		printInfo("Nothing to clean for target %q.", target)
		return nil
	}

	retention := retentionPeriod(cmd)
	yes, _ := cmd.Flags().GetBool("yes")

	confirm := promptConfirm
	if yes {
		confirm = nil
	}

	manifest, failures, err := orch.Execute(plan, retention, confirm)
	if errors.Is(err, cleaner.ErrDeclined) {
		printInfo("Aborted; nothing was changed.")
		return nil
	}
	if err != nil {
		return err
	}

	printInfo("Cleaned %d files (%s). Recovery ID: %s",
		len(manifest.Items)-len(failures), types.FormatSize(manifest.TotalSize), manifest.ID)
	printInfo("Restore with: reclaim recover restore %s", manifest.ID)

	if len(failures) > 0 {
		for _, f := range failures {
			printError("could not remove %s: %s", f.Path, f.Error)
		}
		return errPartialFailure
	}
	return nil
}

// buildPlan computes the candidate set for a target. The duplicates
// target runs a detection pass; category targets scan their well-known
// paths.
func buildPlan(ctx context.Context, cmd *cobra.Command, orch *cleaner.Orchestrator, target cleaner.Target) (*cleaner.Plan, error) {
	if target != cleaner.TargetDuplicates {
		return orch.Preview(ctx, target)
	}

	scanPath, _ := cmd.Flags().GetString("path")
	dupesArgs := []string{}
	if scanPath != "" {
		dupesArgs = append(dupesArgs, scanPath)
	}
	result, err := detectDuplicates(cmd, dupesArgs)
	if err != nil {
		return nil, err
	}

	root := scanPath
	if root == "" {
		root = viper.GetString("default_path")
	}
	return orch.PlanDuplicates(result.Groups, "duplicate scan of "+root), nil
}

// renderPlan prints a preview through the configured formatter.
func renderPlan(plan *cleaner.Plan) error {
	formatter, err := output.Get(viper.GetString("output"))
	if err != nil {
		return fmt.Errorf("unknown output format: available formats are %v", output.Available())
	}

	var buf bytes.Buffer
	if err := formatter.FormatPlan(&buf, plan); err != nil {
		return err
	}
	fmt.Print(buf.String())
	return nil
}

// retentionPeriod resolves the retention flag or config default.
func retentionPeriod(cmd *cobra.Command) time.Duration {
	days, _ := cmd.Flags().GetInt("retention")
	if days <= 0 {
		days = viper.GetInt("recovery.retention_days")
	}
	return time.Duration(days) * 24 * time.Hour
}

// promptConfirm asks for confirmation on stdin before a plan executes.
func promptConfirm(plan *cleaner.Plan) bool {
	fmt.Printf("About to archive and remove %d files (%s reclaimable). Continue? [y/N] ",
		len(plan.Candidates), types.FormatSize(plan.TotalSize))

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
