package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/reclaim/pkg/reclaim/config"
	"github.com/jamesainslie/reclaim/pkg/reclaim/dupes"
	"github.com/jamesainslie/reclaim/pkg/reclaim/output"
	"github.com/jamesainslie/reclaim/pkg/reclaim/types"
)

var dupesCmd = &cobra.Command{
	Use:   "dupes [path]",
	Short: "Scan for files with duplicate content",
	Long: `Scan a directory subtree for files with identical content.

Files are bucketed by size first, so unique files are never hashed.
Each duplicate group marks one canonical keep (oldest file, ties broken
by path); the rest are removal candidates. Scanning only reads, it
never modifies anything.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDupes,
}

func init() {
	dupesCmd.Flags().StringP("min-size", "s", "", "minimum file size to consider (e.g., 1M, 100K)")
	dupesCmd.Flags().StringSliceP("exclude", "e", nil, "exclude patterns (repeatable)")
	rootCmd.AddCommand(dupesCmd)
}

// runDupes executes a duplicate detection pass and renders the result.
func runDupes(cmd *cobra.Command, args []string) error {
	result, err := detectDuplicates(cmd, args)
	if err != nil {
		return err
	}

	formatter, err := output.Get(viper.GetString("output"))
	if err != nil {
		return fmt.Errorf("unknown output format: available formats are %v", output.Available())
	}

	var buf bytes.Buffer
	if err := formatter.FormatDuplicates(&buf, result); err != nil {
		return err
	}
	fmt.Print(buf.String())
	return nil
}

// detectDuplicates resolves scan options from flags and config, then
// runs the detector with a signal-cancellable context.
func detectDuplicates(cmd *cobra.Command, args []string) (*dupes.Result, error) {
	scanPath := viper.GetString("default_path")
	if len(args) > 0 {
		scanPath = args[0]
	}

	expanded, err := config.ExpandPath(scanPath)
	if err != nil {
		return nil, err
	}
	absPath, err := filepath.Abs(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	minSizeStr, _ := cmd.Flags().GetString("min-size")
	if minSizeStr == "" {
		minSizeStr = viper.GetString("min_size")
	}
	minSize, err := types.ParseSize(minSizeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid minimum size %q: %w", minSizeStr, err)
	}

	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	if len(exclude) == 0 {
		exclude = viper.GetStringSlice("exclude")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	detector := dupes.New(dupes.Options{
		Root:        absPath,
		MinSize:     minSize,
		Exclude:     exclude,
		HashWorkers: viper.GetInt("hash_workers"),
	})

	return detector.Detect(ctx)
}
