package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/reclaim/pkg/reclaim/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage reclaim configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/reclaim/config.yaml (if set)
  2. ~/.config/reclaim/config.yaml

Environment variables can override config file settings using the
RECLAIM_ prefix:
  RECLAIM_MIN_SIZE=10M
  RECLAIM_RECOVERY_RETENTION_DAYS=14`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow prints the effective configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Printf("min_size:     %s\n", cfg.MinSize)
	fmt.Printf("default_path: %s\n", cfg.DefaultPath)
	fmt.Printf("exclude:      %v\n", cfg.Exclude)
	fmt.Printf("hash_workers: %d\n", cfg.HashWorkers)
	fmt.Println("recovery:")
	fmt.Printf("  root:           %s\n", cfg.Recovery.Root)
	fmt.Printf("  retention_days: %d\n", cfg.Recovery.RetentionDays)
	fmt.Println("logging:")
	fmt.Printf("  level: %s\n", cfg.Logging.Level)
	if cfg.Logging.Path != "" {
		fmt.Printf("  path:  %s\n", cfg.Logging.Path)
	}
	return nil
}
