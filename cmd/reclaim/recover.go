package main

import (
	"bytes"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/reclaim/pkg/reclaim/output"
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "List, inspect, restore, and purge cleanup recoveries",
	Long: `Manage the recovery store that backs every cleanup.

Each cleanup leaves a manifest behind; until its retention deadline
passes, the archived files can be restored in full. Purging is always
explicit: expired recovery data is only removed when you ask for it.`,
}

var recoverListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available recoveries",
	RunE:  runRecoverList,
}

var recoverShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the full manifest of a recovery",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecoverShow,
}

var recoverRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Restore every file of a recovery",
	Long: `Restore the files of a recovery to their original paths.

Archived checksums are verified before copying. If an original path is
now occupied by different content, the file is written next to it with
a .restored suffix instead of overwriting.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecoverRestore,
}

var recoverPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove expired recovery data",
	Long: `Remove manifests whose retention deadline has passed, along with
their archive bytes. Fully restored recoveries are removed as well.`,
	RunE: runRecoverPurge,
}

func init() {
	recoverCmd.AddCommand(recoverListCmd)
	recoverCmd.AddCommand(recoverShowCmd)
	recoverCmd.AddCommand(recoverRestoreCmd)
	recoverCmd.AddCommand(recoverPurgeCmd)
	rootCmd.AddCommand(recoverCmd)
}

// runRecoverList renders the recovery index.
func runRecoverList(cmd *cobra.Command, args []string) error {
	manager, err := getRecoveryManager()
	if err != nil {
		return err
	}

	entries, err := manager.List()
	if err != nil {
		return err
	}

	formatter, err := output.Get(viper.GetString("output"))
	if err != nil {
		return fmt.Errorf("unknown output format: available formats are %v", output.Available())
	}

	var buf bytes.Buffer
	if err := formatter.FormatRecoveries(&buf, entries); err != nil {
		return err
	}
	fmt.Print(buf.String())
	return nil
}

// runRecoverShow renders one full manifest.
func runRecoverShow(cmd *cobra.Command, args []string) error {
	manager, err := getRecoveryManager()
	if err != nil {
		return err
	}

	manifest, err := manager.Load(args[0])
	if err != nil {
		return err
	}

	formatter, err := output.Get(viper.GetString("output"))
	if err != nil {
		return fmt.Errorf("unknown output format: available formats are %v", output.Available())
	}

	var buf bytes.Buffer
	if err := formatter.FormatManifest(&buf, manifest); err != nil {
		return err
	}
	fmt.Print(buf.String())
	return nil
}

// runRecoverRestore restores a recovery and reports per-item results.
func runRecoverRestore(cmd *cobra.Command, args []string) error {
	manager, err := getRecoveryManager()
	if err != nil {
		return err
	}

	results, err := manager.Restore(args[0])
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		switch {
		case r.Error != "":
			failed++
			printError("could not restore %s: %s", r.OriginalPath, r.Error)
		case r.Conflict:
			printInfo("restored %s -> %s (original path occupied)", r.OriginalPath, r.RestoredPath)
		default:
			printInfo("restored %s", r.RestoredPath)
		}
	}

	printInfo("Restored %d of %d files.", len(results)-failed, len(results))
	if failed > 0 {
		return errPartialFailure
	}
	return nil
}

// runRecoverPurge removes expired recovery data.
func runRecoverPurge(cmd *cobra.Command, args []string) error {
	manager, err := getRecoveryManager()
	if err != nil {
		return err
	}

	purged, err := manager.PurgeExpired(time.Now().UTC())
	if err != nil {
		return err
	}

	if len(purged) == 0 {
		printInfo("No expired recoveries to purge.")
		return nil
	}

	printInfo("Purged %d recoveries:", len(purged))
	for _, id := range purged {
		printInfo("  - %s", id)
	}
	return nil
}
