package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/reclaim/pkg/reclaim/config"
	"github.com/jamesainslie/reclaim/pkg/reclaim/logging"
	"github.com/jamesainslie/reclaim/pkg/reclaim/recovery"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "reclaim",
		Short: "Find duplicate files and reclaim disk space safely",
		Long: `Reclaim finds duplicate file content and removes unwanted files
(caches, build artifacts, duplicates) without unrecoverable data loss.

Every destructive operation archives its files into a checksum-verified
recovery store before deletion. Until the retention deadline passes, any
cleanup can be fully restored.

Examples:
  reclaim dupes ~/Downloads         # Find duplicate files
  reclaim clean duplicates -d       # Preview duplicate cleanup
  reclaim clean cache -y            # Clean caches without prompting
  reclaim recover list              # List restorable cleanups
  reclaim recover restore <id>      # Undo a cleanup
  reclaim recover purge             # Drop expired recovery data`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogging()
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/reclaim/config.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "pretty", "output format (pretty, plain, json)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in the config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "reclaim"))
		}
		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "reclaim"))
		}
	}

	viper.SetEnvPrefix("RECLAIM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("min_size", config.DefaultMinSize)
	viper.SetDefault("default_path", config.DefaultPath)
	viper.SetDefault("exclude", config.DefaultExclusions)
	viper.SetDefault("recovery.root", recovery.DefaultRoot())
	viper.SetDefault("recovery.retention_days", config.DefaultRetentionDays)
	viper.SetDefault("logging.level", "info")

	_ = viper.ReadInConfig()
}

// initLogging initializes the logging system from the loaded config.
func initLogging() error {
	level := viper.GetString("logging.level")
	consoleLevel := ""
	if viper.GetBool("verbose") {
		level = "debug"
		consoleLevel = "debug"
	}

	return logging.Init(logging.Config{
		Level:        level,
		Path:         viper.GetString("logging.path"),
		ConsoleLevel: consoleLevel,
	})
}

// Execute runs the root command.
func Execute() error {
	defer func() {
		_ = logging.Close()
	}()
	return rootCmd.Execute()
}

// getRecoveryManager opens the configured recovery store.
func getRecoveryManager() (*recovery.Manager, error) {
	root := viper.GetString("recovery.root")
	if root == "" {
		root = recovery.DefaultRoot()
	}
	return recovery.NewManager(root)
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printInfo prints a message unless quiet mode is enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
