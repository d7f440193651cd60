// Root command for the ferry CLI.
package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/ferry/pkg/types"
)

// Global flag values.
var (
	flagConfigFile string
	flagVerbose    bool
)

// Set by PersistentPreRunE so all subcommands can use them.
var (
	cfg    types.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ferry",
	Short: "Ferry migrates a relational project-management database to MongoDB",
	Long: `Ferry is a one-directional migration tool. It reads a normalized
relational snapshot (organizations, users, labels, projects, tasks,
comments), denormalizes it into embedded MongoDB documents, and bulk
loads the result. A separate validation pass compares the two sides.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		// A missing .env is fine; environment overrides are optional.
		_ = godotenv.Load()

		var err error
		if cfg, err = loadConfig(flagConfigFile); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logger, err = newLogger(cfg.LogLevel, flagVerbose); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "", "config file (default: $(CWD)/ferry.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(schemaCmd)
}
