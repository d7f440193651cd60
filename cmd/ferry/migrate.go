// Migrate command for the ferry CLI.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/ferry/internal/migrate"
	"github.com/mesh-intelligence/ferry/internal/sink"
	"github.com/mesh-intelligence/ferry/internal/source"
)

var (
	flagDryRun    bool
	flagClear     bool
	flagUpsert    bool
	flagBatchSize int
	flagYes       bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run the migration: extract, transform, and load",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "extract and transform but skip the load")
	migrateCmd.Flags().BoolVar(&flagClear, "clear", false, "empty target collections before loading")
	migrateCmd.Flags().BoolVar(&flagUpsert, "upsert", false, "replace existing documents instead of inserting")
	migrateCmd.Flags().IntVar(&flagBatchSize, "batch-size", 0, "documents per bulk write (default from config)")
	migrateCmd.Flags().BoolVar(&flagYes, "yes", false, "skip the confirmation prompt")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if !flagDryRun && !flagYes {
		ok, err := confirm(fmt.Sprintf(
			"Migrate %s into MongoDB database %q%s? [y/N] ",
			cfg.SourceDBPath, cfg.MongoDatabase, clearSuffix()))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Aborted.")
			return nil
		}
	}

	batchSize := cfg.BatchSize
	if flagBatchSize > 0 {
		batchSize = flagBatchSize
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := source.Open(cfg.SourceDBPath, cfg.PageSize, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	client, db, err := sink.Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(ctx) }()

	orch := migrate.New(src, sink.NewLoader(db, logger), logger)
	stats := orch.Run(ctx, migrate.Options{
		DryRun:    flagDryRun,
		Clear:     flagClear,
		Upsert:    flagUpsert,
		BatchSize: batchSize,
	})
	if !stats.Succeeded() {
		return errors.New("migration failed; see log for details")
	}
	return nil
}

func clearSuffix() string {
	if flagClear {
		return " (clearing existing documents first)"
	}
	return ""
}

// confirm prompts on stdout and reads one line from stdin. Only an
// explicit yes proceeds.
func confirm(prompt string) (bool, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
