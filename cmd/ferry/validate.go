// Validate command for the ferry CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/ferry/internal/sink"
	"github.com/mesh-intelligence/ferry/internal/source"
	"github.com/mesh-intelligence/ferry/internal/validate"
)

var flagSampleSize int

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Compare the migrated target against the source",
	Args:  cobra.NoArgs,
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().IntVar(&flagSampleSize, "sample-size", 0, "records to spot-check per entity (default from config)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	sampleSize := cfg.SampleSize
	if flagSampleSize > 0 {
		sampleSize = flagSampleSize
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

	report := validate.NewEngine(src, db, sampleSize, logger).Run(ctx)
	if !report.Passed() {
		return fmt.Errorf("validation failed: %d of %d checks failed",
			report.FailedCount(), len(report.Results))
	}
	fmt.Printf("All %d checks passed.\n", len(report.Results))
	return nil
}
