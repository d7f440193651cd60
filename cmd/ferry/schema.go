// Schema commands for the ferry CLI.
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/ferry/internal/sink"
)

var flagDropYes bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Manage the target database schema",
}

var schemaInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create indexes on the target collections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		client, db, err := sink.Connect(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(ctx) }()

		if err := sink.EnsureIndexes(ctx, db, logger); err != nil {
			return err
		}
		fmt.Println("Target schema initialized.")
		return nil
	},
}

var schemaDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop every target collection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !flagDropYes {
			ok, err := confirm(fmt.Sprintf(
				"Drop all collections in MongoDB database %q? [y/N] ", cfg.MongoDatabase))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Aborted.")
				return nil
			}
		}

		ctx := context.Background()
		client, db, err := sink.Connect(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(ctx) }()

		if err := sink.DropAll(ctx, db, logger); err != nil {
			return err
		}
		fmt.Println("Target collections dropped.")
		return nil
	},
}

func init() {
	schemaDropCmd.Flags().BoolVar(&flagDropYes, "yes", false, "skip the confirmation prompt")
	schemaCmd.AddCommand(schemaInitCmd)
	schemaCmd.AddCommand(schemaDropCmd)
}
