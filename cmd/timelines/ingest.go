package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"timelines/internal/ingest"
)

var ingestFull bool

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Synchronise timelines with markdown source files",
		Args:  cobra.NoArgs,
		RunE:  runIngest,
	}
	cmd.Flags().BoolVar(&ingestFull, "full", false, "Force full re-ingestion (ignore incremental hashes)")
	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	result, err := ingest.Run(ctx, a.cfg, a.schema, a.svc.Repository(), ingest.Options{Full: ingestFull})
	if err != nil {
		return err
	}
	a.logger.Info("ingestion finished",
		zap.Int("entities", result.EntitiesUpserted),
		zap.Int("events", result.EventsUpserted),
		zap.Int("errors", len(result.Errors)))

	fmt.Fprintln(os.Stdout, "Ingestion complete.")
	fmt.Fprintf(os.Stdout, "  Entities upserted:     %d\n", result.EntitiesUpserted)
	fmt.Fprintf(os.Stdout, "  Events upserted:       %d\n", result.EventsUpserted)
	fmt.Fprintf(os.Stdout, "  Links created:         %d\n", result.LinksCreated)
	fmt.Fprintf(os.Stdout, "  Relationships created: %d\n", result.RelationshipsCreated)
	fmt.Fprintf(os.Stdout, "  Entities removed:      %d\n", result.EntitiesRemoved)
	fmt.Fprintf(os.Stdout, "  Events removed:        %d\n", result.EventsRemoved)
	fmt.Fprintf(os.Stdout, "  Files skipped:         %d\n", result.FilesSkipped)

	if len(result.Errors) > 0 {
		fmt.Fprintf(os.Stdout, "\nErrors (%d):\n", len(result.Errors))
		for _, item := range result.Errors {
			fmt.Fprintf(os.Stdout, "  - %v\n", item)
		}
		return fmt.Errorf("ingestion completed with errors")
	}

	return nil
}
