package main

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func compressCmd() *cobra.Command {
	var before, minImportance, timeline string
	cmd := &cobra.Command{
		Use:   "compress",
		Short: "Lower the detail level of old, unimportant events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			at, err := parseInstant(before)
			if err != nil {
				return err
			}
			threshold, err := decimal.NewFromString(minImportance)
			if err != nil {
				return fmt.Errorf("invalid --min-importance %q: %w", minImportance, err)
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			t, err := a.timeline(ctx, timeline)
			if err != nil {
				return err
			}
			n, err := a.svc.CompressEvents(ctx, t.ID, at, threshold)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Compressed %d events on %s.\n", n, t.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&timeline, "timeline", "", "Timeline to compress")
	cmd.Flags().StringVar(&before, "before", "", "Only events strictly before this instant")
	cmd.Flags().StringVar(&minImportance, "min-importance", "0.3", "Events at or above this importance keep their detail")
	_ = cmd.MarkFlagRequired("before")
	return cmd
}
