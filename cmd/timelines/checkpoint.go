package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func checkpointCmd() *cobra.Command {
	var at, timeline string
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Save a world state snapshot to speed up reconstruction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			instant, err := parseInstant(at)
			if err != nil {
				return err
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
			snapshot, err := a.svc.SaveCheckpoint(ctx, t.ID, instant)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Saved checkpoint %s for %s at %s.\n",
				snapshot.ID, t.Name, snapshot.Timestamp.Format(timeLayout))
			return nil
		},
	}
	cmd.Flags().StringVar(&timeline, "timeline", "", "Timeline to snapshot")
	cmd.Flags().StringVar(&at, "at", "", "Instant of the snapshot (RFC 3339 or date)")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}
