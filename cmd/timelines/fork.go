package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"timelines/internal/domain"
)

func forkCmd() *cobra.Command {
	var from, status, timeline string
	cmd := &cobra.Command{
		Use:   "fork <branch-name>",
		Short: "Branch a timeline at an instant, copying earlier events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			at, err := parseInstant(from)
			if err != nil {
				return err
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			source, err := a.timeline(ctx, timeline)
			if err != nil {
				return err
			}
			fork, err := a.svc.ForkTimeline(ctx, source.ID, args[0], at, domain.TimelineStatus(status))
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Forked %s into %s (%s).\n", source.Name, fork.Name, fork.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&timeline, "timeline", "", "Timeline to fork")
	cmd.Flags().StringVar(&from, "from", "", "Copy events at or before this instant (RFC 3339 or date)")
	cmd.Flags().StringVar(&status, "status", "", "Status of the branch, hypothetical by default")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}
