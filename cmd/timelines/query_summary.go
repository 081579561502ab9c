package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"timelines/internal/repository"
)

func querySummaryCmd() *cobra.Command {
	var timeline, at, threshold string
	var recent int
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarise a timeline up to an instant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			instant := time.Now().UTC()
			if at != "" {
				var err error
				if instant, err = parseInstant(at); err != nil {
					return err
				}
			}
			minImportance := repository.DefaultImportanceThreshold
			if threshold != "" {
				var err error
				if minImportance, err = decimal.NewFromString(threshold); err != nil {
					return fmt.Errorf("invalid --threshold %q: %w", threshold, err)
				}
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
			summary, err := a.svc.GetTimelineSummary(ctx, t.ID, instant, recent, minImportance)
			if err != nil {
				return err
			}

			out := stdout()
			fmt.Fprintf(out, "Timeline: %s\n", t.Name)
			fmt.Fprintf(out, "Events: %d\n", summary.EventCount)
			if summary.EventCount == 0 {
				return nil
			}
			fmt.Fprintf(out, "Span: %s .. %s\n\n", summary.FirstEvent.Format(timeLayout), summary.LastEvent.Format(timeLayout))
			fmt.Fprintln(out, "Recent:")
			for _, e := range summary.RecentEvents {
				fmt.Fprintf(out, "  %s  %s\n", e.Timestamp.Format(timeLayout), e.Description)
			}
			if len(summary.ImportantEvents) > 0 {
				fmt.Fprintln(out, "\nImportant:")
				for _, e := range summary.ImportantEvents {
					fmt.Fprintf(out, "  %s  %s (%s)\n", e.Timestamp.Format(timeLayout), e.Description, e.Importance)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&timeline, "timeline", "", "Timeline name")
	cmd.Flags().StringVar(&at, "at", "", "Summarise up to this instant, now by default")
	cmd.Flags().IntVar(&recent, "recent", 0, "Number of recent events")
	cmd.Flags().StringVar(&threshold, "threshold", "", "Importance threshold for key events")
	return cmd
}
