package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"timelines/internal/domain"
	"timelines/internal/repository"
)

func queryEventsCmd() *cobra.Command {
	var timeline, start, end, minImportance string
	var types []string
	var limit int
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List the events of a timeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			filter := repository.EventFilter{Limit: limit}
			var err error
			if filter.Start, err = parseOptionalInstant(start); err != nil {
				return err
			}
			if filter.End, err = parseOptionalInstant(end); err != nil {
				return err
			}
			if minImportance != "" {
				if filter.MinImportance, err = decimal.NewFromString(minImportance); err != nil {
					return fmt.Errorf("invalid --min-importance %q: %w", minImportance, err)
				}
			}
			for _, t := range types {
				filter.Types = append(filter.Types, domain.EventType(t))
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
			events, err := a.svc.QueryEvents(ctx, t.ID, filter)
			if err != nil {
				return err
			}
			out := stdout()
			if len(events) == 0 {
				fmt.Fprintf(out, "No events on %s.\n", t.Name)
				return nil
			}
			for _, e := range events {
				printEvent(out, e)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&timeline, "timeline", "", "Timeline name")
	cmd.Flags().StringVar(&start, "start", "", "Inclusive lower bound")
	cmd.Flags().StringVar(&end, "end", "", "Inclusive upper bound")
	cmd.Flags().StringSliceVar(&types, "type", nil, "Event types to keep")
	cmd.Flags().StringVar(&minImportance, "min-importance", "", "Minimum importance")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of events")
	return cmd
}
