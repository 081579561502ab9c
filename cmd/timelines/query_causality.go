package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"timelines/internal/domain"
)

func queryCausalityCmd() *cobra.Command {
	var direction string
	var depth int
	cmd := &cobra.Command{
		Use:   "causality <event-id>",
		Short: "Trace causes or effects of an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eventID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid event id %q: %w", args[0], err)
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			paths, err := a.svc.TraceCausalChain(ctx, eventID, direction, depth)
			if err != nil {
				return err
			}
			out := stdout()
			if len(paths) == 0 {
				fmt.Fprintln(out, "No causal paths.")
				return nil
			}
			for i, p := range paths {
				steps := make([]string, 0, len(p.Events))
				for _, e := range p.Events {
					steps = append(steps, e.Description)
				}
				fmt.Fprintf(out, "%d. %s\n", i+1, strings.Join(steps, " -> "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&direction, "direction", "forward", "forward for effects, backward for causes")
	cmd.Flags().IntVar(&depth, "depth", -1, "Maximum hops")
	return cmd
}

func printEvent(out io.Writer, e *domain.Event) {
	fmt.Fprintf(out, "%s  %-12s %s  (importance %s, detail %d)\n",
		e.Timestamp.Format(timeLayout), e.EventType, e.Description, e.ImportanceScore, e.DetailLevel)
	fmt.Fprintf(out, "    id: %s\n", e.ID)
}
