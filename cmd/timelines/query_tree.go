package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func queryTreeCmd() *cobra.Command {
	var timeline string
	var depth int
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show a timeline and its branches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			root, err := a.timeline(ctx, timeline)
			if err != nil {
				return err
			}
			tree, err := a.svc.GetTimelineTree(ctx, root.ID, depth)
			if err != nil {
				return err
			}

			levels := map[uuid.UUID]int{}
			out := stdout()
			for _, t := range tree {
				level := 0
				if t.ParentTimelineID != nil && t.ID != root.ID {
					level = levels[*t.ParentTimelineID] + 1
				}
				levels[t.ID] = level
				fmt.Fprintf(out, "%s%s [%s]\n", strings.Repeat("  ", level), t.Name, t.Status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&timeline, "timeline", "", "Root timeline name")
	cmd.Flags().IntVar(&depth, "depth", -1, "Maximum depth below the root")
	return cmd
}
