package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"timelines/internal/domain"
)

func queryStateCmd() *cobra.Command {
	var timeline, at string
	var entities []string
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Reconstruct world state at an instant",
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
			project, err := a.project(ctx)
			if err != nil {
				return err
			}

			var ids []uuid.UUID
			names := map[uuid.UUID]string{}
			for _, name := range entities {
				e, err := a.svc.FindEntity(ctx, project.ID, name)
				if err != nil {
					return err
				}
				ids = append(ids, e.ID)
			}
			all, err := a.svc.ListEntities(ctx, project.ID, "")
			if err != nil {
				return err
			}
			for _, e := range all {
				names[e.ID] = e.Name
			}

			state, err := a.svc.ReconstructState(ctx, t.ID, instant, ids)
			if err != nil {
				return err
			}
			printWorldState(stdout(), state, names)
			return nil
		},
	}
	cmd.Flags().StringVar(&timeline, "timeline", "", "Timeline name")
	cmd.Flags().StringVar(&at, "at", "", "Instant to reconstruct (RFC 3339 or date)")
	cmd.Flags().StringSliceVar(&entities, "entity", nil, "Restrict entity state to these names")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func printWorldState(out io.Writer, state domain.WorldState, names map[uuid.UUID]string) {
	if len(state.GlobalProperties) == 0 && len(state.EntityStates) == 0 {
		fmt.Fprintln(out, "No state recorded.")
		return
	}
	printPropertyBlock(out, "World", state.GlobalProperties.Native())

	labels := make([]string, 0, len(state.EntityStates))
	byLabel := make(map[string]domain.Properties, len(state.EntityStates))
	for id, props := range state.EntityStates {
		label := names[id]
		if label == "" {
			label = id.String()
		}
		labels = append(labels, label)
		byLabel[label] = props
	}
	sort.Strings(labels)
	for _, label := range labels {
		printPropertyBlock(out, label, byLabel[label].Native())
	}
}
