package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"timelines/internal/repository"
)

func queryEntityCmd() *cobra.Command {
	var timeline, role string
	cmd := &cobra.Command{
		Use:   "entity <name>",
		Short: "Display an entity and the events it takes part in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			project, err := a.project(ctx)
			if err != nil {
				return err
			}
			entity, err := a.svc.FindEntity(ctx, project.ID, args[0])
			if err != nil {
				return err
			}

			out := stdout()
			fmt.Fprintf(out, "Name: %s\n", entity.Name)
			fmt.Fprintf(out, "Type: %s\n", entity.EntityType)
			fmt.Fprintf(out, "ID: %s\n", entity.ID)
			fmt.Fprintf(out, "Description: %s\n\n", entity.Description)
			printPropertyBlock(out, "Properties", entity.Properties.Native())

			t, err := a.timeline(ctx, timeline)
			if err != nil {
				return err
			}
			events, err := a.svc.GetEntityEvents(ctx, entity.ID, t.ID, repository.EntityEventFilter{Role: role})
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Fprintf(out, "No events on %s.\n", t.Name)
				return nil
			}
			fmt.Fprintf(out, "Events on %s:\n", t.Name)
			for _, e := range events {
				printEvent(out, e)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&timeline, "timeline", "", "Timeline name")
	cmd.Flags().StringVar(&role, "role", "", "Only events where the entity has this role")
	return cmd
}
