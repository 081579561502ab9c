package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const defaultSchema = `version: 1
roles: []
entity_types:
  - name: character
    properties:
      - { name: status, type: enum, values: [alive, dead, missing], default: alive }
    field_mappings:
      - { field: member_of, relationship: hierarchical, target_type: [organization] }
  - name: place
  - name: organization
`

func initCmd() *cobra.Command {
	var projectName string
	var storage string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new timelines project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(cmd, projectName, storage)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&storage, "storage", "sqlite", "Storage adapter: memory, sqlite or postgres")
	return cmd
}

func runInit(cmd *cobra.Command, projectName, storage string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}
	if _, err := os.Stat(schemaPath); err == nil {
		return fmt.Errorf("%s already exists", schemaPath)
	}

	dsn := ""
	switch storage {
	case "memory":
	case "sqlite":
		dsn = "sqlite://.timelines/timelines.db"
	case "postgres":
		dsn = "postgres://localhost:5432/timelines"
	default:
		return fmt.Errorf("unknown storage adapter: %s", storage)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "project: %s\nversion: 1\n\nstorage:\n  adapter: %s\n", projectName, storage)
	if dsn != "" {
		fmt.Fprintf(&b, "  dsn: %s\n", dsn)
	}
	b.WriteString("\nvector:\n  adapter: none\n\nlogging:\n  level: info\n  format: console\n")
	b.WriteString("\nsources:\n  - timeline: main\n    status: canonical\n    paths:\n      - ./story/\n\nexclude:\n  - \"**/drafts/**\"\n")

	if err := os.WriteFile(configPath, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	if err := os.WriteFile(schemaPath, []byte(defaultSchema), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", schemaPath, err)
	}
	cmd.Printf("Created %s and %s.\n", configPath, schemaPath)
	return nil
}
