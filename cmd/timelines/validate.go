package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"timelines/internal/validate"
)

var validatePrune bool

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run consistency checks against stored timelines",
		Args:  cobra.NoArgs,
		RunE:  runValidate,
	}
	cmd.Flags().BoolVar(&validatePrune, "prune", false, "Delete dangling links and relationships before checking")
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
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

	if validatePrune {
		removed, err := validate.Prune(ctx, a.storage, project.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Pruned %d dangling records.\n", removed)
	}

	report, err := validate.Run(ctx, a.schema, a.storage, project.ID)
	if err != nil {
		return err
	}

	var errorIssues []validate.Issue
	var warnIssues []validate.Issue
	for _, issue := range report.Issues {
		switch issue.Severity {
		case validate.SeverityError:
			errorIssues = append(errorIssues, issue)
		case validate.SeverityWarn:
			warnIssues = append(warnIssues, issue)
		}
	}

	if len(errorIssues) == 0 && len(warnIssues) == 0 {
		fmt.Fprintln(os.Stdout, "No issues found.")
		return nil
	}

	if len(errorIssues) > 0 {
		fmt.Fprintf(os.Stdout, "Errors (%d):\n", len(errorIssues))
		printIssues(os.Stdout, errorIssues)
	}
	if len(warnIssues) > 0 {
		if len(errorIssues) > 0 {
			fmt.Fprintln(os.Stdout, "")
		}
		fmt.Fprintf(os.Stdout, "Warnings (%d):\n", len(warnIssues))
		printIssues(os.Stdout, warnIssues)
	}

	if len(errorIssues) > 0 {
		return fmt.Errorf("validation found errors")
	}
	return nil
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		location := issue.Entity
		if location == "" {
			location = issue.Timeline
		}
		if issue.Timeline != "" && issue.Entity != "" {
			location = fmt.Sprintf("%s [%s]", issue.Entity, issue.Timeline)
		}
		if issue.FilePath != "" {
			location = fmt.Sprintf("%s (%s)", location, issue.FilePath)
		}
		fmt.Fprintf(out, "  - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}
