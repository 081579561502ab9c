package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const timeLayout = time.RFC3339

var instantLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query timelines from the CLI",
	}
	cmd.AddCommand(queryEventsCmd())
	cmd.AddCommand(queryStateCmd())
	cmd.AddCommand(queryTreeCmd())
	cmd.AddCommand(queryCausalityCmd())
	cmd.AddCommand(querySummaryCmd())
	cmd.AddCommand(queryEntityCmd())
	return cmd
}

func parseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse instant %q", s)
}

func parseOptionalInstant(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseInstant(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func printPropertyBlock(out io.Writer, title string, props map[string]any) {
	if len(props) == 0 {
		return
	}
	keys := make([]string, 0, len(props))
	for key := range props {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	fmt.Fprintf(out, "%s:\n", title)
	for _, key := range keys {
		fmt.Fprintf(out, "  %s: %v\n", key, props[key])
	}
	fmt.Fprintln(out, "")
}

func stdout() io.Writer { return os.Stdout }
