package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/flowgen/internal/config"
	"github.com/roach88/flowgen/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <testName>",
		Short: "List recorded generations of a test",
		Long: `List every recorded generation of a test, oldest first. A run whose bundle
id matches the previous run produced identical files.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "history database (default: config)")

	return cmd
}

func runHistory(opts *HistoryOptions, testName string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.settings()
	if err != nil {
		return formatter.fail(ExitCommandError, &configError{err: err}, nil)
	}
	path := opts.DB
	if path == "" {
		path = cfg.Database
	}
	if path == "" {
		return formatter.fail(ExitCommandError, &configError{err: fmt.Errorf("no history database: set --db or database in %s", config.DefaultFile)}, nil)
	}

	s, err := store.Open(path)
	if err != nil {
		return formatter.fail(ExitCommandError, &storeError{err: err}, nil)
	}
	defer s.Close()

	gens, err := s.ListGenerations(cmd.Context(), testName)
	if err != nil {
		return formatter.fail(ExitCommandError, &storeError{err: err}, nil)
	}

	if formatter.Format == "json" {
		return formatter.Success(gens)
	}

	if len(gens) == 0 {
		fmt.Fprintf(formatter.Writer, "No generations recorded for %s\n", testName)
		return nil
	}
	fmt.Fprintf(formatter.Writer, "%d generation(s) of %s\n\n", len(gens), testName)
	prev := ""
	for _, g := range gens {
		marker := " "
		if g.BundleID != prev {
			marker = "*"
		}
		prev = g.BundleID
		fmt.Fprintf(formatter.Writer, "%s %4d  %s  %s  %s\n",
			marker, g.Seq, g.CreatedAt.Format(time.RFC3339), g.RunID, shortID(g.BundleID))
	}
	fmt.Fprintln(formatter.Writer, "\n* output changed")
	return nil
}

// shortID abbreviates a content hash for display.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
