package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/flowgen/internal/bundle"
	"github.com/roach88/flowgen/internal/compiler"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	GenerationFlags
}

// CheckResult reports whether the files on disk match a fresh generation.
type CheckResult struct {
	UpToDate bool           `json:"up_to_date"`
	BundleID string         `json:"bundle_id"`
	Drift    []bundle.Drift `json:"drift,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <flow-file>",
		Short: "Report generated files that differ from a fresh generation",
		Long: `Regenerate a flow in memory and compare the result with the files under
the output root. Nothing is written. Exits 1 when any file is missing or
differs, printing a line diff per file.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	opts.GenerationFlags.register(cmd)

	return cmd
}

func runCheck(opts *CheckOptions, flowFile string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	flow, err := compiler.LoadFlowFile(flowFile)
	if err != nil {
		return outputCompileError(formatter, err)
	}

	// Checks are not recorded.
	s, err := openSession(opts.RootOptions, &opts.GenerationFlags, false)
	if err != nil {
		return formatter.fail(ExitCommandError, err, nil)
	}
	defer s.Close()

	b, err := s.gen.Generate(cmd.Context(), bundle.RequestFromFlow(*flow))
	if err != nil {
		return formatter.fail(ExitCommandError, err, nil)
	}
	drift, err := bundle.CheckDrift(s.cfg.OutDir, b)
	if err != nil {
		return formatter.fail(ExitCommandError, err, nil)
	}

	result := CheckResult{UpToDate: len(drift) == 0, BundleID: b.ID, Drift: drift}
	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputDrift(formatter, s.cfg.OutDir, result)
	}

	if !result.UpToDate {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d file(s) out of date", ErrCodeDrift, len(drift)))
	}
	return nil
}

func outputDrift(formatter *OutputFormatter, outDir string, result CheckResult) {
	if result.UpToDate {
		fmt.Fprintln(formatter.Writer, "✓ Generated files are up to date")
		return
	}

	fmt.Fprintln(formatter.Writer, "✗ Generated files are out of date")
	fmt.Fprintln(formatter.Writer)
	for _, d := range result.Drift {
		if d.Missing {
			fmt.Fprintf(formatter.Writer, "missing: %s\n\n", joinOut(outDir, d.File))
			continue
		}
		fmt.Fprintln(formatter.Writer, d.Diff)
	}
}
