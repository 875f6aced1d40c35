package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/flowgen/internal/bundle"
	"github.com/roach88/flowgen/internal/compiler"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	GenerationFlags
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <flow-file>",
		Short: "Generate the test files for a recorded flow",
		Long: `Compile a recorded flow (CUE, YAML or JSON) into a locators module, a page
object and a data-driven test.

The flow is validated against the flow schema first; locator keys are
synthesized from the step labels.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	opts.GenerationFlags.register(cmd)

	return cmd
}

func runCompile(opts *CompileOptions, flowFile string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	flow, err := compiler.LoadFlowFile(flowFile)
	if err != nil {
		return outputCompileError(formatter, err)
	}
	formatter.VerboseLog("Compiled flow %q: %d step(s)", flow.TestCaseID, len(flow.Steps))

	s, err := openSession(opts.RootOptions, &opts.GenerationFlags, true)
	if err != nil {
		return formatter.fail(ExitCommandError, err, nil)
	}
	defer s.Close()

	b, err := s.gen.Generate(ctx, bundle.RequestFromFlow(*flow))
	if err != nil {
		return formatter.fail(ExitCommandError, err, nil)
	}
	res, err := s.emit(ctx, *flow, b)
	if err != nil {
		return formatter.fail(ExitCommandError, err, nil)
	}
	return outputGenerated(formatter, s.cfg.OutDir, res)
}

// outputCompileError reports a flow that failed to load, listing every
// validation error.
func outputCompileError(formatter *OutputFormatter, err error) error {
	var verrs compiler.ValidationErrors
	if !errors.As(err, &verrs) {
		return formatter.fail(ExitCommandError, err, nil)
	}

	if formatter.Format == "json" {
		return formatter.fail(ExitCommandError, err, []compiler.ValidationError(verrs))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range verrs {
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", e.Code, e.Field, e.Message)
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(verrs)))
}
