package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/flowgen/internal/bundle"
	"github.com/roach88/flowgen/internal/ir"
	"github.com/roach88/flowgen/internal/locator"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	GenerationFlags
	TestCaseID string
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <locator-file> <PageName> <testName>",
		Short: "Generate a page object and test from a locators module",
		Long: `Generate a page object and a data-driven test from an existing locators
module (a default-exported mapping from key to locator expression).

Writes locators/<PageName>.ts (normalized), pages/<PageName>.ts and
tests/<testName>.spec.ts under the output root. Keys whose names contain a
deny keyword are clicked; every other key is filled from the data row.`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], args[1], args[2], cmd)
		},
	}

	opts.GenerationFlags.register(cmd)
	cmd.Flags().StringVar(&opts.TestCaseID, "test-case", "", "test case id for the data plan (default: testName)")

	return cmd
}

func runGenerate(opts *GenerateOptions, locatorFile, pageName, testName string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	src, err := os.ReadFile(locatorFile)
	if err != nil {
		return formatter.fail(ExitCommandError, err, nil)
	}
	table, err := locator.ReadModule(ctx, src)
	if err != nil {
		return formatter.fail(ExitCommandError, fmt.Errorf("%s: %w", locatorFile, err), nil)
	}
	formatter.VerboseLog("Read %d locator(s) from %s", table.Len(), locatorFile)

	s, err := openSession(opts.RootOptions, &opts.GenerationFlags, true)
	if err != nil {
		return formatter.fail(ExitCommandError, err, nil)
	}
	defer s.Close()

	req := bundle.Request{
		Locators:   table,
		PageName:   pageName,
		TestName:   testName,
		TestCaseID: opts.TestCaseID,
	}.Resolved()
	b, err := s.gen.Generate(ctx, req)
	if err != nil {
		return formatter.fail(ExitCommandError, err, nil)
	}

	flow := ir.Flow{
		TestCaseID: req.TestCaseID,
		PageName:   b.PageName,
		TestName:   b.TestName,
		Steps:      locator.StepsFromTable(table, s.cfg.Classifier()),
	}
	res, err := s.emit(ctx, flow, b)
	if err != nil {
		return formatter.fail(ExitCommandError, err, nil)
	}
	return outputGenerated(formatter, s.cfg.OutDir, res)
}

// outputGenerated reports one written bundle.
func outputGenerated(formatter *OutputFormatter, outDir string, res GenerateResult) error {
	if formatter.Format == "json" {
		return formatter.SuccessRun(res, res.RunID)
	}

	fmt.Fprintf(formatter.Writer, "✓ Generated %s / %s\n", res.PageName, res.TestName)
	for _, f := range res.Files {
		fmt.Fprintf(formatter.Writer, "  %s\n", joinOut(outDir, f))
	}
	if res.RunID != "" {
		fmt.Fprintf(formatter.Writer, "Recorded run %s\n", res.RunID)
	}
	return nil
}
