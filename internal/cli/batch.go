package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/flowgen/internal/bundle"
	"github.com/roach88/flowgen/internal/compiler"
)

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	GenerationFlags
	Parallel int
}

// BatchFailure is one flow that could not be loaded or generated.
type BatchFailure struct {
	Source  string `json:"source"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BatchResult summarizes a batch run.
type BatchResult struct {
	Generated []GenerateResult `json:"generated"`
	Failed    []BatchFailure   `json:"failed,omitempty"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch <flow-dir>",
		Short: "Generate the test files for every flow in a directory",
		Long: `Compile every flow file (.cue, .yaml, .yml, .json) directly under a
directory. Flows are generated in parallel; a failing flow is reported and
does not stop the others. Flows that would write the same page or test file
are rejected.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, args[0], cmd)
		},
	}

	opts.GenerationFlags.register(cmd)
	cmd.Flags().IntVarP(&opts.Parallel, "parallel", "p", 0, "maximum concurrent generations (default: config, then GOMAXPROCS)")

	return cmd
}

func runBatch(opts *BatchOptions, flowDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	s, err := openSession(opts.RootOptions, &opts.GenerationFlags, true)
	if err != nil {
		return formatter.fail(ExitCommandError, err, nil)
	}
	defer s.Close()

	flows, loadErrs := compiler.LoadFlowDir(flowDir)
	if len(flows) == 0 && len(loadErrs) > 0 {
		return formatter.fail(ExitCommandError, loadErrs[0], nil)
	}

	result := BatchResult{Generated: []GenerateResult{}}
	for _, err := range loadErrs {
		result.Failed = append(result.Failed, BatchFailure{Source: flowDir, Code: errorCode(err), Message: err.Error()})
	}

	reqs := make([]bundle.Request, len(flows))
	for i, f := range flows {
		reqs[i] = bundle.RequestFromFlow(*f)
	}
	limit := opts.Parallel
	if limit <= 0 {
		limit = s.cfg.Parallelism
	}
	formatter.VerboseLog("Generating %d flow(s) from %s", len(flows), flowDir)

	outcomes, err := bundle.GenerateAll(ctx, s.gen, reqs, limit)
	if err != nil {
		return formatter.fail(ExitCommandError, err, nil)
	}

	// Writes and history stay sequential so output order is stable.
	for i, o := range outcomes {
		if o.Err == nil {
			var res GenerateResult
			res, o.Err = s.emit(ctx, *flows[i], o.Bundle)
			if o.Err == nil {
				result.Generated = append(result.Generated, res)
				continue
			}
		}
		s.log.Warn("flow failed", zap.String("flow", flows[i].TestCaseID), zap.Error(o.Err))
		result.Failed = append(result.Failed, BatchFailure{
			Source:  flows[i].TestCaseID,
			Code:    errorCode(o.Err),
			Message: o.Err.Error(),
		})
	}

	if err := outputBatch(formatter, s.cfg.OutDir, result); err != nil {
		return err
	}
	if len(result.Failed) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d flow(s) failed", len(result.Failed), len(result.Failed)+len(result.Generated)))
	}
	return nil
}

func outputBatch(formatter *OutputFormatter, outDir string, result BatchResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "Generated %d bundle(s)\n", len(result.Generated))
	for _, res := range result.Generated {
		fmt.Fprintf(formatter.Writer, "  ✓ %s / %s -> %s\n", res.PageName, res.TestName, joinOut(outDir, res.Files[2]))
	}
	if len(result.Failed) > 0 {
		fmt.Fprintf(formatter.Writer, "\nFailed %d flow(s)\n", len(result.Failed))
		for _, f := range result.Failed {
			fmt.Fprintf(formatter.Writer, "  ✗ %s\n    %s: %s\n", f.Source, f.Code, f.Message)
		}
	}
	return nil
}
