package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/flowgen/internal/dataplan"
	"github.com/roach88/flowgen/internal/ir"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	Manifest string
	NoEnv    bool
}

// PlanResult is a resolved data plan together with the inputs that shaped it.
type PlanResult struct {
	ir.DataResolutionPlan
	EnvVar  string `json:"env_var"`
	Execute bool   `json:"execute"` // false when the manifest row skips the test
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan <testCaseId>",
		Short: "Show where a test reads its data row",
		Long: `Resolve the data plan for a test case and show which tier supplied each
value: env (reference id only), manifest, or derived.

The environment tier reads the configured reference id variable from the
current environment, as the generated test does at run time.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "manifest YAML (default: config)")
	cmd.Flags().BoolVar(&opts.NoEnv, "no-env", false, "ignore the environment override")

	return cmd
}

func runPlan(opts *PlanOptions, testCaseID string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.settings()
	if err != nil {
		return formatter.fail(ExitCommandError, &configError{err: err}, nil)
	}
	if opts.Manifest != "" {
		cfg.Manifest = opts.Manifest
	}
	manifest, err := cfg.LoadManifest()
	if err != nil {
		return formatter.fail(ExitCommandError, &configError{err: err}, nil)
	}

	planner := &dataplan.Planner{Manifest: manifest, ReferenceEnvVar: cfg.ReferenceEnvVar}
	if !opts.NoEnv {
		planner.Env = os.LookupEnv
	}
	plan, err := planner.Plan(testCaseID)
	if err != nil {
		return formatter.fail(ExitCommandError, err, nil)
	}

	result := PlanResult{DataResolutionPlan: plan, EnvVar: planner.EnvVar(), Execute: true}
	if manifest != nil {
		if row, ok := manifest.Lookup(testCaseID); ok {
			result.Execute = row.Executable()
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "Data plan for %q\n\n", plan.TestCaseID)
	rows := []struct {
		name string
		r    ir.Resolved
	}{
		{"datasheet", plan.DatasheetName},
		{"sheet", plan.SheetTab},
		{"id column", plan.IDColumnName},
		{"reference id", plan.ReferenceID},
	}
	for _, row := range rows {
		fmt.Fprintf(formatter.Writer, "  %-13s %-28s (%s)\n", row.name, row.r.Value, row.r.Source)
	}
	if !result.Execute {
		fmt.Fprintln(formatter.Writer, "\nThe manifest marks this test as skipped.")
	}
	return nil
}
