package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/flowgen/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                `json:"valid"`
	Flows  int                 `json:"flows"`
	Errors []ValidationProblem `json:"errors,omitempty"`
}

// ValidationProblem is one validation error and the file it came from.
type ValidationProblem struct {
	File    string `json:"file,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <flow-file|flow-dir>",
		Short: "Validate flows without generating code",
		Long: `Validate recorded flows without generating any files.

Performs schema validation, step checks (ordinals, actions, labels and
locator syntax) and, for a directory, output collision checks. All errors
are reported, not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	info, err := os.Stat(path)
	if err != nil {
		return formatter.fail(ExitCommandError, err, nil)
	}

	var (
		problems []ValidationProblem
		flows    int
	)
	if info.IsDir() {
		loaded, errs := compiler.LoadFlowDir(path)
		flows = len(loaded)
		for _, err := range errs {
			// Directory errors are already prefixed with their file.
			problems = append(problems, ValidationProblem{Message: err.Error(), Code: errorCode(err)})
		}
		formatter.VerboseLog("Validated %d flow file(s) in %s", flows+len(errs), path)
	} else {
		if _, err := compiler.LoadFlowFile(path); err != nil {
			problems = toProblems(path, err)
		} else {
			flows = 1
		}
	}

	if len(problems) > 0 {
		return outputValidationErrors(formatter, flows, problems)
	}
	return outputValidateSuccess(formatter, flows)
}

// toProblems flattens a flow file error into one problem per validation
// error.
func toProblems(file string, err error) []ValidationProblem {
	var verrs compiler.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]ValidationProblem, len(verrs))
		for i, e := range verrs {
			out[i] = ValidationProblem{File: file, Field: e.Field, Message: e.Message, Code: e.Code}
		}
		return out
	}

	p := ValidationProblem{File: file, Message: err.Error(), Code: errorCode(err)}
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		p.Field = ce.Field
		if ce.Pos.IsValid() {
			p.Line = ce.Pos.Line()
		}
	}
	return []ValidationProblem{p}
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, flows int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Flows: flows})
	}

	fmt.Fprintf(formatter.Writer, "✓ %d flow(s) valid\n", flows)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, flows int, problems []ValidationProblem) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Flows: flows, Errors: problems},
			Error: &CLIError{
				Code:    problems[0].Code,
				Message: problems[0].Message,
			},
		}
		if err := formatter.encodeIndented(response); err != nil {
			return err
		}
		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(problems)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, p := range problems {
		switch {
		case p.File != "" && p.Line > 0:
			fmt.Fprintf(formatter.Writer, "%s:%d\n", p.File, p.Line)
		case p.File != "":
			fmt.Fprintf(formatter.Writer, "%s\n", p.File)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", p.Code, p.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(problems)))
}
