// Package compiler turns recorded flow documents (CUE, YAML or JSON) into
// validated ir.Flow values.
package compiler

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/flowgen/internal/emit"
	"github.com/roach88/flowgen/internal/ir"
)

//go:embed schema.cue
var schemaSource string

const schemaFilename = "flow_schema.cue"

// CompileFlow parses a CUE value into a Flow.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the flow struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`flow: { name: "login 02", steps: [...] }`)
//	flow, err := CompileFlow(v.LookupPath(cue.ParsePath("flow")))
//
// The value is unified with the embedded #Flow schema, so unknown fields and
// mistyped values are rejected with their source position. Missing page and
// test names are derived from the flow name.
func CompileFlow(v cue.Value) (*ir.Flow, error) {
	if !v.Exists() {
		return nil, &CompileError{Field: "flow", Message: "flow is required"}
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schema := v.Context().CompileString(schemaSource, cue.Filename(schemaFilename))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile flow schema: %w", err)
	}
	checked := schema.LookupPath(cue.ParsePath("#Flow")).Unify(v)
	if err := checked.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	flow := &ir.Flow{}
	name, err := checked.LookupPath(cue.ParsePath("name")).String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	flow.TestCaseID = name

	if flow.PageName, err = optionalString(checked, "page"); err != nil {
		return nil, err
	}
	if flow.TestName, err = optionalString(checked, "test"); err != nil {
		return nil, err
	}
	page, test := emit.DefaultNames(flow.TestCaseID)
	if flow.PageName == "" {
		flow.PageName = page
	}
	if flow.TestName == "" {
		flow.TestName = test
	}

	flow.Steps, err = parseSteps(checked.LookupPath(cue.ParsePath("steps")))
	if err != nil {
		return nil, err
	}
	if len(flow.Steps) == 0 {
		return nil, &CompileError{
			Field:   "steps",
			Message: "at least one step is required",
			Pos:     v.Pos(),
		}
	}

	return flow, nil
}

// parseSteps decodes the step list. Schema checks already ran, so only the
// decoding itself can fail here.
func parseSteps(v cue.Value) ([]ir.RecordedStep, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var steps []ir.RecordedStep
	for i := 0; iter.Next(); i++ {
		var step ir.RecordedStep
		if err := iter.Value().Decode(&step); err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("steps[%d]", i),
				Message: err.Error(),
				Pos:     iter.Value().Pos(),
			}
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Code returns ErrFlowSchema.
func (e *CompileError) Code() string { return ErrFlowSchema }

// formatCUEError extracts position info from CUE errors. Positions inside the
// embedded schema are skipped in favour of the document's own.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	field := strings.Join(firstErr.Path(), ".")
	if field == "" {
		field = "cue"
	}
	format, args := firstErr.Msg()

	ce := &CompileError{Field: field, Message: fmt.Sprintf(format, args...)}
	for _, pos := range errors.Positions(firstErr) {
		if pos.Filename() != schemaFilename {
			ce.Pos = pos
			break
		}
	}
	return ce
}
