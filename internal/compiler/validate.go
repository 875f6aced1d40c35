package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/flowgen/internal/emit"
	"github.com/roach88/flowgen/internal/ir"
	"github.com/roach88/flowgen/internal/locator"
)

// Validation error codes (E100-E199)
const (
	ErrFlowSchema      = "E100" // document does not match the flow schema
	ErrFlowNameEmpty   = "E101" // flow name is blank
	ErrFlowNoSteps     = "E102" // at least one step required
	ErrStepOrder       = "E103" // ordinals not strictly increasing
	ErrStepAction      = "E104" // unknown action kind
	ErrStepTarget      = "E105" // element step without label or locator
	ErrNavigateURL     = "E106" // navigate step without URL
	ErrStepLocator     = "E107" // unparseable locator expression
	ErrFlowNames       = "E108" // page or test name unusable
	ErrDuplicateTarget = "E109" // two flows write the same file
)

// ValidationError represents a flow validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors is every problem found in one flow.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks a compiled flow. Returns all errors found (does not
// fail-fast), in step order.
func Validate(flow *ir.Flow) ValidationErrors {
	var errs ValidationErrors

	// E101: name is required
	if strings.TrimSpace(flow.TestCaseID) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "flow name is required",
			Code:    ErrFlowNameEmpty,
		})
	}

	// E108: generated file names must be identifiers
	if err := emit.ValidateNames(flow.PageName, flow.TestName); err != nil {
		field := "page"
		if ne, ok := err.(*emit.NameError); ok && ne.Kind == "test" {
			field = "test"
		}
		errs = append(errs, ValidationError{Field: field, Message: err.Error(), Code: ErrFlowNames})
	}

	// E102: at least one step required
	if len(flow.Steps) == 0 {
		errs = append(errs, ValidationError{
			Field:   "steps",
			Message: "at least one step is required",
			Code:    ErrFlowNoSteps,
		})
	}

	for i, step := range flow.Steps {
		errs = append(errs, validateStep(i, step)...)

		// E103: ordinals strictly increasing
		if i > 0 && step.Ordinal <= flow.Steps[i-1].Ordinal {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("steps[%d].ordinal", i),
				Message: fmt.Sprintf("ordinal %d does not follow %d", step.Ordinal, flow.Steps[i-1].Ordinal),
				Code:    ErrStepOrder,
			})
		}
	}

	return errs
}

// validateStep checks the fields one step needs for its action.
func validateStep(i int, step ir.RecordedStep) []ValidationError {
	var errs []ValidationError
	field := func(name string) string { return fmt.Sprintf("steps[%d].%s", i, name) }

	// E104: known action
	if !ir.ValidActionKinds[step.Action] {
		return []ValidationError{{
			Field:   field("action"),
			Message: fmt.Sprintf("unknown action %q", step.Action),
			Code:    ErrStepAction,
		}}
	}

	if step.Action == ir.ActionNavigate {
		// E106: URL in value or target_label
		if strings.TrimSpace(step.Value) == "" && strings.TrimSpace(step.TargetLabel) == "" {
			errs = append(errs, ValidationError{
				Field:   field("value"),
				Message: "navigate step needs a URL in value or target_label",
				Code:    ErrNavigateURL,
			})
		}
		return errs
	}

	// E105: element steps need a label
	if strings.TrimSpace(step.TargetLabel) == "" {
		errs = append(errs, ValidationError{
			Field:   field("target_label"),
			Message: fmt.Sprintf("%s step needs a target label", step.Action),
			Code:    ErrStepTarget,
		})
	}

	// E105: at least one candidate expression
	candidates := append([]string{step.Locator}, step.Alternatives...)
	usable, invalid := 0, 0
	for j, c := range candidates {
		if strings.TrimSpace(c) == "" {
			continue
		}
		// E107: every candidate must parse
		if _, err := locator.ParseExpression(c); err != nil {
			name := "locator"
			if j > 0 {
				name = fmt.Sprintf("alternatives[%d]", j-1)
			}
			errs = append(errs, ValidationError{
				Field:   field(name),
				Message: fmt.Sprintf("invalid locator %q: %v", c, err),
				Code:    ErrStepLocator,
			})
			invalid++
			continue
		}
		usable++
	}
	if usable == 0 && invalid == 0 {
		errs = append(errs, ValidationError{
			Field:   field("locator"),
			Message: fmt.Sprintf("%s step needs a locator", step.Action),
			Code:    ErrStepTarget,
		})
	}

	return errs
}
