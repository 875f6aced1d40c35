package locator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/flowgen/internal/ir"
)

// Input error codes (E200-E299). Input errors abort generation before
// anything is written.
const (
	ErrCodeEmptyFlow          = "E201" // no steps
	ErrCodeStepOrder          = "E202" // ordinals not strictly increasing
	ErrCodeMissingTargetLabel = "E203" // step has no usable target text
	ErrCodeInvalidLocator     = "E204" // locator expression does not parse
	ErrCodeUnsupportedAction  = "E205" // unknown action kind
	ErrCodeInvalidModule      = "E206" // locators module cannot be read
)

// InputError is implemented by every coded error. Input errors carry an
// E2xx code.
type InputError interface {
	error
	Code() string
}

// IsInputError returns true if err (or anything it wraps) carries an E2xx
// input error code.
func IsInputError(err error) bool {
	var ie InputError
	return errors.As(err, &ie) && strings.HasPrefix(ie.Code(), "E2")
}

// EmptyFlowError reports an empty step list.
type EmptyFlowError struct{}

func (e *EmptyFlowError) Error() string { return "flow has no steps" }
func (e *EmptyFlowError) Code() string  { return ErrCodeEmptyFlow }

// StepOrderError reports an ordinal that does not follow its predecessor.
type StepOrderError struct {
	Ordinal  int
	Previous int
}

func (e *StepOrderError) Error() string {
	return fmt.Sprintf("step ordinal %d does not follow ordinal %d", e.Ordinal, e.Previous)
}
func (e *StepOrderError) Code() string { return ErrCodeStepOrder }

// MissingTargetLabelError reports a step with no usable target text.
type MissingTargetLabelError struct {
	Ordinal int
	Action  ir.ActionKind
}

func (e *MissingTargetLabelError) Error() string {
	if e.Action == ir.ActionNavigate {
		return fmt.Sprintf("step %d: navigate step has no URL", e.Ordinal)
	}
	return fmt.Sprintf("step %d: %s step has no usable target label", e.Ordinal, e.Action)
}
func (e *MissingTargetLabelError) Code() string { return ErrCodeMissingTargetLabel }

// InvalidLocatorExpressionError reports a locator expression that does not
// parse.
type InvalidLocatorExpressionError struct {
	Ordinal    int // 0 when the expression came from a locators module
	Key        string
	Expression string
	Reason     string
}

func (e *InvalidLocatorExpressionError) Error() string {
	where := fmt.Sprintf("step %d", e.Ordinal)
	if e.Ordinal == 0 {
		where = fmt.Sprintf("key %q", e.Key)
	}
	return fmt.Sprintf("%s: invalid locator expression %q: %s", where, e.Expression, e.Reason)
}
func (e *InvalidLocatorExpressionError) Code() string { return ErrCodeInvalidLocator }

// UnsupportedActionError reports an unknown action kind.
type UnsupportedActionError struct {
	Ordinal int
	Action  ir.ActionKind
}

func (e *UnsupportedActionError) Error() string {
	return fmt.Sprintf("step %d: unsupported action %q", e.Ordinal, e.Action)
}
func (e *UnsupportedActionError) Code() string { return ErrCodeUnsupportedAction }

// ModuleError reports a locators module that cannot be turned into a table.
type ModuleError struct {
	Line    int // 1-based, 0 when unknown
	Message string
}

func (e *ModuleError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("locators module line %d: %s", e.Line, e.Message)
	}
	return "locators module: " + e.Message
}
func (e *ModuleError) Code() string { return ErrCodeInvalidModule }
