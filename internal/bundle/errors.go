package bundle

import "fmt"

// ErrCodeConsistency is the error code for bundle consistency failures
// (E300-E399 are internal invariant violations).
const ErrCodeConsistency = "E301"

// Consistency checks run by the assembler.
const (
	CheckSyntax        = "syntax"
	CheckLocators      = "locators_module"
	CheckClassName     = "class_name"
	CheckLocatorRef    = "locator_reference"
	CheckLocatorImport = "locators_import"
	CheckPageImport    = "page_import"
	CheckPageVariable  = "page_variable"
	CheckPageMember    = "page_member"
)

// BundleConsistencyError reports emitted modules that disagree with each
// other. It indicates a generator bug, not bad input, and is never retried.
type BundleConsistencyError struct {
	PageName string
	TestName string
	Check    string // one of the Check* constants
	File     string // relative path of the offending module
	Line     int    // 1-based, 0 when unknown
	Detail   string
}

func (e *BundleConsistencyError) Error() string {
	where := e.File
	if e.Line > 0 {
		where = fmt.Sprintf("%s:%d", e.File, e.Line)
	}
	return fmt.Sprintf("bundle %s/%s inconsistent (%s) at %s: %s", e.PageName, e.TestName, e.Check, where, e.Detail)
}

// Code returns ErrCodeConsistency.
func (e *BundleConsistencyError) Code() string { return ErrCodeConsistency }
