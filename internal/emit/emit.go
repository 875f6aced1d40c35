// Package emit renders the three TypeScript modules of a bundle: the locators
// module, the page-object class and the data-driven Playwright test.
//
// Emitters are pure functions of their input. Output uses two-space
// indentation, single-quoted strings and "\n" line endings so that the same
// input is always byte-identical.
package emit

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/flowgen/internal/dataplan"
	"github.com/roach88/flowgen/internal/ir"
	"github.com/roach88/flowgen/internal/locator"
	"github.com/roach88/flowgen/internal/naming"
)

// DefaultHelperModule is the import path of the runtime data helpers
// (getManifestRow, isExecutable, loadDataRow, datasheetPath), relative to
// the tests directory.
const DefaultHelperModule = "../utils/testData"

// OccurrencePolicy decides what applyData does when a field is requested
// with an occurrence index that has no suffixed key.
type OccurrencePolicy int

const (
	// Strict throws from applyData when the field was requested by name.
	Strict OccurrencePolicy = iota
	// Lenient ignores the request.
	Lenient
)

func (p OccurrencePolicy) String() string {
	if p == Lenient {
		return "lenient"
	}
	return "strict"
}

// ParseOccurrencePolicy parses "strict" or "lenient". Empty means Strict.
func ParseOccurrencePolicy(s string) (OccurrencePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	default:
		return Strict, fmt.Errorf("unknown occurrence policy %q (want strict or lenient)", s)
	}
}

// Options tune the emitted code.
type Options struct {
	Policy          OccurrencePolicy
	HelperModule    string // empty: DefaultHelperModule
	ReferenceEnvVar string // empty: dataplan.DefaultReferenceEnvVar
}

func (o Options) helperModule() string {
	if o.HelperModule == "" {
		return DefaultHelperModule
	}
	return o.HelperModule
}

func (o Options) referenceEnvVar() string {
	if o.ReferenceEnvVar == "" {
		return dataplan.DefaultReferenceEnvVar
	}
	return o.ReferenceEnvVar
}

// Input is everything the emitters need for one bundle.
type Input struct {
	Table    *ir.LocatorTable
	Classes  map[string]ir.FieldClass // keys missing here are Interactive
	Bindings []locator.Binding        // one per recorded step, in step order
	Plan     ir.DataResolutionPlan
	PageName string
	TestName string
}

func (in Input) class(key string) ir.FieldClass {
	return in.Classes[key]
}

// File layout, relative to the output root.
func LocatorsFile(pageName string) string { return "locators/" + pageName + ".ts" }
func PageFile(pageName string) string     { return "pages/" + pageName + ".ts" }
func TestFile(testName string) string     { return "tests/" + testName + ".spec.ts" }

// Import specifiers between the emitted files.
func LocatorsImport(pageName string) string { return "../locators/" + pageName }
func PageImport(pageName string) string     { return "../pages/" + pageName }

// PageVariable is the name of the page-object instance in the test module.
func PageVariable(pageName string) string { return naming.LowerFirst(pageName) }

// DefaultNames derives the page class and test names from a test case id:
// "create invoice 01" -> ("CreateInvoice01Page", "createInvoice01").
func DefaultNames(testCaseID string) (pageName, testName string) {
	base := naming.PascalCase(testCaseID)
	if base == "" {
		return "", ""
	}
	return base + "Page", naming.CamelCase(testCaseID)
}

// Names the test module declares itself. The page variable must not shadow
// them.
var testLocals = []string{
	"page", "testInfo", "test", "expect", "fs", "locators",
	"manifestRow", "referenceId", "datasheetName", "idColumnName", "sheetTab",
	"dataFile", "dataRow", "screenshot",
	"getManifestRow", "isExecutable", "loadDataRow", "datasheetPath",
}

// Global names the emitted modules reference. A page class must not shadow
// them.
var moduleGlobals = []string{"Locator", "Page", "Error", "Object", "Promise", "Record", "String"}

// ErrCodeInvalidName is the input error code for unusable page or test names.
const ErrCodeInvalidName = "E207"

// NameError reports an unusable page or test name.
type NameError struct {
	Kind   string // "page" or "test"
	Name   string
	Reason string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("invalid %s name %q: %s", e.Kind, e.Name, e.Reason)
}
func (e *NameError) Code() string { return ErrCodeInvalidName }

// ValidateNames checks that pageName is a PascalCase identifier that shadows
// no imported or global name, whose variable form is neither a reserved word
// nor a test local, and that testName is an identifier.
func ValidateNames(pageName, testName string) error {
	if !naming.IsIdentifier(pageName) {
		return &NameError{Kind: "page", Name: pageName, Reason: "not an identifier"}
	}
	if pageName[0] < 'A' || pageName[0] > 'Z' {
		return &NameError{Kind: "page", Name: pageName, Reason: "must start with an upper-case letter"}
	}
	if slices.Contains(moduleGlobals, pageName) {
		return &NameError{Kind: "page", Name: pageName, Reason: "shadows the global " + pageName}
	}
	if naming.IsReservedWord(PageVariable(pageName)) {
		return &NameError{Kind: "page", Name: pageName, Reason: "page variable " + PageVariable(pageName) + " is a reserved word"}
	}
	if slices.Contains(testLocals, PageVariable(pageName)) {
		return &NameError{Kind: "page", Name: pageName, Reason: "page variable " + PageVariable(pageName) + " shadows a test local"}
	}
	if !naming.IsIdentifier(testName) {
		return &NameError{Kind: "test", Name: testName, Reason: "not an identifier"}
	}
	return nil
}
