// Package dataplan decides where a generated test reads its data row.
//
// Each field of a DataResolutionPlan is resolved through a fixed precedence
// chain, highest first:
//
//  1. environment override (reference id only)
//  2. the execution manifest row for the test case
//  3. a default derived from the test case id alone
//
// The planner records which tier supplied every value. It has no side effects
// beyond the injected lookups.
package dataplan

import (
	"errors"
	"strings"

	"github.com/roach88/flowgen/internal/ir"
	"github.com/roach88/flowgen/internal/naming"
)

// DefaultReferenceEnvVar is the environment variable that overrides the
// reference id.
const DefaultReferenceEnvVar = "REFERENCE_ID"

// Suffixes appended to the stem for derived defaults.
const (
	DatasheetSuffix   = "Data.xlsx"
	IDColumnSuffix    = "ID"
	ReferenceIDSuffix = "001"
)

// ErrEmptyTestCaseID is returned for ids without alphanumeric content.
var ErrEmptyTestCaseID = errors.New("test case id has no alphanumeric content")

// DefaultStem collapses non-alphanumeric runs, title-cases each word and
// concatenates: "create invoice 01" -> "CreateInvoice01".
func DefaultStem(testCaseID string) (string, error) {
	stem := naming.Stem(testCaseID)
	if stem == "" {
		return "", ErrEmptyTestCaseID
	}
	return stem, nil
}

// Defaults are the derived values for a test case. They are a pure function
// of the test case id.
type Defaults struct {
	Stem          string
	DatasheetName string
	SheetTab      string
	IDColumnName  string
	ReferenceID   string
}

// Derive computes the derived defaults for testCaseID.
func Derive(testCaseID string) (Defaults, error) {
	stem, err := DefaultStem(testCaseID)
	if err != nil {
		return Defaults{}, err
	}
	return Defaults{
		Stem:          stem,
		DatasheetName: stem + DatasheetSuffix,
		SheetTab:      stem,
		IDColumnName:  stem + IDColumnSuffix,
		ReferenceID:   stem + ReferenceIDSuffix,
	}, nil
}

// EnvLookup reads an environment variable. os.LookupEnv satisfies it.
type EnvLookup func(key string) (string, bool)

// Planner resolves data plans. The zero value plans from derived defaults
// only.
type Planner struct {
	Manifest        ManifestLookup // nil: no manifest tier
	Env             EnvLookup      // nil: no env tier
	ReferenceEnvVar string         // empty: DefaultReferenceEnvVar
}

// Plan resolves the plan for testCaseID.
func (p *Planner) Plan(testCaseID string) (ir.DataResolutionPlan, error) {
	d, err := Derive(testCaseID)
	if err != nil {
		return ir.DataResolutionPlan{}, err
	}

	var row ManifestRow
	if p.Manifest != nil {
		row, _ = p.Manifest.Lookup(testCaseID)
	}

	ref := resolve(row.ReferenceID, d.ReferenceID)
	if v, ok := p.envValue(); ok {
		ref = ir.Resolved{Value: v, Source: ir.SourceEnv}
	}

	return ir.DataResolutionPlan{
		TestCaseID:    testCaseID,
		DatasheetName: resolve(row.DatasheetName, d.DatasheetName),
		SheetTab:      resolve(row.SheetName, d.SheetTab),
		IDColumnName:  resolve(row.IDName, d.IDColumnName),
		ReferenceID:   ref,
	}, nil
}

// EnvVar returns the reference id variable the planner reads.
func (p *Planner) EnvVar() string {
	if p.ReferenceEnvVar == "" {
		return DefaultReferenceEnvVar
	}
	return p.ReferenceEnvVar
}

func (p *Planner) envValue() (string, bool) {
	if p.Env == nil {
		return "", false
	}
	v, ok := p.Env(p.EnvVar())
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func resolve(manifest, derived string) ir.Resolved {
	if v := strings.TrimSpace(manifest); v != "" {
		return ir.Resolved{Value: v, Source: ir.SourceManifest}
	}
	return ir.Resolved{Value: derived, Source: ir.SourceDerived}
}
