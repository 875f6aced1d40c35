package locator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flowgen/internal/classify"
	"github.com/roach88/flowgen/internal/ir"
)

func TestReadModuleDefaultObject(t *testing.T) {
	src := `// generated
export default {
  customer: '#customer',
  'amount': "css=#amount",
  saveButton: ` + "`text=Save`" + `,
  legacyField: '//input[@name="legacy"]',
};
`
	table, err := ReadModule(context.Background(), []byte(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"customer", "amount", "saveButton", "legacyField"}, table.Keys())

	e, _ := table.Get("amount")
	assert.Equal(t, "#amount", e.Expression)
	assert.Equal(t, int(ir.StrategyCSS), e.SourceRank)

	e, _ = table.Get("legacyField")
	assert.Equal(t, `xpath=//input[@name="legacy"]`, e.Expression)
	assert.Equal(t, int(ir.StrategyXPath), e.SourceRank)
}

func TestReadModuleNamedConst(t *testing.T) {
	src := `const locators = {
  amount: 'data-testid=amount',
} as const;

export default locators;
`
	table, err := ReadModule(context.Background(), []byte(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"amount"}, table.Keys())

	e, _ := table.Get("amount")
	assert.Equal(t, "data-testid=amount", e.Expression)
}

func TestReadModuleInfersOccurrences(t *testing.T) {
	src := `export default {
  amount3: '#a3',
  amount: '#a1',
  total2: '#t2',
  amount2: '#a2',
  line10: '#l10',
};`
	table, err := ReadModule(context.Background(), []byte(src))
	require.NoError(t, err)

	// Module order is kept; occurrences follow the suffix number.
	assert.Equal(t, []string{"amount3", "amount", "total2", "amount2", "line10"}, table.Keys())

	occ := table.Occurrences("amount")
	require.Len(t, occ, 3)
	assert.Equal(t, "amount", occ[0].Key)
	assert.Equal(t, "amount2", occ[1].Key)
	assert.Equal(t, 1, occ[1].Occurrence)
	assert.Equal(t, "amount3", occ[2].Key)
	assert.Equal(t, 2, occ[2].Occurrence)

	// No "total" or "line" key, so these stand alone.
	e, _ := table.Get("total2")
	assert.Equal(t, "total2", e.Base)
	assert.Equal(t, 0, e.Occurrence)
	e, _ = table.Get("line10")
	assert.Equal(t, "line10", e.Base)
}

func TestReadModuleErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"syntax error", "export default { amount: '#a' ", "syntax error"},
		{"no default export", "export const locators = { amount: '#a' };", "no default export"},
		{"undeclared identifier", "export default locators;", "not declared"},
		{"not an object", "export default ['#a'];", "not an object literal"},
		{"empty object", "export default {};", "empty"},
		{"non-string value", "export default { amount: 42 };", "not a string literal"},
		{"template substitution", "const id = 'a';\nexport default { amount: `#${id}` };", "not a string literal"},
		{"key not identifier", "export default { 'first name': '#a' };", "not a plain identifier"},
		{"duplicate key", "export default { amount: '#a', amount: '#b' };", "duplicate key"},
		{"spread", "const base = {};\nexport default { ...base, amount: '#a' };", "unsupported property"},
		{"reserved key", "export default { page: '#a' };", "clashes with a page object member"},
		{"case-only difference", "export default { aB: '#a', ab: '#b' };", "differ only in case"},
		{"setter clash", "export default { amount: '#a', setAmount: '#b' };", "clashes with the setter"},
		{"bad expression", "export default { amount: 'input[name=a' };", "invalid locator expression"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ReadModule(context.Background(), []byte(tt.src))
			require.Error(t, err)
			assert.Nil(t, table)
			assert.True(t, IsInputError(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestReadModuleLineNumbers(t *testing.T) {
	src := "export default {\n  amount: '#a',\n  total: 7,\n};\n"
	_, err := ReadModule(context.Background(), []byte(src))

	var target *ModuleError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, 3, target.Line)
}

func TestBindTable(t *testing.T) {
	src := `export default {
  amount: '#a1',
  saveButton: 'text=Save',
  amount2: '#a2',
};`
	table, err := ReadModule(context.Background(), []byte(src))
	require.NoError(t, err)

	res, err := BindTable(table, classify.Default())
	require.NoError(t, err)
	assert.Same(t, table, res.Table)

	require.Len(t, res.Bindings, 3)
	assert.Equal(t, ir.ActionFill, res.Bindings[0].Step.Action)
	assert.Equal(t, ir.ActionClick, res.Bindings[1].Step.Action)
	assert.Equal(t, "amount2", res.Bindings[2].Key)
	assert.Equal(t, "amount", res.Bindings[2].Base)
	assert.Equal(t, 1, res.Bindings[2].Occurrence)

	for i, b := range res.Bindings {
		assert.Equal(t, i+1, b.Step.Ordinal)
	}

	_, err = BindTable(ir.NewLocatorTable(), classify.Default())
	var empty *EmptyFlowError
	require.ErrorAs(t, err, &empty)
}

func TestStepsFromTableResynthesizes(t *testing.T) {
	table := ir.NewLocatorTable()
	require.NoError(t, table.Add(ir.LocatorEntry{Key: "customerName", Expression: "#customer"}))
	require.NoError(t, table.Add(ir.LocatorEntry{Key: "closeIcon", Expression: "text=x"}))

	steps := StepsFromTable(table, classify.Default())
	res, err := Synthesize(steps)
	require.NoError(t, err)
	assert.Equal(t, table.Keys(), res.Table.Keys())
}
