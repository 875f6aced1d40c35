package locator

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flowgen/internal/ir"
)

func fill(ordinal int, label, locator string) ir.RecordedStep {
	return ir.RecordedStep{Ordinal: ordinal, Action: ir.ActionFill, TargetLabel: label, Locator: locator}
}

func click(ordinal int, label, locator string) ir.RecordedStep {
	return ir.RecordedStep{Ordinal: ordinal, Action: ir.ActionClick, TargetLabel: label, Locator: locator}
}

func TestSynthesizeCollisionSuffixing(t *testing.T) {
	res, err := Synthesize([]ir.RecordedStep{
		fill(1, "Amount", "#amount-1"),
		fill(2, "Amount", "#amount-2"),
		fill(3, "Amount", "#amount-3"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"amount", "amount2", "amount3"}, res.Table.Keys())
	for i, e := range res.Table.Entries() {
		assert.Equal(t, "amount", e.Base)
		assert.Equal(t, i, e.Occurrence)
	}
	assert.Equal(t, 1, res.Bindings[1].Occurrence)
	assert.Equal(t, "amount2", res.Bindings[1].Key)
}

func TestSynthesizeReusesIdenticalExpression(t *testing.T) {
	res, err := Synthesize([]ir.RecordedStep{
		fill(1, "Amount", "#amount-1"),
		fill(2, "Amount", "#amount-2"),
		click(3, "Amount", "css=#amount-1"),
		fill(4, "Amount", "#amount-2"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"amount", "amount2"}, res.Table.Keys())
	keys := make([]string, len(res.Bindings))
	for i, b := range res.Bindings {
		keys[i] = b.Key
	}
	assert.Equal(t, []string{"amount", "amount2", "amount", "amount2"}, keys)
}

func TestSynthesizeLabelsNormalizingToSameKey(t *testing.T) {
	res, err := Synthesize([]ir.RecordedStep{
		fill(1, "First Name", "#first"),
		fill(2, "first-name", "#given"),
		fill(3, "FIRST name!", "#first"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"firstName", "firstName2"}, res.Table.Keys())
	assert.Equal(t, "firstName", res.Bindings[2].Key)
}

func TestSynthesizeReservedNames(t *testing.T) {
	res, err := Synthesize([]ir.RecordedStep{
		fill(1, "Page", "#page"),
		fill(2, "Apply Data", "#apply"),
		fill(3, "constructor", "#ctor"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"pageField", "applyDataField", "constructorField"}, res.Table.Keys())

	res, err = New(WithReserved("amount")).Synthesize([]ir.RecordedStep{fill(1, "Amount", "#a")})
	require.NoError(t, err)
	assert.Equal(t, []string{"amountField"}, res.Table.Keys())
}

func TestSynthesizeSetterClashes(t *testing.T) {
	res, err := Synthesize([]ir.RecordedStep{
		fill(1, "Amount", "#amount"),
		fill(2, "Set Amount", "#set-amount"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"amount", "setAmountField"}, res.Table.Keys())

	res, err = Synthesize([]ir.RecordedStep{
		fill(1, "Set Amount", "#set-amount"),
		fill(2, "Amount", "#amount"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"setAmount", "amountField"}, res.Table.Keys())
}

func TestSynthesizePicksBestAlternative(t *testing.T) {
	step := fill(1, "Amount", "//input[@id='amount']")
	step.Alternatives = []string{"#amount", "data-testid=amount", "role=textbox[name=\"Amount\"]"}

	res, err := Synthesize([]ir.RecordedStep{step})
	require.NoError(t, err)

	e, ok := res.Table.Get("amount")
	require.True(t, ok)
	assert.Equal(t, "data-testid=amount", e.Expression)
	assert.Equal(t, int(ir.StrategyTestID), e.SourceRank)
}

func TestSynthesizeXPathIsLastResort(t *testing.T) {
	res, err := Synthesize([]ir.RecordedStep{fill(1, "Amount", "//input[@id='amount']")})
	require.NoError(t, err)

	e, _ := res.Table.Get("amount")
	assert.Equal(t, "xpath=//input[@id='amount']", e.Expression)
	assert.Equal(t, int(ir.StrategyXPath), e.SourceRank)
}

func TestSynthesizeNavigate(t *testing.T) {
	res, err := Synthesize([]ir.RecordedStep{
		{Ordinal: 1, Action: ir.ActionNavigate, Value: "https://app.example.com/invoices"},
		{Ordinal: 2, Action: ir.ActionNavigate, TargetLabel: "/login"},
		click(3, "Save", "text=Save"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"save"}, res.Table.Keys())
	require.Len(t, res.Bindings, 3)
	assert.Equal(t, "https://app.example.com/invoices", res.Bindings[0].URL)
	assert.Empty(t, res.Bindings[0].Key)
	assert.Equal(t, "/login", res.Bindings[1].URL)
}

func TestSynthesizeInputErrors(t *testing.T) {
	tests := []struct {
		name  string
		steps []ir.RecordedStep
		check func(t *testing.T, err error)
	}{
		{
			name:  "empty flow",
			steps: nil,
			check: func(t *testing.T, err error) {
				var target *EmptyFlowError
				require.ErrorAs(t, err, &target)
			},
		},
		{
			name:  "ordinals out of order",
			steps: []ir.RecordedStep{fill(3, "A", "#a"), fill(2, "B", "#b")},
			check: func(t *testing.T, err error) {
				var target *StepOrderError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, 2, target.Ordinal)
				assert.Equal(t, 3, target.Previous)
			},
		},
		{
			name:  "duplicate ordinal",
			steps: []ir.RecordedStep{fill(1, "A", "#a"), fill(1, "B", "#b")},
			check: func(t *testing.T, err error) {
				var target *StepOrderError
				require.ErrorAs(t, err, &target)
			},
		},
		{
			name:  "label without alphanumerics",
			steps: []ir.RecordedStep{fill(1, "A", "#a"), fill(2, " -- ", "#b")},
			check: func(t *testing.T, err error) {
				var target *MissingTargetLabelError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, 2, target.Ordinal)
			},
		},
		{
			name:  "navigate without url",
			steps: []ir.RecordedStep{{Ordinal: 1, Action: ir.ActionNavigate}},
			check: func(t *testing.T, err error) {
				var target *MissingTargetLabelError
				require.ErrorAs(t, err, &target)
				assert.Contains(t, err.Error(), "no URL")
			},
		},
		{
			name:  "invalid locator",
			steps: []ir.RecordedStep{fill(1, "Amount", "input[name=amount")},
			check: func(t *testing.T, err error) {
				var target *InvalidLocatorExpressionError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, 1, target.Ordinal)
				assert.Equal(t, "input[name=amount", target.Expression)
			},
		},
		{
			name: "invalid alternative",
			steps: []ir.RecordedStep{{
				Ordinal: 1, Action: ir.ActionFill, TargetLabel: "Amount",
				Locator: "#amount", Alternatives: []string{"bogus=1"},
			}},
			check: func(t *testing.T, err error) {
				var target *InvalidLocatorExpressionError
				require.ErrorAs(t, err, &target)
			},
		},
		{
			name:  "unsupported action",
			steps: []ir.RecordedStep{{Ordinal: 1, Action: "hover", TargetLabel: "Menu", Locator: "#menu"}},
			check: func(t *testing.T, err error) {
				var target *UnsupportedActionError
				require.ErrorAs(t, err, &target)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Synthesize(tt.steps)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, IsInputError(err))
			tt.check(t, err)
		})
	}
}

func TestSynthesizeDeterministicAndUnique(t *testing.T) {
	steps := []ir.RecordedStep{
		{Ordinal: 1, Action: ir.ActionNavigate, Value: "/invoices/new"},
		fill(2, "Customer", "#customer"),
		fill(3, "Amount", "#line-1 .amount"),
		click(4, "Add Line Button", "role=button[name=\"Add line\"]"),
		fill(5, "Amount", "#line-2 .amount"),
		fill(6, "amount", "#line-1 .amount"),
		fill(7, "Amount 2", "#amount-two"),
		click(8, "Save and Close", "text=Save and close"),
	}

	first, err := Synthesize(steps)
	require.NoError(t, err)
	second, err := Synthesize(steps)
	require.NoError(t, err)

	assert.Equal(t, first.Table.Entries(), second.Table.Entries())
	assert.Equal(t, first.Bindings, second.Bindings)

	seen := make(map[string]bool)
	for _, k := range first.Table.Keys() {
		assert.False(t, seen[k], "duplicate key %s", k)
		seen[k] = true
	}
	assert.Len(t, first.Bindings, len(steps))
	for i, b := range first.Bindings {
		assert.Equal(t, steps[i].Ordinal, b.Step.Ordinal)
	}
}

func TestSynthesizeCaseOnlyDifferencesShareAGroup(t *testing.T) {
	res, err := Synthesize([]ir.RecordedStep{
		fill(1, "a b", "#first"),
		fill(2, "ab", "#second"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"aB", "aB2"}, res.Table.Keys())
	assert.Equal(t, "aB", res.Bindings[1].Base)
	assert.Equal(t, 1, res.Bindings[1].Occurrence)
}

func TestSynthesizeNumberedLabelsStayOffSuffixes(t *testing.T) {
	res, err := Synthesize([]ir.RecordedStep{
		fill(1, "Amount", "#a1"),
		fill(2, "Amount 2", "#total"),
		fill(3, "Amount", "#a3"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"amount", "amount2Field", "amount2"}, res.Table.Keys())
	assert.Equal(t, "amount", res.Bindings[2].Base)
	assert.Equal(t, 1, res.Bindings[2].Occurrence)
	assert.Equal(t, "amount2Field", res.Bindings[1].Base)
	assert.Equal(t, 0, res.Bindings[1].Occurrence)
}

func TestSynthesizeNumberedLabels(t *testing.T) {
	res, err := Synthesize([]ir.RecordedStep{fill(1, "Line 1", "#line-1")})
	require.NoError(t, err)
	assert.Equal(t, []string{"line1"}, res.Table.Keys())

	res, err = Synthesize([]ir.RecordedStep{
		fill(1, "Line 1", "#line-1"),
		fill(2, "Line 1", "#line-1b"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"line1Field", "line1Field2"}, res.Table.Keys())
}

func TestSynthesizeTableReadsBack(t *testing.T) {
	steps := []ir.RecordedStep{
		fill(1, "Amount", "#a1"),
		fill(2, "Amount 2", "#total"),
		fill(3, "Amount", "#a3"),
		fill(4, "Line 1", "#l1"),
		fill(5, "Amount", "#a5"),
	}
	res, err := Synthesize(steps)
	require.NoError(t, err)

	var src strings.Builder
	src.WriteString("const locators = {\n")
	for _, e := range res.Table.Entries() {
		fmt.Fprintf(&src, "  %s: '%s',\n", e.Key, e.Expression)
	}
	src.WriteString("};\n\nexport default locators;\n")

	table, err := ReadModule(context.Background(), []byte(src.String()))
	require.NoError(t, err)
	assert.Equal(t, res.Table.Entries(), table.Entries())
}
