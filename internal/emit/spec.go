package emit

import (
	"fmt"
	"strings"

	"github.com/roach88/flowgen/internal/dataplan"
	"github.com/roach88/flowgen/internal/ir"
	"github.com/roach88/flowgen/internal/locator"
)

// StepTitle is the title of the test.step generated for a binding:
// "Step <ordinal>: <Action> <label>".
func StepTitle(b locator.Binding) string {
	label := strings.TrimSpace(b.Step.TargetLabel)
	if b.Step.Action == ir.ActionNavigate && label == "" {
		label = b.URL
	}
	label = strings.Join(strings.Fields(label), " ")
	title := fmt.Sprintf("Step %d: %s", b.Step.Ordinal, b.Step.Action.Title())
	if label != "" {
		title += " " + label
	}
	return title
}

// TestSpec renders the data-driven test module. The test is registered even
// when the manifest disables it, and resolves its data plan at run time with
// the same precedence the planner uses.
func TestSpec(in Input, opts Options) (string, error) {
	if err := ValidateNames(in.PageName, in.TestName); err != nil {
		return "", err
	}
	fallback, err := runtimeFallbacks(in.Plan)
	if err != nil {
		return "", err
	}
	pageVar := PageVariable(in.PageName)

	var w writer
	w.line("import { test, expect } from '@playwright/test';")
	w.line("import * as fs from 'fs';")
	w.line("import { %s } from %s;", in.PageName, Quote(PageImport(in.PageName)))
	w.line("import { datasheetPath, getManifestRow, isExecutable, loadDataRow } from %s;", Quote(opts.helperModule()))
	w.blank()
	w.line("const TEST_CASE_ID = %s;", Quote(in.Plan.TestCaseID))
	w.blank()
	w.line("// Data plan at generation time:")
	writePlanComment(&w, "datasheet", in.Plan.DatasheetName)
	writePlanComment(&w, "sheet tab", in.Plan.SheetTab)
	writePlanComment(&w, "id column", in.Plan.IDColumnName)
	writePlanComment(&w, "reference id", in.Plan.ReferenceID)
	w.blank()

	w.open("test.describe(%s, () => {", Quote(in.Plan.TestCaseID))
	w.line("test.skip(!isExecutable(TEST_CASE_ID), 'Test case ' + TEST_CASE_ID + ' is marked not to execute in the manifest');")
	w.blank()
	w.open("test(%s, async ({ page }, testInfo) => {", Quote(in.TestName))

	w.line("const manifestRow = getManifestRow(TEST_CASE_ID);")
	w.line("const referenceId = process.env[%s] || manifestRow?.ReferenceID || %s;", Quote(opts.referenceEnvVar()), Quote(fallback.ReferenceID))
	w.line("const datasheetName = manifestRow?.DatasheetName || %s;", Quote(fallback.DatasheetName))
	w.line("const idColumnName = manifestRow?.IDName || %s;", Quote(fallback.IDColumnName))
	w.line("const sheetTab = manifestRow?.SheetName || manifestRow?.Sheet || %s;", Quote(fallback.SheetTab))
	w.blank()
	w.line("const dataFile = datasheetPath(datasheetName);")
	w.open("if (!fs.existsSync(dataFile)) {")
	w.line("throw new Error('Datasheet not found: ' + dataFile);")
	w.close("}")
	w.line("const dataRow = loadDataRow(dataFile, sheetTab, referenceId, idColumnName);")
	w.open("if (!dataRow || Object.keys(dataRow).length === 0) {")
	w.line("throw new Error('No data row with ' + idColumnName + ' = ' + referenceId + ' in ' + datasheetName + ' [' + sheetTab + ']');")
	w.close("}")
	w.blank()
	w.line("const %s = new %s(page);", pageVar, in.PageName)
	w.open("const screenshot = async (name: string): Promise<void> => {")
	w.line("await testInfo.attach(name, { body: await page.screenshot(), contentType: 'image/png' });")
	w.close("};")

	for _, b := range in.Bindings {
		w.blank()
		w.open("await test.step(%s, async () => {", Quote(StepTitle(b)))
		w.line("await screenshot(%s);", Quote(fmt.Sprintf("step-%d-before", b.Step.Ordinal)))
		if err := writeStepAction(&w, in, pageVar, b); err != nil {
			return "", err
		}
		w.line("await screenshot(%s);", Quote(fmt.Sprintf("step-%d-after", b.Step.Ordinal)))
		w.close("});")
	}

	w.close("});")
	w.close("});")
	return w.String(), nil
}

func writeStepAction(w *writer, in Input, pageVar string, b locator.Binding) error {
	if b.Step.Action == ir.ActionNavigate {
		w.line("await page.goto(%s);", Quote(b.URL))
		return nil
	}
	if !in.Table.Has(b.Key) {
		return fmt.Errorf("step %d addresses unknown locator key %q", b.Step.Ordinal, b.Key)
	}
	target := pageVar + "." + b.Key

	switch b.Step.Action {
	case ir.ActionClick:
		w.line("await %s.click();", target)
	case ir.ActionFill:
		if in.class(b.Key) == ir.Interactive {
			w.line("await %s.applyData(dataRow, [%s], %d);", pageVar, Quote(b.Base), b.Occurrence)
		} else {
			w.line("await %s.fill(%s);", target, Quote(b.Step.Value))
		}
	case ir.ActionAssert:
		if b.Step.Value != "" {
			w.line("await expect(%s).toContainText(%s);", target, Quote(b.Step.Value))
		} else {
			w.line("await expect(%s).toBeVisible();", target)
		}
	default:
		return fmt.Errorf("step %d: unsupported action %q", b.Step.Ordinal, b.Step.Action)
	}
	return nil
}

// runtimeFallbacks returns the values the generated test falls back to after
// env and manifest. A reference id that came from the environment at
// generation time is not baked in; the derived default is used instead.
func runtimeFallbacks(plan ir.DataResolutionPlan) (dataplan.Defaults, error) {
	d, err := dataplan.Derive(plan.TestCaseID)
	if err != nil {
		return dataplan.Defaults{}, err
	}
	pick := func(r ir.Resolved, derived string) string {
		if r.Value == "" || r.Source == ir.SourceEnv {
			return derived
		}
		return r.Value
	}
	return dataplan.Defaults{
		Stem:          d.Stem,
		DatasheetName: pick(plan.DatasheetName, d.DatasheetName),
		SheetTab:      pick(plan.SheetTab, d.SheetTab),
		IDColumnName:  pick(plan.IDColumnName, d.IDColumnName),
		ReferenceID:   pick(plan.ReferenceID, d.ReferenceID),
	}, nil
}

func writePlanComment(w *writer, name string, r ir.Resolved) {
	value := r.Value
	if r.Source == ir.SourceEnv {
		value = "(environment)"
	}
	w.line("//   %s: %s [%s]", name, strings.Join(strings.Fields(value), " "), r.Source)
}
