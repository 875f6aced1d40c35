package emit

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flowgen/internal/classify"
	"github.com/roach88/flowgen/internal/dataplan"
	"github.com/roach88/flowgen/internal/ir"
	"github.com/roach88/flowgen/internal/locator"
	"github.com/roach88/flowgen/internal/testutil"
)

func inputFor(t *testing.T, flow ir.Flow) Input {
	t.Helper()
	res, err := locator.Synthesize(flow.Steps)
	require.NoError(t, err)
	plan, err := (&dataplan.Planner{}).Plan(flow.TestCaseID)
	require.NoError(t, err)
	return Input{
		Table:    res.Table,
		Classes:  classify.Default().ClassifyTable(res.Table),
		Bindings: res.Bindings,
		Plan:     plan,
		PageName: flow.PageName,
		TestName: flow.TestName,
	}
}

func TestGolden_InvoiceModules(t *testing.T) {
	in := inputFor(t, testutil.InvoiceFlow())

	page, err := PageObject(in, Options{})
	require.NoError(t, err)
	spec, err := TestSpec(in, Options{})
	require.NoError(t, err)

	testutil.AssertGolden(t, "invoice_locators.ts", []byte(LocatorsModule(in.Table)))
	testutil.AssertGolden(t, "invoice_page.ts", []byte(page))
	testutil.AssertGolden(t, "invoice_spec.ts", []byte(spec))
}

func TestGolden_LenientPage(t *testing.T) {
	in := inputFor(t, testutil.InvoiceFlow())
	page, err := PageObject(in, Options{Policy: Lenient})
	require.NoError(t, err)
	testutil.AssertGolden(t, "invoice_page_lenient.ts", []byte(page))
}

func TestGolden_LoginModules(t *testing.T) {
	in := inputFor(t, testutil.LoginFlow())

	page, err := PageObject(in, Options{})
	require.NoError(t, err)
	spec, err := TestSpec(in, Options{HelperModule: "../support/data", ReferenceEnvVar: "LOGIN_REF"})
	require.NoError(t, err)

	testutil.AssertGolden(t, "login_page.ts", []byte(page))
	testutil.AssertGolden(t, "login_spec.ts", []byte(spec))
}

func TestEmitIsDeterministic(t *testing.T) {
	first := inputFor(t, testutil.InvoiceFlow())
	second := inputFor(t, testutil.InvoiceFlow())

	p1, err := PageObject(first, Options{})
	require.NoError(t, err)
	p2, err := PageObject(second, Options{})
	require.NoError(t, err)
	assert.Equal(t, p1, p2)

	s1, err := TestSpec(first, Options{})
	require.NoError(t, err)
	s2, err := TestSpec(second, Options{})
	require.NoError(t, err)
	assert.Equal(t, s1, s2)

	assert.Equal(t, LocatorsModule(first.Table), LocatorsModule(second.Table))
}

// caseBlock returns the body of "case n: {" up to its break.
func caseBlock(t *testing.T, src string, n int) string {
	t.Helper()
	marker := "case " + strconv.Itoa(n) + ": {"
	start := strings.Index(src, marker)
	require.GreaterOrEqual(t, start, 0, "missing %s", marker)
	end := strings.Index(src[start:], "break;")
	require.Greater(t, end, 0)
	return src[start : start+end]
}

func TestPageObjectOccurrenceIndexing(t *testing.T) {
	in := inputFor(t, testutil.InvoiceFlow())
	page, err := PageObject(in, Options{})
	require.NoError(t, err)

	// applyData(row, ['Amount'], 1) reaches the amount2 setter only.
	one := caseBlock(t, page, 1)
	assert.Contains(t, one, "await this.setAmount2(value);")
	assert.NotContains(t, one, "this.setAmount(")
	assert.Contains(t, one, "this.resolveValue(data, 'amount2', this.resolveValue(data, 'amount'))")

	zero := caseBlock(t, page, 0)
	assert.Contains(t, zero, "await this.setAmount(value);")
	assert.NotContains(t, zero, "setAmount2")

	assert.Contains(t, page, "if (!wanted || wanted.has('amount')) {")
}

func TestPageObjectOccurrencePolicy(t *testing.T) {
	in := inputFor(t, testutil.InvoiceFlow())

	strict, err := PageObject(in, Options{Policy: Strict})
	require.NoError(t, err)
	assert.Contains(t, strict, `throw new Error('applyData: field "amount" has no occurrence ' + occurrenceIndex);`)
	assert.Contains(t, strict, `throw new Error('applyData: field "customer" has no occurrence ' + occurrenceIndex);`)
	// Only explicit requests throw.
	assert.Contains(t, strict, "if (wanted) {")

	lenient, err := PageObject(in, Options{Policy: Lenient})
	require.NoError(t, err)
	assert.NotContains(t, lenient, "throw")
	assert.NotContains(t, lenient, "default:")
}

func TestPageObjectMembers(t *testing.T) {
	in := inputFor(t, testutil.InvoiceFlow())
	page, err := PageObject(in, Options{})
	require.NoError(t, err)

	assert.Contains(t, page, "import locators from '../locators/InvoicePage';")
	assert.Contains(t, page, "export class InvoicePage {")
	for _, key := range in.Table.Keys() {
		assert.Contains(t, page, "readonly "+key+": Locator;")
		assert.Contains(t, page, "this."+key+" = page.locator(locators."+key+");")
	}

	// Setters exist for Interactive fields only.
	assert.Contains(t, page, "async setCustomer(value: unknown): Promise<void> {")
	assert.Contains(t, page, "async setAmount2(value: unknown): Promise<void> {")
	assert.NotContains(t, page, "setSaveAndClose")
	assert.NotContains(t, page, "setSearchIcon")
	assert.NotContains(t, page, "setAddLineButton")
	assert.NotContains(t, page, "wanted.has('saveandclose')")
}

func TestPageObjectWithoutInteractiveFields(t *testing.T) {
	table := ir.NewLocatorTable()
	require.NoError(t, table.Add(ir.LocatorEntry{Key: "saveButton", Expression: "text=Save"}))

	page, err := PageObject(Input{
		Table:    table,
		Classes:  classify.Default().ClassifyTable(table),
		PageName: "SavePage",
		TestName: "save",
	}, Options{})
	require.NoError(t, err)
	assert.Contains(t, page, "void occurrenceIndex;")
	assert.NotContains(t, page, "const wanted")
}

var stepTitle = regexp.MustCompile(`test\.step\('Step (\d+): `)

func TestTestSpecRoundTripOrdering(t *testing.T) {
	for _, flow := range []ir.Flow{testutil.InvoiceFlow(), testutil.LoginFlow()} {
		t.Run(flow.TestName, func(t *testing.T) {
			spec, err := TestSpec(inputFor(t, flow), Options{})
			require.NoError(t, err)

			var ordinals []int
			for _, m := range stepTitle.FindAllStringSubmatch(spec, -1) {
				n, err := strconv.Atoi(m[1])
				require.NoError(t, err)
				ordinals = append(ordinals, n)
			}
			assert.Equal(t, testutil.Ordinals(flow.Steps), ordinals)
		})
	}
}

func TestTestSpecStepActions(t *testing.T) {
	spec, err := TestSpec(inputFor(t, testutil.InvoiceFlow()), Options{})
	require.NoError(t, err)

	assert.Contains(t, spec, "await page.goto('https://erp.example.com/invoices/new');")
	assert.Contains(t, spec, "await invoicePage.applyData(dataRow, ['customer'], 0);")
	assert.Contains(t, spec, "await invoicePage.applyData(dataRow, ['amount'], 0);")
	assert.Contains(t, spec, "await invoicePage.applyData(dataRow, ['amount'], 1);")
	assert.Contains(t, spec, "await invoicePage.addLineButton.click();")
	assert.Contains(t, spec, `await invoicePage.searchIcon.fill('it\'s urgent');`)
	assert.Contains(t, spec, "await expect(invoicePage.status).toContainText('Saved');")
	assert.Contains(t, spec, "await expect(invoicePage.customer).toBeVisible();")
	assert.Contains(t, spec, "await screenshot('step-5-before');")
	assert.Contains(t, spec, "await screenshot('step-5-after');")
}

func TestTestSpecDataResolution(t *testing.T) {
	in := inputFor(t, testutil.InvoiceFlow())
	spec, err := TestSpec(in, Options{})
	require.NoError(t, err)

	assert.Contains(t, spec, "import { InvoicePage } from '../pages/InvoicePage';")
	assert.Contains(t, spec, "from '../utils/testData';")
	assert.Contains(t, spec, "test.skip(!isExecutable(TEST_CASE_ID),")
	assert.Contains(t, spec, "const referenceId = process.env['REFERENCE_ID'] || manifestRow?.ReferenceID || 'CreateInvoice01001';")
	assert.Contains(t, spec, "const datasheetName = manifestRow?.DatasheetName || 'CreateInvoice01Data.xlsx';")
	assert.Contains(t, spec, "const idColumnName = manifestRow?.IDName || 'CreateInvoice01ID';")
	assert.Contains(t, spec, "const sheetTab = manifestRow?.SheetName || manifestRow?.Sheet || 'CreateInvoice01';")
	assert.Contains(t, spec, "if (!fs.existsSync(dataFile)) {")
	assert.Contains(t, spec, "throw new Error('Datasheet not found: ' + dataFile);")
	assert.Contains(t, spec, "throw new Error('No data row with '")
	assert.Contains(t, spec, "const invoicePage = new InvoicePage(page);")
}

func TestTestSpecFallbacks(t *testing.T) {
	in := inputFor(t, testutil.InvoiceFlow())
	in.Plan.DatasheetName = ir.Resolved{Value: "Invoices.xlsx", Source: ir.SourceManifest}
	in.Plan.ReferenceID = ir.Resolved{Value: "FROM-ENV", Source: ir.SourceEnv}

	spec, err := TestSpec(in, Options{})
	require.NoError(t, err)

	assert.Contains(t, spec, "manifestRow?.DatasheetName || 'Invoices.xlsx';")
	assert.Contains(t, spec, "//   datasheet: Invoices.xlsx [manifest]")
	// Generation-time environment values are never baked in.
	assert.NotContains(t, spec, "FROM-ENV")
	assert.Contains(t, spec, "manifestRow?.ReferenceID || 'CreateInvoice01001';")
	assert.Contains(t, spec, "//   reference id: (environment) [env]")
}

func TestTestSpecUnknownKey(t *testing.T) {
	in := inputFor(t, testutil.LoginFlow())
	in.Bindings = append(in.Bindings, locator.Binding{
		Step: ir.RecordedStep{Ordinal: 99, Action: ir.ActionClick, TargetLabel: "Ghost"},
		Key:  "ghost",
	})
	_, err := TestSpec(in, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown locator key "ghost"`)
}

func TestStepTitle(t *testing.T) {
	assert.Equal(t, "Step 3: Fill Amount", StepTitle(locator.Binding{
		Step: ir.RecordedStep{Ordinal: 3, Action: ir.ActionFill, TargetLabel: "  Amount "},
	}))
	assert.Equal(t, "Step 1: Navigate https://x.test", StepTitle(locator.Binding{
		Step: ir.RecordedStep{Ordinal: 1, Action: ir.ActionNavigate}, URL: "https://x.test",
	}))
	assert.Equal(t, "Step 2: Click Save and close", StepTitle(locator.Binding{
		Step: ir.RecordedStep{Ordinal: 2, Action: ir.ActionClick, TargetLabel: "Save\nand   close"},
	}))
}

func TestLocatorsModuleRoundTrip(t *testing.T) {
	in := inputFor(t, testutil.InvoiceFlow())
	src := LocatorsModule(in.Table)

	table, err := locator.ReadModule(context.Background(), []byte(src))
	require.NoError(t, err)
	assert.Equal(t, in.Table.Entries(), table.Entries())
}

func TestLocatorsModuleEmpty(t *testing.T) {
	assert.Equal(t, "const locators = {};\n\nexport default locators;\n", LocatorsModule(ir.NewLocatorTable()))
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "'plain'"},
		{"it's", `'it\'s'`},
		{`a\b`, `'a\\b'`},
		{"line\nbreak\ttab\r", `'line\nbreak\ttab\r'`},
		{"bell\x07", `'bell\x07'`},
		{"sep" + string(rune(0x2028)), `'sep\u2028'`},
		{`say "hi"`, `'say "hi"'`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Quote(tt.in))
	}
}

func TestValidateNames(t *testing.T) {
	require.NoError(t, ValidateNames("InvoicePage", "createInvoice"))

	tests := []struct {
		page, test string
		reason     string
	}{
		{"invoicePage", "x", "upper-case"},
		{"Invoice Page", "x", "not an identifier"},
		{"Page", "x", "shadows the global Page"},
		{"Locator", "x", "shadows the global Locator"},
		{"Promise", "x", "shadows the global Promise"},
		{"Delete", "x", "reserved word"},
		{"New", "x", "reserved word"},
		{"Class", "x", "reserved word"},
		{"DataRow", "x", "shadows a test local"},
		{"InvoicePage", "create-invoice", "not an identifier"},
	}
	for _, tt := range tests {
		err := ValidateNames(tt.page, tt.test)
		var ne *NameError
		require.ErrorAs(t, err, &ne, tt.page)
		assert.Contains(t, ne.Error(), tt.reason)
		assert.True(t, locator.IsInputError(err))
	}
}

func TestParseOccurrencePolicy(t *testing.T) {
	p, err := ParseOccurrencePolicy("")
	require.NoError(t, err)
	assert.Equal(t, Strict, p)

	p, err = ParseOccurrencePolicy(" Lenient ")
	require.NoError(t, err)
	assert.Equal(t, Lenient, p)
	assert.Equal(t, "lenient", p.String())

	_, err = ParseOccurrencePolicy("loose")
	assert.Error(t, err)
}

func TestDefaultNames(t *testing.T) {
	page, test := DefaultNames("create invoice 01")
	assert.Equal(t, "CreateInvoice01Page", page)
	assert.Equal(t, "createInvoice01", test)
	require.NoError(t, ValidateNames(page, test))

	page, test = DefaultNames("--")
	assert.Empty(t, page)
	assert.Empty(t, test)
}
