package dataplan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flowgen/internal/ir"
)

func TestDefaultStem(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"create invoice 01", "CreateInvoice01"},
		{"Create Invoice 01", "CreateInvoice01"},
		{"  create--invoice__01  ", "CreateInvoice01"},
		{"TC 042: login", "TC042Login"},
		{"already CamelCase", "AlreadyCamelCase"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := DefaultStem(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := DefaultStem(" -- ")
	assert.ErrorIs(t, err, ErrEmptyTestCaseID)
}

func TestPlanDerivedDefaults(t *testing.T) {
	p := &Planner{}
	plan, err := p.Plan("Create Invoice 01")
	require.NoError(t, err)

	assert.Equal(t, "Create Invoice 01", plan.TestCaseID)
	assert.Equal(t, ir.Resolved{Value: "CreateInvoice01Data.xlsx", Source: ir.SourceDerived}, plan.DatasheetName)
	assert.Equal(t, ir.Resolved{Value: "CreateInvoice01ID", Source: ir.SourceDerived}, plan.IDColumnName)
	assert.Equal(t, ir.Resolved{Value: "CreateInvoice01001", Source: ir.SourceDerived}, plan.ReferenceID)
	assert.Equal(t, ir.Resolved{Value: "CreateInvoice01", Source: ir.SourceDerived}, plan.SheetTab)
}

func TestPlanPrecedence(t *testing.T) {
	manifest := NewStaticManifest(ManifestRow{
		TestCaseID:    "create-invoice-01",
		DatasheetName: "Invoices.xlsx",
		ReferenceID:   "INV-7",
		SheetName:     "  ",
	})
	env := func(key string) (string, bool) {
		if key == "INVOICE_REF" {
			return "INV-ENV", true
		}
		return "", false
	}

	t.Run("manifest over derived", func(t *testing.T) {
		p := &Planner{Manifest: manifest}
		plan, err := p.Plan("Create Invoice 01")
		require.NoError(t, err)

		assert.Equal(t, ir.Resolved{Value: "Invoices.xlsx", Source: ir.SourceManifest}, plan.DatasheetName)
		assert.Equal(t, ir.Resolved{Value: "INV-7", Source: ir.SourceManifest}, plan.ReferenceID)
		// Blank manifest cells fall through.
		assert.Equal(t, ir.SourceDerived, plan.SheetTab.Source)
		assert.Equal(t, ir.SourceDerived, plan.IDColumnName.Source)
	})

	t.Run("env over manifest", func(t *testing.T) {
		p := &Planner{Manifest: manifest, Env: env, ReferenceEnvVar: "INVOICE_REF"}
		plan, err := p.Plan("Create Invoice 01")
		require.NoError(t, err)

		assert.Equal(t, ir.Resolved{Value: "INV-ENV", Source: ir.SourceEnv}, plan.ReferenceID)
		// Env only overrides the reference id.
		assert.Equal(t, ir.SourceManifest, plan.DatasheetName.Source)
	})

	t.Run("blank env ignored", func(t *testing.T) {
		p := &Planner{Env: func(string) (string, bool) { return "  ", true }}
		plan, err := p.Plan("Create Invoice 01")
		require.NoError(t, err)
		assert.Equal(t, ir.SourceDerived, plan.ReferenceID.Source)
		assert.Equal(t, DefaultReferenceEnvVar, p.EnvVar())
	})
}

func TestPlanIsDeterministic(t *testing.T) {
	p := &Planner{Manifest: NewStaticManifest(ManifestRow{TestCaseID: "x", IDName: "Key"})}
	first, err := p.Plan("x")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := p.Plan("x")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPlanEmptyID(t *testing.T) {
	_, err := (&Planner{}).Plan("")
	assert.ErrorIs(t, err, ErrEmptyTestCaseID)
}

func TestExecutable(t *testing.T) {
	for _, v := range []string{"", " ", "yes", "Y", "true", "1", "TRUE"} {
		assert.True(t, ManifestRow{Execute: v}.Executable(), v)
	}
	for _, v := range []string{"no", "N", "false", "0", " Skip "} {
		assert.False(t, ManifestRow{Execute: v}.Executable(), v)
	}
}

func TestStaticManifestTolerantLookup(t *testing.T) {
	m := NewStaticManifest(
		ManifestRow{TestCaseID: "Create Invoice 01", ReferenceID: "first"},
		ManifestRow{TestCaseID: "create_invoice_01", ReferenceID: "second"},
		ManifestRow{TestCaseID: ""},
	)

	row, ok := m.Lookup("CREATE-INVOICE-01")
	require.True(t, ok)
	assert.Equal(t, "first", row.ReferenceID)
	assert.Len(t, m.Rows(), 1)

	_, ok = m.Lookup("other")
	assert.False(t, ok)
}

func TestLoadManifestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	data := `rows:
  - TestCaseID: Create Invoice 01
    DatasheetName: Invoices.xlsx
    ReferenceID: 007
    ID Name: InvoiceKey
    Sheet: Alias
    SheetName: Invoices
    Execute: "no"
    Owner: finance
  - test_case_id: Pay Invoice
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	m, err := LoadManifestFile(path)
	require.NoError(t, err)

	row, ok := m.Lookup("create invoice 01")
	require.True(t, ok)
	assert.Equal(t, ManifestRow{
		TestCaseID:    "Create Invoice 01",
		DatasheetName: "Invoices.xlsx",
		ReferenceID:   "007",
		IDName:        "InvoiceKey",
		SheetName:     "Invoices",
		Execute:       "no",
	}, row)
	assert.False(t, row.Executable())

	row, ok = m.Lookup("PayInvoice")
	require.True(t, ok)
	assert.True(t, row.Executable())
}

func TestParseManifestErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		msg  string
	}{
		{"unknown top-level field", "row: []\n", "failed to parse"},
		{"missing id", "rows:\n  - DatasheetName: a.xlsx\n", "TestCaseID is required"},
		{"duplicate id", "rows:\n  - TestCaseID: A 1\n  - TestCaseID: a-1\n", "already listed in row 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	_, err := LoadManifestFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
