package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBundle() *ArtifactBundle {
	return &ArtifactBundle{
		PageName:         "InvoicePage",
		TestName:         "createInvoice",
		LocatorsModule:   "const locators = {};\n",
		PageObjectModule: "export class InvoicePage {}\n",
		TestSpecModule:   "test('createInvoice', async () => {});\n",
		LocatorsFile:     "locators/InvoicePage.ts",
		PageFile:         "pages/InvoicePage.ts",
		TestFile:         "tests/createInvoice.spec.ts",
	}
}

func TestBundleIDDeterminism(t *testing.T) {
	id1, err := BundleID(sampleBundle())
	require.NoError(t, err)
	id2, err := BundleID(sampleBundle())
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "BundleID must be deterministic")
	assert.Len(t, id1, 64, "SHA-256 hex is 64 characters")
}

func TestBundleIDIgnoresIDField(t *testing.T) {
	b := sampleBundle()
	before := MustBundleID(b)
	b.ID = before
	assert.Equal(t, before, MustBundleID(b))
}

func TestBundleIDChangesWithContent(t *testing.T) {
	base := MustBundleID(sampleBundle())

	changed := sampleBundle()
	changed.PageObjectModule += "// edit\n"
	renamed := sampleBundle()
	renamed.TestName = "createInvoice2"

	assert.NotEqual(t, base, MustBundleID(changed))
	assert.NotEqual(t, base, MustBundleID(renamed))
}

func TestFlowHash(t *testing.T) {
	steps := []RecordedStep{
		{Ordinal: 1, Action: ActionNavigate, Value: "https://example.test"},
		{Ordinal: 2, Action: ActionFill, TargetLabel: "Amount", Locator: "#amount", Value: "10"},
	}

	h1, err := FlowHash(steps)
	require.NoError(t, err)
	h2, err := FlowHash(steps)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	reordered := []RecordedStep{steps[1], steps[0]}
	h3, err := FlowHash(reordered)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3, "step order is part of the flow identity")
}

func TestHashWithDomainSeparation(t *testing.T) {
	data := []byte(`{"a":1}`)
	assert.NotEqual(t, hashWithDomain(DomainBundle, data), hashWithDomain(DomainFlow, data))
}
