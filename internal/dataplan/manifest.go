package dataplan

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/flowgen/internal/naming"
)

// ManifestRow is one row of the execution manifest.
type ManifestRow struct {
	TestCaseID    string `json:"test_case_id"`
	DatasheetName string `json:"datasheet_name,omitempty"`
	ReferenceID   string `json:"reference_id,omitempty"`
	IDName        string `json:"id_name,omitempty"`
	SheetName     string `json:"sheet_name,omitempty"`
	Execute       string `json:"execute,omitempty"`
}

// Executable reports whether the row's execute flag allows running the test.
// Blank means run; only an explicit no / n / false / 0 / skip skips.
func (r ManifestRow) Executable() bool {
	switch strings.ToLower(strings.TrimSpace(r.Execute)) {
	case "no", "n", "false", "0", "skip":
		return false
	default:
		return true
	}
}

// ManifestLookup finds the manifest row for a test case id.
type ManifestLookup interface {
	Lookup(testCaseID string) (ManifestRow, bool)
}

// StaticManifest is an in-memory manifest. Ids match tolerantly: only their
// alphanumerics count, case-insensitively ("Create Invoice 01" finds
// "create-invoice-01").
type StaticManifest struct {
	rows  []ManifestRow
	index map[string]int
}

// NewStaticManifest builds a manifest. When two rows share an id the first
// one wins.
func NewStaticManifest(rows ...ManifestRow) *StaticManifest {
	m := &StaticManifest{index: make(map[string]int)}
	for _, r := range rows {
		id := naming.NormalizeKey(r.TestCaseID)
		if _, dup := m.index[id]; dup || id == "" {
			continue
		}
		m.index[id] = len(m.rows)
		m.rows = append(m.rows, r)
	}
	return m
}

// Lookup implements ManifestLookup.
func (m *StaticManifest) Lookup(testCaseID string) (ManifestRow, bool) {
	i, ok := m.index[naming.NormalizeKey(testCaseID)]
	if !ok {
		return ManifestRow{}, false
	}
	return m.rows[i], true
}

// Rows returns the rows in file order.
func (m *StaticManifest) Rows() []ManifestRow {
	out := make([]ManifestRow, len(m.rows))
	copy(out, m.rows)
	return out
}

// manifestFile is the YAML layout of a manifest file:
//
//	rows:
//	  - TestCaseID: Create Invoice 01
//	    DatasheetName: Invoices.xlsx
//	    Execute: "yes"
type manifestFile struct {
	Rows []map[string]string `yaml:"rows"`
}

// rowFromColumns maps a raw row onto ManifestRow. Headers are compared by
// their alphanumerics only; "SheetName" wins over its "Sheet" alias.
func rowFromColumns(raw map[string]string) ManifestRow {
	cols := make(map[string]string, len(raw))
	for header, value := range raw {
		cols[naming.NormalizeKey(header)] = strings.TrimSpace(value)
	}
	return ManifestRow{
		TestCaseID:    cols["testcaseid"],
		DatasheetName: cols["datasheetname"],
		ReferenceID:   cols["referenceid"],
		IDName:        cols["idname"],
		SheetName:     firstNonBlank(cols["sheetname"], cols["sheet"]),
		Execute:       firstNonBlank(cols["execute"], cols["run"]),
	}
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// LoadManifestFile reads a YAML manifest. Column headers are matched
// tolerantly and unknown columns are ignored; a row without a TestCaseID or
// a repeated id is an error.
func LoadManifestFile(path string) (*StaticManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest parses manifest YAML.
func ParseManifest(data []byte) (*StaticManifest, error) {
	var file manifestFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse manifest YAML: %w", err)
	}

	rows := make([]ManifestRow, 0, len(file.Rows))
	seen := make(map[string]int)
	for i, raw := range file.Rows {
		row := rowFromColumns(raw)

		id := naming.NormalizeKey(row.TestCaseID)
		if id == "" {
			return nil, fmt.Errorf("manifest row %d: TestCaseID is required", i+1)
		}
		if first, dup := seen[id]; dup {
			return nil, fmt.Errorf("manifest row %d: test case %q already listed in row %d", i+1, row.TestCaseID, first)
		}
		seen[id] = i + 1
		rows = append(rows, row)
	}

	return NewStaticManifest(rows...), nil
}
