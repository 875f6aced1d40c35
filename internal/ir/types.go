package ir

import "fmt"

// ActionKind is the kind of a recorded browser interaction.
type ActionKind string

const (
	ActionNavigate ActionKind = "navigate"
	ActionClick    ActionKind = "click"
	ActionFill     ActionKind = "fill"
	ActionAssert   ActionKind = "assert"
)

// ValidActionKinds defines the allowed action kinds.
var ValidActionKinds = map[ActionKind]bool{
	ActionNavigate: true,
	ActionClick:    true,
	ActionFill:     true,
	ActionAssert:   true,
}

// Title returns the capitalised action name used in step titles ("Fill").
func (k ActionKind) Title() string {
	switch k {
	case ActionNavigate:
		return "Navigate"
	case ActionClick:
		return "Click"
	case ActionFill:
		return "Fill"
	case ActionAssert:
		return "Assert"
	default:
		return string(k)
	}
}

// RecordedStep is one captured browser interaction with its resolved locator.
// Steps are produced upstream and are never mutated.
type RecordedStep struct {
	Ordinal     int        `json:"ordinal" yaml:"ordinal"`
	Action      ActionKind `json:"action" yaml:"action"`
	TargetLabel string     `json:"target_label" yaml:"target_label"`
	Locator     string     `json:"locator" yaml:"locator"`
	Value       string     `json:"value,omitempty" yaml:"value,omitempty"`
	PageLabel   string     `json:"page_label,omitempty" yaml:"page_label,omitempty"`

	// Alternatives holds further candidate expressions the recorder captured
	// for the same element. The synthesizer picks the best-ranked one.
	Alternatives []string `json:"alternatives,omitempty" yaml:"alternatives,omitempty"`
}

// Flow is a compiled recording: the steps plus the names used for the
// generated artifacts.
type Flow struct {
	// TestCaseID keys the flow in the execution manifest.
	TestCaseID string         `json:"test_case_id"`
	PageName   string         `json:"page_name"`
	TestName   string         `json:"test_name"`
	Steps      []RecordedStep `json:"steps"`
}

// Strategy is a locator strategy. Lower values are preferred.
type Strategy int

const (
	StrategyTestID Strategy = iota
	StrategyRole
	StrategyLabel
	StrategyPlaceholder
	StrategyText
	StrategyCSS
	StrategyXPath
)

func (s Strategy) String() string {
	switch s {
	case StrategyTestID:
		return "testid"
	case StrategyRole:
		return "role"
	case StrategyLabel:
		return "label"
	case StrategyPlaceholder:
		return "placeholder"
	case StrategyText:
		return "text"
	case StrategyCSS:
		return "css"
	case StrategyXPath:
		return "xpath"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// LocatorEntry is one uniquely-keyed locator.
type LocatorEntry struct {
	Key        string `json:"key"`
	Expression string `json:"expression"`
	SourceRank int    `json:"source_rank"` // Strategy rank of Expression

	// Base is the unsuffixed key and Occurrence the zero-based suffix index:
	// "amount" -> ("amount", 0), "amount2" -> ("amount", 1).
	Base       string `json:"base"`
	Occurrence int    `json:"occurrence"`
}

// Suffixed reports whether the key was collision-suffixed.
func (e LocatorEntry) Suffixed() bool {
	return e.Occurrence > 0
}

// FieldClass labels a locator key as settable or action-only.
type FieldClass int

const (
	Interactive FieldClass = iota
	ActionOnly
)

func (c FieldClass) String() string {
	if c == ActionOnly {
		return "action_only"
	}
	return "interactive"
}

// Source names the tier that supplied a resolved value.
type Source string

const (
	SourceEnv      Source = "env"
	SourceManifest Source = "manifest"
	SourceDerived  Source = "derived"
)

// Resolved is a value together with the tier that supplied it.
type Resolved struct {
	Value  string `json:"value"`
	Source Source `json:"source"`
}

// DataResolutionPlan describes where a generated test reads its data row.
type DataResolutionPlan struct {
	TestCaseID    string   `json:"test_case_id"`
	DatasheetName Resolved `json:"datasheet_name"`
	SheetTab      Resolved `json:"sheet_tab"`
	IDColumnName  Resolved `json:"id_column_name"`
	ReferenceID   Resolved `json:"reference_id"`
}

// ArtifactBundle holds the three generated modules for one flow.
// It is constructed once per generation request and never mutated.
type ArtifactBundle struct {
	ID       string `json:"id"` // Content-addressed hash, see BundleID
	PageName string `json:"page_name"`
	TestName string `json:"test_name"`

	LocatorsModule   string `json:"locators_module"`
	PageObjectModule string `json:"page_object_module"`
	TestSpecModule   string `json:"test_spec_module"`

	// Paths relative to the output root, slash separated.
	LocatorsFile string `json:"locators_file"`
	PageFile     string `json:"page_file"`
	TestFile     string `json:"test_file"`
}

// Files returns (relative path, content) pairs in write order.
func (b *ArtifactBundle) Files() [][2]string {
	return [][2]string{
		{b.LocatorsFile, b.LocatorsModule},
		{b.PageFile, b.PageObjectModule},
		{b.TestFile, b.TestSpecModule},
	}
}
