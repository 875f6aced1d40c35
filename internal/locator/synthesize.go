// Package locator turns recorded steps into a uniquely-keyed locator table.
//
// Keys are camelCase identifiers derived from step target labels. When a
// derived key is already taken by a different expression the next unused
// numeric suffix is appended (amount, amount2, amount3); when it is taken by
// the identical expression the existing key is reused. A label that itself
// ends in a number ("Amount 2") gets the "Field" suffix when its key would
// read back as a numbered member of another group, or when it needs numbered
// members of its own.
package locator

import (
	"strconv"
	"strings"

	"github.com/roach88/flowgen/internal/ir"
	"github.com/roach88/flowgen/internal/naming"
)

// ReservedNames are member names of the emitted page class. A label that
// derives one of them gets the "Field" suffix.
var ReservedNames = []string{
	"page", "constructor", "applyData", "toDisplayString", "normalizeKey", "resolveValue",
}

// Binding ties a recorded step to the locator key it addresses.
type Binding struct {
	Step       ir.RecordedStep
	Key        string // empty for navigate steps
	Base       string
	Occurrence int
	URL        string // navigate steps only
}

// Result is the output of Synthesize.
type Result struct {
	Table    *ir.LocatorTable
	Bindings []Binding // one per step, in step order
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithReserved adds member names that keys must not shadow.
func WithReserved(names ...string) Option {
	return func(s *Synthesizer) {
		for _, n := range names {
			s.reserved[n] = true
		}
	}
}

// Synthesizer builds locator tables. It holds no per-call state and is safe
// for concurrent use.
type Synthesizer struct {
	reserved map[string]bool
}

// New creates a Synthesizer.
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{reserved: make(map[string]bool)}
	for _, n := range ReservedNames {
		s.reserved[n] = true
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize builds a locator table using the default Synthesizer.
func Synthesize(steps []ir.RecordedStep) (*Result, error) {
	return New().Synthesize(steps)
}

// Synthesize validates steps and derives the locator table and bindings.
// Returns an InputError on bad input; nothing is partially built.
func (s *Synthesizer) Synthesize(steps []ir.RecordedStep) (*Result, error) {
	if len(steps) == 0 {
		return nil, &EmptyFlowError{}
	}

	b := &builder{syn: s, table: ir.NewLocatorTable(), labels: indexLabels(steps)}
	result := &Result{Table: b.table, Bindings: make([]Binding, 0, len(steps))}

	for i, step := range steps {
		if i > 0 && step.Ordinal <= steps[i-1].Ordinal {
			return nil, &StepOrderError{Ordinal: step.Ordinal, Previous: steps[i-1].Ordinal}
		}
		if !ir.ValidActionKinds[step.Action] {
			return nil, &UnsupportedActionError{Ordinal: step.Ordinal, Action: step.Action}
		}

		if step.Action == ir.ActionNavigate {
			url := strings.TrimSpace(step.Value)
			if url == "" {
				url = strings.TrimSpace(step.TargetLabel)
			}
			if url == "" {
				return nil, &MissingTargetLabelError{Ordinal: step.Ordinal, Action: step.Action}
			}
			result.Bindings = append(result.Bindings, Binding{Step: step, URL: url})
			continue
		}

		candidate := naming.CamelCase(step.TargetLabel)
		if candidate == "" {
			return nil, &MissingTargetLabelError{Ordinal: step.Ordinal, Action: step.Action}
		}
		expr, err := bestExpression(step)
		if err != nil {
			return nil, err
		}

		entry := b.bind(candidate, expr)
		result.Bindings = append(result.Bindings, Binding{
			Step:       step,
			Key:        entry.Key,
			Base:       entry.Base,
			Occurrence: entry.Occurrence,
		})
	}

	return result, nil
}

// bestExpression parses the step locator and its alternatives and returns the
// best-ranked one. Ties keep the first seen, so the recorded locator wins.
func bestExpression(step ir.RecordedStep) (Expression, error) {
	candidates := append([]string{step.Locator}, step.Alternatives...)

	var best Expression
	found := false
	for _, raw := range candidates {
		expr, err := ParseExpression(raw)
		if err != nil {
			return Expression{}, &InvalidLocatorExpressionError{
				Ordinal:    step.Ordinal,
				Expression: raw,
				Reason:     err.Error(),
			}
		}
		if !found || expr.Strategy < best.Strategy {
			best, found = expr, true
		}
	}
	return best, nil
}

type builder struct {
	syn    *Synthesizer
	table  *ir.LocatorTable
	labels labelIndex
}

// labelIndex maps normalized label keys to the canonical expressions
// recorded under them.
type labelIndex map[string]map[string]bool

// indexLabels indexes every addressable step. Steps that fail to parse are
// skipped; Synthesize reports them in step order.
func indexLabels(steps []ir.RecordedStep) labelIndex {
	idx := make(labelIndex)
	for _, step := range steps {
		if step.Action == ir.ActionNavigate {
			continue
		}
		candidate := naming.CamelCase(step.TargetLabel)
		if candidate == "" {
			continue
		}
		expr, err := bestExpression(step)
		if err != nil {
			continue
		}
		n := naming.NormalizeKey(candidate)
		if idx[n] == nil {
			idx[n] = make(map[string]bool)
		}
		idx[n][expr.Canonical] = true
	}
	return idx
}

// numbered reports whether key looks like a suffixed member (amount2) and
// either its prefix is another label in the flow, or key itself would need
// suffixed members. Either way ReadModule could not tell the groups apart.
func (idx labelIndex) numbered(key string) bool {
	m := suffixedKey.FindStringSubmatch(key)
	if m == nil {
		return false
	}
	if _, ok := idx[naming.NormalizeKey(m[1])]; ok {
		return true
	}
	return len(idx[naming.NormalizeKey(key)]) > 1
}

// bind returns the entry for (candidate, expr), reusing an identical one or
// allocating a new suffixed key.
func (b *builder) bind(candidate string, expr Expression) ir.LocatorEntry {
	base := b.baseName(candidate)

	occurrences := b.table.Occurrences(base)
	for _, e := range occurrences {
		if e.Expression == expr.Canonical {
			return e
		}
	}
	// The bare key may belong to another base (a suffixed "amount2" versus a
	// label that derives "amount2" directly).
	if e, ok := b.table.Get(base); ok && e.Base != base && e.Expression == expr.Canonical {
		return e
	}

	key := base
	for n := 2; b.taken(key); n++ {
		key = base + strconv.Itoa(n)
	}

	entry := ir.LocatorEntry{
		Key:        key,
		Expression: expr.Canonical,
		SourceRank: int(expr.Strategy),
		Base:       base,
		Occurrence: len(occurrences),
	}
	// Cannot fail: taken(key) is false.
	_ = b.table.Add(entry)
	return entry
}

// baseName maps a candidate onto an existing base that differs only in case
// ("aB" and "ab" share one group, as applyData matches keys normalized), then
// moves it off reserved member names, setter names and the suffix space.
func (b *builder) baseName(candidate string) string {
	base := candidate
	for b.syn.reserved[base] || b.shadowsSetter(base) || b.labels.numbered(base) {
		base += "Field"
	}
	norm := naming.NormalizeKey(base)
	for _, existing := range b.table.Bases() {
		if naming.NormalizeKey(existing) == norm {
			return existing
		}
	}
	return base
}

// taken reports whether key, or a key differing only in case, is used by a
// property, or whether key would clash with a setter of an existing property.
func (b *builder) taken(key string) bool {
	if b.table.Has(key) || b.syn.reserved[key] || b.shadowsSetter(key) {
		return true
	}
	norm := naming.NormalizeKey(key)
	for _, k := range b.table.Keys() {
		if naming.NormalizeKey(k) == norm {
			return true
		}
	}
	return false
}

// shadowsSetter reports whether key equals set<Existing> or its own setter
// equals an existing key.
func (b *builder) shadowsSetter(key string) bool {
	if b.table.Has(SetterName(key)) {
		return true
	}
	if rest, ok := strings.CutPrefix(key, "set"); ok && rest != "" {
		return b.table.Has(naming.LowerFirst(rest))
	}
	return false
}

// SetterName returns the page-object setter method name for key.
func SetterName(key string) string {
	return "set" + naming.UpperFirst(key)
}
