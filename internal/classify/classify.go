// Package classify labels locator keys as Interactive (settable from a data
// row) or ActionOnly (clicked, never filled).
//
// Classification is a best-effort heuristic: a key is ActionOnly when it
// contains any deny keyword, case-insensitively. Mis-guesses are corrected by
// renaming the source label, not by the generator.
package classify

import (
	"slices"
	"strings"

	"github.com/roach88/flowgen/internal/ir"
)

// DefaultKeywords is the deny-keyword set used by Default.
var DefaultKeywords = []string{
	"click", "button", "link", "icon", "action",
	"validate", "close", "expand", "cell", "element",
}

// Classifier classifies keys against an explicit deny-keyword set.
// A Classifier is immutable and safe for concurrent use.
type Classifier struct {
	keywords []string // lowercased, sorted, deduplicated
}

// New creates a classifier from the given deny keywords. Blank keywords are
// ignored.
func New(keywords ...string) *Classifier {
	set := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			set = append(set, k)
		}
	}
	slices.Sort(set)
	return &Classifier{keywords: slices.Compact(set)}
}

// Default creates a classifier with DefaultKeywords.
func Default() *Classifier {
	return New(DefaultKeywords...)
}

// Keywords returns the deny-keyword set, sorted.
func (c *Classifier) Keywords() []string {
	return slices.Clone(c.keywords)
}

// Classify returns ActionOnly when key contains a deny keyword.
func (c *Classifier) Classify(key string) ir.FieldClass {
	lower := strings.ToLower(key)
	for _, k := range c.keywords {
		if strings.Contains(lower, k) {
			return ir.ActionOnly
		}
	}
	return ir.Interactive
}

// ClassifyTable classifies every key of table.
func (c *Classifier) ClassifyTable(table *ir.LocatorTable) map[string]ir.FieldClass {
	out := make(map[string]ir.FieldClass, table.Len())
	for _, key := range table.Keys() {
		out[key] = c.Classify(key)
	}
	return out
}
