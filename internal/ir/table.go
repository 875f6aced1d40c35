package ir

import (
	"cmp"
	"fmt"
	"slices"
)

// LocatorTable is an insertion-ordered mapping key -> LocatorEntry.
// Insertion order determines property declaration order in the emitted
// class, so it must be stable for diffability.
//
// A LocatorTable is not safe for concurrent mutation; once built it is
// treated as read-only.
type LocatorTable struct {
	keys    []string
	entries map[string]LocatorEntry
}

// NewLocatorTable creates an empty table.
func NewLocatorTable() *LocatorTable {
	return &LocatorTable{entries: make(map[string]LocatorEntry)}
}

// Add appends an entry. Returns an error if the key already exists.
func (t *LocatorTable) Add(e LocatorEntry) error {
	if _, ok := t.entries[e.Key]; ok {
		return fmt.Errorf("duplicate locator key %q", e.Key)
	}
	if e.Base == "" {
		e.Base = e.Key
	}
	t.keys = append(t.keys, e.Key)
	t.entries[e.Key] = e
	return nil
}

// Get returns the entry for key.
func (t *LocatorTable) Get(key string) (LocatorEntry, bool) {
	e, ok := t.entries[key]
	return e, ok
}

// Has reports whether key exists.
func (t *LocatorTable) Has(key string) bool {
	_, ok := t.entries[key]
	return ok
}

// Len returns the number of entries.
func (t *LocatorTable) Len() int {
	return len(t.keys)
}

// Keys returns the keys in insertion order.
func (t *LocatorTable) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Entries returns the entries in insertion order.
func (t *LocatorTable) Entries() []LocatorEntry {
	out := make([]LocatorEntry, len(t.keys))
	for i, k := range t.keys {
		out[i] = t.entries[k]
	}
	return out
}

// Occurrences returns the entries sharing base, ordered by occurrence.
func (t *LocatorTable) Occurrences(base string) []LocatorEntry {
	var out []LocatorEntry
	for _, k := range t.keys {
		if e := t.entries[k]; e.Base == base {
			out = append(out, e)
		}
	}
	// Tables read from a module may list suffixed keys before their base.
	slices.SortStableFunc(out, func(a, b LocatorEntry) int {
		return cmp.Compare(a.Occurrence, b.Occurrence)
	})
	return out
}

// Bases returns the distinct base keys in first-seen order.
func (t *LocatorTable) Bases() []string {
	seen := make(map[string]bool)
	var out []string
	for _, k := range t.keys {
		b := t.entries[k].Base
		if !seen[b] {
			seen[b] = true
			out = append(out, b)
		}
	}
	return out
}
