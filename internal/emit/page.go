package emit

import (
	"fmt"

	"github.com/roach88/flowgen/internal/ir"
	"github.com/roach88/flowgen/internal/locator"
	"github.com/roach88/flowgen/internal/naming"
)

// fieldGroup is a base key and its Interactive occurrences.
type fieldGroup struct {
	base    string
	members []ir.LocatorEntry // ordered by occurrence
}

// interactiveGroups returns the Interactive fields grouped by base key, in
// first-seen table order.
func interactiveGroups(in Input) []fieldGroup {
	var groups []fieldGroup
	for _, base := range in.Table.Bases() {
		g := fieldGroup{base: base}
		for _, e := range in.Table.Occurrences(base) {
			if in.class(e.Key) == ir.Interactive {
				g.members = append(g.members, e)
			}
		}
		if len(g.members) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

// PageObject renders the page-object module for in.PageName.
func PageObject(in Input, opts Options) (string, error) {
	if err := ValidateNames(in.PageName, in.TestName); err != nil {
		return "", err
	}
	for _, key := range in.Table.Keys() {
		if !naming.IsIdentifier(key) {
			return "", fmt.Errorf("locator key %q is not an identifier", key)
		}
	}

	var w writer
	w.line("import { Locator, Page } from '@playwright/test';")
	w.line("import locators from %s;", Quote(LocatorsImport(in.PageName)))
	w.blank()
	w.open("export class %s {", in.PageName)

	for _, key := range in.Table.Keys() {
		w.line("readonly %s: Locator;", key)
	}
	if in.Table.Len() > 0 {
		w.blank()
	}

	w.open("constructor(readonly page: Page) {")
	for _, key := range in.Table.Keys() {
		w.line("this.%s = page.locator(locators.%s);", key, key)
	}
	w.close("}")

	writeDataAccess(&w)

	groups := interactiveGroups(in)
	for _, g := range groups {
		for _, e := range g.members {
			w.blank()
			w.open("async %s(value: unknown): Promise<void> {", locator.SetterName(e.Key))
			w.line("await this.%s.fill(this.toDisplayString(value));", e.Key)
			w.close("}")
		}
	}

	w.blank()
	writeApplyData(&w, groups, opts.Policy)

	w.close("}")
	w.blank()
	w.line("export default %s;", in.PageName)
	return w.String(), nil
}

// writeDataAccess writes toDisplayString, normalizeKey and resolveValue.
func writeDataAccess(w *writer) {
	w.blank()
	w.open("toDisplayString(value: unknown): string {")
	w.open("if (value === undefined || value === null) {")
	w.line("return '';")
	w.close("}")
	w.open("if (typeof value === 'number') {")
	w.line("return String(value);")
	w.close("}")
	w.open("if (typeof value === 'string') {")
	w.line("return value;")
	w.close("}")
	w.line("return String(value);")
	w.close("}")

	w.blank()
	w.open("normalizeKey(key: string): string {")
	w.line("return key.replace(/[^a-zA-Z0-9]/g, '').toLowerCase();")
	w.close("}")

	w.blank()
	w.open("resolveValue(data: Record<string, unknown>, key: string, fallback = ''): string {")
	w.line("const target = this.normalizeKey(key);")
	w.open("for (const [recordKey, value] of Object.entries(data)) {")
	w.open("if (this.normalizeKey(recordKey) !== target) {")
	w.line("continue;")
	w.close("}")
	w.line("const text = this.toDisplayString(value);")
	w.open("if (text.trim() !== '') {")
	w.line("return text;")
	w.close("}")
	w.close("}")
	w.line("return fallback;")
	w.close("}")
}

// writeApplyData writes the applyData dispatcher. Each group is gated on the
// normalized keys filter; groups with several occurrences switch on
// occurrenceIndex so that only one setter of the group runs.
func writeApplyData(w *writer, groups []fieldGroup, policy OccurrencePolicy) {
	w.open("async applyData(data: Record<string, unknown>, keys?: string[], occurrenceIndex = 0): Promise<void> {")
	if len(groups) == 0 {
		w.line("void data;")
		w.line("void keys;")
		w.line("void occurrenceIndex;")
		w.close("}")
		return
	}
	w.line("const wanted = keys ? new Set(keys.map((key) => this.normalizeKey(key))) : undefined;")

	for _, g := range groups {
		w.blank()
		w.open("if (!wanted || wanted.has(%s)) {", Quote(naming.NormalizeKey(g.base)))
		if len(g.members) == 1 && g.members[0].Occurrence == 0 {
			w.open("if (occurrenceIndex === 0) {")
			writeApply(w, g.base, g.members[0])
			if policy == Strict {
				w.close("} else if (wanted) {")
				w.depth++
				writeOccurrenceError(w, g.base)
			}
			w.close("}")
		} else {
			w.open("switch (occurrenceIndex) {")
			for _, e := range g.members {
				w.open("case %d: {", e.Occurrence)
				writeApply(w, g.base, e)
				w.line("break;")
				w.close("}")
			}
			if policy == Strict {
				w.open("default:")
				w.open("if (wanted) {")
				writeOccurrenceError(w, g.base)
				w.close("}")
				w.depth--
			}
			w.close("}")
		}
		w.close("}")
	}
	w.close("}")
}

// writeApply resolves the value of e (own key first, then the base key) and
// calls its setter when the value is not blank.
func writeApply(w *writer, base string, e ir.LocatorEntry) {
	if e.Key == base {
		w.line("const value = this.resolveValue(data, %s);", Quote(e.Key))
	} else {
		w.line("const value = this.resolveValue(data, %s, this.resolveValue(data, %s));", Quote(e.Key), Quote(base))
	}
	w.open("if (value !== '') {")
	w.line("await this.%s(value);", locator.SetterName(e.Key))
	w.close("}")
}

func writeOccurrenceError(w *writer, base string) {
	w.line("throw new Error(%s + occurrenceIndex);", Quote(fmt.Sprintf(`applyData: field "%s" has no occurrence `, base)))
}
