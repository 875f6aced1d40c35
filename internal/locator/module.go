package locator

import (
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/roach88/flowgen/internal/ir"
	"github.com/roach88/flowgen/internal/naming"
	"github.com/roach88/flowgen/internal/tsast"
)

var suffixedKey = regexp.MustCompile(`^(.*[^0-9])([0-9]+)$`)

// ReadModule parses an existing locators module into a table. Accepted forms:
//
//	export default { key: 'expr', ... };
//	const locators = { key: 'expr', ... } as const;
//	export default locators;
//
// Every value must be a string literal holding a valid locator expression.
// Collision metadata is inferred from key names: "amount2" is occurrence 1 of
// "amount" when "amount" is also present.
func ReadModule(ctx context.Context, src []byte) (*ir.LocatorTable, error) {
	tree, err := tsast.Parse(ctx, src)
	if err != nil {
		return nil, &ModuleError{Message: err.Error()}
	}
	defer tree.Close()

	if tree.HasError() {
		line, col := tree.FirstError()
		return nil, &ModuleError{Line: line, Message: fmt.Sprintf("syntax error at column %d", col)}
	}

	obj, err := exportedObject(tree)
	if err != nil {
		return nil, err
	}

	entries, err := readPairs(tree, obj)
	if err != nil {
		return nil, err
	}
	inferOccurrences(entries)

	table := ir.NewLocatorTable()
	for _, e := range entries {
		if err := table.Add(e); err != nil {
			return nil, &ModuleError{Message: err.Error()}
		}
	}
	return table, nil
}

// exportedObject finds the object literal behind the default export.
func exportedObject(tree *tsast.Tree) (*sitter.Node, error) {
	root := tree.Root()
	consts := make(map[string]*sitter.Node)
	var exported *sitter.Node

	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		switch stmt.Type() {
		case "lexical_declaration", "variable_declaration":
			collectDeclarators(tree, stmt, consts)
		case "export_statement":
			if decl := stmt.ChildByFieldName("declaration"); decl != nil {
				collectDeclarators(tree, decl, consts)
			}
			if isDefaultExport(stmt) {
				if exported != nil {
					return nil, &ModuleError{Line: tree.Line(stmt), Message: "more than one default export"}
				}
				exported = stmt
			}
		}
	}
	if exported == nil {
		return nil, &ModuleError{Message: "no default export"}
	}

	value := tsast.Unwrap(exported.ChildByFieldName("value"))
	if value != nil && value.Type() == "identifier" {
		name := tree.Text(value)
		decl, ok := consts[name]
		if !ok {
			return nil, &ModuleError{Line: tree.Line(value), Message: fmt.Sprintf("default export %q is not declared in this module", name)}
		}
		value = tsast.Unwrap(decl)
	}
	if value == nil || value.Type() != "object" {
		return nil, &ModuleError{Line: tree.Line(exported), Message: "default export is not an object literal"}
	}
	return value, nil
}

func isDefaultExport(stmt *sitter.Node) bool {
	for i := 0; i < int(stmt.ChildCount()); i++ {
		if stmt.Child(i).Type() == "default" {
			return true
		}
	}
	return false
}

func collectDeclarators(tree *tsast.Tree, decl *sitter.Node, into map[string]*sitter.Node) {
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		d := decl.NamedChild(i)
		if d.Type() != "variable_declarator" {
			continue
		}
		name, value := d.ChildByFieldName("name"), d.ChildByFieldName("value")
		if name != nil && value != nil {
			into[tree.Text(name)] = value
		}
	}
}

func readPairs(tree *tsast.Tree, obj *sitter.Node) ([]ir.LocatorEntry, error) {
	var entries []ir.LocatorEntry
	seen := make(map[string]bool)

	for i := 0; i < int(obj.NamedChildCount()); i++ {
		n := obj.NamedChild(i)
		switch n.Type() {
		case "comment":
			continue
		case "pair":
		default:
			return nil, &ModuleError{Line: tree.Line(n), Message: fmt.Sprintf("unsupported property %q", tree.Text(n))}
		}

		key, ok := tree.PropertyName(n.ChildByFieldName("key"))
		if !ok || !naming.IsIdentifier(key) {
			return nil, &ModuleError{Line: tree.Line(n), Message: fmt.Sprintf("key %q is not a plain identifier", tree.Text(n.ChildByFieldName("key")))}
		}
		if seen[key] {
			return nil, &ModuleError{Line: tree.Line(n), Message: fmt.Sprintf("duplicate key %q", key)}
		}
		if slices.Contains(ReservedNames, key) {
			return nil, &ModuleError{Line: tree.Line(n), Message: fmt.Sprintf("key %q clashes with a page object member", key)}
		}
		seen[key] = true

		raw, ok := tree.StringValue(tsast.Unwrap(n.ChildByFieldName("value")))
		if !ok {
			return nil, &ModuleError{Line: tree.Line(n), Message: fmt.Sprintf("value of %q is not a string literal", key)}
		}
		expr, err := ParseExpression(raw)
		if err != nil {
			return nil, &InvalidLocatorExpressionError{Key: key, Expression: raw, Reason: err.Error()}
		}

		entries = append(entries, ir.LocatorEntry{
			Key:        key,
			Expression: expr.Canonical,
			SourceRank: int(expr.Strategy),
			Base:       key,
		})
	}

	if len(entries) == 0 {
		return nil, &ModuleError{Message: "locators module is empty"}
	}
	normalized := make(map[string]string, len(entries))
	for _, e := range entries {
		n := naming.NormalizeKey(e.Key)
		if other, ok := normalized[n]; ok {
			return nil, &ModuleError{Message: fmt.Sprintf("keys %q and %q differ only in case", other, e.Key)}
		}
		normalized[n] = e.Key
	}
	for _, e := range entries {
		if seen[SetterName(e.Key)] {
			return nil, &ModuleError{Message: fmt.Sprintf("key %q clashes with the setter of %q", SetterName(e.Key), e.Key)}
		}
	}
	return entries, nil
}

// inferOccurrences groups suffixed keys with their base and numbers them by
// suffix value.
func inferOccurrences(entries []ir.LocatorEntry) {
	keys := make(map[string]bool, len(entries))
	for _, e := range entries {
		keys[e.Key] = true
	}

	type member struct {
		idx    int
		suffix int
	}
	groups := make(map[string][]member)
	for i, e := range entries {
		m := suffixedKey.FindStringSubmatch(e.Key)
		if m == nil || !keys[m[1]] {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil || n < 2 {
			continue
		}
		groups[m[1]] = append(groups[m[1]], member{idx: i, suffix: n})
	}

	for base, members := range groups {
		slices.SortFunc(members, func(a, b member) int { return cmp.Compare(a.suffix, b.suffix) })
		for rank, m := range members {
			entries[m.idx].Base = base
			entries[m.idx].Occurrence = rank + 1
		}
	}
}
