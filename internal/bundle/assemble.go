// Package bundle assembles the three emitted modules into a validated
// ArtifactBundle, and provides the generators, writers and batch helpers built
// on top of it.
package bundle

import (
	"context"
	"fmt"
	"slices"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/roach88/flowgen/internal/emit"
	"github.com/roach88/flowgen/internal/ir"
	"github.com/roach88/flowgen/internal/locator"
	"github.com/roach88/flowgen/internal/tsast"
)

// Parts are the emitted modules of one bundle, before validation.
type Parts struct {
	PageName string
	TestName string

	// Table is the locator table the modules were emitted from. When nil the
	// table is read back from LocatorsModule.
	Table *ir.LocatorTable

	LocatorsModule   string
	PageObjectModule string
	TestSpecModule   string
}

// Assembler validates cross-file consistency and builds bundles.
// It is stateless and safe for concurrent use.
type Assembler struct {
	log *zap.Logger
}

// NewAssembler creates an Assembler. A nil logger discards output.
func NewAssembler(log *zap.Logger) *Assembler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Assembler{log: log}
}

// Assemble validates p and returns the bundle. Any violation is a
// BundleConsistencyError, logged at error level with full context.
func (a *Assembler) Assemble(ctx context.Context, p Parts) (*ir.ArtifactBundle, error) {
	b := &ir.ArtifactBundle{
		PageName:         p.PageName,
		TestName:         p.TestName,
		LocatorsModule:   p.LocatorsModule,
		PageObjectModule: p.PageObjectModule,
		TestSpecModule:   p.TestSpecModule,
		LocatorsFile:     emit.LocatorsFile(p.PageName),
		PageFile:         emit.PageFile(p.PageName),
		TestFile:         emit.TestFile(p.TestName),
	}

	if err := a.validate(ctx, b, p.Table); err != nil {
		return nil, err
	}

	id, err := ir.BundleID(b)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	b.ID = id
	return b, nil
}

// check carries the context shared by every validation step.
type check struct {
	a *Assembler
	b *ir.ArtifactBundle
}

func (c check) fail(name, file string, line int, format string, args ...any) error {
	err := &BundleConsistencyError{
		PageName: c.b.PageName,
		TestName: c.b.TestName,
		Check:    name,
		File:     file,
		Line:     line,
		Detail:   fmt.Sprintf(format, args...),
	}
	c.a.log.Error("bundle consistency check failed",
		zap.String("page", err.PageName),
		zap.String("test", err.TestName),
		zap.String("check", err.Check),
		zap.String("file", err.File),
		zap.Int("line", err.Line),
		zap.String("detail", err.Detail),
	)
	return err
}

func (a *Assembler) validate(ctx context.Context, b *ir.ArtifactBundle, table *ir.LocatorTable) error {
	c := check{a: a, b: b}

	trees := make(map[string]*tsast.Tree, 3)
	defer func() {
		for _, t := range trees {
			t.Close()
		}
	}()
	for _, f := range b.Files() {
		tree, err := tsast.Parse(ctx, []byte(f[1]))
		if err != nil {
			return fmt.Errorf("assemble %s: %w", f[0], err)
		}
		trees[f[0]] = tree
		if tree.HasError() {
			line, col := tree.FirstError()
			return c.fail(CheckSyntax, f[0], line, "syntax error at column %d", col)
		}
	}

	read, err := locator.ReadModule(ctx, []byte(b.LocatorsModule))
	if err != nil {
		return c.fail(CheckLocators, b.LocatorsFile, 0, "%v", err)
	}
	if table == nil {
		table = read
	} else if err := sameTable(table, read); err != nil {
		return c.fail(CheckLocators, b.LocatorsFile, 0, "%v", err)
	}

	if err := c.checkPage(trees[b.PageFile], table); err != nil {
		return err
	}
	return c.checkTest(trees[b.TestFile], table)
}

func (c check) checkPage(tree *tsast.Tree, table *ir.LocatorTable) error {
	file := c.b.PageFile

	var classes []string
	var bad *sitter.Node
	tree.Walk(func(n *sitter.Node) bool {
		switch n.Type() {
		case "class_declaration":
			if name := n.ChildByFieldName("name"); name != nil {
				classes = append(classes, tree.Text(name))
			}
		case "member_expression":
			obj, prop := n.ChildByFieldName("object"), n.ChildByFieldName("property")
			if bad == nil && obj != nil && prop != nil && obj.Type() == "identifier" &&
				tree.Text(obj) == "locators" && !table.Has(tree.Text(prop)) {
				bad = n
			}
		}
		return true
	})

	if !slices.Contains(classes, c.b.PageName) {
		return c.fail(CheckClassName, file, 0, "no class named %q (found %v)", c.b.PageName, classes)
	}
	if bad != nil {
		return c.fail(CheckLocatorRef, file, tree.Line(bad), "%s references a key missing from the locator table", tree.Text(bad))
	}

	want := emit.LocatorsImport(c.b.PageName)
	if got := tree.Imports()["locators"]; got != want {
		return c.fail(CheckLocatorImport, file, 0, "locators imported from %q, want %q", got, want)
	}
	return nil
}

func (c check) checkTest(tree *tsast.Tree, table *ir.LocatorTable) error {
	file := c.b.TestFile

	want := emit.PageImport(c.b.PageName)
	if got := tree.Imports()[c.b.PageName]; got != want {
		return c.fail(CheckPageImport, file, 0, "%s imported from %q, want %q", c.b.PageName, got, want)
	}

	pageVar := emit.PageVariable(c.b.PageName)
	var declared []string
	tree.Walk(func(n *sitter.Node) bool {
		if n.Type() != "variable_declarator" {
			return true
		}
		name, value := n.ChildByFieldName("name"), tsast.Unwrap(n.ChildByFieldName("value"))
		if name == nil || value == nil || value.Type() != "new_expression" {
			return true
		}
		if ctor := value.ChildByFieldName("constructor"); ctor != nil && tree.Text(ctor) == c.b.PageName {
			declared = append(declared, tree.Text(name))
		}
		return true
	})
	if len(declared) == 0 {
		return c.fail(CheckPageVariable, file, 0, "no instance of %s is created", c.b.PageName)
	}
	for _, name := range declared {
		if name != pageVar {
			return c.fail(CheckPageVariable, file, 0, "page variable is %q, want %q", name, pageVar)
		}
	}

	members := make(map[string]bool)
	for _, n := range locator.ReservedNames {
		members[n] = true
	}
	for _, k := range table.Keys() {
		members[k] = true
		members[locator.SetterName(k)] = true
	}

	var bad *sitter.Node
	tree.Walk(func(n *sitter.Node) bool {
		if bad != nil {
			return false
		}
		if n.Type() == "member_expression" {
			obj, prop := n.ChildByFieldName("object"), n.ChildByFieldName("property")
			if obj != nil && prop != nil && obj.Type() == "identifier" &&
				tree.Text(obj) == pageVar && !members[tree.Text(prop)] {
				bad = n
			}
		}
		return true
	})
	if bad != nil {
		return c.fail(CheckPageMember, file, tree.Line(bad), "%s is not a member of %s", tree.Text(bad), c.b.PageName)
	}
	return nil
}

// sameTable reports the first difference between the table the modules were
// emitted from and the one read back from the locators module.
func sameTable(want, got *ir.LocatorTable) error {
	wk, gk := want.Keys(), got.Keys()
	if !slices.Equal(wk, gk) {
		return fmt.Errorf("locators module keys %v, want %v", gk, wk)
	}
	for _, k := range wk {
		w, _ := want.Get(k)
		g, _ := got.Get(k)
		if w.Expression != g.Expression {
			return fmt.Errorf("key %q maps to %q, want %q", k, g.Expression, w.Expression)
		}
	}
	return nil
}
