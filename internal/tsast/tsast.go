// Package tsast parses TypeScript sources with tree-sitter and offers the few
// queries flowgen needs: string literal decoding, object literal pairs, import
// sources and node walking.
package tsast

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Tree is a parsed TypeScript module. Close releases the native tree.
type Tree struct {
	tree *sitter.Tree
	src  []byte
}

// Parse parses src as TypeScript. A tree is returned even when the source
// has syntax errors; use HasError to check.
func Parse(ctx context.Context, src []byte) (*Tree, error) {
	// Parsers are not safe for concurrent use; one per call.
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(typescript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse typescript: %w", err)
	}
	return &Tree{tree: tree, src: src}, nil
}

// Close releases the tree.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
	}
}

// Root returns the program node.
func (t *Tree) Root() *sitter.Node {
	return t.tree.RootNode()
}

// HasError reports whether the source contains syntax errors.
func (t *Tree) HasError() bool {
	return t.Root().HasError()
}

// FirstError returns the 1-based line and column of the first ERROR or
// MISSING node, or zeros when the tree is clean.
func (t *Tree) FirstError() (line, col int) {
	t.Walk(func(n *sitter.Node) bool {
		if line > 0 {
			return false
		}
		if n.Type() == "ERROR" || n.IsMissing() {
			p := n.StartPoint()
			line, col = int(p.Row)+1, int(p.Column)+1
			return false
		}
		return true
	})
	return line, col
}

// Text returns the source text of n.
func (t *Tree) Text(n *sitter.Node) string {
	return n.Content(t.src)
}

// Line returns the 1-based line of n.
func (t *Tree) Line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// Walk visits n's subtree depth-first in source order. Returning false from
// fn skips the node's children.
func (t *Tree) Walk(fn func(n *sitter.Node) bool) {
	walk(t.Root(), fn)
}

func walk(n *sitter.Node, fn func(n *sitter.Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), fn)
	}
}

// Unwrap strips `as` / `satisfies` / parentheses / non-null wrappers around
// an expression.
func Unwrap(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "as_expression", "satisfies_expression", "parenthesized_expression", "non_null_expression":
			if n.NamedChildCount() == 0 {
				return n
			}
			n = n.NamedChild(0)
		default:
			return n
		}
	}
	return n
}

// StringValue decodes a string literal or a template literal without
// substitutions. ok is false for any other node.
func (t *Tree) StringValue(n *sitter.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	raw := t.Text(n)
	switch n.Type() {
	case "string":
		if len(raw) < 2 {
			return "", false
		}
		s, err := unescapeJS(raw[1 : len(raw)-1])
		return s, err == nil
	case "template_string":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if n.NamedChild(i).Type() == "template_substitution" {
				return "", false
			}
		}
		if len(raw) < 2 {
			return "", false
		}
		s, err := unescapeJS(raw[1 : len(raw)-1])
		return s, err == nil
	default:
		return "", false
	}
}

// PropertyName returns the name of an object pair key: an identifier, a
// string literal or a number.
func (t *Tree) PropertyName(n *sitter.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Type() {
	case "property_identifier", "identifier", "number":
		return t.Text(n), true
	case "string":
		return t.StringValue(n)
	default:
		return "", false
	}
}

// Imports returns the module specifiers of all import statements, keyed by
// every name they bind (default and named imports).
func (t *Tree) Imports() map[string]string {
	out := make(map[string]string)
	root := t.Root()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() != "import_statement" {
			continue
		}
		source, ok := t.StringValue(stmt.ChildByFieldName("source"))
		if !ok {
			continue
		}
		walk(stmt, func(n *sitter.Node) bool {
			if n.Type() == "identifier" {
				out[t.Text(n)] = source
			}
			return true
		})
	}
	return out
}

// unescapeJS decodes the escape sequences of a JavaScript string body.
func unescapeJS(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("trailing backslash")
		}
		switch e := s[i]; e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\n':
			// line continuation
		case 'x':
			if i+3 > len(s) {
				return "", fmt.Errorf("short hex escape")
			}
			v, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
			if err != nil {
				return "", fmt.Errorf("bad hex escape: %w", err)
			}
			b.WriteRune(rune(v))
			i += 2
		case 'u':
			r, n, err := decodeUnicodeEscape(s[i+1:])
			if err != nil {
				return "", err
			}
			i += n
			if utf16.IsSurrogate(r) && strings.HasPrefix(s[i+1:], `\u`) {
				if lo, m, err := decodeUnicodeEscape(s[i+3:]); err == nil {
					if pair := utf16.DecodeRune(r, lo); pair != unicode.ReplacementChar {
						r = pair
						i += 2 + m
					}
				}
			}
			b.WriteRune(r)
		default:
			b.WriteByte(e)
		}
	}
	return b.String(), nil
}

// decodeUnicodeEscape decodes the part after a backslash-u: either four hex
// digits or a braced code point. Returns the rune and bytes consumed.
func decodeUnicodeEscape(s string) (rune, int, error) {
	if strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, '}')
		if end < 0 {
			return 0, 0, fmt.Errorf("unterminated code point escape")
		}
		v, err := strconv.ParseUint(s[1:end], 16, 32)
		if err != nil {
			return 0, 0, fmt.Errorf("bad code point escape: %w", err)
		}
		return rune(v), end + 1, nil
	}
	if len(s) < 4 {
		return 0, 0, fmt.Errorf("short unicode escape")
	}
	v, err := strconv.ParseUint(s[:4], 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("bad unicode escape: %w", err)
	}
	return rune(v), 4, nil
}
