package locator

import (
	"errors"
	"regexp"
	"strings"

	"github.com/roach88/flowgen/internal/ir"
)

// Expression is a parsed locator expression.
type Expression struct {
	Raw       string
	Canonical string // form written to the locators module
	Strategy  ir.Strategy
}

// engines maps selector engine prefixes to their strategy.
var engines = map[string]ir.Strategy{
	"data-testid":     ir.StrategyTestID,
	"data-test-id":    ir.StrategyTestID,
	"data-test":       ir.StrategyTestID,
	"internal:testid": ir.StrategyTestID,
	"role":            ir.StrategyRole,
	"internal:role":   ir.StrategyRole,
	"label":           ir.StrategyLabel,
	"internal:label":  ir.StrategyLabel,
	"placeholder":     ir.StrategyPlaceholder,
	"internal:attr":   ir.StrategyLabel, // placeholder is detected below
	"text":            ir.StrategyText,
	"internal:text":   ir.StrategyText,
	"id":              ir.StrategyCSS,
	"css":             ir.StrategyCSS,
	"xpath":           ir.StrategyXPath,
}

var enginePrefix = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9:-]*)=`)

// ParseExpression parses a locator expression and returns its canonical form.
// Chained selectors (a >> b) take the strategy of their weakest segment.
func ParseExpression(raw string) (Expression, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Expression{}, errors.New("empty expression")
	}
	if strings.ContainsAny(trimmed, "\n\r") {
		return Expression{}, errors.New("expression spans multiple lines")
	}

	parts, err := splitChain(trimmed)
	if err != nil {
		return Expression{}, err
	}
	canon := make([]string, len(parts))
	strategy := ir.StrategyTestID
	for i, part := range parts {
		seg, err := parseSegment(strings.TrimSpace(part), i == 0)
		if err != nil {
			return Expression{}, err
		}
		canon[i] = seg.Canonical
		if seg.Strategy > strategy {
			strategy = seg.Strategy
		}
	}

	return Expression{
		Raw:       raw,
		Canonical: strings.Join(canon, " >> "),
		Strategy:  strategy,
	}, nil
}

func parseSegment(s string, first bool) (Expression, error) {
	if s == "" {
		return Expression{}, errors.New("empty selector segment")
	}

	if m := enginePrefix.FindStringSubmatch(s); m != nil {
		engine := strings.ToLower(m[1])
		body := strings.TrimSpace(s[len(m[0]):])
		strategy, ok := engines[engine]
		if !ok {
			return Expression{}, errors.New("unknown selector engine " + m[1])
		}
		if body == "" {
			return Expression{}, errors.New("empty " + engine + " selector")
		}
		if err := checkBalanced(body); err != nil {
			return Expression{}, err
		}

		switch engine {
		case "css":
			if err := checkCSS(body); err != nil {
				return Expression{}, err
			}
			return Expression{Raw: s, Canonical: body, Strategy: ir.StrategyCSS}, nil
		case "xpath":
			if err := checkXPath(body); err != nil {
				return Expression{}, err
			}
			return Expression{Raw: s, Canonical: "xpath=" + body, Strategy: ir.StrategyXPath}, nil
		case "role", "internal:role":
			if !isLetter(body[0]) {
				return Expression{}, errors.New("role selector must start with a role name")
			}
		case "internal:attr":
			if strings.HasPrefix(strings.ToLower(body), "[placeholder=") {
				strategy = ir.StrategyPlaceholder
			}
		}
		return Expression{Raw: s, Canonical: engine + "=" + body, Strategy: strategy}, nil
	}

	if looksLikeXPath(s) {
		if !first {
			return Expression{}, errors.New("bare xpath is only allowed as the first segment")
		}
		if err := checkBalanced(s); err != nil {
			return Expression{}, err
		}
		if err := checkXPath(s); err != nil {
			return Expression{}, err
		}
		return Expression{Raw: s, Canonical: "xpath=" + s, Strategy: ir.StrategyXPath}, nil
	}

	if err := checkBalanced(s); err != nil {
		return Expression{}, err
	}
	if err := checkCSS(s); err != nil {
		return Expression{}, err
	}
	return Expression{Raw: s, Canonical: s, Strategy: ir.StrategyCSS}, nil
}

func looksLikeXPath(s string) bool {
	return strings.HasPrefix(s, "/") || strings.HasPrefix(s, "(/") || strings.HasPrefix(s, "..")
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func checkXPath(s string) error {
	switch s[0] {
	case '/', '(', '.':
		return nil
	}
	return errors.New("xpath must start with /, ( or .")
}

func checkCSS(s string) error {
	switch s[0] {
	case '>', '+', '~', ',':
		return errors.New("css selector starts with a combinator")
	}
	switch s[len(s)-1] {
	case '>', '+', '~', ',':
		return errors.New("css selector ends with a combinator")
	}
	return nil
}

// splitChain splits a chained selector on the >> operators that sit outside
// quotes and brackets.
func splitChain(s string) ([]string, error) {
	var cuts []int
	err := scanSelector(s, func(i int) {
		if strings.HasPrefix(s[i:], ">>") && (len(cuts) == 0 || i > cuts[len(cuts)-1]+1) {
			cuts = append(cuts, i)
		}
	})
	if err != nil {
		return nil, err
	}

	parts := make([]string, 0, len(cuts)+1)
	start := 0
	for _, cut := range cuts {
		parts = append(parts, s[start:cut])
		start = cut + 2
	}
	return append(parts, s[start:]), nil
}

// checkBalanced verifies quotes, brackets and parentheses are balanced.
// Backslash escapes the next character; brackets inside quotes are ignored.
func checkBalanced(s string) error {
	return scanSelector(s, nil)
}

// scanSelector walks s tracking quotes and bracket depth. top, when set, is
// called with the index of every character outside quotes at depth 0.
func scanSelector(s string, top func(i int)) error {
	var stack []byte
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' {
			i++
			continue
		}
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		if top != nil && len(stack) == 0 {
			top(i)
		}
		switch c {
		case '\'', '"':
			quote = c
		case '[', '(', '{':
			stack = append(stack, c)
		case ']', ')', '}':
			if len(stack) == 0 || stack[len(stack)-1] != opener(c) {
				return errors.New("unbalanced " + string(c))
			}
			stack = stack[:len(stack)-1]
		}
	}
	if quote != 0 {
		return errors.New("unterminated string")
	}
	if len(stack) > 0 {
		return errors.New("unclosed " + string(stack[len(stack)-1]))
	}
	return nil
}

func opener(c byte) byte {
	switch c {
	case ']':
		return '['
	case ')':
		return '('
	default:
		return '{'
	}
}
