// Package naming derives identifiers from free-text labels.
//
// Every function here is pure: the same input always yields the same name.
// Labels are folded to ASCII (combining marks removed) before splitting, so
// "Café Total" and "Cafe Total" name the same field.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DigitPrefix is prepended to identifiers that would start with a digit.
const DigitPrefix = "field"

// Fold removes combining marks and returns the NFC form of s.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// Fields splits s on runs of non-alphanumeric characters.
func Fields(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool { return !isAlnum(r) })
}

// Words splits s into words on non-alphanumeric runs and on case boundaries
// ("firstName" -> first, Name; "HTMLInput" -> HTML, Input).
func Words(s string) []string {
	var words []string
	for _, field := range Fields(s) {
		words = append(words, splitCase(field)...)
	}
	return words
}

func splitCase(s string) []string {
	var words []string
	start := 0
	for i := 1; i < len(s); i++ {
		prev, cur := rune(s[i-1]), rune(s[i])
		boundary := unicode.IsLower(prev) && unicode.IsUpper(cur)
		if !boundary && unicode.IsUpper(prev) && unicode.IsUpper(cur) && i+1 < len(s) {
			boundary = unicode.IsLower(rune(s[i+1]))
		}
		if boundary {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// CamelCase converts a label to a camelCase identifier. Returns "" when the
// label has no alphanumeric content.
func CamelCase(label string) string {
	words := Words(label)
	if len(words) == 0 {
		return ""
	}

	// A Caser is stateful and must not be shared between goroutines.
	titler := cases.Title(language.Und, cases.NoLower)

	var b strings.Builder
	b.WriteString(strings.ToLower(words[0]))
	for _, w := range words[1:] {
		b.WriteString(titler.String(w))
	}

	id := b.String()
	if id[0] >= '0' && id[0] <= '9' {
		id = DigitPrefix + id
	}
	return id
}

// Stem collapses non-alphanumeric runs to word breaks, title-cases each word
// and concatenates them: "create invoice 01" -> "CreateInvoice01".
func Stem(s string) string {
	titler := cases.Title(language.Und, cases.NoLower)

	var b strings.Builder
	for _, w := range Fields(s) {
		b.WriteString(titler.String(w))
	}
	return b.String()
}

// NormalizeKey strips non-alphanumerics and lowercases, for tolerant
// comparison of column and field names.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.Join(Fields(s), ""))
}

// LowerFirst lowercases the first byte of an ASCII identifier.
func LowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// UpperFirst uppercases the first byte of an ASCII identifier.
func UpperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// PascalCase converts a label to a PascalCase type name.
func PascalCase(label string) string {
	return UpperFirst(CamelCase(label))
}

// IsIdentifier reports whether s is a plain ASCII identifier
// ([A-Za-z_$][A-Za-z0-9_$]*).
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// reservedWords cannot be used as binding names in strict-mode TypeScript.
var reservedWords = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true, "do": true,
	"else": true, "enum": true, "export": true, "extends": true, "false": true,
	"finally": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "instanceof": true, "new": true, "null": true, "return": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true,
	"with": true, "yield": true, "let": true, "static": true, "implements": true,
	"interface": true, "package": true, "private": true, "protected": true,
	"public": true, "await": true, "arguments": true, "eval": true,
}

// IsReservedWord reports whether s cannot name a variable or class.
func IsReservedWord(s string) bool {
	return reservedWords[s]
}
