package emit

import (
	"fmt"
	"strings"
)

// writer accumulates indented TypeScript source.
type writer struct {
	b     strings.Builder
	depth int
}

// line writes one indented line. Arguments are formatted only when present,
// so literal text containing '%' is safe.
func (w *writer) line(format string, args ...any) {
	text := format
	if len(args) > 0 {
		text = fmt.Sprintf(format, args...)
	}
	if text == "" {
		w.b.WriteByte('\n')
		return
	}
	w.b.WriteString(strings.Repeat("  ", w.depth))
	w.b.WriteString(text)
	w.b.WriteByte('\n')
}

func (w *writer) blank() {
	w.b.WriteByte('\n')
}

// open writes a line and indents what follows.
func (w *writer) open(format string, args ...any) {
	w.line(format, args...)
	w.depth++
}

// close dedents and writes a line.
func (w *writer) close(format string, args ...any) {
	w.depth--
	w.line(format, args...)
}

func (w *writer) String() string {
	return w.b.String()
}

// Quote renders s as a single-quoted TypeScript string literal.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case 0x2028, 0x2029:
			fmt.Fprintf(&b, "\\u%04x", r)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, "\\x%02x", r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
