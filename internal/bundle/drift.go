package bundle

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/roach88/flowgen/internal/ir"
)

// contextLines is how many unchanged lines are kept around a change.
const contextLines = 3

// Drift describes one generated file whose on-disk content differs from a
// fresh generation.
type Drift struct {
	File    string `json:"file"` // relative path
	Missing bool   `json:"missing,omitempty"`
	Diff    string `json:"diff,omitempty"`
}

// CheckDrift compares the files of b with those under dir. An empty result
// means the directory is up to date.
func CheckDrift(dir string, b *ir.ArtifactBundle) ([]Drift, error) {
	var drifts []Drift
	for _, f := range b.Files() {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(f[0])))
		if errors.Is(err, fs.ErrNotExist) {
			drifts = append(drifts, Drift{File: f[0], Missing: true})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("check drift %s: %w", f[0], err)
		}
		if string(data) == f[1] {
			continue
		}
		drifts = append(drifts, Drift{File: f[0], Diff: LineDiff(f[0], string(data), f[1])})
	}
	return drifts, nil
}

// LineDiff renders a line-based diff from old to new with a unified-style
// header. Long unchanged runs are elided.
func LineDiff(name, old, new string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(old, new)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", name, name)
	for i, d := range diffs {
		text := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			writePrefixed(&sb, "-", text)
		case diffmatchpatch.DiffInsert:
			writePrefixed(&sb, "+", text)
		case diffmatchpatch.DiffEqual:
			head, tail := contextLines, contextLines
			if i == 0 {
				head = 0
			}
			if i == len(diffs)-1 {
				tail = 0
			}
			if len(text) <= head+tail {
				writePrefixed(&sb, " ", text)
				continue
			}
			writePrefixed(&sb, " ", text[:head])
			sb.WriteString("@@\n")
			writePrefixed(&sb, " ", text[len(text)-tail:])
		}
	}
	return sb.String()
}

func splitLines(s string) []string {
	parts := strings.SplitAfter(s, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "\n")
	}
	return parts
}

func writePrefixed(sb *strings.Builder, prefix string, lines []string) {
	for _, l := range lines {
		sb.WriteString(prefix)
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
}
