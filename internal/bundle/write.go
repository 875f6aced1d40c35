package bundle

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/roach88/flowgen/internal/ir"
)

// rename is swapped in tests to fail part way through.
var rename = os.Rename

// WriteBundle writes the three modules of b under dir. Each file is first
// written to a temporary sibling; targets are only replaced once every
// temporary write succeeded. Replaced files are kept aside until all renames
// succeed, so a failure at any point leaves the previous files in place.
func WriteBundle(dir string, b *ir.ArtifactBundle) (err error) {
	type pending struct {
		tmp, target, backup string
		installed           bool
	}
	var staged []*pending

	defer func() {
		if err == nil {
			for _, p := range staged {
				if p.backup != "" {
					_ = os.Remove(p.backup)
				}
			}
			return
		}
		for i := len(staged) - 1; i >= 0; i-- {
			p := staged[i]
			if p.installed {
				_ = os.Remove(p.target)
			}
			if p.backup != "" {
				_ = rename(p.backup, p.target)
			}
			_ = os.Remove(p.tmp)
		}
	}()

	for _, f := range b.Files() {
		target := filepath.Join(dir, filepath.FromSlash(f[0]))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("write %s: %w", f[0], err)
		}
		tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*")
		if err != nil {
			return fmt.Errorf("write %s: %w", f[0], err)
		}
		staged = append(staged, &pending{tmp: tmp.Name(), target: target})

		if _, err := tmp.WriteString(f[1]); err != nil {
			tmp.Close()
			return fmt.Errorf("write %s: %w", f[0], err)
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("write %s: %w", f[0], err)
		}
		if err := os.Chmod(tmp.Name(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f[0], err)
		}
	}

	for _, p := range staged {
		info, err := os.Lstat(p.target)
		switch {
		case err == nil && info.IsDir():
			return fmt.Errorf("write %s: target is a directory", p.target)
		case err == nil:
			backup := p.tmp + ".prev"
			if err := rename(p.target, backup); err != nil {
				return fmt.Errorf("write %s: %w", p.target, err)
			}
			p.backup = backup
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("write %s: %w", p.target, err)
		}

		if err := rename(p.tmp, p.target); err != nil {
			return fmt.Errorf("write %s: %w", p.target, err)
		}
		p.installed = true
	}
	return nil
}
