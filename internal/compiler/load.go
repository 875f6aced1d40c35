package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/encoding/json"
	"cuelang.org/go/encoding/yaml"

	"github.com/roach88/flowgen/internal/emit"
	"github.com/roach88/flowgen/internal/ir"
)

// flowExtensions are the document formats LoadFlowFile understands.
var flowExtensions = map[string]bool{
	".cue":  true,
	".yaml": true,
	".yml":  true,
	".json": true,
}

// IsFlowFile reports whether path has a recognised flow document extension.
func IsFlowFile(path string) bool {
	return flowExtensions[strings.ToLower(filepath.Ext(path))]
}

// LoadFlowFile reads, compiles and validates one flow document. The document
// holds a single top-level "flow" struct in any supported format.
func LoadFlowFile(path string) (*ir.Flow, error) {
	v, err := loadValue(cuecontext.New(), path)
	if err != nil {
		return nil, err
	}

	flow, err := CompileFlow(v.LookupPath(cue.ParsePath("flow")))
	if err != nil {
		return nil, err
	}
	if errs := Validate(flow); len(errs) > 0 {
		return nil, errs
	}
	return flow, nil
}

func loadValue(ctx *cue.Context, path string) (cue.Value, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".cue" {
		instances := load.Instances([]string{filepath.Base(path)}, &load.Config{Dir: filepath.Dir(path)})
		if len(instances) == 0 {
			return cue.Value{}, fmt.Errorf("load %s: no CUE instances loaded", path)
		}
		if err := instances[0].Err; err != nil {
			return cue.Value{}, formatCUEError(err)
		}
		v := ctx.BuildInstance(instances[0])
		if err := v.Err(); err != nil {
			return cue.Value{}, formatCUEError(err)
		}
		return v, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, fmt.Errorf("load %s: %w", path, err)
	}

	var v cue.Value
	switch ext {
	case ".yaml", ".yml":
		f, err := yaml.Extract(path, data)
		if err != nil {
			return cue.Value{}, formatCUEError(err)
		}
		v = ctx.BuildFile(f)
	case ".json":
		expr, err := json.Extract(path, data)
		if err != nil {
			return cue.Value{}, formatCUEError(err)
		}
		v = ctx.BuildExpr(expr)
	default:
		return cue.Value{}, fmt.Errorf("load %s: unsupported extension %q (want .cue, .yaml, .yml or .json)", path, ext)
	}
	if err := v.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return v, nil
}

// FindFlowFiles returns every flow document directly under dir, sorted by
// name.
func FindFlowFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && IsFlowFile(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// LoadFlowDir loads every flow document under dir. It collects all errors
// rather than stopping at the first; a flow whose generated files would
// collide with an earlier flow's is reported and skipped.
func LoadFlowDir(dir string) ([]*ir.Flow, []error) {
	files, err := FindFlowFiles(dir)
	if err != nil {
		return nil, []error{fmt.Errorf("scan %s: %w", dir, err)}
	}
	if len(files) == 0 {
		return nil, []error{fmt.Errorf("no flow files found in %s", dir)}
	}

	var (
		flows []*ir.Flow
		errs  []error
	)
	owners := make(map[string]string) // generated file -> flow file
	for _, path := range files {
		flow, err := LoadFlowFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}

		var clash []error
		targets := []string{emit.PageFile(flow.PageName), emit.TestFile(flow.TestName)}
		for _, target := range targets {
			if owner, ok := owners[target]; ok {
				clash = append(clash, ValidationError{
					Field:   "flow",
					Message: fmt.Sprintf("%s is also generated by %s", target, owner),
					Code:    ErrDuplicateTarget,
				})
			}
		}
		if len(clash) > 0 {
			for _, e := range clash {
				errs = append(errs, fmt.Errorf("%s: %w", path, e))
			}
			continue
		}
		for _, target := range targets {
			owners[target] = path
		}
		flows = append(flows, flow)
	}
	return flows, errs
}
