// Package config loads flowgen.yaml, the optional project configuration file.
//
// Precedence is flags > file > defaults; this package handles the last two
// and the CLI applies flags on top.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/flowgen/internal/classify"
	"github.com/roach88/flowgen/internal/dataplan"
	"github.com/roach88/flowgen/internal/emit"
)

// DefaultFile is the configuration file looked up in the working directory
// when --config is not given.
const DefaultFile = "flowgen.yaml"

// Config is the project configuration.
type Config struct {
	// DenyKeywords mark locator keys as action-only. An explicit empty list
	// classifies every key as interactive.
	DenyKeywords []string `yaml:"deny_keywords"`

	OccurrencePolicy string `yaml:"occurrence_policy"` // strict | lenient
	ReferenceEnvVar  string `yaml:"reference_env_var"`
	HelperModule     string `yaml:"helper_module"`

	OutDir   string `yaml:"out_dir"`
	Manifest string `yaml:"manifest"` // empty: no manifest tier
	Database string `yaml:"database"` // empty: history is not recorded

	// Parallelism bounds batch generation; 0 means GOMAXPROCS.
	Parallelism int `yaml:"parallelism"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DenyKeywords:     slices.Clone(classify.DefaultKeywords),
		OccurrencePolicy: emit.Strict.String(),
		ReferenceEnvVar:  dataplan.DefaultReferenceEnvVar,
		HelperModule:     emit.DefaultHelperModule,
		OutDir:           ".",
	}
}

// Load reads the configuration file at path over the defaults. Relative
// paths inside the file are resolved against the file's directory.
//
// When path is empty, DefaultFile is used if it exists; otherwise the
// defaults are returned. An explicit path that does not exist is an error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes configuration YAML over the defaults. Unknown keys are
// rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that cannot be rejected by decoding alone.
func (c Config) Validate() error {
	if _, err := emit.ParseOccurrencePolicy(c.OccurrencePolicy); err != nil {
		return err
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("parallelism must not be negative, got %d", c.Parallelism)
	}
	return nil
}

func (c *Config) resolvePaths(dir string) {
	for _, p := range []*string{&c.OutDir, &c.Manifest, &c.Database} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// Policy returns the parsed occurrence policy. Call Validate first.
func (c Config) Policy() emit.OccurrencePolicy {
	p, _ := emit.ParseOccurrencePolicy(c.OccurrencePolicy)
	return p
}

// Classifier builds the field classifier for DenyKeywords.
func (c Config) Classifier() *classify.Classifier {
	return classify.New(c.DenyKeywords...)
}

// EmitOptions returns the emitter options.
func (c Config) EmitOptions() emit.Options {
	return emit.Options{
		Policy:          c.Policy(),
		HelperModule:    c.HelperModule,
		ReferenceEnvVar: c.ReferenceEnvVar,
	}
}

// LoadManifest loads the configured manifest. It returns a nil lookup when no
// manifest is configured.
func (c Config) LoadManifest() (dataplan.ManifestLookup, error) {
	if c.Manifest == "" {
		return nil, nil
	}
	m, err := dataplan.LoadManifestFile(c.Manifest)
	if err != nil {
		return nil, err
	}
	return m, nil
}
