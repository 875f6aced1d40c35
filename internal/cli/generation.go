package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/flowgen/internal/bundle"
	"github.com/roach88/flowgen/internal/config"
	"github.com/roach88/flowgen/internal/ir"
	"github.com/roach88/flowgen/internal/store"
)

// GenerationFlags are the flags shared by commands that generate bundles.
// Set flags override the configuration file.
type GenerationFlags struct {
	Out      string
	Manifest string
	Policy   string
	DB       string
}

func (f *GenerationFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Out, "out", "o", "", "output root for locators/, pages/ and tests/")
	cmd.Flags().StringVar(&f.Manifest, "manifest", "", "manifest YAML used for the generation-time data plan")
	cmd.Flags().StringVar(&f.Policy, "policy", "", "occurrence policy for applyData (strict|lenient)")
	cmd.Flags().StringVar(&f.DB, "db", "", "record generations in this SQLite database")
}

// apply layers the set flags over cfg.
func (f *GenerationFlags) apply(cfg config.Config) (config.Config, error) {
	if f.Out != "" {
		cfg.OutDir = f.Out
	}
	if f.Manifest != "" {
		cfg.Manifest = f.Manifest
	}
	if f.Policy != "" {
		cfg.OccurrencePolicy = f.Policy
	}
	if f.DB != "" {
		cfg.Database = f.DB
	}
	return cfg, cfg.Validate()
}

// GenerateResult describes one generated bundle.
type GenerateResult struct {
	BundleID string   `json:"bundle_id"`
	PageName string   `json:"page_name"`
	TestName string   `json:"test_name"`
	Files    []string `json:"files"`
	RunID    string   `json:"run_id,omitempty"`
}

func newGenerateResult(b *ir.ArtifactBundle) GenerateResult {
	return GenerateResult{
		BundleID: b.ID,
		PageName: b.PageName,
		TestName: b.TestName,
		Files:    []string{b.LocatorsFile, b.PageFile, b.TestFile},
	}
}

// joinOut returns the on-disk path of a bundle file.
func joinOut(outDir, rel string) string {
	return filepath.Join(outDir, filepath.FromSlash(rel))
}

// session holds what one generating command needs: the resolved settings,
// a generator built from them and, when a database is configured, the
// history recorder.
type session struct {
	cfg      config.Config
	gen      *bundle.Deterministic
	recorder *store.Recorder
	log      *zap.Logger
}

// openSession resolves settings and builds the generator. The history
// database is only opened when record is set.
func openSession(opts *RootOptions, flags *GenerationFlags, record bool) (*session, error) {
	cfg, err := opts.settings()
	if err != nil {
		return nil, &configError{err: err}
	}
	if cfg, err = flags.apply(cfg); err != nil {
		return nil, &configError{err: err}
	}

	manifest, err := cfg.LoadManifest()
	if err != nil {
		return nil, &configError{err: err}
	}
	log := opts.log()
	genOpts := []bundle.Option{
		bundle.WithClassifier(cfg.Classifier()),
		bundle.WithEmitOptions(cfg.EmitOptions()),
		bundle.WithLogger(log),
	}
	if manifest != nil {
		genOpts = append(genOpts, bundle.WithManifest(manifest))
	}

	s := &session{cfg: cfg, gen: bundle.NewDeterministic(genOpts...), log: log}
	if record && cfg.Database != "" {
		db, err := store.Open(cfg.Database)
		if err != nil {
			return nil, &storeError{err: err}
		}
		s.recorder = &store.Recorder{Store: db}
	}
	return s, nil
}

func (s *session) Close() error {
	if s.recorder == nil {
		return nil
	}
	return s.recorder.Store.Close()
}

// emit writes b under the output root and records it when a database is
// configured.
func (s *session) emit(ctx context.Context, flow ir.Flow, b *ir.ArtifactBundle) (GenerateResult, error) {
	res := newGenerateResult(b)
	if err := bundle.WriteBundle(s.cfg.OutDir, b); err != nil {
		return res, &writeError{err: err}
	}
	s.log.Info("wrote bundle",
		zap.String("page", b.PageName),
		zap.String("test", b.TestName),
		zap.String("out", s.cfg.OutDir),
	)

	if s.recorder == nil {
		return res, nil
	}
	g, err := s.recorder.Record(ctx, flow, b)
	if err != nil {
		return res, &storeError{err: err}
	}
	res.RunID = g.RunID
	return res, nil
}

// configError, writeError and storeError tag failures with their command
// error code.
type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }
func (e *configError) Code() string  { return ErrCodeConfig }

type writeError struct{ err error }

func (e *writeError) Error() string { return e.err.Error() }
func (e *writeError) Unwrap() error { return e.err }
func (e *writeError) Code() string  { return ErrCodeWriteFailed }

type storeError struct{ err error }

func (e *storeError) Error() string { return fmt.Sprintf("history database: %v", e.err) }
func (e *storeError) Unwrap() error { return e.err }
func (e *storeError) Code() string  { return ErrCodeStore }
