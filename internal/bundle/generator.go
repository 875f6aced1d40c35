package bundle

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/flowgen/internal/classify"
	"github.com/roach88/flowgen/internal/dataplan"
	"github.com/roach88/flowgen/internal/emit"
	"github.com/roach88/flowgen/internal/ir"
	"github.com/roach88/flowgen/internal/locator"
)

// Request is one generation request. Exactly one of Steps and Locators is
// used: a non-nil Locators table wins.
type Request struct {
	Steps    []ir.RecordedStep
	Locators *ir.LocatorTable

	PageName   string // empty: derived from TestCaseID
	TestName   string // empty: derived from TestCaseID
	TestCaseID string // empty: TestName
}

// RequestFromFlow builds a request from a compiled flow.
func RequestFromFlow(f ir.Flow) Request {
	return Request{
		Steps:      f.Steps,
		PageName:   f.PageName,
		TestName:   f.TestName,
		TestCaseID: f.TestCaseID,
	}
}

// Resolved returns the request with defaulted names filled in.
func (r Request) Resolved() Request {
	if strings.TrimSpace(r.TestCaseID) == "" {
		r.TestCaseID = r.TestName
	}
	page, test := emit.DefaultNames(r.TestCaseID)
	if r.PageName == "" {
		r.PageName = page
	}
	if r.TestName == "" {
		r.TestName = test
	}
	return r
}

// resolve fills in defaulted names and validates them.
func resolve(req Request) (Request, error) {
	req = req.Resolved()
	if strings.TrimSpace(req.TestCaseID) == "" {
		return req, dataplan.ErrEmptyTestCaseID
	}
	if err := emit.ValidateNames(req.PageName, req.TestName); err != nil {
		return req, err
	}
	return req, nil
}

// Generator turns a request into a validated bundle.
type Generator interface {
	Generate(ctx context.Context, req Request) (*ir.ArtifactBundle, error)
}

// Option configures a Deterministic generator.
type Option func(*Deterministic)

// WithClassifier sets the field classifier. Default: classify.Default().
func WithClassifier(c *classify.Classifier) Option {
	return func(g *Deterministic) { g.classifier = c }
}

// WithSynthesizer sets the locator synthesizer. Default: locator.New().
func WithSynthesizer(s *locator.Synthesizer) Option {
	return func(g *Deterministic) { g.synth = s }
}

// WithManifest sets the manifest tier used for the generation-time plan.
func WithManifest(m dataplan.ManifestLookup) Option {
	return func(g *Deterministic) { g.manifest = m }
}

// WithEmitOptions sets the emitter options.
func WithEmitOptions(o emit.Options) Option {
	return func(g *Deterministic) { g.opts = o }
}

// WithLogger sets the logger for the generator and its assembler.
func WithLogger(log *zap.Logger) Option {
	return func(g *Deterministic) { g.log = log }
}

// Deterministic generates bundles from recorded steps without a model.
// Equal requests produce byte-identical bundles. It holds no per-call state
// and is safe for concurrent use.
type Deterministic struct {
	classifier *classify.Classifier
	synth      *locator.Synthesizer
	manifest   dataplan.ManifestLookup
	opts       emit.Options
	log        *zap.Logger
	assembler  *Assembler
}

// NewDeterministic creates a Deterministic generator.
func NewDeterministic(opts ...Option) *Deterministic {
	g := &Deterministic{
		classifier: classify.Default(),
		synth:      locator.New(),
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.log == nil {
		g.log = zap.NewNop()
	}
	g.assembler = NewAssembler(g.log)
	return g
}

// Planner returns the planner used for the generation-time plan. The
// environment tier is left out so output does not depend on the caller's
// environment; the generated test reads it at run time instead.
func (g *Deterministic) Planner() *dataplan.Planner {
	return &dataplan.Planner{Manifest: g.manifest, ReferenceEnvVar: g.opts.ReferenceEnvVar}
}

// Generate implements Generator. The context is only checked before work
// starts; generation itself does not block.
func (g *Deterministic) Generate(ctx context.Context, req Request) (*ir.ArtifactBundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req, err := resolve(req)
	if err != nil {
		return nil, err
	}

	var res *locator.Result
	if req.Locators != nil {
		res, err = locator.BindTable(req.Locators, g.classifier)
	} else {
		res, err = g.synth.Synthesize(req.Steps)
	}
	if err != nil {
		return nil, err
	}

	plan, err := g.Planner().Plan(req.TestCaseID)
	if err != nil {
		return nil, err
	}

	in := emit.Input{
		Table:    res.Table,
		Classes:  g.classifier.ClassifyTable(res.Table),
		Bindings: res.Bindings,
		Plan:     plan,
		PageName: req.PageName,
		TestName: req.TestName,
	}
	page, err := emit.PageObject(in, g.opts)
	if err != nil {
		return nil, fmt.Errorf("emit page object: %w", err)
	}
	test, err := emit.TestSpec(in, g.opts)
	if err != nil {
		return nil, fmt.Errorf("emit test spec: %w", err)
	}

	b, err := g.assembler.Assemble(ctx, Parts{
		PageName:         req.PageName,
		TestName:         req.TestName,
		Table:            res.Table,
		LocatorsModule:   emit.LocatorsModule(res.Table),
		PageObjectModule: page,
		TestSpecModule:   test,
	})
	if err != nil {
		return nil, err
	}

	g.log.Debug("generated bundle",
		zap.String("page", b.PageName),
		zap.String("test", b.TestName),
		zap.String("test_case_id", req.TestCaseID),
		zap.Int("locators", res.Table.Len()),
		zap.String("bundle_id", b.ID),
	)
	return b, nil
}

// Modules are the three TypeScript sources returned by a Model.
type Modules struct {
	Locators   string
	PageObject string
	TestSpec   string
}

// Model produces bundle sources from a request, typically by prompting a
// language model. Implementations live outside this module.
type Model interface {
	Generate(ctx context.Context, req Request) (Modules, error)
}

// ModelDriven wraps a Model. Its output passes the same consistency checks as
// the deterministic path; the locator table is read back from the returned
// locators module.
type ModelDriven struct {
	model     Model
	assembler *Assembler
}

// NewModelDriven creates a ModelDriven generator. A nil logger discards
// output.
func NewModelDriven(m Model, log *zap.Logger) *ModelDriven {
	return &ModelDriven{model: m, assembler: NewAssembler(log)}
}

// Generate implements Generator.
func (g *ModelDriven) Generate(ctx context.Context, req Request) (*ir.ArtifactBundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req, err := resolve(req)
	if err != nil {
		return nil, err
	}

	out, err := g.model.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	return g.assembler.Assemble(ctx, Parts{
		PageName:         req.PageName,
		TestName:         req.TestName,
		LocatorsModule:   out.Locators,
		PageObjectModule: out.PageObject,
		TestSpecModule:   out.TestSpec,
	})
}
