package bundle

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/flowgen/internal/ir"
)

// Outcome is the result of one request in a batch.
type Outcome struct {
	Request Request
	Bundle  *ir.ArtifactBundle // nil when Err is set
	Err     error
}

// GenerateAll runs independent requests in parallel, at most limit at a time
// (limit <= 0 means GOMAXPROCS). Outcomes are returned in request order. A
// failing request does not stop the others; the returned error is only set
// when ctx is cancelled.
func GenerateAll(ctx context.Context, gen Generator, reqs []Request, limit int) ([]Outcome, error) {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	out := make([]Outcome, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, req := range reqs {
		g.Go(func() error {
			b, err := gen.Generate(gctx, req)
			out[i] = Outcome{Request: req, Bundle: b, Err: err}
			return nil // per-request failures are recorded, not propagated
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}
