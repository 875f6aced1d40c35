package testutil

import "sync"

// FixedRunIDGenerator returns predetermined run ids for testing.
//
// This enables deterministic generation history: the same test with the same
// ids produces identical store contents.
//
// Thread-safety: FixedRunIDGenerator is safe for concurrent use via internal mutex.
type FixedRunIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedRunIDGenerator creates a generator that returns ids in order and
// then keeps returning the last one. With no ids it returns "test-run-default".
func NewFixedRunIDGenerator(ids ...string) *FixedRunIDGenerator {
	if len(ids) == 0 {
		ids = []string{"test-run-default"}
	}
	return &FixedRunIDGenerator{ids: ids}
}

// Generate returns the next predetermined id.
//
// Implements store.RunIDGenerator.
func (g *FixedRunIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.ids[g.idx]
	if g.idx < len(g.ids)-1 {
		g.idx++
	}
	return id
}
