package testutil

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenDir is where golden files live, relative to the package under test.
const GoldenDir = "testdata/golden"

// AssertGolden compares data against testdata/golden/{name}.golden. A missing
// golden file fails the test. To regenerate golden files, run:
//
//	go test ./internal/emit -update
func AssertGolden(t testing.TB, name string, data []byte) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
