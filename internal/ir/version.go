package ir

// Version constants for the IR schema and the generator.
const (
	// IRVersion is the IR schema version.
	IRVersion = "1"

	// GeneratorVersion is the flowgen generator version. It is embedded in
	// bundle hashes so that emitter changes invalidate stored bundles.
	GeneratorVersion = "0.3.0"
)
