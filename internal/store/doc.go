// Package store provides SQLite-backed storage for generated bundles and the
// history of generation runs.
//
// The store keeps:
//   - Bundles: the three emitted modules, keyed by their content hash
//   - Generations: one record per run, linking a flow hash to a bundle
//
// # Identity and Ordering
//
// Bundle ids are computed by ir.BundleID, so regenerating an unchanged flow
// writes no new bundle row (ON CONFLICT DO NOTHING). Generation history is
// ordered by seq, never by created_at: timestamps come from an injected Clock
// and are informational only.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
