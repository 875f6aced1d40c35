// Package ir provides the intermediate representation shared by every flowgen
// stage: recorded steps, locator tables, field classes, data resolution plans
// and artifact bundles.
//
// This package contains type definitions, canonical JSON and hashing only.
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Step ordinals define execution order and are never reordered
//   - LocatorTable preserves insertion order (it drives declaration order)
//   - No float types anywhere - use int for numbers
//   - All JSON tags use snake_case
package ir
