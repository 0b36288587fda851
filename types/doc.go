// Package types defines shared primitives used across the councilflow
// engine: the unified error code taxonomy and the structured Error type.
//
// Provider-level failures are converted into state (initialization attempt
// entries, health records) rather than propagated; only whole-system
// failures reach callers as errors. The ErrorCode constants here mirror
// that split.
package types
