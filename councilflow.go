// Package councilflow provides a top-level convenience entry point for
// assembling a content-production council with minimal boilerplate.
//
// Usage:
//
//	import "github.com/money3x/councilflow"
//
//	c := councilflow.New(cfg.Providers, councilflow.WithLogger(logger))
//	if err := c.Initialize(ctx); err != nil { ... }
//	run, err := c.ExecuteWorkflow(ctx, prompt, "full")
//
// Every configured provider speaks the OpenAI-compatible dialect through
// [openaicompat.Constructor]. Callers needing custom adapters, caching,
// or a shared construction pool should build a [provider.Registry] and
// use [council.New] directly.
package councilflow

import (
	"go.uber.org/zap"

	"github.com/money3x/councilflow/council"
	"github.com/money3x/councilflow/provider"
	"github.com/money3x/councilflow/provider/openaicompat"
)

// Option configures the council created by [New].
type Option = council.Option

// Council is the orchestrator returned by [New].
type Council = council.Council

// New creates a council over the given enabled-provider roster, with an
// OpenAI-compatible constructor registered per provider. The council is
// not yet initialized; call Initialize on it.
func New(configs []provider.Config, opts ...Option) *Council {
	return NewWithLogger(nil, configs, opts...)
}

// NewWithLogger is [New] with an explicit logger shared by the registry,
// the provider adapters, and the council. A nil logger defaults to noop.
func NewWithLogger(logger *zap.Logger, configs []provider.Config, opts ...Option) *Council {
	registry := provider.NewRegistry(logger)
	ctor := openaicompat.Constructor(logger)
	for _, cfg := range configs {
		registry.Register(cfg.Identifier, ctor)
	}
	if logger != nil {
		opts = append([]Option{council.WithLogger(logger)}, opts...)
	}
	return council.New(registry, configs, opts...)
}

// Re-export council options so callers never need to import council/.

// WithLogger sets the council logger.
var WithLogger = council.WithLogger

// WithMetrics attaches a metrics collector.
var WithMetrics = council.WithMetrics

// WithHealthInterval sets the period between health sweeps.
var WithHealthInterval = council.WithHealthInterval

// WithHealthProbeTimeout bounds a single health probe.
var WithHealthProbeTimeout = council.WithHealthProbeTimeout

// WithPrioritySort makes candidates initialize in ascending priority
// order, as the quality variant requires.
var WithPrioritySort = council.WithPrioritySort
