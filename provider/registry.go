package provider

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/money3x/councilflow/types"
)

// DefaultConstructTimeout bounds a single provider construction.
const DefaultConstructTimeout = 10 * time.Second

// Constructor builds a provider handle from its configuration record.
type Constructor func(ctx context.Context, cfg Config) (Provider, error)

// Registry maps provider identifiers to constructors and builds handles
// under a bounded timeout. It is safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
	timeout      time.Duration
	logger       *zap.Logger
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithConstructTimeout overrides the default construction timeout.
func WithConstructTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRegistry creates an empty Registry. A nil logger defaults to noop.
func NewRegistry(logger *zap.Logger, opts ...RegistryOption) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		constructors: make(map[string]Constructor),
		timeout:      DefaultConstructTimeout,
		logger:       logger.With(zap.String("component", "provider_registry")),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a constructor under the given identifier. A later
// registration for the same identifier replaces the earlier one.
func (r *Registry) Register(identifier string, fn Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[identifier] = fn
}

// Identifiers returns the sorted identifiers of all registered constructors.
func (r *Registry) Identifiers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.constructors))
	for id := range r.constructors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Construct builds a provider handle for the identifier in cfg. The
// constructor runs under the registry's timeout; a constructor that
// neither returns nor honors ctx within the bound yields a
// CONSTRUCTION_TIMEOUT error and its eventual result is discarded.
func (r *Registry) Construct(ctx context.Context, cfg Config) (Provider, error) {
	r.mu.RLock()
	fn, ok := r.constructors[cfg.Identifier]
	r.mu.RUnlock()
	if !ok {
		return nil, types.NewErrorf(types.ErrConstruction,
			"unknown provider identifier %q", cfg.Identifier).WithProvider(cfg.Identifier)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type result struct {
		p   Provider
		err error
	}
	done := make(chan result, 1)
	start := time.Now()
	go func() {
		p, err := fn(ctx, cfg)
		done <- result{p: p, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, types.NewErrorf(types.ErrConstruction,
				"construct provider %q", cfg.Identifier).
				WithProvider(cfg.Identifier).WithCause(res.err)
		}
		r.logger.Debug("provider constructed",
			zap.String("provider", cfg.Identifier),
			zap.Duration("elapsed", time.Since(start)))
		return res.p, nil
	case <-ctx.Done():
		return nil, types.NewErrorf(types.ErrConstructionTimeout,
			"construct provider %q exceeded %s", cfg.Identifier, r.timeout).
			WithProvider(cfg.Identifier).WithCause(ctx.Err())
	}
}
