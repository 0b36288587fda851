package council

import (
	"sync"

	"github.com/money3x/councilflow/provider"
)

// SharedPool holds already-constructed provider handles that multiple
// councils may adopt via InitializeFromPool. The pool is an explicit
// read-mostly boundary: councils only read from it, and they never
// mutate each other's rosters through it.
type SharedPool struct {
	mu        sync.RWMutex
	providers map[string]provider.Provider
	order     []string
}

// NewSharedPool creates an empty pool.
func NewSharedPool() *SharedPool {
	return &SharedPool{providers: make(map[string]provider.Provider)}
}

// Add registers a handle under its own name. A later Add for the same
// name replaces the earlier handle.
func (p *SharedPool) Add(handle provider.Provider) {
	p.mu.Lock()
	defer p.mu.Unlock()
	name := handle.Name()
	if _, exists := p.providers[name]; !exists {
		p.order = append(p.order, name)
	}
	p.providers[name] = handle
}

// Get retrieves a handle by identifier.
func (p *SharedPool) Get(identifier string) (provider.Provider, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	handle, ok := p.providers[identifier]
	return handle, ok
}

// Len returns the number of pooled handles.
func (p *SharedPool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.providers)
}

// Identifiers returns pooled identifiers in insertion order.
func (p *SharedPool) Identifiers() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.order...)
}
