package builder

import (
	"fmt"
	"sync"

	"github.com/roach88/querybuilder/internal/dnd"
)

// Registry maps builder ids to live builders so that one builder can
// reach another, as a cross-builder drop does.
//
// Builders join through WithRegistry and leave on Close. A Registry is
// owned by the caller; there is no process-wide instance.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]*Builder
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]*Builder)}
}

// Register adds b. It fails if another builder holds the same id.
func (r *Registry) Register(b *Builder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.builders[b.id]; ok && cur != b {
		return fmt.Errorf("builder %q already registered", b.id)
	}
	r.builders[b.id] = b
	return nil
}

// Lookup returns the builder with the given id.
func (r *Registry) Lookup(id string) (*Builder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builders[id]
	return b, ok
}

// Remove drops the builder with the given id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.builders, id)
}

// Len is the number of registered builders.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.builders)
}

// Resolver adapts Lookup for dnd.Apply.
func (r *Registry) Resolver() dnd.Resolver {
	return func(id string) (dnd.Instance, bool) {
		b, ok := r.Lookup(id)
		if !ok {
			return nil, false
		}
		return b, true
	}
}
