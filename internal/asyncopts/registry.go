package asyncopts

import "sync"

// Registry owns one Store per builder instance.
//
// Stores are created on first use and released by Dispose.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*Store
	opts   []StoreOption
}

// NewRegistry creates a registry whose stores are built with opts.
func NewRegistry(opts ...StoreOption) *Registry {
	return &Registry{stores: make(map[string]*Store), opts: opts}
}

// For returns the store of builder id, creating it if needed.
func (r *Registry) For(id string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[id]
	if !ok {
		s = NewStore(r.opts...)
		r.stores[id] = s
	}
	return s
}

// Dispose drops the store of builder id.
func (r *Registry) Dispose(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stores[id]; ok {
		s.Clear()
		delete(r.stores, id)
	}
}

// Len is the number of live stores.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
