// Package asyncopts caches option lists that are fetched on demand.
//
// A Store keeps one prepared option list per cache key together with the
// time it was fetched, the last load error and whether a load is in
// flight. Concurrent loads of the same key are coalesced so the loader
// runs once and every caller receives its result.
package asyncopts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/querybuilder/internal/options"
)

// DefaultTTL is how long a loaded list stays fresh unless told otherwise.
const DefaultTTL = 30 * time.Minute

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Loader fetches a raw option list.
type Loader func(ctx context.Context) (options.List[options.Option], error)

type entry struct {
	data    options.Result[options.Option]
	fetched time.Time
}

// Store is a TTL cache of prepared option lists.
//
// Thread-safety: All methods are safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	clock   Clock
	cache   map[string]entry
	errs    map[string]error
	loading map[string]bool

	group singleflight.Group
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock replaces the wall clock, for tests.
func WithClock(c Clock) StoreOption {
	return func(s *Store) { s.clock = c }
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		clock:   systemClock{},
		cache:   make(map[string]entry),
		errs:    make(map[string]error),
		loading: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the list cached under key if it is younger than ttl, and
// otherwise runs load, prepares its result and caches it.
//
// A ttl of zero never caches: every call runs the loader, although calls
// that overlap still share one run. If ctx ends first Load returns
// ctx.Err(); the shared load keeps going and its result is still cached.
func (s *Store) Load(ctx context.Context, key string, ttl time.Duration, load Loader) (options.Result[options.Option], error) {
	if res, ok := s.fresh(key, ttl); ok {
		return res, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		// Double-check inside the flight: a previous one may have just filled it.
		if res, ok := s.fresh(key, ttl); ok {
			return res, nil
		}
		s.setLoading(key)
		list, err := load(detached)
		if err != nil {
			s.setError(key, err)
			return nil, err
		}
		res := options.Prepare(list, options.Config[options.Option]{})
		s.setCache(key, res, ttl)
		return res, nil
	})

	select {
	case <-ctx.Done():
		return options.Result[options.Option]{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return options.Result[options.Option]{}, fmt.Errorf("load options %q: %w", key, r.Err)
		}
		res, ok := r.Val.(options.Result[options.Option])
		if !ok {
			return options.Result[options.Option]{}, fmt.Errorf("load options %q: unexpected result type %T", key, r.Val)
		}
		return res, nil
	}
}

// Get returns the cached list for key, fresh or not.
func (s *Store) Get(key string) (options.Result[options.Option], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.cache[key]
	return e.data, ok
}

// Fresh reports whether key holds a list younger than ttl.
func (s *Store) Fresh(key string, ttl time.Duration) bool {
	_, ok := s.fresh(key, ttl)
	return ok
}

// Err returns the error of the last failed load of key, or nil.
func (s *Store) Err(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs[key]
}

// Loading reports whether a load of key is in flight.
func (s *Store) Loading(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading[key]
}

// Invalidate drops the cached list and error for key.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, key)
	delete(s.errs, key)
}

// Clear drops everything.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]entry)
	s.errs = make(map[string]error)
	s.loading = make(map[string]bool)
}

// Len is the number of cached keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}

func (s *Store) fresh(key string, ttl time.Duration) (options.Result[options.Option], bool) {
	if ttl <= 0 {
		return options.Result[options.Option]{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.cache[key]
	if !ok || s.clock.Now().Sub(e.fetched) >= ttl {
		return options.Result[options.Option]{}, false
	}
	return e.data, true
}

func (s *Store) setLoading(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading[key] = true
	delete(s.errs, key)
}

func (s *Store) setCache(key string, res options.Result[options.Option], ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading[key] = false
	if ttl > 0 {
		s.cache[key] = entry{data: res, fetched: s.clock.Now()}
	}
}

func (s *Store) setError(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading[key] = false
	s.errs[key] = err
}
