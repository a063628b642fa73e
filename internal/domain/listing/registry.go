package listing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Registry owns one Store per user for a module. Stores are created on first
// use and live until Close.
type Registry[T any] struct {
	def      Definition[T]
	backend  Backend
	fetch    Fetcher[T]
	persist  FilterPersister
	debounce time.Duration

	mu     sync.Mutex
	stores map[string]*Store[T]
}

func NewRegistry[T any](def Definition[T], b Backend, methodPrefix string, persist FilterPersister, debounce time.Duration) *Registry[T] {
	if persist == nil {
		persist = NewMemoryPersister()
	}
	return &Registry[T]{
		def:      def,
		backend:  b,
		fetch:    def.Fetcher(b, methodPrefix),
		persist:  persist,
		debounce: debounce,
		stores:   map[string]*Store[T]{},
	}
}

func (r *Registry[T]) Definition() Definition[T] {
	return r.def
}

// Detail loads one record of the module.
func (r *Registry[T]) Detail(ctx context.Context, id string) (T, error) {
	return r.def.Detail(ctx, r.backend, id)
}

// For returns the caller's store, seeding new stores from persisted filters.
// The saved filters are loaded without holding the registry lock, so one
// user's first request never waits on another's database round trip.
func (r *Registry[T]) For(ctx context.Context, owner string) *Store[T] {
	r.mu.Lock()
	store, ok := r.stores[owner]
	r.mu.Unlock()
	if ok {
		return store
	}

	initial := DefaultFilters()
	if saved, ok, err := r.persist.Load(ctx, owner, r.def.Key); err != nil {
		slog.Warn("loading saved list filters failed", "module", r.def.Key, "err", err)
	} else if ok {
		initial = saved
	}

	module := r.def.Key
	created := NewStore(r.fetch, StoreOptions{
		Name:     module,
		Initial:  initial,
		Debounce: r.debounce,
		Save: func(ctx context.Context, f Filters) error {
			return r.persist.Save(ctx, owner, module, f)
		},
	})

	r.mu.Lock()
	if existing, ok := r.stores[owner]; ok {
		r.mu.Unlock()
		created.Close()
		return existing
	}
	r.stores[owner] = created
	r.mu.Unlock()
	return created
}

func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

func (r *Registry[T]) Close() {
	r.mu.Lock()
	stores := r.stores
	r.stores = map[string]*Store[T]{}
	r.mu.Unlock()
	for _, store := range stores {
		store.Close()
	}
}
