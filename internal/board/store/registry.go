package store

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/kandev/kanban/internal/board/repository"
)

// Registry lazily loads one Store per owner. Concurrent first requests for
// the same owner share a single backend load.
type Registry struct {
	backend repository.Backend
	opts    Options

	mu        sync.RWMutex
	stores    map[string]*Store
	listeners []Listener
	group     singleflight.Group
}

func NewRegistry(backend repository.Backend, opts Options) *Registry {
	return &Registry{
		backend: backend,
		opts:    opts.withDefaults(),
		stores:  make(map[string]*Store),
	}
}

// Get returns the owner's store, loading it on first use.
func (r *Registry) Get(ctx context.Context, ownerID string) (*Store, error) {
	if ownerID == "" {
		return nil, repository.ErrOwnerRequired
	}
	r.mu.RLock()
	s, ok := r.stores[ownerID]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}

	v, err, _ := r.group.Do(ownerID, func() (interface{}, error) {
		r.mu.RLock()
		existing, ok := r.stores[ownerID]
		r.mu.RUnlock()
		if ok {
			return existing, nil
		}

		// Waiters share this load, so one caller going away must not fail it.
		loaded, err := Load(context.WithoutCancel(ctx), ownerID, r.backend, r.opts)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		for _, fn := range r.listeners {
			loaded.Subscribe(fn)
		}
		r.stores[ownerID] = loaded
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

// Subscribe attaches fn to every loaded store and to stores loaded later.
func (r *Registry) Subscribe(fn Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
	for _, s := range r.stores {
		s.Subscribe(fn)
	}
}

// Owners lists the owners with a loaded store.
func (r *Registry) Owners() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.stores))
	for id := range r.stores {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Evict drops the owner's store so the next Get reloads it.
func (r *Registry) Evict(ownerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, ownerID)
}
