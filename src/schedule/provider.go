// Package schedule fetches games from configured providers, merges them into
// a single snapshot, and rebuilds the resolver catalogs.
package schedule

import (
	"context"
	"sync"

	"github.com/apimgr/prospects/src/model"
)

// Provider is a source of scheduled games.
type Provider interface {
	// Name returns the unique provider name used in config and logs.
	Name() string
	// League returns the league label stamped on fetched games.
	League() string
	// IsEnabled reports whether the provider should be fetched.
	IsEnabled() bool
	// Fetch retrieves the provider's current schedule.
	Fetch(ctx context.Context) ([]model.Game, error)
}

// Registry holds providers in registration order. Registration order decides
// merge priority: earlier providers win conflicting slots.
type Registry struct {
	mu        sync.RWMutex
	providers []Provider
	byName    map[string]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Provider),
	}
}

// Register adds a provider. A provider with a duplicate name replaces the
// earlier registration in place.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[p.Name()]; exists {
		for i, existing := range r.providers {
			if existing.Name() == p.Name() {
				r.providers[i] = p
				break
			}
		}
	} else {
		r.providers = append(r.providers, p)
	}
	r.byName[p.Name()] = p
}

// Get returns a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byName[name]
	if !ok {
		return nil, model.ErrProviderNotFound
	}
	return p, nil
}

// Enabled returns the enabled providers in registration order.
func (r *Registry) Enabled() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Provider
	for _, p := range r.providers {
		if p.IsEnabled() {
			out = append(out, p)
		}
	}
	return out
}

// All returns every registered provider in registration order.
func (r *Registry) All() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Provider(nil), r.providers...)
}
