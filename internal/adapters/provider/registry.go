// Package provider resolves market data providers by name.
package provider

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"stockDecoder/internal/ports"
)

// Registry maps provider names to implementations. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]ports.MarketDataProvider
	fallback  string
}

// NewRegistry creates a registry whose Get("") resolves to fallback.
func NewRegistry(fallback string) *Registry {
	return &Registry{
		providers: make(map[string]ports.MarketDataProvider),
		fallback:  strings.ToLower(fallback),
	}
}

// Register adds p under p.Name(), replacing any previous entry.
func (r *Registry) Register(p ports.MarketDataProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[strings.ToLower(p.Name())] = p
}

// Get returns the named provider, or the fallback when name is empty.
func (r *Registry) Get(name string) (ports.MarketDataProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = r.fallback
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ports.ErrUnknownProvider, key)
	}
	return p, nil
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
