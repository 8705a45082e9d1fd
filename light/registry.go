package light

import (
	"fmt"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Registry holds all of the lights the process drives, keyed by name.
type Registry struct {
	mu    sync.RWMutex
	items map[string]*Light
}

// NewRegistry returns an empty light registry.
func NewRegistry() *Registry {
	return &Registry{
		items: make(map[string]*Light),
	}
}

// Add registers a light. Names must be unique.
func (r *Registry) Add(l *Light) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[l.Name()]; ok {
		return fmt.Errorf("duplicate lights found! name=%s", l.Name())
	}
	r.items[l.Name()] = l
	return nil
}

// GetByName looks up a light by name, or nil when there is no such light.
func (r *Registry) GetByName(name string) *Light {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.items[name]
}

// Names returns all the light names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := maps.Keys(r.items)
	slices.Sort(keys)
	return keys
}

// Count returns the number of registered lights.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
