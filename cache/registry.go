package cache

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry is the named set of operations belonging to one feature.
// A Store reacts to an event only when its operation is in the registry.
type Registry struct {
	mu    sync.RWMutex
	names map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// Register adds an operation name.
func (r *Registry) Register(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.names[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateOperation, name)
	}
	r.names[name] = struct{}{}
	return nil
}

// Has reports whether name belongs to the registry.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	_, ok := r.names[name]
	r.mu.RUnlock()
	return ok
}

// List returns the registered names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered operations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}
