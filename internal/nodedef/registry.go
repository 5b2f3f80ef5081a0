package nodedef

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownKind is returned when no definition exists for a node kind.
var ErrUnknownKind = errors.New("unknown node kind")

// Registry maps node kinds to their definitions.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds a definition. Panics on duplicate kind to surface misconfiguration early.
func (r *Registry) Register(d Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[d.Kind]; exists {
		panic(fmt.Sprintf("nodedef registry: duplicate kind %q", d.Kind))
	}
	r.defs[d.Kind] = d
}

// Get returns the definition for the given kind.
func (r *Registry) Get(kind string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[kind]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return d, nil
}

// Kinds returns all registered kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.defs))
	for k := range r.defs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
