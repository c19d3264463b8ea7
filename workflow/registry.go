package workflow

import (
	"fmt"
	"sync"

	"github.com/xraph/traverse"
)

// Registry maps workflow names to immutable definitions. Registration is
// write-once per name: there is no update or unregister operation, so a
// superseding definition must use a new name. It is safe for concurrent
// use.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewRegistry creates an empty definition registry.
func NewRegistry() *Registry {
	return &Registry{
		defs: make(map[string]*Definition),
	}
}

// Register adds a definition under its name. It fails with
// traverse.ErrAlreadyRegistered when the name is taken. The definition is
// defensively copied so later mutation of the caller's value does not
// leak into the registry.
//
// Register does not validate graph structure; call Definition.Validate
// first when strictness is wanted. Malformed graphs fail at transition
// time instead.
func (r *Registry) Register(def *Definition) error {
	if def == nil || def.Name == "" {
		return fmt.Errorf("%w: definition must have a name", traverse.ErrInvalidDefinition)
	}
	if len(def.Nodes) == 0 {
		return fmt.Errorf("%w: definition %q has no nodes", traverse.ErrInvalidDefinition, def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("%w: %q", traverse.ErrAlreadyRegistered, def.Name)
	}
	r.defs[def.Name] = def.clone()

	return nil
}

// Get returns a defensive copy of the named definition. It fails with
// traverse.ErrNotRegistered when the name is unknown. Handlers and
// conditions on the copy are the registered interface values.
func (r *Registry) Get(name string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", traverse.ErrNotRegistered, name)
	}
	return def.clone(), nil
}

// List returns all registered definition names. Order is unspecified.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	return names
}
