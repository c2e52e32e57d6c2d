package registry

import (
	"fmt"
	"sort"
)

// Registry maps node type names to descriptors.
type Registry struct {
	byType map[string]*NodeDescriptor
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{byType: make(map[string]*NodeDescriptor)}
}

// Register adds a descriptor. Registering a type twice is an error.
func (r *Registry) Register(desc *NodeDescriptor) error {
	if desc == nil {
		return fmt.Errorf("registry: nil descriptor")
	}
	if desc.Type == "" {
		return fmt.Errorf("registry: descriptor has empty type")
	}
	if _, exists := r.byType[desc.Type]; exists {
		return fmt.Errorf("registry: node type %q already registered", desc.Type)
	}
	r.byType[desc.Type] = desc
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(descs ...*NodeDescriptor) {
	for _, d := range descs {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the descriptor for a type.
func (r *Registry) Lookup(nodeType string) (*NodeDescriptor, bool) {
	d, ok := r.byType[nodeType]
	return d, ok
}

// Types returns all registered type names, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.byType))
	for t := range r.byType {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	return len(r.byType)
}
