package capability

import (
	"fmt"

	"github.com/toolturn/toolturn/model"
)

// Registry is the static mapping from capability name to implementation.
// It is built once at startup and read-only afterwards, which makes it safe
// to share across concurrent tool executions and sessions.
type Registry struct {
	byName map[string]Capability
	order  []string
}

// NewRegistry builds a registry from the given capabilities. Registration
// order is preserved for deterministic schema listings. Duplicate names are
// a configuration error.
func NewRegistry(caps ...Capability) (*Registry, error) {
	r := &Registry{byName: make(map[string]Capability, len(caps))}
	for _, c := range caps {
		name := c.Name()
		if name == "" {
			return nil, fmt.Errorf("capability with empty name")
		}
		if _, exists := r.byName[name]; exists {
			return nil, fmt.Errorf("duplicate capability %q", name)
		}
		r.byName[name] = c
		r.order = append(r.order, name)
	}
	return r, nil
}

// Lookup resolves a capability by exact name.
func (r *Registry) Lookup(name string) (Capability, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// List returns all capabilities in registration order.
func (r *Registry) List() []Capability {
	out := make([]Capability, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Len returns the number of registered capabilities.
func (r *Registry) Len() int { return len(r.order) }

// Definitions exposes the registry as model-facing schemas, in registration
// order.
func (r *Registry) Definitions() []model.Definition {
	defs := make([]model.Definition, 0, len(r.order))
	for _, name := range r.order {
		c := r.byName[name]
		defs = append(defs, model.Definition{
			Name:        c.Name(),
			Description: c.Description(),
			Parameters:  c.Parameters(),
		})
	}
	return defs
}
