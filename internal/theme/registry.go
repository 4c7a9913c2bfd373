// Package theme owns the built-in component sets and picks one per tenant.
package theme

import (
	"fmt"
	"slices"

	"github.com/jonesrussell/north-cloud/site-renderer/internal/render"
)

// Registry is the read-only set of themes known to the service.
type Registry struct {
	sets map[string]*render.ComponentSet
}

// NewRegistry registers the built-in themes plus any extra sets.
func NewRegistry(extra ...*render.ComponentSet) (*Registry, error) {
	r := &Registry{sets: map[string]*render.ComponentSet{
		Classic: render.NewComponentSet(Classic, classicComponents()),
		Bold:    render.NewComponentSet(Bold, boldComponents()),
	}}
	for _, set := range extra {
		if set.Name() == "" {
			return nil, fmt.Errorf("register theme: empty name")
		}
		if _, exists := r.sets[set.Name()]; exists {
			return nil, fmt.Errorf("register theme %q: already registered", set.Name())
		}
		r.sets[set.Name()] = set
	}
	return r, nil
}

// Get returns the set registered under id.
func (r *Registry) Get(id string) (*render.ComponentSet, bool) {
	s, ok := r.sets[id]
	return s, ok
}

// Names lists registered theme ids, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sets))
	for k := range r.sets {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}
