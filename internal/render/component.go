package render

import (
	"slices"

	"github.com/jonesrussell/north-cloud/site-renderer/internal/domain"
)

// Component renders one node. children holds the already rendered items of
// the node, in order, with empty blocks removed.
type Component func(node domain.ComponentNode, children []Block) Block

// Nothing renders no output. It is the default for unknown component types.
func Nothing(domain.ComponentNode, []Block) Block {
	return Block{}
}

// ComponentSet maps component types to implementations for one theme.
// It is immutable after construction and safe for concurrent use.
type ComponentSet struct {
	name       string
	components map[string]Component
}

// NewComponentSet creates a set named name. The map is copied.
func NewComponentSet(name string, components map[string]Component) *ComponentSet {
	m := make(map[string]Component, len(components))
	for k, v := range components {
		m[k] = v
	}
	return &ComponentSet{name: name, components: m}
}

// Name is the theme id of the set.
func (s *ComponentSet) Name() string {
	return s.name
}

// Lookup returns the component registered for typ.
func (s *ComponentSet) Lookup(typ string) (Component, bool) {
	c, ok := s.components[typ]
	return c, ok
}

// Types lists the registered component types, sorted.
func (s *ComponentSet) Types() []string {
	types := make([]string, 0, len(s.components))
	for k := range s.components {
		types = append(types, k)
	}
	slices.Sort(types)
	return types
}
