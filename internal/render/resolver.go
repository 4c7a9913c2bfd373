package render

import (
	"github.com/jonesrussell/north-cloud/site-renderer/internal/domain"
)

// Resolver dispatches a node to the component registered for its type.
type Resolver struct {
	fallback Component
	reporter Reporter
}

// NewResolver creates a resolver. A nil fallback means Nothing.
func NewResolver(fallback Component, reporter Reporter) *Resolver {
	if fallback == nil {
		fallback = Nothing
	}
	if reporter == nil {
		reporter = ReporterFunc(func(Diagnostic) {})
	}
	return &Resolver{fallback: fallback, reporter: reporter}
}

// Resolve returns the component for node.Type in set. On a miss it reports
// one UnknownComponent diagnostic and returns the fallback with ok false.
// It looks at node alone and never descends into its items.
func (r *Resolver) Resolve(node domain.ComponentNode, set *ComponentSet) (c Component, ok bool) {
	if c, ok = set.Lookup(node.Type); ok {
		return c, true
	}
	r.reporter.Report(Diagnostic{
		Kind:  UnknownComponent,
		Theme: set.Name(),
		Type:  node.Type,
		Key:   node.Key,
	})
	return r.fallback, false
}
