package render

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jonesrussell/north-cloud/site-renderer/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/domain"
)

// Renderer folds a page schema into blocks using a theme's component set.
// It holds no per-request state and is safe for concurrent use.
type Renderer struct {
	log      logger.Logger
	resolver *Resolver
	reporter Reporter
	observe  func(theme string, elapsed time.Duration)
}

// Option configures a Renderer.
type Option func(*rendererOptions)

type rendererOptions struct {
	fallback Component
	reporter Reporter
	observe  func(theme string, elapsed time.Duration)
}

// WithFallback sets the component used for unknown types.
func WithFallback(c Component) Option {
	return func(o *rendererOptions) { o.fallback = c }
}

// WithReporter forwards every diagnostic to r in addition to the log.
func WithReporter(r Reporter) Option {
	return func(o *rendererOptions) { o.reporter = r }
}

// WithDurationObserver is called with the wall time of each completed render.
func WithDurationObserver(fn func(theme string, elapsed time.Duration)) Option {
	return func(o *rendererOptions) { o.observe = fn }
}

// NewRenderer creates a renderer that logs diagnostics to log.
func NewRenderer(log logger.Logger, opts ...Option) *Renderer {
	o := rendererOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Renderer{log: log, reporter: o.reporter, observe: o.observe}
	r.resolver = NewResolver(o.fallback, ReporterFunc(r.report))
	return r
}

// Render walks schema.Components in order. Unknown types render as the
// fallback and are omitted; a panicking component is skipped along with its
// subtree. The only error is ctx's, when the request ends mid-render.
func (r *Renderer) Render(ctx context.Context, schema domain.PageSchema, set *ComponentSet) (Page, error) {
	start := time.Now()

	blocks, err := r.renderNodes(ctx, "components", schema.Components, set)
	if err != nil {
		return Page{}, err
	}

	if r.observe != nil {
		r.observe(set.Name(), time.Since(start))
	}

	return Page{
		Slug:     schema.Slug,
		Language: schema.Language,
		TenantID: schema.TenantID,
		Theme:    set.Name(),
		Blocks:   blocks,
	}, nil
}

func (r *Renderer) renderNodes(ctx context.Context, path string, nodes []domain.ComponentNode, set *ComponentSet) ([]Block, error) {
	out := make([]Block, 0, len(nodes))
	for i, node := range nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		block, err := r.renderNode(ctx, path+"["+strconv.Itoa(i)+"]", node, set)
		if err != nil {
			return nil, err
		}
		if !block.IsEmpty() {
			out = append(out, block)
		}
	}
	return out, nil
}

func (r *Renderer) renderNode(ctx context.Context, path string, node domain.ComponentNode, set *ComponentSet) (Block, error) {
	component, ok := r.resolver.Resolve(node, set)
	if !ok {
		block, failure := call(component, node, nil)
		if failure != "" {
			r.failed(set, node, path, failure)
			return Block{}, nil
		}
		return block, nil
	}

	var children []Block
	if len(node.Items) > 0 {
		var err error
		children, err = r.renderNodes(ctx, path+".items", node.Items, set)
		if err != nil {
			return Block{}, err
		}
	}

	block, failure := call(component, node, children)
	if failure != "" {
		r.failed(set, node, path, failure)
		return Block{}, nil
	}
	if block.IsEmpty() {
		return block, nil
	}

	block.Type = node.Type
	block.Key = node.Key
	block.Theme = set.Name()
	return block, nil
}

func call(c Component, node domain.ComponentNode, children []Block) (block Block, failure string) {
	defer func() {
		if rec := recover(); rec != nil {
			block = Block{}
			failure = fmt.Sprint(rec)
		}
	}()
	return c(node, children), ""
}

func (r *Renderer) failed(set *ComponentSet, node domain.ComponentNode, path, failure string) {
	r.report(Diagnostic{
		Kind:   ComponentFailed,
		Theme:  set.Name(),
		Type:   node.Type,
		Key:    node.Key,
		Path:   path,
		Detail: failure,
	})
}

func (r *Renderer) report(d Diagnostic) {
	fields := []logger.Field{
		logger.String("kind", string(d.Kind)),
		logger.String("theme", d.Theme),
		logger.String("component_type", d.Type),
		logger.String("component_key", d.Key),
	}
	if d.Path != "" {
		fields = append(fields, logger.String("path", d.Path))
	}
	if d.Detail != "" {
		fields = append(fields, logger.String("detail", d.Detail))
	}

	switch d.Kind {
	case ComponentFailed:
		r.log.Error("Component failed to render", fields...)
	default:
		r.log.Warn("Unknown component type", fields...)
	}

	if r.reporter != nil {
		r.reporter.Report(d)
	}
}
