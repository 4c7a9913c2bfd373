// Package telemetry provides Prometheus metrics and OpenTelemetry tracing
// for schema fetches, renders and cache invalidation.
package telemetry

import (
	"time"

	"github.com/jonesrussell/north-cloud/site-renderer/internal/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName = "site-renderer"
	namespace   = "site_renderer"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	FetchTotal        *prometheus.CounterVec
	FetchFallbacks    *prometheus.CounterVec
	RenderDiagnostics *prometheus.CounterVec
	RenderDuration    *prometheus.HistogramVec
	Invalidations     *prometheus.CounterVec
	EventsProcessed   *prometheus.CounterVec
}

// Provider wraps telemetry providers.
type Provider struct {
	Tracer  trace.Tracer
	Metrics *Metrics
}

// NewProvider registers the metrics on reg.
func NewProvider(reg prometheus.Registerer) *Provider {
	f := promauto.With(reg)
	m := &Metrics{
		FetchTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Schema fetches by the source that answered.",
		}, []string{"source"}),
		FetchFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_fallback_total",
			Help:      "Schema store failures that were answered from a fallback, by reason.",
		}, []string{"reason"}),
		RenderDiagnostics: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_diagnostics_total",
			Help:      "Nodes that did not render normally, by kind and theme.",
		}, []string{"kind", "theme"}),
		RenderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time to fold a schema into blocks, by theme.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}, []string{"theme"}),
		Invalidations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_invalidations_total",
			Help:      "Cached schema entries removed, by trigger.",
		}, []string{"trigger"}),
		EventsProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_processed_total",
			Help:      "Schema events consumed, by type and result.",
		}, []string{"event_type", "result"}),
	}

	return &Provider{Tracer: otel.Tracer(serviceName), Metrics: m}
}

// RecordFetch counts a fetch answered by source.
func (p *Provider) RecordFetch(source string) {
	p.Metrics.FetchTotal.WithLabelValues(source).Inc()
}

// RecordFallback counts a store failure answered from a fallback.
func (p *Provider) RecordFallback(reason string) {
	p.Metrics.FetchFallbacks.WithLabelValues(reason).Inc()
}

// Report implements render.Reporter.
func (p *Provider) Report(d render.Diagnostic) {
	p.Metrics.RenderDiagnostics.WithLabelValues(string(d.Kind), d.Theme).Inc()
}

// ObserveRender records one render's duration.
func (p *Provider) ObserveRender(theme string, elapsed time.Duration) {
	p.Metrics.RenderDuration.WithLabelValues(theme).Observe(elapsed.Seconds())
}

// RecordInvalidation counts removed cache entries.
func (p *Provider) RecordInvalidation(trigger string, removed int) {
	p.Metrics.Invalidations.WithLabelValues(trigger).Add(float64(removed))
}

// RecordEvent counts a consumed schema event.
func (p *Provider) RecordEvent(eventType string, success bool) {
	result := "success"
	if !success {
		result = "error"
	}
	p.Metrics.EventsProcessed.WithLabelValues(eventType, result).Inc()
}
