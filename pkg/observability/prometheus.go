package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusHooks implements every hook interface on top of a private
// Prometheus registry. Register one instance for all four categories and
// expose [PrometheusHooks.Handler] on /metrics.
type PrometheusHooks struct {
	registry *prometheus.Registry

	checks         *prometheus.CounterVec
	layoutDuration *prometheus.HistogramVec
	layoutScenes   prometheus.Histogram
	renderDuration *prometheus.HistogramVec
	cacheOps       *prometheus.CounterVec
	cacheBytes     *prometheus.CounterVec
	edits          *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// NewPrometheusHooks creates the collectors and registers them, together with
// the Go runtime and process collectors, on a fresh registry.
func NewPrometheusHooks() *PrometheusHooks {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &PrometheusHooks{
		registry: reg,
		checks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "scenegraph_checks_total",
			Help: "Cycle checks by result.",
		}, []string{"result"}),
		layoutDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scenegraph_layout_duration_seconds",
			Help:    "Time spent computing scene positions.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"status"}),
		layoutScenes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "scenegraph_layout_scenes",
			Help:    "Number of scenes per layout request.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		renderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scenegraph_render_duration_seconds",
			Help:    "Time spent rendering layouts by output format.",
			Buckets: prometheus.DefBuckets,
		}, []string{"format", "status"}),
		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "scenegraph_cache_operations_total",
			Help: "Cache lookups and writes by key type and outcome.",
		}, []string{"key_type", "op"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "scenegraph_cache_written_bytes_total",
			Help: "Bytes written to the cache by key type.",
		}, []string{"key_type"}),
		edits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "scenegraph_scene_edits_total",
			Help: "Scene edits by outcome.",
		}, []string{"outcome"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "scenegraph_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scenegraph_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Registry returns the registry holding the collectors.
func (p *PrometheusHooks) Registry() *prometheus.Registry { return p.registry }

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusHooks) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// OnCheck implements PipelineHooks.
func (p *PrometheusHooks) OnCheck(_ context.Context, _ string, hasCycle bool, _ time.Duration) {
	result := "acyclic"
	if hasCycle {
		result = "cycle"
	}
	p.checks.WithLabelValues(result).Inc()
}

// OnLayoutStart implements PipelineHooks.
func (p *PrometheusHooks) OnLayoutStart(_ context.Context, _ string, sceneCount int) {
	p.layoutScenes.Observe(float64(sceneCount))
}

// OnLayoutComplete implements PipelineHooks.
func (p *PrometheusHooks) OnLayoutComplete(_ context.Context, _ string, d time.Duration, err error) {
	p.layoutDuration.WithLabelValues(status(err)).Observe(d.Seconds())
}

// OnRenderStart implements PipelineHooks.
func (p *PrometheusHooks) OnRenderStart(context.Context, string) {}

// OnRenderComplete implements PipelineHooks.
func (p *PrometheusHooks) OnRenderComplete(_ context.Context, format string, d time.Duration, err error) {
	p.renderDuration.WithLabelValues(format, status(err)).Observe(d.Seconds())
}

// OnCacheHit implements CacheHooks.
func (p *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	p.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements CacheHooks.
func (p *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements CacheHooks.
func (p *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cacheOps.WithLabelValues(keyType, "set").Inc()
	p.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

// OnSceneSaved implements EditorHooks.
func (p *PrometheusHooks) OnSceneSaved(context.Context, string, string) {
	p.edits.WithLabelValues("saved").Inc()
}

// OnEditRejected implements EditorHooks.
func (p *PrometheusHooks) OnEditRejected(_ context.Context, _, _, code string) {
	p.edits.WithLabelValues(code).Inc()
}

// OnRequest implements HTTPHooks.
func (p *PrometheusHooks) OnRequest(context.Context, string, string) {}

// OnResponse implements HTTPHooks.
func (p *PrometheusHooks) OnResponse(_ context.Context, method, route string, statusCode int, d time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ PipelineHooks = (*PrometheusHooks)(nil)
	_ CacheHooks    = (*PrometheusHooks)(nil)
	_ EditorHooks   = (*PrometheusHooks)(nil)
	_ HTTPHooks     = (*PrometheusHooks)(nil)
)
