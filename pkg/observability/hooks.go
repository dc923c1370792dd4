// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about layout computation, cache operations, scenario edits
// and HTTP requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, never by libraries, so the layout and check
// packages stay free of any metrics backend. [PrometheusHooks] is the backend
// the server registers.
//
// # Usage
//
// Register hooks at application startup:
//
//	hooks := observability.NewPrometheusHooks()
//	observability.Register(hooks) // every hook interface hooks implements
//	defer observability.Reset()
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnLayoutStart(ctx, scenarioID, len(scenes))
//	// ... compute positions ...
//	observability.Pipeline().OnLayoutComplete(ctx, scenarioID, duration, err)
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the layout pipeline.
type PipelineHooks interface {
	// Check events
	OnCheck(ctx context.Context, scenarioID string, hasCycle bool, duration time.Duration)

	// Layout events
	OnLayoutStart(ctx context.Context, scenarioID string, sceneCount int)
	OnLayoutComplete(ctx context.Context, scenarioID string, duration time.Duration, err error)

	// Render events
	OnRenderStart(ctx context.Context, format string)
	OnRenderComplete(ctx context.Context, format string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Editor Hooks
// =============================================================================

// EditorHooks receives events from scenario edits.
type EditorHooks interface {
	// OnSceneSaved records an accepted scene edit.
	OnSceneSaved(ctx context.Context, scenarioID, sceneID string)

	// OnEditRejected records an edit refused with the given error code.
	OnEditRejected(ctx context.Context, scenarioID, sceneID, code string)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP server.
type HTTPHooks interface {
	// OnRequest records an incoming HTTP request.
	OnRequest(ctx context.Context, method, route string)

	// OnResponse records the response sent for a request.
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnCheck(context.Context, string, bool, time.Duration)           {}
func (NoopPipelineHooks) OnLayoutStart(context.Context, string, int)                     {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, string, time.Duration, error) {}
func (NoopPipelineHooks) OnRenderStart(context.Context, string)                          {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopEditorHooks is a no-op implementation of EditorHooks.
type NoopEditorHooks struct{}

func (NoopEditorHooks) OnSceneSaved(context.Context, string, string)           {}
func (NoopEditorHooks) OnEditRejected(context.Context, string, string, string) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

// slot holds one registered hook. Reads are lock-free because every layout,
// cache lookup and request consults the registry.
type slot[T any] struct {
	p   atomic.Pointer[T]
	def T
}

func (s *slot[T]) get() T {
	if h := s.p.Load(); h != nil {
		return *h
	}
	return s.def
}

func (s *slot[T]) set(h T) { s.p.Store(&h) }

func (s *slot[T]) reset() { s.p.Store(nil) }

var (
	pipelineSlot = slot[PipelineHooks]{def: NoopPipelineHooks{}}
	cacheSlot    = slot[CacheHooks]{def: NoopCacheHooks{}}
	editorSlot   = slot[EditorHooks]{def: NoopEditorHooks{}}
	httpSlot     = slot[HTTPHooks]{def: NoopHTTPHooks{}}
)

// SetPipelineHooks registers pipeline hooks. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h != nil {
		pipelineSlot.set(h)
	}
}

// SetCacheHooks registers cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		cacheSlot.set(h)
	}
}

// SetEditorHooks registers editor hooks. A nil h is ignored.
func SetEditorHooks(h EditorHooks) {
	if h != nil {
		editorSlot.set(h)
	}
}

// SetHTTPHooks registers HTTP hooks. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		httpSlot.set(h)
	}
}

// Register installs h for every hook interface it implements and returns
// the names of those categories ("pipeline", "cache", "editor", "http").
func Register(h any) []string {
	var got []string
	if p, ok := h.(PipelineHooks); ok {
		SetPipelineHooks(p)
		got = append(got, "pipeline")
	}
	if c, ok := h.(CacheHooks); ok {
		SetCacheHooks(c)
		got = append(got, "cache")
	}
	if e, ok := h.(EditorHooks); ok {
		SetEditorHooks(e)
		got = append(got, "editor")
	}
	if x, ok := h.(HTTPHooks); ok {
		SetHTTPHooks(x)
		got = append(got, "http")
	}
	return got
}

func Pipeline() PipelineHooks { return pipelineSlot.get() }
func Cache() CacheHooks       { return cacheSlot.get() }
func Editor() EditorHooks     { return editorSlot.get() }
func HTTP() HTTPHooks         { return httpSlot.get() }

// Reset restores all hooks to their no-op defaults.
func Reset() {
	pipelineSlot.reset()
	cacheSlot.reset()
	editorSlot.reset()
	httpSlot.reset()
}
