package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scenegraph/pkg/cache"
	"github.com/matzehuels/scenegraph/pkg/errors"
	"github.com/matzehuels/scenegraph/pkg/observability"
	"github.com/matzehuels/scenegraph/pkg/story"
	"github.com/matzehuels/scenegraph/pkg/story/check"
	"github.com/matzehuels/scenegraph/pkg/story/layout"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides cache.LayoutTTL and cache.ArtifactTTL when positive.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete check → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, sc *story.Scenario, opts Options) (*Result, error) {
	if sc == nil {
		return nil, errors.New(errors.ErrCodeInvalidScenario, "no scenario given")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := r.logger(opts)

	result := &Result{}

	// Stage 1: Check
	checkStart := time.Now()
	result.Report = r.Check(ctx, sc)
	result.Stats.CheckTime = time.Since(checkStart)
	if opts.RejectCycles && !result.Report.OK() {
		return nil, errors.Wrap(errors.ErrCodeCycleDetected,
			&errors.CycleError{ScenarioID: sc.ID, Path: result.Report.Cycle}, "scenario %s contains a cycle", sc.ID)
	}
	for _, w := range result.Report.Warnings() {
		logger.Warn(w, "scenario", sc.ID)
	}

	// Stage 2: Layout
	layoutStart := time.Now()
	l, layoutHit, err := r.LayoutWithCacheInfo(ctx, sc, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.ScenarioHash = scenarioHash(sc)
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.SceneCount = len(l.Nodes)
	result.Stats.EdgeCount = len(l.Edges)
	result.CacheInfo.LayoutHit = layoutHit

	positioned := sc.Clone()
	positioned.Scenes = story.WithPositions(positioned.Scenes, l.Positions())
	result.Scenario = positioned

	logger.Info("computed layout",
		"scenes", result.Stats.SceneCount,
		"edges", result.Stats.EdgeCount,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Check inspects the choice graph of sc.
func (r *Runner) Check(ctx context.Context, sc *story.Scenario) check.Report {
	start := time.Now()
	report := check.Inspect(sc.Scenes)
	observability.Pipeline().OnCheck(ctx, sc.ID, !report.OK(), time.Since(start))
	return report
}

// LayoutWithCacheInfo computes the layout of sc with caching and returns
// whether it was served from the cache.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, sc *story.Scenario, opts Options) (layout.Layout, bool, error) {
	if sc == nil {
		return layout.Layout{}, false, errors.New(errors.ErrCodeInvalidScenario, "no scenario given")
	}
	if err := ctx.Err(); err != nil {
		return layout.Layout{}, false, err
	}
	logger := r.logger(opts)
	hooks := observability.Cache()

	cacheKey := r.Keyer.LayoutKey(scenarioHash(sc), opts.LayoutKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if cached, err := layout.UnmarshalLayout(data); err == nil {
				hooks.OnCacheHit(ctx, "layout")
				return cached, true, nil
			}
			// If deserialization fails, fall through to recompute
			logger.Debug("discarding unreadable cached layout", "key", cacheKey)
		} else if err != nil {
			logger.Debug("cache read failed", "key", cacheKey, "error", err)
		}
	}
	hooks.OnCacheMiss(ctx, "layout")

	ph := observability.Pipeline()
	ph.OnLayoutStart(ctx, sc.ID, len(sc.Scenes))
	start := time.Now()
	l := layout.Build(sc, opts.Layout)
	ph.OnLayoutComplete(ctx, sc.ID, time.Since(start), nil)
	if l.Fallback {
		logger.Warn("no start scene, laid out from fallback root", "scenario", sc.ID, "root", l.Root)
	}

	if data, err := layout.MarshalLayout(l); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, r.ttl(cache.LayoutTTL)); err != nil {
			logger.Debug("cache write failed", "key", cacheKey, "error", err)
		} else {
			hooks.OnCacheSet(ctx, "layout", len(data))
		}
	}

	return l, false, nil
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, sc *story.Scenario, opts Options) (layout.Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, sc, opts)
	return l, err
}

// RenderWithCacheInfo renders all requested formats with caching.
// The returned bool reports whether every artifact came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l layout.Layout, opts Options) (map[string][]byte, bool, error) {
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}
	logger := r.logger(opts)
	hooks := observability.Cache()

	layoutData, err := layout.MarshalLayout(l)
	if err != nil {
		return nil, false, err
	}
	layoutHash := cache.Hash(layoutData)

	artifacts := make(map[string][]byte, len(opts.Formats))
	allHit := true
	for _, format := range opts.Formats {
		if format == FormatJSON {
			artifacts[format] = layoutData
			continue
		}

		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				hooks.OnCacheHit(ctx, "artifact")
				artifacts[format] = data
				continue
			}
		}
		hooks.OnCacheMiss(ctx, "artifact")
		allHit = false

		data, err := RenderFormat(ctx, l, format, opts)
		if err != nil {
			return nil, false, err
		}
		artifacts[format] = data

		if err := r.Cache.Set(ctx, cacheKey, data, r.ttl(cache.ArtifactTTL)); err != nil {
			logger.Debug("cache write failed", "key", cacheKey, "error", err)
		} else {
			hooks.OnCacheSet(ctx, "artifact", len(data))
		}
	}

	return artifacts, allHit, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l layout.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, opts)
	return artifacts, err
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

func scenarioHash(sc *story.Scenario) string {
	data, err := story.MarshalScenario(sc)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}
