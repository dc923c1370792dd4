// Package pipeline runs the check → layout → render pipeline for scenarios.
//
// The CLI and the HTTP server share this package so that both cache layouts
// the same way and report the same errors.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Check: structural report of the choice graph (cycles, dangling choices)
//  2. Layout: scene positions computed by the layout engine
//  3. Render: JSON, DOT, SVG or PNG output of the layout
//
// Layouts and artifacts are cached by content hash, so re-running the
// pipeline on an unchanged scenario is a cache lookup.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, scenario, pipeline.Options{
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scenegraph/pkg/cache"
	"github.com/matzehuels/scenegraph/pkg/errors"
	"github.com/matzehuels/scenegraph/pkg/story"
	"github.com/matzehuels/scenegraph/pkg/story/check"
	"github.com/matzehuels/scenegraph/pkg/story/layout"
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout options
	Layout layout.Options `json:"layout"`

	// Render options
	Formats    []string `json:"formats,omitempty"`
	Scale      float64  `json:"scale,omitempty"`
	EdgeLabels bool     `json:"edge_labels,omitempty"`

	// RejectCycles makes Execute fail with CYCLE_DETECTED instead of laying
	// out a cyclic scenario.
	RejectCycles bool `json:"reject_cycles,omitempty"`

	// Refresh bypasses cache lookups; results are still written back.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Report is the structural check of the input.
	Report check.Report

	// ScenarioHash is the content hash of the input scenario.
	ScenarioHash string

	// Layout is the computed layout document.
	Layout layout.Layout

	// Scenario is the input with computed positions applied.
	Scenario *story.Scenario

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	SceneCount int
	EdgeCount  int
	CheckTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateFormats checks that all formats are supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := errors.ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	o.Layout = o.Layout.WithDefaults()
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate sets defaults and checks the render options.
func (o *Options) Validate() error {
	o.SetDefaults()
	if o.Scale < 0 || math.IsNaN(o.Scale) || math.IsInf(o.Scale, 0) {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be a non-negative finite number, got %v", o.Scale)
	}
	return ValidateFormats(o.Formats)
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	l := o.Layout.WithDefaults()
	return cache.LayoutKeyOpts{
		HorizontalSpacing: l.HorizontalSpacing,
		LevelSpacing:      l.LevelSpacing,
		MaxDepth:          l.MaxDepth,
		StrictStart:       l.StrictStart,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:     format,
		Scale:      o.Scale,
		EdgeLabels: o.EdgeLabels,
	}
}
