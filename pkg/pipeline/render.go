package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/scenegraph/pkg/errors"
	"github.com/matzehuels/scenegraph/pkg/observability"
	"github.com/matzehuels/scenegraph/pkg/render/nodelink"
	"github.com/matzehuels/scenegraph/pkg/story/layout"
)

// RenderFormat renders a single output format from a layout without caching.
func RenderFormat(ctx context.Context, l layout.Layout, format string, opts Options) (data []byte, err error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, format)
	start := time.Now()
	defer func() { hooks.OnRenderComplete(ctx, format, time.Since(start), err) }()

	dotOpts := nodelink.Options{Scale: opts.Scale, EdgeLabels: opts.EdgeLabels}
	switch format {
	case FormatJSON:
		data, err = layout.MarshalLayout(l)
	case FormatDOT:
		data = []byte(nodelink.ToDOT(l, dotOpts))
	case FormatSVG:
		data, err = nodelink.RenderSVG(ctx, nodelink.ToDOT(l, dotOpts))
	case FormatPNG:
		data, err = nodelink.RenderPNG(ctx, nodelink.ToDOT(l, dotOpts))
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return data, nil
}
