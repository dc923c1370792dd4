// Package nodelink renders scene layouts as node-link diagrams.
//
// # Overview
//
// Each scene becomes a rounded box pinned at the position the layout engine
// computed for it, and each choice becomes an arrow. The diagram therefore
// looks exactly like the editor canvas after an automatic layout.
//
// # Usage
//
// Convert a layout to DOT, then render to SVG or PNG:
//
//	l := layout.Build(scenario, layout.Options{})
//	dot := nodelink.ToDOT(l, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot)
//
// # Styling
//
//   - The start scene has a bold double outline.
//   - Orphan scenes (unreachable from the start scene) are greyed out.
//   - Choices that close a cycle are drawn dashed in red.
//   - Choice text becomes the edge label when [Options.EdgeLabels] is set.
//
// # Coordinates
//
// Layout units grow downward while Graphviz y grows upward, so y is flipped
// against the layout's bounding box. [Options.Scale] converts layout units
// to points. Nodes are pinned (pos="x,y!") and rendered with the neato
// engine, which keeps pinned nodes where they are.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering;
// no Graphviz installation is needed.
package nodelink
