// Package layout assigns 2-D coordinates to the scenes of a narrative graph.
//
// The layout is a classic top-down tree: the start scene sits on row 0, each
// choice descends one level band, leaves take consecutive columns in
// depth-first order and every parent is centered over its children. Graphs
// that are not trees still lay out: reconverging paths reuse the first
// placement, cycles are cut at the back edge and scenes unreachable from the
// start scene are parked on a separate row.
//
// [ComputePositions] is the plain mapping; [Compute] exposes options and
// traversal details; [Build] packages the result as a serializable [Layout]
// for rendering and caching.
//
// Positions are advisory. Renderers may let users drag nodes around; nothing
// here persists coordinates.
package layout
