// Package pkg provides the core libraries for scenegraph, the layout and
// consistency engine for branching interactive narratives.
//
// # Overview
//
// A scenario is a directed graph of scenes connected by player choices.
// The pkg directory is organized into these areas:
//
//  1. [story] - Scenario model, JSON I/O and API response mapping
//  2. [story/layout] - Tree layout of scenes on a 2D canvas
//  3. [story/check] - Cycle detection and structural diagnostics
//  4. [render] - DOT, SVG and PNG output of computed layouts
//  5. [pipeline] - Orchestration (check → layout → render) with caching
//  6. [editor] - Scenario edits that refuse to introduce cycles
//  7. [cache], [store], [config], [observability] - Infrastructure
//
// # Architecture
//
// The typical data flow:
//
//	Scenario JSON (file, API response or store)
//	         ↓
//	    [story/check] package (cycles, dangling choices, orphans)
//	         ↓
//	    [story/layout] package (positions)
//	         ↓
//	    [render/nodelink] package (DOT → SVG/PNG)
//
// # Quick Start
//
//	sc, _ := story.ImportScenario("story.json")
//	if check.HasCycle(sc.Scenes) {
//	    // refuse to publish
//	}
//	positions := layout.ComputePositions(sc.Scenes)
//
// For cached, hook-instrumented runs use [pipeline.Runner].
package pkg
