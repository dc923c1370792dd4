package layout

import (
	"math"
	"slices"

	"github.com/matzehuels/scenegraph/pkg/story"
)

// Defaults for [Options]. Spacing values are in layout units.
const (
	DefaultHorizontalSpacing = 250.0
	DefaultLevelSpacing      = 200.0
	DefaultMaxDepth          = 50

	// orphanRowOffset is the number of level bands between the root row and
	// the row of scenes unreachable from the root.
	orphanRowOffset = 2
)

// Options configures [Compute]. Zero fields take their defaults.
type Options struct {
	// HorizontalSpacing multiplies the leaf cursor into an x coordinate.
	HorizontalSpacing float64 `json:"horizontal_spacing,omitempty"`

	// LevelSpacing multiplies the depth into a y coordinate.
	LevelSpacing float64 `json:"level_spacing,omitempty"`

	// MaxDepth bounds the traversal. Scenes deeper than MaxDepth are placed
	// as leaves regardless of their choices.
	MaxDepth int `json:"max_depth,omitempty"`

	// StrictStart disables the fallback root. When no scene is flagged as
	// the start scene, Compute returns an empty layout.
	StrictStart bool `json:"strict_start,omitempty"`
}

// WithDefaults returns o with zero fields replaced by defaults. Spacing that
// is not a positive finite number (NaN included) counts as unset.
func (o Options) WithDefaults() Options {
	if !validSpacing(o.HorizontalSpacing) {
		o.HorizontalSpacing = DefaultHorizontalSpacing
	}
	if !validSpacing(o.LevelSpacing) {
		o.LevelSpacing = DefaultLevelSpacing
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	return o
}

func validSpacing(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// Result is the outcome of [Compute].
type Result struct {
	// Positions maps every scene id to its coordinate. It is empty only
	// when there are no scenes, or no start scene under StrictStart.
	Positions map[string]story.Position

	// Root is the id of the scene the traversal started from.
	Root string

	// Fallback is set when no scene was flagged as the start scene and Root
	// was chosen as the scene with the smallest id.
	Fallback bool

	// Orphans lists, in input order, the scenes unreachable from Root that
	// were placed in the fallback row.
	Orphans []string

	// Cursor is the leaf count of the main tree: the next free column.
	Cursor int
}

// ComputePositions lays out scenes as a top-down, centered tree rooted at the
// start scene and returns a position for every scene id.
//
// It is [Compute] with default options. See Compute for the algorithm.
func ComputePositions(scenes []story.Scene) map[string]story.Position {
	return Compute(scenes, Options{}).Positions
}

// Compute assigns 2-D coordinates to scenes.
//
// The root is the first scene flagged IsStartScene. If there is none, the
// scene with the lexicographically smallest id is used and Result.Fallback is
// set, unless opts.StrictStart asks for an empty layout instead.
//
// From the root the choice graph is walked depth first. A scene without
// resolvable choices is a leaf: it takes the next column of a monotonic
// cursor. A scene with children is centered over the smallest and largest x
// of its children. Y is depth times the level spacing.
//
// The walk terminates on any input:
//   - a scene that already has a position is not revisited, so reconverging
//     paths reuse the first placement;
//   - a scene met again while it is still on the active path closes a cycle
//     and is treated as a pseudo-leaf for that edge only;
//   - beyond opts.MaxDepth every scene is a leaf.
//
// Scenes not reached from the root are placed on a separate row two level
// bands below the root, to the right of every column used by the tree.
//
// Compute never mutates scenes and is safe for concurrent use.
func Compute(scenes []story.Scene, opts Options) Result {
	opts = opts.WithDefaults()
	res := Result{Positions: make(map[string]story.Position, len(scenes))}
	if len(scenes) == 0 {
		return res
	}

	root, ok := story.StartScene(scenes)
	if !ok {
		if opts.StrictStart {
			return res
		}
		root = fallbackRoot(scenes)
		res.Fallback = true
	}
	res.Root = root.ID

	p := &placer{
		idx:        story.NewIndex(scenes),
		opts:       opts,
		positions:  res.Positions,
		inProgress: make(map[string]bool),
	}
	p.visit(root.ID, 0)
	res.Cursor = p.cursor

	rowY := res.Positions[root.ID].Y + orphanRowOffset*opts.LevelSpacing
	for _, s := range scenes {
		if _, placed := res.Positions[s.ID]; placed {
			continue
		}
		res.Positions[s.ID] = story.Position{
			X: float64(p.cursor+len(res.Orphans)) * opts.HorizontalSpacing,
			Y: rowY,
		}
		res.Orphans = append(res.Orphans, s.ID)
	}
	return res
}

// fallbackRoot returns the scene with the smallest id.
func fallbackRoot(scenes []story.Scene) story.Scene {
	return slices.MinFunc(scenes, func(a, b story.Scene) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}

// placer carries the traversal state of one Compute call.
type placer struct {
	idx        *story.Index
	opts       Options
	positions  map[string]story.Position
	inProgress map[string]bool
	cursor     int
}

// visit places id at depth and returns its x coordinate.
func (p *placer) visit(id string, depth int) float64 {
	if pos, ok := p.positions[id]; ok {
		return pos.X
	}
	if p.inProgress[id] {
		// Back edge: the scene's own frame records its final position.
		return p.nextColumn()
	}

	children := p.idx.Children(id)
	if len(children) == 0 || depth > p.opts.MaxDepth {
		return p.place(id, p.nextColumn(), depth)
	}

	p.inProgress[id] = true
	minX, maxX := 0.0, 0.0
	for i, child := range children {
		x := p.visit(child, depth+1)
		if i == 0 || x < minX {
			minX = x
		}
		if i == 0 || x > maxX {
			maxX = x
		}
	}
	delete(p.inProgress, id)

	return p.place(id, (minX+maxX)/2, depth)
}

// nextColumn returns the x coordinate of the cursor and advances it.
func (p *placer) nextColumn() float64 {
	x := float64(p.cursor) * p.opts.HorizontalSpacing
	p.cursor++
	return x
}

func (p *placer) place(id string, x float64, depth int) float64 {
	p.positions[id] = story.Position{X: x, Y: float64(depth) * p.opts.LevelSpacing}
	return x
}
