package layout

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/matzehuels/scenegraph/pkg/story"
	"github.com/matzehuels/scenegraph/pkg/story/check"
)

// =============================================================================
// Layout - Serialized Visualization Format
// =============================================================================

// Layout is the serialized result of a layout run. It is what the renderer,
// the HTTP API and the layout cache exchange.
type Layout struct {
	ScenarioID string `json:"scenario_id,omitempty" bson:"scenario_id,omitempty"`
	Title      string `json:"title,omitempty" bson:"title,omitempty"`

	Root     string `json:"root,omitempty" bson:"root,omitempty"`
	Fallback bool   `json:"fallback,omitempty" bson:"fallback,omitempty"`
	HasCycle bool   `json:"has_cycle" bson:"has_cycle"`

	// Bounding box of all positions.
	MinX float64 `json:"min_x" bson:"min_x"`
	MinY float64 `json:"min_y" bson:"min_y"`
	MaxX float64 `json:"max_x" bson:"max_x"`
	MaxY float64 `json:"max_y" bson:"max_y"`

	Options Options `json:"options" bson:"options"`
	Nodes   []Node  `json:"nodes" bson:"nodes"`
	Edges   []Edge  `json:"edges" bson:"edges"`
}

// Node is a positioned scene.
type Node struct {
	ID     string  `json:"id" bson:"id"`
	Title  string  `json:"title,omitempty" bson:"title,omitempty"`
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Start  bool    `json:"start,omitempty" bson:"start,omitempty"`
	Orphan bool    `json:"orphan,omitempty" bson:"orphan,omitempty"`
}

// Edge is a resolved choice. Dangling choices are not exported.
type Edge struct {
	From  string `json:"from" bson:"from"`
	To    string `json:"to" bson:"to"`
	Label string `json:"label,omitempty" bson:"label,omitempty"`
	Back  bool   `json:"back,omitempty" bson:"back,omitempty"`
}

// Positions returns the node coordinates keyed by scene id.
func (l *Layout) Positions() map[string]story.Position {
	out := make(map[string]story.Position, len(l.Nodes))
	for _, n := range l.Nodes {
		out[n.ID] = story.Position{X: n.X, Y: n.Y}
	}
	return out
}

// Build computes the layout of sc and packages it as a Layout document.
func Build(sc *story.Scenario, opts Options) Layout {
	opts = opts.WithDefaults()
	return FromResult(sc, Compute(sc.Scenes, opts), opts)
}

// FromResult packages a Compute result for sc. Nodes follow scene order with
// duplicate ids dropped; edges follow choice order.
func FromResult(sc *story.Scenario, res Result, opts Options) Layout {
	l := Layout{
		ScenarioID: sc.ID,
		Title:      sc.Title,
		Root:       res.Root,
		Fallback:   res.Fallback,
		Options:    opts,
		Nodes:      []Node{},
		Edges:      []Edge{},
	}

	orphans := make(map[string]bool, len(res.Orphans))
	for _, id := range res.Orphans {
		orphans[id] = true
	}
	back := make(map[[2]string]bool)
	for _, e := range check.BackEdges(sc.Scenes) {
		back[[2]string{e.From, e.To}] = true
	}
	l.HasCycle = len(back) > 0

	idx := story.NewIndex(sc.Scenes)
	seen := make(map[string]bool, len(sc.Scenes))
	for _, s := range sc.Scenes {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		pos, ok := res.Positions[s.ID]
		if !ok {
			continue
		}
		s, _ = idx.Scene(s.ID)
		l.Nodes = append(l.Nodes, Node{
			ID:     s.ID,
			Title:  s.Title,
			X:      pos.X,
			Y:      pos.Y,
			Start:  s.IsStartScene,
			Orphan: orphans[s.ID],
		})
		for _, c := range s.Choices {
			if !idx.Has(c.TargetSceneID) {
				continue
			}
			l.Edges = append(l.Edges, Edge{
				From:  s.ID,
				To:    c.TargetSceneID,
				Label: c.Text,
				Back:  back[[2]string{s.ID, c.TargetSceneID}],
			})
		}
	}

	l.bounds()
	return l
}

func (l *Layout) bounds() {
	if len(l.Nodes) == 0 {
		return
	}
	l.MinX, l.MinY = math.Inf(1), math.Inf(1)
	l.MaxX, l.MaxY = math.Inf(-1), math.Inf(-1)
	for _, n := range l.Nodes {
		l.MinX = math.Min(l.MinX, n.X)
		l.MinY = math.Min(l.MinY, n.Y)
		l.MaxX = math.Max(l.MaxX, n.X)
		l.MaxY = math.Max(l.MaxY, n.Y)
	}
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
// Every edge must reference a node of the layout.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}

	ids := make(map[string]bool, len(l.Nodes))
	for _, n := range l.Nodes {
		ids[n.ID] = true
	}
	for _, e := range l.Edges {
		if !ids[e.From] || !ids[e.To] {
			return Layout{}, fmt.Errorf("layout edge %s->%s references unknown node", e.From, e.To)
		}
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
