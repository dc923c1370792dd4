package check

import (
	"fmt"
	"strings"

	"github.com/matzehuels/scenegraph/pkg/story"
)

// DanglingChoice is a choice whose target scene does not exist.
type DanglingChoice struct {
	SceneID  string `json:"scene_id"`
	ChoiceID string `json:"choice_id"`
	Target   string `json:"target"`
}

// Report summarizes the structure of a scene list.
//
// Only a cycle makes a scene list unplayable. Everything else in the report
// is a warning: the layout and consistency algorithms tolerate those shapes,
// but an author probably did not intend them.
type Report struct {
	Scenes       int              `json:"scenes"`
	StartScenes  []string         `json:"start_scenes"`
	DuplicateIDs []string         `json:"duplicate_ids,omitempty"`
	Dangling     []DanglingChoice `json:"dangling,omitempty"`
	Unreachable  []string         `json:"unreachable,omitempty"`
	Cycle        []string         `json:"cycle,omitempty"`
}

// OK reports whether the scene list is free of cycles.
func (r Report) OK() bool { return len(r.Cycle) == 0 }

// Warnings returns a human-readable line for every non-fatal finding.
func (r Report) Warnings() []string {
	var out []string
	switch len(r.StartScenes) {
	case 0:
		if r.Scenes > 0 {
			out = append(out, "no start scene")
		}
	case 1:
	default:
		out = append(out, fmt.Sprintf("%d start scenes (%s); %s is used",
			len(r.StartScenes), strings.Join(r.StartScenes, ", "), r.StartScenes[0]))
	}
	for _, id := range r.DuplicateIDs {
		out = append(out, fmt.Sprintf("duplicate scene id %q", id))
	}
	for _, d := range r.Dangling {
		out = append(out, fmt.Sprintf("choice %q of scene %q targets missing scene %q", d.ChoiceID, d.SceneID, d.Target))
	}
	if len(r.Unreachable) > 0 {
		out = append(out, fmt.Sprintf("%d unreachable scenes: %s", len(r.Unreachable), strings.Join(r.Unreachable, ", ")))
	}
	return out
}

// CycleString formats the cycle path as "a → b → a".
func (r Report) CycleString() string {
	return strings.Join(r.Cycle, " → ")
}

// Inspect builds a structural report for scenes.
//
// Reachability is measured from the first start scene; with no start scene
// nothing is reported as unreachable. The cycle path is the one [FindCycle]
// returns.
func Inspect(scenes []story.Scene) Report {
	r := Report{
		Scenes:      len(scenes),
		StartScenes: story.SceneIDs(story.StartScenes(scenes)),
		Cycle:       FindCycle(scenes),
	}

	idx := story.NewIndex(scenes)
	seen := make(map[string]bool, len(scenes))
	for _, s := range scenes {
		if seen[s.ID] {
			r.DuplicateIDs = appendOnce(r.DuplicateIDs, s.ID)
		}
		seen[s.ID] = true
		for _, c := range s.Choices {
			if !idx.Has(c.TargetSceneID) {
				r.Dangling = append(r.Dangling, DanglingChoice{SceneID: s.ID, ChoiceID: c.ID, Target: c.TargetSceneID})
			}
		}
	}

	if len(r.StartScenes) > 0 {
		reached := Reachable(idx, r.StartScenes[0])
		done := make(map[string]bool, len(scenes))
		for _, s := range scenes {
			if !reached[s.ID] && !done[s.ID] {
				r.Unreachable = append(r.Unreachable, s.ID)
			}
			done[s.ID] = true
		}
	}
	return r
}

// Reachable returns the set of scene ids reachable from root, root included.
func Reachable(idx *story.Index, root string) map[string]bool {
	reached := map[string]bool{root: true}
	stack := []string{root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range idx.Children(id) {
			if !reached[next] {
				reached[next] = true
				stack = append(stack, next)
			}
		}
	}
	return reached
}

func appendOnce(list []string, id string) []string {
	for _, v := range list {
		if v == id {
			return list
		}
	}
	return append(list, id)
}
