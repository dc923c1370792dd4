package check

import "github.com/matzehuels/scenegraph/pkg/story"

// Edge is a choice edge between two existing scenes.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// HasCycle reports whether the choice graph contains a directed cycle
// reachable from the start scenes.
//
// Every scene flagged IsStartScene is a root. When no scene is flagged, every
// scene is a root so that isolated cyclic clusters are still caught. Choices
// whose target does not exist are skipped. A self-referencing choice is a
// cycle.
//
// The search is a depth-first traversal that keeps a visited set shared by
// all roots and an on-stack set for the current path; the first edge into an
// on-stack scene ends the search. Time is O(V+E) overall.
func HasCycle(scenes []story.Scene) bool {
	return FindCycle(scenes) != nil
}

// FindCycle returns the scene ids of the first cycle found by [HasCycle], in
// traversal order with the first id repeated at the end (a→b→a is returned
// as [a b a]). It returns nil when the reachable graph is acyclic.
func FindCycle(scenes []story.Scene) []string {
	w := newWalker(scenes)
	for _, root := range roots(scenes) {
		if w.visited[root] {
			continue
		}
		if cycle := w.find(root); cycle != nil {
			return cycle
		}
	}
	return nil
}

// BackEdges returns every edge that closes a cycle during a full depth-first
// traversal from the same roots as [HasCycle]. The result is empty exactly
// when HasCycle is false. Edges are reported once each, in discovery order.
func BackEdges(scenes []story.Scene) []Edge {
	w := newWalker(scenes)
	seen := make(map[Edge]bool)
	var out []Edge
	for _, root := range roots(scenes) {
		if w.visited[root] {
			continue
		}
		w.collect(root, func(e Edge) {
			if !seen[e] {
				seen[e] = true
				out = append(out, e)
			}
		})
	}
	return out
}

// roots returns the ids the traversal starts from.
func roots(scenes []story.Scene) []string {
	if starts := story.StartScenes(scenes); len(starts) > 0 {
		return story.SceneIDs(starts)
	}
	return story.SceneIDs(scenes)
}

type walker struct {
	idx     *story.Index
	visited map[string]bool
	onStack map[string]bool
	path    []string
}

func newWalker(scenes []story.Scene) *walker {
	return &walker{
		idx:     story.NewIndex(scenes),
		visited: make(map[string]bool, len(scenes)),
		onStack: make(map[string]bool),
	}
}

// find runs the short-circuiting search from id.
func (w *walker) find(id string) []string {
	w.visited[id] = true
	w.onStack[id] = true
	w.path = append(w.path, id)

	for _, next := range w.idx.Children(id) {
		if w.onStack[next] {
			return w.closeCycle(next)
		}
		if w.visited[next] {
			continue
		}
		if cycle := w.find(next); cycle != nil {
			return cycle
		}
	}

	w.path = w.path[:len(w.path)-1]
	delete(w.onStack, id)
	return nil
}

// closeCycle extracts the cycle ending at the back edge into next.
func (w *walker) closeCycle(next string) []string {
	start := len(w.path) - 1
	for start > 0 && w.path[start] != next {
		start--
	}
	cycle := make([]string, 0, len(w.path)-start+1)
	cycle = append(cycle, w.path[start:]...)
	return append(cycle, next)
}

// collect runs the full search from id, reporting back edges to emit.
func (w *walker) collect(id string, emit func(Edge)) {
	w.visited[id] = true
	w.onStack[id] = true

	for _, next := range w.idx.Children(id) {
		if w.onStack[next] {
			emit(Edge{From: id, To: next})
			continue
		}
		if !w.visited[next] {
			w.collect(next, emit)
		}
	}

	delete(w.onStack, id)
}
