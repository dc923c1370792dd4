package story

// Index is an id-keyed view over a scene list with resolved children.
//
// When ids repeat, the last scene with a given id wins the lookup. Children
// keep choice order and drop choices whose target is not in the index.
// Index never mutates the scenes it was built from.
type Index struct {
	scenes   []Scene
	byID     map[string]int
	children map[string][]string
}

// NewIndex builds an Index over scenes.
func NewIndex(scenes []Scene) *Index {
	idx := &Index{
		scenes:   scenes,
		byID:     make(map[string]int, len(scenes)),
		children: make(map[string][]string, len(scenes)),
	}
	for i, s := range scenes {
		idx.byID[s.ID] = i
	}
	for _, s := range scenes {
		kids := make([]string, 0, len(s.Choices))
		for _, c := range s.Choices {
			if _, ok := idx.byID[c.TargetSceneID]; ok {
				kids = append(kids, c.TargetSceneID)
			}
		}
		idx.children[s.ID] = kids
	}
	return idx
}

// Len returns the number of scenes the index was built from, duplicates included.
func (idx *Index) Len() int { return len(idx.scenes) }

// Has reports whether a scene with id exists.
func (idx *Index) Has(id string) bool {
	_, ok := idx.byID[id]
	return ok
}

// Scene returns the scene registered under id.
func (idx *Index) Scene(id string) (Scene, bool) {
	i, ok := idx.byID[id]
	if !ok {
		return Scene{}, false
	}
	return idx.scenes[i], true
}

// Children returns the ids of the scenes reachable through id's choices.
// The returned slice must not be modified.
func (idx *Index) Children(id string) []string {
	return idx.children[id]
}

// StartScene returns the first scene flagged as the start scene, in input order.
func StartScene(scenes []Scene) (Scene, bool) {
	for _, s := range scenes {
		if s.IsStartScene {
			return s, true
		}
	}
	return Scene{}, false
}

// StartScenes returns every scene flagged as a start scene, in input order.
func StartScenes(scenes []Scene) []Scene {
	var out []Scene
	for _, s := range scenes {
		if s.IsStartScene {
			out = append(out, s)
		}
	}
	return out
}
