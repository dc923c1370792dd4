package story

import (
	"slices"
	"time"
)

// Position is a 2-D coordinate in layout units. X grows to the right and Y
// grows downward, one level band per depth.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Choice is a labeled edge from one scene to another.
//
// TargetSceneID may reference a scene that does not exist. Such dangling
// choices are ignored by every graph algorithm in this module.
type Choice struct {
	ID            string `json:"id" bson:"id"`
	Text          string `json:"text" bson:"text"`
	TargetSceneID string `json:"targetSceneId" bson:"target_scene_id"`
	Condition     string `json:"condition,omitempty" bson:"condition,omitempty"`
}

// Scene is a node of the narrative graph.
type Scene struct {
	ID           string    `json:"id" bson:"id"`
	Title        string    `json:"title" bson:"title"`
	Content      string    `json:"content,omitempty" bson:"content,omitempty"`
	Image        string    `json:"image,omitempty" bson:"image,omitempty"`
	Audio        string    `json:"audio,omitempty" bson:"audio,omitempty"`
	ImageAssetID string    `json:"imageAssetId,omitempty" bson:"image_asset_id,omitempty"`
	AudioAssetID string    `json:"audioAssetId,omitempty" bson:"audio_asset_id,omitempty"`
	Choices      []Choice  `json:"choices" bson:"choices"`
	Position     *Position `json:"position,omitempty" bson:"position,omitempty"`
	IsStartScene bool      `json:"isStartScene,omitempty" bson:"is_start_scene,omitempty"`
}

// Clone returns a deep copy of s.
func (s Scene) Clone() Scene {
	out := s
	out.Choices = slices.Clone(s.Choices)
	if s.Position != nil {
		p := *s.Position
		out.Position = &p
	}
	return out
}

// User is the author of a scenario.
type User struct {
	ID    string `json:"id" bson:"id"`
	Email string `json:"email,omitempty" bson:"email,omitempty"`
	Name  string `json:"name,omitempty" bson:"name,omitempty"`
	Role  string `json:"role,omitempty" bson:"role,omitempty"`
}

// Scenario is a complete narrative: metadata plus its scene list.
type Scenario struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`
	Scenes      []Scene   `json:"scenes" bson:"scenes"`
	Author      User      `json:"author" bson:"author"`
}

// Clone returns a deep copy of sc.
func (sc *Scenario) Clone() *Scenario {
	out := *sc
	out.Scenes = make([]Scene, len(sc.Scenes))
	for i, s := range sc.Scenes {
		out.Scenes[i] = s.Clone()
	}
	return &out
}

// Scene returns the first scene with the given id.
func (sc *Scenario) Scene(id string) (Scene, bool) {
	for _, s := range sc.Scenes {
		if s.ID == id {
			return s, true
		}
	}
	return Scene{}, false
}

// UpsertScene replaces every scene whose id matches scene.ID, or appends
// scene when none does. It reports whether an existing scene was replaced.
func (sc *Scenario) UpsertScene(scene Scene) bool {
	replaced := false
	for i := range sc.Scenes {
		if sc.Scenes[i].ID == scene.ID {
			sc.Scenes[i] = scene.Clone()
			replaced = true
		}
	}
	if !replaced {
		sc.Scenes = append(sc.Scenes, scene.Clone())
	}
	return replaced
}

// RemoveScene deletes every scene with the given id and reports whether any
// was removed. Choices targeting the removed scene are kept.
func (sc *Scenario) RemoveScene(id string) bool {
	n := len(sc.Scenes)
	sc.Scenes = slices.DeleteFunc(sc.Scenes, func(s Scene) bool { return s.ID == id })
	return len(sc.Scenes) != n
}

// SceneIDs returns the scene ids in input order.
func SceneIDs(scenes []Scene) []string {
	ids := make([]string, len(scenes))
	for i, s := range scenes {
		ids[i] = s.ID
	}
	return ids
}

// WithPositions returns a copy of scenes with positions applied. Scenes
// missing from positions keep whatever position they already had. The input
// slice is not modified.
func WithPositions(scenes []Scene, positions map[string]Position) []Scene {
	out := make([]Scene, len(scenes))
	for i, s := range scenes {
		out[i] = s.Clone()
		if p, ok := positions[s.ID]; ok {
			out[i].Position = &p
		}
	}
	return out
}
