package story

import (
	"reflect"
	"testing"
)

func TestIndex(t *testing.T) {
	scenes := []Scene{
		{ID: "a", Choices: []Choice{{TargetSceneID: "b"}, {TargetSceneID: "gone"}, {TargetSceneID: "c"}}},
		{ID: "b", Title: "first"},
		{ID: "c"},
		{ID: "b", Title: "second", Choices: []Choice{{TargetSceneID: "a"}}},
	}
	idx := NewIndex(scenes)

	if idx.Len() != 4 {
		t.Errorf("Len() = %d, want 4", idx.Len())
	}
	if !idx.Has("c") || idx.Has("gone") {
		t.Error("Has reports wrong membership")
	}
	if got := idx.Children("a"); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("Children(a) = %v, want [b c]", got)
	}
	if s, _ := idx.Scene("b"); s.Title != "second" {
		t.Errorf("Scene(b).Title = %q, want last duplicate", s.Title)
	}
	if got := idx.Children("b"); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("Children(b) = %v, want [a]", got)
	}
	if _, ok := idx.Scene("gone"); ok {
		t.Error("Scene(gone) found")
	}
}

func TestStartScenes(t *testing.T) {
	scenes := []Scene{{ID: "a"}, {ID: "b", IsStartScene: true}, {ID: "c", IsStartScene: true}}
	s, ok := StartScene(scenes)
	if !ok || s.ID != "b" {
		t.Errorf("StartScene = %q, %v", s.ID, ok)
	}
	if got := SceneIDs(StartScenes(scenes)); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("StartScenes = %v", got)
	}
	if _, ok := StartScene(scenes[:1]); ok {
		t.Error("StartScene found one in a list without start scenes")
	}
}

func TestWithPositions(t *testing.T) {
	old := &Position{X: 1, Y: 1}
	scenes := []Scene{{ID: "a"}, {ID: "b", Position: old}}

	out := WithPositions(scenes, map[string]Position{"a": {X: 10, Y: 20}})

	if scenes[0].Position != nil {
		t.Error("input scene was modified")
	}
	if p := out[0].Position; p == nil || *p != (Position{X: 10, Y: 20}) {
		t.Errorf("a position = %v", p)
	}
	if p := out[1].Position; p == nil || *p != *old || p == old {
		t.Errorf("b position = %v, want copy of %v", p, old)
	}
}

func TestScenarioClone(t *testing.T) {
	sc := &Scenario{ID: "s", Scenes: []Scene{{ID: "a", Choices: []Choice{{TargetSceneID: "b"}}}}}
	cp := sc.Clone()
	cp.Scenes[0].Choices[0].TargetSceneID = "z"
	cp.Scenes[0].ID = "q"
	if sc.Scenes[0].ID != "a" || sc.Scenes[0].Choices[0].TargetSceneID != "b" {
		t.Errorf("original modified: %+v", sc.Scenes[0])
	}
	if _, ok := sc.Scene("a"); !ok {
		t.Error("Scene(a) not found")
	}
}

func TestUpsertAndRemoveScene(t *testing.T) {
	sc := &Scenario{Scenes: []Scene{{ID: "a", Title: "old"}, {ID: "b"}}}

	if !sc.UpsertScene(Scene{ID: "a", Title: "new"}) {
		t.Error("UpsertScene(a) should replace")
	}
	if sc.Scenes[0].Title != "new" || len(sc.Scenes) != 2 {
		t.Errorf("after replace: %+v", sc.Scenes)
	}
	if sc.UpsertScene(Scene{ID: "c"}) {
		t.Error("UpsertScene(c) should append")
	}
	if len(sc.Scenes) != 3 || sc.Scenes[2].ID != "c" {
		t.Errorf("after append: %+v", sc.Scenes)
	}

	if !sc.RemoveScene("b") || len(sc.Scenes) != 2 {
		t.Errorf("RemoveScene(b): %+v", sc.Scenes)
	}
	if sc.RemoveScene("b") {
		t.Error("RemoveScene(b) twice should report false")
	}
}
