package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/scenegraph/pkg/story"
	"github.com/matzehuels/scenegraph/pkg/story/check"
	"github.com/matzehuels/scenegraph/pkg/story/layout"
)

func browserFixture() SceneListModel {
	sc := &story.Scenario{
		Title: "Lighthouse",
		Scenes: []story.Scene{
			{ID: "shore", IsStartScene: true, Choices: []story.Choice{
				{ID: "c1", Text: "Climb", TargetSceneID: "lamp"},
				{ID: "c2", Text: "Swim", TargetSceneID: "sea"},
			}},
			{ID: "lamp", Choices: []story.Choice{{ID: "c3", TargetSceneID: "shore"}}},
			{ID: "attic"},
		},
	}
	l := layout.Build(sc, layout.Options{})
	return NewSceneListModel(sc, l, check.Inspect(sc.Scenes))
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewSceneListModel(t *testing.T) {
	m := browserFixture()

	if len(m.Rows) != 3 {
		t.Fatalf("len(Rows) = %d, want 3", len(m.Rows))
	}
	shore := m.Rows[0]
	if !shore.Start || !shore.Placed {
		t.Errorf("shore = %+v", shore)
	}
	if !shore.Choices[1].Missing {
		t.Error("choice to sea should be marked missing")
	}
	if !m.Rows[1].Choices[0].Back {
		t.Error("lamp → shore should be marked as closing a cycle")
	}
	if !m.Rows[2].Orphan {
		t.Error("attic should be unreachable")
	}
	if m.Cycle != "shore → lamp → shore" {
		t.Errorf("Cycle = %q", m.Cycle)
	}
}

func TestSceneListNavigation(t *testing.T) {
	var model tea.Model = browserFixture()

	steps := []struct {
		msg  tea.Msg
		want int
	}{
		{key("k"), 0},
		{key("j"), 1},
		{key("j"), 2},
		{key("j"), 2},
		{key("g"), 0},
		{key("G"), 2},
		{tea.KeyMsg{Type: tea.KeyUp}, 1},
	}
	for i, s := range steps {
		model, _ = model.Update(s.msg)
		if got := model.(SceneListModel).Cursor; got != s.want {
			t.Fatalf("step %d: Cursor = %d, want %d", i, got, s.want)
		}
	}

	_, cmd := model.Update(key("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestSceneListScrolls(t *testing.T) {
	var model tea.Model = browserFixture()
	model, _ = model.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	m := model.(SceneListModel)
	if m.Height != 3 {
		t.Fatalf("Height = %d, want minimum 3", m.Height)
	}

	m.Height = 1
	model, _ = m.Update(key("j"))
	if got := model.(SceneListModel).Offset; got != 1 {
		t.Errorf("Offset = %d, want 1", got)
	}
}

func TestSceneListView(t *testing.T) {
	m := browserFixture()
	view := m.View()
	for _, want := range []string{"Lighthouse", "shore", "start", "Climb", "(missing)", "cycle: shore → lamp → shore"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q", want)
		}
	}

	empty := NewSceneListModel(&story.Scenario{ID: "empty"}, layout.Layout{}, check.Report{})
	if !strings.Contains(empty.View(), "no scenes") {
		t.Error("empty view should say so")
	}
}
