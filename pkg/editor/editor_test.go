package editor

import (
	"context"
	stderrors "errors"
	"io"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scenegraph/pkg/errors"
	"github.com/matzehuels/scenegraph/pkg/observability"
	"github.com/matzehuels/scenegraph/pkg/store"
	"github.com/matzehuels/scenegraph/pkg/story"
	"github.com/matzehuels/scenegraph/pkg/story/check"
)

func choice(target string) story.Choice {
	return story.Choice{ID: "to-" + target, TargetSceneID: target}
}

// seed stores a -> b -> c with a as the start scene.
func seed(t *testing.T) (*Editor, *countingStore) {
	t.Helper()
	s := &countingStore{Store: store.NewMemoryStore()}
	err := s.Save(context.Background(), &story.Scenario{
		ID: "s1",
		Scenes: []story.Scene{
			{ID: "a", IsStartScene: true, Choices: []story.Choice{choice("b")}},
			{ID: "b", Choices: []story.Choice{choice("c")}},
			{ID: "c", Choices: []story.Choice{}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return New(s, log.New(io.Discard)), s
}

type countingStore struct {
	store.Store
	saveScenes int
}

func (s *countingStore) SaveScene(ctx context.Context, scenarioID string, scene story.Scene) error {
	s.saveScenes++
	return s.Store.SaveScene(ctx, scenarioID, scene)
}

type recordingHooks struct {
	observability.NoopEditorHooks
	saved    int
	rejected []string
}

func (h *recordingHooks) OnSceneSaved(context.Context, string, string) { h.saved++ }
func (h *recordingHooks) OnEditRejected(_ context.Context, _, _, code string) {
	h.rejected = append(h.rejected, code)
}

func TestUpdateSceneAcceptsAcyclicEdit(t *testing.T) {
	ctx := context.Background()
	ed, s := seed(t)

	edit := story.Scene{ID: "c", Title: "Attic", Choices: []story.Choice{}}
	edit = AddChoice(edit, "Go down", "d")
	got, err := ed.UpdateScene(ctx, "s1", edit)
	if err != nil {
		t.Fatalf("UpdateScene: %v", err)
	}
	if s.saveScenes != 1 {
		t.Errorf("SaveScene calls = %d, want 1", s.saveScenes)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}
	stored, _ := s.Load(ctx, "s1")
	if !got.UpdatedAt.Equal(stored.UpdatedAt) {
		t.Errorf("returned UpdatedAt %v, stored %v", got.UpdatedAt, stored.UpdatedAt)
	}
	c, _ := stored.Scene("c")
	if c.Title != "Attic" || len(c.Choices) != 1 || c.Choices[0].TargetSceneID != "d" {
		t.Errorf("stored scene c = %+v", c)
	}
}

func TestUpdateSceneAppendsNewScene(t *testing.T) {
	ctx := context.Background()
	ed, s := seed(t)

	scene := NewScene("Cellar")
	if _, err := ed.UpdateScene(ctx, "s1", scene); err != nil {
		t.Fatalf("UpdateScene: %v", err)
	}
	stored, _ := s.Load(ctx, "s1")
	if len(stored.Scenes) != 4 {
		t.Errorf("len(Scenes) = %d, want 4", len(stored.Scenes))
	}
}

func TestUpdateSceneRejectsCycle(t *testing.T) {
	ctx := context.Background()
	hooks := &recordingHooks{}
	observability.SetEditorHooks(hooks)
	defer observability.Reset()

	ed, s := seed(t)
	edit := story.Scene{ID: "c", Choices: []story.Choice{choice("a")}}

	got, err := ed.UpdateScene(ctx, "s1", edit)
	if !errors.Is(err, errors.ErrCodeCycleDetected) {
		t.Fatalf("err = %v, want CYCLE_DETECTED", err)
	}
	var ce *errors.CycleError
	if !stderrors.As(err, &ce) {
		t.Fatalf("err %v does not carry *CycleError", err)
	}
	if want := []string{"a", "b", "c", "a"}; !reflect.DeepEqual(ce.Path, want) {
		t.Errorf("cycle path = %v, want %v", ce.Path, want)
	}
	if s.saveScenes != 0 {
		t.Errorf("SaveScene calls = %d, want 0", s.saveScenes)
	}

	// The returned scenario is the stored one, without the rejected choice.
	c, _ := got.Scene("c")
	if len(c.Choices) != 0 {
		t.Errorf("returned scene c = %+v, want stored version", c)
	}
	if !reflect.DeepEqual(hooks.rejected, []string{"CYCLE_DETECTED"}) {
		t.Errorf("rejected hooks = %v", hooks.rejected)
	}
}

// gatedStore holds each of the first two loads until both have started or
// a timeout passes, so unsynchronized edits would read the same snapshot.
type gatedStore struct {
	store.Store
	mu     sync.Mutex
	loads  int
	both   chan struct{}
	closed bool
}

func (s *gatedStore) Load(ctx context.Context, id string) (*story.Scenario, error) {
	s.mu.Lock()
	s.loads++
	if s.loads == 2 && !s.closed {
		close(s.both)
		s.closed = true
	}
	s.mu.Unlock()

	select {
	case <-s.both:
	case <-time.After(100 * time.Millisecond):
	}
	return s.Store.Load(ctx, id)
}

func TestUpdateSceneConcurrentEditsStayAcyclic(t *testing.T) {
	ctx := context.Background()
	s := &gatedStore{Store: store.NewMemoryStore(), both: make(chan struct{})}
	err := s.Store.Save(ctx, &story.Scenario{ID: "s1", Scenes: []story.Scene{
		{ID: "a", IsStartScene: true, Choices: []story.Choice{choice("b")}},
		{ID: "b", Choices: []story.Choice{}},
		{ID: "c", Choices: []story.Choice{}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	ed := New(s, log.New(io.Discard))

	edits := []story.Scene{
		{ID: "b", Choices: []story.Choice{choice("c")}},
		{ID: "c", Choices: []story.Choice{choice("b")}},
	}
	errs := make([]error, len(edits))
	var wg sync.WaitGroup
	for i, edit := range edits {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = ed.UpdateScene(ctx, "s1", edit)
		}()
	}
	wg.Wait()

	rejected := 0
	for _, err := range errs {
		switch {
		case err == nil:
		case errors.Is(err, errors.ErrCodeCycleDetected):
			rejected++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if rejected != 1 {
		t.Errorf("rejected %d edits, want exactly 1: %v", rejected, errs)
	}
	stored, _ := s.Store.Load(ctx, "s1")
	if path := check.FindCycle(stored.Scenes); path != nil {
		t.Errorf("stored graph has cycle %v", path)
	}
}

func TestUpdateSceneRejectsSelfLoop(t *testing.T) {
	ed, _ := seed(t)
	_, err := ed.UpdateScene(context.Background(), "s1", story.Scene{ID: "b", Choices: []story.Choice{choice("b")}})
	if !errors.Is(err, errors.ErrCodeCycleDetected) {
		t.Errorf("err = %v, want CYCLE_DETECTED", err)
	}
}

func TestUpdateSceneAllowsDanglingChoice(t *testing.T) {
	ed, _ := seed(t)
	_, err := ed.UpdateScene(context.Background(), "s1", story.Scene{ID: "b", Choices: []story.Choice{choice("nonexistent-id")}})
	if err != nil {
		t.Errorf("dangling choice rejected: %v", err)
	}
}

func TestUpdateSceneRejectsSecondStart(t *testing.T) {
	ctx := context.Background()
	ed, s := seed(t)

	_, err := ed.UpdateScene(ctx, "s1", story.Scene{ID: "b", IsStartScene: true, Choices: []story.Choice{choice("c")}})
	if !errors.Is(err, errors.ErrCodeMultipleStartScenes) {
		t.Fatalf("err = %v, want MULTIPLE_START_SCENES", err)
	}
	if s.saveScenes != 0 {
		t.Error("edit was persisted")
	}

	// Re-flagging the current start scene is fine.
	_, err = ed.UpdateScene(ctx, "s1", story.Scene{ID: "a", IsStartScene: true, Choices: []story.Choice{choice("b")}})
	if err != nil {
		t.Errorf("re-saving start scene: %v", err)
	}
}

func TestUpdateSceneErrors(t *testing.T) {
	ed, _ := seed(t)
	ctx := context.Background()

	if _, err := ed.UpdateScene(ctx, "missing", story.Scene{ID: "a"}); !errors.Is(err, errors.ErrCodeScenarioNotFound) {
		t.Errorf("missing scenario err = %v", err)
	}
	if _, err := ed.UpdateScene(ctx, "s1", story.Scene{ID: ""}); !errors.Is(err, errors.ErrCodeInvalidID) {
		t.Errorf("empty scene id err = %v", err)
	}
}

func TestDeleteSceneLeavesDanglingChoices(t *testing.T) {
	ed, _ := seed(t)
	got, err := ed.DeleteScene(context.Background(), "s1", "b")
	if err != nil {
		t.Fatalf("DeleteScene: %v", err)
	}
	a, _ := got.Scene("a")
	if len(got.Scenes) != 2 || a.Choices[0].TargetSceneID != "b" {
		t.Errorf("after delete: %+v", got.Scenes)
	}
}

func TestCreateScenario(t *testing.T) {
	ed, s := seed(t)
	ctx := context.Background()

	sc, err := ed.CreateScenario(ctx, &story.Scenario{Title: "New", Scenes: []story.Scene{NewScene("Start")}})
	if err != nil {
		t.Fatalf("CreateScenario: %v", err)
	}
	if sc.ID == "" || sc.CreatedAt.IsZero() {
		t.Errorf("created = %+v", sc)
	}
	if _, err := s.Load(ctx, sc.ID); err != nil {
		t.Errorf("created scenario not stored: %v", err)
	}

	cyclic := &story.Scenario{ID: "loop", Scenes: []story.Scene{{ID: "x", Choices: []story.Choice{choice("x")}}}}
	if _, err := ed.CreateScenario(ctx, cyclic); !errors.Is(err, errors.ErrCodeCycleDetected) {
		t.Errorf("cyclic scenario err = %v", err)
	}
}

func TestNewScene(t *testing.T) {
	a, b := NewScene("A"), NewScene("B")
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("ids = %q, %q", a.ID, b.ID)
	}
	if a.Position == nil || *a.Position != DefaultScenePosition {
		t.Errorf("position = %v", a.Position)
	}
	if a.Choices == nil || len(a.Choices) != 0 {
		t.Errorf("choices = %v", a.Choices)
	}

	withChoice := AddChoice(a, "Next", b.ID)
	if len(a.Choices) != 0 || len(withChoice.Choices) != 1 {
		t.Error("AddChoice modified its input")
	}
}
