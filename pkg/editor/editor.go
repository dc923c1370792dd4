// Package editor implements the scenario save workflow.
//
// An edit is merged into the stored scenario and checked before anything is
// persisted. Edits that would make the choice graph cyclic, or that flag a
// second start scene, are refused and the last stored version is handed back
// so that the caller can discard its local changes.
package editor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/scenegraph/pkg/errors"
	"github.com/matzehuels/scenegraph/pkg/observability"
	"github.com/matzehuels/scenegraph/pkg/store"
	"github.com/matzehuels/scenegraph/pkg/story"
	"github.com/matzehuels/scenegraph/pkg/story/check"
)

// DefaultScenePosition is where new scenes are placed until the next layout.
var DefaultScenePosition = story.Position{X: 200, Y: 200}

// Editor applies scene edits to scenarios held in a store.
//
// Edits to one scenario are serialized, so the cycle check always runs
// against the graph the edit is written into. This holds for a single
// Editor; processes sharing a store need their own coordination.
type Editor struct {
	store  store.Store
	logger *log.Logger
	now    func() time.Time

	locks sync.Map // scenario id -> *sync.Mutex
}

// New creates an editor. A nil logger uses log.Default().
func New(s store.Store, logger *log.Logger) *Editor {
	if logger == nil {
		logger = log.Default()
	}
	return &Editor{store: s, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// NewScene returns an empty scene with a generated id at the default position.
func NewScene(title string) story.Scene {
	pos := DefaultScenePosition
	return story.Scene{
		ID:       uuid.NewString(),
		Title:    title,
		Choices:  []story.Choice{},
		Position: &pos,
	}
}

// AddChoice returns a copy of scene with a new choice appended. The target
// is not checked; dangling choices are allowed.
func AddChoice(scene story.Scene, text, targetSceneID string) story.Scene {
	out := scene.Clone()
	out.Choices = append(out.Choices, story.Choice{
		ID:            uuid.NewString(),
		Text:          text,
		TargetSceneID: targetSceneID,
	})
	return out
}

// UpdateScene merges scene into the stored scenario and persists it.
//
// The scene replaces the stored scene with the same id, or is appended when
// the id is new. The merged graph must be acyclic and have at most one start
// scene. On success the updated scenario is returned.
//
// When the merged graph has a cycle nothing is written. The scenario is
// reloaded from the store and returned together with an error coded
// CYCLE_DETECTED whose cause is an *errors.CycleError naming the cycle.
func (e *Editor) UpdateScene(ctx context.Context, scenarioID string, scene story.Scene) (*story.Scenario, error) {
	if err := errors.ValidateID(scene.ID); err != nil {
		return nil, err
	}
	if scene.Choices == nil {
		scene.Choices = []story.Choice{}
	}

	defer e.lock(scenarioID)()

	current, err := e.store.Load(ctx, scenarioID)
	if err != nil {
		return nil, err
	}

	merged := current.Clone()
	merged.UpsertScene(scene)

	if scene.IsStartScene {
		for _, s := range merged.Scenes {
			if s.IsStartScene && s.ID != scene.ID {
				e.reject(ctx, scenarioID, scene.ID, errors.ErrCodeMultipleStartScenes)
				return current, errors.New(errors.ErrCodeMultipleStartScenes,
					"scene %q is already the start scene", s.ID)
			}
		}
	}

	if path := check.FindCycle(merged.Scenes); path != nil {
		e.reject(ctx, scenarioID, scene.ID, errors.ErrCodeCycleDetected)
		e.logger.Warn("rejected scene edit", "scenario", scenarioID, "scene", scene.ID, "cycle", path)

		reloaded, loadErr := e.store.Load(ctx, scenarioID)
		if loadErr != nil {
			reloaded = current
		}
		cause := &errors.CycleError{ScenarioID: scenarioID, Path: path}
		return reloaded, errors.Wrap(errors.ErrCodeCycleDetected, cause,
			"saving scene %q would create a cycle", scene.ID)
	}

	if err := e.store.SaveScene(ctx, scenarioID, scene); err != nil {
		return nil, fmt.Errorf("save scene %s: %w", scene.ID, err)
	}
	observability.Editor().OnSceneSaved(ctx, scenarioID, scene.ID)

	// Return what was persisted, including the store's UpdatedAt.
	saved, err := e.store.Load(ctx, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("reload scenario %s: %w", scenarioID, err)
	}
	e.logger.Debug("saved scene", "scenario", scenarioID, "scene", scene.ID, "scenes", len(saved.Scenes))
	return saved, nil
}

// DeleteScene removes a scene. Choices that pointed at it are kept as
// dangling references.
func (e *Editor) DeleteScene(ctx context.Context, scenarioID, sceneID string) (*story.Scenario, error) {
	defer e.lock(scenarioID)()

	if err := e.store.DeleteScene(ctx, scenarioID, sceneID); err != nil {
		return nil, err
	}
	e.logger.Debug("deleted scene", "scenario", scenarioID, "scene", sceneID)
	return e.store.Load(ctx, scenarioID)
}

// CreateScenario stores a new scenario. A missing id is generated. The
// scenario must be acyclic.
func (e *Editor) CreateScenario(ctx context.Context, sc *story.Scenario) (*story.Scenario, error) {
	out := sc.Clone()
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if err := errors.ValidateID(out.ID); err != nil {
		return nil, err
	}
	defer e.lock(out.ID)()

	if path := check.FindCycle(out.Scenes); path != nil {
		cause := &errors.CycleError{ScenarioID: out.ID, Path: path}
		return nil, errors.Wrap(errors.ErrCodeCycleDetected, cause, "scenario contains a cycle")
	}
	ts := e.now()
	if out.CreatedAt.IsZero() {
		out.CreatedAt = ts
	}
	out.UpdatedAt = ts
	if err := e.store.Save(ctx, out); err != nil {
		return nil, fmt.Errorf("save scenario %s: %w", out.ID, err)
	}
	e.logger.Info("created scenario", "scenario", out.ID, "scenes", len(out.Scenes))
	return out, nil
}

func (e *Editor) reject(ctx context.Context, scenarioID, sceneID string, code errors.Code) {
	observability.Editor().OnEditRejected(ctx, scenarioID, sceneID, string(code))
}

// lock acquires the edit lock of a scenario and returns its release.
func (e *Editor) lock(scenarioID string) (unlock func()) {
	m, _ := e.locks.LoadOrStore(scenarioID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
