// Package store persists scenarios for the save workflow.
//
// Three backends implement [Store]:
//   - [MemoryStore]: process-local, used by tests and the default server
//   - [FileStore]: one JSON file per scenario in a directory
//   - [MongoStore]: the "scenarios" collection of a MongoDB database
//
// Every backend reports a missing scenario with an error carrying
// errors.ErrCodeScenarioNotFound. Stores never validate the choice graph;
// that is the editor's job.
package store

import (
	"context"
	"sort"
	"time"

	"github.com/matzehuels/scenegraph/pkg/errors"
	"github.com/matzehuels/scenegraph/pkg/story"
)

// Store loads and saves scenarios.
type Store interface {
	// Load returns the scenario with the given id.
	Load(ctx context.Context, id string) (*story.Scenario, error)

	// Save writes a whole scenario, replacing any stored version.
	Save(ctx context.Context, sc *story.Scenario) error

	// SaveScene replaces the scene with scene.ID in the stored scenario, or
	// appends it, and bumps the scenario's UpdatedAt.
	SaveScene(ctx context.Context, scenarioID string, scene story.Scene) error

	// DeleteScene removes a scene from the stored scenario.
	DeleteScene(ctx context.Context, scenarioID, sceneID string) error

	// List returns a summary of every stored scenario, most recently updated first.
	List(ctx context.Context) ([]Summary, error)

	// Close releases backend resources.
	Close() error
}

// Summary describes a stored scenario without its scenes.
type Summary struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Scenes      int       `json:"scenes" bson:"scene_count"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`
}

// Summarize builds the summary of sc.
func Summarize(sc *story.Scenario) Summary {
	return Summary{
		ID:          sc.ID,
		Title:       sc.Title,
		Description: sc.Description,
		Scenes:      len(sc.Scenes),
		UpdatedAt:   sc.UpdatedAt,
	}
}

func sortSummaries(out []Summary) {
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeScenarioNotFound, "scenario %q not found", id)
}

func sceneNotFound(scenarioID, sceneID string) error {
	return errors.New(errors.ErrCodeSceneNotFound, "scene %q not found in scenario %q", sceneID, scenarioID)
}

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }
