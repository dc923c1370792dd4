package store

import (
	"context"
	"sync"

	"github.com/matzehuels/scenegraph/pkg/errors"
	"github.com/matzehuels/scenegraph/pkg/story"
)

// MemoryStore keeps scenarios in a map. Values are cloned on the way in and
// out so that callers never share scene slices with the store.
type MemoryStore struct {
	mu        sync.RWMutex
	scenarios map[string]*story.Scenario
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{scenarios: make(map[string]*story.Scenario)}
}

func (s *MemoryStore) Load(ctx context.Context, id string) (*story.Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sc, ok := s.scenarios[id]
	if !ok {
		return nil, notFound(id)
	}
	return sc.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, sc *story.Scenario) error {
	if sc.ID == "" {
		return errors.New(errors.ErrCodeInvalidScenario, "scenario has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scenarios[sc.ID] = sc.Clone()
	return nil
}

func (s *MemoryStore) SaveScene(ctx context.Context, scenarioID string, scene story.Scene) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.scenarios[scenarioID]
	if !ok {
		return notFound(scenarioID)
	}
	sc.UpsertScene(scene)
	sc.UpdatedAt = now()
	return nil
}

func (s *MemoryStore) DeleteScene(ctx context.Context, scenarioID, sceneID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.scenarios[scenarioID]
	if !ok {
		return notFound(scenarioID)
	}
	if !sc.RemoveScene(sceneID) {
		return sceneNotFound(scenarioID, sceneID)
	}
	sc.UpdatedAt = now()
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.scenarios))
	for _, sc := range s.scenarios {
		out = append(out, Summarize(sc))
	}
	sortSummaries(out)
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
