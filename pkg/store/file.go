package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/matzehuels/scenegraph/pkg/errors"
	"github.com/matzehuels/scenegraph/pkg/story"
)

// FileStore keeps one indented JSON file per scenario in a directory.
// Scenario ids are validated before they are turned into file names.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a store rooted at baseDir, creating the directory.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create scenario dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Path returns the base directory for scenario files.
func (s *FileStore) Path() string {
	return s.baseDir
}

func (s *FileStore) scenarioPath(id string) (string, error) {
	if err := errors.ValidateID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, id+".json"), nil
}

func (s *FileStore) Load(ctx context.Context, id string) (*story.Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(id)
}

func (s *FileStore) read(id string) (*story.Scenario, error) {
	path, err := s.scenarioPath(id)
	if err != nil {
		return nil, err
	}
	sc, err := story.ImportScenario(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidScenario, err, "read scenario %q", id)
	}
	if sc.ID == "" {
		sc.ID = id
	}
	return sc, nil
}

func (s *FileStore) Save(ctx context.Context, sc *story.Scenario) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(sc)
}

// write replaces the file atomically through a temporary file.
func (s *FileStore) write(sc *story.Scenario) error {
	path, err := s.scenarioPath(sc.ID)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.baseDir, "."+sc.ID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("write scenario: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := story.WriteScenario(sc, tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write scenario: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write scenario: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write scenario: %w", err)
	}
	return nil
}

func (s *FileStore) SaveScene(ctx context.Context, scenarioID string, scene story.Scene) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, err := s.read(scenarioID)
	if err != nil {
		return err
	}
	sc.UpsertScene(scene)
	sc.UpdatedAt = now()
	return s.write(sc)
}

func (s *FileStore) DeleteScene(ctx context.Context, scenarioID, sceneID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, err := s.read(scenarioID)
	if err != nil {
		return err
	}
	if !sc.RemoveScene(sceneID) {
		return sceneNotFound(scenarioID, sceneID)
	}
	sc.UpdatedAt = now()
	return s.write(sc)
}

// List reads every scenario file. Files that fail to parse are skipped.
func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir: %w", err)
	}

	out := make([]Summary, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, ".") {
			continue
		}
		sc, err := s.read(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		out = append(out, Summarize(sc))
	}
	sortSummaries(out)
	return out, nil
}

func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
