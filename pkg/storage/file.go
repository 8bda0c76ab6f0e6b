package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/pngsquare/pkg/atlas"
)

// FileStore keeps one JSON file per atlas in a directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
	now     func() time.Time
}

// NewFileStore creates a store rooted at baseDir, creating it if needed.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create atlas dir: %w", err)
	}
	return &FileStore{baseDir: baseDir, now: time.Now}, nil
}

// atlasPath maps an ID to its file. IDs that are not UUIDs cannot name a
// stored atlas, which also keeps path separators out of file names.
func (s *FileStore) atlasPath(id string) (string, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return filepath.Join(s.baseDir, id+".json"), true
}

func (s *FileStore) Put(_ context.Context, a *atlas.Atlas) error {
	prepare(a, s.now())
	path, ok := s.atlasPath(a.ID)
	if !ok {
		return fmt.Errorf("invalid atlas id %q", a.ID)
	}

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal atlas: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write atlas file: %w", err)
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, id string) (*atlas.Atlas, error) {
	path, ok := s.atlasPath(id)
	if !ok {
		return nil, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read atlas file: %w", err)
	}
	defer f.Close()
	return atlas.ReadJSON(f)
}

func (s *FileStore) List(_ context.Context, limit int) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read atlas dir: %w", err)
	}

	var out []Summary
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		f, err := os.Open(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		a, err := atlas.ReadJSON(f)
		f.Close()
		if err != nil {
			continue
		}
		out = append(out, Summarize(a))
	}
	return newestFirst(out, limit), nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	path, ok := s.atlasPath(id)
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove atlas file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the base directory for atlas files.
func (s *FileStore) Path() string { return s.baseDir }

var _ Store = (*FileStore)(nil)
