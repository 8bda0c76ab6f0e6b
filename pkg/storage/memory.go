package storage

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/pngsquare/pkg/atlas"
)

// MemoryStore keeps atlases in a map. Stored and returned atlases are
// copies, so callers may modify them freely.
type MemoryStore struct {
	mu      sync.RWMutex
	atlases map[string]*atlas.Atlas
	now     func() time.Time
}

// NewMemoryStore returns an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{atlases: make(map[string]*atlas.Atlas), now: time.Now}
}

func (s *MemoryStore) Put(_ context.Context, a *atlas.Atlas) error {
	prepare(a, s.now())
	s.mu.Lock()
	s.atlases[a.ID] = clone(a)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*atlas.Atlas, error) {
	s.mu.RLock()
	a, ok := s.atlases[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return clone(a), nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]Summary, error) {
	s.mu.RLock()
	out := make([]Summary, 0, len(s.atlases))
	for _, a := range s.atlases {
		out = append(out, Summarize(a))
	}
	s.mu.RUnlock()
	return newestFirst(out, limit), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.atlases, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func clone(a *atlas.Atlas) *atlas.Atlas {
	c := *a
	c.Sprites = append([]atlas.Sprite(nil), a.Sprites...)
	return &c
}

var _ Store = (*MemoryStore)(nil)
