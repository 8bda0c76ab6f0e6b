// Package storage persists packed atlases for the HTTP API.
//
// Backends:
//   - memory: in-process map for development and tests ([NewMemoryStore])
//   - file: one JSON document per atlas in a directory ([NewFileStore])
//   - mongo: a MongoDB collection for multi-instance deployments ([NewMongoStore])
//
// Usage:
//
//	store := storage.NewMemoryStore()
//	if err := store.Put(ctx, a); err != nil { // assigns a.ID
//	    return err
//	}
//	a, err := store.Get(ctx, id)
//	if errors.Is(err, storage.ErrNotFound) {
//	    // 404
//	}
package storage

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/pngsquare/pkg/atlas"
)

// ErrNotFound is returned when no atlas has the requested ID.
var ErrNotFound = errors.New("atlas not found")

// DefaultListLimit caps List when the caller passes a limit <= 0.
const DefaultListLimit = 50

// Store is the interface for atlas storage backends.
type Store interface {
	// Put stores a, assigning a.ID and a.CreatedAt when unset.
	// Putting an atlas with an existing ID replaces it.
	Put(ctx context.Context, a *atlas.Atlas) error

	// Get returns the atlas with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*atlas.Atlas, error)

	// List returns summaries of the most recent atlases, newest first.
	List(ctx context.Context, limit int) ([]Summary, error)

	// Delete removes an atlas. Deleting a missing ID is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases the backend's resources.
	Close() error
}

// Summary describes a stored atlas without its sprite list.
type Summary struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Width     int       `json:"width" bson:"width"`
	Height    int       `json:"height" bson:"height"`
	Sprites   int       `json:"sprites" bson:"-"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Summarize returns the summary of a.
func Summarize(a *atlas.Atlas) Summary {
	return Summary{
		ID:        a.ID,
		Name:      a.Name,
		Width:     a.Width,
		Height:    a.Height,
		Sprites:   len(a.Sprites),
		CreatedAt: a.CreatedAt,
	}
}

// prepare fills in the ID and creation time of a new atlas.
func prepare(a *atlas.Atlas, now time.Time) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now.UTC()
	}
}

// newestFirst sorts summaries by creation time, newest first, then by ID,
// and truncates to limit.
func newestFirst(s []Summary, limit int) []Summary {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	sort.Slice(s, func(i, j int) bool {
		if !s[i].CreatedAt.Equal(s[j].CreatedAt) {
			return s[i].CreatedAt.After(s[j].CreatedAt)
		}
		return s[i].ID < s[j].ID
	})
	if len(s) > limit {
		s = s[:limit]
	}
	return s
}
