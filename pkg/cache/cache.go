// Package cache stores packed layouts and rendered artifacts.
//
// # Overview
//
// Packing is cheap for a handful of sprites but a sheet of a few thousand
// images is worth remembering, and so are the artifacts rendered from it.
// The pipeline keys both by content: a layout by the hash of the sprite list
// and unit, an artifact by the hash of the layout plus everything baked into
// the output. A changed image size or unit therefore never hits a stale entry.
//
// # Backends
//
//   - [FileCache]: entries as files under a directory, for the CLI
//   - [MemoryCache]: an in-process map, for tests and a single API instance
//   - [RedisCache]: shared cache for multi-instance API deployments
//   - [NullCache]: never stores anything (--no-cache)
//
// # Keys
//
// Keys come from a [Keyer]. [DefaultKeyer] produces "layout:<sha256>" and
// "artifact:<sha256>" keys; [ScopedKeyer] prefixes them so the API and the
// CLI can share one Redis without colliding.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Default expiries.
const (
	TTLLayout   = 30 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
	TTLAPI      = 24 * time.Hour
)

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey keys a packed layout by the hash of its inputs.
	LayoutKey(inputHash string, opts LayoutKeyOpts) string

	// ArtifactKey keys a rendered output by the hash of its layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts holds the packing parameters that change a layout.
type LayoutKeyOpts struct {
	Unit int `json:"unit"`
}

// ArtifactKeyOpts holds everything besides the layout that changes an
// artifact's bytes.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	// ImagesHash covers the sprite pixels for formats that embed them.
	ImagesHash string `json:"images_hash,omitempty"`
	// Paths baked into JSON and C output.
	PNGPath string `json:"png_path,omitempty"`
	Include string `json:"include,omitempty"`
}

// DefaultKeyer is the unscoped [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a [DefaultKeyer].
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey implements [Keyer].
func (DefaultKeyer) LayoutKey(inputHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", inputHash, opts)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
