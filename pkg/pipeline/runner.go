package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pngsquare/pkg/atlas"
	"github.com/matzehuels/pngsquare/pkg/cache"
	pngio "github.com/matzehuels/pngsquare/pkg/io"
	"github.com/matzehuels/pngsquare/pkg/observability"
	"github.com/matzehuels/pngsquare/pkg/pack"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the default expiries when positive.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → pack → render pipeline with caching.
// Artifacts are returned, not written; see [WriteArtifacts].
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	observability.Pipeline().OnLoadStart(ctx, opts.SpecPath)
	sp, src, items, err := Load(ctx, opts)
	result.Stats.LoadTime = time.Since(loadStart)
	observability.Pipeline().OnLoadComplete(ctx, opts.SpecPath, len(items), result.Stats.LoadTime, err)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Spec = sp
	result.Stats.SpriteCount = len(items)

	opts.Logger.Info("loaded spec",
		"name", sp.Name,
		"images", len(items),
		"unit", sp.Unit,
		"duration", result.Stats.LoadTime)

	// Stage 2: Pack
	packStart := time.Now()
	a, packHit, err := r.PackWithCacheInfo(ctx, sp.Name, items, sp.Unit, opts.Refresh)
	if err != nil {
		return nil, fmt.Errorf("pack: %w", err)
	}
	if !opts.SkipVerify {
		if err := Verify(a); err != nil {
			return nil, fmt.Errorf("verify: %w", err)
		}
	}
	result.Atlas = a
	result.Stats.PackTime = time.Since(packStart)
	result.Stats.Efficiency = a.Efficiency()
	result.CacheInfo.PackHit = packHit

	opts.Logger.Info("packed sprites",
		"width", a.Width,
		"height", a.Height,
		"efficiency", fmt.Sprintf("%.1f%%", a.Efficiency()*100),
		"cached", packHit,
		"duration", result.Stats.PackTime)

	// Stage 3: Render
	renderStart := time.Now()
	layoutHash, err := LayoutHash(a)
	if err != nil {
		return nil, fmt.Errorf("hash layout: %w", err)
	}
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	artifacts, renderHit, err := r.render(ctx, a, layoutHash, src, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit
	result.LayoutHash = layoutHash

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// PackWithCacheInfo packs items with caching and returns cache hit info.
// On a hit the items are left unplaced; the atlas carries the layout.
// refresh skips the cache read.
func (r *Runner) PackWithCacheInfo(ctx context.Context, name string, items []pack.Item, unit int, refresh bool) (*atlas.Atlas, bool, error) {
	inputHash, err := InputHash(name, items)
	if err != nil {
		return nil, false, fmt.Errorf("hash inputs: %w", err)
	}
	cacheKey := r.Keyer.LayoutKey(inputHash, cache.LayoutKeyOpts{Unit: unit})

	// Try cache first (unless refresh requested)
	if !refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if a, ok := decodeLayout(data, items); ok {
				observability.Cache().OnCacheHit(ctx, "layout")
				return a, true, nil
			}
			// Stale or corrupt entry, fall through to recompute
		} else if err != nil {
			r.Logger.Warn("layout cache read failed", "error", err)
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	a, err := Pack(ctx, name, items, unit)
	if err != nil {
		return nil, false, err
	}

	// Cache the result
	if data, err := json.Marshal(a); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, r.ttl(cache.TTLLayout)); err != nil {
			r.Logger.Warn("layout cache write failed", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}

	return a, false, nil
}

// RenderWithCacheInfo generates artifacts with caching and returns cache
// hit info. Images are decoded from src.Paths only when a pixel format
// misses the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, a *atlas.Atlas, src Sources, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	layoutHash, err := LayoutHash(a)
	if err != nil {
		return nil, false, fmt.Errorf("hash layout: %w", err)
	}
	return r.render(ctx, a, layoutHash, src, opts)
}

// render caches artifacts under layoutHash. opts must already be validated.
func (r *Runner) render(ctx context.Context, a *atlas.Atlas, layoutHash string, src Sources, opts Options) (map[string][]byte, bool, error) {
	var err error
	names := opts.ArtifactNames()

	// Try to get all artifacts from cache
	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(names))
		for _, name := range names {
			cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(name, src))
			data, hit, err := r.Cache.Get(ctx, cacheKey)
			if err != nil || !hit {
				break
			}
			artifacts[name] = data
		}
		if len(artifacts) == len(names) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)

	if opts.NeedsPixels() && src.Images == nil {
		src.Images, err = pngio.LoadImages(ctx, src.Paths, src.Jobs)
		if err != nil {
			observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
			return nil, false, fmt.Errorf("load images: %w", err)
		}
		opts.Logger.Debug("decoded images", "count", len(src.Images))
	}

	rendered, err := Render(a, src, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	// Cache each artifact
	for name, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(name, src))
		if err := r.Cache.Set(ctx, cacheKey, data, r.ttl(cache.TTLArtifact)); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}

	return rendered, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
