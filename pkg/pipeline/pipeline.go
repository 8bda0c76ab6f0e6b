// Package pipeline provides the core packing pipeline for pngsquare.
//
// This package implements the complete load → pack → render pipeline used
// by the CLI and the HTTP API, so both share the same caching and
// verification behavior.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read the spec file and the pixel size of every listed image
//  2. Pack: place the sprites with [pack.Pack] and build an [atlas.Atlas]
//  3. Render: generate outputs (PNG sheet, C loader, JSON, PDF, XLSX)
//
// Layouts and artifacts are cached through [cache.Cache]. Pixels are only
// decoded when a pixel-dependent artifact (png, pdf) misses the cache.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    SpecPath: "textures.pngsquare",
//	    Formats:  []string{"png", "c"},
//	})
//	if err != nil {
//	    return err
//	}
//	paths, err := pipeline.WriteArtifacts(result, opts)
//
// Run individual stages:
//
//	a, hit, err := runner.PackWithCacheInfo(ctx, "sprites", items, 16, false)
//	artifacts, hit, err := runner.RenderWithCacheInfo(ctx, a, src, opts)
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pngsquare/pkg/atlas"
	"github.com/matzehuels/pngsquare/pkg/cache"
	"github.com/matzehuels/pngsquare/pkg/errors"
	"github.com/matzehuels/pngsquare/pkg/spec"
)

// Format constants for output formats. FormatC produces two artifacts,
// keyed [ArtifactC] and [ArtifactH].
const (
	FormatPNG  = "png"
	FormatC    = "c"
	FormatJSON = "json"
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

// Artifact keys that do not share a name with their format.
const (
	ArtifactC = "c"
	ArtifactH = "h"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatPNG:  true,
	FormatC:    true,
	FormatJSON: true,
	FormatPDF:  true,
	FormatXLSX: true,
}

// DefaultFormats reproduces the classic outputs: the sheet and its C loader.
var DefaultFormats = []string{FormatPNG, FormatC}

// pixelFormats need decoded images, not just sizes.
var pixelFormats = map[string]bool{
	FormatPNG: true,
	FormatPDF: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
type Options struct {
	// SpecPath is the .pngsquare or .toml spec file.
	SpecPath string `json:"spec_path"`

	// Formats lists the outputs to render. Defaults to DefaultFormats.
	Formats []string `json:"formats,omitempty"`

	// Output is the base path (without extension) for json, pdf and xlsx
	// artifacts. Defaults to the spec's png path without its extension.
	Output string `json:"output,omitempty"`

	// Jobs bounds parallel image loading. Zero means one per CPU.
	Jobs int `json:"jobs,omitempty"`

	// Refresh bypasses cache reads; results are still written back.
	Refresh bool `json:"refresh,omitempty"`

	// SkipVerify disables the overlap check after packing.
	SkipVerify bool `json:"skip_verify,omitempty"`

	// Labels draws sprite names in the PDF preview.
	Labels bool `json:"labels,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Spec is the loaded spec with paths resolved against its directory.
	Spec *spec.Spec

	// Atlas is the packed layout.
	Atlas *atlas.Atlas

	// LayoutHash is the content hash of the layout, stable across runs.
	LayoutHash string

	// Artifacts contains rendered outputs keyed by artifact name.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	SpriteCount int
	Efficiency  float64
	LoadTime    time.Duration
	PackTime    time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	PackHit   bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: %s)", format, strings.Join(FormatNames(), ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// FormatNames returns the supported formats, sorted.
func FormatNames() []string {
	names := make([]string, 0, len(ValidFormats))
	for f := range ValidFormats {
		names = append(names, f)
	}
	slices.Sort(names)
	return names
}

// ParseFormats splits a comma-separated format list, dropping blanks and
// duplicates.
func ParseFormats(s string) ([]string, error) {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || slices.Contains(out, f) {
			continue
		}
		out = append(out, f)
	}
	if err := ValidateFormats(out); err != nil {
		return nil, err
	}
	return out, nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.SpecPath == "" {
		return errors.New(errors.ErrCodeInvalidInput, "spec path is required")
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = slices.Clone(DefaultFormats)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// Wants reports whether format was requested.
func (o *Options) Wants(format string) bool {
	return slices.Contains(o.Formats, format)
}

// NeedsPixels reports whether any requested format needs decoded images.
func (o *Options) NeedsPixels() bool {
	for _, f := range o.Formats {
		if pixelFormats[f] {
			return true
		}
	}
	return false
}

// ArtifactKeyOpts returns cache key options for one artifact. Only the
// inputs an artifact actually reads go into its key.
func (o *Options) ArtifactKeyOpts(artifact string, src Sources) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: artifact}
	switch artifact {
	case FormatPNG:
		opts.ImagesHash = src.ImagesHash
	case FormatPDF:
		opts.ImagesHash = src.ImagesHash
		if o.Labels {
			opts.Format += "+labels"
		}
	case ArtifactC, ArtifactH:
		opts.PNGPath = src.PNGPath
		opts.Include = src.Include
	case FormatJSON:
		opts.PNGPath = src.PNGPath
	}
	return opts
}

// ArtifactNames returns the artifacts the requested formats produce, in
// format order.
func (o *Options) ArtifactNames() []string {
	var names []string
	for _, f := range o.Formats {
		if f == FormatC {
			names = append(names, ArtifactC, ArtifactH)
			continue
		}
		names = append(names, f)
	}
	return names
}

// String summarizes the options for logging.
func (o *Options) String() string {
	return fmt.Sprintf("spec=%s formats=%s", o.SpecPath, strings.Join(o.Formats, ","))
}
