package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/pngsquare/pkg/atlas"
	"github.com/matzehuels/pngsquare/pkg/cache"
	"github.com/matzehuels/pngsquare/pkg/errors"
	"github.com/matzehuels/pngsquare/pkg/observability"
	"github.com/matzehuels/pngsquare/pkg/pack"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"png", false},
		{"c", false},
		{"json", false},
		{"pdf", false},
		{"xlsx", false},
		{"svg", true},
		{"PNG", true}, // case-sensitive
		{"h", true},   // an artifact, not a format
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s, want INVALID_FORMAT", tt.format, errors.GetCode(err))
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"png", "c"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"png", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{"png,c", []string{"png", "c"}, false},
		{" PNG , json ,", []string{"png", "json"}, false},
		{"png,png,c", []string{"png", "c"}, false},
		{"", nil, false},
		{"png,svg", nil, true},
	}
	for _, tt := range tests {
		got, err := ParseFormats(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormats(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("ParseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{SpecPath: "x.pngsquare"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if !slices.Equal(opts.Formats, DefaultFormats) {
		t.Errorf("Formats = %v, want %v", opts.Formats, DefaultFormats)
	}
	if opts.Logger == nil {
		t.Error("Logger should be set")
	}

	// Defaults must not alias the package-level slice.
	opts.Formats[0] = "json"
	if DefaultFormats[0] != FormatPNG {
		t.Error("DefaultFormats was modified through Options")
	}
}

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("missing spec path: got %v, want INVALID_INPUT", err)
	}

	opts = Options{SpecPath: "x", Formats: []string{"gif"}}
	if err := opts.ValidateAndSetDefaults(); err == nil {
		t.Error("bad format should fail")
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{SpecPath: "x", Formats: []string{"json"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	first := opts.Formats
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(first, opts.Formats) {
		t.Errorf("second call changed formats: %v -> %v", first, opts.Formats)
	}
}

func TestArtifactNames(t *testing.T) {
	opts := Options{Formats: []string{"json", "c", "png"}}
	want := []string{"json", "c", "h", "png"}
	if got := opts.ArtifactNames(); !slices.Equal(got, want) {
		t.Errorf("ArtifactNames() = %v, want %v", got, want)
	}
}

func TestNeedsPixels(t *testing.T) {
	tests := []struct {
		formats []string
		want    bool
	}{
		{[]string{"c", "json", "xlsx"}, false},
		{[]string{"c", "png"}, true},
		{[]string{"pdf"}, true},
	}
	for _, tt := range tests {
		opts := Options{Formats: tt.formats}
		if got := opts.NeedsPixels(); got != tt.want {
			t.Errorf("NeedsPixels(%v) = %v, want %v", tt.formats, got, tt.want)
		}
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	src := Sources{ImagesHash: "abc", PNGPath: "out.png", Include: "out.h"}
	opts := Options{}

	if k := opts.ArtifactKeyOpts("xlsx", src); k.ImagesHash != "" || k.PNGPath != "" {
		t.Errorf("xlsx key should not depend on images or paths: %+v", k)
	}
	if k := opts.ArtifactKeyOpts("png", src); k.ImagesHash != "abc" {
		t.Errorf("png key should include the images hash: %+v", k)
	}
	if k := opts.ArtifactKeyOpts("h", src); k.Include != "out.h" || k.PNGPath != "out.png" {
		t.Errorf("h key should include the C paths: %+v", k)
	}

	plain := opts.ArtifactKeyOpts("pdf", src)
	opts.Labels = true
	if labeled := opts.ArtifactKeyOpts("pdf", src); labeled == plain {
		t.Error("pdf labels should change the key")
	}
}

// =============================================================================
// End-to-end
// =============================================================================

var (
	red  = color.RGBA{255, 0, 0, 255}
	blue = color.RGBA{0, 0, 255, 255}
)

const texturesSpec = `name textures
png out/textures.png
c out/textures.c
h out/textures.h
hi textures.h
from img
unit 16
tile
blob
`

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

// setupProject writes the textures spec and its images into a temp dir and
// returns the spec path.
func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "img", "tile.png"), 32, 32, red)
	writePNG(t, filepath.Join(dir, "img", "blob.png"), 16, 16, blue)
	path := filepath.Join(dir, "textures.pngsquare")
	if err := os.WriteFile(path, []byte(texturesSpec), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExecute(t *testing.T) {
	specPath := setupProject(t)
	runner := NewRunner(cache.NewMemoryCache(), nil, nil)

	opts := Options{SpecPath: specPath, Formats: []string{"png", "c", "json", "xlsx", "pdf"}}
	res, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	a := res.Atlas
	if a.Width != 48 || a.Height != 32 {
		t.Errorf("canvas = %dx%d, want 48x32", a.Width, a.Height)
	}
	want := []atlas.Sprite{
		{Name: "tile", X: 0, Y: 0, W: 32, H: 32},
		{Name: "blob", X: 32, Y: 0, W: 16, H: 16},
	}
	if !slices.Equal(a.Sprites, want) {
		t.Errorf("sprites = %+v, want %+v", a.Sprites, want)
	}
	if res.Stats.SpriteCount != 2 {
		t.Errorf("SpriteCount = %d, want 2", res.Stats.SpriteCount)
	}
	if res.CacheInfo.PackHit || res.CacheInfo.RenderHit {
		t.Errorf("first run should miss the cache: %+v", res.CacheInfo)
	}
	if want, err := LayoutHash(a); err != nil || res.LayoutHash != want {
		t.Errorf("LayoutHash = %q, want %q (err %v)", res.LayoutHash, want, err)
	}

	for _, name := range []string{"png", "c", "h", "json", "xlsx", "pdf"} {
		if len(res.Artifacts[name]) == 0 {
			t.Errorf("artifact %q missing", name)
		}
	}

	sheet, err := png.Decode(bytes.NewReader(res.Artifacts["png"]))
	if err != nil {
		t.Fatalf("decode sheet: %v", err)
	}
	if b := sheet.Bounds(); b.Dx() != 48 || b.Dy() != 32 {
		t.Errorf("sheet = %dx%d, want 48x32", b.Dx(), b.Dy())
	}
	if got := color.RGBAModel.Convert(sheet.At(8, 8)); got != red {
		t.Errorf("pixel in tile = %v, want red", got)
	}
	if got := color.RGBAModel.Convert(sheet.At(40, 8)); got != blue {
		t.Errorf("pixel in blob = %v, want blue", got)
	}
	if _, _, _, a := sheet.At(40, 24).RGBA(); a != 0 {
		t.Error("uncovered pixel should be transparent")
	}

	src := string(res.Artifacts["c"])
	for _, want := range []string{
		`#include "textures.h"`,
		`static const char *PNG_PATH = "out/textures.png";`,
	} {
		if !strings.Contains(src, want) {
			t.Errorf("C source missing %q", want)
		}
	}
	if !strings.Contains(string(res.Artifacts["h"]), "SDL_Rect *blob;") {
		t.Error("C header missing blob rect")
	}
}

func TestExecuteCaching(t *testing.T) {
	specPath := setupProject(t)
	runner := NewRunner(cache.NewMemoryCache(), nil, nil)
	ctx := context.Background()
	opts := Options{SpecPath: specPath, Formats: []string{"png", "c"}}

	first, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}

	second, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.PackHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run should hit the cache: %+v", second.CacheInfo)
	}
	if !bytes.Equal(first.Artifacts["png"], second.Artifacts["png"]) {
		t.Error("cached sheet differs")
	}
	if first.LayoutHash != second.LayoutHash {
		t.Error("layout hash changed between runs")
	}

	// Same sizes, new pixels: the layout stays cached, the sheet does not.
	writePNG(t, filepath.Join(filepath.Dir(specPath), "img", "blob.png"), 16, 16, red)
	third, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !third.CacheInfo.PackHit {
		t.Error("layout should still be cached")
	}
	if third.CacheInfo.RenderHit {
		t.Error("changed pixels should miss the artifact cache")
	}

	refreshed, err := runner.Execute(ctx, Options{SpecPath: specPath, Formats: []string{"png", "c"}, Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.CacheInfo.PackHit || refreshed.CacheInfo.RenderHit {
		t.Errorf("refresh should bypass the cache: %+v", refreshed.CacheInfo)
	}
}

func TestExecuteSkipsDecodeWithoutPixelFormats(t *testing.T) {
	specPath := setupProject(t)
	// A file with a valid header but truncated pixel data: sizes load,
	// full decode would fail.
	blob := filepath.Join(filepath.Dir(specPath), "img", "blob.png")
	data, err := os.ReadFile(blob)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(blob, data[:40], 0o644); err != nil {
		t.Fatal(err)
	}

	runner := NewRunner(nil, nil, nil)
	res, err := runner.Execute(context.Background(), Options{SpecPath: specPath, Formats: []string{"c", "json"}})
	if err != nil {
		t.Fatalf("Execute without pixel formats: %v", err)
	}
	if s, ok := res.Atlas.Sprite("blob"); !ok || s.W != 16 {
		t.Errorf("blob sprite = %+v, %v", s, ok)
	}

	_, err = runner.Execute(context.Background(), Options{SpecPath: specPath, Formats: []string{"png"}})
	if !errors.Is(err, errors.ErrCodeInvalidImage) {
		t.Errorf("png with truncated input: got %v, want INVALID_IMAGE", err)
	}
}

func TestExecuteErrors(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	ctx := context.Background()

	_, err := runner.Execute(ctx, Options{SpecPath: filepath.Join(t.TempDir(), "missing.pngsquare")})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing spec: got %v, want FILE_NOT_FOUND", err)
	}

	specPath := setupProject(t)
	if err := os.Remove(filepath.Join(filepath.Dir(specPath), "img", "blob.png")); err != nil {
		t.Fatal(err)
	}
	_, err = runner.Execute(ctx, Options{SpecPath: specPath})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing image: got %v, want FILE_NOT_FOUND", err)
	}

	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "img", "a.png"), 4, 4, red)
	tomlPath := filepath.Join(dir, "noc.toml")
	toml := "name = \"noc\"\npng = \"out.png\"\nfrom = \"img\"\nunit = 4\nimages = [\"a\"]\n"
	if err := os.WriteFile(tomlPath, []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = runner.Execute(ctx, Options{SpecPath: tomlPath, Formats: []string{"c"}})
	if !errors.Is(err, errors.ErrCodeInvalidSpec) {
		t.Errorf("c format without C paths: got %v, want INVALID_SPEC", err)
	}
	if _, err := runner.Execute(ctx, Options{SpecPath: tomlPath, Formats: []string{"json"}}); err != nil {
		t.Errorf("json format without C paths: %v", err)
	}
}

func TestWriteArtifacts(t *testing.T) {
	specPath := setupProject(t)
	dir := filepath.Dir(specPath)
	runner := NewRunner(nil, nil, nil)
	opts := Options{SpecPath: specPath, Formats: []string{"png", "c", "json"}}

	res, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	written, err := WriteArtifacts(res, opts)
	if err != nil {
		t.Fatalf("WriteArtifacts: %v", err)
	}

	want := []string{
		filepath.Join(dir, "out", "textures.png"),
		filepath.Join(dir, "out", "textures.c"),
		filepath.Join(dir, "out", "textures.h"),
		filepath.Join(dir, "out", "textures.json"),
	}
	if !slices.Equal(written, want) {
		t.Errorf("written = %v, want %v", written, want)
	}
	for _, p := range want {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("stat %s: %v", p, err)
		}
	}

	opts.Output = filepath.Join(dir, "manifests", "atlas")
	written, err = WriteArtifacts(res, opts)
	if err != nil {
		t.Fatal(err)
	}
	if got := written[len(written)-1]; got != filepath.Join(dir, "manifests", "atlas.json") {
		t.Errorf("json path with --output = %s", got)
	}
}

// =============================================================================
// Stages
// =============================================================================

func TestPackWithCacheInfo(t *testing.T) {
	runner := NewRunner(cache.NewMemoryCache(), nil, nil)
	ctx := context.Background()
	items := func() []pack.Item {
		return []pack.Item{{Name: "a", W: 32, H: 32}, {Name: "b", W: 16, H: 16}}
	}

	a, hit, err := runner.PackWithCacheInfo(ctx, "x", items(), 16, false)
	if err != nil || hit {
		t.Fatalf("first pack: hit=%v err=%v", hit, err)
	}
	b, hit, err := runner.PackWithCacheInfo(ctx, "x", items(), 16, false)
	if err != nil || !hit {
		t.Fatalf("second pack: hit=%v err=%v", hit, err)
	}
	if !slices.Equal(a.Sprites, b.Sprites) {
		t.Errorf("cached sprites differ: %+v vs %+v", a.Sprites, b.Sprites)
	}

	// A different unit is a different layout.
	if _, hit, _ := runner.PackWithCacheInfo(ctx, "x", items(), 8, false); hit {
		t.Error("unit change should miss the cache")
	}

	bad := []pack.Item{{Name: "a", W: 0, H: 1}}
	if _, _, err := runner.PackWithCacheInfo(ctx, "x", bad, 16, false); !errors.Is(err, errors.ErrCodeInvalidDimension) {
		t.Errorf("bad item: got %v, want INVALID_DIMENSION", err)
	}
}

func TestPackWithCacheInfoIgnoresStaleEntry(t *testing.T) {
	c := cache.NewMemoryCache()
	runner := NewRunner(c, nil, nil)
	ctx := context.Background()
	items := []pack.Item{{Name: "a", W: 8, H: 8}}

	hash, err := InputHash("x", items)
	if err != nil {
		t.Fatal(err)
	}
	key := runner.Keyer.LayoutKey(hash, cache.LayoutKeyOpts{Unit: 8})
	if err := c.Set(ctx, key, []byte("not json"), time.Hour); err != nil {
		t.Fatal(err)
	}

	a, hit, err := runner.PackWithCacheInfo(ctx, "x", items, 8, false)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("corrupt entry should not count as a hit")
	}
	if a.Width != 8 || a.Height != 8 {
		t.Errorf("canvas = %dx%d, want 8x8", a.Width, a.Height)
	}
}

type ttlCache struct {
	cache.Cache
	ttls []time.Duration
}

func (c *ttlCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.ttls = append(c.ttls, ttl)
	return c.Cache.Set(ctx, key, data, ttl)
}

func TestRunnerTTL(t *testing.T) {
	ctx := context.Background()
	items := []pack.Item{{Name: "a", W: 8, H: 8}}

	c := &ttlCache{Cache: cache.NewMemoryCache()}
	if _, _, err := NewRunner(c, nil, nil).PackWithCacheInfo(ctx, "x", items, 8, false); err != nil {
		t.Fatal(err)
	}
	if len(c.ttls) != 1 || c.ttls[0] != cache.TTLLayout {
		t.Errorf("default ttls = %v, want [%v]", c.ttls, cache.TTLLayout)
	}

	c = &ttlCache{Cache: cache.NewMemoryCache()}
	runner := NewRunner(c, nil, nil)
	runner.TTL = time.Minute
	if _, _, err := runner.PackWithCacheInfo(ctx, "x", items, 8, false); err != nil {
		t.Fatal(err)
	}
	if len(c.ttls) != 1 || c.ttls[0] != time.Minute {
		t.Errorf("override ttls = %v, want [1m0s]", c.ttls)
	}
}

func TestVerify(t *testing.T) {
	good := &atlas.Atlas{Unit: 16, Width: 48, Height: 32, Sprites: []atlas.Sprite{
		{Name: "a", X: 0, Y: 0, W: 32, H: 32},
		{Name: "b", X: 32, Y: 0, W: 16, H: 16},
	}}
	if err := Verify(good); err != nil {
		t.Errorf("Verify(good) = %v", err)
	}

	overlap := &atlas.Atlas{Unit: 16, Width: 48, Height: 32, Sprites: []atlas.Sprite{
		{Name: "a", X: 0, Y: 0, W: 32, H: 32},
		{Name: "b", X: 16, Y: 0, W: 16, H: 16},
	}}
	if err := Verify(overlap); !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("Verify(overlap) = %v, want INTERNAL_ERROR", err)
	}

	outside := &atlas.Atlas{Unit: 16, Width: 32, Height: 32, Sprites: []atlas.Sprite{
		{Name: "a", X: 32, Y: 0, W: 16, H: 16},
	}}
	if err := Verify(outside); !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("Verify(outside) = %v, want INTERNAL_ERROR", err)
	}
}

func TestLayoutHashIgnoresStorageFields(t *testing.T) {
	a := &atlas.Atlas{Name: "x", Unit: 1, Width: 1, Height: 1, Sprites: []atlas.Sprite{{Name: "a", W: 1, H: 1}}}
	h1, err := LayoutHash(a)
	if err != nil {
		t.Fatal(err)
	}
	a.ID = "0b3f0c8e-0000-4000-8000-000000000000"
	a.CreatedAt = time.Now()
	h2, err := LayoutHash(a)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Error("ID and CreatedAt should not affect the layout hash")
	}
}

type countingHooks struct {
	observability.NoopPipelineHooks
	packs, renders int
}

func (h *countingHooks) OnPackComplete(context.Context, string, int, int, time.Duration, error) {
	h.packs++
}

func (h *countingHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {
	h.renders++
}

func TestExecuteEmitsHooks(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	specPath := setupProject(t)
	runner := NewRunner(cache.NewMemoryCache(), nil, nil)
	opts := Options{SpecPath: specPath, Formats: []string{"json"}}
	for i := 0; i < 2; i++ {
		if _, err := runner.Execute(context.Background(), opts); err != nil {
			t.Fatal(err)
		}
	}
	if hooks.packs != 1 || hooks.renders != 1 {
		t.Errorf("packs=%d renders=%d, want 1 and 1 (second run cached)", hooks.packs, hooks.renders)
	}
}
