package io

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/pngsquare/pkg/atlas"
	"github.com/matzehuels/pngsquare/pkg/errors"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestLoadImages(t *testing.T) {
	dir := t.TempDir()
	sizes := []Size{{32, 32}, {16, 8}, {5, 40}, {1, 1}}
	paths := make([]string, len(sizes))
	for i, sz := range sizes {
		paths[i] = filepath.Join(dir, string(rune('a'+i))+".png")
		writePNG(t, paths[i], solid(sz.W, sz.H, color.White))
	}

	imgs, err := LoadImages(context.Background(), paths, 2)
	if err != nil {
		t.Fatalf("LoadImages: %v", err)
	}
	for i, img := range imgs {
		if got := SizeOf(img); got != sizes[i] {
			t.Errorf("image %d size = %v, want %v", i, got, sizes[i])
		}
	}

	got, err := LoadSizes(context.Background(), paths, 0)
	if err != nil {
		t.Fatalf("LoadSizes: %v", err)
	}
	for i := range sizes {
		if got[i] != sizes[i] {
			t.Errorf("LoadSizes()[%d] = %v, want %v", i, got[i], sizes[i])
		}
	}
}

func TestLoadImagesErrors(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.png")
	writePNG(t, good, solid(2, 2, color.Black))
	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		paths []string
		code  errors.Code
	}{
		{"missing", []string{good, filepath.Join(dir, "nope.png")}, errors.ErrCodeFileNotFound},
		{"corrupt", []string{bad, good}, errors.ErrCodeInvalidImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadImages(context.Background(), tt.paths, 1)
			if !errors.Is(err, tt.code) {
				t.Errorf("LoadImages() error = %v, want %v", err, tt.code)
			}
		})
	}
}

func TestLoadImagesCanceled(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.png")
	writePNG(t, p, solid(1, 1, color.Black))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := LoadImages(ctx, []string{p, p, p}, 1); err == nil {
		t.Error("LoadImages() on canceled context should fail")
	}
}

func TestCompose(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	blue := color.RGBA{0, 0, 255, 255}
	a := &atlas.Atlas{
		Width:  48,
		Height: 32,
		Sprites: []atlas.Sprite{
			{Name: "tile", X: 0, Y: 0, W: 32, H: 32},
			{Name: "blob", X: 32, Y: 0, W: 16, H: 16},
		},
	}

	sheet, err := Compose(a, []image.Image{solid(32, 32, red), solid(16, 16, blue)})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if b := sheet.Bounds(); b.Dx() != 48 || b.Dy() != 32 {
		t.Fatalf("sheet size = %v, want 48x32", b)
	}

	checks := []struct {
		x, y int
		want color.RGBA
	}{
		{0, 0, red},
		{31, 31, red},
		{32, 0, blue},
		{47, 15, blue},
		{40, 20, color.RGBA{}},
	}
	for _, c := range checks {
		if got := sheet.RGBAAt(c.x, c.y); got != c.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestComposeMismatch(t *testing.T) {
	a := &atlas.Atlas{Width: 8, Height: 8, Sprites: []atlas.Sprite{{Name: "a", W: 8, H: 8}}}

	if _, err := Compose(a, nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("count mismatch error = %v", err)
	}
	if _, err := Compose(a, []image.Image{solid(4, 8, color.Black)}); !errors.Is(err, errors.ErrCodeInvalidImage) {
		t.Errorf("size mismatch error = %v", err)
	}
}

func TestThumbnail(t *testing.T) {
	img := solid(200, 100, color.White)

	got := SizeOf(Thumbnail(img, 50))
	if got != (Size{50, 25}) {
		t.Errorf("Thumbnail() size = %v, want 50x25", got)
	}
	if Thumbnail(img, 500) != image.Image(img) {
		t.Error("Thumbnail() of a fitting image should return it unchanged")
	}
}

func TestEncodePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, solid(3, 4, color.White)); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	img, err := DecodePNG(&buf)
	if err != nil {
		t.Fatalf("DecodePNG: %v", err)
	}
	if SizeOf(img) != (Size{3, 4}) {
		t.Errorf("decoded size = %v", SizeOf(img))
	}

	path := filepath.Join(t.TempDir(), "out.png")
	if err := ExportPNG(solid(2, 2, color.White), path); err != nil {
		t.Fatalf("ExportPNG: %v", err)
	}
	if sz, err := LoadSize(path); err != nil || sz != (Size{2, 2}) {
		t.Errorf("LoadSize() = %v, %v", sz, err)
	}
}

func TestDigest(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writePNG(t, a, solid(2, 2, color.White))
	writePNG(t, b, solid(3, 1, color.Black))
	ctx := context.Background()

	d1, err := Digest(ctx, []string{a, b}, 2)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	d2, err := Digest(ctx, []string{a, b}, 1)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if d1 != d2 {
		t.Errorf("digest depends on jobs: %s vs %s", d1, d2)
	}
	if len(d1) != 64 {
		t.Errorf("digest length = %d, want 64", len(d1))
	}

	swapped, err := Digest(ctx, []string{b, a}, 2)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if swapped == d1 {
		t.Error("reordering inputs should change the digest")
	}

	writePNG(t, b, solid(3, 1, color.White))
	changed, err := Digest(ctx, []string{a, b}, 2)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if changed == d1 {
		t.Error("changing a file should change the digest")
	}

	_, err = Digest(ctx, []string{filepath.Join(dir, "missing.png")}, 1)
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: got %v, want FILE_NOT_FOUND", err)
	}
}
