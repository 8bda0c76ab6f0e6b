package io

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"

	"github.com/matzehuels/pngsquare/pkg/atlas"
	"github.com/matzehuels/pngsquare/pkg/errors"
)

// Compose pastes images onto a transparent canvas of the atlas size.
// images[i] is drawn at a.Sprites[i]; each must match its sprite's size.
func Compose(a *atlas.Atlas, images []image.Image) (*image.RGBA, error) {
	if len(images) != len(a.Sprites) {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"atlas has %d sprites, got %d images", len(a.Sprites), len(images))
	}

	sheet := image.NewRGBA(image.Rect(0, 0, a.Width, a.Height))
	for i, s := range a.Sprites {
		src := images[i]
		if sz := SizeOf(src); sz.W != s.W || sz.H != s.H {
			return nil, errors.New(errors.ErrCodeInvalidImage,
				"%s: image is %dx%d, atlas expects %dx%d", s.Name, sz.W, sz.H, s.W, s.H)
		}
		rect := image.Rect(s.X, s.Y, s.X+s.W, s.Y+s.H)
		draw.Draw(sheet, rect, src, src.Bounds().Min, draw.Over)
	}
	return sheet, nil
}

// Thumbnail returns a copy of img scaled so its longer side is at most
// maxSide. Images that already fit are returned unchanged.
func Thumbnail(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return img
	}
	if w >= h {
		h = max(1, h*maxSide/w)
		w = maxSide
	} else {
		w = max(1, w*maxSide/h)
		h = maxSide
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// EncodePNG writes img to w as a PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// ExportPNG writes img to a PNG file at path.
func ExportPNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := EncodePNG(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
