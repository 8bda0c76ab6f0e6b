package io

import (
	"context"
	"image"
	"image/png"
	"io"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/pngsquare/pkg/errors"
)

// Size is the pixel size of an image.
type Size struct {
	W, H int
}

// DecodePNG decodes a PNG image from r.
func DecodePNG(r io.Reader) (image.Image, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "decode png")
	}
	return img, nil
}

// LoadImage decodes the PNG file at path.
func LoadImage(path string) (image.Image, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "decode %s", path)
	}
	return img, nil
}

// LoadSize reads only the header of the PNG file at path.
func LoadSize(path string) (Size, error) {
	f, err := open(path)
	if err != nil {
		return Size{}, err
	}
	defer f.Close()

	cfg, err := png.DecodeConfig(f)
	if err != nil {
		return Size{}, errors.Wrap(errors.ErrCodeInvalidImage, err, "decode %s", path)
	}
	return Size{W: cfg.Width, H: cfg.Height}, nil
}

// LoadImages decodes every file in paths using at most jobs goroutines
// (runtime.NumCPU() when jobs <= 0). Result i belongs to paths[i].
func LoadImages(ctx context.Context, paths []string, jobs int) ([]image.Image, error) {
	out := make([]image.Image, len(paths))
	err := forEach(ctx, len(paths), jobs, func(i int) error {
		img, err := LoadImage(paths[i])
		if err != nil {
			return err
		}
		out[i] = img
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadSizes reads the dimensions of every file in paths, like [LoadImages].
func LoadSizes(ctx context.Context, paths []string, jobs int) ([]Size, error) {
	out := make([]Size, len(paths))
	err := forEach(ctx, len(paths), jobs, func(i int) error {
		sz, err := LoadSize(paths[i])
		if err != nil {
			return err
		}
		out[i] = sz
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SizeOf returns the pixel size of img.
func SizeOf(img image.Image) Size {
	b := img.Bounds()
	return Size{W: b.Dx(), H: b.Dy()}
}

func forEach(ctx context.Context, n, jobs int, fn func(i int) error) error {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// The loop may have stopped early on cancellation with nothing failing.
	return ctx.Err()
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "image %s", path)
		}
		return nil, err
	}
	return f, nil
}
