package pipeline

import (
	"context"
	"path/filepath"

	"github.com/matzehuels/pngsquare/pkg/errors"
	pngio "github.com/matzehuels/pngsquare/pkg/io"
	"github.com/matzehuels/pngsquare/pkg/pack"
	"github.com/matzehuels/pngsquare/pkg/spec"
)

// Load reads the spec at opts.SpecPath and the size of every image it
// lists. Relative paths in the spec are resolved against the spec's
// directory. The returned items are in spec order and unplaced.
func Load(ctx context.Context, opts Options) (*spec.Spec, Sources, []pack.Item, error) {
	sp, err := spec.LoadFile(opts.SpecPath)
	if err != nil {
		return nil, Sources{}, nil, err
	}
	if opts.Wants(FormatC) && !sp.HasC() {
		return nil, Sources{}, nil, errors.New(errors.ErrCodeInvalidSpec,
			"the c format needs the c, h and hi directives")
	}

	// The C loader and the JSON manifest reference the sheet by the path
	// written in the spec, not the resolved one.
	src := Sources{PNGPath: sp.PNG, Include: sp.HI, Jobs: opts.Jobs}
	sp.Resolve(filepath.Dir(opts.SpecPath))
	src.Paths = sp.ImagePaths()

	sizes, err := pngio.LoadSizes(ctx, src.Paths, opts.Jobs)
	if err != nil {
		return nil, Sources{}, nil, err
	}
	items := make([]pack.Item, len(sizes))
	for i, sz := range sizes {
		items[i] = pack.Item{Name: sp.Images[i], W: sz.W, H: sz.H}
	}

	if opts.NeedsPixels() {
		src.ImagesHash, err = pngio.Digest(ctx, src.Paths, opts.Jobs)
		if err != nil {
			return nil, Sources{}, nil, err
		}
	}
	return sp, src, items, nil
}
