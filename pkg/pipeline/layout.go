package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/pngsquare/pkg/atlas"
	"github.com/matzehuels/pngsquare/pkg/cache"
	"github.com/matzehuels/pngsquare/pkg/errors"
	"github.com/matzehuels/pngsquare/pkg/observability"
	"github.com/matzehuels/pngsquare/pkg/pack"
)

// Pack places items and builds the atlas. items is modified: every At is
// set on success.
func Pack(ctx context.Context, name string, items []pack.Item, unit int) (*atlas.Atlas, error) {
	start := time.Now()
	observability.Pipeline().OnPackStart(ctx, name, len(items), unit)

	res, err := pack.Pack(items, unit)
	if err != nil {
		observability.Pipeline().OnPackComplete(ctx, name, 0, 0, time.Since(start), err)
		return nil, err
	}
	a, err := atlas.FromItems(name, items, res)
	observability.Pipeline().OnPackComplete(ctx, name, res.Width, res.Height, time.Since(start), err)
	return a, err
}

// Verify re-checks a layout: every sprite placed inside the canvas and no
// two footprints overlapping.
func Verify(a *atlas.Atlas) error {
	if err := pack.Verify(a.Items(), a.Unit); err != nil {
		return err
	}
	for _, s := range a.Sprites {
		if s.X+s.W > a.Width || s.Y+s.H > a.Height {
			return errors.New(errors.ErrCodeInternal,
				"sprite %q extends past the %dx%d canvas", s.Name, a.Width, a.Height)
		}
	}
	return nil
}

// LayoutHash returns a content hash of the layout. Storage metadata (ID,
// creation time) is not part of it.
func LayoutHash(a *atlas.Atlas) (string, error) {
	c := *a
	c.ID = ""
	c.CreatedAt = time.Time{}
	return cache.HashJSON(&c)
}

// layoutInput is everything that determines a layout.
type layoutInput struct {
	Name    string        `json:"name"`
	Sprites []spriteInput `json:"sprites"`
}

type spriteInput struct {
	Name string `json:"name"`
	W    int    `json:"w"`
	H    int    `json:"h"`
}

// InputHash hashes the packing inputs, in order.
func InputHash(name string, items []pack.Item) (string, error) {
	in := layoutInput{Name: name, Sprites: make([]spriteInput, len(items))}
	for i, it := range items {
		in.Sprites[i] = spriteInput{Name: it.Name, W: it.W, H: it.H}
	}
	return cache.HashJSON(in)
}

// decodeLayout reads a cached atlas and checks it still describes items.
func decodeLayout(data []byte, items []pack.Item) (*atlas.Atlas, bool) {
	var a atlas.Atlas
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, false
	}
	if len(a.Sprites) != len(items) {
		return nil, false
	}
	for i, s := range a.Sprites {
		if s.Name != items[i].Name || s.W != items[i].W || s.H != items[i].H {
			return nil, false
		}
	}
	return &a, true
}
