package sink

import (
	"bytes"
	"image"

	"github.com/matzehuels/pngsquare/pkg/atlas"
	pngio "github.com/matzehuels/pngsquare/pkg/io"
)

// RenderPNG composes images onto the sheet described by a and encodes it.
// images[i] belongs to a.Sprites[i].
func RenderPNG(a *atlas.Atlas, images []image.Image) ([]byte, error) {
	sheet, err := pngio.Compose(a, images)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pngio.EncodePNG(&buf, sheet); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
