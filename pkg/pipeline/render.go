package pipeline

import (
	"bytes"
	"fmt"
	"image"

	"github.com/matzehuels/pngsquare/pkg/atlas"
	pngio "github.com/matzehuels/pngsquare/pkg/io"
	"github.com/matzehuels/pngsquare/pkg/render/sink"
)

// Sources holds what the renderers need beyond the layout itself.
type Sources struct {
	// Paths are the input PNGs, aligned with the atlas sprites.
	Paths []string

	// Images are the decoded inputs. Loaded from Paths on demand.
	Images []image.Image

	// ImagesHash is a digest of the input files, for cache keys.
	ImagesHash string

	// PNGPath is the sheet path as written into the C loader and manifest.
	PNGPath string

	// Include is the header path used by the generated C source.
	Include string

	// Jobs bounds parallel image loading.
	Jobs int
}

// Render generates output artifacts in the requested formats. src.Images
// must be loaded when a pixel format is requested.
func Render(a *atlas.Atlas, src Sources, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte)

	// png and pdf share one composed sheet.
	var sheet image.Image
	composed := func() (image.Image, error) {
		if sheet != nil {
			return sheet, nil
		}
		s, err := pngio.Compose(a, src.Images)
		if err != nil {
			return nil, err
		}
		sheet = s
		return sheet, nil
	}

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatPNG:
			var img image.Image
			if img, err = composed(); err == nil {
				data, err = encodeSheet(img)
			}
		case FormatC:
			var c sink.CArtifacts
			c, err = sink.RenderC(a, sink.CConfig{Include: src.Include, PNGPath: src.PNGPath})
			if err == nil {
				artifacts[ArtifactC] = c.Source
				artifacts[ArtifactH] = c.Header
				continue
			}
		case FormatJSON:
			data, err = sink.RenderJSON(a, sink.WithJSONImage(src.PNGPath))
		case FormatPDF:
			var img image.Image
			if img, err = composed(); err == nil {
				data, err = sink.RenderPDF(a, sink.WithPDFSheet(img), sink.WithPDFLabels(opts.Labels))
			}
		case FormatXLSX:
			data, err = sink.RenderXLSX(a)
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

func encodeSheet(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := pngio.EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
