package sink

import (
	"encoding/json"

	"github.com/matzehuels/pngsquare/pkg/atlas"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	image   string
	compact bool
}

// WithJSONImage records the sprite sheet path in the manifest so consumers
// can find the texture the rectangles refer to.
func WithJSONImage(path string) JSONOption { return func(r *jsonRenderer) { r.image = path } }

// WithJSONCompact disables indentation.
func WithJSONCompact() JSONOption { return func(r *jsonRenderer) { r.compact = true } }

type jsonOutput struct {
	Name       string       `json:"name"`
	Image      string       `json:"image,omitempty"`
	Unit       int          `json:"unit"`
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	Efficiency float64      `json:"efficiency"`
	Sprites    []jsonSprite `json:"sprites"`
}

type jsonSprite struct {
	Name string `json:"name"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	W    int    `json:"w"`
	H    int    `json:"h"`
}

// RenderJSON renders the atlas manifest. Sprites appear in spec order.
func RenderJSON(a *atlas.Atlas, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		Name:       a.Name,
		Image:      r.image,
		Unit:       a.Unit,
		Width:      a.Width,
		Height:     a.Height,
		Efficiency: a.Efficiency(),
		Sprites:    make([]jsonSprite, len(a.Sprites)),
	}
	for i, s := range a.Sprites {
		out.Sprites[i] = jsonSprite(s)
	}

	if r.compact {
		return json.Marshal(out)
	}
	return json.MarshalIndent(out, "", "  ")
}
