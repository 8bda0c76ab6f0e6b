// Package atlas defines the serializable result of a packing run.
//
// An [Atlas] records where every sprite landed on the sheet, in pixels. It is
// the one format shared by the output sinks, the layout cache, the HTTP API
// and atlas storage, so a layout computed once can be re-rendered or served
// without packing again.
package atlas

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/matzehuels/pngsquare/pkg/errors"
	"github.com/matzehuels/pngsquare/pkg/pack"
)

// =============================================================================
// Atlas - Packed Layout
// =============================================================================

// Atlas is a packed sprite sheet layout. Sprites keep the order they were
// listed in, not the order they were placed in.
type Atlas struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string    `json:"name" bson:"name"`
	Unit      int       `json:"unit" bson:"unit"`
	Width     int       `json:"width" bson:"width"`
	Height    int       `json:"height" bson:"height"`
	Sprites   []Sprite  `json:"sprites" bson:"sprites"`
	CreatedAt time.Time `json:"created_at,omitzero" bson:"created_at,omitempty"`
}

// Sprite is one placed image. X and Y are pixel offsets of its top-left
// corner; W and H are its pixel size.
type Sprite struct {
	Name string `json:"name" bson:"name"`
	X    int    `json:"x" bson:"x"`
	Y    int    `json:"y" bson:"y"`
	W    int    `json:"w" bson:"w"`
	H    int    `json:"h" bson:"h"`
}

// FromItems builds an atlas from packed items. Every item must be placed.
func FromItems(name string, items []pack.Item, res pack.Result) (*Atlas, error) {
	a := &Atlas{
		Name:    name,
		Unit:    res.Unit,
		Width:   res.Width,
		Height:  res.Height,
		Sprites: make([]Sprite, len(items)),
	}
	for i, it := range items {
		if it.At == nil {
			return nil, errors.New(errors.ErrCodeInternal, "sprite %q was not placed", it.Name)
		}
		a.Sprites[i] = Sprite{
			Name: it.Name,
			X:    it.At.X * res.Unit,
			Y:    it.At.Y * res.Unit,
			W:    it.W,
			H:    it.H,
		}
	}
	return a, nil
}

// Items converts the atlas back into placed pack items, for re-verification.
func (a *Atlas) Items() []pack.Item {
	items := make([]pack.Item, len(a.Sprites))
	for i, s := range a.Sprites {
		items[i] = pack.Item{Name: s.Name, W: s.W, H: s.H}
		if a.Unit > 0 {
			items[i].At = &pack.Posn{X: s.X / a.Unit, Y: s.Y / a.Unit}
		}
	}
	return items
}

// Sprite returns the sprite with the given name.
func (a *Atlas) Sprite(name string) (Sprite, bool) {
	for _, s := range a.Sprites {
		if s.Name == name {
			return s, true
		}
	}
	return Sprite{}, false
}

// Area returns the canvas area in pixels.
func (a *Atlas) Area() int { return a.Width * a.Height }

// Efficiency returns the fraction of the canvas covered by sprites, in [0, 1].
// An empty canvas has efficiency 0.
func (a *Atlas) Efficiency() float64 {
	if a.Area() == 0 {
		return 0
	}
	used := 0
	for _, s := range a.Sprites {
		used += s.W * s.H
	}
	return float64(used) / float64(a.Area())
}

// =============================================================================
// JSON
// =============================================================================

// WriteJSON encodes the atlas as indented JSON.
func (a *Atlas) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes an atlas written by [Atlas.WriteJSON].
func ReadJSON(r io.Reader) (*Atlas, error) {
	var a Atlas
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode atlas")
	}
	return &a, nil
}

// ImportJSON reads an atlas from a JSON file.
func ImportJSON(path string) (*Atlas, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
