package spec

import (
	"io"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pngsquare/pkg/errors"
)

// DecodeTOML reads a TOML spec:
//
//	name = "textures"
//	png = "res/textures.png"
//	c = "src/textures.c"
//	h = "src/textures.h"
//	hi = "textures.h"
//	from = "res/textures"
//	unit = 16
//	images = ["tile_normal", "tile_spikes", "blob_0"]
//
// Unknown keys are rejected. The result is validated before it is returned.
func DecodeTOML(r io.Reader) (*Spec, error) {
	var s Spec
	md, err := toml.NewDecoder(r).Decode(&s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSpec, err, "decode toml")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, errors.New(errors.ErrCodeInvalidSpec, "unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// EncodeTOML writes s in the TOML form accepted by [DecodeTOML].
func (s *Spec) EncodeTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(s)
}
