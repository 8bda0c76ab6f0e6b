// Package spec reads sprite sheet descriptions.
//
// A spec names the images to pack, the directory they live in, the grid
// unit and where each output goes. Two encodings are supported: the
// line-oriented format read by [Parse], and a TOML document read by
// [DecodeTOML]. [LoadFile] picks one by file extension.
//
// The line format has seven directives in fixed order, followed by one image
// name per line:
//
//	name textures
//	png res/textures.png
//	c src/textures.c
//	h src/textures.h
//	hi textures.h
//	from res/textures
//	unit 16
//	tile_normal
//	tile_spikes
//	blob_0
//
// Image names double as C identifiers in generated loader code and as file
// names: image "blob_0" is read from "<from>/blob_0.png".
package spec

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/pngsquare/pkg/errors"
)

// Spec describes one sprite sheet.
type Spec struct {
	Name   string   `toml:"name" json:"name"`     // prefix for generated C identifiers
	PNG    string   `toml:"png" json:"png"`       // sprite sheet output path
	C      string   `toml:"c" json:"c"`           // generated C source path
	H      string   `toml:"h" json:"h"`           // generated C header path
	HI     string   `toml:"hi" json:"hi"`         // header path as written in #include
	From   string   `toml:"from" json:"from"`     // directory holding <image>.png inputs
	Unit   int      `toml:"unit" json:"unit"`     // grid quantum in pixels
	Images []string `toml:"images" json:"images"` // image names, in output order
}

// LoadFile reads a spec from path. Files ending in .toml are decoded as TOML,
// everything else as the line format.
func LoadFile(path string) (*Spec, error) {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return DecodeTOMLFile(path)
	}
	return ParseFile(path)
}

// Validate checks the fields every output needs. The C paths are optional
// here; the C sink checks them when it runs.
func (s *Spec) Validate() error {
	if err := errors.ValidateName(s.Name); err != nil {
		return err
	}
	if err := errors.ValidatePath(s.PNG); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidSpec, err, "png")
	}
	if err := errors.ValidatePath(s.From); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidSpec, err, "from")
	}
	for _, p := range []struct{ key, val string }{{"c", s.C}, {"h", s.H}, {"hi", s.HI}} {
		if p.val == "" {
			continue
		}
		if err := errors.ValidatePath(p.val); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidSpec, err, "%s", p.key)
		}
	}
	if s.Unit <= 0 {
		return errors.New(errors.ErrCodeInvalidUnit, "the unit directive must specify a positive integer")
	}
	if len(s.Images) == 0 {
		return errors.New(errors.ErrCodeInvalidSpec, "no images listed")
	}

	seen := make(map[string]struct{}, len(s.Images))
	for _, img := range s.Images {
		if err := errors.ValidateName(img); err != nil {
			return err
		}
		if _, dup := seen[img]; dup {
			return errors.New(errors.ErrCodeDuplicateName, "image '%s' listed twice", img)
		}
		seen[img] = struct{}{}
	}
	return nil
}

// HasC reports whether the spec carries everything the C loader output needs.
func (s *Spec) HasC() bool {
	return s.C != "" && s.H != "" && s.HI != ""
}

// ImagePath returns the input file for the named image.
func (s *Spec) ImagePath(name string) string {
	return filepath.Join(s.From, name+".png")
}

// ImagePaths returns the input file of every image, in spec order.
func (s *Spec) ImagePaths() []string {
	paths := make([]string, len(s.Images))
	for i, name := range s.Images {
		paths[i] = s.ImagePath(name)
	}
	return paths
}

// Resolve rewrites relative file paths to be relative to base, normally the
// directory holding the spec file. HI is left alone since it is an include
// path, not a file the tool touches.
func (s *Spec) Resolve(base string) {
	for _, p := range []*string{&s.PNG, &s.C, &s.H, &s.From} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// ParseFile parses the line-format spec at path.
func ParseFile(path string) (*Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open spec")
		}
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// DecodeTOMLFile decodes the TOML spec at path.
func DecodeTOMLFile(path string) (*Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open spec")
		}
		return nil, err
	}
	defer f.Close()
	return DecodeTOML(f)
}
