package pack

import (
	"sort"

	"github.com/matzehuels/pngsquare/pkg/errors"
)

// Posn is a cell coordinate in unit space.
type Posn struct {
	X, Y int
}

// Item is a named rectangle to be packed. W and H are in pixels. At is nil
// until [Pack] places the item.
type Item struct {
	Name string
	W, H int
	At   *Posn
}

// Result is the packed canvas size in pixels.
type Result struct {
	Unit   int
	Width  int
	Height int
}

// Area returns the canvas area in pixels.
func (r Result) Area() int { return r.Width * r.Height }

// Footprint returns the number of grid cells a w×h pixel rectangle spans
// horizontally and vertically.
func Footprint(w, h, unit int) (wu, hu int) {
	return (w + unit - 1) / unit, (h + unit - 1) / unit
}

// Pack assigns every item a grid position such that no two footprints
// overlap, writing the positions into items[i].At. Items are never moved
// once placed. The returned Result holds the bounding canvas in pixels.
//
// On a validation error no item is modified. An empty slice packs to a
// 0×0 canvas.
func Pack(items []Item, unit int) (Result, error) {
	if err := validate(items, unit); err != nil {
		return Result{}, err
	}
	for i := range items {
		items[i].At = nil
	}
	res := Result{Unit: unit}
	if len(items) == 0 {
		return res, nil
	}

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := &items[order[a]], &items[order[b]]
		return max(ia.W, ia.H) > max(ib.W, ib.H)
	})

	g := newGrid()
	f := newFrontier()
	f.push(Posn{0, 0})

	for _, idx := range order {
		it := &items[idx]
		wu, hu := Footprint(it.W, it.H, unit)
		at, err := place(g, f, it.Name, wu, hu)
		if err != nil {
			return Result{}, err
		}
		it.At = &at
	}

	for i := range items {
		it := &items[i]
		res.Width = max(res.Width, it.At.X*unit+it.W)
		res.Height = max(res.Height, it.At.Y*unit+it.H)
	}
	return res, nil
}

// place pops candidates until one fits a wu×hu footprint, commits it and
// returns the chosen origin. Candidates that did not fit go back onto the
// frontier after the commit.
func place(g *grid, f *frontier, name string, wu, hu int) (Posn, error) {
	var rejected []Posn
	for {
		p, ok := f.pop()
		if !ok {
			return Posn{}, errors.New(errors.ErrCodeFrontierExhausted,
				"no candidate position left for %q", name)
		}
		if g.marked(p.X, p.Y) {
			continue
		}
		if !g.free(p.X, p.Y, wu, hu) {
			rejected = append(rejected, p)
			continue
		}

		g.fill(p.X, p.Y, wu, hu)
		f.push(Posn{p.X + wu, p.Y})
		f.push(Posn{p.X, p.Y + hu})
		for _, r := range rejected {
			f.push(r)
		}
		return p, nil
	}
}

func validate(items []Item, unit int) error {
	if err := errors.ValidateUnit(unit); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.Name == "" {
			return errors.New(errors.ErrCodeInvalidName, "item name cannot be empty")
		}
		if err := errors.ValidateDimensions(it.Name, it.W, it.H); err != nil {
			return err
		}
		if _, dup := seen[it.Name]; dup {
			return errors.New(errors.ErrCodeDuplicateName, "duplicate item name %q", it.Name)
		}
		seen[it.Name] = struct{}{}
	}
	return nil
}

// Overlaps reports whether the footprints of two placed items intersect.
// Unplaced items never overlap anything.
func Overlaps(a, b Item, unit int) bool {
	if a.At == nil || b.At == nil {
		return false
	}
	aw, ah := Footprint(a.W, a.H, unit)
	bw, bh := Footprint(b.W, b.H, unit)
	return a.At.X < b.At.X+bw && b.At.X < a.At.X+aw &&
		a.At.Y < b.At.Y+bh && b.At.Y < a.At.Y+ah
}

// Verify checks that every item has been placed and that no two footprints
// overlap.
func Verify(items []Item, unit int) error {
	if err := errors.ValidateUnit(unit); err != nil {
		return err
	}
	for i := range items {
		if items[i].At == nil {
			return errors.New(errors.ErrCodeInternal, "item %q was not placed", items[i].Name)
		}
		if items[i].At.X < 0 || items[i].At.Y < 0 {
			return errors.New(errors.ErrCodeInternal, "item %q has negative position", items[i].Name)
		}
		for j := i + 1; j < len(items); j++ {
			if Overlaps(items[i], items[j], unit) {
				return errors.New(errors.ErrCodeInternal, "items %q and %q overlap", items[i].Name, items[j].Name)
			}
		}
	}
	return nil
}
