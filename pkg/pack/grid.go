package pack

import "math/bits"

// grid is a square occupancy field that grows on demand. Cells outside the
// current bounds are unoccupied, so callers can treat it as infinite.
type grid struct {
	s     int    // side length, always a power of two
	cells []bool // row-major, len == s*s
}

func newGrid() *grid {
	return &grid{s: 1, cells: make([]bool, 1)}
}

// side returns the current side length.
func (g *grid) side() int { return g.s }

// marked reports whether cell (x, y) is occupied.
func (g *grid) marked(x, y int) bool {
	if x < 0 || y < 0 || x >= g.s || y >= g.s {
		return false
	}
	return g.cells[y*g.s+x]
}

// mark occupies cell (x, y) and reports whether the grid had to grow.
func (g *grid) mark(x, y int) bool {
	grew := false
	if x >= g.s || y >= g.s {
		g.grow(growTarget(max(x, y)))
		grew = true
	}
	g.cells[y*g.s+x] = true
	return grew
}

// grow reallocates the grid to side n, keeping all occupied cells.
func (g *grid) grow(n int) {
	if n <= g.s {
		return
	}
	cells := make([]bool, n*n)
	for y := 0; y < g.s; y++ {
		copy(cells[y*n:y*n+g.s], g.cells[y*g.s:(y+1)*g.s])
	}
	g.s = n
	g.cells = cells
}

// free reports whether every cell of the w×h footprint at (x, y) is unoccupied.
func (g *grid) free(x, y, w, h int) bool {
	for yy := y; yy < y+h; yy++ {
		if yy >= g.s {
			return true
		}
		for xx := x; xx < x+w; xx++ {
			if g.marked(xx, yy) {
				return false
			}
		}
	}
	return true
}

// fill occupies every cell of the w×h footprint at (x, y).
func (g *grid) fill(x, y, w, h int) {
	// Marking the far corner first grows the grid at most once per footprint.
	g.mark(x+w-1, y+h-1)
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			g.mark(xx, yy)
		}
	}
}

// growTarget returns the side needed to hold coordinate m: twice the
// smallest power of two that is >= m.
func growTarget(m int) int {
	if m <= 1 {
		return 2
	}
	return 2 << bits.Len(uint(m-1))
}
