// Package pack places rectangles of varying size onto a unit grid without
// overlap, keeping the bounding box small and close to square.
//
// # Overview
//
// The packer is a deterministic greedy heuristic, not a bin-packing solver.
// Rectangles are processed largest first (by their longer side) and each one
// is dropped at the first candidate origin that fits. Candidate origins come
// from a frontier ordered by diagonal distance from the top-left corner, so
// the packed area grows outward roughly as a square.
//
// # Basic Usage
//
// Build a slice of [Item] values and call [Pack] with the grid quantum in
// pixels. Placements are written back into the slice:
//
//	items := []pack.Item{
//	    {Name: "tile", W: 32, H: 32},
//	    {Name: "blob", W: 16, H: 16},
//	}
//	res, err := pack.Pack(items, 16)
//	// items[0].At == &Posn{0, 0}, items[1].At == &Posn{2, 0}
//	// res.Width == 48, res.Height == 32
//
// Placements are in unit space; multiply by the unit to get pixel offsets.
//
// # Algorithm
//
// Every rectangle occupies a footprint of ceil(w/unit) × ceil(h/unit) cells.
// An occupancy grid records which cells are taken; it starts as a single cell
// and doubles its side whenever a mark lands outside its bounds.
//
// The frontier is a min-heap of origins keyed by max(x, y). Ties are broken
// by the smaller y, then the smaller x, so equal-distance candidates fill
// row-major. For each rectangle the packer pops origins until one fits:
//
//   - origins that are already occupied are stale duplicates and are dropped
//   - origins whose footprint overlaps an occupied cell are set aside
//   - the first origin that fits is committed, and the north-east corner
//     (x+wu, y) and the south-west corner (x, y+hu) become new candidates
//
// Origins that were set aside go back onto the frontier after the commit,
// since a later, smaller rectangle may still fit there.
//
// Every commit adds two candidates and the frontier starts with the origin,
// so it can never run dry for valid input. If it does, [Pack] reports a
// FRONTIER_EXHAUSTED error naming the rectangle it was placing.
//
// # Concurrency
//
// A packing run is strictly sequential: each placement depends on the grid
// left by the previous ones. [Pack] allocates its own grid and frontier, so
// independent calls may run concurrently on distinct item slices.
package pack
