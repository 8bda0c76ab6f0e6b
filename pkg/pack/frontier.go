package pack

import "container/heap"

// frontier is a min-priority queue of candidate origins. Duplicates are
// allowed; the packer filters them at pop time.
type frontier struct {
	h posnHeap
}

func newFrontier() *frontier {
	return &frontier{}
}

func (f *frontier) push(p Posn) { heap.Push(&f.h, p) }

// pop removes and returns the lowest-keyed origin, or false if empty.
func (f *frontier) pop() (Posn, bool) {
	if len(f.h) == 0 {
		return Posn{}, false
	}
	return heap.Pop(&f.h).(Posn), true
}

func (f *frontier) len() int { return len(f.h) }

// less orders origins by max(x, y), then y, then x.
func less(a, b Posn) bool {
	ka, kb := max(a.X, a.Y), max(b.X, b.Y)
	if ka != kb {
		return ka < kb
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}

type posnHeap []Posn

func (h posnHeap) Len() int           { return len(h) }
func (h posnHeap) Less(i, j int) bool { return less(h[i], h[j]) }
func (h posnHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *posnHeap) Push(x any) { *h = append(*h, x.(Posn)) }

func (h *posnHeap) Pop() any {
	old := *h
	n := len(old)
	p := old[n-1]
	*h = old[:n-1]
	return p
}
