package kernels

import "iter"

// Neighbors walks the in-bounds offsets of the 3x3 window around one pixel.
// Offsets come out row by row (dy = -1, 0, 1; dx = -1, 0, 1 within each row)
// and neighbors outside [0, width) x [0, height) are skipped, so a corner yields
// 4 offsets, an edge 6 and an interior pixel 9. The zero value yields nothing.
type Neighbors struct {
	x, y          int
	width, height int
	next          int
}

// Neighborhood returns the window iterator for pixel (x, y) of a width x height image.
func Neighborhood(x, y, width, height int) Neighbors {
	return Neighbors{x: x, y: y, width: width, height: height}
}

// Next returns the next in-bounds offset. ok is false once the window is exhausted.
func (n *Neighbors) Next() (dx, dy int, ok bool) {
	for n.next < 9 {
		dx, dy = n.next%3-1, n.next/3-1
		n.next++
		nx, ny := n.x+dx, n.y+dy
		if nx >= 0 && nx < n.width && ny >= 0 && ny < n.height {
			return dx, dy, true
		}
	}
	return 0, 0, false
}

// Reset rewinds the iterator to the first offset.
func (n *Neighbors) Reset() {
	n.next = 0
}

// Count returns how many offsets a full pass yields, without advancing.
func (n Neighbors) Count() int {
	cols := min(n.x+1, n.width-1) - max(n.x-1, 0) + 1
	rows := min(n.y+1, n.height-1) - max(n.y-1, 0) + 1
	if cols <= 0 || rows <= 0 {
		return 0
	}
	return cols * rows
}

// All returns a fresh pass over the offsets as a range-over-func sequence.
func (n Neighbors) All() iter.Seq2[int, int] {
	return func(yield func(dx, dy int) bool) {
		n.Reset()
		for {
			dx, dy, ok := n.Next()
			if !ok || !yield(dx, dy) {
				return
			}
		}
	}
}
