// Package tiles splits an image into square tiles and hands them out to a fixed
// number of workers.
package tiles

import (
	"fmt"

	"github.com/nvr-ai/go-blur/common"
)

// DefaultSize is the tile edge used when none is configured.
const DefaultSize = 16

// Tile is a square region of the image. Tiles on the right and bottom edges are
// clipped, so Width and Height may be smaller than Size.
type Tile struct {
	// Index is the position in the row-major enumeration.
	Index int
	// X and Y are the top-left pixel.
	X, Y int
	// Size is the unclipped edge length.
	Size int
	// Width and Height are the clipped extent.
	Width, Height int
}

// Pixels returns the number of pixels the tile covers.
func (t Tile) Pixels() int {
	return t.Width * t.Height
}

func (t Tile) String() string {
	return fmt.Sprintf("tile#%d(%d,%d %dx%d)", t.Index, t.X, t.Y, t.Width, t.Height)
}

// Grid returns the number of tile columns and rows for an image.
func Grid(width, height, size int) (cols, rows int) {
	return (width + size - 1) / size, (height + size - 1) / size
}

// Enumerate lists the tiles of a width x height image in row-major order.
func Enumerate(width, height, size int) []Tile {
	cols, rows := Grid(width, height, size)
	out := make([]Tile, 0, cols*rows)
	for ty := 0; ty < rows; ty++ {
		for tx := 0; tx < cols; tx++ {
			x, y := tx*size, ty*size
			out = append(out, Tile{
				Index:  len(out),
				X:      x,
				Y:      y,
				Size:   size,
				Width:  min(size, width-x),
				Height: min(size, height-y),
			})
		}
	}
	return out
}

// Assignment is the contiguous run of tiles owned by one worker.
type Assignment struct {
	Worker int
	Tiles  []Tile
}

// Pixels returns the number of pixels in the assignment.
func (a Assignment) Pixels() int {
	n := 0
	for _, t := range a.Tiles {
		n += t.Pixels()
	}
	return n
}

// Partition splits tiles into exactly threads contiguous assignments of
// ceil(len(tiles)/threads) tiles each. The last non-empty assignment takes the
// short remainder and trailing assignments may be empty; no tile is dropped.
func Partition(tiles []Tile, threads int) []Assignment {
	out := make([]Assignment, threads)
	per := (len(tiles) + threads - 1) / threads
	for i := range out {
		start := min(i*per, len(tiles))
		end := min(start+per, len(tiles))
		out[i] = Assignment{Worker: i, Tiles: tiles[start:end:end]}
	}
	return out
}

// Plan validates its arguments, enumerates the tiles of a width x height image,
// and partitions them among threads workers.
func Plan(width, height, size, threads int) ([]Assignment, error) {
	if width <= 0 || height <= 0 {
		return nil, common.ArgumentErrorf("image size must be positive, got %dx%d", width, height)
	}
	if size <= 0 {
		return nil, common.ArgumentErrorf("tile size must be positive, got %d", size)
	}
	if threads <= 0 {
		return nil, common.ArgumentErrorf("thread count must be positive, got %d", threads)
	}
	return Partition(Enumerate(width, height, size), threads), nil
}
