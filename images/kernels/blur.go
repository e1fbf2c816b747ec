// Package kernels implements the 3x3 box blur applied to decoded bitmaps.
package kernels

import (
	"sync"

	"github.com/nvr-ai/go-blur/images/bmp"
	"github.com/nvr-ai/go-blur/images/tiles"
)

// VisitFunc is called after each pixel of a tile is written. Returning an error
// stops the tile.
type VisitFunc func(x, y int) error

// BlurPixel returns the truncating integer mean of each channel over the
// in-bounds 3x3 neighborhood of (x, y) in src.
func BlurPixel(src *bmp.Bitmap, x, y int) (r, g, b uint8) {
	var sumR, sumG, sumB, count int

	n := Neighborhood(x, y, src.Width, src.Height)
	for dx, dy := range n.All() {
		i := src.Offset(x+dx, y+dy)
		p := src.Pix[i : i+3 : i+3]
		sumR += int(p[0])
		sumG += int(p[1])
		sumB += int(p[2])
		count++
	}
	if count == 0 {
		return 0, 0, 0
	}
	return uint8(sumR / count), uint8(sumG / count), uint8(sumB / count)
}

// BlurTile blurs every pixel of t from src into dst. src is only read, so any
// number of tiles can run concurrently as long as their dst regions differ.
// visit may be nil.
func BlurTile(src, dst *bmp.Bitmap, t tiles.Tile, visit VisitFunc) error {
	for y := t.Y; y < t.Y+t.Height; y++ {
		for x := t.X; x < t.X+t.Width; x++ {
			r, g, b := BlurPixel(src, x, y)
			dst.SetRGB(x, y, r, g, b)
			if visit != nil {
				if err := visit(x, y); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// BoxBlur blurs the whole of src on the calling goroutine and returns a new
// bitmap. It is the sequential reference for the tiled path.
func BoxBlur(src *bmp.Bitmap) *bmp.Bitmap {
	dst := src.Blank()
	whole := tiles.Tile{Width: src.Width, Height: src.Height, Size: max(src.Width, src.Height)}
	// A nil visit never fails.
	_ = BlurTile(src, dst, whole, nil)
	return dst
}

// Pool lets callers reuse destination bitmaps across runs of the same size.
type Pool struct {
	bitmaps sync.Pool // *bmp.Bitmap
}

// Get returns a width x height bitmap. Reused bitmaps are not cleared; the blur
// overwrites every pixel.
func (p *Pool) Get(width, height int) *bmp.Bitmap {
	if p == nil {
		return bmp.NewBitmap(width, height)
	}
	if v := p.bitmaps.Get(); v != nil {
		b := v.(*bmp.Bitmap)
		if b.Width == width && b.Height == height {
			return b
		}
	}
	return bmp.NewBitmap(width, height)
}

// Put hands b back for reuse.
func (p *Pool) Put(b *bmp.Bitmap) {
	if p == nil || b == nil {
		return
	}
	p.bitmaps.Put(b)
}
