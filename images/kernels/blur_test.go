package kernels

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-blur/images/bmp"
	"github.com/nvr-ai/go-blur/images/tiles"
)

func genBitmap(w, h int, seed int64) *bmp.Bitmap {
	img := bmp.NewBitmap(w, h)
	rng := rand.New(rand.NewSource(seed))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	return img
}

func TestNeighborhoodCounts(t *testing.T) {
	tests := []struct {
		name          string
		x, y          int
		width, height int
		want          int
	}{
		{"top-left corner", 0, 0, 5, 5, 4},
		{"bottom-right corner", 4, 4, 5, 5, 4},
		{"top edge", 2, 0, 5, 5, 6},
		{"left edge", 0, 3, 5, 5, 6},
		{"interior", 2, 2, 5, 5, 9},
		{"single pixel", 0, 0, 1, 1, 1},
		{"single row", 1, 0, 3, 1, 3},
		{"two by two", 0, 0, 2, 2, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Neighborhood(tt.x, tt.y, tt.width, tt.height)
			assert.Equal(t, tt.want, n.Count())

			seen := 0
			for dx, dy := range n.All() {
				nx, ny := tt.x+dx, tt.y+dy
				assert.True(t, nx >= 0 && nx < tt.width && ny >= 0 && ny < tt.height)
				seen++
			}
			assert.Equal(t, tt.want, seen)
		})
	}
}

func TestNeighborhoodRestartable(t *testing.T) {
	n := Neighborhood(0, 0, 3, 3)

	var first [][2]int
	for {
		dx, dy, ok := n.Next()
		if !ok {
			break
		}
		first = append(first, [2]int{dx, dy})
	}
	assert.Equal(t, [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}}, first)

	_, _, ok := n.Next()
	assert.False(t, ok, "exhausted iterator stays exhausted")

	n.Reset()
	dx, dy, ok := n.Next()
	require.True(t, ok)
	assert.Equal(t, [2]int{0, 0}, [2]int{dx, dy})

	var zero Neighbors
	assert.Equal(t, 0, zero.Count())
	_, _, ok = zero.Next()
	assert.False(t, ok)
}

func TestBlurUniformIsNoop(t *testing.T) {
	img := bmp.NewBitmap(4, 4)
	img.Fill(255, 255, 255)

	out := BoxBlur(img)
	assert.Equal(t, img.Pix, out.Pix)
}

func TestBlurCornerAveragesFourSamples(t *testing.T) {
	img := bmp.NewBitmap(2, 2)
	img.Fill(255, 255, 255)
	img.SetRGB(0, 0, 0, 0, 0)

	out := BoxBlur(img)
	r, g, b := out.RGBAt(0, 0)
	// (0 + 3*255) / 4 = 191 after truncation.
	assert.Equal(t, [3]uint8{191, 191, 191}, [3]uint8{r, g, b})
}

func TestBlurMatchesNeighborhoodMean(t *testing.T) {
	src := genBitmap(9, 7, 3)
	orig := src.Clone()
	out := BoxBlur(src)

	assert.Equal(t, orig.Pix, src.Pix, "source must not be mutated")

	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			var sum [3]int
			count := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= src.Width || ny >= src.Height {
						continue
					}
					r, g, b := src.RGBAt(nx, ny)
					sum[0] += int(r)
					sum[1] += int(g)
					sum[2] += int(b)
					count++
				}
			}

			switch {
			case (x == 0 || x == src.Width-1) && (y == 0 || y == src.Height-1):
				assert.Equal(t, 4, count)
			case x == 0 || y == 0 || x == src.Width-1 || y == src.Height-1:
				assert.Equal(t, 6, count)
			default:
				assert.Equal(t, 9, count)
			}

			r, g, b := out.RGBAt(x, y)
			assert.Equal(t, [3]uint8{uint8(sum[0] / count), uint8(sum[1] / count), uint8(sum[2] / count)},
				[3]uint8{r, g, b}, "pixel (%d,%d)", x, y)
		}
	}
}

func TestBlurTileTouchesOnlyItsRegion(t *testing.T) {
	src := genBitmap(10, 10, 7)
	dst := src.Blank()
	tile := tiles.Tile{Index: 0, X: 4, Y: 2, Size: 4, Width: 4, Height: 3}

	var visited int
	require.NoError(t, BlurTile(src, dst, tile, func(x, y int) error {
		assert.True(t, x >= 4 && x < 8 && y >= 2 && y < 5)
		visited++
		return nil
	}))
	assert.Equal(t, 12, visited)

	ref := BoxBlur(src)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			r, g, b := dst.RGBAt(x, y)
			if x >= 4 && x < 8 && y >= 2 && y < 5 {
				rr, rg, rb := ref.RGBAt(x, y)
				assert.Equal(t, [3]uint8{rr, rg, rb}, [3]uint8{r, g, b})
				continue
			}
			assert.Equal(t, [3]uint8{}, [3]uint8{r, g, b}, "pixel (%d,%d) outside the tile", x, y)
		}
	}
}

func TestBlurTileStopsOnVisitError(t *testing.T) {
	src := genBitmap(4, 4, 1)
	dst := src.Blank()
	stop := assert.AnError

	calls := 0
	err := BlurTile(src, dst, tiles.Tile{Width: 4, Height: 4, Size: 4}, func(x, y int) error {
		calls++
		if calls == 3 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 3, calls)
}

func TestPoolReusesMatchingSize(t *testing.T) {
	var nilPool *Pool
	assert.Equal(t, 12, len(nilPool.Get(2, 2).Pix))
	nilPool.Put(bmp.NewBitmap(1, 1))

	p := &Pool{}
	b := p.Get(3, 2)
	require.True(t, b.Valid())
	p.Put(b)

	other := p.Get(5, 5)
	assert.Equal(t, 5, other.Width)
	assert.Equal(t, 5*5*3, len(other.Pix))
}
