package kernels

import (
	"testing"

	"github.com/nvr-ai/go-blur/images/tiles"
)

func BenchmarkBoxBlur_640(b *testing.B) {
	img := genBitmap(640, 640, 1)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = BoxBlur(img)
	}
}

func BenchmarkBoxBlur_1080p(b *testing.B) {
	img := genBitmap(1920, 1080, 1)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = BoxBlur(img)
	}
}

func BenchmarkBlurTile_16(b *testing.B) {
	img := genBitmap(640, 640, 1)
	dst := img.Blank()
	tile := tiles.Tile{X: 320, Y: 320, Size: 16, Width: 16, Height: 16}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = BlurTile(img, dst, tile, nil)
	}
}
