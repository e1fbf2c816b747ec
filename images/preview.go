// Package images - Conversions between decoded bitmaps and image.Image, and preview thumbnails.
package images

import (
	"image"
	"image/color"

	"github.com/nfnt/resize"

	"github.com/nvr-ai/go-blur/images/bmp"
)

// ToNRGBA copies b into an opaque *image.NRGBA.
//
// Arguments:
//   - b: The bitmap to convert.
//
// Returns:
//   - *image.NRGBA: A new image with the same pixels and alpha 255.
func ToNRGBA(b *bmp.Bitmap) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		src := b.Pix[y*b.Width*3 : (y+1)*b.Width*3]
		dst := img.Pix[y*img.Stride : y*img.Stride+b.Width*4]
		for x := 0; x < b.Width; x++ {
			dst[x*4+0] = src[x*3+0]
			dst[x*4+1] = src[x*3+1]
			dst[x*4+2] = src[x*3+2]
			dst[x*4+3] = 0xff
		}
	}
	return img
}

// FromImage copies img into a bitmap, dropping alpha.
func FromImage(img image.Image) *bmp.Bitmap {
	bounds := img.Bounds()
	b := bmp.NewBitmap(bounds.Dx(), bounds.Dy())
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			b.SetRGB(x, y, c.R, c.G, c.B)
		}
	}
	return b
}

// Thumbnail scales b down to fit within maxWidth x maxHeight, keeping the aspect
// ratio. Images that already fit are returned as a copy.
func Thumbnail(b *bmp.Bitmap, maxWidth, maxHeight int) *bmp.Bitmap {
	if maxWidth <= 0 || maxHeight <= 0 || (b.Width <= maxWidth && b.Height <= maxHeight) {
		return b.Clone()
	}
	scaled := resize.Thumbnail(uint(maxWidth), uint(maxHeight), ToNRGBA(b), resize.Bilinear)
	return FromImage(scaled)
}
