package bmp

// Bitmap is a decoded image: Width*Height RGB triples, row-major, top row first,
// with no row padding.
type Bitmap struct {
	Width  int
	Height int
	Pix    []byte
}

// NewBitmap allocates a zeroed width x height bitmap.
func NewBitmap(width, height int) *Bitmap {
	return &Bitmap{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*BytesPerPixel),
	}
}

// Offset returns the index of the R byte of pixel (x, y) in Pix.
func (b *Bitmap) Offset(x, y int) int {
	return (y*b.Width + x) * BytesPerPixel
}

// RGBAt returns the channels of pixel (x, y).
func (b *Bitmap) RGBAt(x, y int) (r, g, bl uint8) {
	i := b.Offset(x, y)
	p := b.Pix[i : i+3 : i+3]
	return p[0], p[1], p[2]
}

// SetRGB stores the channels of pixel (x, y).
func (b *Bitmap) SetRGB(x, y int, r, g, bl uint8) {
	i := b.Offset(x, y)
	p := b.Pix[i : i+3 : i+3]
	p[0], p[1], p[2] = r, g, bl
}

// Fill sets every pixel to the same color.
func (b *Bitmap) Fill(r, g, bl uint8) {
	for i := 0; i < len(b.Pix); i += BytesPerPixel {
		b.Pix[i], b.Pix[i+1], b.Pix[i+2] = r, g, bl
	}
}

// Blank returns a zeroed bitmap of the same size.
func (b *Bitmap) Blank() *Bitmap {
	return NewBitmap(b.Width, b.Height)
}

// Clone returns a deep copy.
func (b *Bitmap) Clone() *Bitmap {
	c := b.Blank()
	copy(c.Pix, b.Pix)
	return c
}

// Valid reports whether the buffer length matches the dimensions.
func (b *Bitmap) Valid() bool {
	return b != nil && b.Width > 0 && b.Height > 0 && len(b.Pix) == b.Width*b.Height*BytesPerPixel
}
