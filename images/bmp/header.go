// Package bmp reads and writes uncompressed 24-bit BMP files.
//
// Only the BITMAPFILEHEADER and the first 40 bytes of the DIB header are
// interpreted. Anything between the DIB header and the pixel data (larger
// header variants, masks, palettes) is carried through untouched so a file can
// be written back exactly as it was read.
package bmp

import (
	"encoding/binary"

	"github.com/nvr-ai/go-blur/common"
)

// File layout constants.
const (
	// FileHeaderSize is the size of BITMAPFILEHEADER on disk.
	FileHeaderSize = 14
	// InfoHeaderSize is the size of BITMAPINFOHEADER on disk.
	InfoHeaderSize = 40
	// MinDataOffset is the smallest valid pixel-data offset.
	MinDataOffset = FileHeaderSize + InfoHeaderSize
	// BitsPerPixel is the only supported bit depth.
	BitsPerPixel = 24
	// BytesPerPixel is the size of one stored pixel.
	BytesPerPixel = 3
	// CompressionNone is BI_RGB.
	CompressionNone = 0
)

// Signature is the magic at offset 0.
var Signature = [2]byte{'B', 'M'}

// FileHeader is BITMAPFILEHEADER. Offsets are from the start of the file.
type FileHeader struct {
	Signature  [2]byte // 0
	FileSize   uint32  // 2
	Reserved1  uint16  // 6
	Reserved2  uint16  // 8
	DataOffset uint32  // 10
}

// InfoHeader is BITMAPINFOHEADER. Offsets are from the start of the header (file offset 14).
type InfoHeader struct {
	Size            uint32 // 0
	Width           int32  // 4
	Height          int32  // 8
	Planes          uint16 // 12
	BitCount        uint16 // 14
	Compression     uint32 // 16
	ImageSize       uint32 // 20
	XPelsPerMeter   int32  // 24
	YPelsPerMeter   int32  // 28
	ColorsUsed      uint32 // 32
	ColorsImportant uint32 // 36
}

// Headers is everything in a file before the pixel rows.
type Headers struct {
	File FileHeader
	Info InfoHeader
	// Extra holds the bytes between the end of the 40-byte info header and File.DataOffset.
	Extra []byte
}

// Stride returns the padded length in bytes of one stored row.
func Stride(width int) int {
	return (width*BytesPerPixel + 3) &^ 3
}

// decodeFileHeader decodes the 14 bytes at file offset 0.
func decodeFileHeader(b []byte) FileHeader {
	le := binary.LittleEndian
	return FileHeader{
		Signature:  [2]byte{b[0], b[1]},
		FileSize:   le.Uint32(b[2:6]),
		Reserved1:  le.Uint16(b[6:8]),
		Reserved2:  le.Uint16(b[8:10]),
		DataOffset: le.Uint32(b[10:14]),
	}
}

func (h FileHeader) encode(b []byte) {
	le := binary.LittleEndian
	b[0], b[1] = h.Signature[0], h.Signature[1]
	le.PutUint32(b[2:6], h.FileSize)
	le.PutUint16(b[6:8], h.Reserved1)
	le.PutUint16(b[8:10], h.Reserved2)
	le.PutUint32(b[10:14], h.DataOffset)
}

// decodeInfoHeader decodes the 40 bytes at file offset 14.
func decodeInfoHeader(b []byte) InfoHeader {
	le := binary.LittleEndian
	return InfoHeader{
		Size:            le.Uint32(b[0:4]),
		Width:           int32(le.Uint32(b[4:8])),
		Height:          int32(le.Uint32(b[8:12])),
		Planes:          le.Uint16(b[12:14]),
		BitCount:        le.Uint16(b[14:16]),
		Compression:     le.Uint32(b[16:20]),
		ImageSize:       le.Uint32(b[20:24]),
		XPelsPerMeter:   int32(le.Uint32(b[24:28])),
		YPelsPerMeter:   int32(le.Uint32(b[28:32])),
		ColorsUsed:      le.Uint32(b[32:36]),
		ColorsImportant: le.Uint32(b[36:40]),
	}
}

func (h InfoHeader) encode(b []byte) {
	le := binary.LittleEndian
	le.PutUint32(b[0:4], h.Size)
	le.PutUint32(b[4:8], uint32(h.Width))
	le.PutUint32(b[8:12], uint32(h.Height))
	le.PutUint16(b[12:14], h.Planes)
	le.PutUint16(b[14:16], h.BitCount)
	le.PutUint32(b[16:20], h.Compression)
	le.PutUint32(b[20:24], h.ImageSize)
	le.PutUint32(b[24:28], uint32(h.XPelsPerMeter))
	le.PutUint32(b[28:32], uint32(h.YPelsPerMeter))
	le.PutUint32(b[32:36], h.ColorsUsed)
	le.PutUint32(b[36:40], h.ColorsImportant)
}

// Validate checks the fields this package relies on.
func (h *Headers) Validate() error {
	if h.File.Signature != Signature {
		return common.FormatErrorf("bad signature %q, want %q", h.File.Signature[:], Signature[:])
	}
	if h.Info.Size < InfoHeaderSize {
		return common.FormatErrorf("unsupported DIB header size %d", h.Info.Size)
	}
	if h.Info.Width <= 0 || h.Info.Height <= 0 {
		return common.FormatErrorf("invalid dimensions %dx%d", h.Info.Width, h.Info.Height)
	}
	if h.Info.BitCount != BitsPerPixel {
		return common.FormatErrorf("unsupported bit depth %d, want %d", h.Info.BitCount, BitsPerPixel)
	}
	if h.Info.Compression != CompressionNone {
		return common.FormatErrorf("unsupported compression %d", h.Info.Compression)
	}
	if h.File.DataOffset < MinDataOffset {
		return common.FormatErrorf("pixel data offset %d overlaps headers", h.File.DataOffset)
	}
	return nil
}

// NewHeaders builds minimal 54-byte headers for a width x height 24-bit image.
func NewHeaders(width, height int) *Headers {
	imageSize := uint32(Stride(width) * height)
	return &Headers{
		File: FileHeader{
			Signature:  Signature,
			FileSize:   MinDataOffset + imageSize,
			DataOffset: MinDataOffset,
		},
		Info: InfoHeader{
			Size:          InfoHeaderSize,
			Width:         int32(width),
			Height:        int32(height),
			Planes:        1,
			BitCount:      BitsPerPixel,
			Compression:   CompressionNone,
			ImageSize:     imageSize,
			XPelsPerMeter: 2835,
			YPelsPerMeter: 2835,
		},
	}
}
