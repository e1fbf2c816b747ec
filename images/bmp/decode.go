package bmp

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-blur/common"
)

// MaxPixels bounds the allocation a header can request.
const MaxPixels = 1 << 28

// MaxHeaderExtra bounds the bytes kept between the info header and the pixel data.
const MaxHeaderExtra = 64 << 10

// Load opens path and decodes it.
//
// Arguments:
//   - path: The BMP file to read.
//
// Returns:
//   - *Bitmap: The pixels, top row first, in R,G,B order.
//   - *Headers: The original headers, needed to write a compatible file.
//   - error: IoError if the file cannot be opened or read, FormatError if it is not a
//     supported BMP.
func Load(path string) (*Bitmap, *Headers, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, common.IOError(err, "open input")
	}
	defer f.Close()

	img, h, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, nil, errors.WithMessagef(err, "decode %s", path)
	}
	return img, h, nil
}

// Decode reads a BMP from r.
func Decode(r io.Reader) (*Bitmap, *Headers, error) {
	h, err := DecodeHeaders(r)
	if err != nil {
		return nil, nil, err
	}

	width, height := int(h.Info.Width), int(h.Info.Height)
	img := NewBitmap(width, height)
	stride := Stride(width)
	rowLen := width * BytesPerPixel
	row := make([]byte, stride)

	// Rows are stored bottom-up.
	for fileRow := 0; fileRow < height; fileRow++ {
		if _, err := io.ReadFull(r, row); err != nil {
			return nil, nil, readError(err, "read pixel rows")
		}
		y := height - 1 - fileRow
		dst := img.Pix[y*rowLen : (y+1)*rowLen]
		for i := 0; i < rowLen; i += BytesPerPixel {
			dst[i], dst[i+1], dst[i+2] = row[i+2], row[i+1], row[i]
		}
	}

	return img, h, nil
}

// DecodeHeaders reads and validates everything up to the pixel data, leaving r
// positioned at the first stored row.
func DecodeHeaders(r io.Reader) (*Headers, error) {
	var buf [MinDataOffset]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, readError(err, "read headers")
	}

	h := &Headers{
		File: decodeFileHeader(buf[:FileHeaderSize]),
		Info: decodeInfoHeader(buf[FileHeaderSize:]),
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if int64(h.Info.Width)*int64(h.Info.Height) > MaxPixels {
		return nil, common.FormatErrorf("image %dx%d exceeds %d pixels", h.Info.Width, h.Info.Height, MaxPixels)
	}

	if int64(h.File.DataOffset)-MinDataOffset > MaxHeaderExtra {
		return nil, common.FormatErrorf("pixel data offset %d exceeds %d header bytes", h.File.DataOffset, MinDataOffset+MaxHeaderExtra)
	}

	if extra := int(h.File.DataOffset) - MinDataOffset; extra > 0 {
		h.Extra = make([]byte, extra)
		if _, err := io.ReadFull(r, h.Extra); err != nil {
			return nil, readError(err, "read header extension")
		}
	}
	return h, nil
}

// readError classifies a failed read: running out of bytes means the file is
// malformed, anything else is an I/O failure.
func readError(err error, op string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return common.WrapFormat(io.ErrUnexpectedEOF, op)
	}
	return common.IOError(err, op)
}
