package bmp

import (
	"bufio"
	"io"
	"os"

	"github.com/nvr-ai/go-blur/common"
)

// Save writes img to path using headers h.
//
// The headers are checked before the file is created, and a failed write removes
// the file, so an error never leaves a partial BMP behind.
func Save(path string, h *Headers, img *Bitmap) error {
	if err := checkEncodable(h, img); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return common.IOError(err, "create output")
	}

	w := bufio.NewWriter(f)
	if err := Encode(w, h, img); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(path)
		return common.IOError(err, "flush output")
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return common.IOError(err, "close output")
	}
	return nil
}

// Encode writes the headers, the header extension and the pixel rows of img to w.
// Rows are written bottom-up in B,G,R order, each zero-padded to Stride.
func Encode(w io.Writer, h *Headers, img *Bitmap) error {
	if err := checkEncodable(h, img); err != nil {
		return err
	}

	var buf [MinDataOffset]byte
	h.File.encode(buf[:FileHeaderSize])
	h.Info.encode(buf[FileHeaderSize:])
	if _, err := w.Write(buf[:]); err != nil {
		return common.IOError(err, "write headers")
	}
	if len(h.Extra) > 0 {
		if _, err := w.Write(h.Extra); err != nil {
			return common.IOError(err, "write header extension")
		}
	}

	rowLen := img.Width * BytesPerPixel
	row := make([]byte, Stride(img.Width))
	for fileRow := 0; fileRow < img.Height; fileRow++ {
		y := img.Height - 1 - fileRow
		src := img.Pix[y*rowLen : (y+1)*rowLen]
		for i := 0; i < rowLen; i += BytesPerPixel {
			row[i], row[i+1], row[i+2] = src[i+2], src[i+1], src[i]
		}
		if _, err := w.Write(row); err != nil {
			return common.IOError(err, "write pixel rows")
		}
	}
	return nil
}

func checkEncodable(h *Headers, img *Bitmap) error {
	if h == nil {
		return common.FormatErrorf("missing headers")
	}
	if !img.Valid() {
		return common.FormatErrorf("bitmap buffer does not match its dimensions")
	}
	if err := h.Validate(); err != nil {
		return err
	}
	if int(h.Info.Width) != img.Width || int(h.Info.Height) != img.Height {
		return common.FormatErrorf("headers describe %dx%d, bitmap is %dx%d",
			h.Info.Width, h.Info.Height, img.Width, img.Height)
	}
	if want := int(h.File.DataOffset) - MinDataOffset; len(h.Extra) != want {
		return common.FormatErrorf("header extension is %d bytes, data offset needs %d", len(h.Extra), want)
	}
	return nil
}
