package util

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-blur/common"
	"github.com/nvr-ai/go-blur/images/bmp"
)

// BitmapFile is a decoded BMP and where it came from.
type BitmapFile struct {
	// Path is the path to the image file.
	Path string
	// Bitmap is the decoded pixel data.
	Bitmap *bmp.Bitmap
	// Headers are the file's headers as read.
	Headers *bmp.Headers
}

// LoadBitmaps reads path as a single BMP, or every .bmp file directly inside it
// when path is a directory.
//
// Arguments:
// - path: A BMP file or a directory containing BMP files.
//
// Returns:
// - []BitmapFile: The decoded files, sorted by path.
// - error: Error if any file fails to load or a directory holds no BMPs.
func LoadBitmaps(path string) ([]BitmapFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, common.IOError(err, "stat image path")
	}
	if !info.IsDir() {
		f, err := loadBitmap(path)
		if err != nil {
			return nil, err
		}
		return []BitmapFile{f}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, common.IOError(err, "read image directory")
	}

	var files []BitmapFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".bmp") {
			continue
		}
		f, err := loadBitmap(filepath.Join(path, entry.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return nil, common.ArgumentErrorf("no .bmp files found in %s", path)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

func loadBitmap(path string) (BitmapFile, error) {
	img, h, err := bmp.Load(path)
	if err != nil {
		return BitmapFile{}, errors.WithMessage(err, "load corpus")
	}
	return BitmapFile{Path: path, Bitmap: img, Headers: h}, nil
}
