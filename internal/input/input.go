// Package input loads and decodes document images from files and streams.
// The blank decoder imports cover the formats phone cameras and scanner
// apps typically produce.
package input

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// SupportedImageExtensions lists file extensions accepted by LoadImage.
var SupportedImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff", ".webp", ".gif"}

// MaxDimension is the longest side images are scaled down to before OCR.
// Larger inputs cost engine time without improving field extraction.
const MaxDimension = 2048

// IsSupportedImage reports whether the path has a supported image extension.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedImageExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// IsPDF reports whether the path looks like a PDF document.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// Metadata captures lightweight file and pixel information for logging.
type Metadata struct {
	Path      string
	Format    string
	SizeBytes int64
	Width     int
	Height    int
}

// LoadImage opens and decodes an image file.
func LoadImage(path string) (image.Image, Metadata, error) {
	if path == "" {
		return nil, Metadata{}, errors.New("empty image path")
	}
	if !IsSupportedImage(path) {
		return nil, Metadata{}, fmt.Errorf("unsupported image format: %s", filepath.Ext(path))
	}

	f, err := os.Open(path) //nolint:gosec // G304: user-provided input path is expected
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("opening image: %w", err)
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("reading image metadata: %w", err)
	}

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("decoding image: %w", err)
	}

	b := img.Bounds()
	meta := Metadata{
		Path:      path,
		Format:    format,
		SizeBytes: fi.Size(),
		Width:     b.Dx(),
		Height:    b.Dy(),
	}
	return img, meta, nil
}

// DecodeImage decodes an image from a stream, such as an HTTP upload.
func DecodeImage(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}
	return img, format, nil
}

// NormalizeSize scales the image down so its longest side is at most
// maxDim, preserving aspect ratio. Images already within bounds are
// returned unchanged; maxDim <= 0 uses MaxDimension.
func NormalizeSize(img image.Image, maxDim int) image.Image {
	if maxDim <= 0 {
		maxDim = MaxDimension
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}
	if w >= h {
		return imaging.Resize(img, maxDim, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, maxDim, imaging.Lanczos)
}
