package imagematch

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// ErrUnsupportedImage is returned for files that decode as an image format
// the report renderer cannot embed, or do not decode at all.
var ErrUnsupportedImage = errors.New("imagematch: unsupported image")

// ErrImageTooLarge is returned for images whose declared dimensions exceed
// MaxDecodePixels. Such files are never fully decoded.
var ErrImageTooLarge = errors.New("imagematch: image dimensions too large")

// maxPixels bounds the area of resized images.
const maxPixels = 2000 * 2000

// MaxDecodePixels is the largest declared width*height accepted for decoding.
const MaxDecodePixels = 50_000_000

var supportedFormats = map[string]bool{"jpeg": true, "png": true, "bmp": true, "tiff": true}

// ValidateImageFormat decodes the image header and returns its format name.
// Headers declaring more than MaxDecodePixels are rejected.
func ValidateImageFormat(path string) (string, error) {
	_, format, err := decodeHeader(path)
	return format, err
}

func decodeHeader(path string) (image.Config, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", err
	}
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return cfg, "", fmt.Errorf("%s: %w: %v", filepath.Base(path), ErrUnsupportedImage, err)
	}
	if !supportedFormats[format] {
		return cfg, format, fmt.Errorf("%s: %w: format %s", filepath.Base(path), ErrUnsupportedImage, format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxDecodePixels {
		return cfg, format, fmt.Errorf("%s: %w: %dx%d", filepath.Base(path), ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	return cfg, format, nil
}

// ResizeIfNeeded downsamples images larger than maxBytes whose area exceeds
// 2000x2000 pixels, writing "<name>_resized<ext>" next to the original.
// On any failure the original path is returned with the error.
func ResizeIfNeeded(path string, maxBytes int64) (string, error) {
	st, err := os.Stat(path)
	if err != nil {
		return path, err
	}
	if st.Size() <= maxBytes {
		return path, nil
	}
	cfg, _, err := decodeHeader(path)
	if err != nil {
		return path, err
	}
	if int64(cfg.Width)*int64(cfg.Height) <= maxPixels {
		return path, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return path, err
	}
	src, format, err := image.Decode(f)
	f.Close()
	if err != nil {
		return path, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	ratio := math.Sqrt(float64(maxPixels) / float64(w*h))
	nw, nh := int(float64(w)*ratio), int(float64(h)*ratio)
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	ext := filepath.Ext(path)
	out := strings.TrimSuffix(path, ext) + "_resized" + ext
	if err := encode(out, format, dst); err != nil {
		return path, err
	}
	return out, nil
}

func encode(path, format string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	switch format {
	case "jpeg":
		return jpeg.Encode(f, img, &jpeg.Options{Quality: 85})
	case "png":
		return png.Encode(f, img)
	case "bmp":
		return bmp.Encode(f, img)
	case "tiff":
		return tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("encode %s: %w", format, ErrUnsupportedImage)
}
