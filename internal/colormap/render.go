package colormap

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
)

// Supported encodings for Render.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// Render applies the named colormap to a grayscale frame and encodes it.
// Each row of pixels is one scanline; all rows must share the same width.
// format is "png" or "jpeg" (case-insensitive); jpegQuality applies only
// to JPEG output.
func (r *Registry) Render(name string, pixels [][]byte, format string, jpegQuality int) ([]byte, error) {
	cm, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	img, err := colorize(cm, pixels)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encoding PNG: %w", err)
		}
	case FormatJPEG:
		if jpegQuality < 1 || jpegQuality > 100 {
			return nil, fmt.Errorf("jpeg quality %d out of range [1, 100]", jpegQuality)
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("encoding JPEG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown image format %q (available: %s, %s)",
			format, FormatPNG, FormatJPEG)
	}
	return buf.Bytes(), nil
}

func colorize(cm *Colormap, pixels [][]byte) (*image.RGBA, error) {
	if len(pixels) == 0 {
		return nil, fmt.Errorf("cannot render an empty frame")
	}
	width := len(pixels[0])
	if width == 0 {
		return nil, fmt.Errorf("cannot render zero-width scanlines")
	}
	for i, row := range pixels {
		if len(row) != width {
			return nil, fmt.Errorf("scanline %d has width %d, want %d", i, len(row), width)
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, width, len(pixels)))
	for y, row := range pixels {
		for x, v := range row {
			c := cm.At(v)
			off := img.PixOffset(x, y)
			img.Pix[off] = c.R
			img.Pix[off+1] = c.G
			img.Pix[off+2] = c.B
			img.Pix[off+3] = 0xff
		}
	}
	return img, nil
}
