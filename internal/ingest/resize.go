package ingest

import (
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/depthframe.report/internal/monitoring"
)

// Method names an interpolation kernel for width resampling.
type Method string

// Supported interpolation methods.
const (
	Nearest  Method = "NEAREST"
	Bilinear Method = "BILINEAR"
	Bicubic  Method = "BICUBIC"
	Area     Method = "AREA"
	Lanczos4 Method = "LANCZOS4"
)

var kernels = map[Method]func(src []float64, dst []float64){
	Nearest:  resampleNearest,
	Bilinear: resampleBilinear,
	Bicubic:  resampleBicubic,
	Area:     resampleArea,
	Lanczos4: resampleLanczos4,
}

// Methods returns the sorted list of valid method names.
func Methods() []string {
	names := make([]string, 0, len(kernels))
	for m := range kernels {
		names = append(names, string(m))
	}
	sort.Strings(names)
	return names
}

// ResizeWidth resamples every row of pixels from its original width to
// targetWidth using the named kernel. The row count never changes; only the
// width is resampled. Interpolation runs in floating point and the result is
// clipped to [0, 255] and rounded to bytes as the final step. Downscale,
// identity, and upscale all take the same path.
func ResizeWidth(pixels [][]float64, targetWidth int, method Method) ([][]byte, error) {
	kernel, ok := kernels[method]
	if !ok {
		return nil, fmt.Errorf("unknown interpolation method %q, available: %v", method, Methods())
	}
	if targetWidth < 1 {
		return nil, fmt.Errorf("target width must be >= 1, got %d", targetWidth)
	}
	if len(pixels) == 0 {
		return nil, fmt.Errorf("no rows to resize")
	}
	srcWidth := len(pixels[0])
	if srcWidth < 1 {
		return nil, fmt.Errorf("rows must have at least one pixel")
	}
	for i, row := range pixels {
		if len(row) != srcWidth {
			return nil, fmt.Errorf("ragged row %d: width %d, expected %d", i, len(row), srcWidth)
		}
	}

	out := make([][]byte, len(pixels))
	dst := make([]float64, targetWidth)
	for i, row := range pixels {
		kernel(row, dst)
		quantized := make([]byte, targetWidth)
		for j, v := range dst {
			quantized[j] = quantize(v)
		}
		out[i] = quantized
	}

	monitoring.Logf("ingest: resized (%d, %d) -> (%d, %d) using %s",
		len(pixels), srcWidth, len(out), targetWidth, method)
	return out, nil
}

// quantize clips to [0, 255] and rounds to the nearest byte.
func quantize(v float64) byte {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return byte(math.Round(v))
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func resampleNearest(src, dst []float64) {
	scale := float64(len(src)) / float64(len(dst))
	for dx := range dst {
		sx := int(math.Floor(float64(dx) * scale))
		dst[dx] = src[clampIndex(sx, len(src))]
	}
}

func resampleBilinear(src, dst []float64) {
	scale := float64(len(src)) / float64(len(dst))
	for dx := range dst {
		fx := (float64(dx)+0.5)*scale - 0.5
		x0 := int(math.Floor(fx))
		t := fx - float64(x0)
		p0 := src[clampIndex(x0, len(src))]
		p1 := src[clampIndex(x0+1, len(src))]
		dst[dx] = (1-t)*p0 + t*p1
	}
}

// cubicWeight is the Catmull-Rom style cubic kernel with a = -0.75.
func cubicWeight(d float64) float64 {
	const a = -0.75
	d = math.Abs(d)
	switch {
	case d <= 1:
		return (a+2)*d*d*d - (a+3)*d*d + 1
	case d < 2:
		return a*d*d*d - 5*a*d*d + 8*a*d - 4*a
	default:
		return 0
	}
}

func resampleBicubic(src, dst []float64) {
	scale := float64(len(src)) / float64(len(dst))
	for dx := range dst {
		fx := (float64(dx)+0.5)*scale - 0.5
		x0 := int(math.Floor(fx))
		var v float64
		for ix := x0 - 1; ix <= x0+2; ix++ {
			v += src[clampIndex(ix, len(src))] * cubicWeight(fx-float64(ix))
		}
		dst[dx] = v
	}
}

// resampleArea averages the source pixels covered by each destination pixel's
// footprint, weighting partial pixels by their fractional coverage. When the
// footprint shrinks below one source pixel (upscaling) the same computation
// degrades gracefully to a narrow weighted average, so no special casing.
func resampleArea(src, dst []float64) {
	scale := float64(len(src)) / float64(len(dst))
	for dx := range dst {
		start := float64(dx) * scale
		end := start + scale
		if end > float64(len(src)) {
			end = float64(len(src))
		}

		var sum, weight float64
		for ix := int(math.Floor(start)); ix < len(src) && float64(ix) < end; ix++ {
			lo := math.Max(start, float64(ix))
			hi := math.Min(end, float64(ix+1))
			if hi <= lo {
				continue
			}
			cov := hi - lo
			sum += src[ix] * cov
			weight += cov
		}
		if weight > 0 {
			dst[dx] = sum / weight
		} else {
			dst[dx] = src[clampIndex(int(start), len(src))]
		}
	}
}

// lanczosWeight is the 4-lobe Lanczos window.
func lanczosWeight(d float64) float64 {
	const lobes = 4
	if d == 0 {
		return 1
	}
	if math.Abs(d) >= lobes {
		return 0
	}
	pd := math.Pi * d
	return lobes * math.Sin(pd) * math.Sin(pd/lobes) / (pd * pd)
}

func resampleLanczos4(src, dst []float64) {
	scale := float64(len(src)) / float64(len(dst))
	for dx := range dst {
		fx := (float64(dx)+0.5)*scale - 0.5
		x0 := int(math.Floor(fx))
		var v, wsum float64
		for ix := x0 - 3; ix <= x0+4; ix++ {
			w := lanczosWeight(fx - float64(ix))
			v += src[clampIndex(ix, len(src))] * w
			wsum += w
		}
		// The truncated window does not sum to exactly one; normalise so flat
		// inputs stay flat.
		dst[dx] = v / wsum
	}
}
