package colormap

import (
	"bytes"
	"image"
	"image/png"
	"reflect"
	"strings"
	"testing"
)

func TestRegistryNamesSorted(t *testing.T) {
	r := NewRegistry()
	want := []string{"conductivity", "geological", "gray", "high_contrast", "resistivity", "viridis"}
	if got := r.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestRegistryListHasDescriptions(t *testing.T) {
	r := NewRegistry()
	for _, info := range r.List() {
		if info.Description == "" {
			t.Errorf("colormap %q has no description", info.Name)
		}
	}
}

func TestGetUnknownNameListsAvailable(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("plasma")
	if err == nil {
		t.Fatal("expected error for unknown colormap")
	}
	if !strings.Contains(err.Error(), "resistivity") {
		t.Errorf("error should list available colormaps, got %q", err)
	}
}

func TestGrayIsIdentity(t *testing.T) {
	r := NewRegistry()
	cm, err := r.Get("gray")
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range []uint8{0, 1, 64, 128, 200, 255} {
		if got := cm.At(v); got != (RGB{v, v, v}) {
			t.Errorf("gray.At(%d) = %+v, want {%d %d %d}", v, got, v, v, v)
		}
	}
}

func TestConductivityIsReversedResistivity(t *testing.T) {
	r := NewRegistry()
	res, _ := r.Get("resistivity")
	cond, _ := r.Get("conductivity")
	for _, v := range []uint8{0, 17, 100, 254, 255} {
		if cond.At(v) != res.At(255-v) {
			t.Errorf("conductivity.At(%d) = %+v, want resistivity.At(%d) = %+v",
				v, cond.At(v), 255-v, res.At(255-v))
		}
	}
}

func TestLUTEndpointsMatchStops(t *testing.T) {
	r := NewRegistry()

	res, _ := r.Get("resistivity")
	if got := res.At(0); got != (RGB{0x1a, 0x0a, 0x00}) {
		t.Errorf("resistivity.At(0) = %+v, want first stop #1a0a00", got)
	}
	if got := res.At(255); got != (RGB{0xff, 0xff, 0xff}) {
		t.Errorf("resistivity.At(255) = %+v, want last stop #FFFFFF", got)
	}

	geo, _ := r.Get("geological")
	if got := geo.At(0); got != (RGB{0x00, 0x00, 0x33}) {
		t.Errorf("geological.At(0) = %+v, want first stop #000033", got)
	}
}

func TestRenderPNGRoundTrip(t *testing.T) {
	r := NewRegistry()
	pixels := [][]byte{
		{0, 128, 255},
		{255, 128, 0},
	}

	data, err := r.Render("gray", pixels, FormatPNG, 90)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding rendered PNG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 3 || bounds.Dy() != 2 {
		t.Fatalf("rendered image is %dx%d, want 3x2", bounds.Dx(), bounds.Dy())
	}

	// Gray colormap must reproduce the input values.
	r0, g0, b0, _ := img.At(0, 0).RGBA()
	if r0>>8 != 0 || g0>>8 != 0 || b0>>8 != 0 {
		t.Errorf("pixel (0,0) = (%d,%d,%d), want black", r0>>8, g0>>8, b0>>8)
	}
	r2, g2, b2, _ := img.At(2, 0).RGBA()
	if r2>>8 != 255 || g2>>8 != 255 || b2>>8 != 255 {
		t.Errorf("pixel (2,0) = (%d,%d,%d), want white", r2>>8, g2>>8, b2>>8)
	}
}

func TestRenderJPEG(t *testing.T) {
	r := NewRegistry()
	pixels := [][]byte{{0, 50, 100, 150, 200, 250}}

	data, err := r.Render("resistivity", pixels, FormatJPEG, 90)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding rendered JPEG: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("decoded format = %q, want jpeg", format)
	}
	if cfg.Width != 6 || cfg.Height != 1 {
		t.Errorf("rendered image is %dx%d, want 6x1", cfg.Width, cfg.Height)
	}
}

func TestRenderErrors(t *testing.T) {
	r := NewRegistry()
	valid := [][]byte{{1, 2, 3}}

	cases := []struct {
		name    string
		cmap    string
		pixels  [][]byte
		format  string
		quality int
	}{
		{"unknown colormap", "plasma", valid, FormatPNG, 90},
		{"unknown format", "gray", valid, "bmp", 90},
		{"empty frame", "gray", nil, FormatPNG, 90},
		{"zero-width scanline", "gray", [][]byte{{}}, FormatPNG, 90},
		{"ragged scanlines", "gray", [][]byte{{1, 2}, {3}}, FormatPNG, 90},
		{"jpeg quality too low", "gray", valid, FormatJPEG, 0},
		{"jpeg quality too high", "gray", valid, FormatJPEG, 101},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := r.Render(tc.cmap, tc.pixels, tc.format, tc.quality); err == nil {
				t.Errorf("Render(%q, ..., %q, %d) succeeded, want error", tc.cmap, tc.format, tc.quality)
			}
		})
	}
}

func TestRenderFormatCaseInsensitive(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Render("gray", [][]byte{{1}}, "PNG", 90); err != nil {
		t.Errorf("uppercase format rejected: %v", err)
	}
}
