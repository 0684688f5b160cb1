// Package colormap maps grayscale scanlines onto named color ramps for
// visualization. Ramps are defined as hex color stops and expanded into
// 256-entry lookup tables at registration time, so applying a colormap
// to a frame is a table lookup per pixel.
package colormap

import (
	"fmt"
	"sort"
	"strings"
)

// Domain-standard ramps for depth image visualization.

var resistivityStops = []string{
	"#1a0a00",
	"#4d2600",
	"#8B4513",
	"#CD853F",
	"#DAA520",
	"#FFD700",
	"#FFEC8B",
	"#FFFACD",
	"#FFFFFF",
}

var geologicalStops = []string{
	"#000033",
	"#003366",
	"#336633",
	"#669933",
	"#CC9933",
	"#CC6633",
	"#993333",
	"#FFFFFF",
}

var highContrastStops = []string{
	"#000000",
	"#1a1a2e",
	"#16213e",
	"#0f3460",
	"#e94560",
	"#ff6b6b",
	"#ffd93d",
	"#FFFFFF",
}

var viridisStops = []string{
	"#440154",
	"#482878",
	"#3e4989",
	"#31688e",
	"#26828e",
	"#1f9e89",
	"#35b779",
	"#6ece58",
	"#b5de2b",
	"#fde725",
}

// RGB is one lookup table entry.
type RGB struct {
	R, G, B uint8
}

// Colormap is a named 256-entry ramp from grayscale value to color.
type Colormap struct {
	Name        string
	Description string
	lut         [256]RGB
}

// At returns the color for a grayscale value.
func (c *Colormap) At(v uint8) RGB {
	return c.lut[v]
}

// Info describes a registered colormap for listing endpoints.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Registry holds named colormaps. Safe for concurrent reads after
// construction; registration is not synchronized.
type Registry struct {
	colormaps map[string]*Colormap
}

// NewRegistry builds a registry preloaded with the domain-standard
// colormaps.
func NewRegistry() *Registry {
	r := &Registry{colormaps: make(map[string]*Colormap)}

	resistivity := buildLUT(resistivityStops)
	r.Register("resistivity", resistivity,
		"Brown to gold to white: standard for resistivity image logs")
	r.Register("conductivity", reverseLUT(resistivity),
		"White to gold to brown: inverted resistivity (conductivity convention)")
	r.Register("geological", buildLUT(geologicalStops),
		"Blue to green to brown to white: formation boundary interpretation")
	r.Register("high_contrast", buildLUT(highContrastStops),
		"Dark to red to yellow to white: fracture detection and thin-bed analysis")
	r.Register("gray", grayLUT(),
		"Standard grayscale: raw data visualization")
	r.Register("viridis", buildLUT(viridisStops),
		"Perceptually uniform: general-purpose scientific visualization")

	return r
}

// Register adds a colormap under the given name, replacing any existing
// entry with that name.
func (r *Registry) Register(name string, lut [256]RGB, description string) {
	r.colormaps[name] = &Colormap{Name: name, Description: description, lut: lut}
}

// Get returns the named colormap.
func (r *Registry) Get(name string) (*Colormap, error) {
	cm, ok := r.colormaps[name]
	if !ok {
		return nil, fmt.Errorf("unknown colormap %q (available: %s)",
			name, strings.Join(r.Names(), ", "))
	}
	return cm, nil
}

// Has reports whether a colormap name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.colormaps[name]
	return ok
}

// Names returns the registered colormap names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.colormaps))
	for name := range r.colormaps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns name and description for every registered colormap,
// sorted by name.
func (r *Registry) List() []Info {
	infos := make([]Info, 0, len(r.colormaps))
	for _, name := range r.Names() {
		cm := r.colormaps[name]
		infos = append(infos, Info{Name: cm.Name, Description: cm.Description})
	}
	return infos
}

// buildLUT expands evenly spaced hex color stops into a 256-entry table
// by linear interpolation between adjacent stops.
func buildLUT(stops []string) [256]RGB {
	if len(stops) < 2 {
		panic("colormap: ramp needs at least two stops")
	}
	colors := make([]RGB, len(stops))
	for i, s := range stops {
		colors[i] = parseHex(s)
	}

	var lut [256]RGB
	segments := len(colors) - 1
	for i := 0; i < 256; i++ {
		pos := float64(i) / 255.0 * float64(segments)
		seg := int(pos)
		if seg >= segments {
			seg = segments - 1
		}
		t := pos - float64(seg)
		a, b := colors[seg], colors[seg+1]
		lut[i] = RGB{
			R: lerp(a.R, b.R, t),
			G: lerp(a.G, b.G, t),
			B: lerp(a.B, b.B, t),
		}
	}
	return lut
}

func grayLUT() [256]RGB {
	var lut [256]RGB
	for i := 0; i < 256; i++ {
		v := uint8(i)
		lut[i] = RGB{R: v, G: v, B: v}
	}
	return lut
}

func reverseLUT(lut [256]RGB) [256]RGB {
	var out [256]RGB
	for i := 0; i < 256; i++ {
		out[i] = lut[255-i]
	}
	return out
}

func lerp(a, b uint8, t float64) uint8 {
	v := float64(a) + (float64(b)-float64(a))*t
	return uint8(v + 0.5)
}

// parseHex decodes a "#RRGGBB" color. Ramp stops are package constants,
// so malformed input is a programming error and panics.
func parseHex(s string) RGB {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		panic(fmt.Sprintf("colormap: malformed hex color %q", s))
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		panic(fmt.Sprintf("colormap: malformed hex color %q: %v", s, err))
	}
	return RGB{R: r, G: g, B: b}
}
