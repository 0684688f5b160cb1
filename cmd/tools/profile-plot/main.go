// Command profile-plot renders a depth profile chart from the scan
// database: per-scanline mean intensity with p10/p90 bands, plotted
// against depth. Useful for eyeballing ingest results without the HTTP
// server running.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"sort"

	_ "modernc.org/sqlite"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/depthframe.report/internal/scandb"
)

var (
	dbPath   = flag.String("db", "data/image_store.db", "Path to the scan database")
	outFile  = flag.String("out", "depth_profile.png", "Output PNG file")
	depthMin = flag.Float64("depth-min", 0, "Lower depth bound (defaults to stored minimum)")
	depthMax = flag.Float64("depth-max", 0, "Upper depth bound (defaults to stored maximum)")
)

// profilePoint is one scanline's intensity summary.
type profilePoint struct {
	depth float64
	mean  float64
	p10   float64
	p90   float64
}

func main() {
	flag.Parse()

	db, err := scandb.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open scan database: %v", err)
	}
	defer db.Close()

	points, err := loadProfile(db, *depthMin, *depthMax)
	if err != nil {
		log.Fatalf("failed to load profile: %v", err)
	}
	if len(points) == 0 {
		log.Fatal("no scan rows in the requested depth range")
	}

	if err := renderProfile(points, *outFile); err != nil {
		log.Fatalf("failed to render profile: %v", err)
	}
	log.Printf("wrote %s (%d scanlines, depth [%g, %g])",
		*outFile, len(points), points[0].depth, points[len(points)-1].depth)
}

func loadProfile(db *scandb.DB, depthMin, depthMax float64) ([]profilePoint, error) {
	dataMin, dataMax, err := db.DepthBounds()
	if err != nil {
		return nil, err
	}
	if depthMin == 0 && depthMax == 0 {
		depthMin, depthMax = dataMin, dataMax
	}

	rows, err := db.QueryDepthRange(depthMin, depthMax)
	if err != nil {
		return nil, err
	}

	points := make([]profilePoint, 0, len(rows))
	for _, row := range rows {
		if len(row.Pixels) == 0 {
			continue
		}
		vals := make([]float64, len(row.Pixels))
		for i, v := range row.Pixels {
			vals[i] = float64(v)
		}
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)

		points = append(points, profilePoint{
			depth: row.Depth,
			mean:  stat.Mean(vals, nil),
			p10:   stat.Quantile(0.10, stat.LinInterp, sorted, nil),
			p90:   stat.Quantile(0.90, stat.LinInterp, sorted, nil),
		})
	}
	return points, nil
}

func renderProfile(points []profilePoint, outFile string) error {
	p := plot.New()
	p.Title.Text = "Scanline Intensity by Depth"
	p.X.Label.Text = "Depth"
	p.Y.Label.Text = "Intensity"
	p.Y.Min = 0
	p.Y.Max = 255

	meanPts := make(plotter.XYs, len(points))
	p10Pts := make(plotter.XYs, len(points))
	p90Pts := make(plotter.XYs, len(points))
	for i, pt := range points {
		meanPts[i] = plotter.XY{X: pt.depth, Y: pt.mean}
		p10Pts[i] = plotter.XY{X: pt.depth, Y: pt.p10}
		p90Pts[i] = plotter.XY{X: pt.depth, Y: pt.p90}
	}

	series := []struct {
		name   string
		pts    plotter.XYs
		color  color.Color
		dashed bool
	}{
		{"mean", meanPts, color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 255}, false},
		{"p10", p10Pts, color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 255}, true},
		{"p90", p90Pts, color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 255}, true},
	}
	for _, s := range series {
		line, err := plotter.NewLine(s.pts)
		if err != nil {
			return err
		}
		line.Color = s.color
		line.Width = vg.Points(1)
		if s.dashed {
			line.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		}
		p.Add(line)
		p.Legend.Add(s.name, line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, outFile); err != nil {
		return fmt.Errorf("save profile plot: %w", err)
	}
	return nil
}
