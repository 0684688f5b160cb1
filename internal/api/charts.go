package api

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/banshee-data/depthframe.report/internal/scandb"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Debugging-only chart endpoints (no auth) to eyeball the stored dataset
// without a frontend. Rendered server-side with go-echarts.

const dashboardHTML = `<!DOCTYPE html>
<html>
<head>
<title>Scan Store Debug Charts</title>
<style>
body { background: #111; color: #ddd; font-family: sans-serif; margin: 1em; }
iframe { border: 1px solid #333; width: 100%%; height: 780px; margin-bottom: 1em; }
</style>
</head>
<body>
<h1>Scan Store Debug Charts</h1>
<iframe src="/debug/charts/coverage%s"></iframe>
<iframe src="/debug/charts/histogram%s"></iframe>
</body>
</html>
`

// handleChartsDashboard renders a simple dashboard with iframes to the
// debug charts.
func (s *Server) handleChartsDashboard(w http.ResponseWriter, r *http.Request) {
	qs := ""
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if _, err := strconv.Atoi(mp); err == nil {
			qs = "?max_points=" + mp
		}
	}

	doc := fmt.Sprintf(dashboardHTML, qs, qs)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(doc))
}

// handleCoverageChart renders mean scanline intensity against depth for
// the full stored range. Query params:
//   - max_points (optional; default 4000) to reduce payload size
func (s *Server) handleCoverageChart(w http.ResponseWriter, r *http.Request) {
	rows, ok := s.allRowsForChart(w, r)
	if !ok {
		return
	}

	maxPoints := 4000
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v > 100 && v <= 50000 {
			maxPoints = v
		}
	}

	// Downsample by stride to stay within maxPoints
	stride := 1
	if len(rows) > maxPoints {
		stride = int(math.Ceil(float64(len(rows)) / float64(maxPoints)))
	}

	depths := make([]string, 0, len(rows)/stride+1)
	means := make([]opts.LineData, 0, len(rows)/stride+1)
	for i := 0; i < len(rows); i += stride {
		row := rows[i]
		sum := 0
		for _, v := range row.Pixels {
			sum += int(v)
		}
		mean := 0.0
		if len(row.Pixels) > 0 {
			mean = float64(sum) / float64(len(row.Pixels))
		}
		depths = append(depths, formatDepth(row.Depth))
		means = append(means, opts.LineData{Value: mean})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Scan Coverage", Theme: "dark", Width: "100%", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{Title: "Mean Intensity by Depth", Subtitle: fmt.Sprintf("rows=%d stride=%d", len(means), stride)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Depth", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Mean intensity", NameLocation: "middle", NameGap: 30, Min: 0, Max: 255}),
	)
	line.SetXAxis(depths).AddSeries("mean intensity", means)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleHistogramChart renders a bar chart of the grayscale value
// distribution across all stored scanlines, bucketed into 32 bins.
func (s *Server) handleHistogramChart(w http.ResponseWriter, r *http.Request) {
	rows, ok := s.allRowsForChart(w, r)
	if !ok {
		return
	}

	const buckets = 32
	const bucketWidth = 256 / buckets
	counts := make([]int, buckets)
	for _, row := range rows {
		for _, v := range row.Pixels {
			counts[int(v)/bucketWidth]++
		}
	}

	labels := make([]string, buckets)
	data := make([]opts.BarData, buckets)
	for i := range counts {
		labels[i] = fmt.Sprintf("%d-%d", i*bucketWidth, (i+1)*bucketWidth-1)
		data[i] = opts.BarData{Value: counts[i]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Intensity Histogram", Theme: "dark", Width: "100%", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{Title: "Grayscale Value Distribution", Subtitle: fmt.Sprintf("rows=%d", len(rows))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Intensity bucket"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Pixel count"}),
	)
	bar.SetXAxis(labels).
		AddSeries("pixels", data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}),
		)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// allRowsForChart loads every stored scanline, writing the appropriate
// error response when the store is empty or unreadable. The bool result
// reports whether the caller should proceed.
func (s *Server) allRowsForChart(w http.ResponseWriter, r *http.Request) ([]scandb.ScanRow, bool) {
	dataMin, dataMax, err := s.db.DepthBounds()
	if err != nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "database is empty; run ingestion first")
		return nil, false
	}
	rows, err := s.db.QueryDepthRange(dataMin, dataMax)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to query scan rows: %v", err))
		return nil, false
	}
	if len(rows) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "no scan rows available")
		return nil, false
	}
	return rows, true
}
