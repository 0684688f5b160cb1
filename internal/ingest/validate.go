package ingest

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/depthframe.report/internal/monitoring"
)

// ValidationReport summarises the data quality checks of one cleaning pass.
type ValidationReport struct {
	RawRows                int     `json:"raw_rows"`
	CleanRows              int     `json:"clean_rows"`
	NullRowsDropped        int     `json:"null_rows_dropped"`
	DuplicateDepthsDropped int     `json:"duplicate_depths_dropped"`
	DepthMin               float64 `json:"depth_min"`
	DepthMax               float64 `json:"depth_max"`
	DepthStep              float64 `json:"depth_step"`
	Monotonic              bool    `json:"is_monotonic"`
	PixelMin               float64 `json:"pixel_min"`
	PixelMax               float64 `json:"pixel_max"`
	OriginalWidth          int     `json:"original_width"`
}

// ValidateAndClean turns a raw table into sorted, deduplicated, fully-valued
// arrays ready for resampling. The step order is fixed: drop fully-null rows,
// drop null-depth rows, sort, deduplicate, impute, clip, then measure.
// Reordering changes the reported depth step, so keep it.
//
// Returned pixels are float64 in [0, 255]; quantization happens after resize.
func ValidateAndClean(t *Table) ([]float64, [][]float64, *ValidationReport, error) {
	rawRows := len(t.Rows)
	width := t.Width()

	// Drop rows where every value, depth included, is missing. These are
	// trailing CSV artifacts.
	kept := make([]RawRow, 0, rawRows)
	nullRowsDropped := 0
	for _, row := range t.Rows {
		if rowFullyNull(row) {
			nullRowsDropped++
			continue
		}
		kept = append(kept, row)
	}
	if nullRowsDropped > 0 {
		monitoring.Logf("ingest: dropping %d fully-null rows", nullRowsDropped)
	}

	// Drop rows with a missing depth; they are unusable without a key.
	withDepth := kept[:0]
	depthNullDropped := 0
	for _, row := range kept {
		if math.IsNaN(row.Depth) {
			depthNullDropped++
			continue
		}
		withDepth = append(withDepth, row)
	}
	if depthNullDropped > 0 {
		monitoring.Logf("ingest: dropping %d rows with null depth", depthNullDropped)
	}

	if len(withDepth) == 0 {
		return nil, nil, nil, fmt.Errorf("no usable rows after cleaning (%d raw rows)", rawRows)
	}

	// Sort ascending by depth. The sort is stable so "keep first occurrence"
	// below honors input order for equal depths.
	sort.SliceStable(withDepth, func(i, j int) bool {
		return withDepth[i].Depth < withDepth[j].Depth
	})

	// Drop duplicate depths, keeping the first occurrence.
	deduped := make([]RawRow, 0, len(withDepth))
	duplicatesDropped := 0
	for i, row := range withDepth {
		if i > 0 && row.Depth == deduped[len(deduped)-1].Depth {
			duplicatesDropped++
			continue
		}
		deduped = append(deduped, row)
	}
	if duplicatesDropped > 0 {
		monitoring.Logf("ingest: dropping %d duplicate depth entries", duplicatesDropped)
	}

	// Impute remaining missing pixels with the row mean of present pixels.
	// A row with a valid depth but no pixel values at all has no defined
	// mean; that is a hard error rather than silent NaN propagation.
	depths := make([]float64, len(deduped))
	pixels := make([][]float64, len(deduped))
	imputedRows := 0
	for i, row := range deduped {
		depths[i] = row.Depth
		pixels[i] = append([]float64(nil), row.Pixels...)

		sum, n := 0.0, 0
		for _, p := range row.Pixels {
			if !math.IsNaN(p) {
				sum += p
				n++
			}
		}
		if n == len(row.Pixels) {
			continue
		}
		if n == 0 {
			return nil, nil, nil, fmt.Errorf("row at depth %g has no pixel values; cannot impute row mean", row.Depth)
		}
		mean := sum / float64(n)
		for j, p := range pixels[i] {
			if math.IsNaN(p) {
				pixels[i][j] = mean
			}
		}
		imputedRows++
	}
	if imputedRows > 0 {
		monitoring.Logf("ingest: filled missing pixels in %d rows with row means", imputedRows)
	}

	// Record the observed pixel range before clipping, then clip to [0, 255].
	pxMin, pxMax := math.Inf(1), math.Inf(-1)
	for _, row := range pixels {
		for _, p := range row {
			if p < pxMin {
				pxMin = p
			}
			if p > pxMax {
				pxMax = p
			}
		}
	}
	if pxMin < 0 || pxMax > 255 {
		monitoring.Logf("ingest: pixel values outside [0, 255]: [%.1f, %.1f], clipping", pxMin, pxMax)
	}
	clipMatrix(pixels)

	// Depth step analysis over consecutive differences of the cleaned keys.
	diffs := make([]float64, 0, len(depths)-1)
	monotonic := true
	for i := 1; i < len(depths); i++ {
		d := depths[i] - depths[i-1]
		if d <= 0 {
			monotonic = false
		}
		diffs = append(diffs, d)
	}
	depthStep := 0.0
	if len(diffs) > 0 {
		sorted := append([]float64(nil), diffs...)
		sort.Float64s(sorted)
		depthStep = stat.Quantile(0.5, stat.LinInterp, sorted, nil)
	}

	report := &ValidationReport{
		RawRows:                rawRows,
		CleanRows:              len(depths),
		NullRowsDropped:        nullRowsDropped,
		DuplicateDepthsDropped: duplicatesDropped,
		DepthMin:               depths[0],
		DepthMax:               depths[len(depths)-1],
		DepthStep:              depthStep,
		Monotonic:              monotonic,
		PixelMin:               pxMin,
		PixelMax:               pxMax,
		OriginalWidth:          width,
	}

	monitoring.Logf("ingest: validation complete: %d clean rows, depth %.1f-%.1f, pixels [%.0f, %.0f]",
		report.CleanRows, report.DepthMin, report.DepthMax, report.PixelMin, report.PixelMax)

	return depths, pixels, report, nil
}

func rowFullyNull(row RawRow) bool {
	if !math.IsNaN(row.Depth) {
		return false
	}
	for _, p := range row.Pixels {
		if !math.IsNaN(p) {
			return false
		}
	}
	return true
}

// clipMatrix clamps every value to the closed range [0, 255] in place.
func clipMatrix(pixels [][]float64) {
	for _, row := range pixels {
		for j, p := range row {
			if p < 0 {
				row[j] = 0
			} else if p > 255 {
				row[j] = 255
			}
		}
	}
}
