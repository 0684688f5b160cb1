// Package ingest implements the offline scanline ingestion pipeline:
// CSV load, validation and cleaning, width resampling, and storage.
package ingest

import (
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/depthframe.report/internal/fsutil"
	"github.com/banshee-data/depthframe.report/internal/monitoring"
)

// DepthColumn is the required header name of the depth key column.
const DepthColumn = "depth"

// RawRow is one unvalidated scanline. Missing cells are NaN.
type RawRow struct {
	Depth  float64
	Pixels []float64
}

// Table is the raw tabular input to validation: a depth column plus a fixed
// set of pixel columns.
type Table struct {
	PixelColumns []string
	Rows         []RawRow
}

// Width returns the number of pixel columns.
func (t *Table) Width() int { return len(t.PixelColumns) }

// LoadCSV reads a scanline CSV through fsys. The header must contain a
// "depth" column; every other column is a pixel column. Blank cells become
// NaN; any other unparseable cell is an input error.
func LoadCSV(fsys fsutil.FileSystem, path string) (*Table, error) {
	if !fsys.Exists(path) {
		return nil, fmt.Errorf("data file not found: %s (place the CSV in the data directory)", path)
	}

	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("%s: empty file, expected a header row", path)
	}

	header := records[0]
	depthIdx := -1
	for i, name := range header {
		if strings.TrimSpace(name) == DepthColumn {
			depthIdx = i
			break
		}
	}
	if depthIdx < 0 {
		return nil, fmt.Errorf("%s: no %q column in header %v", path, DepthColumn, header)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%s: no pixel columns", path)
	}

	pixelCols := make([]string, 0, len(header)-1)
	for i, name := range header {
		if i != depthIdx {
			pixelCols = append(pixelCols, strings.TrimSpace(name))
		}
	}

	t := &Table{PixelColumns: pixelCols}
	for lineNo, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("%s line %d: %d fields, expected %d", path, lineNo+2, len(rec), len(header))
		}
		row := RawRow{Pixels: make([]float64, 0, len(pixelCols))}
		for i, cell := range rec {
			v, err := parseCell(cell)
			if err != nil {
				return nil, fmt.Errorf("%s line %d column %q: %w", path, lineNo+2, header[i], err)
			}
			if i == depthIdx {
				row.Depth = v
			} else {
				row.Pixels = append(row.Pixels, v)
			}
		}
		t.Rows = append(t.Rows, row)
	}

	monitoring.Logf("ingest: loaded %d rows x %d pixel columns from %s", len(t.Rows), t.Width(), path)
	return t, nil
}

// parseCell converts one CSV cell to a float. Blank cells (common trailing
// artifacts) become NaN rather than errors.
func parseCell(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", cell)
	}
	return v, nil
}
