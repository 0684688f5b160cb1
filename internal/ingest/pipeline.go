package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/depthframe.report/internal/config"
	"github.com/banshee-data/depthframe.report/internal/fsutil"
	"github.com/banshee-data/depthframe.report/internal/monitoring"
	"github.com/banshee-data/depthframe.report/internal/scandb"
	"github.com/banshee-data/depthframe.report/internal/timeutil"
)

// Run executes the full ingestion pipeline: load, validate and clean, resize,
// store. Idempotent: re-running with the same input reproduces the same
// stored state through upsert. Any stage failure aborts the run before the
// store is touched; the bulk write itself is all-or-nothing. Metadata is
// replaced wholesale only after the row write succeeds.
func Run(fsys fsutil.FileSystem, clock timeutil.Clock, settings config.Settings, database *scandb.DB) (*ValidationReport, error) {
	monitoring.Logf("ingest: starting pipeline for %s", settings.CSVPath())

	table, err := LoadCSV(fsys, settings.CSVPath())
	if err != nil {
		return nil, err
	}
	if settings.OriginalWidth != table.Width() {
		monitoring.Logf("ingest: configured original_width %d != observed %d, using observed",
			settings.OriginalWidth, table.Width())
	}

	depths, pixels, report, err := ValidateAndClean(table)
	if err != nil {
		return nil, err
	}

	resized, err := ResizeWidth(pixels, settings.TargetWidth, Method(settings.InterpolationMethod))
	if err != nil {
		return nil, err
	}

	rowCount, err := database.BulkUpsertScans(depths, resized)
	if err != nil {
		return nil, fmt.Errorf("store scan rows: %w", err)
	}

	meta, err := buildMetadata(report, rowCount, settings, clock)
	if err != nil {
		return nil, err
	}
	if err := database.ReplaceMetadata(meta); err != nil {
		return nil, fmt.Errorf("store metadata: %w", err)
	}

	monitoring.Logf("ingest: complete: %d rows stored at width %d", rowCount, settings.TargetWidth)
	return report, nil
}

// buildMetadata derives the provenance map written alongside each ingest so
// the API can self-describe how the stored dataset was produced.
func buildMetadata(report *ValidationReport, rowCount int, settings config.Settings, clock timeutil.Clock) (map[string]string, error) {
	summary, err := json.Marshal(map[string]interface{}{
		"raw_rows":                 report.RawRows,
		"clean_rows":               report.CleanRows,
		"null_rows_dropped":        report.NullRowsDropped,
		"duplicate_depths_dropped": report.DuplicateDepthsDropped,
		"is_monotonic":             report.Monotonic,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal validation summary: %w", err)
	}

	return map[string]string{
		"original_width":       strconv.Itoa(report.OriginalWidth),
		"resized_width":        strconv.Itoa(settings.TargetWidth),
		"depth_min":            formatFloat(report.DepthMin),
		"depth_max":            formatFloat(report.DepthMax),
		"depth_step":           formatFloat(report.DepthStep),
		"row_count":            strconv.Itoa(rowCount),
		"interpolation_method": settings.InterpolationMethod,
		"source_file":          settings.CSVFilename,
		"pixel_range_original": fmt.Sprintf("[%.0f, %.0f]", report.PixelMin, report.PixelMax),
		"validation_summary":   string(summary),
		"ingest_run_id":        uuid.New().String(),
		"ingested_at":          clock.Now().UTC().Format(time.RFC3339),
	}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
