package ingest

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/banshee-data/depthframe.report/internal/config"
	"github.com/banshee-data/depthframe.report/internal/fsutil"
	"github.com/banshee-data/depthframe.report/internal/scandb"
	"github.com/banshee-data/depthframe.report/internal/timeutil"
)

func pipelineFixture(t *testing.T, csv string) (fsutil.FileSystem, config.Settings, *scandb.DB) {
	t.Helper()

	fsys := fsutil.NewMemoryFileSystem()
	if err := fsys.WriteFile(filepath.Join("data", "scan.csv"), []byte(csv), 0644); err != nil {
		t.Fatal(err)
	}

	settings := config.Defaults()
	settings.DataDir = "data"
	settings.CSVFilename = "scan.csv"
	settings.DBPath = filepath.Join(t.TempDir(), "pipeline.db")
	settings.OriginalWidth = 4
	settings.TargetWidth = 3

	db, err := scandb.Open(settings.DBPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return fsys, settings, db
}

func testClock() *timeutil.MockClock {
	return timeutil.NewMockClock(time.Date(2026, 5, 2, 11, 30, 0, 0, time.UTC))
}

const fixtureCSV = "depth,p0,p1,p2,p3\n" +
	"100.0,10,20,30,40\n" +
	"100.5,50,60,70,80\n" +
	"100.0,99,99,99,99\n" +
	"101.0,5,,15,\n" +
	",,,,\n"

func TestRunEndToEnd(t *testing.T) {
	fsys, settings, db := pipelineFixture(t, fixtureCSV)

	report, err := Run(fsys, testClock(), settings, db)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.RawRows != 5 || report.CleanRows != 3 {
		t.Errorf("RawRows/CleanRows = %d/%d, want 5/3", report.RawRows, report.CleanRows)
	}
	if report.NullRowsDropped != 1 || report.DuplicateDepthsDropped != 1 {
		t.Errorf("drops = null %d, dup %d; want 1, 1", report.NullRowsDropped, report.DuplicateDepthsDropped)
	}

	// Stored rows: resized to target width, ordered by depth.
	rows, err := db.QueryDepthRange(100.0, 101.0)
	if err != nil {
		t.Fatalf("QueryDepthRange: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("stored %d rows, want 3", len(rows))
	}
	for _, r := range rows {
		if len(r.Pixels) != settings.TargetWidth {
			t.Errorf("stored width %d, want %d", len(r.Pixels), settings.TargetWidth)
		}
	}
	// Duplicate depth 100.0 kept the first occurrence, not the 99s row.
	if rows[0].Pixels[0] == 99 {
		t.Error("duplicate row was kept instead of first occurrence")
	}

	// Provenance metadata written after the rows.
	meta, err := db.AllMetadata()
	if err != nil {
		t.Fatalf("AllMetadata: %v", err)
	}
	for _, key := range []string{
		"original_width", "resized_width", "depth_min", "depth_max", "depth_step",
		"row_count", "interpolation_method", "source_file", "pixel_range_original",
		"validation_summary", "ingest_run_id", "ingested_at",
	} {
		if _, ok := meta[key]; !ok {
			t.Errorf("metadata missing key %q", key)
		}
	}
	if meta["row_count"] != "3" {
		t.Errorf("row_count = %q, want 3", meta["row_count"])
	}
	if meta["resized_width"] != "3" {
		t.Errorf("resized_width = %q, want 3", meta["resized_width"])
	}
	if meta["source_file"] != "scan.csv" {
		t.Errorf("source_file = %q", meta["source_file"])
	}
	if meta["ingested_at"] != "2026-05-02T11:30:00Z" {
		t.Errorf("ingested_at = %q, want mock clock time", meta["ingested_at"])
	}

	var summary map[string]interface{}
	if err := json.Unmarshal([]byte(meta["validation_summary"]), &summary); err != nil {
		t.Fatalf("validation_summary is not JSON: %v", err)
	}
	if summary["duplicate_depths_dropped"].(float64) != 1 {
		t.Errorf("summary dup drops = %v, want 1", summary["duplicate_depths_dropped"])
	}
}

func TestRunIsIdempotent(t *testing.T) {
	fsys, settings, db := pipelineFixture(t, fixtureCSV)

	if _, err := Run(fsys, testClock(), settings, db); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	firstRows, err := db.QueryDepthRange(0, 1000)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Run(fsys, testClock(), settings, db); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	secondRows, err := db.QueryDepthRange(0, 1000)
	if err != nil {
		t.Fatal(err)
	}

	if len(firstRows) != len(secondRows) {
		t.Fatalf("row count changed: %d -> %d", len(firstRows), len(secondRows))
	}
	for i := range firstRows {
		if firstRows[i].Depth != secondRows[i].Depth {
			t.Errorf("row %d depth changed: %g -> %g", i, firstRows[i].Depth, secondRows[i].Depth)
		}
	}

	n, err := db.RowCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("RowCount after re-ingest = %d, want 3", n)
	}
}

func TestRunUnknownMethodLeavesStoreUntouched(t *testing.T) {
	fsys, settings, db := pipelineFixture(t, fixtureCSV)
	settings.InterpolationMethod = "SPLINE"

	if _, err := Run(fsys, testClock(), settings, db); err == nil {
		t.Fatal("expected error for unknown interpolation method")
	}

	populated, err := db.IsPopulated()
	if err != nil {
		t.Fatal(err)
	}
	if populated {
		t.Error("failed run must not persist rows")
	}
	meta, err := db.AllMetadata()
	if err != nil {
		t.Fatal(err)
	}
	if len(meta) != 0 {
		t.Errorf("failed run must not persist metadata, got %v", meta)
	}
}

func TestRunMissingCSV(t *testing.T) {
	fsys, settings, db := pipelineFixture(t, fixtureCSV)
	settings.CSVFilename = "absent.csv"

	if _, err := Run(fsys, testClock(), settings, db); err == nil {
		t.Fatal("expected error for missing source file")
	}
	if populated, _ := db.IsPopulated(); populated {
		t.Error("failed run must not persist rows")
	}
}
