// Command ingest loads a depth-indexed scanline CSV into the scan
// database: validate and clean the raw rows, resize every scanline to
// the configured width, then store the result with provenance metadata.
//
// It also carries the schema migration subcommand:
//
//	ingest migrate <up|down|status|force|help>
package main

import (
	"flag"
	"log"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/depthframe.report/internal/config"
	"github.com/banshee-data/depthframe.report/internal/fsutil"
	"github.com/banshee-data/depthframe.report/internal/ingest"
	"github.com/banshee-data/depthframe.report/internal/scandb"
	"github.com/banshee-data/depthframe.report/internal/security"
	"github.com/banshee-data/depthframe.report/internal/timeutil"
	"github.com/banshee-data/depthframe.report/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to JSON config file (optional)")
	dbPath      = flag.String("db", "", "Path to the scan database (overrides config)")
	dataDir     = flag.String("data-dir", "", "Directory holding the source CSV (overrides config)")
	csvFilename = flag.String("csv", "", "Source CSV filename inside the data directory (overrides config)")
	targetWidth = flag.Int("target-width", 0, "Output scanline width in pixels (overrides config)")
	method      = flag.String("method", "", "Interpolation method: NEAREST, BILINEAR, BICUBIC, AREA, or LANCZOS4 (overrides config)")
)

func main() {
	flag.Parse()

	settings, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *dbPath != "" {
		settings.DBPath = *dbPath
	}
	if *dataDir != "" {
		settings.DataDir = *dataDir
	}
	if *csvFilename != "" {
		settings.CSVFilename = *csvFilename
	}
	if *targetWidth != 0 {
		settings.TargetWidth = *targetWidth
	}
	if *method != "" {
		settings.InterpolationMethod = *method
	}
	if err := settings.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("ingest %s (%s)", version.Version, version.GitSHA)

	if args := flag.Args(); len(args) > 0 && args[0] == "migrate" {
		scandb.RunMigrateCommand(args[1:], settings.DBPath)
		return
	}

	// The CSV path is assembled from flag and config values; keep it
	// inside the data directory.
	if err := security.ValidatePathWithinDirectory(settings.CSVPath(), settings.DataDir); err != nil {
		log.Fatalf("invalid source file: %v", err)
	}

	database, err := scandb.Open(settings.DBPath)
	if err != nil {
		log.Fatalf("failed to open scan database: %v", err)
	}
	defer database.Close()

	report, err := ingest.Run(fsutil.OSFileSystem{}, timeutil.RealClock{}, settings, database)
	if err != nil {
		log.Fatalf("ingestion failed: %v", err)
	}

	log.Printf("ingestion complete: %d raw rows -> %d stored rows (%d null rows, %d duplicate depths dropped)",
		report.RawRows, report.CleanRows, report.NullRowsDropped, report.DuplicateDepthsDropped)
	log.Printf("depth range [%g, %g] step %g monotonic=%v",
		report.DepthMin, report.DepthMax, report.DepthStep, report.Monotonic)
	log.Printf("scanlines resized %d -> %d px using %s",
		report.OriginalWidth, settings.TargetWidth, settings.InterpolationMethod)
}
