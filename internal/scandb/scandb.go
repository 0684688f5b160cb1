// Package scandb persists depth-indexed scanlines and dataset provenance in
// SQLite.
//
// Two tables: image_scans keyed by depth (one fixed-width byte row per
// depth), and metadata as a string key/value store. All SQL lives here so
// callers never see the schema. A single ingestion run is the only writer;
// the HTTP server issues concurrent reads, which WAL mode serves without
// blocking.
package scandb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/depthframe.report/internal/monitoring"
)

// ErrNoScanData is returned by DepthBounds when the store holds no rows.
// Callers must distinguish this from a query that matched nothing.
var ErrNoScanData = errors.New("no scan data in database")

// ScanRow is a single depth-indexed scanline. Pixels is the resized,
// byte-quantized row; all rows written by one ingest share a width.
type ScanRow struct {
	Depth  float64 `json:"depth"`
	Pixels []byte  `json:"pixels"`
}

// DB wraps the SQLite handle for the scan store.
type DB struct {
	*sql.DB
	path string
}

// Open opens (or creates) the scan database at path, applies connection
// pragmas, and ensures the schema exists. The parent directory is created if
// missing.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	db := &DB{DB: sqlDB, path: path}
	if err := db.ensureSchema(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	monitoring.Logf("scandb: opened %s", path)
	return db, nil
}

// Path returns the on-disk location of the database.
func (db *DB) Path() string { return db.path }

// ensureSchema creates the two tables if they do not exist. Managed
// deployments run the equivalent migrations instead; the statements are kept
// in lockstep.
func (db *DB) ensureSchema() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS image_scans (
			depth       REAL PRIMARY KEY,
			pixel_data  BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_image_scans_depth ON image_scans(depth);
		CREATE TABLE IF NOT EXISTS metadata (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// BulkUpsertScans writes every (depth, row) pair in a single transaction.
// Existing depths are replaced, never duplicated. The inputs are validated in
// full before any SQL runs: a length mismatch or a ragged row width rejects
// the whole call with nothing written. Returns the number of rows written.
func (db *DB) BulkUpsertScans(depths []float64, rows [][]byte) (int, error) {
	if len(depths) != len(rows) {
		return 0, fmt.Errorf("shape mismatch: %d depths vs %d pixel rows", len(depths), len(rows))
	}
	if len(depths) == 0 {
		return 0, fmt.Errorf("no rows to write")
	}
	width := len(rows[0])
	if width == 0 {
		return 0, fmt.Errorf("pixel rows must not be empty")
	}
	for i, row := range rows {
		if len(row) != width {
			return 0, fmt.Errorf("ragged pixel row %d: width %d, expected %d", i, len(row), width)
		}
	}

	err := retryOnBusy(func() error {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		stmt, err := tx.Prepare("INSERT OR REPLACE INTO image_scans (depth, pixel_data) VALUES (?, ?)")
		if err != nil {
			return fmt.Errorf("prepare upsert: %w", err)
		}
		defer stmt.Close()

		for i := range depths {
			if _, err := stmt.Exec(depths[i], rows[i]); err != nil {
				return fmt.Errorf("upsert depth %g: %w", depths[i], err)
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, err
	}

	monitoring.Logf("scandb: upserted %d scan rows (width %d)", len(rows), width)
	return len(rows), nil
}

// QueryDepthRange returns all rows with min <= depth <= max, ordered by
// ascending depth. A range that matches nothing returns an empty slice.
func (db *DB) QueryDepthRange(depthMin, depthMax float64) ([]ScanRow, error) {
	rows, err := db.Query(
		`SELECT depth, pixel_data FROM image_scans
		 WHERE depth >= ? AND depth <= ? ORDER BY depth`,
		depthMin, depthMax,
	)
	if err != nil {
		return nil, fmt.Errorf("query depth range: %w", err)
	}
	defer rows.Close()

	var out []ScanRow
	for rows.Next() {
		var r ScanRow
		if err := rows.Scan(&r.Depth, &r.Pixels); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DepthBounds returns the minimum and maximum stored depths. An empty store
// returns ErrNoScanData.
func (db *DB) DepthBounds() (float64, float64, error) {
	var depthMin, depthMax sql.NullFloat64
	err := db.QueryRow("SELECT MIN(depth), MAX(depth) FROM image_scans").Scan(&depthMin, &depthMax)
	if err != nil {
		return 0, 0, fmt.Errorf("query depth bounds: %w", err)
	}
	if !depthMin.Valid {
		return 0, 0, ErrNoScanData
	}
	return depthMin.Float64, depthMax.Float64, nil
}

// RowCount returns the total number of stored scan rows.
func (db *DB) RowCount() (int, error) {
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM image_scans").Scan(&n); err != nil {
		return 0, fmt.Errorf("count scan rows: %w", err)
	}
	return n, nil
}

// IsPopulated reports whether the store holds any scan data.
func (db *DB) IsPopulated() (bool, error) {
	n, err := db.RowCount()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetMetadata stores one provenance key/value pair, replacing any prior
// value.
func (db *DB) SetMetadata(key, value string) error {
	return retryOnBusy(func() error {
		_, err := db.Exec("INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)", key, value)
		return err
	})
}

// GetMetadata returns the value for key. ok is false when the key is absent;
// absence is not an error.
func (db *DB) GetMetadata(key string) (value string, ok bool, err error) {
	err = db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get metadata %q: %w", key, err)
	}
	return value, true, nil
}

// AllMetadata returns every provenance entry.
func (db *DB) AllMetadata() (map[string]string, error) {
	rows, err := db.Query("SELECT key, value FROM metadata")
	if err != nil {
		return nil, fmt.Errorf("query metadata: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

// ReplaceMetadata overwrites the entire metadata table with meta in one
// transaction. Each ingest run calls this so stale keys from earlier runs
// never linger.
func (db *DB) ReplaceMetadata(meta map[string]string) error {
	return retryOnBusy(func() error {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		if _, err := tx.Exec("DELETE FROM metadata"); err != nil {
			return fmt.Errorf("clear metadata: %w", err)
		}
		stmt, err := tx.Prepare("INSERT INTO metadata (key, value) VALUES (?, ?)")
		if err != nil {
			return fmt.Errorf("prepare metadata insert: %w", err)
		}
		defer stmt.Close()

		for k, v := range meta {
			if _, err := stmt.Exec(k, v); err != nil {
				return fmt.Errorf("insert metadata %q: %w", k, err)
			}
		}
		return tx.Commit()
	})
}
