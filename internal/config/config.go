// Package config holds service settings for ingestion and serving.
//
// Defaults live in code; an optional JSON file overlays them field by field.
// The overlay uses pointer fields so "absent" and "zero" stay distinct, the
// same way runtime tuning updates are merged elsewhere in our services.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Settings is the resolved configuration for one process.
type Settings struct {
	// Ingestion
	DataDir             string `json:"data_dir"`
	DBPath              string `json:"db_path"`
	CSVFilename         string `json:"csv_filename"`
	OriginalWidth       int    `json:"original_width"`
	TargetWidth         int    `json:"target_width"`
	InterpolationMethod string `json:"interpolation_method"`

	// Serving
	Listen          string `json:"listen"`
	DefaultColormap string `json:"default_colormap"`
	JPEGQuality     int    `json:"jpeg_quality"`
}

// FileConfig is the JSON overlay schema. All fields are optional; any field
// present replaces the corresponding default.
type FileConfig struct {
	DataDir             *string `json:"data_dir,omitempty"`
	DBPath              *string `json:"db_path,omitempty"`
	CSVFilename         *string `json:"csv_filename,omitempty"`
	OriginalWidth       *int    `json:"original_width,omitempty"`
	TargetWidth         *int    `json:"target_width,omitempty"`
	InterpolationMethod *string `json:"interpolation_method,omitempty"`
	Listen              *string `json:"listen,omitempty"`
	DefaultColormap     *string `json:"default_colormap,omitempty"`
	JPEGQuality         *int    `json:"jpeg_quality,omitempty"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		DataDir:             "data",
		DBPath:              filepath.Join("data", "image_store.db"),
		CSVFilename:         "scanlines.csv",
		OriginalWidth:       200,
		TargetWidth:         150,
		InterpolationMethod: "AREA",
		Listen:              ":8080",
		DefaultColormap:     "resistivity",
		JPEGQuality:         90,
	}
}

// Load returns Defaults overlaid with the JSON file at path. An empty path
// returns the defaults unchanged; a missing or malformed file is an error so
// a typo'd --config flag never silently runs with defaults.
func Load(path string) (Settings, error) {
	s := Defaults()
	if path == "" {
		return s, s.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var fc FileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return Settings{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	fc.applyTo(&s)
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("config %s: %w", path, err)
	}
	return s, nil
}

func (fc *FileConfig) applyTo(s *Settings) {
	if fc.DataDir != nil {
		s.DataDir = *fc.DataDir
	}
	if fc.DBPath != nil {
		s.DBPath = *fc.DBPath
	}
	if fc.CSVFilename != nil {
		s.CSVFilename = *fc.CSVFilename
	}
	if fc.OriginalWidth != nil {
		s.OriginalWidth = *fc.OriginalWidth
	}
	if fc.TargetWidth != nil {
		s.TargetWidth = *fc.TargetWidth
	}
	if fc.InterpolationMethod != nil {
		s.InterpolationMethod = *fc.InterpolationMethod
	}
	if fc.Listen != nil {
		s.Listen = *fc.Listen
	}
	if fc.DefaultColormap != nil {
		s.DefaultColormap = *fc.DefaultColormap
	}
	if fc.JPEGQuality != nil {
		s.JPEGQuality = *fc.JPEGQuality
	}
}

// Validate checks structural constraints. Interpolation method and colormap
// names are validated by the stages that consume them, which own the
// authoritative lists.
func (s Settings) Validate() error {
	if s.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if s.CSVFilename == "" {
		return fmt.Errorf("csv_filename must not be empty")
	}
	if s.OriginalWidth < 1 {
		return fmt.Errorf("original_width must be >= 1, got %d", s.OriginalWidth)
	}
	if s.TargetWidth < 1 {
		return fmt.Errorf("target_width must be >= 1, got %d", s.TargetWidth)
	}
	if s.JPEGQuality < 1 || s.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be in [1,100], got %d", s.JPEGQuality)
	}
	return nil
}

// CSVPath returns the full path to the ingestion source file.
func (s Settings) CSVPath() string {
	return filepath.Join(s.DataDir, s.CSVFilename)
}
