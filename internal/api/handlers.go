package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/banshee-data/depthframe.report/internal/colormap"
	"github.com/banshee-data/depthframe.report/internal/monitoring"
	"github.com/banshee-data/depthframe.report/internal/scandb"
)

// MetadataResponse is the self-describing dataset summary served by
// /api/v1/metadata. Clients use it to learn valid query ranges without
// probing the image endpoint.
type MetadataResponse struct {
	DepthMin            float64  `json:"depth_min"`
	DepthMax            float64  `json:"depth_max"`
	DepthStep           float64  `json:"depth_step"`
	RowCount            int      `json:"row_count"`
	OriginalWidth       int      `json:"original_width"`
	ResizedWidth        int      `json:"resized_width"`
	InterpolationMethod string   `json:"interpolation_method"`
	SourceFile          string   `json:"source_file"`
	AvailableColormaps  []string `json:"available_colormaps"`
}

// ColormapListResponse is the payload of /api/v1/colormaps.
type ColormapListResponse struct {
	Colormaps []colormap.Info `json:"colormaps"`
	Default   string          `json:"default"`
}

// HealthResponse is the payload of /health.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
	RowCount    int    `json:"row_count"`
}

// depthRange holds the validated depth window common to the image
// endpoints.
type depthRange struct {
	min, max float64
}

// parseDepthRange reads depth_min and depth_max from the query string.
// Both are required and min must be strictly less than max; the stored
// range itself is queried inclusively at both ends.
func parseDepthRange(r *http.Request) (depthRange, error) {
	q := r.URL.Query()

	minStr := q.Get("depth_min")
	if minStr == "" {
		return depthRange{}, fmt.Errorf("missing 'depth_min' parameter")
	}
	depthMin, err := strconv.ParseFloat(minStr, 64)
	if err != nil {
		return depthRange{}, fmt.Errorf("invalid 'depth_min' parameter %q", minStr)
	}

	maxStr := q.Get("depth_max")
	if maxStr == "" {
		return depthRange{}, fmt.Errorf("missing 'depth_max' parameter")
	}
	depthMax, err := strconv.ParseFloat(maxStr, 64)
	if err != nil {
		return depthRange{}, fmt.Errorf("invalid 'depth_max' parameter %q", maxStr)
	}

	if depthMin >= depthMax {
		return depthRange{}, fmt.Errorf("depth_min (%g) must be less than depth_max (%g)", depthMin, depthMax)
	}
	return depthRange{min: depthMin, max: depthMax}, nil
}

func formatDepth(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// getImageFrame serves a colormapped PNG or JPEG frame for a depth range.
// Stored data is always grayscale; the colormap is applied at response
// time so the same rows can be rendered with any registered ramp.
func (s *Server) getImageFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	rng, err := parseDepthRange(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := r.URL.Query().Get("colormap")
	if name == "" {
		name = s.defaultColormap
	}
	if !s.registry.Has(name) {
		s.writeJSONError(w, http.StatusBadRequest,
			fmt.Sprintf("unknown colormap %q (available: %s)", name, strings.Join(s.registry.Names(), ", ")))
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = colormap.FormatPNG
	}
	format = strings.ToLower(format)
	if format != colormap.FormatPNG && format != colormap.FormatJPEG {
		s.writeJSONError(w, http.StatusBadRequest,
			fmt.Sprintf("unknown image format %q (available: png, jpeg)", format))
		return
	}

	dataMin, dataMax, err := s.db.DepthBounds()
	if err != nil {
		if errors.Is(err, scandb.ErrNoScanData) {
			s.writeJSONError(w, http.StatusServiceUnavailable, "database is empty; run ingestion first")
			return
		}
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read depth bounds: %v", err))
		return
	}
	if rng.min > dataMax || rng.max < dataMin {
		s.writeJSONError(w, http.StatusNotFound,
			fmt.Sprintf("no data in range [%g, %g]; available data range: [%g, %g]",
				rng.min, rng.max, dataMin, dataMax))
		return
	}

	rows, err := s.db.QueryDepthRange(rng.min, rng.max)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to query scan rows: %v", err))
		return
	}
	if len(rows) == 0 {
		s.writeJSONError(w, http.StatusNotFound,
			fmt.Sprintf("no scan rows found between %g and %g", rng.min, rng.max))
		return
	}

	pixels := make([][]byte, len(rows))
	for i, row := range rows {
		pixels[i] = row.Pixels
	}

	imageBytes, err := s.registry.Render(name, pixels, format, s.jpegQuality)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render frame: %v", err))
		return
	}

	monitoring.Logf("serving frame: depth [%g, %g], %d rows x %d px, colormap=%s format=%s",
		rows[0].Depth, rows[len(rows)-1].Depth, len(rows), len(pixels[0]), name, format)

	w.Header().Set("Content-Type", "image/"+format)
	w.Header().Set("X-Frame-Depth-Min", formatDepth(rows[0].Depth))
	w.Header().Set("X-Frame-Depth-Max", formatDepth(rows[len(rows)-1].Depth))
	w.Header().Set("X-Frame-Rows", strconv.Itoa(len(rows)))
	w.Header().Set("X-Frame-Width", strconv.Itoa(len(pixels[0])))
	w.Header().Set("X-Colormap", name)
	w.Write(imageBytes)
}

// getRawFrame serves the grayscale pixel data for a depth range as a flat
// byte buffer. Consumers reshape it using the dimensions in the response
// headers.
func (s *Server) getRawFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	rng, err := parseDepthRange(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := s.db.QueryDepthRange(rng.min, rng.max)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to query scan rows: %v", err))
		return
	}
	if len(rows) == 0 {
		s.writeJSONError(w, http.StatusNotFound,
			fmt.Sprintf("no scan rows found between %g and %g", rng.min, rng.max))
		return
	}

	width := len(rows[0].Pixels)
	buf := make([]byte, 0, len(rows)*width)
	for _, row := range rows {
		buf = append(buf, row.Pixels...)
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("X-Frame-Depth-Min", formatDepth(rows[0].Depth))
	w.Header().Set("X-Frame-Depth-Max", formatDepth(rows[len(rows)-1].Depth))
	w.Header().Set("X-Frame-Rows", strconv.Itoa(len(rows)))
	w.Header().Set("X-Frame-Width", strconv.Itoa(width))
	w.Header().Set("X-Dtype", "uint8")
	w.Write(buf)
}

// getMetadata returns dataset provenance recorded at ingest time plus the
// available colormaps.
func (s *Server) getMetadata(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	meta, err := s.db.AllMetadata()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read metadata: %v", err))
		return
	}
	if len(meta) == 0 {
		s.writeJSONError(w, http.StatusServiceUnavailable, "no metadata available; run ingestion first")
		return
	}

	resp := MetadataResponse{
		DepthMin:            metaFloat(meta, "depth_min"),
		DepthMax:            metaFloat(meta, "depth_max"),
		DepthStep:           metaFloat(meta, "depth_step"),
		RowCount:            metaInt(meta, "row_count"),
		OriginalWidth:       metaInt(meta, "original_width"),
		ResizedWidth:        metaInt(meta, "resized_width"),
		InterpolationMethod: metaString(meta, "interpolation_method"),
		SourceFile:          metaString(meta, "source_file"),
		AvailableColormaps:  s.registry.Names(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "failed to write metadata")
	}
}

func metaFloat(meta map[string]string, key string) float64 {
	v, err := strconv.ParseFloat(meta[key], 64)
	if err != nil {
		return 0
	}
	return v
}

func metaInt(meta map[string]string, key string) int {
	v, err := strconv.Atoi(meta[key])
	if err != nil {
		return 0
	}
	return v
}

func metaString(meta map[string]string, key string) string {
	if v, ok := meta[key]; ok {
		return v
	}
	return "unknown"
}

// listColormaps returns every registered colormap with its description,
// plus the server default.
func (s *Server) listColormaps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	resp := ColormapListResponse{
		Colormaps: s.registry.List(),
		Default:   s.defaultColormap,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "failed to write colormaps")
	}
}

// handleHealth reports liveness for orchestration probes. A failing
// database read degrades the status rather than erroring the endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	resp := HealthResponse{Status: "healthy", DBConnected: true}
	n, err := s.db.RowCount()
	if err != nil {
		resp = HealthResponse{Status: "unhealthy", DBConnected: false, RowCount: 0}
	} else {
		resp.RowCount = n
	}
	json.NewEncoder(w).Encode(resp)
}
