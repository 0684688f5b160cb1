package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/depthframe.report/internal/colormap"
	"github.com/banshee-data/depthframe.report/internal/scandb"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	db              *scandb.DB
	registry        *colormap.Registry
	defaultColormap string
	jpegQuality     int
}

func NewServer(db *scandb.DB, registry *colormap.Registry, defaultColormap string, jpegQuality int) *Server {
	return &Server{
		db:              db,
		registry:        registry,
		defaultColormap: defaultColormap,
		jpegQuality:     jpegQuality,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/image", s.getImageFrame)
	mux.HandleFunc("/api/v1/image/raw", s.getRawFrame)
	mux.HandleFunc("/api/v1/metadata", s.getMetadata)
	mux.HandleFunc("/api/v1/colormaps", s.listColormaps)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/debug/charts", s.handleChartsDashboard)
	mux.HandleFunc("/debug/charts/coverage", s.handleCoverageChart)
	mux.HandleFunc("/debug/charts/histogram", s.handleHistogramChart)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
