package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/depthframe.report/internal/api"
	"github.com/banshee-data/depthframe.report/internal/colormap"
	"github.com/banshee-data/depthframe.report/internal/config"
	"github.com/banshee-data/depthframe.report/internal/scandb"
	"github.com/banshee-data/depthframe.report/internal/version"
)

var (
	configPath = flag.String("config", "", "Path to JSON config file (optional)")
	listen     = flag.String("listen", "", "Listen address (overrides config)")
	dbPath     = flag.String("db", "", "Path to the scan database (overrides config)")
)

func main() {
	flag.Parse()

	settings, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *listen != "" {
		settings.Listen = *listen
	}
	if *dbPath != "" {
		settings.DBPath = *dbPath
	}
	if err := settings.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	db, err := scandb.Open(settings.DBPath)
	if err != nil {
		log.Fatalf("failed to open scan database: %v", err)
	}
	defer db.Close()

	if populated, err := db.IsPopulated(); err == nil && !populated {
		log.Printf("scan database %s is empty; run the ingest command to load data", settings.DBPath)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// mount the admin debugging routes (accessible only in dev mode or over Tailscale)
		db.AttachAdminRoutes(mux)

		apiServer := api.NewServer(db, colormap.NewRegistry(), settings.DefaultColormap, settings.JPEGQuality)
		mux.Handle("/", apiServer.ServeMux())

		server := &http.Server{
			Addr:    settings.Listen,
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			log.Printf("depthframe %s (%s) serving scan image API on %s (db=%s)",
				version.Version, version.GitSHA, settings.Listen, settings.DBPath)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
