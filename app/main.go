package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spatialselecta/backend/app/api"
	"github.com/spatialselecta/backend/app/catalog"
	"github.com/spatialselecta/backend/app/cfg"
	"github.com/spatialselecta/backend/app/database"
	"github.com/spatialselecta/backend/app/discovery"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Spatial Selecta server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		log.Fatal("Failed to open database: ", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	sources, err := catalog.LoadSources(appCfg.SourcesFile)
	if err != nil {
		log.Fatal("Failed to load curated sources: ", err)
	}
	slog.Info("Curated sources loaded", "count", len(sources))

	tokens, err := buildTokenProvider(appCfg)
	if err != nil {
		log.Fatal("Failed to configure catalog credentials: ", err)
	}

	client := catalog.NewClient(tokens, catalog.ClientOptions{
		Storefront:     appCfg.CatalogStorefront,
		MusicUserToken: appCfg.MusicUserToken,
		UserAgent:      appCfg.UserAgent,
		RetryCount:     appCfg.CatalogRetryCount,
		RetryWait:      time.Duration(appCfg.CatalogRetryWaitSecs) * time.Second,
	})

	trackRepo := database.NewTrackRepository(db)
	ratingRepo := database.NewRatingRepository(db)

	pipeline := discovery.NewPipeline(client, trackRepo, sources)

	scheduler := discovery.NewScheduler(pipeline, time.Duration(appCfg.ScanIntervalHours)*time.Hour)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Scan scheduler started", "interval_hours", appCfg.ScanIntervalHours)

	limiter := api.NewIPRateLimiter(time.Duration(appCfg.PublicRefreshWindow) * time.Minute)
	handler := api.NewHandler(trackRepo, ratingRepo, scheduler, limiter)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}

func buildTokenProvider(appCfg *cfg.Cfg) (catalog.TokenProvider, error) {
	if appCfg.DeveloperToken != "" {
		return catalog.NewStaticTokenProvider(appCfg.DeveloperToken), nil
	}

	if appCfg.AppleTeamID != "" || appCfg.AppleKeyID != "" || appCfg.AppleKeyPath != "" {
		return catalog.NewGeneratedTokenProvider(appCfg.AppleTeamID, appCfg.AppleKeyID, appCfg.AppleKeyPath)
	}

	// Without credentials every source degrades to zero candidates; the
	// server still serves whatever is already stored
	slog.Warn("Apple Music credentials not configured, catalog scans will find nothing")
	return catalog.NewStaticTokenProvider(""), nil
}
