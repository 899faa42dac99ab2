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

	"github.com/mvalderrama/quakewatch/app/api"
	"github.com/mvalderrama/quakewatch/app/browser"
	"github.com/mvalderrama/quakewatch/app/cfg"
	"github.com/mvalderrama/quakewatch/app/database"
	"github.com/mvalderrama/quakewatch/app/extract"
	"github.com/mvalderrama/quakewatch/app/mirror"
	"github.com/mvalderrama/quakewatch/app/sink"
	"github.com/mvalderrama/quakewatch/app/source"
	"github.com/mvalderrama/quakewatch/app/tasks"
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
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting QuakeWatch server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	configCache := source.NewConfigCache(appCfg.SourcesDir)
	if err := configCache.Run(); err != nil {
		log.Fatal("Failed to load source profiles:", err)
	}
	slog.Info("Source profiles loaded", "dir", appCfg.SourcesDir, "count", configCache.GetProfileCount())

	sourceRepo := database.NewSourceRepository(db)
	postRepo := database.NewPostRepository(db)
	reportRepo := database.NewReportRepository(db)

	httpClient := &http.Client{Timeout: 60 * time.Second}

	extractor := extract.NewExtractor()
	bulletinExtractor := extract.NewBulletinExtractor()
	mirrorSource := mirror.NewSource(httpClient, appCfg.UserAgent)
	sessions := browser.NewFactory(appCfg.Headless, appCfg.UserAgent, httpClient)
	exporter := sink.NewCSVExporter(appCfg.DataDir)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval", appCfg.SchedulerInterval)
	scheduler := tasks.NewScheduler(configCache, sourceRepo, postRepo, reportRepo,
		sessions, mirrorSource, extractor, bulletinExtractor, exporter, httpClient)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(configCache, sourceRepo, postRepo, reportRepo, extractor, scheduler)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("QuakeWatch server started")

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
	} else {
		slog.Info("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
