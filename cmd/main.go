// Package main is the entry point for the gallery service.
// The service keeps the photo collection, clusters geotagged photos for the
// map, drives the full-screen viewer and imports photos dropped into the
// uploads directory.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/eduard256/imgable/gallery/internal/api"
	"github.com/eduard256/imgable/gallery/internal/app"
	"github.com/eduard256/imgable/gallery/internal/config"
	"github.com/eduard256/imgable/gallery/internal/gallery"
	"github.com/eduard256/imgable/gallery/internal/geo"
	"github.com/eduard256/imgable/gallery/internal/location"
	"github.com/eduard256/imgable/gallery/internal/mapview"
	"github.com/eduard256/imgable/gallery/internal/metadata"
	"github.com/eduard256/imgable/gallery/internal/metrics"
	"github.com/eduard256/imgable/gallery/internal/store"
	"github.com/eduard256/imgable/gallery/internal/viewer"
	"github.com/eduard256/imgable/gallery/internal/watcher"
	"github.com/eduard256/imgable/gallery/pkg/database"
	"github.com/eduard256/imgable/gallery/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "gallery",
	})

	log.Info("starting gallery service")

	// Initialize metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	health := make(map[string]api.HealthCheck)

	// Photo store
	var photos store.PhotoStore
	if cfg.DatabaseURL != "" {
		if err := store.RunMigrations(log, cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}

		db, err := database.New(ctx, database.DefaultConfig(cfg.DatabaseURL), log)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer db.Close()

		photos = store.NewPostgres(db, store.RemoveFile, log)
		health["database"] = db.Ping
	} else {
		log.Warn("DATABASE_URL not set, photos are kept in memory")
		photos = store.NewMemory(store.RemoveFile)
	}

	// Settings and location cache
	var kv location.KV
	if cfg.RedisURL != "" {
		rkv, err := location.NewRedisKV(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer rkv.Close()

		kv = rkv
		health["redis"] = rkv.Ping
	} else {
		kv = location.NewMemoryKV()
	}

	settings := location.LoadSettings(ctx, kv, cfg.DebugMode, log)
	debugLocator := location.NewDebugLocator(nil)
	provider := location.NewProvider(location.ProviderConfig{
		KV:       kv,
		Locator:  location.NewStaticLocator(cfg.Home),
		Debug:    debugLocator,
		Settings: settings,
		CacheTTL: cfg.LocationCacheTTL,
		Metrics:  m,
	}, log)

	// Map
	engine := geo.NewEngine(geo.EngineConfig{
		RadiusM: cfg.ClusterRadiusM,
		Metrics: m,
	}, log)
	features := mapview.NewFeatureServer(cfg.MapCenter, cfg.MapZoom)
	adapter := mapview.NewAdapter(engine, features, provider, cfg.MapUserZoom, log)

	// Collection, viewer and the coordinator between them
	lib := gallery.NewLibrary(photos, m, log)
	core := app.New(app.Config{
		Library: lib,
		Viewer: viewer.NewController(viewer.ControllerConfig{
			Gestures: viewer.DefaultGestureConfig(),
			Metrics:  m,
		}, log),
		Map: adapter,
	}, log)
	go core.Run(ctx)

	// Imports
	enricher := metadata.NewEnricher(metadata.EnricherConfig{
		Target:   lib,
		Location: provider,
		Settings: settings,
		Debug:    debugLocator,
		Metrics:  m,
	}, log)

	w := watcher.New(watcher.Config{
		Dir:     cfg.UploadsDir,
		Handler: watcher.ImportHandler(lib, enricher, log),
	}, log)
	if err := w.Start(ctx); err != nil {
		log.Fatalf("failed to start watcher: %v", err)
	}

	// Create API server
	apiServer := api.New(api.Config{
		Port:     cfg.Port,
		App:      core,
		Features: features,
		Settings: settings,
		Gatherer: reg,
		Health:   health,
		Logger:   log,
	})

	// Start API server in goroutine
	go func() {
		if err := apiServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	log.WithFields(map[string]interface{}{
		"uploads_dir": cfg.UploadsDir,
		"port":        cfg.Port,
		"radius_m":    engine.RadiusM(),
		"debug_mode":  settings.Debug(),
	}).Info("gallery service started")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.WithField("signal", sig.String()).Info("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("API server shutdown error")
	}

	// Stop accepting files, then let running imports finish
	w.Stop()
	enricher.Wait()

	cancel()

	log.Info("gallery service stopped")
}
