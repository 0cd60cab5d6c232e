// Package api provides the HTTP API of the gallery service: photo grids
// with selection, the clustered map, the viewer and its touch stream.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eduard256/imgable/gallery/internal/app"
	"github.com/eduard256/imgable/gallery/internal/location"
	"github.com/eduard256/imgable/gallery/internal/mapview"
	"github.com/eduard256/imgable/gallery/pkg/logger"
)

// HealthCheck reports whether one backing service is reachable.
type HealthCheck func(ctx context.Context) error

// Config holds API server configuration.
type Config struct {
	Port int

	App      *app.App
	Features *mapview.FeatureServer
	Settings *location.Settings

	// Metrics registry served on /metrics
	Gatherer prometheus.Gatherer

	// Named health checks, e.g. "database" and "redis"
	Health map[string]HealthCheck

	Logger *logger.Logger
}

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	server   *http.Server
	app      *app.App
	features *mapview.FeatureServer
	settings *location.Settings
	gatherer prometheus.Gatherer
	health   map[string]HealthCheck
	logger   *logger.Logger
}

// New creates a new API server.
func New(cfg Config) *Server {
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		router:   chi.NewRouter(),
		app:      cfg.App,
		features: cfg.Features,
		settings: cfg.Settings,
		gatherer: gatherer,
		health:   cfg.Health,
		logger:   cfg.Logger.Component("api"),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures HTTP middleware.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
}

// setupRoutes configures HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	s.router.Route("/api/v1", func(r chi.Router) {
		// Long-lived touch stream, no request timeout
		r.Get("/viewer/ws", s.handleViewerStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			// Photos
			r.Get("/photos", s.handleListPhotos)
			r.Delete("/photos", s.handleDeletePhotos)
			r.Post("/photos/like", s.handleToggleLike)

			// Grid selection
			r.Route("/views/{view}/selection", func(r chi.Router) {
				r.Get("/", s.handleGetSelection)
				r.Post("/mode", s.handleToggleSelectionMode)
				r.Post("/enter", s.handleEnterSelection)
				r.Post("/toggle", s.handleToggleSelected)
				r.Post("/exit", s.handleExitSelection)
				r.Post("/delete", s.handleDeleteSelected)
			})

			// Map
			r.Get("/map/features", s.handleGetFeatures)
			r.Post("/map/click", s.handleMapClick)
			r.Get("/map/view", s.handleGetMapView)
			r.Post("/map/center-on-user", s.handleCenterOnUser)

			// Settings
			r.Get("/settings", s.handleGetSettings)
			r.Post("/settings/debug/toggle", s.handleToggleDebug)

			// Viewer
			r.Get("/viewer", s.handleViewerState)
			r.Post("/viewer/open", s.handleViewerOpen)
			r.Post("/viewer/close", s.handleViewerClose)
			r.Post("/viewer/next", s.handleViewerNext)
			r.Post("/viewer/prev", s.handleViewerPrev)
			r.Post("/viewer/tap", s.handleViewerTap)
			r.Post("/viewer/like", s.handleViewerLike)
			r.Post("/viewer/delete", s.handleViewerDelete)
		})
	})
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.server.Addr).Info("starting API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}

// requestLogger logs method, path, status and duration of each request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		// Skip health checks to reduce noise
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			return
		}
		s.logger.WithFields(map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"size":        ww.BytesWritten(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		}).Debug("request")
	})
}
