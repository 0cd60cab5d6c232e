package metadata

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/eduard256/imgable/gallery/internal/metrics"
	"github.com/eduard256/imgable/gallery/pkg/logger"
	"github.com/eduard256/imgable/gallery/pkg/models"
)

// Enrichment outcomes, used as metric labels.
const (
	StatusSuccess = "success"
	StatusNoGPS   = "no_gps"
	StatusFailed  = "failed"
)

const defaultEnrichTimeout = 30 * time.Second

// Target receives enrichment results.
type Target interface {
	SetCoordinates(ctx context.Context, id string, pos models.Position) error
	SetDetails(ctx context.Context, id string, details models.Details) error
}

// DebugMode reports whether photos get fake locations.
type DebugMode interface {
	Debug() bool
}

// Locator produces a fake location in debug mode.
type Locator interface {
	Locate(ctx context.Context) (models.Position, error)
}

// LocationProvider resolves the user's current position, or nil.
type LocationProvider interface {
	CurrentLocation(ctx context.Context) *models.Position
}

// EnricherConfig holds the enricher collaborators. Only Target is
// required.
type EnricherConfig struct {
	Target Target

	// Fallback position for files without GPS
	Location LocationProvider

	Settings DebugMode
	Debug    Locator

	// Per-photo deadline, defaults to 30s
	Timeout time.Duration

	Metrics *metrics.Metrics
}

// Enricher reads metadata from newly arrived photos and applies it to the
// collection. Each photo is enriched once, off the caller's goroutine.
type Enricher struct {
	extractor *Extractor
	target    Target
	location  LocationProvider
	settings  DebugMode
	debug     Locator
	timeout   time.Duration
	metrics   *metrics.Metrics
	logger    *logger.Logger

	wg sync.WaitGroup
}

// NewEnricher creates a new enricher.
func NewEnricher(cfg EnricherConfig, log *logger.Logger) *Enricher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultEnrichTimeout
	}

	return &Enricher{
		extractor: NewExtractor(log),
		target:    cfg.Target,
		location:  cfg.Location,
		settings:  cfg.Settings,
		debug:     cfg.Debug,
		timeout:   timeout,
		metrics:   cfg.Metrics,
		logger:    log.Component("enricher"),
	}
}

// EnrichAsync enriches photo in the background.
func (e *Enricher) EnrichAsync(photo models.Photo) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()

		e.Enrich(ctx, photo)
	}()
}

// Wait blocks until every pending enrichment has finished.
func (e *Enricher) Wait() {
	e.wg.Wait()
}

// Enrich reads the photo file and applies its details and coordinates.
// Failures are logged and reported as the returned status.
func (e *Enricher) Enrich(ctx context.Context, photo models.Photo) string {
	log := e.logger.WithPhoto(photo.ID)

	meta, err := e.extractor.Extract(photo.ID)
	if err != nil {
		log.WithError(err).Warn("failed to read photo metadata")
		e.metrics.IncEnrichment(StatusFailed)
		return StatusFailed
	}

	details := meta.Details()
	if hash, err := BlurhashFromFile(photo.ID); err == nil {
		details.Blurhash = hash
	} else {
		log.WithError(err).Debug("no blurhash for photo")
	}

	if err := e.target.SetDetails(ctx, photo.ID, details); err != nil {
		log.WithError(err).Warn("failed to apply photo details")
		e.metrics.IncEnrichment(StatusFailed)
		return StatusFailed
	}

	if photo.HasGPS() {
		e.metrics.IncEnrichment(StatusSuccess)
		return StatusSuccess
	}

	pos := e.position(ctx, meta)
	if pos == nil {
		log.Debug("photo has no location")
		e.metrics.IncEnrichment(StatusNoGPS)
		return StatusNoGPS
	}

	err = e.target.SetCoordinates(ctx, photo.ID, *pos)
	switch {
	case err == nil:
		log.WithFields(map[string]interface{}{
			"lat": pos.Lat,
			"lon": pos.Lon,
		}).Debug("photo geotagged")
	case errors.Is(err, models.ErrCoordinatesAlreadySet):
		log.Debug("photo coordinates already set")
	default:
		log.WithError(err).Warn("failed to apply photo coordinates")
		e.metrics.IncEnrichment(StatusFailed)
		return StatusFailed
	}

	e.metrics.IncEnrichment(StatusSuccess)
	return StatusSuccess
}

// position picks the photo location: a fake one in debug mode, then the
// file's GPS, then the user's current position.
func (e *Enricher) position(ctx context.Context, meta *Metadata) *models.Position {
	if e.settings != nil && e.settings.Debug() && e.debug != nil {
		pos, err := e.debug.Locate(ctx)
		if err == nil {
			return &pos
		}
		e.logger.WithError(err).Warn("debug locator failed")
	}

	if meta.HasGPS() {
		return meta.Position
	}

	if e.location != nil {
		return e.location.CurrentLocation(ctx)
	}
	return nil
}
