// Package location resolves the user's current position for the map.
// Resolved positions are cached in a KV store for up to an hour; debug
// mode swaps the device locator for random test locations.
package location

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/eduard256/imgable/gallery/internal/metrics"
	"github.com/eduard256/imgable/gallery/pkg/logger"
	"github.com/eduard256/imgable/gallery/pkg/models"
)

const (
	// DefaultCacheTTL is how long a resolved location is reused.
	DefaultCacheTTL = time.Hour

	userLocationKey = "gallery:user_location"
)

// cachedLocation is the stored form of a resolved location.
type cachedLocation struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Altitude  *float64 `json:"altitude,omitempty"`
	Timestamp int64    `json:"timestamp"` // Unix milliseconds
}

func (c cachedLocation) position() *models.Position {
	pos := copyPosition(models.Position{
		GeoPoint: models.GeoPoint{Lat: c.Latitude, Lon: c.Longitude},
		Altitude: c.Altitude,
	})
	return &pos
}

// ProviderConfig holds provider dependencies.
type ProviderConfig struct {
	KV       KV
	Locator  Locator
	Debug    Locator
	Settings *Settings

	// CacheTTL defaults to DefaultCacheTTL
	CacheTTL time.Duration

	Metrics *metrics.Metrics
}

// Provider resolves the current location.
type Provider struct {
	kv       KV
	locator  Locator
	debug    Locator
	settings *Settings
	ttl      time.Duration
	now      func() time.Time
	metrics  *metrics.Metrics
	logger   *logger.Logger

	mu   sync.Mutex
	memo *cachedLocation
}

// NewProvider creates a location provider.
func NewProvider(cfg ProviderConfig, log *logger.Logger) *Provider {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &Provider{
		kv:       cfg.KV,
		locator:  cfg.Locator,
		debug:    cfg.Debug,
		settings: cfg.Settings,
		ttl:      ttl,
		now:      time.Now,
		metrics:  cfg.Metrics,
		logger:   log.Component("location"),
	}
}

// CurrentLocation returns the user's position, or nil when it cannot be
// determined. Errors are logged, never returned.
func (p *Provider) CurrentLocation(ctx context.Context) *models.Position {
	if p.settings.Debug() && p.debug != nil {
		return p.debugLocation(ctx)
	}

	if c := p.memoized(); c != nil {
		p.metrics.IncLocationLookup("memo", "hit")
		return c.position()
	}

	if c := p.cached(ctx); c != nil {
		p.metrics.IncLocationLookup("cache", "hit")
		p.remember(*c)
		return c.position()
	}

	if p.locator == nil {
		p.metrics.IncLocationLookup("locator", "error")
		return nil
	}

	pos, err := p.locator.Locate(ctx)
	if err != nil {
		p.metrics.IncLocationLookup("locator", "error")
		p.logger.WithError(err).Warn("could not get user location")
		return nil
	}
	p.metrics.IncLocationLookup("locator", "ok")

	c := cachedLocation{
		Latitude:  pos.Lat,
		Longitude: pos.Lon,
		Altitude:  pos.Altitude,
		Timestamp: p.now().UnixMilli(),
	}
	p.remember(c)
	p.store(ctx, c)

	return c.position()
}

func (p *Provider) debugLocation(ctx context.Context) *models.Position {
	pos, err := p.debug.Locate(ctx)
	if err != nil {
		p.metrics.IncLocationLookup("debug", "error")
		p.logger.WithError(err).Warn("debug locator failed")
		return nil
	}
	p.metrics.IncLocationLookup("debug", "ok")
	p.logger.WithFields(map[string]interface{}{
		"lat": pos.Lat,
		"lon": pos.Lon,
	}).Debug("using fake location")
	return &pos
}

func (p *Provider) fresh(c *cachedLocation) bool {
	age := p.now().Sub(time.UnixMilli(c.Timestamp))
	return age >= 0 && age < p.ttl
}

func (p *Provider) memoized() *cachedLocation {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.memo == nil || !p.fresh(p.memo) {
		return nil
	}
	c := *p.memo
	return &c
}

func (p *Provider) remember(c cachedLocation) {
	p.mu.Lock()
	p.memo = &c
	p.mu.Unlock()
}

func (p *Provider) cached(ctx context.Context) *cachedLocation {
	if p.kv == nil {
		return nil
	}

	raw, err := p.kv.Get(ctx, userLocationKey)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			p.logger.WithError(err).Warn("failed to read cached location")
		}
		return nil
	}

	var c cachedLocation
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		p.logger.WithError(err).Warn("ignoring malformed cached location")
		return nil
	}
	if !p.fresh(&c) {
		return nil
	}
	return &c
}

func (p *Provider) store(ctx context.Context, c cachedLocation) {
	if p.kv == nil {
		return
	}

	data, err := json.Marshal(c)
	if err != nil {
		return
	}
	if err := p.kv.Set(ctx, userLocationKey, string(data), p.ttl); err != nil {
		p.logger.WithError(err).Warn("failed to cache location")
	}
}
