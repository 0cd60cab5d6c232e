package geo

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/eduard256/imgable/gallery/internal/metrics"
	"github.com/eduard256/imgable/gallery/pkg/logger"
	"github.com/eduard256/imgable/gallery/pkg/models"
)

// DefaultRadiusM is the clustering radius used when none is configured.
const DefaultRadiusM = 100

// Result is the partition of the geotagged photos produced by one build.
type Result struct {
	Clusters []models.Cluster
	Markers  []models.Marker
}

// Len returns the number of map features in the result.
func (r Result) Len() int {
	return len(r.Clusters) + len(r.Markers)
}

// Engine groups geotagged photos into clusters and single markers.
//
// Grouping is seeded: photos are visited in collection order and every
// unassigned photo within the radius of the current seed joins its group.
// Neighbours are not checked against each other, so the result depends on
// input order and is not transitively closed.
type Engine struct {
	radiusM float64
	rng     *rand.Rand
	newID   func() string
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// EngineConfig holds configuration for the cluster engine.
type EngineConfig struct {
	// Radius in meters; negative values are treated as zero
	RadiusM float64

	// Source for preview selection. Defaults to a time-seeded generator.
	Rand *rand.Rand

	// Metrics is optional
	Metrics *metrics.Metrics
}

// NewEngine creates a new cluster engine.
func NewEngine(cfg EngineConfig, log *logger.Logger) *Engine {
	rng := cfg.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}

	radius := cfg.RadiusM
	if radius < 0 {
		radius = 0
	}

	return &Engine{
		radiusM: radius,
		rng:     rng,
		newID:   func() string { return "cl_" + uuid.NewString() },
		metrics: cfg.Metrics,
		logger:  log.Component("cluster-engine"),
	}
}

// RadiusM returns the configured clustering radius.
func (e *Engine) RadiusM() float64 {
	return e.radiusM
}

// Build partitions the geotagged subset of photos into clusters (two or
// more photos) and markers. Photos without both coordinates are skipped.
// Each call starts from scratch.
func (e *Engine) Build(photos []models.Photo) Result {
	start := time.Now()

	located := make([]models.Photo, 0, len(photos))
	for i := range photos {
		if photos[i].HasGPS() {
			located = append(located, photos[i])
		}
	}

	var result Result
	processed := make(map[string]bool, len(located))

	for i := range located {
		seed := located[i]
		if processed[seed.ID] {
			continue
		}

		group := e.nearby(seed, located, processed)
		for _, p := range group {
			processed[p.ID] = true
		}

		if len(group) > 1 {
			result.Clusters = append(result.Clusters, e.newCluster(group))
		} else {
			result.Markers = append(result.Markers, newMarker(seed))
		}
	}

	elapsed := time.Since(start)
	e.metrics.ObserveClusterBuild(elapsed.Seconds(), len(result.Clusters), len(result.Markers))

	e.logger.WithFields(map[string]interface{}{
		"photos":   len(photos),
		"located":  len(located),
		"clusters": len(result.Clusters),
		"markers":  len(result.Markers),
		"radius_m": e.radiusM,
		"duration": elapsed.String(),
	}).Debug("clusters rebuilt")

	return result
}

// nearby returns the seed followed by every unprocessed photo within the
// radius of the seed, in collection order.
func (e *Engine) nearby(seed models.Photo, located []models.Photo, processed map[string]bool) []models.Photo {
	group := []models.Photo{seed}
	center := seed.Point()

	for i := range located {
		p := located[i]
		if processed[p.ID] || p.ID == seed.ID {
			continue
		}
		if Distance(center, p.Point()) <= e.radiusM {
			group = append(group, p)
		}
	}

	return group
}

// newCluster builds a cluster whose centroid is the arithmetic mean of
// the member coordinates and whose preview is a random member.
func (e *Engine) newCluster(group []models.Photo) models.Cluster {
	var sumLat, sumLon float64
	for i := range group {
		sumLat += *group[i].GPSLat
		sumLon += *group[i].GPSLon
	}
	n := float64(len(group))

	members := models.ClonePhotos(group)
	preview := members[e.rng.IntN(len(members))]

	return models.Cluster{
		ID:       e.newID(),
		Centroid: models.GeoPoint{Lat: sumLat / n, Lon: sumLon / n},
		Photos:   members,
		Preview:  preview.Clone(),
	}
}

func newMarker(p models.Photo) models.Marker {
	return models.Marker{
		ID:    models.MarkerID(p.ID),
		Point: p.Point(),
		Photo: p.Clone(),
	}
}
