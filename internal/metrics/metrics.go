// Package metrics provides Prometheus metrics for the gallery service.
// All methods are safe to call on a nil *Metrics so that components can be
// used without instrumentation in tests.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the gallery.
type Metrics struct {
	// Cluster rebuilds (one per map update)
	ClusterRebuilds prometheus.Counter

	// Time spent in a rebuild
	ClusterBuildDuration prometheus.Histogram

	// Output of the last rebuild
	Clusters prometheus.Gauge
	Markers  prometheus.Gauge

	// Gesture outcomes by axis (horizontal, vertical, panel)
	// and outcome (commit, snap_back, cancel)
	Gestures *prometheus.CounterVec

	// Location lookups by source (cache, locator, debug) and status
	LocationLookups *prometheus.CounterVec

	// Enrichment results (success, no_gps, failed)
	Enrichments *prometheus.CounterVec

	// Photos in the collection
	Photos prometheus.Gauge
}

// New creates all gallery metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		ClusterRebuilds: f.NewCounter(prometheus.CounterOpts{
			Name: "gallery_cluster_rebuilds_total",
			Help: "Total number of map cluster rebuilds",
		}),

		ClusterBuildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "gallery_cluster_build_duration_seconds",
			Help:    "Time taken to cluster the geotagged photos",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),

		Clusters: f.NewGauge(prometheus.GaugeOpts{
			Name: "gallery_map_clusters",
			Help: "Number of clusters produced by the last rebuild",
		}),

		Markers: f.NewGauge(prometheus.GaugeOpts{
			Name: "gallery_map_markers",
			Help: "Number of single-photo markers produced by the last rebuild",
		}),

		Gestures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gallery_viewer_gestures_total",
			Help: "Viewer gestures by axis and outcome",
		}, []string{"axis", "outcome"}),

		LocationLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gallery_location_lookups_total",
			Help: "User location lookups by source and status",
		}, []string{"source", "status"}),

		Enrichments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gallery_enrichments_total",
			Help: "Photo metadata enrichment results",
		}, []string{"status"}),

		Photos: f.NewGauge(prometheus.GaugeOpts{
			Name: "gallery_photos",
			Help: "Number of photos in the collection",
		}),
	}
}

// ObserveClusterBuild records one rebuild and its output.
func (m *Metrics) ObserveClusterBuild(seconds float64, clusters, markers int) {
	if m == nil {
		return
	}
	m.ClusterRebuilds.Inc()
	m.ClusterBuildDuration.Observe(seconds)
	m.Clusters.Set(float64(clusters))
	m.Markers.Set(float64(markers))
}

// IncGesture increments the gesture counter.
func (m *Metrics) IncGesture(axis, outcome string) {
	if m == nil {
		return
	}
	m.Gestures.WithLabelValues(axis, outcome).Inc()
}

// IncLocationLookup increments the location lookup counter.
func (m *Metrics) IncLocationLookup(source, status string) {
	if m == nil {
		return
	}
	m.LocationLookups.WithLabelValues(source, status).Inc()
}

// IncEnrichment increments the enrichment counter.
func (m *Metrics) IncEnrichment(status string) {
	if m == nil {
		return
	}
	m.Enrichments.WithLabelValues(status).Inc()
}

// SetPhotos sets the collection size.
func (m *Metrics) SetPhotos(count int) {
	if m == nil {
		return
	}
	m.Photos.Set(float64(count))
}
