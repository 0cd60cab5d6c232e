package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveClusterBuild(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveClusterBuild(0.002, 3, 5)
	m.ObserveClusterBuild(0.001, 1, 2)

	if got := testutil.ToFloat64(m.ClusterRebuilds); got != 2 {
		t.Errorf("rebuilds = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Clusters); got != 1 {
		t.Errorf("clusters gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Markers); got != 2 {
		t.Errorf("markers gauge = %v, want 2", got)
	}
}

func TestCounterVecs(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncGesture("horizontal", "commit")
	m.IncGesture("horizontal", "commit")
	m.IncGesture("vertical", "snap_back")
	m.IncLocationLookup("cache", "hit")
	m.IncEnrichment("success")
	m.SetPhotos(7)

	if got := testutil.ToFloat64(m.Gestures.WithLabelValues("horizontal", "commit")); got != 2 {
		t.Errorf("horizontal commits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Gestures.WithLabelValues("vertical", "snap_back")); got != 1 {
		t.Errorf("vertical snap backs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LocationLookups.WithLabelValues("cache", "hit")); got != 1 {
		t.Errorf("cache hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Enrichments.WithLabelValues("success")); got != 1 {
		t.Errorf("enrichments = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Photos); got != 7 {
		t.Errorf("photos = %v, want 7", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveClusterBuild(1, 1, 1)
	m.IncGesture("panel", "commit")
	m.IncLocationLookup("debug", "ok")
	m.IncEnrichment("failed")
	m.SetPhotos(1)
}
