package app

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/eduard256/imgable/gallery/internal/gallery"
	"github.com/eduard256/imgable/gallery/internal/geo"
	"github.com/eduard256/imgable/gallery/internal/mapview"
	"github.com/eduard256/imgable/gallery/internal/store"
	"github.com/eduard256/imgable/gallery/internal/viewer"
	"github.com/eduard256/imgable/gallery/pkg/logger"
	"github.com/eduard256/imgable/gallery/pkg/models"
)

type testApp struct {
	*App
	features *mapview.FeatureServer
}

func photoAt(id string, lat, lon float64) models.Photo {
	p := models.NewPhoto(id, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	_ = p.SetPosition(models.Position{GeoPoint: models.GeoPoint{Lat: lat, Lon: lon}})
	return p
}

// newTestApp seeds a cluster of two photos in Aix, a lone photo in
// Marseille and one photo without GPS.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ctx := context.Background()

	lib := gallery.NewLibrary(store.NewMemory(nil), nil, logger.Nop())
	for _, p := range []models.Photo{
		photoAt("a.jpg", 43.52970, 5.44740),
		photoAt("b.jpg", 43.52972, 5.44741),
		photoAt("c.jpg", 43.29510, 5.37610),
		models.NewPhoto("d.jpg", time.Now()),
	} {
		if _, err := lib.AddPhoto(ctx, p); err != nil {
			t.Fatalf("AddPhoto(%s) error = %v", p.ID, err)
		}
	}

	features := mapview.NewFeatureServer(mapview.DefaultCenter, mapview.DefaultZoom)
	engine := geo.NewEngine(geo.EngineConfig{
		RadiusM: geo.DefaultRadiusM,
		Rand:    rand.New(rand.NewPCG(3, 4)),
	}, logger.Nop())

	a := New(Config{
		Library: lib,
		Viewer:  viewer.NewController(viewer.ControllerConfig{Gestures: viewer.DefaultGestureConfig()}, logger.Nop()),
		Map:     mapview.NewAdapter(engine, features, nil, 0, logger.Nop()),
	}, logger.Nop())

	a.Refresh(ctx)
	return &testApp{App: a, features: features}
}

func (a *testApp) clusterID(t *testing.T) string {
	t.Helper()
	clusters := a.Map().Result().Clusters
	if len(clusters) != 1 {
		t.Fatalf("clusters = %d, want 1", len(clusters))
	}
	return clusters[0].ID
}

func TestRefreshBuildsMap(t *testing.T) {
	a := newTestApp(t)

	if a.features.Len() != 2 {
		t.Errorf("features = %d, want 2", a.features.Len())
	}
	r := a.Map().Result()
	if len(r.Clusters) != 1 || len(r.Markers) != 1 {
		t.Errorf("result = %d clusters, %d markers, want 1, 1", len(r.Clusters), len(r.Markers))
	}
}

func TestClusterClickOpensViewer(t *testing.T) {
	a := newTestApp(t)
	id := a.clusterID(t)

	if err := a.features.Click(id); err != nil {
		t.Fatalf("Click() error = %v", err)
	}

	s := a.Viewer().State()
	if !s.Open || s.Count != 2 || s.Index != 0 {
		t.Fatalf("viewer = open %v, %d photos at %d, want open, 2 at 0", s.Open, s.Count, s.Index)
	}
	if a.ViewerSource() != id {
		t.Errorf("ViewerSource() = %q, want %q", a.ViewerSource(), id)
	}
}

func TestClusterViewerFollowsLibraryDeletes(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	if err := a.features.Click(a.clusterID(t)); err != nil {
		t.Fatalf("Click() error = %v", err)
	}
	shown := a.Viewer().State().Photo.ID

	// Deleted from the grid while the viewer is open
	if _, err := a.Library().DeletePhotos(ctx, []string{shown}); err != nil {
		t.Fatalf("DeletePhotos() error = %v", err)
	}
	a.Refresh(ctx)

	s := a.Viewer().State()
	if !s.Open || s.Count != 1 || s.Photo == nil || s.Photo.ID == shown {
		t.Fatalf("viewer = open %v, %d photos, showing %v; want the other member", s.Open, s.Count, s.Photo)
	}

	if _, err := a.Library().DeletePhotos(ctx, []string{s.Photo.ID}); err != nil {
		t.Fatalf("DeletePhotos() error = %v", err)
	}
	a.Refresh(ctx)

	if s := a.Viewer().State(); s.Open || s.Count != 0 {
		t.Errorf("viewer = open %v with %d photos, want closed", s.Open, s.Count)
	}
}

func TestMarkerClickOpensViewer(t *testing.T) {
	a := newTestApp(t)

	if err := a.features.Click(models.MarkerID("c.jpg")); err != nil {
		t.Fatalf("Click() error = %v", err)
	}

	s := a.Viewer().State()
	if !s.Open || s.Count != 1 || s.Photo == nil || s.Photo.ID != "c.jpg" {
		t.Errorf("viewer = %+v, want c.jpg", s)
	}
}

func TestDeleteFromClusterUpdatesMap(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	if err := a.features.Click(a.clusterID(t)); err != nil {
		t.Fatalf("Click() error = %v", err)
	}
	if err := a.Viewer().DeleteCurrent(ctx); err != nil {
		t.Fatalf("DeleteCurrent() error = %v", err)
	}
	a.Refresh(ctx)

	photos, _ := a.Library().Photos(ctx)
	if len(photos) != 3 {
		t.Errorf("library = %d photos, want 3", len(photos))
	}

	// The surviving cluster member is now a marker
	r := a.Map().Result()
	if len(r.Clusters) != 0 || len(r.Markers) != 2 {
		t.Errorf("result = %d clusters, %d markers, want 0, 2", len(r.Clusters), len(r.Markers))
	}

	s := a.Viewer().State()
	if !s.Open || s.Count != 1 {
		t.Errorf("viewer = open %v with %d photos, want open with 1", s.Open, s.Count)
	}
}

func TestOpenView(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	if _, err := a.Library().ToggleLike(ctx, "c.jpg"); err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}

	if err := a.OpenView(ctx, gallery.ViewLiked, 5); err != nil {
		t.Fatalf("OpenView() error = %v", err)
	}
	s := a.Viewer().State()
	if s.Count != 1 || s.Index != 0 || s.Photo.ID != "c.jpg" {
		t.Errorf("viewer = %d photos at %d, want c.jpg only", s.Count, s.Index)
	}
	if a.ViewerSource() != string(gallery.ViewLiked) {
		t.Errorf("ViewerSource() = %q, want liked", a.ViewerSource())
	}

	if err := a.OpenView(ctx, "recent", 0); err == nil {
		t.Error("OpenView(unknown) error = nil")
	}
}

func TestUnlikeClosesLikedViewer(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	if _, err := a.Library().ToggleLike(ctx, "c.jpg"); err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}
	if err := a.OpenView(ctx, gallery.ViewLiked, 0); err != nil {
		t.Fatalf("OpenView() error = %v", err)
	}

	if _, err := a.Viewer().Like(ctx); err != nil {
		t.Fatalf("Like() error = %v", err)
	}
	a.Refresh(ctx)

	if a.Viewer().State().Open {
		t.Error("liked viewer is still open after its only photo was unliked")
	}
}

func TestRefreshPrunesSelection(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	sel := a.View(gallery.ViewAll).Selection()
	sel.Enter("a.jpg")
	sel.Toggle("b.jpg")

	if err := a.Library().Delete(ctx, "a.jpg"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	a.Refresh(ctx)

	if ids := sel.IDs(); len(ids) != 1 || ids[0] != "b.jpg" {
		t.Errorf("selection = %v, want [b.jpg]", ids)
	}
}

func TestRunReactsToChanges(t *testing.T) {
	a := newTestApp(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	_, before := a.features.GeoJSON()
	if _, err := a.Library().AddPhoto(context.Background(), photoAt("e.jpg", 43.9493, 4.8055)); err != nil {
		t.Fatalf("AddPhoto() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for a.features.Len() != 3 {
		if time.Now().After(deadline) {
			t.Fatalf("features = %d, want 3", a.features.Len())
		}
		time.Sleep(10 * time.Millisecond)
	}

	if _, after := a.features.GeoJSON(); after <= before {
		t.Errorf("version = %d, want > %d", after, before)
	}
}
