// Package mapview puts clustered photos on a map surface. The Adapter
// rebuilds clusters on every collection change, hands the features to a
// Renderer and turns clicks on them into cluster and marker events.
package mapview

import (
	"context"
	"sync"

	"github.com/paulmach/orb/geojson"

	"github.com/eduard256/imgable/gallery/internal/geo"
	"github.com/eduard256/imgable/gallery/pkg/logger"
	"github.com/eduard256/imgable/gallery/pkg/models"
)

// DefaultUserZoom is the zoom used when centering on the user.
const DefaultUserZoom = 12

// ClickHandler receives the feature a user clicked.
type ClickHandler func(f *geojson.Feature)

// Renderer is a map surface.
type Renderer interface {
	// Ready reports whether the surface can accept features.
	Ready() bool

	// ReplaceSource swaps the whole feature source for fc.
	ReplaceSource(fc *geojson.FeatureCollection) error

	SetView(center models.GeoPoint, zoom float64) error
	View() (models.GeoPoint, float64)

	// SetClickHandler installs the single click handler.
	SetClickHandler(h ClickHandler)
}

// LocationProvider resolves the user position, or nil.
type LocationProvider interface {
	CurrentLocation(ctx context.Context) *models.Position
}

// Adapter connects the cluster engine to a renderer.
type Adapter struct {
	engine   *geo.Engine
	renderer Renderer
	location LocationProvider
	userZoom float64
	logger   *logger.Logger

	mu        sync.Mutex
	result    geo.Result
	onCluster func(models.Cluster)
	onMarker  func(models.Marker)
}

// NewAdapter creates an adapter and installs its click handler on r.
// userZoom <= 0 means DefaultUserZoom.
func NewAdapter(engine *geo.Engine, r Renderer, loc LocationProvider, userZoom float64, log *logger.Logger) *Adapter {
	if userZoom <= 0 {
		userZoom = DefaultUserZoom
	}

	a := &Adapter{
		engine:   engine,
		renderer: r,
		location: loc,
		userZoom: userZoom,
		logger:   log.Component("map"),
	}
	r.SetClickHandler(a.handleClick)
	return a
}

// UpdatePhotos reclusters photos and replaces the rendered features. It is
// skipped while the renderer is not ready.
func (a *Adapter) UpdatePhotos(photos []models.Photo) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.renderer.Ready() {
		a.logger.Debug("map not ready, skipping update")
		return
	}

	result := a.engine.Build(photos)
	fc, err := FeatureCollection(result)
	if err != nil {
		a.logger.WithError(err).Error("failed to build map features")
		return
	}
	if err := a.renderer.ReplaceSource(fc); err != nil {
		a.logger.WithError(err).Warn("failed to render map features")
		return
	}

	a.result = result
}

// Result returns the clusters and markers currently on the map.
func (a *Adapter) Result() geo.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// OnClusterClick sets the cluster click subscriber, replacing any
// previous one. nil unsubscribes.
func (a *Adapter) OnClusterClick(fn func(models.Cluster)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onCluster = fn
}

// OnMarkerClick sets the marker click subscriber, replacing any previous
// one. nil unsubscribes.
func (a *Adapter) OnMarkerClick(fn func(models.Marker)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onMarker = fn
}

// CenterOnUserLocation moves the map to the user's position. It reports
// whether the view changed; on any failure the view is left as it was.
func (a *Adapter) CenterOnUserLocation(ctx context.Context) bool {
	if a.location == nil {
		return false
	}

	pos := a.location.CurrentLocation(ctx)
	if pos == nil {
		a.logger.Debug("user location unavailable, keeping map view")
		return false
	}

	if err := a.renderer.SetView(pos.GeoPoint, a.userZoom); err != nil {
		a.logger.WithError(err).Warn("failed to center map on user")
		return false
	}
	return true
}

func (a *Adapter) handleClick(f *geojson.Feature) {
	if f == nil {
		return
	}
	id := FeatureID(f)

	a.mu.Lock()
	onCluster, onMarker := a.onCluster, a.onMarker
	cluster, marker := a.lookup(id)
	a.mu.Unlock()

	if IsCluster(f) {
		if onCluster == nil {
			return
		}
		if cluster == nil {
			a.logger.WithField("feature_id", id).Debug("click on cluster from an earlier build")
			c, err := ClusterFromFeature(f)
			if err != nil {
				a.logger.WithError(err).WithField("feature_id", id).Warn("ignoring click on malformed cluster")
				return
			}
			cluster = &c
		}
		onCluster(*cluster)
		return
	}

	if onMarker == nil {
		return
	}
	if marker == nil {
		a.logger.WithField("feature_id", id).Debug("click on marker from an earlier build")
		m, err := MarkerFromFeature(f)
		if err != nil {
			a.logger.WithError(err).WithField("feature_id", id).Warn("ignoring click on malformed marker")
			return
		}
		marker = &m
	}
	onMarker(*marker)
}

// lookup finds id in the current result. Callers hold a.mu.
func (a *Adapter) lookup(id string) (*models.Cluster, *models.Marker) {
	for i := range a.result.Clusters {
		if a.result.Clusters[i].ID == id {
			c := a.result.Clusters[i]
			c.Photos = models.ClonePhotos(c.Photos)
			return &c, nil
		}
	}
	for i := range a.result.Markers {
		if a.result.Markers[i].ID == id {
			m := a.result.Markers[i]
			m.Photo = m.Photo.Clone()
			return nil, &m
		}
	}
	return nil, nil
}
