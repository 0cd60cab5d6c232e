// Package app wires the gallery components together: collection changes
// rebuild the map and refresh open views, and map clicks open the viewer.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/eduard256/imgable/gallery/internal/gallery"
	"github.com/eduard256/imgable/gallery/internal/mapview"
	"github.com/eduard256/imgable/gallery/internal/viewer"
	"github.com/eduard256/imgable/gallery/pkg/logger"
	"github.com/eduard256/imgable/gallery/pkg/models"
)

// Config holds the components to wire.
type Config struct {
	Library *gallery.Library
	Viewer  *viewer.Controller
	Map     *mapview.Adapter
}

// App owns the gallery views and routes events between components.
type App struct {
	library *gallery.Library
	viewer  *viewer.Controller
	mapView *mapview.Adapter
	views   map[gallery.ViewKind]*gallery.View
	logger  *logger.Logger

	// Coalesced collection change signal
	changed chan struct{}

	mu     sync.Mutex
	source string
}

// New wires the components. Call Run to start processing collection
// changes.
func New(cfg Config, log *logger.Logger) *App {
	a := &App{
		library: cfg.Library,
		viewer:  cfg.Viewer,
		mapView: cfg.Map,
		views: map[gallery.ViewKind]*gallery.View{
			gallery.ViewAll:   gallery.NewView(gallery.ViewAll, cfg.Library),
			gallery.ViewLiked: gallery.NewView(gallery.ViewLiked, cfg.Library),
		},
		logger:  log.Component("app"),
		changed: make(chan struct{}, 1),
	}

	// Viewer and map calls can publish while holding their own locks, so
	// the refresh runs on the Run goroutine.
	a.library.Subscribe(func(models.Event) {
		select {
		case a.changed <- struct{}{}:
		default:
		}
	})

	a.mapView.OnClusterClick(a.openCluster)
	a.mapView.OnMarkerClick(a.openMarker)

	return a
}

// View returns the grid view of the given kind.
func (a *App) View(kind gallery.ViewKind) *gallery.View {
	return a.views[kind]
}

// Viewer returns the viewer controller.
func (a *App) Viewer() *viewer.Controller {
	return a.viewer
}

// Library returns the photo library.
func (a *App) Library() *gallery.Library {
	return a.library
}

// Map returns the map adapter.
func (a *App) Map() *mapview.Adapter {
	return a.mapView
}

// ViewerSource names what the viewer was last opened on: a view kind, a
// cluster id or a marker id.
func (a *App) ViewerSource() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.source
}

// OpenView opens the viewer on a grid view at index.
func (a *App) OpenView(ctx context.Context, kind gallery.ViewKind, index int) error {
	v := a.View(kind)
	if v == nil {
		return fmt.Errorf("unknown view %q", kind)
	}
	if err := a.viewer.Open(ctx, v, index); err != nil {
		return err
	}
	a.setSource(string(kind))
	return nil
}

func (a *App) openCluster(c models.Cluster) {
	if err := a.viewer.Open(context.Background(), viewer.NewSnapshot(c.Photos, a.library), 0); err != nil {
		a.logger.WithError(err).WithField("cluster_id", c.ID).Warn("failed to open cluster")
		return
	}
	a.setSource(c.ID)
	a.logger.WithFields(map[string]interface{}{
		"cluster_id": c.ID,
		"photos":     c.Size(),
	}).Debug("cluster opened")
}

func (a *App) openMarker(m models.Marker) {
	if err := a.viewer.Open(context.Background(), viewer.NewSnapshot([]models.Photo{m.Photo}, a.library), 0); err != nil {
		a.logger.WithError(err).WithField("marker_id", m.ID).Warn("failed to open marker")
		return
	}
	a.setSource(m.ID)
}

func (a *App) setSource(s string) {
	a.mu.Lock()
	a.source = s
	a.mu.Unlock()
}

// Refresh rebuilds the map from the collection, drops selected photos that
// are gone and re-reads the open viewer.
func (a *App) Refresh(ctx context.Context) {
	photos, err := a.library.Photos(ctx)
	if err != nil {
		a.logger.WithError(err).Warn("failed to list photos")
		return
	}
	a.mapView.UpdatePhotos(photos)

	for kind, v := range a.views {
		if err := v.Prune(ctx); err != nil {
			a.logger.WithError(err).WithField("view", kind).Warn("failed to prune selection")
		}
	}

	if err := a.viewer.Reload(ctx); err != nil {
		a.logger.WithError(err).Warn("failed to reload viewer")
	}
}

// Run refreshes once and then after every collection change until ctx is
// done.
func (a *App) Run(ctx context.Context) {
	a.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.changed:
			a.Refresh(ctx)
		}
	}
}
