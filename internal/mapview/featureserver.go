package mapview

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/paulmach/orb/geojson"

	"github.com/eduard256/imgable/gallery/pkg/models"
)

// ErrFeatureNotFound is returned when a clicked id is not on the map.
var ErrFeatureNotFound = errors.New("map feature not found")

// Default map view: Marseille.
var DefaultCenter = models.GeoPoint{Lat: 43.2965, Lon: 5.3698}

const DefaultZoom = 10

// FeatureServer is an in-process Renderer that keeps the current features
// and view so that HTTP clients can draw them and report clicks back.
type FeatureServer struct {
	mu      sync.RWMutex
	fc      *geojson.FeatureCollection
	data    []byte
	version int
	center  models.GeoPoint
	zoom    float64
	handler ClickHandler
}

// NewFeatureServer creates a server showing an empty map at center.
func NewFeatureServer(center models.GeoPoint, zoom float64) *FeatureServer {
	fc := geojson.NewFeatureCollection()
	data, _ := json.Marshal(fc)

	return &FeatureServer{
		fc:     fc,
		data:   data,
		center: center,
		zoom:   zoom,
	}
}

// Ready always reports true.
func (s *FeatureServer) Ready() bool {
	return true
}

// ReplaceSource swaps the feature collection.
func (s *FeatureServer) ReplaceSource(fc *geojson.FeatureCollection) error {
	data, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("encode features: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.fc = fc
	s.data = data
	s.version++
	return nil
}

// SetView moves the map.
func (s *FeatureServer) SetView(center models.GeoPoint, zoom float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.center = center
	s.zoom = zoom
	return nil
}

// View returns the map center and zoom.
func (s *FeatureServer) View() (models.GeoPoint, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.center, s.zoom
}

// SetClickHandler installs the click handler.
func (s *FeatureServer) SetClickHandler(h ClickHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// GeoJSON returns the encoded feature collection and its version, which
// increases with every replacement.
func (s *FeatureServer) GeoJSON() ([]byte, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data, s.version
}

// Len returns the number of features on the map.
func (s *FeatureServer) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.fc.Features)
}

// Click dispatches a click on the feature with the given id.
func (s *FeatureServer) Click(id string) error {
	s.mu.RLock()
	var clicked *geojson.Feature
	for _, f := range s.fc.Features {
		if FeatureID(f) == id {
			clicked = f
			break
		}
	}
	handler := s.handler
	s.mu.RUnlock()

	if clicked == nil {
		return fmt.Errorf("%s: %w", id, ErrFeatureNotFound)
	}
	if handler != nil {
		handler(clicked)
	}
	return nil
}
