package mapview

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/eduard256/imgable/gallery/internal/geo"
	"github.com/eduard256/imgable/gallery/pkg/models"
)

// Feature property keys. Photo payloads are JSON strings so that renderers
// with flat property maps can carry them.
const (
	PropID         = "id"
	PropIsCluster  = "isCluster"
	PropPhotoCount = "photoCount"
	PropPreview    = "previewPhoto"
	PropPhotos     = "photos"
	PropPhoto      = "photo"
)

// ErrBadFeature is returned when a feature cannot be turned back into a
// cluster or marker.
var ErrBadFeature = errors.New("malformed map feature")

// FeatureCollection converts a clustering result into point features,
// clusters first.
func FeatureCollection(r geo.Result) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()

	for i := range r.Clusters {
		f, err := clusterFeature(&r.Clusters[i])
		if err != nil {
			return nil, err
		}
		fc.Append(f)
	}
	for i := range r.Markers {
		f, err := markerFeature(&r.Markers[i])
		if err != nil {
			return nil, err
		}
		fc.Append(f)
	}

	return fc, nil
}

func clusterFeature(c *models.Cluster) (*geojson.Feature, error) {
	preview, err := json.Marshal(c.Preview)
	if err != nil {
		return nil, fmt.Errorf("encode preview of %s: %w", c.ID, err)
	}
	photos, err := json.Marshal(c.Photos)
	if err != nil {
		return nil, fmt.Errorf("encode photos of %s: %w", c.ID, err)
	}

	f := geojson.NewFeature(orb.Point{c.Centroid.Lon, c.Centroid.Lat})
	f.ID = c.ID
	f.Properties[PropID] = c.ID
	f.Properties[PropIsCluster] = true
	f.Properties[PropPhotoCount] = c.Size()
	f.Properties[PropPreview] = string(preview)
	f.Properties[PropPhotos] = string(photos)
	return f, nil
}

func markerFeature(m *models.Marker) (*geojson.Feature, error) {
	photo, err := json.Marshal(m.Photo)
	if err != nil {
		return nil, fmt.Errorf("encode photo of %s: %w", m.ID, err)
	}

	f := geojson.NewFeature(orb.Point{m.Point.Lon, m.Point.Lat})
	f.ID = m.ID
	f.Properties[PropID] = m.ID
	f.Properties[PropIsCluster] = false
	f.Properties[PropPhoto] = string(photo)
	return f, nil
}

// IsCluster reports whether f is a cluster feature.
func IsCluster(f *geojson.Feature) bool {
	return f.Properties.MustBool(PropIsCluster, false)
}

// FeatureID returns the cluster or marker id of f.
func FeatureID(f *geojson.Feature) string {
	return f.Properties.MustString(PropID, "")
}

// ClusterFromFeature rebuilds a cluster from its serialized properties.
func ClusterFromFeature(f *geojson.Feature) (models.Cluster, error) {
	pt, ok := f.Geometry.(orb.Point)
	if !ok || !IsCluster(f) {
		return models.Cluster{}, ErrBadFeature
	}

	c := models.Cluster{
		ID:       FeatureID(f),
		Centroid: models.GeoPoint{Lat: pt.Lat(), Lon: pt.Lon()},
	}
	if err := decodeProp(f, PropPhotos, &c.Photos); err != nil {
		return models.Cluster{}, err
	}
	if err := decodeProp(f, PropPreview, &c.Preview); err != nil {
		return models.Cluster{}, err
	}
	if len(c.Photos) < 2 {
		return models.Cluster{}, fmt.Errorf("%w: cluster %s has %d photos", ErrBadFeature, c.ID, len(c.Photos))
	}
	return c, nil
}

// MarkerFromFeature rebuilds a marker from its serialized properties.
func MarkerFromFeature(f *geojson.Feature) (models.Marker, error) {
	pt, ok := f.Geometry.(orb.Point)
	if !ok || IsCluster(f) {
		return models.Marker{}, ErrBadFeature
	}

	m := models.Marker{
		ID:    FeatureID(f),
		Point: models.GeoPoint{Lat: pt.Lat(), Lon: pt.Lon()},
	}
	if err := decodeProp(f, PropPhoto, &m.Photo); err != nil {
		return models.Marker{}, err
	}
	return m, nil
}

func decodeProp(f *geojson.Feature, key string, v interface{}) error {
	raw, ok := f.Properties[key].(string)
	if !ok {
		return fmt.Errorf("%w: missing %s", ErrBadFeature, key)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadFeature, key, err)
	}
	return nil
}
