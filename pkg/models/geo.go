package models

// GeoPoint is a WGS-84 coordinate in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Position is a GeoPoint with an optional altitude in meters.
type Position struct {
	GeoPoint
	Altitude *float64 `json:"altitude,omitempty"`
}

// Cluster groups two or more geotagged photos around a common seed photo.
// Clusters are rebuilt from scratch on every map update; the ID is not
// stable across rebuilds.
type Cluster struct {
	ID       string   `json:"id"`
	Centroid GeoPoint `json:"centroid"`
	Photos   []Photo  `json:"photos"`
	Preview  Photo    `json:"preview"`
}

// Size returns the number of photos in the cluster.
func (c *Cluster) Size() int {
	return len(c.Photos)
}

// Marker is a single geotagged photo without a qualifying neighbour.
type Marker struct {
	ID    string   `json:"id"`
	Point GeoPoint `json:"point"`
	Photo Photo    `json:"photo"`
}

// MarkerID returns the marker id used for a photo.
func MarkerID(photoID string) string {
	return "marker_" + photoID
}
