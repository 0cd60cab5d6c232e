// Package models defines data structures shared across the gallery packages.
// Photos, map clusters and collection events are plain values; packages that
// own mutable state copy them in and out.
package models

import (
	"errors"
	"path/filepath"
	"time"
)

var (
	// ErrNotFound is returned when a photo id is not part of the collection.
	ErrNotFound = errors.New("photo not found")

	// ErrCoordinatesAlreadySet is returned when enrichment tries to set
	// coordinates on a photo that already has them.
	ErrCoordinatesAlreadySet = errors.New("photo coordinates already set")
)

// Photo represents a single photo in the gallery.
// The ID is the file path and is unique within a collection.
type Photo struct {
	ID         string    `json:"id"`
	CapturedAt time.Time `json:"captured_at"`
	Liked      bool      `json:"liked"`

	// Geolocation, filled at most once by EXIF/GPS enrichment
	GPSLat      *float64 `json:"gps_lat,omitempty"`
	GPSLon      *float64 `json:"gps_lon,omitempty"`
	GPSAltitude *float64 `json:"gps_altitude,omitempty"`

	// Details from EXIF, may arrive after the photo is already visible
	CameraModel string `json:"camera_model,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	Blurhash    string `json:"blurhash,omitempty"`
}

// NewPhoto creates a photo for a freshly captured file.
func NewPhoto(path string, capturedAt time.Time) Photo {
	return Photo{
		ID:         path,
		CapturedAt: capturedAt,
	}
}

// HasGPS returns true if both latitude and longitude are present.
func (p *Photo) HasGPS() bool {
	return p != nil && p.GPSLat != nil && p.GPSLon != nil
}

// Point returns the photo location. Callers must check HasGPS first.
func (p *Photo) Point() GeoPoint {
	return GeoPoint{Lat: *p.GPSLat, Lon: *p.GPSLon}
}

// Position returns the photo location with altitude, or nil without GPS.
func (p *Photo) Position() *Position {
	if !p.HasGPS() {
		return nil
	}
	pos := &Position{GeoPoint: p.Point()}
	if p.GPSAltitude != nil {
		alt := *p.GPSAltitude
		pos.Altitude = &alt
	}
	return pos
}

// SetPosition applies enrichment coordinates.
// Returns ErrCoordinatesAlreadySet if the photo already has a location.
func (p *Photo) SetPosition(pos Position) error {
	if p.GPSLat != nil || p.GPSLon != nil {
		return ErrCoordinatesAlreadySet
	}
	lat, lon := pos.Lat, pos.Lon
	p.GPSLat = &lat
	p.GPSLon = &lon
	if pos.Altitude != nil {
		alt := *pos.Altitude
		p.GPSAltitude = &alt
	}
	return nil
}

// Filename returns the base name of the photo file.
func (p *Photo) Filename() string {
	return filepath.Base(p.ID)
}

// Clone returns a deep copy so that pointer fields are not shared.
func (p Photo) Clone() Photo {
	c := p
	if p.GPSLat != nil {
		v := *p.GPSLat
		c.GPSLat = &v
	}
	if p.GPSLon != nil {
		v := *p.GPSLon
		c.GPSLon = &v
	}
	if p.GPSAltitude != nil {
		v := *p.GPSAltitude
		c.GPSAltitude = &v
	}
	return c
}

// ClonePhotos copies a photo slice, see Photo.Clone.
func ClonePhotos(photos []Photo) []Photo {
	out := make([]Photo, len(photos))
	for i := range photos {
		out[i] = photos[i].Clone()
	}
	return out
}

// Details holds EXIF-derived fields that can be updated after capture.
type Details struct {
	CapturedAt  *time.Time
	CameraModel string
	Width       int
	Height      int
	Blurhash    string
}

// Apply copies non-empty detail fields onto the photo.
func (d Details) Apply(p *Photo) {
	if d.CapturedAt != nil {
		p.CapturedAt = *d.CapturedAt
	}
	if d.CameraModel != "" {
		p.CameraModel = d.CameraModel
	}
	if d.Width > 0 && d.Height > 0 {
		p.Width = d.Width
		p.Height = d.Height
	}
	if d.Blurhash != "" {
		p.Blurhash = d.Blurhash
	}
}
