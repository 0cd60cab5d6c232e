// Package metadata reads EXIF data and placeholders from photo files and
// applies them to the collection once a photo has arrived.
package metadata

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"

	"github.com/eduard256/imgable/gallery/pkg/logger"
	"github.com/eduard256/imgable/gallery/pkg/models"
)

func init() {
	exif.RegisterParsers(mknote.All...)
}

// Metadata holds the EXIF fields the gallery uses.
type Metadata struct {
	TakenAt *time.Time

	CameraMake  string
	CameraModel string

	// GPS position, nil when the file is not geotagged
	Position *models.Position

	// Dimensions from EXIF, or from the image header when EXIF has none
	Width  int
	Height int
}

// Extractor extracts EXIF metadata from image files.
type Extractor struct {
	logger *logger.Logger
}

// NewExtractor creates a new metadata extractor.
func NewExtractor(log *logger.Logger) *Extractor {
	return &Extractor{
		logger: log.Component("exif-extractor"),
	}
}

// Extract reads metadata from an image file. A file without EXIF yields
// metadata with only the header dimensions; that is not an error.
func (e *Extractor) Extract(path string) (*Metadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	meta := &Metadata{}

	x, err := exif.Decode(file)
	switch {
	case err == nil:
		readExif(x, meta)
	case exif.IsCriticalError(err):
		e.logger.WithError(err).WithPath(path).Debug("no usable EXIF")
	default:
		// Non-critical tag errors still leave a usable decode
		if x != nil {
			readExif(x, meta)
		}
	}

	if meta.Width == 0 || meta.Height == 0 {
		if _, err := file.Seek(0, io.SeekStart); err == nil {
			if cfg, _, err := image.DecodeConfig(file); err == nil {
				meta.Width, meta.Height = cfg.Width, cfg.Height
			}
		}
	}

	return meta, nil
}

func readExif(x *exif.Exif, meta *Metadata) {
	if dt, err := x.DateTime(); err == nil {
		meta.TakenAt = &dt
	}

	meta.CameraMake = stringTag(x, exif.Make)
	meta.CameraModel = stringTag(x, exif.Model)

	if lat, lon, err := x.LatLong(); err == nil {
		meta.Position = &models.Position{GeoPoint: models.GeoPoint{Lat: lat, Lon: lon}}

		if tag, err := x.Get(exif.GPSAltitude); err == nil {
			if num, denom, err := tag.Rat2(0); err == nil && denom != 0 {
				alt := float64(num) / float64(denom)
				// GPSAltitudeRef 1 means below sea level
				if ref, err := x.Get(exif.GPSAltitudeRef); err == nil {
					if v, err := ref.Int(0); err == nil && v == 1 {
						alt = -alt
					}
				}
				meta.Position.Altitude = &alt
			}
		}
	}

	meta.Width = intTag(x, exif.PixelXDimension)
	meta.Height = intTag(x, exif.PixelYDimension)
}

func stringTag(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	val, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(val)
}

func intTag(x *exif.Exif, name exif.FieldName) int {
	tag, err := x.Get(name)
	if err != nil {
		return 0
	}
	val, err := tag.Int(0)
	if err != nil {
		return 0
	}
	return val
}

// HasGPS returns true if GPS coordinates are available.
func (m *Metadata) HasGPS() bool {
	return m != nil && m.Position != nil
}

// Camera returns a human-readable camera description.
func (m *Metadata) Camera() string {
	if m == nil {
		return ""
	}

	model := m.CameraModel
	if m.CameraMake != "" && strings.HasPrefix(model, m.CameraMake) {
		model = strings.TrimSpace(strings.TrimPrefix(model, m.CameraMake))
	}

	return strings.TrimSpace(m.CameraMake + " " + model)
}

// Details converts the metadata into collection details.
func (m *Metadata) Details() models.Details {
	if m == nil {
		return models.Details{}
	}
	return models.Details{
		CapturedAt:  m.TakenAt,
		CameraModel: m.Camera(),
		Width:       m.Width,
		Height:      m.Height,
	}
}
