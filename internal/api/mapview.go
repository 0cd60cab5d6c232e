package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/eduard256/imgable/gallery/internal/mapview"
	"github.com/eduard256/imgable/gallery/internal/response"
	"github.com/eduard256/imgable/gallery/internal/viewer"
	"github.com/eduard256/imgable/gallery/pkg/models"
)

// handleGetFeatures handles GET /api/v1/map/features. The body is the
// current GeoJSON feature collection; its version is the ETag.
func (s *Server) handleGetFeatures(w http.ResponseWriter, r *http.Request) {
	data, version := s.features.GeoJSON()
	etag := `"` + strconv.Itoa(version) + `"`

	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

type featureClickRequest struct {
	ID string `json:"id"`
}

// handleMapClick handles POST /api/v1/map/click. Clicking a cluster or
// marker opens the viewer on its photos; the response is the viewer state.
func (s *Server) handleMapClick(w http.ResponseWriter, r *http.Request) {
	var req featureClickRequest
	if err := response.Decode(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	if req.ID == "" {
		response.BadRequest(w, "id is required")
		return
	}

	if err := s.features.Click(req.ID); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeViewerState(w)
}

// MapViewResponse is the map center and zoom.
type MapViewResponse struct {
	Center   models.GeoPoint `json:"center"`
	Zoom     float64         `json:"zoom"`
	Centered *bool           `json:"centered,omitempty"`
}

// handleGetMapView handles GET /api/v1/map/view
func (s *Server) handleGetMapView(w http.ResponseWriter, r *http.Request) {
	center, zoom := s.features.View()
	response.OK(w, MapViewResponse{Center: center, Zoom: zoom})
}

// handleCenterOnUser handles POST /api/v1/map/center-on-user. A missing
// user location is not an error; the map keeps its view.
func (s *Server) handleCenterOnUser(w http.ResponseWriter, r *http.Request) {
	centered := s.app.Map().CenterOnUserLocation(r.Context())

	center, zoom := s.features.View()
	response.OK(w, MapViewResponse{Center: center, Zoom: zoom, Centered: &centered})
}

// SettingsResponse holds user settings.
type SettingsResponse struct {
	DebugMode bool `json:"debug_mode"`
}

// handleGetSettings handles GET /api/v1/settings
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	response.OK(w, SettingsResponse{DebugMode: s.settings.Debug()})
}

// handleToggleDebug handles POST /api/v1/settings/debug/toggle
func (s *Server) handleToggleDebug(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		response.Error(w, http.StatusServiceUnavailable, "settings unavailable")
		return
	}

	on, err := s.settings.ToggleDebug(r.Context())
	if err != nil {
		// The new value is in effect even though it was not saved
		s.logger.WithError(err).Warn("failed to persist debug mode")
	}
	response.OK(w, SettingsResponse{DebugMode: on})
}

// writeError maps domain errors to HTTP responses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, mapview.ErrFeatureNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, viewer.ErrNoPhotos):
		response.Conflict(w, err.Error())
	default:
		s.logger.WithError(err).Error("request failed")
		response.InternalError(w)
	}
}
