package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eduard256/imgable/gallery/internal/gallery"
	"github.com/eduard256/imgable/gallery/internal/response"
	"github.com/eduard256/imgable/gallery/pkg/models"
)

// HealthResponse represents the /health response.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}

	if len(s.health) > 0 {
		resp.Components = make(map[string]string, len(s.health))
		for name, check := range s.health {
			if err := check(r.Context()); err != nil {
				s.logger.WithError(err).WithField("check", name).Warn("health check failed")
				resp.Components[name] = "error"
				resp.Status = "degraded"
				continue
			}
			resp.Components[name] = "ok"
		}
	}

	if resp.Status != "ok" {
		response.JSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	response.OK(w, resp)
}

// PhotosResponse represents a grid listing.
type PhotosResponse struct {
	View   gallery.ViewKind `json:"view"`
	Photos []models.Photo   `json:"photos"`
	Total  int              `json:"total"`
}

// handleListPhotos handles GET /api/v1/photos?view=all|liked
func (s *Server) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	v, ok := s.view(w, r.URL.Query().Get("view"))
	if !ok {
		return
	}

	photos, err := v.Photos(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to list photos")
		response.InternalError(w)
		return
	}
	if photos == nil {
		photos = []models.Photo{}
	}

	response.OK(w, PhotosResponse{View: v.Kind(), Photos: photos, Total: len(photos)})
}

type photoRequest struct {
	ID string `json:"id"`
}

type likeResponse struct {
	ID    string `json:"id"`
	Liked bool   `json:"liked"`
}

// handleToggleLike handles POST /api/v1/photos/like
func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	var req photoRequest
	if !decodeID(w, r, &req) {
		return
	}

	liked, err := s.app.Library().ToggleLike(r.Context(), req.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	response.OK(w, likeResponse{ID: req.ID, Liked: liked})
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

// DeleteResponse lists deleted photos and, on partial failure, the error.
type DeleteResponse struct {
	Deleted []string `json:"deleted"`
	Error   string   `json:"error,omitempty"`
}

// handleDeletePhotos handles DELETE /api/v1/photos
func (s *Server) handleDeletePhotos(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := response.Decode(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	if len(req.IDs) == 0 {
		response.BadRequest(w, "ids is required")
		return
	}

	deleted, err := s.app.Library().DeletePhotos(r.Context(), req.IDs)
	s.writeDeleteResult(w, deleted, err)
}

// SelectionResponse is the selection state of a grid view.
type SelectionResponse struct {
	View   gallery.ViewKind `json:"view"`
	Active bool             `json:"active"`
	IDs    []string         `json:"ids"`
	Count  int              `json:"count"`
}

func selectionState(v *gallery.View) SelectionResponse {
	sel := v.Selection()
	ids := sel.IDs()
	if ids == nil {
		ids = []string{}
	}
	return SelectionResponse{
		View:   v.Kind(),
		Active: sel.Active(),
		IDs:    ids,
		Count:  len(ids),
	}
}

// handleGetSelection handles GET /api/v1/views/{view}/selection
func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	v, ok := s.view(w, chi.URLParam(r, "view"))
	if !ok {
		return
	}
	response.OK(w, selectionState(v))
}

// handleToggleSelectionMode handles POST /api/v1/views/{view}/selection/mode
func (s *Server) handleToggleSelectionMode(w http.ResponseWriter, r *http.Request) {
	v, ok := s.view(w, chi.URLParam(r, "view"))
	if !ok {
		return
	}
	v.Selection().ToggleMode()
	response.OK(w, selectionState(v))
}

// handleEnterSelection handles POST /api/v1/views/{view}/selection/enter,
// the long press on a grid item.
func (s *Server) handleEnterSelection(w http.ResponseWriter, r *http.Request) {
	v, ok := s.view(w, chi.URLParam(r, "view"))
	if !ok {
		return
	}
	var req photoRequest
	if !decodeID(w, r, &req) {
		return
	}

	v.Selection().Enter(req.ID)
	response.OK(w, selectionState(v))
}

// handleToggleSelected handles POST /api/v1/views/{view}/selection/toggle
func (s *Server) handleToggleSelected(w http.ResponseWriter, r *http.Request) {
	v, ok := s.view(w, chi.URLParam(r, "view"))
	if !ok {
		return
	}
	var req photoRequest
	if !decodeID(w, r, &req) {
		return
	}

	v.Selection().Toggle(req.ID)
	response.OK(w, selectionState(v))
}

// handleExitSelection handles POST /api/v1/views/{view}/selection/exit
func (s *Server) handleExitSelection(w http.ResponseWriter, r *http.Request) {
	v, ok := s.view(w, chi.URLParam(r, "view"))
	if !ok {
		return
	}
	v.Selection().Exit()
	response.OK(w, selectionState(v))
}

// handleDeleteSelected handles POST /api/v1/views/{view}/selection/delete
func (s *Server) handleDeleteSelected(w http.ResponseWriter, r *http.Request) {
	v, ok := s.view(w, chi.URLParam(r, "view"))
	if !ok {
		return
	}

	deleted, err := v.DeleteSelected(r.Context())
	s.writeDeleteResult(w, deleted, err)
}

func (s *Server) writeDeleteResult(w http.ResponseWriter, deleted []string, err error) {
	if deleted == nil {
		deleted = []string{}
	}
	if err == nil {
		response.OK(w, DeleteResponse{Deleted: deleted})
		return
	}

	s.logger.WithError(err).WithField("deleted", len(deleted)).Warn("delete incomplete")
	status := http.StatusInternalServerError
	if errors.Is(err, models.ErrNotFound) {
		status = http.StatusNotFound
	}
	if len(deleted) > 0 {
		status = http.StatusMultiStatus
	}
	response.JSON(w, status, DeleteResponse{Deleted: deleted, Error: err.Error()})
}

// view resolves a view name, writing a 400 for unknown names.
func (s *Server) view(w http.ResponseWriter, name string) (*gallery.View, bool) {
	kind, err := gallery.ParseViewKind(name)
	if err != nil {
		response.BadRequest(w, err.Error())
		return nil, false
	}
	return s.app.View(kind), true
}

func decodeID(w http.ResponseWriter, r *http.Request, req *photoRequest) bool {
	if err := response.Decode(r, req); err != nil {
		response.BadRequest(w, err.Error())
		return false
	}
	if req.ID == "" {
		response.BadRequest(w, "id is required")
		return false
	}
	return true
}
