package api

import (
	"net/http"

	"github.com/eduard256/imgable/gallery/internal/gallery"
	"github.com/eduard256/imgable/gallery/internal/response"
	"github.com/eduard256/imgable/gallery/internal/viewer"
)

// ViewerResponse is the viewer state with the name of what it was opened
// on.
type ViewerResponse struct {
	viewer.State
	Source string `json:"source,omitempty"`
}

func (s *Server) viewerState() ViewerResponse {
	return ViewerResponse{
		State:  s.app.Viewer().State(),
		Source: s.app.ViewerSource(),
	}
}

func (s *Server) writeViewerState(w http.ResponseWriter) {
	response.OK(w, s.viewerState())
}

// handleViewerState handles GET /api/v1/viewer
func (s *Server) handleViewerState(w http.ResponseWriter, r *http.Request) {
	s.writeViewerState(w)
}

type openRequest struct {
	View  string `json:"view"`
	Index int    `json:"index"`
}

// handleViewerOpen handles POST /api/v1/viewer/open, a tap on a grid item.
func (s *Server) handleViewerOpen(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := response.Decode(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	kind, err := gallery.ParseViewKind(req.View)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if err := s.app.OpenView(r.Context(), kind, req.Index); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeViewerState(w)
}

// handleViewerClose handles POST /api/v1/viewer/close
func (s *Server) handleViewerClose(w http.ResponseWriter, r *http.Request) {
	s.app.Viewer().Close()
	s.writeViewerState(w)
}

// handleViewerNext handles POST /api/v1/viewer/next
func (s *Server) handleViewerNext(w http.ResponseWriter, r *http.Request) {
	s.app.Viewer().Next()
	s.writeViewerState(w)
}

// handleViewerPrev handles POST /api/v1/viewer/prev
func (s *Server) handleViewerPrev(w http.ResponseWriter, r *http.Request) {
	s.app.Viewer().Prev()
	s.writeViewerState(w)
}

type tapRequest struct {
	Target string `json:"target"`
}

// handleViewerTap handles POST /api/v1/viewer/tap
func (s *Server) handleViewerTap(w http.ResponseWriter, r *http.Request) {
	var req tapRequest
	if err := response.Decode(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	s.app.Viewer().Tap(viewer.ParseTarget(req.Target))
	s.writeViewerState(w)
}

// handleViewerLike handles POST /api/v1/viewer/like
func (s *Server) handleViewerLike(w http.ResponseWriter, r *http.Request) {
	if _, err := s.app.Viewer().Like(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeViewerState(w)
}

// handleViewerDelete handles POST /api/v1/viewer/delete
func (s *Server) handleViewerDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Viewer().DeleteCurrent(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeViewerState(w)
}
