// Package viewer implements the full-screen photo viewer: the session
// state (photo set, current index, panel visibility) and the touch gesture
// controller that drives it.
package viewer

import (
	"context"
	"errors"
	"fmt"

	"github.com/eduard256/imgable/gallery/pkg/models"
)

// ErrNoPhotos is returned when a viewer is opened on an empty photo set.
var ErrNoPhotos = errors.New("no photos to view")

// Transition tokens.
const (
	TransitionNone = "none"
	TransitionEase = "transform 0.3s ease-out"
)

// Phase is the gesture phase of one axis.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseTracking     Phase = "tracking"
	PhaseCommitting   Phase = "committing"
	PhaseSnappingBack Phase = "snapping_back"
)

// Axis is the visual state of the swipe or vertical axis.
type Axis struct {
	Offset     float64 `json:"offset"`
	Transition string  `json:"transition"`
	Phase      Phase   `json:"phase"`
}

// Panel is the visual state of the metadata panel. Offset is how far the
// panel is pushed below its open position.
type Panel struct {
	Visible    bool    `json:"visible"`
	Offset     float64 `json:"offset"`
	Transition string  `json:"transition"`
	Phase      Phase   `json:"phase"`
}

func idleAxis() Axis {
	return Axis{Transition: TransitionNone, Phase: PhaseIdle}
}

// Session holds one open viewer. It is not safe for concurrent use;
// Controller serializes access.
type Session struct {
	source          Source
	photos          []models.Photo
	index           int
	open            bool
	controlsVisible bool

	// Distance the panel travels between hidden and shown
	travel float64

	swipe    Axis
	vertical Axis
	panel    Panel
}

// NewSession creates a closed session. travel is the reveal distance of
// the metadata panel.
func NewSession(travel float64) *Session {
	s := &Session{travel: travel}
	s.reset()
	return s
}

// Open loads the photo set from source and shows the photo at index.
// An out-of-range index is clamped.
func (s *Session) Open(ctx context.Context, source Source, index int) error {
	photos, err := source.Photos(ctx)
	if err != nil {
		return fmt.Errorf("load photos: %w", err)
	}
	if len(photos) == 0 {
		return ErrNoPhotos
	}

	s.source = source
	s.photos = photos
	s.index = clamp(index, 0, len(photos)-1)
	s.open = true
	s.controlsVisible = true
	s.reset()
	return nil
}

// Close closes the session and drops the photo set.
func (s *Session) Close() {
	s.open = false
	s.source = nil
	s.photos = nil
	s.index = 0
	s.reset()
}

// IsOpen reports whether the viewer is showing a photo.
func (s *Session) IsOpen() bool {
	return s.open
}

// Index returns the current photo index.
func (s *Session) Index() int {
	return s.index
}

// Len returns the number of photos in the session.
func (s *Session) Len() int {
	return len(s.photos)
}

// Current returns the photo being shown.
func (s *Session) Current() (models.Photo, bool) {
	if !s.open || len(s.photos) == 0 {
		return models.Photo{}, false
	}
	return s.photos[s.index], true
}

// CanNext reports whether there is a photo after the current one.
func (s *Session) CanNext() bool {
	return s.open && s.index < len(s.photos)-1
}

// CanPrev reports whether there is a photo before the current one.
func (s *Session) CanPrev() bool {
	return s.open && s.index > 0
}

// Next advances to the next photo. It is a no-op on the last photo.
func (s *Session) Next() bool {
	if !s.CanNext() {
		return false
	}
	s.index++
	return true
}

// Prev goes back one photo. It is a no-op on the first photo.
func (s *Session) Prev() bool {
	if !s.CanPrev() {
		return false
	}
	s.index--
	return true
}

// ToggleControls flips the visibility of the header and action bar.
func (s *Session) ToggleControls() {
	s.controlsVisible = !s.controlsVisible
}

// ToggleLikeCurrent flips the liked flag of the current photo.
func (s *Session) ToggleLikeCurrent(ctx context.Context) (bool, error) {
	p, ok := s.Current()
	if !ok {
		return false, ErrNoPhotos
	}

	s.controlsVisible = true
	liked, err := s.source.ToggleLike(ctx, p.ID)
	if err != nil {
		return false, err
	}
	s.photos[s.index].Liked = liked
	return liked, nil
}

// DeleteCurrent removes the current photo from the source. The index is
// clamped into the remaining set and the session closes when nothing is
// left. A failed delete leaves the photo set and index unchanged.
func (s *Session) DeleteCurrent(ctx context.Context) error {
	p, ok := s.Current()
	if !ok {
		return ErrNoPhotos
	}

	s.controlsVisible = true
	if err := s.source.Delete(ctx, p.ID); err != nil {
		return err
	}

	photos, err := s.source.Photos(ctx)
	if err != nil {
		// The delete went through; drop the photo locally.
		photos = append(s.photos[:s.index:s.index], s.photos[s.index+1:]...)
	}

	s.photos = photos
	if len(photos) == 0 {
		s.Close()
		return nil
	}
	if s.index >= len(photos) {
		s.index = len(photos) - 1
	}
	return nil
}

// Reload re-reads the source, keeping the current photo when it is still
// present. The session closes if the source is now empty.
func (s *Session) Reload(ctx context.Context) error {
	if !s.open {
		return nil
	}

	photos, err := s.source.Photos(ctx)
	if err != nil {
		return fmt.Errorf("load photos: %w", err)
	}
	if len(photos) == 0 {
		s.Close()
		return nil
	}

	current := s.photos[s.index].ID
	index := clamp(s.index, 0, len(photos)-1)
	for i := range photos {
		if photos[i].ID == current {
			index = i
			break
		}
	}

	s.photos = photos
	s.index = index
	return nil
}

// showPanel puts the panel in its fully shown position.
func (s *Session) showPanel(transition string) {
	s.panel.Visible = true
	s.panel.Offset = 0
	s.panel.Transition = transition
	s.vertical.Offset = -s.travel
	s.vertical.Transition = transition
}

// hidePanel puts the panel in its fully hidden position.
func (s *Session) hidePanel(transition string) {
	s.panel.Visible = false
	s.panel.Offset = s.travel
	s.panel.Transition = transition
	s.vertical.Offset = 0
	s.vertical.Transition = transition
}

func (s *Session) reset() {
	s.swipe = idleAxis()
	s.vertical = idleAxis()
	s.panel = Panel{Phase: PhaseIdle}
	s.hidePanel(TransitionNone)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
