package viewer

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/eduard256/imgable/gallery/internal/metrics"
	"github.com/eduard256/imgable/gallery/pkg/logger"
	"github.com/eduard256/imgable/gallery/pkg/models"
)

// Target is the element a touch sequence started on.
type Target int

const (
	// TargetImage is the photo itself: swipe and reveal gestures, taps.
	TargetImage Target = iota
	// TargetPanel is the metadata panel: pull to dismiss.
	TargetPanel
	// TargetChrome is the header, footer and action buttons.
	TargetChrome
)

func (t Target) String() string {
	switch t {
	case TargetImage:
		return "image"
	case TargetPanel:
		return "panel"
	default:
		return "chrome"
	}
}

// ParseTarget converts a target name. Unknown names map to TargetChrome,
// which no gesture reacts to.
func ParseTarget(s string) Target {
	switch strings.ToLower(s) {
	case "image", "img":
		return TargetImage
	case "panel", "metadata":
		return TargetPanel
	default:
		return TargetChrome
	}
}

// Point is a touch position in screen pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Touch starts a touch sequence.
type Touch struct {
	Target Target
	Point
	// ScrollTop is the panel scroll position, used for TargetPanel
	ScrollTop float64
}

// GestureConfig holds gesture thresholds in pixels.
type GestureConfig struct {
	// Movement before the swipe or reveal axis claims a sequence
	ActivationPx float64

	// Horizontal displacement at release that changes photo
	SwipeCommitPx float64

	// Reveal travel between panel hidden and shown
	RevealTravelPx float64

	// Upward travel from hidden that opens the panel
	RevealOpenPx float64

	// Downward travel from shown that closes the panel
	RevealClosePx float64

	// Panel scroll position still considered at the top
	PanelTopTolerancePx float64

	// Upward pull inside the panel that starts pull to dismiss
	PanelActivationPx float64

	// Pull at release that dismisses the panel
	PanelDismissPx float64

	// Keep the swipe offset at 0 when there is no photo in that direction
	ClampEdges bool

	// How long commit and snap back animations run
	TransitionDuration time.Duration
}

// DefaultGestureConfig returns the standard thresholds.
func DefaultGestureConfig() GestureConfig {
	return GestureConfig{
		ActivationPx:        10,
		SwipeCommitPx:       100,
		RevealTravelPx:      200,
		RevealOpenPx:        100,
		RevealClosePx:       100,
		PanelTopTolerancePx: 5,
		PanelActivationPx:   25,
		PanelDismissPx:      60,
		ClampEdges:          true,
		TransitionDuration:  300 * time.Millisecond,
	}
}

type axis int

const (
	axisNone axis = iota
	axisHorizontal
	axisVertical
	axisPanel
)

func (a axis) String() string {
	switch a {
	case axisHorizontal:
		return "horizontal"
	case axisVertical:
		return "vertical"
	case axisPanel:
		return "panel"
	default:
		return "none"
	}
}

// sequence is one touch from start to end. The first axis to pass its
// activation threshold claims it.
type sequence struct {
	id    uint64
	touch Touch
	axis  axis

	// Panel visibility when the sequence started
	panelVisible bool
}

// Controller interprets touch sequences against a session. All methods
// are safe for concurrent use; events are applied one at a time.
type Controller struct {
	mu      sync.Mutex
	session *Session
	cfg     GestureConfig
	clock   Clock
	seq     *sequence
	lastSeq uint64

	swipeTimer  Timer
	revealTimer Timer
	panelTimer  Timer

	metrics *metrics.Metrics
	logger  *logger.Logger
}

// ControllerConfig holds controller dependencies.
type ControllerConfig struct {
	Gestures GestureConfig

	// Clock defaults to the wall clock
	Clock Clock

	Metrics *metrics.Metrics
}

// NewController creates a controller with a closed session.
func NewController(cfg ControllerConfig, log *logger.Logger) *Controller {
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}

	return &Controller{
		session: NewSession(cfg.Gestures.RevealTravelPx),
		cfg:     cfg.Gestures,
		clock:   clock,
		metrics: cfg.Metrics,
		logger:  log.Component("viewer"),
	}
}

// Open shows the photo at index from source.
func (c *Controller) Open(ctx context.Context, source Source, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTimers()
	c.seq = nil
	if err := c.session.Open(ctx, source, index); err != nil {
		return err
	}

	c.logger.WithFields(map[string]interface{}{
		"photos": c.session.Len(),
		"index":  c.session.Index(),
	}).Debug("viewer opened")
	return nil
}

// Close closes the viewer.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTimers()
	c.seq = nil
	c.session.Close()
}

// Next shows the next photo with the swipe animation.
func (c *Controller) Next() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.Next() {
		return false
	}
	c.settleSwipe(PhaseCommitting)
	return true
}

// Prev shows the previous photo with the swipe animation.
func (c *Controller) Prev() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.Prev() {
		return false
	}
	c.settleSwipe(PhaseCommitting)
	return true
}

// Tap handles a click that was not part of a swipe. Only taps on the image
// toggle the controls.
func (c *Controller) Tap(target Target) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.IsOpen() || target != TargetImage {
		return
	}
	c.session.ToggleControls()
}

// Like toggles the liked flag of the current photo. Controls stay visible.
func (c *Controller) Like(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	liked, err := c.session.ToggleLikeCurrent(ctx)
	if err != nil {
		return false, fmt.Errorf("toggle like: %w", err)
	}
	return liked, nil
}

// DeleteCurrent deletes the current photo. The viewer closes when it was
// the last one. Controls stay visible.
func (c *Controller) DeleteCurrent(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, _ := c.session.Current()
	if err := c.session.DeleteCurrent(ctx); err != nil {
		c.logger.WithError(err).WithPhoto(p.ID).Warn("failed to delete photo")
		return fmt.Errorf("delete current photo: %w", err)
	}
	if !c.session.IsOpen() {
		c.stopTimers()
		c.seq = nil
	}
	return nil
}

// Reload re-reads the session source after a collection change.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.session.Reload(ctx); err != nil {
		return err
	}
	if !c.session.IsOpen() {
		c.stopTimers()
		c.seq = nil
	}
	return nil
}

// TouchStart begins a touch sequence and returns its id, or 0 when the
// viewer is closed. An unfinished previous sequence is cancelled.
func (c *Controller) TouchStart(t Touch) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.seq != nil {
		c.cancel()
	}
	if !c.session.IsOpen() {
		return 0
	}

	c.lastSeq++
	c.seq = &sequence{
		id:           c.lastSeq,
		touch:        t,
		panelVisible: c.session.panel.Visible,
	}
	return c.lastSeq
}

// TouchMove updates the active sequence. It returns true when the default
// scroll handling must be prevented.
func (c *Controller) TouchMove(p Point) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.seq == nil {
		return false
	}

	if c.seq.axis == axisNone {
		c.seq.axis = c.claim(p)
		if c.seq.axis != axisNone {
			c.logger.WithField("axis", c.seq.axis.String()).Debug("gesture claimed")
		}
	}

	switch c.seq.axis {
	case axisHorizontal:
		c.trackSwipe(p)
	case axisVertical:
		c.trackReveal(p)
	case axisPanel:
		c.session.panel.Phase = PhaseTracking
		return true
	}
	return false
}

// TouchEnd finishes the active sequence at p. A sequence that never
// claimed an axis changes nothing.
func (c *Controller) TouchEnd(p Point) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seq := c.seq
	c.seq = nil
	if seq == nil || !c.session.IsOpen() {
		return
	}

	switch seq.axis {
	case axisHorizontal:
		c.releaseSwipe(seq, p)
	case axisVertical:
		c.releaseReveal(seq, p)
	case axisPanel:
		c.releasePanel(seq, p)
	}
}

// TouchCancel aborts the active sequence and animates back to the state
// before it started.
func (c *Controller) TouchCancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancel()
}

// CancelSequence cancels the active sequence only if it is the one with
// id. It reports whether anything was cancelled.
func (c *Controller) CancelSequence(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id == 0 || c.seq == nil || c.seq.id != id {
		return false
	}
	c.cancel()
	return true
}

// claim picks the axis for the active sequence, or axisNone while no
// threshold is passed. Horizontal wins over vertical.
func (c *Controller) claim(p Point) axis {
	seq := c.seq
	dx := seq.touch.X - p.X
	dy := seq.touch.Y - p.Y

	switch seq.touch.Target {
	case TargetImage:
		if math.Abs(dx) > math.Abs(dy) && math.Abs(dx) > c.cfg.ActivationPx {
			return axisHorizontal
		}
		if math.Abs(dy) > c.cfg.ActivationPx {
			// Up opens a hidden panel, down closes a visible one
			if (!seq.panelVisible && dy > 0) || (seq.panelVisible && dy < 0) {
				return axisVertical
			}
		}
	case TargetPanel:
		if seq.panelVisible && seq.touch.ScrollTop <= c.cfg.PanelTopTolerancePx && dy > c.cfg.PanelActivationPx {
			return axisPanel
		}
	}
	return axisNone
}

func (c *Controller) trackSwipe(p Point) {
	s := c.session
	offset := p.X - c.seq.touch.X

	if c.cfg.ClampEdges {
		if offset > 0 && !s.CanPrev() {
			offset = 0
		}
		if offset < 0 && !s.CanNext() {
			offset = 0
		}
	}

	s.swipe.Offset = offset
	s.swipe.Transition = TransitionNone
	s.swipe.Phase = PhaseTracking
}

func (c *Controller) releaseSwipe(seq *sequence, p Point) {
	dx := seq.touch.X - p.X

	phase := PhaseSnappingBack
	if math.Abs(dx) > c.cfg.SwipeCommitPx {
		phase = PhaseCommitting
		if dx > 0 {
			c.session.Next()
		} else {
			c.session.Prev()
		}
	}

	c.metrics.IncGesture(axisHorizontal.String(), outcome(phase))
	c.settleSwipe(phase)
}

// settleSwipe animates the swipe offset back to 0.
func (c *Controller) settleSwipe(phase Phase) {
	s := c.session
	s.swipe.Offset = 0
	s.swipe.Transition = TransitionEase
	s.swipe.Phase = phase

	stop(c.swipeTimer)
	c.swipeTimer = c.clock.AfterFunc(c.cfg.TransitionDuration, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if s.swipe.Phase != PhaseTracking {
			s.swipe.Transition = TransitionNone
			s.swipe.Phase = PhaseIdle
		}
	})
}

// revealTravel returns how far the current touch has moved in the
// direction that changes panel visibility, within [0, travel].
func (c *Controller) revealTravel(seq *sequence, p Point) float64 {
	d := seq.touch.Y - p.Y
	if seq.panelVisible {
		d = -d
	}
	return math.Max(0, math.Min(d, c.cfg.RevealTravelPx))
}

func (c *Controller) trackReveal(p Point) {
	s := c.session
	travel := c.revealTravel(c.seq, p)

	if c.seq.panelVisible {
		s.vertical.Offset = -c.cfg.RevealTravelPx + travel
		s.panel.Offset = travel
	} else {
		s.vertical.Offset = -travel
		s.panel.Offset = c.cfg.RevealTravelPx - travel
	}

	s.vertical.Transition = TransitionNone
	s.vertical.Phase = PhaseTracking
	s.panel.Transition = TransitionNone
}

func (c *Controller) releaseReveal(seq *sequence, p Point) {
	travel := c.revealTravel(seq, p)

	var phase Phase
	if seq.panelVisible {
		phase = c.settleReveal(travel <= c.cfg.RevealClosePx)
	} else {
		phase = c.settleReveal(travel > c.cfg.RevealOpenPx)
	}

	c.metrics.IncGesture(axisVertical.String(), outcome(phase))
}

// settleReveal animates the panel to shown or hidden and reports whether
// that changed its visibility.
func (c *Controller) settleReveal(show bool) Phase {
	s := c.session

	phase := PhaseSnappingBack
	if show != s.panel.Visible {
		phase = PhaseCommitting
	}

	if show {
		s.showPanel(TransitionEase)
	} else {
		s.hidePanel(TransitionEase)
	}
	s.vertical.Phase = phase
	c.scheduleRevealReset()

	if phase == PhaseCommitting {
		c.logger.WithField("visible", show).Debug("metadata panel toggled")
	}
	return phase
}

func (c *Controller) releasePanel(seq *sequence, p Point) {
	s := c.session
	pull := seq.touch.Y - p.Y

	phase := PhaseSnappingBack
	if pull > c.cfg.PanelDismissPx {
		phase = PhaseCommitting
		s.hidePanel(TransitionEase)
		s.vertical.Phase = phase
		c.scheduleRevealReset()
	}
	s.panel.Phase = phase

	stop(c.panelTimer)
	c.panelTimer = c.clock.AfterFunc(c.cfg.TransitionDuration, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if s.panel.Phase != PhaseTracking {
			s.panel.Phase = PhaseIdle
		}
	})

	c.metrics.IncGesture(axisPanel.String(), outcome(phase))
}

func (c *Controller) scheduleRevealReset() {
	s := c.session

	stop(c.revealTimer)
	c.revealTimer = c.clock.AfterFunc(c.cfg.TransitionDuration, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if s.vertical.Phase != PhaseTracking {
			s.vertical.Transition = TransitionNone
			s.vertical.Phase = PhaseIdle
			s.panel.Transition = TransitionNone
		}
	})
}

// cancel snaps the claimed axis of the active sequence back.
func (c *Controller) cancel() {
	seq := c.seq
	c.seq = nil
	if seq == nil || !c.session.IsOpen() {
		return
	}

	switch seq.axis {
	case axisHorizontal:
		c.settleSwipe(PhaseSnappingBack)
	case axisVertical:
		c.settleReveal(seq.panelVisible)
	default:
		return
	}
	c.metrics.IncGesture(seq.axis.String(), "cancel")
}

func (c *Controller) stopTimers() {
	stop(c.swipeTimer)
	stop(c.revealTimer)
	stop(c.panelTimer)
	c.swipeTimer, c.revealTimer, c.panelTimer = nil, nil, nil
}

// State returns a snapshot of the viewer.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	state := State{
		Open:            s.IsOpen(),
		Index:           s.Index(),
		Count:           s.Len(),
		ControlsVisible: s.controlsVisible,
		CanNext:         s.CanNext(),
		CanPrev:         s.CanPrev(),
		Swipe:           s.swipe,
		Vertical:        s.vertical,
		Panel:           s.panel,
		Gesture:         axisNone.String(),
	}
	if p, ok := s.Current(); ok {
		cp := p.Clone()
		state.Photo = &cp
	}
	if c.seq != nil {
		state.Gesture = c.seq.axis.String()
	}
	return state
}

// State is a point-in-time view of the viewer for rendering.
type State struct {
	Open            bool          `json:"open"`
	Index           int           `json:"index"`
	Count           int           `json:"count"`
	Photo           *models.Photo `json:"photo,omitempty"`
	ControlsVisible bool          `json:"controls_visible"`
	CanNext         bool          `json:"can_next"`
	CanPrev         bool          `json:"can_prev"`
	Swipe           Axis          `json:"swipe"`
	Vertical        Axis          `json:"vertical"`
	Panel           Panel         `json:"panel"`

	// Axis claimed by the touch in progress, "none" otherwise
	Gesture string `json:"gesture"`
}

func outcome(p Phase) string {
	if p == PhaseCommitting {
		return "commit"
	}
	return "snap_back"
}

func stop(t Timer) {
	if t != nil {
		t.Stop()
	}
}
