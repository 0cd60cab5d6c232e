package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/eduard256/imgable/gallery/pkg/logger"
	"github.com/eduard256/imgable/gallery/pkg/models"
)

// fakeClock fires timers only when advanced.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

// listSource is an in-memory Source.
type listSource struct {
	photos    []models.Photo
	deleteErr error
}

func newListSource(n int) *listSource {
	s := &listSource{}
	for i := 0; i < n; i++ {
		s.photos = append(s.photos, models.NewPhoto(fmt.Sprintf("photo-%d.jpg", i), time.Now()))
	}
	return s
}

func (s *listSource) Photos(_ context.Context) ([]models.Photo, error) {
	return models.ClonePhotos(s.photos), nil
}

func (s *listSource) Delete(_ context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for i := range s.photos {
		if s.photos[i].ID == id {
			s.photos = append(s.photos[:i], s.photos[i+1:]...)
			return nil
		}
	}
	return models.ErrNotFound
}

func (s *listSource) ToggleLike(_ context.Context, id string) (bool, error) {
	for i := range s.photos {
		if s.photos[i].ID == id {
			s.photos[i].Liked = !s.photos[i].Liked
			return s.photos[i].Liked, nil
		}
	}
	return false, models.ErrNotFound
}

func newTestController(t *testing.T, photos, index int) (*Controller, *fakeClock, *listSource) {
	t.Helper()
	clock := &fakeClock{}
	c := NewController(ControllerConfig{
		Gestures: DefaultGestureConfig(),
		Clock:    clock,
	}, logger.Nop())

	src := newListSource(photos)
	if err := c.Open(context.Background(), src, index); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return c, clock, src
}

// drag runs a full touch sequence from one point to another.
func drag(c *Controller, target Target, from, to Point) {
	c.TouchStart(Touch{Target: target, Point: from})
	c.TouchMove(to)
	c.TouchEnd(to)
}

func TestSwipe(t *testing.T) {
	tests := []struct {
		name      string
		photos    int
		index     int
		dx        float64 // finger movement, negative is leftward
		wantIndex int
		wantPhase Phase
	}{
		{name: "left past threshold goes next", photos: 3, index: 1, dx: -150, wantIndex: 2, wantPhase: PhaseCommitting},
		{name: "right past threshold goes prev", photos: 3, index: 1, dx: 150, wantIndex: 0, wantPhase: PhaseCommitting},
		{name: "below threshold snaps back", photos: 3, index: 1, dx: -80, wantIndex: 1, wantPhase: PhaseSnappingBack},
		{name: "exactly threshold snaps back", photos: 3, index: 1, dx: -100, wantIndex: 1, wantPhase: PhaseSnappingBack},
		{name: "right on first photo stays", photos: 3, index: 0, dx: 150, wantIndex: 0, wantPhase: PhaseCommitting},
		{name: "left on last photo stays", photos: 3, index: 2, dx: -150, wantIndex: 2, wantPhase: PhaseCommitting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, clock, _ := newTestController(t, tt.photos, tt.index)

			drag(c, TargetImage, Point{X: 200, Y: 400}, Point{X: 200 + tt.dx, Y: 405})

			s := c.State()
			if s.Index != tt.wantIndex {
				t.Errorf("index = %d, want %d", s.Index, tt.wantIndex)
			}
			if s.Swipe.Offset != 0 {
				t.Errorf("swipe offset = %f, want 0", s.Swipe.Offset)
			}
			if s.Swipe.Transition != TransitionEase {
				t.Errorf("swipe transition = %q, want %q", s.Swipe.Transition, TransitionEase)
			}
			if s.Swipe.Phase != tt.wantPhase {
				t.Errorf("swipe phase = %q, want %q", s.Swipe.Phase, tt.wantPhase)
			}

			clock.Advance(300 * time.Millisecond)

			s = c.State()
			if s.Swipe.Transition != TransitionNone || s.Swipe.Phase != PhaseIdle {
				t.Errorf("after animation: transition = %q, phase = %q, want none, idle",
					s.Swipe.Transition, s.Swipe.Phase)
			}
		})
	}
}

func TestSwipeTracking(t *testing.T) {
	t.Run("offset follows the finger", func(t *testing.T) {
		c, _, _ := newTestController(t, 3, 1)

		c.TouchStart(Touch{Target: TargetImage, Point: Point{X: 200, Y: 400}})
		c.TouchMove(Point{X: 140, Y: 402})

		s := c.State()
		if s.Swipe.Offset != -60 {
			t.Errorf("offset = %f, want -60", s.Swipe.Offset)
		}
		if s.Swipe.Phase != PhaseTracking || s.Swipe.Transition != TransitionNone {
			t.Errorf("phase = %q, transition = %q, want tracking, none", s.Swipe.Phase, s.Swipe.Transition)
		}
		if s.Gesture != "horizontal" {
			t.Errorf("gesture = %q, want horizontal", s.Gesture)
		}
	})

	t.Run("clamped at the first photo", func(t *testing.T) {
		c, _, _ := newTestController(t, 3, 0)

		c.TouchStart(Touch{Target: TargetImage, Point: Point{X: 100, Y: 400}})
		c.TouchMove(Point{X: 180, Y: 400})

		if got := c.State().Swipe.Offset; got != 0 {
			t.Errorf("offset = %f, want 0", got)
		}
	})

	t.Run("clamped at the last photo", func(t *testing.T) {
		c, _, _ := newTestController(t, 3, 2)

		c.TouchStart(Touch{Target: TargetImage, Point: Point{X: 300, Y: 400}})
		c.TouchMove(Point{X: 200, Y: 400})

		if got := c.State().Swipe.Offset; got != 0 {
			t.Errorf("offset = %f, want 0", got)
		}
	})

	t.Run("horizontal wins over vertical", func(t *testing.T) {
		c, _, _ := newTestController(t, 3, 1)

		c.TouchStart(Touch{Target: TargetImage, Point: Point{X: 200, Y: 400}})
		c.TouchMove(Point{X: 170, Y: 380})

		if got := c.State().Gesture; got != "horizontal" {
			t.Errorf("gesture = %q, want horizontal", got)
		}
	})
}

func TestVerticalReveal(t *testing.T) {
	tests := []struct {
		name        string
		startOpen   bool
		dy          float64 // finger movement, negative is upward
		wantVisible bool
		wantPhase   Phase
	}{
		{name: "80px up stays hidden", startOpen: false, dy: -80, wantVisible: false, wantPhase: PhaseSnappingBack},
		{name: "120px up opens", startOpen: false, dy: -120, wantVisible: true, wantPhase: PhaseCommitting},
		{name: "80px down stays open", startOpen: true, dy: 80, wantVisible: true, wantPhase: PhaseSnappingBack},
		{name: "120px down closes", startOpen: true, dy: 120, wantVisible: false, wantPhase: PhaseCommitting},
		{name: "far up opens", startOpen: false, dy: -600, wantVisible: true, wantPhase: PhaseCommitting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, clock, _ := newTestController(t, 3, 0)
			if tt.startOpen {
				drag(c, TargetImage, Point{X: 200, Y: 600}, Point{X: 200, Y: 400})
				clock.Advance(300 * time.Millisecond)
				if !c.State().Panel.Visible {
					t.Fatal("panel should be open before the test drag")
				}
			}

			drag(c, TargetImage, Point{X: 200, Y: 500}, Point{X: 202, Y: 500 + tt.dy})

			s := c.State()
			if s.Panel.Visible != tt.wantVisible {
				t.Errorf("panel visible = %v, want %v", s.Panel.Visible, tt.wantVisible)
			}
			if s.Vertical.Phase != tt.wantPhase {
				t.Errorf("vertical phase = %q, want %q", s.Vertical.Phase, tt.wantPhase)
			}

			wantVertical, wantPanel := 0.0, 200.0
			if tt.wantVisible {
				wantVertical, wantPanel = -200, 0
			}
			if s.Vertical.Offset != wantVertical || s.Panel.Offset != wantPanel {
				t.Errorf("offsets = (%f, %f), want (%f, %f)",
					s.Vertical.Offset, s.Panel.Offset, wantVertical, wantPanel)
			}
			if s.Vertical.Transition != TransitionEase || s.Panel.Transition != TransitionEase {
				t.Errorf("transitions = (%q, %q), want ease", s.Vertical.Transition, s.Panel.Transition)
			}
			if s.Index != 0 {
				t.Errorf("index = %d, want 0", s.Index)
			}

			clock.Advance(300 * time.Millisecond)
			s = c.State()
			if s.Vertical.Transition != TransitionNone || s.Vertical.Phase != PhaseIdle {
				t.Errorf("after animation: transition = %q, phase = %q", s.Vertical.Transition, s.Vertical.Phase)
			}
		})
	}
}

func TestVerticalRevealTracking(t *testing.T) {
	c, _, _ := newTestController(t, 1, 0)

	c.TouchStart(Touch{Target: TargetImage, Point: Point{X: 200, Y: 600}})

	c.TouchMove(Point{X: 200, Y: 550})
	s := c.State()
	if s.Vertical.Offset != -50 || s.Panel.Offset != 150 {
		t.Errorf("offsets = (%f, %f), want (-50, 150)", s.Vertical.Offset, s.Panel.Offset)
	}

	// Travel is clamped to the panel height
	c.TouchMove(Point{X: 200, Y: 100})
	s = c.State()
	if s.Vertical.Offset != -200 || s.Panel.Offset != 0 {
		t.Errorf("clamped offsets = (%f, %f), want (-200, 0)", s.Vertical.Offset, s.Panel.Offset)
	}
	if s.Panel.Visible {
		t.Error("panel should not be visible before release")
	}
}

func TestVerticalRevealDirectionGate(t *testing.T) {
	c, clock, _ := newTestController(t, 1, 0)
	before := c.State()

	// Downward drag with the panel hidden claims nothing
	c.TouchStart(Touch{Target: TargetImage, Point: Point{X: 200, Y: 300}})
	c.TouchMove(Point{X: 200, Y: 450})
	if got := c.State().Gesture; got != "none" {
		t.Errorf("gesture = %q, want none", got)
	}
	c.TouchEnd(Point{X: 200, Y: 450})
	clock.Advance(time.Second)

	after := c.State()
	if after.Vertical != before.Vertical || after.Panel != before.Panel || after.Swipe != before.Swipe {
		t.Errorf("state changed: %+v, want %+v", after, before)
	}
}

func TestUnclaimedSequenceChangesNothing(t *testing.T) {
	c, clock, _ := newTestController(t, 3, 1)
	before := c.State()

	c.TouchStart(Touch{Target: TargetImage, Point: Point{X: 200, Y: 400}})
	c.TouchMove(Point{X: 206, Y: 404})
	// Release far away: only movement seen before the end counts
	c.TouchEnd(Point{X: 0, Y: 400})
	clock.Advance(time.Second)

	after := c.State()
	if after.Index != before.Index || after.Swipe != before.Swipe ||
		after.Vertical != before.Vertical || after.Panel != before.Panel {
		t.Errorf("state changed: %+v, want %+v", after, before)
	}
}

func TestPanelPullToDismiss(t *testing.T) {
	tests := []struct {
		name        string
		scrollTop   float64
		pull        float64
		wantPrevent bool
		wantVisible bool
	}{
		{name: "pull past dismiss hides", scrollTop: 0, pull: 70, wantPrevent: true, wantVisible: false},
		{name: "pull within tolerance hides", scrollTop: 5, pull: 70, wantPrevent: true, wantVisible: false},
		{name: "short pull stays open", scrollTop: 0, pull: 40, wantPrevent: true, wantVisible: true},
		{name: "below activation is a scroll", scrollTop: 0, pull: 20, wantPrevent: false, wantVisible: true},
		{name: "scrolled panel is a scroll", scrollTop: 30, pull: 120, wantPrevent: false, wantVisible: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, clock, _ := newTestController(t, 2, 0)
			drag(c, TargetImage, Point{X: 200, Y: 600}, Point{X: 200, Y: 400})
			clock.Advance(300 * time.Millisecond)

			c.TouchStart(Touch{Target: TargetPanel, Point: Point{X: 200, Y: 500}, ScrollTop: tt.scrollTop})
			prevent := c.TouchMove(Point{X: 200, Y: 500 - tt.pull})
			c.TouchEnd(Point{X: 200, Y: 500 - tt.pull})

			if prevent != tt.wantPrevent {
				t.Errorf("TouchMove() prevent = %v, want %v", prevent, tt.wantPrevent)
			}

			s := c.State()
			if s.Panel.Visible != tt.wantVisible {
				t.Errorf("panel visible = %v, want %v", s.Panel.Visible, tt.wantVisible)
			}
			if tt.wantVisible && s.Panel.Offset != 0 {
				t.Errorf("panel offset = %f, want 0", s.Panel.Offset)
			}
		})
	}
}

func TestPanelTouchIgnoredWhenHidden(t *testing.T) {
	c, _, _ := newTestController(t, 2, 0)

	c.TouchStart(Touch{Target: TargetPanel, Point: Point{X: 200, Y: 500}})
	if c.TouchMove(Point{X: 200, Y: 400}) {
		t.Error("TouchMove() should not prevent scrolling on a hidden panel")
	}
	c.TouchEnd(Point{X: 200, Y: 400})

	if c.State().Panel.Visible {
		t.Error("panel should stay hidden")
	}
}

func TestChromeTouchIgnored(t *testing.T) {
	c, _, _ := newTestController(t, 3, 1)

	drag(c, TargetChrome, Point{X: 300, Y: 40}, Point{X: 50, Y: 40})

	if got := c.State().Index; got != 1 {
		t.Errorf("index = %d, want 1", got)
	}
}

func TestTap(t *testing.T) {
	c, _, _ := newTestController(t, 1, 0)

	if !c.State().ControlsVisible {
		t.Fatal("controls should be visible after open")
	}

	c.Tap(TargetChrome)
	if !c.State().ControlsVisible {
		t.Error("tap on chrome should not hide controls")
	}

	c.Tap(TargetImage)
	if c.State().ControlsVisible {
		t.Error("tap on image should hide controls")
	}

	c.Tap(TargetImage)
	if !c.State().ControlsVisible {
		t.Error("second tap on image should show controls")
	}
}

func TestLikeShowsControls(t *testing.T) {
	c, _, src := newTestController(t, 2, 1)
	c.Tap(TargetImage)

	liked, err := c.Like(context.Background())
	if err != nil {
		t.Fatalf("Like() error = %v", err)
	}
	if !liked {
		t.Error("Like() = false, want true")
	}

	s := c.State()
	if !s.ControlsVisible {
		t.Error("controls should be visible after like")
	}
	if s.Photo == nil || !s.Photo.Liked {
		t.Error("current photo should be liked in the viewer state")
	}
	if !src.photos[1].Liked {
		t.Error("like should be written to the source")
	}
}

func TestDeleteCurrent(t *testing.T) {
	t.Run("last photo closes the viewer", func(t *testing.T) {
		c, _, _ := newTestController(t, 1, 0)

		if err := c.DeleteCurrent(context.Background()); err != nil {
			t.Fatalf("DeleteCurrent() error = %v", err)
		}
		if c.State().Open {
			t.Error("viewer should close after deleting its only photo")
		}
	})

	t.Run("end of list clamps the index", func(t *testing.T) {
		c, _, src := newTestController(t, 3, 2)

		if err := c.DeleteCurrent(context.Background()); err != nil {
			t.Fatalf("DeleteCurrent() error = %v", err)
		}

		s := c.State()
		if !s.Open || s.Index != 1 || s.Count != 2 {
			t.Errorf("open = %v, index = %d, count = %d, want true, 1, 2", s.Open, s.Index, s.Count)
		}
		if len(src.photos) != 2 {
			t.Errorf("source has %d photos, want 2", len(src.photos))
		}
	})

	t.Run("middle keeps the index on the next photo", func(t *testing.T) {
		c, _, _ := newTestController(t, 3, 1)

		_ = c.DeleteCurrent(context.Background())

		s := c.State()
		if s.Index != 1 || s.Photo == nil || s.Photo.ID != "photo-2.jpg" {
			t.Errorf("index = %d, photo = %v, want 1, photo-2.jpg", s.Index, s.Photo)
		}
	})

	t.Run("failure leaves the session unchanged", func(t *testing.T) {
		c, _, src := newTestController(t, 3, 2)
		src.deleteErr = errors.New("permission denied")
		c.Tap(TargetImage)

		err := c.DeleteCurrent(context.Background())
		if !errors.Is(err, src.deleteErr) {
			t.Errorf("DeleteCurrent() error = %v, want %v", err, src.deleteErr)
		}

		s := c.State()
		if !s.Open || s.Index != 2 || s.Count != 3 {
			t.Errorf("open = %v, index = %d, count = %d, want true, 2, 3", s.Open, s.Index, s.Count)
		}
		if !s.ControlsVisible {
			t.Error("controls should be visible after a delete attempt")
		}
	})

	t.Run("closed viewer", func(t *testing.T) {
		c, _, _ := newTestController(t, 1, 0)
		c.Close()

		if err := c.DeleteCurrent(context.Background()); !errors.Is(err, ErrNoPhotos) {
			t.Errorf("DeleteCurrent() error = %v, want ErrNoPhotos", err)
		}
	})
}

func TestTouchCancelSnapsBack(t *testing.T) {
	c, clock, _ := newTestController(t, 3, 1)

	c.TouchStart(Touch{Target: TargetImage, Point: Point{X: 300, Y: 400}})
	c.TouchMove(Point{X: 100, Y: 400})
	c.TouchCancel()

	s := c.State()
	if s.Index != 1 || s.Swipe.Offset != 0 || s.Swipe.Phase != PhaseSnappingBack {
		t.Errorf("index = %d, offset = %f, phase = %q, want 1, 0, snapping_back",
			s.Index, s.Swipe.Offset, s.Swipe.Phase)
	}

	// A release after cancel belongs to no sequence
	c.TouchEnd(Point{X: 100, Y: 400})
	clock.Advance(300 * time.Millisecond)
	if got := c.State().Index; got != 1 {
		t.Errorf("index after stray release = %d, want 1", got)
	}
}

func TestCancelSequenceOnlyCancelsOwnSequence(t *testing.T) {
	c, _, _ := newTestController(t, 3, 0)

	first := c.TouchStart(Touch{Target: TargetImage, Point: Point{X: 300, Y: 400}})
	c.TouchEnd(Point{X: 300, Y: 400})
	id := c.TouchStart(Touch{Target: TargetImage, Point: Point{X: 300, Y: 400}})
	c.TouchMove(Point{X: 250, Y: 402})
	if id == 0 || id == first {
		t.Fatalf("sequence ids = %d, %d, want distinct and non-zero", first, id)
	}

	for _, stale := range []uint64{0, first, id + 1} {
		if c.CancelSequence(stale) {
			t.Errorf("CancelSequence(%d) = true, want false", stale)
		}
	}
	if s := c.State(); s.Gesture != "horizontal" || s.Swipe.Offset != -50 {
		t.Fatalf("gesture = %q, offset = %f, want horizontal, -50", s.Gesture, s.Swipe.Offset)
	}

	if !c.CancelSequence(id) {
		t.Fatal("CancelSequence(own) = false, want true")
	}
	s := c.State()
	if s.Gesture != "none" || s.Swipe.Phase != PhaseSnappingBack || s.Index != 0 {
		t.Errorf("after cancel = %q, %q at %d", s.Gesture, s.Swipe.Phase, s.Index)
	}
	if c.CancelSequence(id) {
		t.Error("second CancelSequence(own) = true, want false")
	}
}

func TestTouchStartWhenClosed(t *testing.T) {
	c, _, _ := newTestController(t, 1, 0)
	c.Close()
	if id := c.TouchStart(Touch{Target: TargetImage, Point: Point{X: 10, Y: 10}}); id != 0 {
		t.Errorf("TouchStart() on closed viewer = %d, want 0", id)
	}
}

func TestLateTimerDoesNotDisturbNewGesture(t *testing.T) {
	c, clock, _ := newTestController(t, 5, 0)

	drag(c, TargetImage, Point{X: 300, Y: 400}, Point{X: 100, Y: 400})
	clock.Advance(100 * time.Millisecond)

	c.TouchStart(Touch{Target: TargetImage, Point: Point{X: 300, Y: 400}})
	c.TouchMove(Point{X: 250, Y: 400})
	clock.Advance(300 * time.Millisecond)

	s := c.State()
	if s.Swipe.Phase != PhaseTracking || s.Swipe.Offset != -50 || s.Index != 1 {
		t.Errorf("phase = %q, offset = %f, index = %d, want tracking, -50, 1",
			s.Swipe.Phase, s.Swipe.Offset, s.Index)
	}
}

func TestNextPrevButtons(t *testing.T) {
	c, _, _ := newTestController(t, 2, 0)

	if c.Prev() {
		t.Error("Prev() on first photo should be a no-op")
	}
	if !c.Next() {
		t.Error("Next() should move to the second photo")
	}
	if c.Next() {
		t.Error("Next() on last photo should be a no-op")
	}
	if got := c.State().Index; got != 1 {
		t.Errorf("index = %d, want 1", got)
	}
}

func TestOpen(t *testing.T) {
	c := NewController(ControllerConfig{Gestures: DefaultGestureConfig(), Clock: &fakeClock{}}, logger.Nop())

	if err := c.Open(context.Background(), newListSource(0), 0); !errors.Is(err, ErrNoPhotos) {
		t.Errorf("Open() on empty source error = %v, want ErrNoPhotos", err)
	}
	if c.State().Open {
		t.Error("viewer should stay closed")
	}

	if err := c.Open(context.Background(), newListSource(3), 7); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := c.State().Index; got != 2 {
		t.Errorf("index = %d, want clamped 2", got)
	}

	// Gestures on a closed viewer do nothing
	c.Close()
	drag(c, TargetImage, Point{X: 300, Y: 400}, Point{X: 100, Y: 400})
	if s := c.State(); s.Open || s.Index != 0 {
		t.Errorf("closed viewer state = %+v", s)
	}
}

func TestReloadFollowsCurrentPhoto(t *testing.T) {
	c, _, src := newTestController(t, 3, 1)

	// A new photo arrives at the front of the collection
	src.photos = append([]models.Photo{models.NewPhoto("new.jpg", time.Now())}, src.photos...)

	if err := c.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	s := c.State()
	if s.Index != 2 || s.Photo.ID != "photo-1.jpg" {
		t.Errorf("index = %d, photo = %s, want 2, photo-1.jpg", s.Index, s.Photo.ID)
	}

	src.photos = nil
	_ = c.Reload(context.Background())
	if c.State().Open {
		t.Error("viewer should close when its source empties")
	}
}

type fakeStore struct {
	photos    []models.Photo
	deleteErr error
	deleted   []string
}

func (s *fakeStore) Photos(_ context.Context) ([]models.Photo, error) {
	return models.ClonePhotos(s.photos), nil
}

func (s *fakeStore) DeletePhotos(_ context.Context, ids []string) ([]string, error) {
	if s.deleteErr != nil {
		return nil, s.deleteErr
	}
	for _, id := range ids {
		s.remove(id)
	}
	s.deleted = append(s.deleted, ids...)
	return ids, nil
}

func (s *fakeStore) ToggleLike(_ context.Context, id string) (bool, error) {
	for i := range s.photos {
		if s.photos[i].ID == id {
			s.photos[i].Liked = !s.photos[i].Liked
			return s.photos[i].Liked, nil
		}
	}
	return false, models.ErrNotFound
}

func (s *fakeStore) remove(id string) {
	for i := range s.photos {
		if s.photos[i].ID == id {
			s.photos = append(s.photos[:i], s.photos[i+1:]...)
			return
		}
	}
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	photos := newListSource(3).photos
	store := &fakeStore{photos: models.ClonePhotos(photos)}
	snap := NewSnapshot(photos, store)

	if err := snap.Delete(ctx, "photo-1.jpg"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	got, _ := snap.Photos(ctx)
	if len(got) != 2 || got[0].ID != "photo-0.jpg" || got[1].ID != "photo-2.jpg" {
		t.Errorf("Photos() = %v", got)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "photo-1.jpg" {
		t.Errorf("store deletes = %v, want [photo-1.jpg]", store.deleted)
	}

	store.deleteErr = errors.New("disk full")
	if err := snap.Delete(ctx, "photo-0.jpg"); err == nil {
		t.Error("Delete() should fail when the store fails")
	}
	got, _ = snap.Photos(ctx)
	if len(got) != 2 {
		t.Errorf("failed delete removed a photo: %v", got)
	}
	store.deleteErr = nil

	if liked, _ := snap.ToggleLike(ctx, "photo-2.jpg"); !liked {
		t.Error("ToggleLike() = false, want true")
	}
	got, _ = snap.Photos(ctx)
	if !got[1].Liked {
		t.Error("snapshot should reflect the like")
	}
}

func TestSnapshotFollowsStore(t *testing.T) {
	ctx := context.Background()
	photos := newListSource(3).photos
	store := &fakeStore{photos: models.ClonePhotos(photos)}
	snap := NewSnapshot(photos[:2], store)

	// Changes made without going through the snapshot
	store.remove("photo-0.jpg")
	store.photos[0].Liked = true

	got, err := snap.Photos(ctx)
	if err != nil {
		t.Fatalf("Photos() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "photo-1.jpg" || !got[0].Liked {
		t.Errorf("Photos() = %v, want the liked photo-1.jpg only", got)
	}

	c, _, _ := newTestController(t, 1, 0)
	if err := c.Open(ctx, snap, 0); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	store.remove("photo-1.jpg")
	if err := c.Reload(ctx); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if c.State().Open {
		t.Error("viewer should close when every snapshot photo is gone")
	}
}

func TestParseTarget(t *testing.T) {
	tests := map[string]Target{
		"image":   TargetImage,
		"IMG":     TargetImage,
		"panel":   TargetPanel,
		"header":  TargetChrome,
		"":        TargetChrome,
		"buttons": TargetChrome,
	}

	for in, want := range tests {
		if got := ParseTarget(in); got != want {
			t.Errorf("ParseTarget(%q) = %v, want %v", in, got, want)
		}
	}
}
