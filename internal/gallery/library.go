// Package gallery owns the photo collection: the library that writes
// through to the store and publishes change events, and the grid views
// (all photos, liked photos) with their selection state.
package gallery

import (
	"context"
	"fmt"
	"sync"

	"github.com/eduard256/imgable/gallery/internal/metrics"
	"github.com/eduard256/imgable/gallery/internal/store"
	"github.com/eduard256/imgable/gallery/pkg/logger"
	"github.com/eduard256/imgable/gallery/pkg/models"
)

// Library is the photo collection. Every change is written to the store
// and then published to subscribers.
type Library struct {
	store   store.PhotoStore
	metrics *metrics.Metrics
	logger  *logger.Logger

	mu          sync.RWMutex
	subscribers []func(models.Event)
}

// NewLibrary creates a library over st.
func NewLibrary(st store.PhotoStore, m *metrics.Metrics, log *logger.Logger) *Library {
	return &Library{
		store:   st,
		metrics: m,
		logger:  log.Component("library"),
	}
}

// Subscribe registers fn for every collection change. Subscribers are
// called synchronously in registration order.
func (l *Library) Subscribe(fn func(models.Event)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subscribers = append(l.subscribers, fn)
}

// Photos returns the collection, newest first.
func (l *Library) Photos(ctx context.Context) ([]models.Photo, error) {
	photos, err := l.store.ListPhotos(ctx)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	return photos, nil
}

// Liked returns the liked photos, newest first.
func (l *Library) Liked(ctx context.Context) ([]models.Photo, error) {
	photos, err := l.Photos(ctx)
	if err != nil {
		return nil, err
	}

	liked := photos[:0]
	for _, p := range photos {
		if p.Liked {
			liked = append(liked, p)
		}
	}
	return liked, nil
}

// Photo returns one photo by id.
func (l *Library) Photo(ctx context.Context, id string) (models.Photo, error) {
	photos, err := l.Photos(ctx)
	if err != nil {
		return models.Photo{}, err
	}
	for _, p := range photos {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Photo{}, fmt.Errorf("%s: %w", id, models.ErrNotFound)
}

// AddPhoto adds a captured photo. It is visible immediately; metadata may
// be filled in later.
func (l *Library) AddPhoto(ctx context.Context, photo models.Photo) (models.Photo, error) {
	added, err := l.store.AddPhoto(ctx, photo)
	if err != nil {
		return models.Photo{}, fmt.Errorf("add photo: %w", err)
	}

	l.logger.WithFields(map[string]interface{}{
		"photo_id": added.ID,
		"has_gps":  added.HasGPS(),
	}).Info("photo added")

	l.publish(ctx, models.NewEvent(models.EventPhotoAdded, added.ID))
	return added, nil
}

// ToggleLike flips the liked flag.
func (l *Library) ToggleLike(ctx context.Context, id string) (bool, error) {
	liked, err := l.store.ToggleLike(ctx, id)
	if err != nil {
		return false, fmt.Errorf("toggle like: %w", err)
	}

	l.publish(ctx, models.NewEvent(models.EventPhotoLiked, id))
	return liked, nil
}

// DeletePhotos deletes photos. Photos that could not be deleted stay in
// the collection; the returned ids are the ones removed.
func (l *Library) DeletePhotos(ctx context.Context, ids []string) ([]string, error) {
	deleted, err := l.store.DeletePhotos(ctx, ids)
	if err != nil {
		l.logger.WithError(err).WithField("requested", len(ids)).Warn("some photos were not deleted")
	}

	if len(deleted) > 0 {
		l.logger.WithField("count", len(deleted)).Info("photos deleted")
		l.publish(ctx, models.NewEvent(models.EventPhotoDeleted, deleted...))
	}
	return deleted, err
}

// Delete deletes a single photo.
func (l *Library) Delete(ctx context.Context, id string) error {
	_, err := l.DeletePhotos(ctx, []string{id})
	return err
}

// SetCoordinates applies enrichment coordinates once.
func (l *Library) SetCoordinates(ctx context.Context, id string, pos models.Position) error {
	if err := l.store.SetCoordinates(ctx, id, pos); err != nil {
		return fmt.Errorf("set coordinates: %w", err)
	}

	l.publish(ctx, models.NewEvent(models.EventPhotoEnriched, id))
	return nil
}

// SetDetails applies EXIF details.
func (l *Library) SetDetails(ctx context.Context, id string, details models.Details) error {
	if err := l.store.SetDetails(ctx, id, details); err != nil {
		return fmt.Errorf("set details: %w", err)
	}

	l.publish(ctx, models.NewEvent(models.EventPhotoEnriched, id))
	return nil
}

func (l *Library) publish(ctx context.Context, event models.Event) {
	if l.metrics != nil {
		if photos, err := l.store.ListPhotos(ctx); err == nil {
			l.metrics.SetPhotos(len(photos))
		}
	}

	l.mu.RLock()
	subs := make([]func(models.Event), len(l.subscribers))
	copy(subs, l.subscribers)
	l.mu.RUnlock()

	for _, fn := range subs {
		fn(event)
	}
}
