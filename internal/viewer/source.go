package viewer

import (
	"context"
	"fmt"
	"sync"

	"github.com/eduard256/imgable/gallery/pkg/models"
)

// Source is the photo collection a session browses. Grid views and map
// clusters provide their own Source so that one controller serves every
// screen.
type Source interface {
	// Photos returns the current ordered photo set.
	Photos(ctx context.Context) ([]models.Photo, error)

	// Delete removes a photo from the backing collection.
	Delete(ctx context.Context, id string) error

	// ToggleLike flips the liked flag and returns the new value.
	ToggleLike(ctx context.Context, id string) (bool, error)
}

// PhotoStore is the part of the photo collection a Snapshot reads and
// writes through.
type PhotoStore interface {
	Photos(ctx context.Context) ([]models.Photo, error)
	DeletePhotos(ctx context.Context, ids []string) ([]string, error)
	ToggleLike(ctx context.Context, id string) (bool, error)
}

// Snapshot is a fixed set of photo ids, such as the members of a map
// cluster, kept in their original order. Photos are read from the store so
// that deletes and likes made elsewhere show up; ids that left the store
// are dropped.
type Snapshot struct {
	mu    sync.Mutex
	ids   []string
	store PhotoStore
}

// NewSnapshot creates a source over the ids of photos.
func NewSnapshot(photos []models.Photo, store PhotoStore) *Snapshot {
	ids := make([]string, len(photos))
	for i := range photos {
		ids[i] = photos[i].ID
	}
	return &Snapshot{ids: ids, store: store}
}

// Photos returns the snapshot members still in the store.
func (s *Snapshot) Photos(ctx context.Context) ([]models.Photo, error) {
	all, err := s.store.Photos(ctx)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	byID := make(map[string]models.Photo, len(all))
	for _, p := range all {
		byID[p.ID] = p
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.ids[:0]
	photos := make([]models.Photo, 0, len(s.ids))
	for _, id := range s.ids {
		p, ok := byID[id]
		if !ok {
			continue
		}
		kept = append(kept, id)
		photos = append(photos, p.Clone())
	}
	s.ids = kept
	return photos, nil
}

// Delete removes the photo from the store and then from the snapshot.
func (s *Snapshot) Delete(ctx context.Context, id string) error {
	if _, err := s.store.DeletePhotos(ctx, []string{id}); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.ids {
		if s.ids[i] == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	return nil
}

// ToggleLike flips the liked flag in the store.
func (s *Snapshot) ToggleLike(ctx context.Context, id string) (bool, error) {
	return s.store.ToggleLike(ctx, id)
}
