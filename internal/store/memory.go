package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/eduard256/imgable/gallery/pkg/models"
)

// Memory is an in-process PhotoStore. New photos are inserted at the front.
type Memory struct {
	mu     sync.RWMutex
	photos []models.Photo
	remove FileRemover
}

// NewMemory creates an empty store. remove may be nil when photos have no
// backing files.
func NewMemory(remove FileRemover) *Memory {
	return &Memory{remove: remove}
}

// ListPhotos returns a copy of the collection.
func (m *Memory) ListPhotos(_ context.Context) ([]models.Photo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return models.ClonePhotos(m.photos), nil
}

// AddPhoto inserts a photo at the front of the collection.
func (m *Memory) AddPhoto(_ context.Context, photo models.Photo) (models.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexOf(photo.ID) >= 0 {
		return models.Photo{}, fmt.Errorf("%s: %w", photo.ID, ErrDuplicate)
	}

	stored := photo.Clone()
	m.photos = append([]models.Photo{stored}, m.photos...)
	return stored.Clone(), nil
}

// DeletePhotos removes the given ids.
func (m *Memory) DeletePhotos(_ context.Context, ids []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted []string
	var errs []error

	for _, id := range ids {
		i := m.indexOf(id)
		if i < 0 {
			errs = append(errs, fmt.Errorf("%s: %w", id, models.ErrNotFound))
			continue
		}
		if m.remove != nil {
			if err := m.remove(id); err != nil {
				errs = append(errs, err)
				continue
			}
		}
		m.photos = append(m.photos[:i], m.photos[i+1:]...)
		deleted = append(deleted, id)
	}

	return deleted, errors.Join(errs...)
}

// ToggleLike flips the liked flag.
func (m *Memory) ToggleLike(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return false, fmt.Errorf("%s: %w", id, models.ErrNotFound)
	}
	m.photos[i].Liked = !m.photos[i].Liked
	return m.photos[i].Liked, nil
}

// SetCoordinates sets the photo location once.
func (m *Memory) SetCoordinates(_ context.Context, id string, pos models.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%s: %w", id, models.ErrNotFound)
	}
	if err := m.photos[i].SetPosition(pos); err != nil {
		return fmt.Errorf("%s: %w", id, err)
	}
	return nil
}

// SetDetails applies EXIF details.
func (m *Memory) SetDetails(_ context.Context, id string, details models.Details) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%s: %w", id, models.ErrNotFound)
	}
	details.Apply(&m.photos[i])
	return nil
}

func (m *Memory) indexOf(id string) int {
	for i := range m.photos {
		if m.photos[i].ID == id {
			return i
		}
	}
	return -1
}
