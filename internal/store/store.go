// Package store persists the photo collection. Memory keeps it in process;
// Postgres keeps it in a PostgreSQL table managed by golang-migrate.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/eduard256/imgable/gallery/pkg/models"
)

// ErrDuplicate is returned when a photo id is already in the collection.
var ErrDuplicate = errors.New("photo already exists")

// PhotoStore is the persistence capability behind the gallery.
// ListPhotos returns the collection newest first.
type PhotoStore interface {
	ListPhotos(ctx context.Context) ([]models.Photo, error)
	AddPhoto(ctx context.Context, photo models.Photo) (models.Photo, error)

	// DeletePhotos removes each id independently. Ids that fail stay in
	// the collection; their errors are joined into the returned error.
	DeletePhotos(ctx context.Context, ids []string) ([]string, error)

	// ToggleLike flips the liked flag and returns the new value.
	ToggleLike(ctx context.Context, id string) (bool, error)

	SetCoordinates(ctx context.Context, id string, pos models.Position) error
	SetDetails(ctx context.Context, id string, details models.Details) error
}

// FileRemover deletes the file backing a photo.
type FileRemover func(id string) error

// RemoveFile deletes the photo file at its id path. A missing file is not
// an error.
func RemoveFile(id string) error {
	if err := os.Remove(id); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	return nil
}
