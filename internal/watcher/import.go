package watcher

import (
	"context"
	"errors"

	"github.com/eduard256/imgable/gallery/internal/store"
	"github.com/eduard256/imgable/gallery/pkg/logger"
	"github.com/eduard256/imgable/gallery/pkg/models"
)

// Adder adds photos to the collection.
type Adder interface {
	AddPhoto(ctx context.Context, photo models.Photo) (models.Photo, error)
}

// Enricher fills in photo metadata after import.
type Enricher interface {
	EnrichAsync(photo models.Photo)
}

// ImportHandler returns a Handler that adds each file as a photo and
// queues it for enrichment. Files already in the collection are skipped.
func ImportHandler(lib Adder, enricher Enricher, log *logger.Logger) Handler {
	log = log.Component("import")

	return func(ctx context.Context, event FileEvent) error {
		photo, err := lib.AddPhoto(ctx, models.NewPhoto(event.Path, event.ModTime))
		if errors.Is(err, store.ErrDuplicate) {
			log.WithPath(event.Path).Debug("photo already imported")
			return nil
		}
		if err != nil {
			return err
		}

		if enricher != nil {
			enricher.EnrichAsync(photo)
		}
		return nil
	}
}
