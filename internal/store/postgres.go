package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/eduard256/imgable/gallery/pkg/database"
	"github.com/eduard256/imgable/gallery/pkg/logger"
	"github.com/eduard256/imgable/gallery/pkg/models"
)

const photoColumns = `id, captured_at, liked, gps_lat, gps_lon, gps_altitude,
	camera_model, width, height, blurhash`

// Postgres is a PhotoStore backed by the photos table.
type Postgres struct {
	db     *database.DB
	remove FileRemover
	logger *logger.Logger
}

// NewPostgres creates a store on an open pool. remove may be nil.
func NewPostgres(db *database.DB, remove FileRemover, log *logger.Logger) *Postgres {
	return &Postgres{
		db:     db,
		remove: remove,
		logger: log.Component("photo-store"),
	}
}

// ListPhotos returns all photos, newest first.
func (s *Postgres) ListPhotos(ctx context.Context) ([]models.Photo, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+photoColumns+`
		FROM photos
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query photos: %w", err)
	}
	defer rows.Close()

	var photos []models.Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate photos: %w", err)
	}

	return photos, nil
}

// AddPhoto inserts a photo.
func (s *Postgres) AddPhoto(ctx context.Context, photo models.Photo) (models.Photo, error) {
	n, err := s.db.Exec(ctx, `
		INSERT INTO photos (`+photoColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`,
		photo.ID, photo.CapturedAt, photo.Liked,
		photo.GPSLat, photo.GPSLon, photo.GPSAltitude,
		photo.CameraModel, photo.Width, photo.Height, photo.Blurhash,
	)
	if err != nil {
		return models.Photo{}, fmt.Errorf("insert photo: %w", err)
	}
	if n == 0 {
		return models.Photo{}, fmt.Errorf("%s: %w", photo.ID, ErrDuplicate)
	}

	return photo.Clone(), nil
}

// DeletePhotos removes each photo in its own transaction so that one
// failure does not roll back the others.
func (s *Postgres) DeletePhotos(ctx context.Context, ids []string) ([]string, error) {
	var deleted []string
	var errs []error

	for _, id := range ids {
		err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
			return deleteRowAndFile(ctx, tx, s.remove, id)
		})
		if err != nil {
			s.logger.WithError(err).WithPhoto(id).Warn("failed to delete photo")
			errs = append(errs, err)
			continue
		}
		deleted = append(deleted, id)
	}

	return deleted, errors.Join(errs...)
}

// execer is the part of pgx.Tx used by deleteRowAndFile.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// deleteRowAndFile deletes the row inside tx and then the file. Any error
// must roll tx back, so the row is never committed away while its file is
// still on disk, and the file is never removed while the row stays.
func deleteRowAndFile(ctx context.Context, tx execer, remove FileRemover, id string) error {
	tag, err := tx.Exec(ctx, "DELETE FROM photos WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete photo %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", id, models.ErrNotFound)
	}

	if remove != nil {
		if err := remove(id); err != nil {
			return err
		}
	}
	return nil
}

// ToggleLike flips the liked flag.
func (s *Postgres) ToggleLike(ctx context.Context, id string) (bool, error) {
	var liked bool
	err := s.db.QueryRow(ctx, `
		UPDATE photos SET liked = NOT liked WHERE id = $1 RETURNING liked
	`, id).Scan(&liked)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("%s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("toggle like: %w", err)
	}
	return liked, nil
}

// SetCoordinates sets the location if the photo has none yet.
func (s *Postgres) SetCoordinates(ctx context.Context, id string, pos models.Position) error {
	n, err := s.db.Exec(ctx, `
		UPDATE photos
		SET gps_lat = $2, gps_lon = $3, gps_altitude = $4
		WHERE id = $1 AND gps_lat IS NULL AND gps_lon IS NULL
	`, id, pos.Lat, pos.Lon, pos.Altitude)
	if err != nil {
		return fmt.Errorf("set coordinates: %w", err)
	}
	if n > 0 {
		return nil
	}

	exists, err := s.exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%s: %w", id, models.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", id, models.ErrCoordinatesAlreadySet)
}

// SetDetails applies non-empty EXIF details.
func (s *Postgres) SetDetails(ctx context.Context, id string, d models.Details) error {
	n, err := s.db.Exec(ctx, `
		UPDATE photos SET
			captured_at  = COALESCE($2, captured_at),
			camera_model = COALESCE(NULLIF($3, ''), camera_model),
			width        = CASE WHEN $4 > 0 AND $5 > 0 THEN $4 ELSE width END,
			height       = CASE WHEN $4 > 0 AND $5 > 0 THEN $5 ELSE height END,
			blurhash     = COALESCE(NULLIF($6, ''), blurhash)
		WHERE id = $1
	`, id, d.CapturedAt, d.CameraModel, d.Width, d.Height, d.Blurhash)
	if err != nil {
		return fmt.Errorf("set details: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, models.ErrNotFound)
	}
	return nil
}

func (s *Postgres) exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM photos WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check photo %s: %w", id, err)
	}
	return exists, nil
}

func scanPhoto(row pgx.Row) (models.Photo, error) {
	var p models.Photo
	err := row.Scan(
		&p.ID, &p.CapturedAt, &p.Liked,
		&p.GPSLat, &p.GPSLon, &p.GPSAltitude,
		&p.CameraModel, &p.Width, &p.Height, &p.Blurhash,
	)
	return p, err
}
