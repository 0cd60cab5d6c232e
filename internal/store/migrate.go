package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/eduard256/imgable/gallery/pkg/logger"
)

// RunMigrations applies all pending migrations from migrationsPath.
// golang-migrate takes an advisory lock, so concurrent starts are safe.
func RunMigrations(log *logger.Logger, databaseURL, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, pgxURL(databaseURL))
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("database schema is up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	log.WithFields(map[string]interface{}{
		"version": version,
		"dirty":   dirty,
	}).Info("database migrations applied")
	return nil
}

// pgxURL rewrites a postgres:// URL to the pgx5:// scheme expected by the
// migrate pgx v5 driver.
func pgxURL(dbURL string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dbURL, scheme); ok && rest != "" {
			return "pgx5://" + rest
		}
	}
	return dbURL
}
