// Package config provides configuration management for the gallery service.
// All configuration is loaded from environment variables with sensible defaults,
// optionally preceded by a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/eduard256/imgable/gallery/pkg/models"
)

// Config holds all configuration for the gallery service.
type Config struct {
	// Server
	Port            int
	ShutdownTimeout time.Duration

	// Storage. Empty URLs select the in-memory implementations.
	DatabaseURL    string
	RedisURL       string
	MigrationsPath string

	// Directory new photos are uploaded to
	UploadsDir string

	// Clustering
	ClusterRadiusM float64

	// Location
	LocationCacheTTL time.Duration
	// Fixed device position, nil when not configured
	Home *models.Position

	// Map
	MapCenter   models.GeoPoint
	MapZoom     float64
	MapUserZoom float64

	// Force debug mode on regardless of the stored setting
	DebugMode bool

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment. Values from the given
// env files (default ".env") fill variables that are not already set; a
// missing file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := &Config{
		// Server defaults
		Port:            getEnvInt("API_PORT", 9813),
		ShutdownTimeout: time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SEC", 30)) * time.Second,

		// Storage
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		MigrationsPath: getEnvString("MIGRATIONS_PATH", "migrations"),
		UploadsDir:     getEnvString("UPLOADS_DIR", "/data/uploads"),

		// Clustering
		ClusterRadiusM: getEnvFloat("CLUSTER_RADIUS_M", 100),

		// Location
		LocationCacheTTL: time.Duration(getEnvInt("LOCATION_CACHE_TTL_MIN", 60)) * time.Minute,

		// Map defaults to Marseille
		MapCenter: models.GeoPoint{
			Lat: getEnvFloat("MAP_CENTER_LAT", 43.2965),
			Lon: getEnvFloat("MAP_CENTER_LON", 5.3698),
		},
		MapZoom:     getEnvFloat("MAP_ZOOM", 10),
		MapUserZoom: getEnvFloat("MAP_USER_ZOOM", 12),

		DebugMode: getEnvBool("DEBUG_MODE", false),

		// Logging
		LogLevel:  getEnvString("LOG_LEVEL", "info"),
		LogFormat: getEnvString("LOG_FORMAT", "text"),
	}

	home, err := homePosition()
	if err != nil {
		return nil, err
	}
	cfg.Home = home

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("API_PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.ClusterRadiusM < 0 {
		return fmt.Errorf("CLUSTER_RADIUS_M must not be negative, got %v", c.ClusterRadiusM)
	}
	if c.LocationCacheTTL <= 0 {
		return fmt.Errorf("LOCATION_CACHE_TTL_MIN must be positive")
	}
	if err := checkPoint("MAP_CENTER", c.MapCenter); err != nil {
		return err
	}
	if c.UploadsDir == "" {
		return fmt.Errorf("UPLOADS_DIR is required")
	}
	return nil
}

// homePosition reads HOME_LAT, HOME_LON and the optional HOME_ALT. Both
// coordinates or neither must be set.
func homePosition() (*models.Position, error) {
	latStr, lonStr := os.Getenv("HOME_LAT"), os.Getenv("HOME_LON")
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, fmt.Errorf("HOME_LAT and HOME_LON must be set together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid HOME_LAT: %w", err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid HOME_LON: %w", err)
	}

	pos := &models.Position{GeoPoint: models.GeoPoint{Lat: lat, Lon: lon}}
	if err := checkPoint("HOME", pos.GeoPoint); err != nil {
		return nil, err
	}

	if altStr := os.Getenv("HOME_ALT"); altStr != "" {
		alt, err := strconv.ParseFloat(altStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid HOME_ALT: %w", err)
		}
		pos.Altitude = &alt
	}
	return pos, nil
}

func checkPoint(prefix string, p models.GeoPoint) error {
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%s_LAT out of range: %v", prefix, p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%s_LON out of range: %v", prefix, p.Lon)
	}
	return nil
}

// getEnvString returns environment variable or default value.
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns environment variable as int or default value.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvFloat returns environment variable as float64 or default value.
func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultVal
}
