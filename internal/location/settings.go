package location

import (
	"context"
	"errors"
	"sync"

	"github.com/eduard256/imgable/gallery/pkg/logger"
)

const debugModeKey = "gallery:debug_mode"

// Settings holds the debug-mode flag. It is loaded once on start and
// persisted on every change.
type Settings struct {
	mu     sync.RWMutex
	kv     KV
	debug  bool
	logger *logger.Logger
}

// LoadSettings reads the persisted flag. force turns debug mode on
// regardless of the stored value. A read failure is logged and leaves
// debug mode off unless forced.
func LoadSettings(ctx context.Context, kv KV, force bool, log *logger.Logger) *Settings {
	s := &Settings{
		kv:     kv,
		debug:  force,
		logger: log.Component("settings"),
	}

	v, err := kv.Get(ctx, debugModeKey)
	switch {
	case err == nil:
		s.debug = s.debug || v == "true"
	case !errors.Is(err, ErrMiss):
		s.logger.WithError(err).Warn("failed to load debug mode")
	}

	if s.debug {
		s.logger.Info("debug mode enabled, new photos use fake locations")
	}
	return s
}

// Debug reports whether debug mode is on.
func (s *Settings) Debug() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.debug
}

// ToggleDebug flips debug mode and persists it. The new value applies
// even when persisting fails.
func (s *Settings) ToggleDebug(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.debug = !s.debug

	var err error
	if s.debug {
		err = s.kv.Set(ctx, debugModeKey, "true", 0)
	} else {
		err = s.kv.Del(ctx, debugModeKey)
	}

	s.logger.WithField("debug", s.debug).Info("debug mode toggled")
	return s.debug, err
}
