// Package watcher imports photos as they land in the uploads directory.
// New files are picked up through fsnotify once their size has settled; an
// initial scan on start imports whatever arrived while the service was down.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/eduard256/imgable/gallery/pkg/logger"
)

// FileEvent is a stable photo file ready for import.
type FileEvent struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Handler imports one file. A returned error lets the file be retried on
// its next event.
type Handler func(ctx context.Context, event FileEvent) error

// Config holds watcher configuration.
type Config struct {
	// Directory to watch, created if missing
	Dir string

	Handler Handler

	// How long a file must stay unmodified before import. Default 2s.
	SettleTime time.Duration

	// Interval between stability checks. Default 500ms.
	CheckInterval time.Duration

	// Give up on a file that keeps changing. Default 30s.
	MaxWait time.Duration

	// Smaller files are treated as incomplete. Default 100 bytes.
	MinSize int64
}

// Watcher watches the uploads directory for new photos.
type Watcher struct {
	cfg    Config
	logger *logger.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc

	// Files handed to the handler, by modification time
	known map[string]time.Time
	// Files waiting to settle
	pending map[string]bool

	wg sync.WaitGroup
}

// New creates a new Watcher.
func New(cfg Config, log *logger.Logger) *Watcher {
	if cfg.SettleTime <= 0 {
		cfg.SettleTime = 2 * time.Second
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 500 * time.Millisecond
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 30 * time.Second
	}
	if cfg.MinSize <= 0 {
		cfg.MinSize = 100
	}

	return &Watcher{
		cfg:     cfg,
		logger:  log.Component("watcher"),
		known:   make(map[string]time.Time),
		pending: make(map[string]bool),
	}
}

// Start scans the directory once and then watches it until ctx is done or
// Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	if err := os.MkdirAll(w.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	n, err := newFSNotifier(w.cfg.Dir, func(path string) { w.track(ctx, path) }, w.logger)
	if err != nil {
		cancel()
		return fmt.Errorf("watch %s: %w", w.cfg.Dir, err)
	}

	w.mu.Lock()
	w.running = true
	w.cancel = cancel
	w.mu.Unlock()

	w.logger.WithFields(map[string]interface{}{
		"dir":  w.cfg.Dir,
		"dirs": n.dirs(),
	}).Info("starting watcher")

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		n.run(ctx)
	}()

	w.scan(ctx)
	return nil
}

// Stop stops watching and waits for in-flight imports.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	cancel := w.cancel
	w.mu.Unlock()

	cancel()
	w.wg.Wait()
	w.logger.Info("watcher stopped")
}

// scan tracks every file already in the directory.
func (w *Watcher) scan(ctx context.Context) {
	start := time.Now()
	found := 0

	err := filepath.WalkDir(w.cfg.Dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.WithError(err).WithPath(path).Warn("error accessing path")
			return nil
		}
		if d.IsDir() || !IsImage(path) {
			return nil
		}
		found++
		w.track(ctx, path)
		return nil
	})
	if err != nil {
		w.logger.WithError(err).Error("initial scan failed")
	}

	w.logger.WithFields(map[string]interface{}{
		"duration_ms": time.Since(start).Milliseconds(),
		"files_found": found,
	}).Info("initial scan completed")
}

// track waits for path to settle in the background and imports it.
func (w *Watcher) track(ctx context.Context, path string) {
	if !IsImage(path) {
		return
	}

	w.mu.Lock()
	if w.pending[path] {
		w.mu.Unlock()
		return
	}
	if info, err := os.Stat(path); err == nil {
		if mod, ok := w.known[path]; ok && mod.Equal(info.ModTime()) {
			w.mu.Unlock()
			return
		}
	}
	w.pending[path] = true
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			w.mu.Lock()
			delete(w.pending, path)
			w.mu.Unlock()
		}()

		info, ok := w.waitStable(ctx, path)
		if !ok {
			return
		}
		w.importFile(ctx, path, info)
	}()
}

func (w *Watcher) importFile(ctx context.Context, path string, info os.FileInfo) {
	w.mu.Lock()
	if mod, ok := w.known[path]; ok && mod.Equal(info.ModTime()) {
		w.mu.Unlock()
		return
	}
	w.known[path] = info.ModTime()
	w.mu.Unlock()

	event := FileEvent{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}

	if err := w.cfg.Handler(ctx, event); err != nil {
		w.logger.WithError(err).WithPath(path).Warn("handler error")
		// Forget the file so that its next event retries it
		w.mu.Lock()
		delete(w.known, path)
		w.mu.Unlock()
	}
}

// waitStable polls path until its size and modification time stop
// changing and the last write is older than SettleTime.
func (w *Watcher) waitStable(ctx context.Context, path string) (os.FileInfo, bool) {
	deadline := time.Now().Add(w.cfg.MaxWait)
	ticker := time.NewTicker(w.cfg.CheckInterval)
	defer ticker.Stop()

	var last os.FileInfo
	for {
		info, err := os.Stat(path)
		if err != nil {
			return nil, false
		}

		if last != nil && info.Size() == last.Size() && info.ModTime().Equal(last.ModTime()) && w.settled(info) {
			return info, true
		}
		last = info

		if time.Now().After(deadline) {
			w.logger.WithPath(path).Warn("file did not settle, skipping")
			return nil, false
		}

		select {
		case <-ctx.Done():
			return nil, false
		case <-ticker.C:
		}
	}
}

func (w *Watcher) settled(info os.FileInfo) bool {
	return info.Size() >= w.cfg.MinSize && time.Since(info.ModTime()) > w.cfg.SettleTime
}
