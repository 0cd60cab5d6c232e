package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/eduard256/imgable/gallery/pkg/logger"
)

// fsNotifier wraps fsnotify for watching a directory tree.
type fsNotifier struct {
	watcher *fsnotify.Watcher
	onFile  func(path string)
	logger  *logger.Logger

	mu          sync.Mutex
	watchedDirs map[string]bool
}

func newFSNotifier(dir string, onFile func(path string), log *logger.Logger) (*fsNotifier, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	n := &fsNotifier{
		watcher:     w,
		onFile:      onFile,
		logger:      log.WithField("subcomponent", "fsnotify"),
		watchedDirs: make(map[string]bool),
	}

	if err := n.addTree(dir); err != nil {
		w.Close()
		return nil, err
	}
	return n, nil
}

// addTree watches dir and every directory below it.
func (n *fsNotifier) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if d.IsDir() {
			return n.add(path)
		}
		return nil
	})
}

func (n *fsNotifier) add(dir string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.watchedDirs[dir] {
		return nil
	}
	if err := n.watcher.Add(dir); err != nil {
		n.logger.WithError(err).WithField("dir", dir).Debug("failed to add watch")
		return err
	}

	n.watchedDirs[dir] = true
	return nil
}

func (n *fsNotifier) dirs() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.watchedDirs)
}

// run delivers events until ctx is done or the watcher is closed.
func (n *fsNotifier) run(ctx context.Context) {
	defer n.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-n.watcher.Events:
			if !ok {
				return
			}
			n.handle(event)
		case err, ok := <-n.watcher.Errors:
			if !ok {
				return
			}
			n.logger.WithError(err).Warn("fsnotify error")
		}
	}
}

func (n *fsNotifier) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}

	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			// Files may land before the watch is in place
			if err := n.addTree(event.Name); err == nil {
				n.scanNew(event.Name)
			}
		}
		return
	}

	n.onFile(event.Name)
}

// scanNew reports the files already inside a freshly created directory.
func (n *fsNotifier) scanNew(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			n.onFile(path)
		}
		return nil
	})
}
