package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"gotercih/internal"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events a single save produces
const DefaultDebounce = 500 * time.Millisecond

// ReloadFunc is called after the watched file settles
type ReloadFunc func(ctx context.Context) error

// FileWatcher watches one data file and triggers a reload when it changes.
// The parent directory is watched so editors that replace the file by rename
// are still seen.
type FileWatcher struct {
	path           string
	watcher        *fsnotify.Watcher
	reload         ReloadFunc
	mu             sync.Mutex
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
	ctx            context.Context
	cancel         context.CancelFunc
	done           chan struct{}
	log            *internal.Logger
}

// NewFileWatcher creates a watcher for path. A debounce of zero uses DefaultDebounce.
func NewFileWatcher(path string, debounce time.Duration, reload ReloadFunc) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory of %s: %w", path, err)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &FileWatcher{
		path:           abs,
		watcher:        watcher,
		reload:         reload,
		debouncePeriod: debounce,
		done:           make(chan struct{}),
		log:            internal.Log(),
	}, nil
}

// Start begins watching until ctx is cancelled or Stop is called
func (fw *FileWatcher) Start(ctx context.Context) {
	fw.ctx, fw.cancel = context.WithCancel(ctx)
	go fw.watchLoop()
}

func (fw *FileWatcher) watchLoop() {
	defer close(fw.done)
	for {
		select {
		case <-fw.ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != fw.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			fw.log.Debug("[Watcher] %s changed (%s)", event.Name, event.Op)
			fw.scheduleReload()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.Warn("[Watcher] watch error: %v", err)
		}
	}
}

// scheduleReload restarts the debounce timer
func (fw *FileWatcher) scheduleReload() {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}
	fw.debounceTimer = time.AfterFunc(fw.debouncePeriod, func() {
		if fw.ctx.Err() != nil {
			return
		}
		if err := fw.reload(fw.ctx); err != nil {
			fw.log.Error("[Watcher] reload after change of %s failed: %v", fw.path, err)
			return
		}
		fw.log.Info("[Watcher] reloaded %s", fw.path)
	})
}

// Stop ends the watch loop and releases the fsnotify handle
func (fw *FileWatcher) Stop() error {
	if fw.cancel != nil {
		fw.cancel()
	}
	fw.mu.Lock()
	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}
	fw.mu.Unlock()

	err := fw.watcher.Close()
	if fw.cancel != nil {
		<-fw.done
	}
	return err
}
