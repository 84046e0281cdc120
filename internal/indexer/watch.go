package indexer

import (
	"context"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"codeindex/internal/logging"
)

// Watcher re-runs Analyze on debounce whenever a file under a project root
// changes. It is an additive convenience for collaborators that want
// live-reload. No indexing operation depends on it.
type Watcher struct {
	indexer     *Indexer
	projectID   string
	root        string
	debounceDur time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	timer   *time.Timer
	stopCh  chan struct{}
	running bool
}

// NewWatcher builds a Watcher for root, scoped to projectID. Call Start to
// begin watching; Stop releases the underlying fsnotify watcher.
func NewWatcher(ix *Indexer, projectID, root string) *Watcher {
	return &Watcher{
		indexer:     ix,
		projectID:   projectID,
		root:        root,
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
	}
}

// Start begins watching root (and its subdirectories, excluding the usual
// scan exclusions) for changes, non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = fw

	err = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && excludedDirs[d.Name()] {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			logging.Get(logging.CategoryIndexer).Warn("watch: failed to add %s: %v", path, err)
		}
		return nil
	})
	if err != nil {
		fw.Close()
		return err
	}

	w.running = true
	go w.run(ctx)
	return nil
}

// Stop halts the watcher and releases its resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	close(w.stopCh)
	w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	log := logging.Get(logging.CategoryIndexer)
	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if LanguageOf(event.Name) == "" && event.Op&fsnotify.Create == 0 {
				continue
			}
			w.scheduleRescan(ctx)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("watch error: %v", err)
		}
	}
}

// scheduleRescan debounces bursts of events (e.g. an editor's save-as
// rename+write pair) into a single Analyze call.
func (w *Watcher) scheduleRescan(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounceDur, func() {
		log := logging.Get(logging.CategoryIndexer)
		if _, err := w.indexer.Analyze(ctx, w.projectID, w.root); err != nil {
			log.Warn("watch-triggered analyze failed: %v", err)
		}
	})
}
