package regen

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatcherStats tracks watcher activity for debugging and tests.
type WatcherStats struct {
	SpecsCreated     int
	SpecsModified    int
	SpecsRemoved     int
	ArtifactsRemoved int
	Errors           int
	LastEventTime    time.Time
	LastEventPath    string
}

// watcher drives the Manager from filesystem events. Spec file writes are
// routed through the Manager's per-name debounce; spec removals and
// out-of-band artifact removals are handled immediately.
type watcher struct {
	fw     *fsnotify.Watcher
	mgr    *Manager
	logger *zap.Logger

	mu      sync.RWMutex
	stats   WatcherStats
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Watch starts the filesystem watcher on the specs and tools directories.
// Non-blocking; Stop shuts it down and waits for the loop to drain.
func (m *Manager) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w := &watcher{
		fw:     fw,
		mgr:    m,
		logger: m.logger.Named("watcher"),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	if err := fw.Add(m.specsDir); err != nil {
		fw.Close()
		return err
	}
	if err := fw.Add(m.toolsDir); err != nil {
		// Artifact-removal detection degrades; spec watching still works.
		w.logger.Warn("tools directory watch failed", zap.Error(err))
	}
	w.running = true
	m.watcher = w
	go w.run(ctx)
	w.logger.Info("watching",
		zap.String("specs", m.specsDir),
		zap.String("tools", m.toolsDir))
	return nil
}

// Stop halts the watcher, if running, and waits for cleanup.
func (m *Manager) Stop() {
	w := m.watcher
	if w == nil {
		return
	}
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	if err := w.fw.Close(); err != nil {
		w.logger.Warn("watcher close failed", zap.Error(err))
	}
	w.logger.Info("stopped")
}

// Stats returns a snapshot of watcher activity.
func (m *Manager) Stats() WatcherStats {
	w := m.watcher
	if w == nil {
		return WatcherStats{}
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		}
	}
}

func (w *watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	base := filepath.Base(event.Name)
	dir := filepath.Dir(event.Name)

	switch {
	case strings.HasSuffix(base, SpecExt) && sameDir(dir, w.mgr.specsDir):
		name := strings.TrimSuffix(base, SpecExt)
		switch {
		case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
			w.record(event.Name, func(s *WatcherStats) {
				if event.Op&fsnotify.Create != 0 {
					s.SpecsCreated++
				} else {
					s.SpecsModified++
				}
			})
			w.mgr.handleSpecChanged(ctx, name)
		case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
			w.record(event.Name, func(s *WatcherStats) { s.SpecsRemoved++ })
			w.mgr.handleSpecRemoved(name)
		}

	case strings.HasSuffix(base, ".go") && sameDir(dir, w.mgr.toolsDir):
		// Only removals matter here; the manager writes these files itself.
		if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
			name := strings.TrimSuffix(base, ".go")
			w.record(event.Name, func(s *WatcherStats) { s.ArtifactsRemoved++ })
			w.mgr.handleArtifactRemoved(ctx, name)
		}
	}
}

func (w *watcher) record(path string, update func(*WatcherStats)) {
	w.mu.Lock()
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = path
	update(&w.stats)
	w.mu.Unlock()
}

func sameDir(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
