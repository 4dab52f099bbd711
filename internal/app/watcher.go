package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/patchview/internal/ports"
)

// DefaultDebounce is the delay after the last file event before refreshing.
const DefaultDebounce = 250 * time.Millisecond

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Dir is the directory holding chunk files.
	Dir string

	// Match reports whether a file name is a chunk file.
	Match func(name string) bool

	// Debounce is the quiet period before a refresh. Default: 250ms.
	Debounce time.Duration
}

// Watcher refreshes a pipeline whenever chunk files appear or change.
// Each refreshed result is passed to the handler; a failed refresh is logged
// and the previous result stays current. Handler calls never overlap and
// none happens after Run returns.
type Watcher struct {
	config   WatcherConfig
	pipeline *Pipeline
	logger   ports.Logger
	handler  func(*Result)

	mu       sync.Mutex
	debounce *time.Timer
	inflight sync.WaitGroup

	// emitMu orders refresh-and-emit so results reach the handler in the
	// order the pipeline produced them.
	emitMu sync.Mutex
}

// NewWatcher creates a watcher for config.Dir.
func NewWatcher(config WatcherConfig, pipeline *Pipeline, logger ports.Logger, handler func(*Result)) *Watcher {
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.Match == nil {
		config.Match = func(string) bool { return true }
	}
	return &Watcher{
		config:   config,
		pipeline: pipeline,
		logger:   logger,
		handler:  handler,
	}
}

// Run builds the initial series, then watches the directory until ctx is
// canceled. Only a failure to set up the watch or the initial build is
// returned.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.config.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.config.Dir, err)
	}

	res, err := w.pipeline.Run(ctx)
	if err != nil {
		return err
	}
	w.emit(res)

	w.logger.Info("watching for new chunks", ports.String("dir", w.config.Dir))
	defer w.stopDebounce()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.config.Match(filepath.Base(event.Name)) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("chunk event",
				ports.String("file", filepath.Base(event.Name)),
				ports.String("op", event.Op.String()),
			)
			w.debounceRefresh(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", ports.Err(err))
		}
	}
}

func (w *Watcher) debounceRefresh(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil && w.debounce.Stop() {
		w.inflight.Done()
	}
	w.inflight.Add(1)
	w.debounce = time.AfterFunc(w.config.Debounce, func() {
		defer w.inflight.Done()
		w.refresh(ctx)
	})
}

// stopDebounce cancels a pending refresh and waits for a running one.
func (w *Watcher) stopDebounce() {
	w.mu.Lock()
	if w.debounce != nil && w.debounce.Stop() {
		w.inflight.Done()
	}
	w.debounce = nil
	w.mu.Unlock()

	w.inflight.Wait()
}

func (w *Watcher) refresh(ctx context.Context) {
	w.emitMu.Lock()
	defer w.emitMu.Unlock()

	if ctx.Err() != nil {
		return
	}
	res, err := w.pipeline.Refresh(ctx)
	if err != nil {
		w.logger.Error("refresh failed, keeping previous series", ports.Err(err))
		return
	}
	w.emit(res)
}

func (w *Watcher) emit(res *Result) {
	if w.handler != nil {
		w.handler(res)
	}
}
