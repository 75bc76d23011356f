package evaluation

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher re-imports a FileSource whenever the file changes on disk.
type Watcher struct {
	importer *Importer
	source   *FileSource
	debounce time.Duration
	logger   *zap.Logger
	onReload func(applied int, err error)
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period before a reload fires.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithReloadHook registers a callback invoked after every reload attempt.
func WithReloadHook(fn func(applied int, err error)) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// WithWatcherLogger sets the watcher logger.
func WithWatcherLogger(logger *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWatcher creates a watcher for src.
func NewWatcher(importer *Importer, src *FileSource, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		importer: importer,
		source:   src,
		debounce: defaultDebounce,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is done. The parent directory is watched rather than
// the file so that atomic rename-on-save editors keep triggering reloads.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	target := filepath.Clean(w.source.Path)
	if err := fsw.Add(filepath.Dir(target)); err != nil {
		return err
	}
	w.logger.Debug("watching evaluation file", zap.String("path", target))

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			applied, err := w.importer.Import(ctx, w.source)
			if err != nil {
				w.logger.Warn("evaluation reload failed", zap.String("path", target), zap.Error(err))
			}
			if w.onReload != nil {
				w.onReload(applied, err)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("evaluation watcher error", zap.Error(err))
		}
	}
}
