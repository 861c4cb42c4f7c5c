package livereload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const DefaultDebounce = 100 * time.Millisecond

type WatcherOptions struct {
	// Required. Watched recursively.
	Dir string
	// Required. Called once per burst of changes.
	OnChange func(paths []string)
	// Optional. Quiet period that ends a burst. Defaults to 100ms.
	Debounce time.Duration
	// Optional. Reports whether a changed path matters. Defaults to all.
	Filter func(path string) bool
	// Optional. Defaults to a no-op logger.
	Logger *zap.Logger
}

type Watcher struct {
	opts WatcherOptions
	fsw  *fsnotify.Watcher
	log  *zap.SugaredLogger
}

func NewWatcher(opts WatcherOptions) (*Watcher, error) {
	if opts.Dir == "" || opts.OnChange == nil {
		return nil, errors.New("livereload: Dir and OnChange are required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Filter == nil {
		opts.Filter = func(string) bool { return true }
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("livereload: %w", err)
	}
	w := &Watcher{opts: opts, fsw: fsw, log: logger.Sugar()}
	if err := w.addTree(opts.Dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("livereload: watching %s: %w", path, err)
		}
		return nil
	})
}

// Run delivers debounced changes until ctx is done, then releases the
// underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var (
		pending = make(map[string]struct{})
		timer   *time.Timer
		fire    <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if evt.Has(fsnotify.Create) {
				// New directories need their own watch.
				_ = w.addTree(evt.Name)
			}
			if evt.Op == fsnotify.Chmod || !w.opts.Filter(evt.Name) {
				continue
			}
			pending[evt.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
			} else {
				timer.Reset(w.opts.Debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("Watcher error", "error", err)

		case <-fire:
			fire = nil
			paths := slices.Sorted(maps.Keys(pending))
			clear(pending)
			w.log.Debugw("Files changed", "paths", paths)
			w.opts.OnChange(paths)
		}
	}
}
