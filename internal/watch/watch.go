// Package watch turns filesystem notifications under a site directory into
// debounced, serialized rebuild requests.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/alnah/go-bakery/internal/fileutil"
)

// DefaultDebounce is the quiet period before a rebuild starts.
const DefaultDebounce = time.Second

// ErrWatcherClosed indicates the notification stream ended.
var ErrWatcherClosed = errors.New("file watcher closed")

// Handler receives the distinct paths changed since the previous call.
// Calls never overlap.
type Handler func(ctx context.Context, paths []string) error

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger for watch errors and handler failures.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// Watcher watches a directory tree.
type Watcher struct {
	fsw      *fsnotify.Watcher
	root     string
	debounce time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	outputDir string
}

// New watches root and every directory below it except outputDir.
func New(root, outputDir string, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if outputDir != "" {
		outputDir = filepath.Clean(outputDir)
	}
	w := &Watcher{
		fsw:       fsw,
		root:      filepath.Clean(root),
		outputDir: outputDir,
		debounce:  DefaultDebounce,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := w.addTree(w.root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// OutputDir returns the directory currently excluded from watching.
func (w *Watcher) OutputDir() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.outputDir
}

// SetOutputDir moves the excluded directory, as when the site configuration
// names a new one. Directories under it that are already watched are
// dropped. Safe to call from a Handler.
func (w *Watcher) SetOutputDir(dir string) {
	if dir != "" {
		dir = filepath.Clean(dir)
	}
	w.mu.Lock()
	if w.outputDir == dir {
		w.mu.Unlock()
		return
	}
	w.outputDir = dir
	w.mu.Unlock()

	w.logger.Debug("output directory changed", "dir", dir)
	if dir == "" || w.fsw == nil {
		return
	}
	for _, p := range w.fsw.WatchList() {
		if fileutil.Within(dir, p) {
			if err := w.fsw.Remove(p); err != nil {
				w.logger.Warn("unwatch output directory", "path", p, "error", err)
			}
		}
	}
}

// Close releases the underlying notifier.
func (w *Watcher) Close() error { return w.fsw.Close() }

// Run delivers qualifying changes to onChange until ctx is done. Changes
// arriving during a call are coalesced into the next one. Handler errors
// are logged and do not stop the loop. Run returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context, onChange Handler) error {
	return w.loop(ctx, w.fsw.Events, w.fsw.Errors, onChange)
}

func (w *Watcher) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, onChange Handler) error {
	pending := make(map[string]struct{})
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		running bool
		doneCh  = make(chan error, 1)
	)
	arm := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
		} else {
			timer.Reset(w.debounce)
		}
		timerC = timer.C
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
		if running {
			<-doneCh
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return ErrWatcherClosed
			}
			if !w.accept(ev) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				w.watchIfDir(ev.Name)
			}
			pending[ev.Name] = struct{}{}
			arm()

		case err, ok := <-errs:
			if !ok {
				return ErrWatcherClosed
			}
			w.logger.Warn("watch error", "error", err)

		case <-timerC:
			timerC = nil
			if running || len(pending) == 0 {
				continue
			}
			paths := drain(pending)
			running = true
			go func() { doneCh <- onChange(ctx, paths) }()

		case err := <-doneCh:
			running = false
			if err != nil && ctx.Err() == nil {
				w.logger.Error("rebuild failed", "error", err)
			}
			if len(pending) > 0 && timerC == nil {
				arm()
			}
		}
	}
}

func (w *Watcher) accept(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	return ShouldRebuild(ev.Name, w.OutputDir())
}

func (w *Watcher) watchIfDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.addTree(path); err != nil {
		w.logger.Warn("watch new directory", "path", path, "error", err)
	}
}

// addTree adds dir and its subdirectories, skipping ignored ones.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root && !ShouldRebuild(p, w.OutputDir()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		w.logger.Debug("watching", "dir", p)
		return nil
	})
}

func drain(pending map[string]struct{}) []string {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
		delete(pending, p)
	}
	slices.Sort(paths)
	return paths
}
