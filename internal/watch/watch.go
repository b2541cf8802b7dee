// Package watch re-runs a scan whenever Markdown files under a directory change.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/mdlinkcheck/internal/foundation/errors"
	"git.home.luguber.info/inful/mdlinkcheck/internal/logfields"
	"git.home.luguber.info/inful/mdlinkcheck/internal/scan"
)

// DefaultDebounce is used when Options.Debounce is not positive.
const DefaultDebounce = 500 * time.Millisecond

// Options configures Run.
type Options struct {
	Debounce       time.Duration
	ExcludeFolders []string
	Extensions     []string
	Interval       time.Duration // full re-check on a fixed schedule when positive
}

// ScanFunc performs one scan. Errors are logged and watching continues.
type ScanFunc func(ctx context.Context) error

// Run scans once, then again after every debounced batch of relevant changes under root,
// until ctx is canceled. Scans never overlap; changes seen during a scan queue one more.
func Run(ctx context.Context, root string, opts Options, scan ScanFunc) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".md"}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to create file watcher").Build()
	}
	defer func() { _ = watcher.Close() }()
	if err := addDirsRecursive(watcher, root, opts.ExcludeFolders); err != nil {
		return err
	}

	requests := make(chan struct{}, 1)
	requests <- struct{}{}
	trigger, stop := newDebouncer(opts.Debounce, requests)
	defer stop()
	if opts.Interval > 0 {
		sched, err := newScheduler(opts.Interval, requests)
		if err != nil {
			return err
		}
		defer sched.Stop()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-requests:
				if err := scan(ctx); err != nil && ctx.Err() == nil {
					slog.Warn("Scan failed", logfields.Root(root), logfields.Error(err))
				}
			}
		}
	}()
	defer wg.Wait()

	slog.Info("Watching for changes",
		logfields.Root(root),
		slog.Duration("debounce", opts.Debounce),
		slog.Duration("interval", opts.Interval))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if handleEvent(watcher, ev, root, opts) {
				trigger()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// newDebouncer returns a trigger that sends on requests once no trigger has happened for
// delay, and a stop function for the pending timer.
func newDebouncer(delay time.Duration, requests chan<- struct{}) (trigger, stop func()) {
	var mu sync.Mutex
	var timer *time.Timer

	trigger = func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(delay, func() {
			select {
			case requests <- struct{}{}:
			default:
			}
		})
	}
	stop = func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}
	return trigger, stop
}

// handleEvent watches newly created directories and reports whether ev should trigger a scan.
func handleEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, root string, opts Options) bool {
	if shouldIgnoreEvent(ev.Name) {
		return false
	}
	if scan.InExcludedFolder(root, ev.Name, opts.ExcludeFolders) {
		return false
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(watcher, ev.Name, opts.ExcludeFolders)
			slog.Debug("Directory added", logfields.File(ev.Name))
			return true
		}
	}
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if !slices.Contains(opts.Extensions, filepath.Ext(ev.Name)) {
		return false
	}
	slog.Debug("File change detected", logfields.File(ev.Name), slog.String("op", ev.Op.String()))
	return true
}

func addDirsRecursive(w *fsnotify.Watcher, root string, excluded []string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return errors.WrapError(err, errors.CategoryWalk, "failed to watch directory").
					WithContext("root", root).
					Build()
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if scan.PruneDir(root, path, excluded) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.File(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnoreEvent returns true for editor swap, lock and temp files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".#") || base == ".DS_Store" {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}
