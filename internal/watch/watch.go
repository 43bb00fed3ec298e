// Package watch rebuilds on markdown changes below a set of directories.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/markdown"
)

// DefaultDebounce is the quiet period before a rebuild starts.
const DefaultDebounce = 300 * time.Millisecond

// RebuildFunc performs one rebuild. Errors are logged and watching continues.
type RebuildFunc func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	Dirs     []string // watched recursively
	Exclude  []string // directories never watched, such as the output directory
	// Summary is the table of contents. The directories of the chapters it
	// lists are watched as well and re-read whenever it changes.
	Summary  string
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watcher triggers rebuilds on markdown changes. Rebuilds never overlap:
// changes arriving during a rebuild queue at most one follow-up rebuild.
type Watcher struct {
	opts    Options
	rebuild RebuildFunc
	exclude map[string]bool
}

// New returns a Watcher calling rebuild.
func New(rebuild RebuildFunc, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Summary != "" {
		opts.Summary = filepath.Clean(opts.Summary)
	}
	exclude := make(map[string]bool, len(opts.Exclude))
	for _, dir := range opts.Exclude {
		exclude[filepath.Clean(dir)] = true
	}
	return &Watcher{opts: opts, rebuild: rebuild, exclude: exclude}
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for _, dir := range w.opts.Dirs {
		if err := w.addRecursive(watcher, dir); err != nil {
			return err
		}
	}
	w.watchChapters(watcher)

	rebuildReq, trigger, stop := newDebouncer(w.opts.Debounce)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.worker(ctx, rebuildReq)
	}()
	defer wg.Wait()

	w.opts.Logger.Info("Watching for changes", logfields.Count(len(w.opts.Dirs)))
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if w.handle(watcher, event) {
				trigger()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// handle reports whether event should cause a rebuild. New directories are
// added to the watch set.
func (w *Watcher) handle(watcher *fsnotify.Watcher, event fsnotify.Event) bool {
	if w.excluded(event.Name) {
		return false
	}
	if event.Has(fsnotify.Create) {
		if err := w.addRecursive(watcher, event.Name); err == nil && isDir(event.Name) {
			return true
		}
	}
	if w.opts.Summary != "" && filepath.Clean(event.Name) == w.opts.Summary {
		w.watchChapters(watcher)
	}
	if !markdown.IsMarkdownPath(event.Name) {
		return false
	}
	w.opts.Logger.Debug("Change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
	return true
}

func (w *Watcher) worker(ctx context.Context, rebuildReq <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-rebuildReq:
			start := time.Now()
			if err := w.rebuild(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				w.opts.Logger.Warn("Rebuild failed", logfields.Error(err))
				continue
			}
			w.opts.Logger.Info("Rebuilt", logfields.DurationMS(float64(time.Since(start).Milliseconds())))
		}
	}
}

func (w *Watcher) watchChapters(watcher *fsnotify.Watcher) {
	if w.opts.Summary == "" {
		return
	}
	for _, dir := range ChapterDirs(w.opts.Summary) {
		if err := w.addRecursive(watcher, dir); err != nil {
			w.opts.Logger.Warn("Cannot watch chapter directory", logfields.Path(dir), logfields.Error(err))
		}
	}
}

// ChapterDirs returns the distinct existing directories holding the chapters
// listed in the table of contents at summaryPath, in listing order.
func ChapterDirs(summaryPath string) []string {
	content, err := os.ReadFile(summaryPath)
	if err != nil {
		return nil
	}
	seen := make(map[string]bool)
	var dirs []string
	for _, entry := range markdown.ParseSummary(content, filepath.Dir(summaryPath)) {
		dir := filepath.Dir(filepath.FromSlash(entry.Path))
		if seen[dir] || !isDir(dir) {
			continue
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}
	return dirs
}

func (w *Watcher) excluded(path string) bool {
	path = filepath.Clean(path)
	for dir := range w.exclude {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.excluded(path) || (path != root && strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
