// # internal/core/watcher/watcher.go
package watcher

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"inlinelog/internal/shared/observability"

	"github.com/fsnotify/fsnotify"
	"github.com/minio/highwayhash"
)

// hashKey seeds the content hashes; it only needs to be stable within a run.
var hashKey = []byte("inlinelog-watcher-content-hash-k")

// Watcher reports batches of changed source files after a quiet period.
// Saves that leave a file's content unchanged are not reported; removed
// files are.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	filter    *Filter
	onChange  func([]string)
	// callbackMu keeps batches from overlapping when a slow callback is
	// still running as the next quiet period ends.
	callbackMu sync.Mutex

	mu       sync.Mutex
	debounce time.Duration
	pending  map[string]struct{}
	hashes   map[string]uint64
	timer    *time.Timer
	closed   bool
}

// NewWatcher creates a watcher. A nil filter accepts DefaultExtensions and
// excludes nothing.
func NewWatcher(debounce time.Duration, filter *Filter, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}
	if filter == nil {
		var err error
		if filter, err = NewFilter(nil, nil, nil); err != nil {
			return nil, err
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsWatcher: fsw,
		filter:    filter,
		onChange:  onChange,
		debounce:  debounce,
		pending:   make(map[string]struct{}),
		hashes:    make(map[string]uint64),
	}, nil
}

func (w *Watcher) SetDebounce(debounce time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = debounce
}

// Watch adds every directory under paths and starts delivering batches.
// Existing files are hashed first so their next identical save is ignored.
func (w *Watcher) Watch(paths []string) error {
	for _, path := range paths {
		if _, err := w.addTree(path); err != nil {
			return err
		}
	}
	go w.run()
	return nil
}

// addTree watches root and its subdirectories and returns the accepted
// files found below it.
func (w *Watcher) addTree(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && w.filter.SkipDir(path) {
				return filepath.SkipDir
			}
			return w.fsWatcher.Add(path)
		}
		if w.filter.Accept(path) {
			files = append(files, path)
			w.mu.Lock()
			w.changedLocked(path)
			w.mu.Unlock()
		}
		return nil
	})
	return files, err
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()
			w.handle(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addDir(event.Name)
			return
		}
	}
	if !w.filter.Accept(event.Name) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
		w.enqueue(event.Name)
	}
}

// addDir starts watching a directory created after Watch. Files already in
// it (a copied or extracted tree) are reported as new.
func (w *Watcher) addDir(dir string) {
	if w.filter.SkipDir(dir) {
		return
	}
	files, err := w.addTree(dir)
	if err != nil {
		slog.Warn("failed to watch new directory", "path", dir, "error", err)
		return
	}
	w.mu.Lock()
	for _, f := range files {
		delete(w.hashes, f)
	}
	w.mu.Unlock()
	for _, f := range files {
		w.enqueue(f)
	}
}

func (w *Watcher) enqueue(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		if w.changedLocked(path) {
			paths = append(paths, path)
		}
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	if len(paths) == 0 {
		return
	}
	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
}

// changedLocked records the current content hash of path and reports whether
// it differs from the last one seen. A file that disappeared counts as
// changed when it was known.
func (w *Watcher) changedLocked(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		_, known := w.hashes[path]
		delete(w.hashes, path)
		return known || os.IsNotExist(err)
	}
	sum := highwayhash.Sum64(data, hashKey)
	prev, known := w.hashes[path]
	w.hashes[path] = sum
	return !known || prev != sum
}

func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsWatcher.Close()
}
