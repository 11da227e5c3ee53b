// Package watch re-runs a callback whenever files in a project change.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Config.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// Config configures the file watcher
type Config struct {
	// Root is watched recursively, skipping vendor and hidden directories.
	Root string

	// Extra directories are watched without recursion, e.g. the workgraph
	// directory so edits to task records trigger a re-check.
	Extra []string

	// Debounce is how long to wait for more changes before firing.
	Debounce time.Duration

	// Ignore lists files and directories the callback itself writes, such as
	// the snapshot directory and the metrics textfile. Events on them, on
	// anything below them and on temp siblings of an ignored file are dropped.
	Ignore []string

	Logger *slog.Logger
}

// Watcher batches file system events and fires a callback once per burst.
type Watcher struct {
	config  Config
	watcher *fsnotify.Watcher
	logger  *slog.Logger
	ignore  []string
}

// NewWatcher creates a watcher and registers all directories.
func NewWatcher(config Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}

	w := &Watcher{config: config, watcher: fsw, logger: logger}
	for _, p := range config.Ignore {
		if p != "" {
			w.ignore = append(w.ignore, absPath(p))
		}
	}

	if err := w.addWatchesRecursive(config.Root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	for _, dir := range config.Extra {
		if err := fsw.Add(dir); err != nil {
			logger.Warn("Failed to watch directory", "path", dir, "error", err)
		}
	}
	return w, nil
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run blocks until ctx is done, calling onChange after each quiet period that
// follows at least one relevant event. An error from onChange stops Run.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context) error) error {
	w.logger.Info("File watcher started",
		"root", w.config.Root,
		"debounce", w.config.Debounce)

	timer := time.NewTimer(w.config.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.handleFSEvent(event) {
				timer.Reset(w.config.Debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", "error", err)

		case <-timer.C:
			if err := onChange(ctx); err != nil {
				return err
			}
		}
	}
}

// handleFSEvent reports whether an event should trigger a re-check.
func (w *Watcher) handleFSEvent(event fsnotify.Event) bool {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || w.ignored(event.Name) {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.handleNewDirectory(event.Name)
		}
	}

	w.logger.Debug("File change detected",
		"path", event.Name,
		"op", event.Op.String())
	return true
}

// addWatchesRecursive adds watches to all directories
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (skipDir(d.Name()) || w.ignored(path)) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory",
				"path", path,
				"error", err)
		} else {
			w.logger.Debug("Watching directory", "path", path)
		}
		return nil
	})
}

// handleNewDirectory watches a directory created after startup.
func (w *Watcher) handleNewDirectory(path string) {
	if skipDir(filepath.Base(path)) {
		return
	}
	if err := w.addWatchesRecursive(path); err != nil {
		w.logger.Warn("Failed to watch new directory",
			"path", path,
			"error", err)
	}
}

func skipDir(name string) bool {
	return name == "vendor" || name == "node_modules" || strings.HasPrefix(name, ".")
}

// ignored reports whether name is an ignored path, lies below one, or is a
// temp sibling of one such as "<file>.tmp" or "<file>123".
func (w *Watcher) ignored(name string) bool {
	name = absPath(name)
	for _, p := range w.ignore {
		if name == p || strings.HasPrefix(name, p+string(filepath.Separator)) {
			return true
		}
		if filepath.Dir(name) == filepath.Dir(p) && strings.HasPrefix(filepath.Base(name), filepath.Base(p)) {
			return true
		}
	}
	return false
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
