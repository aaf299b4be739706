// Package watcher re-triggers report generation when coverage files change.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/felixgeelhaar/lcovhtml/internal/infrastructure/discovery"
)

// DefaultPattern is the glob watched when none is configured.
const DefaultPattern = "**/coverage.info"

// Watcher monitors a directory tree for changes to coverage files.
//
// Files and directories are filtered with the same glob rules discovery
// uses, so every file a run would read is watched and nothing else is.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	glob     string
	pattern  discovery.Pattern
	root     string
	onError  func(error)
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounce sets the debounce duration for file change events.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithPattern sets the root-relative glob whose files trigger a change event.
func WithPattern(pattern string) Option {
	return func(w *Watcher) {
		w.glob = pattern
	}
}

// WithErrorHandler receives errors reported by the underlying watcher.
func WithErrorHandler(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// New creates a new file watcher.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  fsw,
		debounce: 500 * time.Millisecond,
		glob:     DefaultPattern,
	}

	for _, opt := range opts {
		opt(w)
	}

	w.pattern, err = discovery.Compile(w.glob)
	if err != nil {
		_ = fsw.Close()
		return nil, err
	}

	return w, nil
}

// WatchDir sets root as the base of the pattern and watches every
// directory below it that may hold a matching file.
func (w *Watcher) WatchDir(root string) error {
	w.root = root
	_, err := w.addTree(root)
	return err
}

// addTree watches dir and its eligible subdirectories. It reports whether
// a matching file already exists below dir.
func (w *Watcher) addTree(dir string) (bool, error) {
	found := false
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, ok := w.rel(path)
		if !ok {
			return filepath.SkipDir
		}
		if !d.IsDir() {
			if w.pattern.Match(rel) {
				found = true
			}
			return nil
		}
		if !w.pattern.CanContain(rel) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
	return found, err
}

func (w *Watcher) rel(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return "", false
	}
	return rel, true
}

// Events returns a channel that emits when relevant files change.
// The channel is debounced to avoid rapid successive triggers.
func (w *Watcher) Events(ctx context.Context) <-chan struct{} {
	out := make(chan struct{})

	go func() {
		defer close(out)

		var timer *time.Timer
		var timerCh <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}

				// Directories created after start are watched too.
				if event.Op.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						rel, ok := w.rel(event.Name)
						if !ok || !w.pattern.CanContain(rel) {
							continue
						}
						found, err := w.addTree(event.Name)
						if err != nil {
							w.reportError(err)
						}
						if !found {
							continue
						}
					} else if !w.isRelevant(event.Name) {
						continue
					}
				} else if !isChangeEvent(event.Op) || !w.isRelevant(event.Name) {
					continue
				}

				// Debounce: reset timer on each event
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(w.debounce)
				timerCh = timer.C

			case <-timerCh:
				select {
				case out <- struct{}{}:
				case <-ctx.Done():
					return
				}
				timerCh = nil

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.reportError(err)
			}
		}
	}()

	return out
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) reportError(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}

func isChangeEvent(op fsnotify.Op) bool {
	return op.Has(fsnotify.Write) ||
		op.Has(fsnotify.Create) ||
		op.Has(fsnotify.Remove) ||
		op.Has(fsnotify.Rename)
}

func (w *Watcher) isRelevant(path string) bool {
	rel, ok := w.rel(path)
	return ok && w.pattern.Match(rel)
}
