// Package watch notifies about changes to descriptor files, coalescing
// bursts of file system events into a single signal.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/specialistvlad/extreg/internal/ctxlog"
)

// Config holds watcher configuration options.
type Config struct {
	// Paths are the files and directories to watch. Directories are watched
	// recursively as they exist when Start is called.
	Paths []string
	// Extensions limits notifications to files with these suffixes.
	Extensions []string
	Debounce   time.Duration
}

// Watcher monitors descriptor files and signals when they change.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	cfg       Config
	files     map[string]struct{}
	onChange  chan struct{}
	done      chan struct{}
}

// New creates a new watcher.
func New(cfg Config) (*Watcher, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 250 * time.Millisecond
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	return &Watcher{
		fsWatcher: fsw,
		cfg:       cfg,
		files:     make(map[string]struct{}),
		onChange:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching. The returned channel receives one value per burst
// of relevant changes; signals are dropped while one is already pending.
// Errors reported by the file system watcher are logged through ctx.
func (w *Watcher) Start(ctx context.Context) (<-chan struct{}, error) {
	for _, p := range w.cfg.Paths {
		if err := w.add(p); err != nil {
			return nil, err
		}
	}
	go w.loop(ctx)
	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

func (w *Watcher) add(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	if !info.IsDir() {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		w.files[abs] = struct{}{}
		return w.fsWatcher.Add(filepath.Dir(abs))
	}
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsWatcher.Add(p); err != nil {
			return fmt.Errorf("watching directory %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	var (
		timer   *time.Timer
		pending bool
	)
	timerC := func() <-chan time.Time {
		if timer != nil {
			return timer.C
		}
		return nil
	}

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevant(event) {
				continue
			}
			logger.Debug("Descriptor file changed.", "file", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.cfg.Debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.cfg.Debounce)
			}
			pending = true

		case <-timerC():
			if pending {
				select {
				case w.onChange <- struct{}{}:
				default:
				}
				pending = false
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			logger.Warn("File watcher error.", "error", err)

		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) isRelevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if len(w.files) > 0 {
		if abs, err := filepath.Abs(event.Name); err == nil {
			if _, ok := w.files[abs]; ok {
				return true
			}
		}
	}
	if len(w.cfg.Extensions) == 0 {
		return true
	}
	return slices.ContainsFunc(w.cfg.Extensions, func(ext string) bool {
		return filepath.Ext(event.Name) == ext
	})
}
