// Package watcher re-runs work when an input file changes.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/trackfeat/pkg/debug"
)

// DefaultPollInterval is the default polling interval for fallback mode.
const DefaultPollInterval = 2 * time.Second

// Common errors.
var (
	ErrFileRemoved = errors.New("watched file was removed")
	ErrPermission  = errors.New("permission denied")
)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets the debounce duration.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounceDuration = d
	}
}

// WithPollInterval sets the polling interval for fallback mode.
// Non-positive values keep DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithOnError sets the callback invoked on errors.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithForcePoll forces polling mode even if fsnotify is available.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) {
		w.forcePoll = force
	}
}

// Watcher monitors one file and calls onChange after writes settle.
type Watcher struct {
	path             string
	debounceDuration time.Duration
	pollInterval     time.Duration
	onChange         func()
	onError          func(error)
	forcePoll        bool

	changes chan struct{}
}

// New creates a watcher for path. onChange runs on the Run goroutine, never
// concurrently with itself.
func New(path string, onChange func(), opts ...Option) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:             absPath,
		debounceDuration: DefaultDebounceDuration,
		pollInterval:     DefaultPollInterval,
		onChange:         onChange,
		onError:          func(error) {},
		changes:          make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.pollInterval <= 0 {
		w.pollInterval = DefaultPollInterval
	}
	if w.debounceDuration < 0 {
		w.debounceDuration = DefaultDebounceDuration
	}
	if envBool("TRACKFEAT_FORCE_POLL") {
		w.forcePoll = true
	}
	return w, nil
}

// PollInterval returns the interval used when polling.
func (w *Watcher) PollInterval() time.Duration {
	return w.pollInterval
}

// Path returns the watched file path.
func (w *Watcher) Path() string {
	return w.path
}

// Run watches until ctx is cancelled. It falls back to polling when
// fsnotify cannot watch the file's directory.
func (w *Watcher) Run(ctx context.Context) error {
	if _, err := os.Stat(w.path); err != nil && os.IsPermission(err) {
		return ErrPermission
	}

	debouncer := NewDebouncer(w.debounceDuration)
	defer debouncer.Cancel()
	signal := func() {
		select {
		case w.changes <- struct{}{}:
		default:
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !w.forcePoll {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			// The directory is watched so atomic rename-over writes are seen.
			if err = fsw.Add(filepath.Dir(w.path)); err == nil {
				defer fsw.Close()
				go w.watchFsnotify(ctx, fsw, debouncer, signal)
			} else {
				fsw.Close()
			}
		}
		if err != nil {
			debug.Log("watcher: fsnotify unavailable (%v), polling %s", err, w.path)
			go w.watchPolling(ctx, debouncer, signal)
		}
	} else {
		go w.watchPolling(ctx, debouncer, signal)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.changes:
			w.onChange()
		}
	}
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

func (w *Watcher) watchFsnotify(ctx context.Context, fsw *fsnotify.Watcher, d *Debouncer, signal func()) {
	target := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			switch {
			case event.Op&fsnotify.Remove != 0:
				w.onError(ErrFileRemoved)
			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				d.Trigger(signal)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) watchPolling(ctx context.Context, d *Debouncer, signal func()) {
	var lastMtime time.Time
	var lastSize int64
	if info, err := os.Stat(w.path); err == nil {
		lastMtime, lastSize = info.ModTime(), info.Size()
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			info, err := os.Stat(w.path)
			if err != nil {
				switch {
				case os.IsNotExist(err):
					if !lastMtime.IsZero() {
						w.onError(ErrFileRemoved)
						lastMtime, lastSize = time.Time{}, 0
					}
				case os.IsPermission(err):
					w.onError(ErrPermission)
				default:
					w.onError(err)
				}
				continue
			}
			if !info.ModTime().Equal(lastMtime) || info.Size() != lastSize {
				lastMtime, lastSize = info.ModTime(), info.Size()
				d.Trigger(signal)
			}
		}
	}
}
