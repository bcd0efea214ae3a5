package rules

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Source supplies the rule table a pass should use. Implementations must be
// safe for concurrent use; each call may return a different table.
type Source interface {
	Table() *Table
}

type staticSource struct{ t *Table }

func (s staticSource) Table() *Table { return s.t }

// Static returns a Source that always yields t.
func Static(t *Table) Source {
	return staticSource{t: t}
}

// DefaultDebounce coalesces bursts of file events into one reload.
const DefaultDebounce = 100 * time.Millisecond

// Reloader holds the current table for a rule file and swaps in a new one
// when the file changes on disk.
//
// A reload that fails validation keeps the previous table active and reports
// the error on Errors(). A successful reload is published atomically: passes
// already running finish with the table they started with.
type Reloader struct {
	path     string
	format   string
	debounce time.Duration
	logger   *slog.Logger

	current atomic.Pointer[Table]

	mu       sync.Mutex
	onChange []func(*Table)
	timer    *time.Timer

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
	errChan chan error
}

// ReloaderOption configures a Reloader.
type ReloaderOption func(*Reloader)

// WithDebounce sets the delay between the last file event and the reload.
func WithDebounce(d time.Duration) ReloaderOption {
	return func(r *Reloader) {
		r.debounce = d
	}
}

// WithLogger sets the logger used for reload outcomes.
func WithLogger(l *slog.Logger) ReloaderOption {
	return func(r *Reloader) {
		r.logger = l
	}
}

// NewReloader loads the table at path. The initial load must succeed.
func NewReloader(path, format string, opts ...ReloaderOption) (*Reloader, error) {
	if format == "" {
		format = DetectFormat(path)
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Reloader{
		path:     path,
		format:   format,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		ctx:      ctx,
		cancel:   cancel,
		errChan:  make(chan error, 1),
	}
	for _, opt := range opts {
		opt(r)
	}

	t, err := Load(path, format)
	if err != nil {
		cancel()
		return nil, err
	}
	r.current.Store(t)
	return r, nil
}

// Table returns the active table.
func (r *Reloader) Table() *Table {
	return r.current.Load()
}

// Reload re-reads the file now. On failure the active table is unchanged.
func (r *Reloader) Reload() error {
	t, err := Load(r.path, r.format)
	if err != nil {
		r.logger.Warn("rule reload rejected, keeping previous table",
			"path", r.path,
			"code", CodeOf(err),
			"error", err,
		)
		return fmt.Errorf("reload rules: %w", err)
	}

	prev := r.current.Swap(t)
	r.logger.Info("rule table reloaded",
		"path", r.path,
		"rules", t.Len(),
		"previous_rules", prev.Len(),
	)

	r.mu.Lock()
	callbacks := make([]func(*Table), len(r.onChange))
	copy(callbacks, r.onChange)
	r.mu.Unlock()

	for _, cb := range callbacks {
		cb(t)
	}
	return nil
}

// OnChange registers a callback invoked after each successful reload.
// Callbacks run on the watcher's timer goroutine.
func (r *Reloader) OnChange(cb func(*Table)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = append(r.onChange, cb)
}

// Errors returns a channel for reload and watcher errors.
// Errors are dropped while the channel is full.
func (r *Reloader) Errors() <-chan error {
	return r.errChan
}

// Watch starts watching the rule file's directory for changes.
func (r *Reloader) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// Editors often replace files via rename, so watch the directory
	if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	r.watcher = watcher

	go r.watchLoop()
	return nil
}

func (r *Reloader) watchLoop() {
	name := filepath.Base(r.path)
	for {
		select {
		case <-r.ctx.Done():
			return

		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			r.schedule()

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.report(err)
		}
	}
}

func (r *Reloader) schedule() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, func() {
		if r.ctx.Err() != nil {
			return
		}
		if err := r.Reload(); err != nil {
			r.report(err)
		}
	})
}

func (r *Reloader) report(err error) {
	select {
	case r.errChan <- err:
	default:
	}
}

// Close stops watching. The active table remains readable.
func (r *Reloader) Close() error {
	r.cancel()
	r.mu.Lock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.mu.Unlock()
	if r.watcher != nil {
		return r.watcher.Close()
	}
	return nil
}
