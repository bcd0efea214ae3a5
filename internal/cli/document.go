package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/roach88/replacer/internal/host"
	"github.com/roach88/replacer/internal/host/memhost"
)

// documentFile mirrors a file on disk into an in-memory document.
//
// External writes to the file are applied to the document as edits by the
// remote participant; changes to the document are written back. Everything
// except the fsnotify loop and the debounce timer runs on the Loop.
type documentFile struct {
	path     string
	perm     os.FileMode
	loop     *memhost.Loop
	session  *memhost.Session
	logger   *slog.Logger
	debounce time.Duration

	author       host.User
	disk         string // last content read from or written to the file
	flushPending bool

	mu      sync.Mutex
	timer   *time.Timer
	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
}

func openDocumentFile(path string, loop *memhost.Loop, debounce time.Duration, logger *slog.Logger) (*documentFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &documentFile{
		path:     path,
		perm:     info.Mode().Perm(),
		loop:     loop,
		logger:   logger.With("file", path),
		debounce: debounce,
		disk:     string(data),
		ctx:      ctx,
		cancel:   cancel,
	}
	d.session = memhost.NewSession(filepath.Base(path), d.disk, loop)

	buf := d.session.Buffer()
	buf.OnInserted(func(int, string, host.User) { d.scheduleFlush() })
	buf.OnErased(func(int, int, host.User) { d.scheduleFlush() })
	return d, nil
}

// join adds the remote participant whose presence attaches the replacer.
func (d *documentFile) join() {
	d.author = d.session.Users().Add(remoteUser, 0)
}

func (d *documentFile) scheduleFlush() {
	if d.flushPending {
		return
	}
	d.flushPending = true
	d.loop.Schedule(d.flush)
}

func (d *documentFile) flush() {
	d.flushPending = false
	text := d.session.Buffer().Text()
	if text == d.disk {
		return
	}
	if err := os.WriteFile(d.path, []byte(text), d.perm); err != nil {
		d.logger.Warn("write document failed", "error", err)
		return
	}
	d.disk = text
	d.logger.Info("document written", "length", d.session.Buffer().Length())
}

// reload applies the file content to the document.
func (d *documentFile) reload() {
	data, err := os.ReadFile(d.path)
	if err != nil {
		d.logger.Warn("read document failed", "error", err)
		return
	}
	text := string(data)
	if text == d.disk {
		return
	}
	d.disk = text
	if text == d.session.Buffer().Text() {
		return
	}
	if err := d.session.Buffer().Replace(text, d.author); err != nil {
		d.logger.Warn("apply document change failed", "error", err)
		return
	}
	d.logger.Debug("document changed on disk")
}

// Watch starts watching the file's directory for external writes.
func (d *documentFile) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(d.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	d.watcher = watcher

	go d.watchLoop()
	return nil
}

func (d *documentFile) watchLoop() {
	name := filepath.Base(d.path)
	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			d.schedule()

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.logger.Warn("document watch error", "error", err)
		}
	}
}

func (d *documentFile) schedule() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.debounce, func() {
		if d.ctx.Err() != nil {
			return
		}
		d.loop.Schedule(d.reload)
	})
}

// Close stops watching.
func (d *documentFile) Close() error {
	d.cancel()
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()
	if d.watcher != nil {
		return d.watcher.Close()
	}
	return nil
}
