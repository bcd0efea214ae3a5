package memhost

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/roach88/replacer/internal/host"
)

// DefaultMaxTasks bounds RunPending so feedback between rules cannot spin a
// test forever.
const DefaultMaxTasks = 10000

// Loop is a single-threaded FIFO task scheduler.
//
// Schedule is safe from any goroutine. Tasks run on whichever goroutine
// calls RunPending, Step or Run, one at a time, in scheduling order.
type Loop struct {
	mu     sync.Mutex
	tasks  []*task
	closed bool
	signal chan struct{} // buffered, size 1
}

var _ host.TaskScheduler = (*Loop)(nil)

type task struct {
	fn        func()
	cancelled atomic.Bool
}

// Cancel prevents the task from running.
func (t *task) Cancel() {
	t.cancelled.Store(true)
}

// NewLoop returns an empty loop.
func NewLoop() *Loop {
	return &Loop{
		tasks:  make([]*task, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Schedule queues fn. Tasks scheduled on a closed loop never run.
func (l *Loop) Schedule(fn func()) host.Task {
	t := &task{fn: fn}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		t.cancelled.Store(true)
		return t
	}
	l.tasks = append(l.tasks, t)

	select {
	case l.signal <- struct{}{}:
	default:
	}
	return t
}

func (l *Loop) next() (*task, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for len(l.tasks) > 0 {
		t := l.tasks[0]
		l.tasks[0] = nil
		l.tasks = l.tasks[1:]
		if !t.cancelled.Load() {
			return t, true
		}
	}
	l.tasks = l.tasks[:0]
	return nil, false
}

// Step runs the next live task. Returns false if none was queued.
func (l *Loop) Step() bool {
	t, ok := l.next()
	if !ok {
		return false
	}
	t.fn()
	return true
}

// RunPending runs tasks, including ones scheduled meanwhile, until the
// queue is empty or DefaultMaxTasks have run. Returns the number run.
func (l *Loop) RunPending() int {
	n := 0
	for n < DefaultMaxTasks && l.Step() {
		n++
	}
	return n
}

// Len returns the number of queued tasks, cancelled ones included.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Run executes tasks until ctx is cancelled or the loop is closed and
// drained.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if l.Step() {
			continue
		}

		select {
		case <-ctx.Done():
			l.Close()
			return ctx.Err()

		case <-l.signal:
			l.mu.Lock()
			done := l.closed && len(l.tasks) == 0
			l.mu.Unlock()
			if done {
				return nil
			}
		}
	}
}

// Close stops accepting tasks and wakes Run.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	close(l.signal)
}
