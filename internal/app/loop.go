package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/paintwatch/internal/ports"
)

// Scheduler runs callbacks on a single logical thread.
// Every callback passed to Post, Every and After executes on that thread and
// never overlaps another one, so the state they touch needs no locking.
type Scheduler interface {
	// Now returns the scheduler's notion of the current time.
	Now() time.Time

	// Post queues fn to run on the loop. Safe from any goroutine.
	Post(fn func())

	// Every runs fn every d until the returned task is stopped.
	Every(d time.Duration, fn func()) Task

	// After runs fn once after d unless the returned task is stopped first.
	After(d time.Duration, fn func()) Task
}

// Task is a cancellable scheduled callback.
type Task interface {
	// Stop cancels the task. A callback that has not started yet will not run.
	// Idempotent.
	Stop()
}

// Loop is the production Scheduler: a single goroutine draining a queue.
type Loop struct {
	logger ports.Logger

	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
	done  chan struct{}
	ran   atomic.Bool
}

// NewLoop creates a loop. Call Run to start draining it.
func NewLoop(logger ports.Logger) *Loop {
	return &Loop{
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Run drains the queue until the context is canceled.
// Must be called at most once.
func (l *Loop) Run(ctx context.Context) error {
	if !l.ran.CompareAndSwap(false, true) {
		return nil
	}
	defer close(l.done)

	for {
		for {
			fn := l.next()
			if fn == nil {
				break
			}
			fn()
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Now returns the wall clock.
func (l *Loop) Now() time.Time { return time.Now() }

// Post queues fn. Callbacks posted after Run returned are dropped.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.done:
		return
	default:
	}

	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Call runs fn on the loop and waits for it to finish.
// Returns ctx.Err() if the context ends first or the loop has stopped.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	l.Post(func() {
		fn()
		close(finished)
	})
	select {
	case <-finished:
		return nil
	case <-l.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Every starts a repeating task. Ticks are coalesced: while one tick is still
// queued on the loop, further ticks are dropped.
func (l *Loop) Every(d time.Duration, fn func()) Task {
	t := newLoopTask()
	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-t.quit:
				return
			case <-l.done:
				return
			case <-ticker.C:
				if !t.queued.CompareAndSwap(false, true) {
					continue
				}
				l.Post(func() {
					t.queued.Store(false)
					if t.stopped.Load() {
						return
					}
					fn()
				})
			}
		}
	}()
	return t
}

// After schedules a one-shot task.
func (l *Loop) After(d time.Duration, fn func()) Task {
	t := newLoopTask()
	go func() {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-t.quit:
		case <-l.done:
		case <-timer.C:
			l.Post(func() {
				if t.stopped.Load() {
					return
				}
				t.Stop()
				fn()
			})
		}
	}()
	return t
}

type loopTask struct {
	stopped atomic.Bool
	queued  atomic.Bool
	quit    chan struct{}
	once    sync.Once
}

func newLoopTask() *loopTask {
	return &loopTask{quit: make(chan struct{})}
}

func (t *loopTask) Stop() {
	t.once.Do(func() {
		t.stopped.Store(true)
		close(t.quit)
	})
}

var _ Scheduler = (*Loop)(nil)
