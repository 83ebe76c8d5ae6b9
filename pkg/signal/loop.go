package signal

import (
	"context"
	"sync"
)

// Loop is a goroutine-owned task queue: the execution context targeted by
// queued delivery. Tasks are posted from any goroutine and run, in post
// order, by whichever goroutine calls Run.
//
// The queue is unbounded. A task posted to a loop that is never pumped
// simply never runs; there is no timeout.
type Loop struct {
	mu     sync.Mutex
	tasks  []func()
	wake   chan struct{}
	closed bool
}

// NewLoop creates an idle loop.
func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
	}
}

// Post enqueues fn for execution on the loop's goroutine. It reports
// whether the task was accepted; posting to a closed loop is refused.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Run pumps the queue until ctx is done. Each drained batch runs in post
// order. Run returns ctx.Err(); pending tasks at shutdown are dropped.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.close()
			return ctx.Err()
		case <-l.wake:
			l.drain()
		}
	}
}

// Pump synchronously runs every task currently queued and returns how many
// ran. Useful for callers that own their own scheduling (and for tests).
func (l *Loop) Pump() int {
	return l.drain()
}

func (l *Loop) drain() int {
	l.mu.Lock()
	tasks := l.tasks
	l.tasks = nil
	l.mu.Unlock()

	for _, fn := range tasks {
		invoke(fn)
	}
	return len(tasks)
}

func (l *Loop) close() {
	l.mu.Lock()
	l.closed = true
	l.tasks = nil
	l.mu.Unlock()
}
