// Package host provides the single-threaded interactive context that
// results are delivered on. Everything posted to a Loop runs serially on
// the goroutine that called Run, so UI code never needs its own locking.
package host

import (
	"context"
	"sync"
	"sync/atomic"
)

// Loop is an unbounded, serial work queue.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	done    chan struct{}
	stopped bool
	running atomic.Int64 // number of active Run calls
	stopOne sync.Once
}

// NewLoop creates an idle loop. Call Run to start draining it.
func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post schedules fn on the loop. It never blocks; after Stop it is a no-op.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run drains the queue until Stop is called or ctx is done. Functions
// already queued when Stop is called are still executed.
func (l *Loop) Run(ctx context.Context) error {
	l.running.Add(1)
	defer l.running.Add(-1)
	for {
		for _, fn := range l.take() {
			fn()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			for _, fn := range l.take() {
				fn()
			}
			return nil
		case <-l.wake:
		}
	}
}

// Stop ends Run after the pending queue has drained.
func (l *Loop) Stop() {
	l.stopOne.Do(func() {
		l.mu.Lock()
		l.stopped = true
		l.mu.Unlock()
		close(l.done)
	})
}

// Stopped closes when Stop has been called.
func (l *Loop) Stopped() <-chan struct{} {
	return l.done
}

// Running reports whether some goroutine is inside Run.
func (l *Loop) Running() bool {
	return l.running.Load() > 0
}

func (l *Loop) take() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	q := l.queue
	l.queue = nil
	return q
}
