package limiter

import (
	"context"
	"sync"
)

// DefaultMaxConcurrency bounds sibling parallelism in tree aggregation
const DefaultMaxConcurrency = 3

// Limiter is a bounded-parallelism admission gate with strict FIFO queuing.
// At most maxConcurrency tasks run at once; the rest wait in arrival order.
// One task's failure never affects its siblings. A plain channel semaphore
// would not guarantee FIFO wakeup among blocked goroutines, hence the
// explicit waiter queue.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	running int
	waiters []*waiter
}

type waiter struct {
	ready     chan struct{}
	abandoned bool
}

// New creates a limiter. Non-positive maxConcurrency falls back to the default.
func New(maxConcurrency int) *Limiter {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	return &Limiter{limit: maxConcurrency}
}

// Acquire obtains a run slot, waiting in FIFO order behind earlier callers.
// Returns the context error if cancelled while waiting; the slot is not
// consumed in that case.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	if l.running < l.limit && len(l.waiters) == 0 {
		l.running++
		l.mu.Unlock()
		return nil
	}

	w := &waiter{ready: make(chan struct{})}
	l.waiters = append(l.waiters, w)
	l.mu.Unlock()

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		select {
		case <-w.ready:
			// Lost the race: a slot was already handed over. Return it.
			l.mu.Unlock()
			l.Release()
		default:
			w.abandoned = true
			l.mu.Unlock()
		}
		return ctx.Err()
	}
}

// Release returns a slot. The slot transfers to the head of the wait queue
// when one is pending, so admission order matches arrival order.
func (l *Limiter) Release() {
	l.mu.Lock()
	for len(l.waiters) > 0 {
		w := l.waiters[0]
		l.waiters = l.waiters[1:]
		if w.abandoned {
			continue
		}
		close(w.ready)
		l.mu.Unlock()
		return
	}
	l.running--
	l.mu.Unlock()
}

// Do runs task inside an acquired slot. The slot is released on any outcome;
// the task's error is returned to this caller only.
func (l *Limiter) Do(ctx context.Context, task func(ctx context.Context) error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return task(ctx)
}

// InFlight returns the number of currently running tasks
func (l *Limiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Waiting returns the number of queued tasks
func (l *Limiter) Waiting() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, w := range l.waiters {
		if !w.abandoned {
			n++
		}
	}
	return n
}
