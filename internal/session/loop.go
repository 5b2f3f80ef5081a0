package session

import (
	"context"
	"sync"
)

// task is the unit of work dispatched to a session loop.
type task[T any] struct {
	ctx    context.Context
	fn     func(T) error
	result chan<- error
}

// loop runs submitted tasks one at a time against a single owned value, in
// submission order. It is the only writer of that value.
type loop[T any] struct {
	mu     sync.RWMutex
	closed bool
	queue  chan task[T]
	owned  T
	wg     sync.WaitGroup
}

// newLoop creates and starts a loop with queue capacity cap.
func newLoop[T any](owned T, cap int) *loop[T] {
	l := &loop[T]{
		queue: make(chan task[T], cap),
		owned: owned,
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.run()
	}()
	return l
}

func (l *loop[T]) run() {
	for t := range l.queue {
		// The caller may have given up while the task was queued.
		if err := t.ctx.Err(); err != nil {
			t.result <- err
			continue
		}
		t.result <- l.exec(t.fn)
	}
}

func (l *loop[T]) exec(fn func(T) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return fn(l.owned)
}

// Submit enqueues a task without blocking. It returns false if the queue is
// full or the loop is closed.
func (l *loop[T]) Submit(ctx context.Context, fn func(T) error, result chan<- error) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return false
	}
	select {
	case l.queue <- task[T]{ctx: ctx, fn: fn, result: result}:
		return true
	default:
		return false
	}
}

// Drain closes the queue and waits for queued tasks to finish.
func (l *loop[T]) Drain() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.queue)
	}
	l.mu.Unlock()
	l.wg.Wait()
}

func (l *loop[T]) Closed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.closed
}

// QueueLen returns how many tasks are currently queued.
func (l *loop[T]) QueueLen() int { return len(l.queue) }

// QueueCap returns the total queue capacity.
func (l *loop[T]) QueueCap() int { return cap(l.queue) }
