// Package session runs editing sessions. Each session owns one editor and
// one goroutine; every command against the editor executes on that
// goroutine in arrival order.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gyaneshwarpardhi/patchbay/internal/editor"
	"github.com/gyaneshwarpardhi/patchbay/internal/metrics"
)

var (
	ErrQueueFull       = errors.New("session queue full")
	ErrTimeout         = errors.New("session command timeout")
	ErrClosed          = errors.New("session closed")
	ErrNotFound        = errors.New("session not found")
	ErrTooManySessions = errors.New("too many sessions")
)

// PanicError is returned when a command panicked. The session keeps running.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("command panicked: %v", e.Value) }

// Session is one editor behind a single-writer command loop.
type Session struct {
	ID      string
	Created time.Time

	loop    *loop[*editor.Editor]
	timeout time.Duration
}

func newSession(id string, ed *editor.Editor, queueDepth int, timeout time.Duration) *Session {
	return &Session{
		ID:      id,
		Created: time.Now(),
		loop:    newLoop(ed, queueDepth),
		timeout: timeout,
	}
}

// Do runs fn on the session goroutine and waits for it, up to the session's
// command timeout. A timed-out command still runs once it reaches the head
// of the queue unless ctx has been cancelled by then.
func (s *Session) Do(ctx context.Context, fn func(*editor.Editor) error) error {
	start := time.Now()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result := make(chan error, 1)
	if !s.loop.Submit(ctx, fn, result) {
		if s.loop.Closed() {
			return ErrClosed
		}
		return fmt.Errorf("%w (capacity %d)", ErrQueueFull, s.loop.QueueCap())
	}

	select {
	case err := <-result:
		metrics.CommandDuration.Observe(float64(time.Since(start).Microseconds()) / 1000)
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %v", ErrTimeout, s.timeout)
		}
		return ctx.Err()
	}
}

// QueueUtilization returns queue used / capacity (0–1).
func (s *Session) QueueUtilization() float64 {
	if s.loop.QueueCap() == 0 {
		return 0
	}
	return float64(s.loop.QueueLen()) / float64(s.loop.QueueCap())
}

func (s *Session) close() { s.loop.Drain() }
