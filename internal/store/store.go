// Package store holds a single current value and notifies subscribers
// synchronously whenever it changes.
package store

import "sync"

// Store is a current-value holder with synchronous publish on commit.
type Store[T any] struct {
	mu        sync.RWMutex
	value     T
	nextID    int
	listeners map[int]func(T)
	order     []int
}

// New creates a Store holding initial.
func New[T any](initial T) *Store[T] {
	return &Store[T]{value: initial, listeners: make(map[int]func(T))}
}

// Get returns the current value.
func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set replaces the value and notifies subscribers in subscription order.
func (s *Store[T]) Set(v T) {
	s.mu.Lock()
	s.value = v
	callbacks := s.snapshot()
	s.mu.Unlock()
	for _, fn := range callbacks {
		fn(v)
	}
}

// Update derives a new value from the current one. When fn fails the value
// is left as is and nobody is notified.
func (s *Store[T]) Update(fn func(T) (T, error)) error {
	next, err := fn(s.Get())
	if err != nil {
		return err
	}
	s.Set(next)
	return nil
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.order = append(s.order, id)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
		for i, o := range s.order {
			if o == id {
				s.order = append(s.order[:i:i], s.order[i+1:]...)
				break
			}
		}
	}
}

func (s *Store[T]) snapshot() []func(T) {
	out := make([]func(T), 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.listeners[id])
	}
	return out
}
