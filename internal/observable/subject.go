// Package observable provides a versioned publish/subscribe container that
// holds the latest value of a piece of shared state.
package observable

import "sync"

// Subject holds a current value and pushes every newer value to its
// subscribers.
//
// New subscribers immediately receive the current value. Delivery is
// synchronous and follows registration order. Each publish carries a
// version; a publish whose version is not newer than the last delivered one
// is dropped, so a subscriber never observes state going backwards even when
// publishers race.
type Subject[T any] struct {
	// deliverMu serializes replay and publish so that every subscriber sees
	// values in version order.
	deliverMu sync.Mutex

	mu      sync.Mutex
	subs    []*subscription[T]
	nextID  uint64
	current T
	version uint64
}

type subscription[T any] struct {
	id     uint64
	fn     func(T)
	active bool
}

// New creates a Subject whose current value is initial at version 0.
func New[T any](initial T) *Subject[T] {
	return &Subject[T]{current: initial}
}

// Value returns the current value.
func (s *Subject[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Version returns the version of the current value.
func (s *Subject[T]) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Len reports the number of active subscribers.
func (s *Subject[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Subscribe registers fn and immediately calls it with the current value.
// The returned function detaches fn; it is idempotent and may be called from
// inside fn. fn must not call Subscribe or Publish on the same Subject.
func (s *Subject[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	s.nextID++
	sub := &subscription[T]{id: s.nextID, fn: fn, active: true}
	s.subs = append(s.subs, sub)
	current := s.current
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(sub.id) })
	}
}

// Publish sets the current value and delivers it to all subscribers when
// version is newer than the current one. It reports whether the value was
// delivered.
func (s *Subject[T]) Publish(version uint64, v T) bool {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	if version <= s.version {
		s.mu.Unlock()
		return false
	}
	s.version = version
	s.current = v
	subs := make([]*subscription[T], len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		if !s.isActive(sub) {
			continue
		}
		sub.fn(v)
	}
	return true
}

func (s *Subject[T]) isActive(sub *subscription[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sub.active
}

func (s *Subject[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub.id == id {
			sub.active = false
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}
