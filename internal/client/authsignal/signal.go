// Package authsignal provides the process-wide "unauthenticated" signal: a
// payload-free broadcast raised by the HTTP client when a call fails with
// 401 and observed by the session layer to force a logout.
//
// The signal is owned by the composition root and injected into emitter and
// subscribers explicitly; there is no package-level instance. Delivery is
// synchronous within Broadcast, and subscribers must tolerate at-least-once
// delivery (near-simultaneous 401s may each broadcast).
package authsignal

import "sync"

// Signal is a named broadcast with any number of subscribers.
// The zero value is not usable; call New.
type Signal struct {
	mu   sync.Mutex
	next int
	subs map[int]func()
}

// New creates an empty Signal.
func New() *Signal {
	return &Signal{subs: make(map[int]func())}
}

// Subscribe registers fn and returns an unsubscribe function. The
// unsubscribe function is idempotent and must be called before the owning
// context is torn down so the subscriber never acts after its owner is gone.
func (s *Signal) Subscribe(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Broadcast invokes every current subscriber synchronously, in unspecified
// order. Subscribers registered during delivery are not invoked for this
// broadcast.
func (s *Signal) Broadcast() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
