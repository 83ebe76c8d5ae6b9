// Package signal provides the multi-subscriber event primitive used by the
// reactive property core. A Signal delivers emissions to subscribers in
// connection order, either synchronously in the emitting goroutine or queued
// onto a subscriber-chosen Loop.
package signal

import (
	"sync"
)

// Mode selects how an emission reaches a subscriber.
type Mode int

const (
	// ModeDirect invokes the subscriber synchronously in the emitting
	// goroutine, before Emit returns.
	ModeDirect Mode = iota

	// ModeQueued posts the invocation to the subscriber's Loop. Emit only
	// schedules the call; it runs when the loop pumps its queue.
	ModeQueued
)

// Delivery pairs a Mode with its target Loop (queued mode only).
type Delivery struct {
	mode Mode
	loop *Loop
}

// Direct returns a synchronous delivery.
func Direct() Delivery {
	return Delivery{mode: ModeDirect}
}

// Queued returns a delivery that posts invocations to the given loop.
// A nil loop degrades to direct delivery.
func Queued(loop *Loop) Delivery {
	if loop == nil {
		return Direct()
	}
	return Delivery{mode: ModeQueued, loop: loop}
}

// Subscription is the opaque handle returned by Connect. It identifies one
// subscriber for later Disconnect.
type Subscription struct {
	id uint64
}

type subscriber[T any] struct {
	sub      *Subscription
	fn       func(T)
	delivery Delivery
}

// Signal is an ordered list of subscribers sharing a payload type.
// The zero value is ready to use.
//
// The subscriber list itself is guarded by a mutex so Connect, Disconnect,
// and Emit may be called from any goroutine; the invariants the callbacks
// observe are whatever discipline the emitting side follows.
type Signal[T any] struct {
	mu     sync.Mutex
	subs   []subscriber[T]
	nextID uint64
}

// New creates an empty signal.
func New[T any]() *Signal[T] {
	return &Signal[T]{}
}

// Connect appends fn to the subscriber list with the given delivery and
// returns its subscription handle. A nil fn returns a handle that is
// never delivered to.
func (s *Signal[T]) Connect(fn func(T), delivery Delivery) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	sub := &Subscription{id: s.nextID}
	if fn != nil {
		s.subs = append(s.subs, subscriber[T]{sub: sub, fn: fn, delivery: delivery})
	}
	return sub
}

// Disconnect removes the subscriber identified by sub. Disconnecting an
// unknown or already removed subscription is a no-op.
func (s *Signal[T]) Disconnect(sub *Subscription) {
	if sub == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.subs {
		if existing.sub == sub {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// DisconnectAll removes every subscriber.
func (s *Signal[T]) DisconnectAll() {
	s.mu.Lock()
	s.subs = nil
	s.mu.Unlock()
}

// Len returns the current subscriber count.
func (s *Signal[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Emit delivers value to every subscriber in connection order.
// Direct subscribers run before Emit returns; queued subscribers are posted
// to their loops in the same relative order. A subscriber that panics is
// reported through the package reporter and does not stop delivery to the
// remaining subscribers.
func (s *Signal[T]) Emit(value T) {
	// Copy before notify so subscribers may connect/disconnect freely.
	s.mu.Lock()
	subs := make([]subscriber[T], len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		fn := sub.fn
		switch sub.delivery.mode {
		case ModeQueued:
			sub.delivery.loop.Post(func() {
				invoke(func() { fn(value) })
			})
		default:
			invoke(func() { fn(value) })
		}
	}
}

// invoke runs fn, converting a panic into a report.
func invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			reportPanic(r)
		}
	}()
	fn()
}
