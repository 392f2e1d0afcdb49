// Package events implements the in-process publish/subscribe channel that
// connects history views with mounted tools.
//
// Each event class is its own Bus with its own payload type, so a LoadInput
// handler can never receive a HistoryUpdated payload.
package events

import (
	"sync"
)

type subscription[T any] struct {
	handler func(T)
	mu      sync.Mutex
	active  bool
}

func (s *subscription[T]) isActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Bus delivers payloads of type T to its current subscribers, synchronously
// and in subscription order. The zero value is ready to use.
type Bus[T any] struct {
	mu   sync.Mutex
	subs []*subscription[T]
}

// Subscribe registers handler and returns a function that removes it. The
// returned function is idempotent.
func (b *Bus[T]) Subscribe(handler func(T)) func() {
	sub := &subscription[T]{handler: handler, active: true}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.mu.Lock()
			sub.active = false
			sub.mu.Unlock()

			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s == sub {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish invokes every handler subscribed at the time of the call and
// returns how many ran. Handlers that unsubscribe before their turn in the
// current dispatch are skipped. With no subscribers nothing happens and
// nothing is retained for later subscribers.
func (b *Bus[T]) Publish(payload T) int {
	b.mu.Lock()
	snapshot := make([]*subscription[T], len(b.subs))
	copy(snapshot, b.subs)
	b.mu.Unlock()

	delivered := 0
	for _, sub := range snapshot {
		if !sub.isActive() {
			continue
		}
		sub.handler(payload)
		delivered++
	}
	return delivered
}

// Len reports the number of active subscribers.
func (b *Bus[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
