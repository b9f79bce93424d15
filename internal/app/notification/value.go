package notification

import (
	"sync"

	"github.com/google/uuid"
)

// Subscription is one observer of a Value. C holds at most one pending
// value: a slow reader only ever sees the latest.
type Subscription[T any] struct {
	ID string
	C  <-chan T
}

// Value is an independently observable latest-value cell.
type Value[T any] struct {
	mu      sync.RWMutex
	current T
	subs    map[string]chan T
	closed  bool
}

// NewValue creates a value holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		current: initial,
		subs:    make(map[string]chan T),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Set stores x and offers it to every subscriber, replacing any value
// they have not read yet. Set never blocks on a subscriber.
func (v *Value[T]) Set(x T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	v.current = x
	for _, ch := range v.subs {
		offer(ch, x)
	}
}

// Subscribe registers an observer. Its channel already holds the current value.
// Subscribing to a closed Value yields a closed channel.
func (v *Value[T]) Subscribe() *Subscription[T] {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan T, 1)
	if v.closed {
		close(ch)
		return &Subscription[T]{ID: id, C: ch}
	}
	ch <- v.current
	v.subs[id] = ch
	return &Subscription[T]{ID: id, C: ch}
}

// Unsubscribe removes a subscription and closes its channel.
func (v *Value[T]) Unsubscribe(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if ch, ok := v.subs[id]; ok {
		delete(v.subs, id)
		close(ch)
	}
}

// SubscriberCount returns the number of active subscribers.
func (v *Value[T]) SubscriberCount() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.subs)
}

// Close closes every subscriber channel. Later Sets are ignored.
func (v *Value[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	v.closed = true
	for id, ch := range v.subs {
		close(ch)
		delete(v.subs, id)
	}
}

// offer puts x into a buffer-1 channel, dropping the stale pending value.
func offer[T any](ch chan T, x T) {
	select {
	case ch <- x:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- x:
	default:
	}
}
