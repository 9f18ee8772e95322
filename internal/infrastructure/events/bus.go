package events

import (
	"sync"
	"sync/atomic"
)

// DefaultBuffer is used when Subscribe is called with a non-positive buffer.
const DefaultBuffer = 64

// Bus is a typed fan-out publisher. Delivery is asynchronous and
// non-blocking: a subscriber whose buffer is full misses the message.
type Bus[T any] struct {
	mu      sync.RWMutex
	subs    map[uint64]chan T
	nextID  uint64
	closed  bool
	dropped atomic.Uint64

	// OnDrop, when set, is called for every message a subscriber missed.
	OnDrop func(msg T)
}

// NewBus creates an empty bus.
func NewBus[T any]() *Bus[T] {
	return &Bus[T]{subs: make(map[uint64]chan T)}
}

// Subscribe registers a subscriber. The returned cancel func closes the
// channel and is safe to call more than once.
func (b *Bus[T]) Subscribe(buffer int) (<-chan T, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ch := make(chan T, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch, func() {}
	}

	b.nextID++
	subID := b.nextID
	b.subs[subID] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.unsubscribe(subID) })
	}
}

func (b *Bus[T]) unsubscribe(subID uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[subID]; ok {
		delete(b.subs, subID)
		close(ch)
	}
}

// Publish delivers msg to every subscriber without blocking.
func (b *Bus[T]) Publish(msg T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- msg:
		default:
			b.dropped.Add(1)
			if b.OnDrop != nil {
				b.OnDrop(msg)
			}
		}
	}
}

// Subscribers returns the number of live subscribers.
func (b *Bus[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped because a buffer was full.
func (b *Bus[T]) Dropped() uint64 {
	return b.dropped.Load()
}

// Close closes every subscriber channel. Later Publish calls are no-ops.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for subID, ch := range b.subs {
		delete(b.subs, subID)
		close(ch)
	}
}
