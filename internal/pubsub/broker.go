package pubsub

import (
	"context"
	"sync"
	"time"
)

// subscriptionBuffer is how many events a subscriber may fall behind before
// it starts missing them.
const subscriptionBuffer = 64

// Broker fans published events out to every live subscription.
// Publishing never blocks: a subscriber whose buffer is full misses the event.
type Broker[T any] struct {
	mu     sync.RWMutex
	subs   map[chan Event[T]]struct{}
	done   chan struct{}
	buffer int
}

// NewBroker returns an open broker with no subscribers.
func NewBroker[T any]() *Broker[T] {
	return newBroker[T](subscriptionBuffer)
}

func newBroker[T any](buffer int) *Broker[T] {
	return &Broker[T]{
		subs:   make(map[chan Event[T]]struct{}),
		done:   make(chan struct{}),
		buffer: max(buffer, 1),
	}
}

// Subscribe returns a channel of events that is closed when ctx is cancelled
// or the broker is closed. Subscribing to a closed broker yields a closed
// channel.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isClosed() {
		ch := make(chan Event[T])
		close(ch)
		return ch
	}

	ch := make(chan Event[T], b.buffer)
	b.subs[ch] = struct{}{}
	go b.unsubscribeOnDone(ctx, ch)
	return ch
}

func (b *Broker[T]) unsubscribeOnDone(ctx context.Context, ch chan Event[T]) {
	select {
	case <-ctx.Done():
	case <-b.done:
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.isClosed() {
		return
	}
	delete(b.subs, ch)
	close(ch)
}

// Publish stamps payload with the current time and offers it to every
// subscriber. It is a no-op after Close.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.isClosed() {
		return
	}

	event := Event[T]{Type: eventType, Payload: payload, Timestamp: time.Now()}
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Close ends every subscription. Later calls do nothing.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.isClosed() {
		return
	}
	close(b.done)
	for ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}

func (b *Broker[T]) isClosed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}
