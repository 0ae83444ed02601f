// Package pubsub fans timer events out to Bubble Tea screens. Delivery is
// best effort; consumers that must see every event register a listener on
// the timer instead.
package pubsub

import (
	"context"
	"time"
)

// EventType labels a published event.
type EventType string

// UpdatedEvent marks a change in the published value.
const UpdatedEvent EventType = "updated"

// Event is a published value with its type and publish time.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber is anything a ContinuousListener can follow.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}
