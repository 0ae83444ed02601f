package pubsub

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// ContinuousListener feeds one subscription into a Bubble Tea program, one
// event per command. Call Listen again after handling each event.
type ContinuousListener[T any] struct {
	ctx context.Context
	ch  <-chan Event[T]
}

// NewContinuousListener subscribes to sub for as long as ctx lives.
func NewContinuousListener[T any](ctx context.Context, sub Subscriber[T]) *ContinuousListener[T] {
	return &ContinuousListener[T]{ctx: ctx, ch: sub.Subscribe(ctx)}
}

// Listen returns a command that waits for the next event and delivers it as
// the message. The message is nil once ctx is done or the subscription ends,
// which stops the listening loop.
func (l *ContinuousListener[T]) Listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-l.ctx.Done():
			return nil
		case event, ok := <-l.ch:
			if !ok {
				return nil
			}
			return event
		}
	}
}
