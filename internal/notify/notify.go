// Package notify carries user-facing outcome notifications from the
// controllers to whatever surface displays them.
package notify

import "context"

// Kind partitions notifications into success and failure toasts.
type Kind string

const (
	KindSuccess Kind = "success"
	KindFailure Kind = "failure"
)

// Notification is one toast-style event. Each completed operation cycle
// produces exactly one.
type Notification struct {
	Kind    Kind
	Message string
}

// Sink consumes notifications emitted by the controllers.
type Sink interface {
	Publish(context.Context, Notification)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(context.Context, Notification)

func (f SinkFunc) Publish(ctx context.Context, n Notification) {
	f(ctx, n)
}

// Discard is a no-op sink used when no notification surface is wired.
var Discard Sink = SinkFunc(func(context.Context, Notification) {})

// Fanout publishes each notification to every wrapped sink in order.
type Fanout []Sink

func (f Fanout) Publish(ctx context.Context, n Notification) {
	for _, sink := range f {
		if sink == nil {
			continue
		}
		sink.Publish(ctx, n)
	}
}

// Stream is a buffered, non-blocking sink exposing notifications as a channel.
// When the buffer is full the oldest pending notification is dropped so a
// slow consumer can never stall a state transition.
type Stream struct {
	events chan Notification
}

// NewStream builds a stream with the given buffer size (minimum 1).
func NewStream(size int) *Stream {
	if size < 1 {
		size = 1
	}
	return &Stream{events: make(chan Notification, size)}
}

func (s *Stream) Publish(_ context.Context, n Notification) {
	for {
		select {
		case s.events <- n:
			return
		default:
		}
		select {
		case <-s.events:
		default:
		}
	}
}

// Events returns the consumer side of the stream.
func (s *Stream) Events() <-chan Notification {
	return s.events
}
