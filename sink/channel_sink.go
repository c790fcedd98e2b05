package sink

import (
	"context"
	"sync"

	"pairchat/domain/event"
)

// ChannelSink buffers events for one connection until its write pump drains
// them. Consume is called from registry critical sections and from other
// connections' goroutines, so it must never block.
type ChannelSink struct {
	Events chan event.DomainEvent

	once sync.Once
	done chan struct{}
}

func NewChannelSink(bufferSize int) *ChannelSink {
	return &ChannelSink{
		Events: make(chan event.DomainEvent, bufferSize),
		done:   make(chan struct{}),
	}
}

// Consume enqueues the event for delivery. A full buffer drops the event
// instead of stalling the producer; the peer is presumed too slow or gone,
// and the keepalive will reap it.
func (s *ChannelSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	select {
	case s.Events <- e:
		return nil
	default:
		return nil
	}
}

// Close wakes the write pump so the connection can finish its teardown.
// Safe to call more than once and concurrently with Consume.
func (s *ChannelSink) Close() {
	s.once.Do(func() {
		close(s.done)
	})
}

// Done exposes the closed state to the write pump.
func (s *ChannelSink) Done() <-chan struct{} {
	return s.done
}
