package sink

import (
	"context"
	"testing"

	"pairchat/domain/event"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestChannelSink_Consume_Buffers_Events(t *testing.T) {
	req := require.New(t)
	s := NewChannelSink(2)
	userID := uuid.NewString()

	// When two events are consumed
	req.NoError(s.Consume(context.Background(), event.Connected{UserID: userID}))
	req.NoError(s.Consume(context.Background(), event.PresenceChanged{UserID: userID, Online: true}))

	// Then both wait in the buffer in order
	req.Equal(event.Connected{UserID: userID}, <-s.Events)
	req.Equal(event.PresenceChanged{UserID: userID, Online: true}, <-s.Events)
}

func TestChannelSink_Consume_Drops_When_Full(t *testing.T) {
	req := require.New(t)
	s := NewChannelSink(1)

	// Given a full buffer
	req.NoError(s.Consume(context.Background(), event.Connected{UserID: "a"}))

	// When another event arrives, Consume must return without blocking
	req.NoError(s.Consume(context.Background(), event.Connected{UserID: "b"}))

	// Then only the first event survived
	req.Equal(event.Connected{UserID: "a"}, <-s.Events)
	select {
	case e := <-s.Events:
		req.Failf("unexpected event", "%v", e)
	default:
	}
}

func TestChannelSink_Close_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	s := NewChannelSink(1)

	s.Close()
	s.Close()

	select {
	case <-s.Done():
	default:
		req.Fail("Done channel should be closed")
	}

	// Consuming after close is a no-op, not a panic
	req.NoError(s.Consume(context.Background(), event.Connected{UserID: "a"}))
}

func TestChannelSink_Consume_Canceled_Context(t *testing.T) {
	req := require.New(t)
	s := NewChannelSink(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Consume(ctx, event.Connected{UserID: "a"})

	req.ErrorIs(err, context.Canceled)
}
