package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"pairchat/auth"
	"pairchat/domain/event"
	"pairchat/mocks"
	"pairchat/observability"
	"pairchat/runtime"
	"pairchat/services"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testSecret = []byte("relay-test-secret")

// fakeSocket scripts the peer side of a connection.
type fakeSocket struct {
	inbound chan []byte

	mu      sync.Mutex
	written []map[string]any
	pings   int

	once   sync.Once
	closed chan struct{}
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{
		inbound: make(chan []byte, 16),
		closed:  make(chan struct{}),
	}
}

func (f *fakeSocket) ReadMessage() (int, []byte, error) {
	select {
	case data, ok := <-f.inbound:
		if !ok {
			return 0, nil, io.EOF
		}
		return websocket.TextMessage, data, nil
	case <-f.closed:
		return 0, nil, io.ErrClosedPipe
	}
}

func (f *fakeSocket) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, decoded)
	return nil
}

func (f *fakeSocket) WriteControl(messageType int, _ []byte, _ time.Time) error {
	if messageType == websocket.PingMessage {
		f.mu.Lock()
		f.pings++
		f.mu.Unlock()
	}
	return nil
}

func (f *fakeSocket) SetReadDeadline(time.Time) error  { return nil }
func (f *fakeSocket) SetWriteDeadline(time.Time) error { return nil }
func (f *fakeSocket) SetPongHandler(func(string) error) {}

func (f *fakeSocket) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeSocket) send(t *testing.T, env any) {
	t.Helper()
	data, err := json.Marshal(env)
	require.NoError(t, err)
	f.inbound <- data
}

func (f *fakeSocket) writtenTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]string, 0, len(f.written))
	for _, w := range f.written {
		if s, ok := w["type"].(string); ok {
			types = append(types, s)
		}
	}
	return types
}

func testRelay(t *testing.T, registry *runtime.Registry, chatService services.IChatService) (*Relay, *observability.Stats) {
	t.Helper()
	stats := observability.NewStats()
	relay := NewRelay(
		logs.GetLoggerFromLevel(slog.LevelDebug),
		registry, chatService, stats, testSecret,
		Config{
			ConnectionBufferSize: 16,
			PingInterval:         time.Hour,
			PongTimeout:          time.Hour,
			WriteTimeout:         time.Second,
			PersistTimeout:       time.Second,
			MaxBodyLength:        4096,
		},
	)
	return relay, stats
}

func token(t *testing.T, userID, username string) string {
	t.Helper()
	signed, err := auth.GenerateToken(userID, username, testSecret, time.Hour)
	require.NoError(t, err)
	return signed
}

func TestRelay_Handshake_Success(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := runtime.NewRegistry()
	relay, _ := testRelay(t, registry, mocks.NewMockIChatService(ctrl))
	socket := newFakeSocket()
	userID := uuid.NewString()

	done := make(chan struct{})
	go func() {
		defer close(done)
		relay.HandleConn(context.Background(), socket)
	}()

	// When the peer authenticates with a valid token
	socket.send(t, map[string]string{"type": "connect", "token": token(t, userID, "alice")})

	// Then the user comes online and hears the acknowledgement first
	req.Eventually(func() bool { return registry.IsOnline(userID) }, time.Second, 5*time.Millisecond)
	req.Eventually(func() bool {
		types := socket.writtenTypes()
		return len(types) >= 2 && types[0] == "connected" && types[1] == "user_status"
	}, time.Second, 5*time.Millisecond)

	// When the peer goes away
	close(socket.inbound)
	<-done

	// Then the session is gone
	req.False(registry.IsOnline(userID))
}

func TestRelay_Handshake_Invalid_Token(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := runtime.NewRegistry()
	relay, stats := testRelay(t, registry, mocks.NewMockIChatService(ctrl))
	socket := newFakeSocket()

	done := make(chan struct{})
	go func() {
		defer close(done)
		relay.HandleConn(context.Background(), socket)
	}()

	// When the peer presents a garbage token
	socket.send(t, map[string]string{"type": "connect", "token": "garbage"})

	// Then the connection is closed without detail and nobody registered
	<-done
	req.Equal(0, registry.Count())
	req.Equal(uint64(1), stats.Snapshot().HandshakesFailed)
	req.Empty(socket.writtenTypes())
}

func TestRelay_Message_Before_Authentication(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := runtime.NewRegistry()
	// No SendMessage expectation: the call must never happen
	relay, _ := testRelay(t, registry, mocks.NewMockIChatService(ctrl))
	socket := newFakeSocket()

	done := make(chan struct{})
	go func() {
		defer close(done)
		relay.HandleConn(context.Background(), socket)
	}()

	socket.send(t, map[string]string{
		"type": "message", "conversationId": uuid.NewString(),
		"toUserId": uuid.NewString(), "body": "too early",
	})

	<-done
	req.Equal(0, registry.Count())
}

func TestRelay_Message_Dispatched_With_Bound_Identity(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := runtime.NewRegistry()
	mockChat := mocks.NewMockIChatService(ctrl)
	relay, stats := testRelay(t, registry, mockChat)
	socket := newFakeSocket()
	userID := uuid.NewString()
	conversationID := uuid.NewString()
	bob := uuid.NewString()

	dispatched := make(chan services.SendMessageCommand, 1)
	mockChat.EXPECT().
		SendMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, cmd services.SendMessageCommand) error {
			// Echo like the real service so the sender sees the message
			_ = cmd.Reply.Consume(ctx, event.MessageDelivered{
				ID:             uuid.New(),
				ConversationID: cmd.ConversationID,
				FromUserID:     cmd.SenderID,
				FromUsername:   cmd.SenderName,
				Body:           cmd.Body,
				At:             time.Now().UTC(),
			})
			dispatched <- cmd
			return nil
		})

	done := make(chan struct{})
	go func() {
		defer close(done)
		relay.HandleConn(context.Background(), socket)
	}()

	socket.send(t, map[string]string{"type": "connect", "token": token(t, userID, "alice")})
	req.Eventually(func() bool { return registry.IsOnline(userID) }, time.Second, 5*time.Millisecond)

	// When an authenticated peer sends a message
	socket.send(t, map[string]string{
		"type": "message", "conversationId": conversationID,
		"toUserId": bob, "body": "hello",
	})

	// Then the command carries the token's identity, not anything client-sent
	var cmd services.SendMessageCommand
	select {
	case cmd = <-dispatched:
	case <-time.After(time.Second):
		req.Fail("message was not dispatched")
	}
	req.Equal(userID, cmd.SenderID)
	req.Equal("alice", cmd.SenderName)
	req.Equal(conversationID, cmd.ConversationID)
	req.Equal(bob, cmd.ToUserID)

	// And the echo reaches the wire
	req.Eventually(func() bool {
		for _, kind := range socket.writtenTypes() {
			if kind == "message" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
	req.Equal(uint64(1), stats.Snapshot().MessagesRelayed)

	close(socket.inbound)
	<-done
}

func TestRelay_Duplicate_Connect_Ignored(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := runtime.NewRegistry()
	relay, _ := testRelay(t, registry, mocks.NewMockIChatService(ctrl))
	socket := newFakeSocket()
	userID := uuid.NewString()

	done := make(chan struct{})
	go func() {
		defer close(done)
		relay.HandleConn(context.Background(), socket)
	}()

	socket.send(t, map[string]string{"type": "connect", "token": token(t, userID, "alice")})
	req.Eventually(func() bool { return registry.IsOnline(userID) }, time.Second, 5*time.Millisecond)

	// When a second handshake arrives on the live connection
	socket.send(t, map[string]string{"type": "connect", "token": token(t, userID, "alice")})

	// Then the connection survives and exactly one acknowledgement was sent
	time.Sleep(20 * time.Millisecond)
	req.True(registry.IsOnline(userID))
	acks := 0
	for _, kind := range socket.writtenTypes() {
		if kind == "connected" {
			acks++
		}
	}
	req.Equal(1, acks)

	close(socket.inbound)
	<-done
	req.False(registry.IsOnline(userID))
}

func TestRelay_Keepalive_Pings(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := runtime.NewRegistry()
	stats := observability.NewStats()
	relay := NewRelay(
		logs.GetLoggerFromLevel(slog.LevelDebug),
		registry, mocks.NewMockIChatService(ctrl), stats, testSecret,
		Config{
			ConnectionBufferSize: 16,
			PingInterval:         5 * time.Millisecond,
			PongTimeout:          time.Hour,
			WriteTimeout:         time.Second,
			PersistTimeout:       time.Second,
			MaxBodyLength:        4096,
		},
	)
	socket := newFakeSocket()

	done := make(chan struct{})
	go func() {
		defer close(done)
		relay.HandleConn(context.Background(), socket)
	}()

	// Pings flow even before authentication
	req.Eventually(func() bool {
		socket.mu.Lock()
		defer socket.mu.Unlock()
		return socket.pings >= 2
	}, time.Second, 5*time.Millisecond)

	close(socket.inbound)
	<-done
}

func TestRelay_Unknown_Envelope_Closes(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := runtime.NewRegistry()
	relay, _ := testRelay(t, registry, mocks.NewMockIChatService(ctrl))
	socket := newFakeSocket()

	done := make(chan struct{})
	go func() {
		defer close(done)
		relay.HandleConn(context.Background(), socket)
	}()

	socket.send(t, map[string]string{"type": "subscribe"})

	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("connection should have closed")
	}
}

func TestRelay_Reconnect_Closes_Stale_Connection(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := runtime.NewRegistry()
	relay, _ := testRelay(t, registry, mocks.NewMockIChatService(ctrl))
	userID := uuid.NewString()

	first := newFakeSocket()
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		relay.HandleConn(context.Background(), first)
	}()
	first.send(t, map[string]string{"type": "connect", "token": token(t, userID, "alice")})
	req.Eventually(func() bool { return registry.IsOnline(userID) }, time.Second, 5*time.Millisecond)

	// When the same user reconnects on a fresh connection
	second := newFakeSocket()
	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		relay.HandleConn(context.Background(), second)
	}()
	second.send(t, map[string]string{"type": "connect", "token": token(t, userID, "alice")})

	// Then the stale connection is torn down while the user stays online
	select {
	case <-firstDone:
	case <-time.After(time.Second):
		req.Fail("stale connection should have been closed")
	}
	req.True(registry.IsOnline(userID))

	close(second.inbound)
	<-secondDone
	req.False(registry.IsOnline(userID))
}
