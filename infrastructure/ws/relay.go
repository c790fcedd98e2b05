package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"pairchat/auth"
	"pairchat/contract"
	"pairchat/observability"
	"pairchat/services"
	"pairchat/sink"

	"github.com/gorilla/websocket"
)

// socket is the subset of *websocket.Conn the relay drives. Tests substitute
// a scripted implementation.
type socket interface {
	ReadMessage() (int, []byte, error)
	WriteJSON(v any) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

var _ socket = (*websocket.Conn)(nil)

type connState int

const (
	stateUnauthenticated connState = iota
	stateAuthenticated
	stateClosed
)

// Config bounds the relay's timers and buffers.
type Config struct {
	// ConnectionBufferSize caps how many undelivered events a slow
	// connection may queue before drops start.
	ConnectionBufferSize int
	// PingInterval / PongTimeout implement the keepalive: a peer that stops
	// answering pings is disconnected instead of lingering online forever.
	PingInterval time.Duration
	PongTimeout  time.Duration
	WriteTimeout time.Duration
	// PersistTimeout bounds each storage write on the message path.
	PersistTimeout time.Duration
	MaxBodyLength  int
}

// Relay owns the lifecycle of every realtime connection: the authentication
// handshake, inbound envelope validation, persistence dispatch, recipient
// delivery and presence transitions.
type Relay struct {
	log         *slog.Logger
	registry    contract.IRegistry
	chatService services.IChatService
	stats       *observability.Stats
	secret      []byte
	cfg         Config
}

func NewRelay(log *slog.Logger, registry contract.IRegistry, chatService services.IChatService,
	stats *observability.Stats, secret []byte, cfg Config) *Relay {
	return &Relay{
		log:         log,
		registry:    registry,
		chatService: chatService,
		stats:       stats,
		secret:      secret,
		cfg:         cfg,
	}
}

// conn is one connection's state machine:
// Unauthenticated -> Authenticated -> Closed.
type conn struct {
	ws       socket
	sink     *sink.ChannelSink
	state    connState
	userID   string
	username string
}

// HandleConn runs a connection to completion. It blocks until the peer
// disconnects, violates the protocol, or stops answering pings.
func (r *Relay) HandleConn(ctx context.Context, ws socket) {
	r.stats.ConnectionOpened()
	defer r.stats.ConnectionClosed()

	c := &conn{
		ws:    ws,
		sink:  sink.NewChannelSink(r.cfg.ConnectionBufferSize),
		state: stateUnauthenticated,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go r.writePump(ctx, c)

	if err := r.readPump(ctx, c); err != nil {
		r.log.Debug("connection ended", "user_id", c.userID, "error", err)
	}

	// Teardown. Closing the sink wakes the write pump, which closes the
	// socket. A connection that never authenticated touches neither the
	// registry nor presence.
	c.state = stateClosed
	c.sink.Close()
	_ = c.ws.Close()

	if c.userID != "" {
		// Unregister is conditional on handle identity: if this connection
		// was replaced by a reconnect, the successor stays registered and
		// no offline transition is announced.
		if r.registry.Unregister(c.userID, c.sink) {
			r.log.Info("user disconnected", "user_id", c.userID, "username", c.username)
		}
	}
}

// readPump processes inbound envelopes sequentially, preserving the
// per-connection ordering guarantee. Any returned error is terminal for the
// connection (fail-closed); no error detail is sent to the peer.
func (r *Relay) readPump(ctx context.Context, c *conn) error {
	deadline := func() error {
		return c.ws.SetReadDeadline(time.Now().Add(r.cfg.PongTimeout))
	}
	if err := deadline(); err != nil {
		return err
	}
	c.ws.SetPongHandler(func(string) error { return deadline() })

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return err
		}

		var env Inbound
		if err := json.Unmarshal(data, &env); err != nil {
			return fmt.Errorf("malformed envelope: %w", err)
		}

		switch env.Type {
		case typeConnect:
			if err := r.handleConnect(ctx, c, env); err != nil {
				return err
			}
		case typeMessage:
			if err := r.handleMessage(ctx, c, env); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown envelope type %q", env.Type)
		}
	}
}

// handleConnect performs the authentication handshake. An invalid, missing
// or expired token closes the connection immediately with no detail sent to
// the peer. On success the session registry installs the connection,
// acknowledges it and announces the user online in one critical section.
func (r *Relay) handleConnect(_ context.Context, c *conn, env Inbound) error {
	if c.state == stateAuthenticated {
		// Repeated handshake on a live connection: ignored by contract.
		r.log.Warn("duplicate connect envelope ignored", "user_id", c.userID)
		return nil
	}

	if err := ValidateConnect(env); err != nil {
		r.stats.HandshakeFailed()
		return err
	}

	claims, err := auth.ValidateToken(env.Token, r.secret)
	if err != nil {
		r.stats.HandshakeFailed()
		return fmt.Errorf("handshake rejected: %w", err)
	}

	c.userID = claims.UserID
	c.username = claims.Username
	c.state = stateAuthenticated

	r.registry.Register(c.userID, c.username, c.sink)
	r.log.Info("user connected", "user_id", c.userID, "username", c.username)

	return nil
}

// handleMessage validates and dispatches one message envelope. A message
// before authentication is a protocol violation and closes the connection.
// A persistence failure is not terminal: the sender already received an
// explicit failure event from the chat service.
func (r *Relay) handleMessage(ctx context.Context, c *conn, env Inbound) error {
	if c.state != stateAuthenticated {
		return fmt.Errorf("message envelope before authentication")
	}

	if err := ValidateMessage(env, r.cfg.MaxBodyLength); err != nil {
		return err
	}

	persistCtx, cancel := context.WithTimeout(ctx, r.cfg.PersistTimeout)
	defer cancel()

	err := r.chatService.SendMessage(persistCtx, services.SendMessageCommand{
		ConversationID: env.ConversationID,
		SenderID:       c.userID,
		SenderName:     c.username,
		ToUserID:       env.ToUserID,
		Body:           env.Body,
		Reply:          c.sink,
	})
	if err != nil {
		r.stats.SendFailure()
		r.log.Error("message not persisted",
			"user_id", c.userID,
			"conversation_id", env.ConversationID,
			"error", err)
		return nil
	}

	r.stats.MessageRelayed()
	return nil
}

// writePump drains the sink into the socket and keeps the peer alive with
// periodic pings. It owns the socket's write side; when it returns it closes
// the socket, which unblocks the read pump.
func (r *Relay) writePump(ctx context.Context, c *conn) {
	ticker := time.NewTicker(r.cfg.PingInterval)
	defer ticker.Stop()
	defer func() { _ = c.ws.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.sink.Done():
			return
		case e := <-c.sink.Events:
			env := Outbound(e)
			if env == nil {
				continue
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(r.cfg.WriteTimeout))
			if err := c.ws.WriteJSON(env); err != nil {
				r.log.Debug("write failed, dropping connection", "user_id", c.userID, "error", err)
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil,
				time.Now().Add(r.cfg.WriteTimeout)); err != nil {
				return
			}
		}
	}
}
