// Package http exposes the REST surface and the websocket entry point.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Conversations *ConversationHandler
	Messages      *MessageHandler
	Monitor       *MonitorHandler
	WS            *WSHandler
}

type Server struct {
	log    *slog.Logger
	engine *gin.Engine
}

// NewServer wires the route table. Everything under /api except the auth
// endpoints requires a bearer token; the websocket endpoint authenticates
// in-band through its handshake envelope instead.
func NewServer(log *slog.Logger, secret []byte, h Handlers) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	api := engine.Group("/api")
	{
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.GET("/monitor", h.Monitor.Report)

		authed := api.Group("", RequireAuth(secret))
		{
			authed.GET("/users", h.Users.ListPeers)
			authed.GET("/conversations", h.Conversations.Resolve)
			authed.GET("/messages", h.Messages.History)
		}
	}

	engine.GET("/ws", h.WS.Serve)

	return &Server{log: log, engine: engine}
}

// Engine exposes the router for tests.
func (s *Server) Engine() http.Handler {
	return s.engine
}

// Serve listens on addr until ctx is canceled, then drains in-flight
// requests for up to five seconds. Live websocket sessions are closed by
// their own teardown path, not by the drain.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.Info("http server listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
