package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"pairchat/infrastructure/http"
	"pairchat/infrastructure/ws"
	"pairchat/internal"
	"pairchat/moderation"
	"pairchat/observability"
	"pairchat/repositories"
	"pairchat/repositories/postgres"
	"pairchat/runtime"
	"pairchat/services"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

type stores struct {
	users         repositories.IUserRepository
	conversations repositories.IConversationRepository
	messages      repositories.IMessageRepository
	close         func() error
}

// openStores picks the persistence backend: Postgres when DATABASE_DSN is
// set, the embedded Badger store otherwise.
func openStores(cfg internal.Config, log *slog.Logger) (stores, error) {
	if cfg.DatabaseDSN != "" {
		manager, err := postgres.NewManager(cfg.DatabaseDSN)
		if err != nil {
			return stores{}, fmt.Errorf("postgres opening failed: %w", err)
		}
		log.Info("Using Postgres storage")
		return stores{
			users:         manager.Users(),
			conversations: manager.Conversations(),
			messages:      manager.Messages(),
			close:         manager.Close,
		}, nil
	}

	db, err := badger.Open(badger.DefaultOptions(cfg.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return stores{}, fmt.Errorf("database opening failed: %w", err)
	}
	log.Info("Using embedded Badger storage", "path", cfg.BadgerFilepath)
	return stores{
		users:         repositories.NewUserRepository(db),
		conversations: repositories.NewConversationRepository(db),
		messages:      repositories.NewMessageRepository(db),
		close:         db.Close,
	}, nil
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so deferred cleanup always executes.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var cfg internal.Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)

	// 2. Storage
	st, err := openStores(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("Closing storage...")
		_ = st.close()
	}()

	// 3. Moderation
	replacement, err := internal.CharacterRune(cfg.CharReplacement)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	var words []string
	if cfg.CensoredWords != "" {
		words = strings.Split(cfg.CensoredWords, ",")
	}
	moderator, err := moderation.NewModerator(words, replacement)
	if err != nil {
		return fmt.Errorf("moderation setup failed: %w", err)
	}

	// 4. Registry & Services
	secret := []byte(cfg.JWTSecret)
	registry := runtime.NewRegistry()
	stats := observability.NewStats()

	authService := services.NewAuthService(st.users, secret, cfg.AuthTokenDuration)
	userService := services.NewUserService(st.users, registry)
	conversationService := services.NewConversationService(st.conversations)
	chatService := services.NewChatService(st.messages, registry, moderator)

	// 5. Realtime relay & HTTP surface
	relay := ws.NewRelay(log, registry, chatService, stats, secret, ws.Config{
		ConnectionBufferSize: cfg.ConnectionBufferSize,
		PingInterval:         cfg.PingInterval,
		PongTimeout:          cfg.PongTimeout,
		WriteTimeout:         cfg.WriteTimeout,
		PersistTimeout:       cfg.PersistTimeout,
		MaxBodyLength:        cfg.MaxContentLength,
	})

	server := http.NewServer(log, secret, http.Handlers{
		Auth:          http.NewAuthHandler(authService),
		Users:         http.NewUserHandler(userService),
		Conversations: http.NewConversationHandler(conversationService),
		Messages:      http.NewMessageHandler(chatService),
		Monitor:       http.NewMonitorHandler(registry, stats),
		WS:            http.NewWSHandler(log, relay),
	})

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Serve(ctx, cfg.Addr()); err != nil {
		return fmt.Errorf("http server error: %w", err)
	}

	log.Info("Program stopped cleanly")
	return nil
}
