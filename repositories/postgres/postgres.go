// Package postgres holds the durable PersistenceStore implementations used
// when a database DSN is configured. Migrations are embedded and applied
// with goose at startup.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Manager owns the connection pool and hands out the per-entity repositories.
type Manager struct {
	db            *sql.DB
	users         *UserRepository
	conversations *ConversationRepository
	messages      *MessageRepository
}

func NewManager(dsn string) (*Manager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	m := &Manager{
		db:            db,
		users:         NewUserRepository(db),
		conversations: NewConversationRepository(db),
		messages:      NewMessageRepository(db),
	}

	if err := m.RunMigrations(context.Background()); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}

func (m *Manager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, m.db, "migrations")
}

func (m *Manager) Users() *UserRepository                 { return m.users }
func (m *Manager) Conversations() *ConversationRepository { return m.conversations }
func (m *Manager) Messages() *MessageRepository           { return m.messages }

func (m *Manager) Close() error { return m.db.Close() }
