package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"pairchat/domain"
	"pairchat/errors"

	"github.com/jackc/pgx/v5/pgconn"
)

type ConversationRepository struct {
	db *sql.DB
}

func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) ConversationIDsForUser(ctx context.Context, userID string) ([]string, error) {
	query :=
		`SELECT conversation_id FROM conversation_members
		 WHERE user_id = $1
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	return ids, nil
}

func (r *ConversationRepository) IsMember(ctx context.Context, conversationID, userID string) (bool, error) {
	query :=
		`SELECT 1 FROM conversation_members
		 WHERE conversation_id = $1 AND user_id = $2
		 `

	var one int
	err := r.db.QueryRowContext(ctx, query, conversationID, userID).Scan(&one)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	return true, nil
}

// CreateConversation inserts the conversation and both membership rows in one
// transaction. The unique index on pair_key is the storage-level guard
// against two concurrent resolvers creating the same pair twice.
func (r *ConversationRepository) CreateConversation(ctx context.Context, conv domain.Conversation,
	memberA, memberB string, joinedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO conversations (id, pair_key, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)
		 `,
		conv.ID, conv.PairKey, conv.CreatedAt, conv.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return errors.ErrPairExists
		}
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	// ON CONFLICT collapses a self-pair (memberA == memberB) onto a single
	// membership row instead of tripping the primary key.
	for _, userID := range []string{memberA, memberB} {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO conversation_members (conversation_id, user_id, joined_at)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (conversation_id, user_id) DO NOTHING
			 `,
			conv.ID, userID, joinedAt)
		if err != nil {
			return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return nil
}

func (r *ConversationRepository) FindByPairKey(ctx context.Context, pairKey string) (string, error) {
	query :=
		`SELECT id FROM conversations
		 WHERE pair_key = $1
		 `

	var id string
	err := r.db.QueryRowContext(ctx, query, pairKey).Scan(&id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return "", errors.ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	return id, nil
}
