package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"pairchat/domain"
	"pairchat/errors"
)

type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) StoreMessage(ctx context.Context, message domain.StoredMessage) error {
	query :=
		`INSERT INTO messages (id, conversation_id, from_user_id, body, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 `

	_, err := r.db.ExecContext(ctx, query,
		message.ID.String(), message.ConversationID, message.SenderID, message.Body, message.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return nil
}

func (r *MessageRepository) ListMessages(ctx context.Context, conversationID string) ([]domain.StoredMessage, error) {
	query :=
		`SELECT m.id, m.conversation_id, m.from_user_id, u.username, m.body, m.created_at
		 FROM messages m
		 JOIN users u ON u.id = m.from_user_id
		 WHERE m.conversation_id = $1
		 ORDER BY m.created_at
		 `

	rows, err := r.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	defer rows.Close()

	var messages []domain.StoredMessage
	for rows.Next() {
		var m domain.StoredMessage
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID,
			&m.SenderName, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	return messages, nil
}
