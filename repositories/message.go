//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pairchat/domain"
	"pairchat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	StoreMessage(ctx context.Context, message domain.StoredMessage) error
	// ListMessages returns every message of a conversation ordered by
	// creation time ascending.
	ListMessages(ctx context.Context, conversationID string) ([]domain.StoredMessage, error)
}

// MessageRepository is the BadgerDB implementation. The sender's username is
// denormalized into the record so history reads need no second lookup.
type MessageRepository struct {
	db *badger.DB
}

func NewMessageRepository(db *badger.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

type diskMessage struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"from_user_id"`
	SenderName     string `json:"from_username"`
	Body           string `json:"body"`
	CreatedAt      int64  `json:"created_at"`
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{conversation_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two
//     messages arrive at the same nanosecond.
func (m *MessageRepository) StoreMessage(_ context.Context, message domain.StoredMessage) error {
	key := fmt.Sprintf("msg:%s:%019d:%s",
		message.ConversationID,
		message.CreatedAt.UnixNano(),
		message.ID,
	)
	data, err := json.Marshal(fromStoredMessage(message))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return nil
}

// ListMessages retrieves messages for a conversation using a prefix scan.
// Thanks to the padded timestamp in the key, messages come back naturally
// sorted by creation time ascending.
func (m *MessageRepository) ListMessages(_ context.Context, conversationID string) ([]domain.StoredMessage, error) {
	var messages []domain.StoredMessage

	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte("msg:" + conversationID + ":")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var disk diskMessage
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &disk)
			}); err != nil {
				return err
			}
			message, err := toStoredMessage(disk)
			if err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	return messages, nil
}

func fromStoredMessage(message domain.StoredMessage) diskMessage {
	return diskMessage{
		ID:             message.ID.String(),
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		SenderName:     message.SenderName,
		Body:           message.Body,
		CreatedAt:      message.CreatedAt.Unix(),
	}
}

func toStoredMessage(disk diskMessage) (domain.StoredMessage, error) {
	parsedID, err := uuid.Parse(disk.ID)
	if err != nil {
		return domain.StoredMessage{}, err
	}
	return domain.StoredMessage{
		ID:             parsedID,
		ConversationID: disk.ConversationID,
		SenderID:       disk.SenderID,
		SenderName:     disk.SenderName,
		Body:           disk.Body,
		CreatedAt:      time.Unix(disk.CreatedAt, 0).UTC(),
	}, nil
}
