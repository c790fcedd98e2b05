//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"pairchat/domain"
	"pairchat/errors"

	"github.com/dgraph-io/badger/v4"
)

type IConversationRepository interface {
	// ConversationIDsForUser returns the ids of every conversation the user
	// belongs to, in storage order (unspecified).
	ConversationIDsForUser(ctx context.Context, userID string) ([]string, error)
	IsMember(ctx context.Context, conversationID, userID string) (bool, error)
	// CreateConversation inserts the conversation and one membership row per
	// member, all sharing joinedAt. The canonical pair key is unique at the
	// storage level; a duplicate fails with ErrPairExists.
	CreateConversation(ctx context.Context, conv domain.Conversation, memberA, memberB string, joinedAt time.Time) error
	// FindByPairKey resolves a canonical pair key to a conversation id,
	// or ErrNotFound.
	FindByPairKey(ctx context.Context, pairKey string) (string, error)
}

// ConversationRepository is the BadgerDB implementation. Key layout:
//
//	conv:{id}                 -> conversation record
//	pair:{min}:{max}          -> conversation id (uniqueness anchor)
//	member:{convID}:{userID}  -> joined-at unix seconds
//	userconv:{userID}:{convID} -> empty (per-user index)
type ConversationRepository struct {
	db *badger.DB
}

func NewConversationRepository(db *badger.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

type diskConversation struct {
	ID        string `json:"id"`
	PairKey   string `json:"pair_key"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

func convKey(id string) []byte  { return []byte("conv:" + id) }
func pairKey(key string) []byte { return []byte("pair:" + key) }

func memberKey(convID, userID string) []byte {
	return []byte("member:" + convID + ":" + userID)
}

func userConvPrefix(userID string) []byte { return []byte("userconv:" + userID + ":") }

func (c *ConversationRepository) ConversationIDsForUser(_ context.Context, userID string) ([]string, error) {
	var ids []string

	err := c.db.View(func(txn *badger.Txn) error {
		prefix := userConvPrefix(userID)
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	return ids, nil
}

func (c *ConversationRepository) IsMember(_ context.Context, conversationID, userID string) (bool, error) {
	var member bool

	err := c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(memberKey(conversationID, userID))
		if err == nil {
			member = true
			return nil
		}
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	return member, nil
}

func (c *ConversationRepository) CreateConversation(_ context.Context, conv domain.Conversation,
	memberA, memberB string, joinedAt time.Time) error {
	data, err := json.Marshal(diskConversation{
		ID:        conv.ID,
		PairKey:   conv.PairKey,
		CreatedAt: conv.CreatedAt.Unix(),
		UpdatedAt: conv.UpdatedAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	joined := []byte(fmt.Sprintf("%d", joinedAt.Unix()))

	return c.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(pairKey(conv.PairKey)); err == nil {
			return errors.ErrPairExists
		}
		if err := txn.Set(pairKey(conv.PairKey), []byte(conv.ID)); err != nil {
			return err
		}
		if err := txn.Set(convKey(conv.ID), data); err != nil {
			return err
		}
		for _, userID := range []string{memberA, memberB} {
			if err := txn.Set(memberKey(conv.ID, userID), joined); err != nil {
				return err
			}
			if err := txn.Set(append(userConvPrefix(userID), conv.ID...), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *ConversationRepository) FindByPairKey(_ context.Context, key string) (string, error) {
	var id string

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pairKey(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return "", errors.ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	return id, nil
}
