//go:generate go run go.uber.org/mock/mockgen -source=conversation_service.go -destination=../mocks/mock_conversation_service.go -package=mocks
package services

import (
	"context"
	stderrors "errors"
	"time"

	"pairchat/domain"
	"pairchat/errors"
	"pairchat/repositories"

	"github.com/google/uuid"
)

type IConversationService interface {
	// Resolve maps the unordered pair (requesterID, otherID) to their shared
	// conversation, creating it on first contact. Symmetric: both sides
	// resolve to the same id.
	Resolve(ctx context.Context, requesterID, otherID string) (string, error)
}

type ConversationService struct {
	conversations repositories.IConversationRepository
	locks         *pairLocks
}

func NewConversationService(repo repositories.IConversationRepository) *ConversationService {
	return &ConversationService{conversations: repo, locks: newPairLocks()}
}

// Resolve walks the requester's conversations in storage order and returns
// the first one the other user also belongs to. When none matches, it
// creates a fresh conversation with both memberships sharing one join
// timestamp. No existence check is made on otherID.
//
// Two guards close the create race (one resolve initiated by each side):
// the per-pair lock serializes in-process callers, and the storage layer's
// unique pair key catches anything the lock cannot see. A lost race falls
// back to the winner's conversation.
func (s *ConversationService) Resolve(ctx context.Context, requesterID, otherID string) (string, error) {
	key := domain.PairKey(requesterID, otherID)
	unlock := s.locks.Lock(key)
	defer unlock()

	ids, err := s.conversations.ConversationIDsForUser(ctx, requesterID)
	if err != nil {
		return "", err
	}
	for _, id := range ids {
		member, err := s.conversations.IsMember(ctx, id, otherID)
		if err != nil {
			return "", err
		}
		if member {
			return id, nil
		}
	}

	now := time.Now().UTC()
	conv := domain.Conversation{
		ID:        uuid.NewString(),
		PairKey:   key,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.conversations.CreateConversation(ctx, conv, requesterID, otherID, now)
	if err != nil {
		if stderrors.Is(err, errors.ErrPairExists) {
			return s.conversations.FindByPairKey(ctx, key)
		}
		return "", err
	}

	return conv.ID, nil
}
