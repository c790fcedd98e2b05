//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"time"

	"pairchat/contract"
	"pairchat/domain"
	"pairchat/domain/event"
	"pairchat/moderation"
	"pairchat/repositories"

	"github.com/google/uuid"
)

// SendMessageCommand is one inbound message envelope, already authenticated.
// Reply is the sending connection's sink; every outcome is reported there.
type SendMessageCommand struct {
	ConversationID string
	SenderID       string
	SenderName     string
	ToUserID       string
	Body           string
	Reply          contract.EventSink
}

type IChatService interface {
	SendMessage(ctx context.Context, cmd SendMessageCommand) error
	// GetMessages returns a conversation's history ordered by creation time
	// ascending.
	GetMessages(ctx context.Context, conversationID string) ([]domain.StoredMessage, error)
}

type ChatService struct {
	messages  repositories.IMessageRepository
	registry  contract.IRegistry
	moderator *moderation.Moderator
}

func NewChatService(messages repositories.IMessageRepository, registry contract.IRegistry,
	moderator *moderation.Moderator) *ChatService {
	return &ChatService{messages: messages, registry: registry, moderator: moderator}
}

// SendMessage persists the message with a fresh id and a server clock
// timestamp, then delivers it to the recipient's live connection when one is
// registered and unconditionally echoes it back to the sender as the
// confirmation. A persistence failure never reaches the recipient: the
// sender gets an explicit failure event instead of a silent drop.
//
// Membership is deliberately not validated here; the conversation id and
// recipient are taken as addressed, matching the persistence contract.
func (s *ChatService) SendMessage(ctx context.Context, cmd SendMessageCommand) error {
	message := domain.StoredMessage{
		ID:             uuid.New(),
		ConversationID: cmd.ConversationID,
		SenderID:       cmd.SenderID,
		SenderName:     cmd.SenderName,
		Body:           s.moderator.Censor(cmd.Body),
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.messages.StoreMessage(ctx, message); err != nil {
		_ = cmd.Reply.Consume(ctx, event.DeliveryFailure{ConversationID: cmd.ConversationID})
		return err
	}

	delivered := event.MessageDelivered{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		FromUserID:     message.SenderID,
		FromUsername:   message.SenderName,
		Body:           message.Body,
		At:             message.CreatedAt,
	}

	// The caller's deadline bounds the storage write; once the message is on
	// record the delivery and echo must not be lost to whatever budget the
	// write left over.
	deliverCtx := context.WithoutCancel(ctx)
	if sink, ok := s.registry.Get(cmd.ToUserID); ok {
		_ = sink.Consume(deliverCtx, delivered)
	}
	_ = cmd.Reply.Consume(deliverCtx, delivered)

	return nil
}

func (s *ChatService) GetMessages(ctx context.Context, conversationID string) ([]domain.StoredMessage, error) {
	return s.messages.ListMessages(ctx, conversationID)
}
