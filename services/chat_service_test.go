package services_test

import (
	"context"
	"testing"

	"pairchat/domain"
	"pairchat/domain/event"
	"pairchat/errors"
	"pairchat/mocks"
	"pairchat/moderation"
	"pairchat/services"
	"pairchat/sink"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestChatService_SendMessage_Recipient_Online(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	mockMessages := mocks.NewMockIMessageRepository(ctrl)
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	recipientSink := mocks.NewMockEventSink(ctrl)
	senderSink := mocks.NewMockEventSink(ctrl)
	service := services.NewChatService(mockMessages, mockRegistry, nil)

	conversationID := uuid.NewString()
	alice, bob := uuid.NewString(), uuid.NewString()

	// Given persistence succeeds
	var stored domain.StoredMessage
	mockMessages.EXPECT().
		StoreMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, m domain.StoredMessage) error {
			stored = m
			return nil
		})
	// And the recipient has a live connection
	mockRegistry.EXPECT().Get(bob).Return(recipientSink, true)

	// Then both the recipient and the sender hear the delivered message
	recipientSink.EXPECT().
		Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e event.DomainEvent) error {
			delivered, ok := e.(event.MessageDelivered)
			req.True(ok)
			req.Equal("hello bob", delivered.Body)
			req.Equal(alice, delivered.FromUserID)
			return nil
		})
	senderSink.EXPECT().
		Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e event.DomainEvent) error {
			_, ok := e.(event.MessageDelivered)
			req.True(ok)
			return nil
		})

	// When a message is sent
	err := service.SendMessage(context.Background(), services.SendMessageCommand{
		ConversationID: conversationID,
		SenderID:       alice,
		SenderName:     "alice",
		ToUserID:       bob,
		Body:           "hello bob",
		Reply:          senderSink,
	})

	req.NoError(err)
	req.Equal(conversationID, stored.ConversationID)
	req.Equal("hello bob", stored.Body)
	req.NotEqual(uuid.Nil, stored.ID)
	req.False(stored.CreatedAt.IsZero())
}

func TestChatService_SendMessage_Recipient_Offline(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	mockMessages := mocks.NewMockIMessageRepository(ctrl)
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	senderSink := mocks.NewMockEventSink(ctrl)
	service := services.NewChatService(mockMessages, mockRegistry, nil)
	bob := uuid.NewString()

	mockMessages.EXPECT().StoreMessage(gomock.Any(), gomock.Any()).Return(nil)
	// Given bob has no live connection
	mockRegistry.EXPECT().Get(bob).Return(nil, false)
	// Then only the sender's echo happens; history will serve bob later
	senderSink.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(nil)

	err := service.SendMessage(context.Background(), services.SendMessageCommand{
		ConversationID: uuid.NewString(),
		SenderID:       uuid.NewString(),
		SenderName:     "alice",
		ToUserID:       bob,
		Body:           "are you there",
		Reply:          senderSink,
	})

	req.NoError(err)
}

func TestChatService_SendMessage_Persist_Failure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	mockMessages := mocks.NewMockIMessageRepository(ctrl)
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	senderSink := mocks.NewMockEventSink(ctrl)
	service := services.NewChatService(mockMessages, mockRegistry, nil)
	conversationID := uuid.NewString()

	// Given the store rejects the write
	mockMessages.EXPECT().
		StoreMessage(gomock.Any(), gomock.Any()).
		Return(errors.ErrPersistence)

	// Then the sender gets an explicit failure and nothing reaches the
	// recipient (no registry lookup at all)
	senderSink.EXPECT().
		Consume(gomock.Any(), event.DeliveryFailure{ConversationID: conversationID}).
		Return(nil)

	err := service.SendMessage(context.Background(), services.SendMessageCommand{
		ConversationID: conversationID,
		SenderID:       uuid.NewString(),
		SenderName:     "alice",
		ToUserID:       uuid.NewString(),
		Body:           "lost",
		Reply:          senderSink,
	})

	req.ErrorIs(err, errors.ErrPersistence)
}

func TestChatService_SendMessage_Echo_Survives_Spent_Deadline(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	mockMessages := mocks.NewMockIMessageRepository(ctrl)
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	senderSink := sink.NewChannelSink(4)
	service := services.NewChatService(mockMessages, mockRegistry, nil)
	bob := uuid.NewString()

	ctx, cancel := context.WithCancel(context.Background())

	// Given the write consumes the whole deadline budget
	mockMessages.EXPECT().
		StoreMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.StoredMessage) error {
			cancel()
			return nil
		})
	mockRegistry.EXPECT().Get(bob).Return(nil, false)

	err := service.SendMessage(ctx, services.SendMessageCommand{
		ConversationID: uuid.NewString(),
		SenderID:       uuid.NewString(),
		SenderName:     "alice",
		ToUserID:       bob,
		Body:           "made it to disk",
		Reply:          senderSink,
	})

	// Then the persisted message still echoes back to the sender
	req.NoError(err)
	select {
	case e := <-senderSink.Events:
		_, ok := e.(event.MessageDelivered)
		req.True(ok)
	default:
		req.Fail("echo was not enqueued")
	}
}

func TestChatService_SendMessage_Censors_Body(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	mockMessages := mocks.NewMockIMessageRepository(ctrl)
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	senderSink := mocks.NewMockEventSink(ctrl)
	moderator, err := moderation.NewModerator([]string{"badword"}, '*')
	req.NoError(err)
	service := services.NewChatService(mockMessages, mockRegistry, moderator)
	bob := uuid.NewString()

	// Then the stored and delivered body is the censored one
	mockMessages.EXPECT().
		StoreMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, m domain.StoredMessage) error {
			req.NotContains(m.Body, "badword")
			return nil
		})
	mockRegistry.EXPECT().Get(bob).Return(nil, false)
	senderSink.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(nil)

	err = service.SendMessage(context.Background(), services.SendMessageCommand{
		ConversationID: uuid.NewString(),
		SenderID:       uuid.NewString(),
		SenderName:     "alice",
		ToUserID:       bob,
		Body:           "this badword stays out",
		Reply:          senderSink,
	})

	req.NoError(err)
}

func TestChatService_GetMessages(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	mockMessages := mocks.NewMockIMessageRepository(ctrl)
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	service := services.NewChatService(mockMessages, mockRegistry, nil)
	conversationID := uuid.NewString()

	history := []domain.StoredMessage{
		{ID: uuid.New(), ConversationID: conversationID, Body: "first"},
		{ID: uuid.New(), ConversationID: conversationID, Body: "second"},
	}
	mockMessages.EXPECT().
		ListMessages(gomock.Any(), conversationID).
		Return(history, nil)

	got, err := service.GetMessages(context.Background(), conversationID)

	req.NoError(err)
	req.Equal(history, got)
}
