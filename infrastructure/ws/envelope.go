package ws

import (
	"fmt"

	"pairchat/domain/event"
	"pairchat/errors"

	"github.com/go-playground/validator/v10"
)

const (
	typeConnect = "connect"
	typeMessage = "message"
)

var validate = validator.New()

// Inbound is one client envelope. The shape is validated per type before
// any side effect happens.
type Inbound struct {
	Type           string `json:"type" validate:"required"`
	Token          string `json:"token,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	ToUserID       string `json:"toUserId,omitempty"`
	Body           string `json:"body,omitempty"`
}

type connectFields struct {
	Token string `validate:"required"`
}

// ValidateConnect checks the handshake envelope shape.
func ValidateConnect(env Inbound) error {
	if err := validate.Struct(connectFields{Token: env.Token}); err != nil {
		return fmt.Errorf("%w: connect envelope: %v", errors.ErrValidation, err)
	}
	return nil
}

// ValidateMessage checks the message envelope shape, including the body
// length ceiling.
func ValidateMessage(env Inbound, maxBodyLength int) error {
	if env.ConversationID == "" || env.ToUserID == "" || env.Body == "" {
		return fmt.Errorf("%w: message envelope: missing fields", errors.ErrValidation)
	}
	if len(env.Body) > maxBodyLength {
		return fmt.Errorf("%w: message envelope: body exceeds %d bytes", errors.ErrValidation, maxBodyLength)
	}
	return nil
}

type connectedEnvelope struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

type statusEnvelope struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Online bool   `json:"online"`
}

type messageEnvelope struct {
	Type           string `json:"type"`
	ID             string `json:"id"`
	ConversationID string `json:"conversationId"`
	FromUserID     string `json:"fromUserId"`
	FromUsername   string `json:"fromUsername"`
	Body           string `json:"body"`
	CreatedAt      int64  `json:"createdAt"`
}

type sendFailedEnvelope struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
}

// Outbound converts a domain event into its wire envelope.
func Outbound(e event.DomainEvent) any {
	switch evt := e.(type) {
	case event.Connected:
		return connectedEnvelope{Type: evt.Kind(), UserID: evt.UserID}
	case event.PresenceChanged:
		return statusEnvelope{Type: evt.Kind(), UserID: evt.UserID, Online: evt.Online}
	case event.MessageDelivered:
		return messageEnvelope{
			Type:           evt.Kind(),
			ID:             evt.ID.String(),
			ConversationID: evt.ConversationID,
			FromUserID:     evt.FromUserID,
			FromUsername:   evt.FromUsername,
			Body:           evt.Body,
			CreatedAt:      evt.At.Unix(),
		}
	case event.DeliveryFailure:
		return sendFailedEnvelope{Type: evt.Kind(), ConversationID: evt.ConversationID}
	default:
		return nil
	}
}
