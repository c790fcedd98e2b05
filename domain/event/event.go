package event

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is one unit of realtime traffic addressed to a connection.
// Kind doubles as the envelope type tag on the wire.
type DomainEvent interface {
	Kind() string
}

// Connected acknowledges a successful authentication handshake.
type Connected struct {
	UserID string
}

func (Connected) Kind() string { return "connected" }

// PresenceChanged announces that a user came online or went offline.
type PresenceChanged struct {
	UserID string
	Online bool
}

func (PresenceChanged) Kind() string { return "user_status" }

// MessageDelivered carries one persisted message to the recipient and,
// as a confirmation, back to the sender.
type MessageDelivered struct {
	ID             uuid.UUID
	ConversationID string
	FromUserID     string
	FromUsername   string
	Body           string
	At             time.Time
}

func (MessageDelivered) Kind() string { return "message" }

// DeliveryFailure tells the sender that a message never reached storage.
// Without it a persistence outage would drop messages silently.
type DeliveryFailure struct {
	ConversationID string
}

func (DeliveryFailure) Kind() string { return "send_failed" }
