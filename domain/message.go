// Package domain contains core concepts of the pairchat system.
// This file defines Message events and related rules.
// Messages are immutable and validated by the domain.
package domain

import (
	"github.com/google/uuid"
	"time"
)

// Message represents an immutable chat event. CreatedAt is always assigned
// by the server clock, never taken from a client.
type Message struct {
	ID             uuid.UUID // unique identifier
	ConversationID string
	SenderID       string
	Body           string
	CreatedAt      time.Time
}

// StoredMessage is a Message joined with the sender's username,
// the shape history listings and delivery envelopes are built from.
type StoredMessage struct {
	ID             uuid.UUID
	ConversationID string
	SenderID       string
	SenderName     string
	Body           string
	CreatedAt      time.Time
}
