//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"

	"pairchat/domain/event"
)

// EventSink is one live connection's inbox. Consume must never block the
// caller indefinitely; a sink that cannot keep up drops rather than stalls
// the registry. Close releases the connection's write side and is idempotent.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
	Close()
}

// IRegistry is the process-wide presence table: userID -> live connection.
// It is the sole source of presence truth. Every method executes as one
// critical section, so a broadcast can never observe a half-updated table.
type IRegistry interface {
	// Register installs the session, closing any stale handle for the same
	// user first, acknowledges the new sink, and announces the user online.
	// Exactly one presence transition is emitted per connect.
	Register(userID, username string, sink EventSink)
	// Unregister removes the session only if sink still owns it, so a
	// replaced connection's teardown cannot evict its successor.
	// It reports whether a removal (and offline announcement) happened.
	Unregister(userID string, sink EventSink) bool
	IsOnline(userID string) bool
	Get(userID string) (EventSink, bool)
	// BroadcastPresence sends a presence event to every registered
	// connection, including the subject's own if present.
	BroadcastPresence(userID string, online bool)
	Count() int
}
