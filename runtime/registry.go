package runtime

import (
	"context"
	"sync"
	"time"

	"pairchat/contract"
	"pairchat/domain/event"
)

// Session is one authenticated live connection.
type Session struct {
	Sink        contract.EventSink
	Username    string
	ConnectedAt time.Time
}

// Registry maps each online user to their live connection. It replaces the
// original ambient process-wide table with an explicitly owned object that
// is handed to the relay, so lifetime and locking are visible.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Session // map userID -> live session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]Session),
	}
}

// Register installs a session for userID. A reconnecting user's stale handle
// is closed before the new one is installed, so the old connection's write
// side is released rather than leaked. The new sink receives its
// acknowledgement first, then every registered connection (the subject
// included) hears the online transition. All of it is one critical section:
// no broadcast can run against a half-updated table, and reconnection emits
// exactly one presence transition.
func (r *Registry) Register(userID, username string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prior, ok := r.sessions[userID]; ok {
		prior.Sink.Close()
	}
	r.sessions[userID] = Session{Sink: sink, Username: username, ConnectedAt: time.Now()}

	_ = sink.Consume(context.Background(), event.Connected{UserID: userID})
	r.broadcastLocked(event.PresenceChanged{UserID: userID, Online: true})
}

// Unregister removes userID's session only if sink is still the installed
// handle. A connection that was replaced by a reconnect therefore cannot
// evict its successor during teardown. When a removal happens, the offline
// transition is announced inside the same critical section.
func (r *Registry) Unregister(userID string, sink contract.EventSink) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.sessions[userID]
	if !ok || current.Sink != sink {
		return false
	}
	delete(r.sessions, userID)
	r.broadcastLocked(event.PresenceChanged{UserID: userID, Online: false})
	return true
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.sessions[userID]
	return ok
}

func (r *Registry) Get(userID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[userID]
	if !ok {
		return nil, false
	}
	return session.Sink, true
}

// BroadcastPresence announces a presence state to every registered
// connection, in unspecified order.
func (r *Registry) BroadcastPresence(userID string, online bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	r.broadcastLocked(event.PresenceChanged{UserID: userID, Online: online})
}

// Count reports how many users are currently online.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

// broadcastLocked requires the caller to hold at least a read lock.
// Sinks never block, so holding the lock across the fan-out is bounded.
func (r *Registry) broadcastLocked(e event.DomainEvent) {
	for _, session := range r.sessions {
		_ = session.Sink.Consume(context.Background(), e)
	}
}
