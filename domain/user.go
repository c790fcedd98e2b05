// Package domain contains core concepts of the pairchat system.
// This file defines User entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// User is a registered account. PasswordHash is an opaque credential,
// only ever interpreted by the auth package.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	LastSeen     time.Time
}

// Peer is what another user is allowed to see about a User,
// enriched with live presence from the session registry.
type Peer struct {
	ID       string
	Username string
	Email    string
	LastSeen time.Time
	Online   bool
}
