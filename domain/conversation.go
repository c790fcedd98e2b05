package domain

import (
	"strings"
	"time"
)

// Conversation is the logical channel grouping messages exchanged between
// a fixed pair of members. The schema tolerates more than two members,
// the resolver never creates more than two.
type Conversation struct {
	ID        string
	PairKey   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Membership associates one user with one conversation.
type Membership struct {
	ConversationID string
	UserID         string
	JoinedAt       time.Time
}

// PairKey canonicalizes an unordered pair of user ids into a single key,
// so both sides of a conversation resolve to the same identity regardless
// of who asks first. Storage holds a uniqueness constraint on it.
func PairKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + ":" + b
}
