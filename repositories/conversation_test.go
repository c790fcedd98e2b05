package repositories

import (
	"context"
	"testing"
	"time"

	"pairchat/domain"
	"pairchat/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newConversation(a, b string) domain.Conversation {
	now := time.Now().UTC()
	return domain.Conversation{
		ID:        uuid.NewString(),
		PairKey:   domain.PairKey(a, b),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestConversationRepository_Create_And_Lookup(t *testing.T) {
	req := require.New(t)
	repo := NewConversationRepository(openTestDB(t))
	ctx := context.Background()
	alice, bob := uuid.NewString(), uuid.NewString()
	conv := newConversation(alice, bob)

	// When the conversation is created
	req.NoError(repo.CreateConversation(ctx, conv, alice, bob, conv.CreatedAt))

	// Then both members see it in their listings
	for _, userID := range []string{alice, bob} {
		ids, err := repo.ConversationIDsForUser(ctx, userID)
		req.NoError(err)
		req.Equal([]string{conv.ID}, ids)
	}

	// And membership checks hold for members only
	member, err := repo.IsMember(ctx, conv.ID, alice)
	req.NoError(err)
	req.True(member)
	member, err = repo.IsMember(ctx, conv.ID, uuid.NewString())
	req.NoError(err)
	req.False(member)

	// And the pair key resolves back to the conversation
	id, err := repo.FindByPairKey(ctx, conv.PairKey)
	req.NoError(err)
	req.Equal(conv.ID, id)
}

func TestConversationRepository_Duplicate_Pair_Rejected(t *testing.T) {
	req := require.New(t)
	repo := NewConversationRepository(openTestDB(t))
	ctx := context.Background()
	alice, bob := uuid.NewString(), uuid.NewString()

	first := newConversation(alice, bob)
	req.NoError(repo.CreateConversation(ctx, first, alice, bob, first.CreatedAt))

	// A second conversation for the same pair hits the uniqueness anchor,
	// whichever side initiates it
	second := newConversation(bob, alice)
	err := repo.CreateConversation(ctx, second, bob, alice, second.CreatedAt)
	req.ErrorIs(err, errors.ErrPairExists)

	// The winner is still the one on record
	id, err := repo.FindByPairKey(ctx, first.PairKey)
	req.NoError(err)
	req.Equal(first.ID, id)
}

func TestConversationRepository_Self_Pair(t *testing.T) {
	req := require.New(t)
	repo := NewConversationRepository(openTestDB(t))
	ctx := context.Background()
	alice := uuid.NewString()
	conv := newConversation(alice, alice)

	// A self conversation collapses onto a single membership
	req.NoError(repo.CreateConversation(ctx, conv, alice, alice, conv.CreatedAt))

	ids, err := repo.ConversationIDsForUser(ctx, alice)
	req.NoError(err)
	req.Equal([]string{conv.ID}, ids)

	member, err := repo.IsMember(ctx, conv.ID, alice)
	req.NoError(err)
	req.True(member)
}

func TestConversationRepository_FindByPairKey_Unknown(t *testing.T) {
	req := require.New(t)
	repo := NewConversationRepository(openTestDB(t))

	_, err := repo.FindByPairKey(context.Background(), domain.PairKey(uuid.NewString(), uuid.NewString()))

	req.ErrorIs(err, errors.ErrNotFound)
}

func TestConversationRepository_Listings_Are_Isolated(t *testing.T) {
	req := require.New(t)
	repo := NewConversationRepository(openTestDB(t))
	ctx := context.Background()
	alice, bob, carol := uuid.NewString(), uuid.NewString(), uuid.NewString()

	aliceBob := newConversation(alice, bob)
	req.NoError(repo.CreateConversation(ctx, aliceBob, alice, bob, aliceBob.CreatedAt))
	aliceCarol := newConversation(alice, carol)
	req.NoError(repo.CreateConversation(ctx, aliceCarol, alice, carol, aliceCarol.CreatedAt))

	ids, err := repo.ConversationIDsForUser(ctx, alice)
	req.NoError(err)
	req.ElementsMatch([]string{aliceBob.ID, aliceCarol.ID}, ids)

	ids, err = repo.ConversationIDsForUser(ctx, bob)
	req.NoError(err)
	req.Equal([]string{aliceBob.ID}, ids)
}
