//go:generate go run go.uber.org/mock/mockgen -source=user_service.go -destination=../mocks/mock_user_service.go -package=mocks
package services

import (
	"context"

	"pairchat/contract"
	"pairchat/domain"
	"pairchat/repositories"

	"github.com/samber/lo"
)

type IUserService interface {
	// ListPeers returns every user except the requester, ordered by
	// username, with presence taken from the session registry.
	ListPeers(ctx context.Context, requesterID string) ([]domain.Peer, error)
}

type UserService struct {
	userRepository repositories.IUserRepository
	registry       contract.IRegistry
}

func NewUserService(repo repositories.IUserRepository, registry contract.IRegistry) *UserService {
	return &UserService{userRepository: repo, registry: registry}
}

func (s *UserService) ListPeers(ctx context.Context, requesterID string) ([]domain.Peer, error) {
	users, err := s.userRepository.ListPeers(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	return lo.Map(users, func(user domain.User, _ int) domain.Peer {
		return domain.Peer{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			LastSeen: user.LastSeen,
			Online:   s.registry.IsOnline(user.ID),
		}
	}), nil
}
