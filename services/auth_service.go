//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"pairchat/auth"
	"pairchat/domain"
	"pairchat/errors"
	"pairchat/repositories"
)

type IAuthService interface {
	Register(ctx context.Context, username, email, password string) (Token, domain.User, error)
	Login(ctx context.Context, username, password string) (Token, domain.User, error)
}

type AuthService struct {
	userRepository repositories.IUserRepository
	secret         []byte
	tokenDuration  time.Duration
}

type Token string

func NewAuthService(repo repositories.IUserRepository, secret []byte, tokenDuration time.Duration) *AuthService {
	return &AuthService{userRepository: repo, secret: secret, tokenDuration: tokenDuration}
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (Token, domain.User, error) {
	valReq := auth.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	}

	// 1. Validate business rules before any expensive cryptographic
	// operation and before any side effect.
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", domain.User{}, err
	}

	// 2. Hash the password. Done in the service layer to keep the
	// repository unaware of plain passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Persist the user with the generated hash.
	user, err := s.userRepository.CreateUser(ctx, username, email, hashedPassword)
	if err != nil {
		return "", domain.User{}, err // Propagates ErrUserAlreadyExists if the name is taken
	}

	// 4. Issue the initial bearer token.
	token, err := auth.GenerateToken(user.ID, user.Username, s.secret, s.tokenDuration)
	if err != nil {
		return "", domain.User{}, errors.ErrTokenGeneration
	}

	return Token(token), user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (Token, domain.User, error) {
	if err := auth.ValidateLogin(auth.LoginRequest{Username: username, Password: password}); err != nil {
		return "", domain.User{}, err
	}

	// 1. Retrieve the user. Unknown usernames and wrong passwords yield the
	// same generic error to prevent user enumeration.
	user, err := s.userRepository.GetUserByUsername(ctx, username)
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			return "", domain.User{}, errors.ErrInvalidCredentials
		}
		return "", domain.User{}, err
	}

	// 2. Compare the provided password with the stored hash.
	if !auth.ComparePassword(password, user.PasswordHash) {
		return "", domain.User{}, errors.ErrInvalidCredentials
	}

	// 3. Record the login as the user's last-seen time.
	now := time.Now().UTC()
	if err := s.userRepository.UpdateLastSeen(ctx, user.ID, now); err != nil {
		return "", domain.User{}, err
	}
	user.LastSeen = now

	// 4. Issue the bearer token.
	token, err := auth.GenerateToken(user.ID, user.Username, s.secret, s.tokenDuration)
	if err != nil {
		return "", domain.User{}, errors.ErrTokenGeneration
	}

	return Token(token), user, nil
}
