//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"pairchat/domain"
	"pairchat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IUserRepository interface {
	// CreateUser persists a new user with an already-hashed credential and
	// returns it with a fresh id. Fails with ErrUserAlreadyExists when the
	// username is taken.
	CreateUser(ctx context.Context, username, email, hashedPassword string) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	// ListPeers returns every user except excludeID, ordered by username.
	ListPeers(ctx context.Context, excludeID string) ([]domain.User, error)
	UpdateLastSeen(ctx context.Context, userID string, at time.Time) error
}

// UserRepository is the BadgerDB implementation used in standalone mode.
// Records live under "user:{username}" with a "userid:{id}" pointer for id
// lookups; prefix scans over "user:" come back username-ordered, which is
// exactly the peer listing order.
type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

type diskUser struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	CreatedAt    int64  `json:"created_at"`
	LastSeen     int64  `json:"last_seen"`
}

func userKey(username string) []byte { return []byte("user:" + username) }
func userIDKey(id string) []byte     { return []byte("userid:" + id) }

func (u *UserRepository) CreateUser(_ context.Context, username, email, hashedPassword string) (domain.User, error) {
	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		LastSeen:     now,
	}

	data, err := json.Marshal(fromUser(user))
	if err != nil {
		return domain.User{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		key := userKey(username)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(userIDKey(user.ID), []byte(username))
	})
	if err != nil {
		return domain.User{}, err
	}

	return user, nil
}

func (u *UserRepository) GetUserByUsername(_ context.Context, username string) (domain.User, error) {
	var disk diskUser

	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &disk)
		})
	})
	if err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return domain.User{}, errors.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	return toUser(disk), nil
}

func (u *UserRepository) ListPeers(_ context.Context, excludeID string) ([]domain.User, error) {
	var users []domain.User

	err := u.db.View(func(txn *badger.Txn) error {
		prefix := []byte("user:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var disk diskUser
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &disk)
			}); err != nil {
				return err
			}
			if disk.ID == excludeID {
				continue
			}
			users = append(users, toUser(disk))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	return users, nil
}

func (u *UserRepository) UpdateLastSeen(_ context.Context, userID string, at time.Time) error {
	return u.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(userIDKey(userID))
		if err != nil {
			return errors.ErrNotFound
		}
		var username string
		if err := item.Value(func(val []byte) error {
			username = string(bytes.Clone(val))
			return nil
		}); err != nil {
			return err
		}

		userItem, err := txn.Get(userKey(username))
		if err != nil {
			return errors.ErrNotFound
		}
		var disk diskUser
		if err := userItem.Value(func(val []byte) error {
			return json.Unmarshal(val, &disk)
		}); err != nil {
			return err
		}

		disk.LastSeen = at.Unix()
		data, err := json.Marshal(disk)
		if err != nil {
			return err
		}
		return txn.Set(userKey(username), data)
	})
}

func fromUser(user domain.User) diskUser {
	return diskUser{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt.Unix(),
		LastSeen:     user.LastSeen.Unix(),
	}
}

func toUser(disk diskUser) domain.User {
	return domain.User{
		ID:           disk.ID,
		Username:     disk.Username,
		Email:        disk.Email,
		PasswordHash: disk.PasswordHash,
		CreatedAt:    time.Unix(disk.CreatedAt, 0).UTC(),
		LastSeen:     time.Unix(disk.LastSeen, 0).UTC(),
	}
}
