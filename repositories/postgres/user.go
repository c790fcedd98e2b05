package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"pairchat/domain"
	"pairchat/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the Postgres error code for a violated unique constraint.
const uniqueViolation = "23505"

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, username, email, hashedPassword string) (domain.User, error) {
	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		LastSeen:     now,
	}

	query :=
		`INSERT INTO users (id, username, email, password_hash, created_at, last_seen)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt, user.LastSeen)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.User{}, errors.ErrUserAlreadyExists
		}
		return domain.User{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	return user, nil
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	query :=
		`SELECT id, username, email, password_hash, created_at, last_seen FROM users
		 WHERE username = $1
		 `

	user := domain.User{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.LastSeen)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return domain.User{}, errors.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	return user, nil
}

func (r *UserRepository) ListPeers(ctx context.Context, excludeID string) ([]domain.User, error) {
	query :=
		`SELECT id, username, email, password_hash, created_at, last_seen FROM users
		 WHERE id <> $1
		 ORDER BY username
		 `

	rows, err := r.db.QueryContext(ctx, query, excludeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user := domain.User{}
		if err := rows.Scan(&user.ID, &user.Username, &user.Email,
			&user.PasswordHash, &user.CreatedAt, &user.LastSeen); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	return users, nil
}

func (r *UserRepository) UpdateLastSeen(ctx context.Context, userID string, at time.Time) error {
	query :=
		`UPDATE users SET last_seen = $2
		 WHERE id = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, userID, at); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return nil
}
