package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

const userColumns = `id, username, password_hash, created_at`

// CreateUser creates a new console user.
func CreateUser(ctx context.Context, q db.Querier, username, passwordHash string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidArgument)
	}

	var id int64
	err := q.QueryRow(ctx,
		`INSERT INTO users (username, password_hash) VALUES (?, ?) RETURNING id`,
		username, passwordHash,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return GetUser(ctx, q, id)
}

// GetUser returns a user by ID, or ErrNotFound.
func GetUser(ctx context.Context, q db.Querier, id int64) (*model.User, error) {
	return getUser(ctx, q, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetUserByUsername returns a user by username, or ErrNotFound.
func GetUserByUsername(ctx context.Context, q db.Querier, username string) (*model.User, error) {
	return getUser(ctx, q, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func getUser(ctx context.Context, q db.Querier, query string, arg any) (*model.User, error) {
	u := &model.User{}
	err := q.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// CountUsers returns the number of users.
func CountUsers(ctx context.Context, q db.Querier) (int, error) {
	var n int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, q db.Querier, id int64, passwordHash string) error {
	result, err := q.Exec(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
