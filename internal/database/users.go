package database

import (
	"context"
	"fmt"
	"strings"

	"spotbnb/internal/models"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id, first_name, last_name, email, username, hashed_password, created_at, updated_at`

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	ts := now()
	id, err := db.insertReturningID(ctx, db.DB,
		`INSERT INTO users (first_name, last_name, email, username, hashed_password, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.FirstName, user.LastName, user.Email, user.Username, user.HashedPassword, ts, ts)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", translate(err))
	}
	user.ID = id
	user.CreatedAt = ts
	user.UpdatedAt = ts
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := db.GetContext(ctx, &user, db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, translate(err))
	}
	return &user, nil
}

// GetUserByCredential looks a user up by email or username, case-insensitively.
func (db *DB) GetUserByCredential(ctx context.Context, credential string) (*models.User, error) {
	credential = strings.ToLower(strings.TrimSpace(credential))
	var user models.User
	err := db.GetContext(ctx, &user,
		db.Rebind(`SELECT `+userColumns+` FROM users WHERE LOWER(email) = ? OR LOWER(username) = ?`),
		credential, credential)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by credential: %w", translate(err))
	}
	return &user, nil
}

// GetUsersByIDs returns the users keyed by id; unknown ids are skipped.
func (db *DB) GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]models.User, error) {
	result := make(map[int64]models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT `+userColumns+` FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build users query: %w", err)
	}

	var users []models.User
	if err := db.SelectContext(ctx, &users, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}
