package database

import (
	"context"
	"time"

	"parley/models"
)

// The users collection is owned by the identity subsystem; this service only
// reads it, except for InsertUser which exists for that subsystem and tests.

// GetUserByID retrieves a user by id.
func (db *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	err := db.conn.QueryRowContext(ctx,
		"SELECT id, display_name, email, active, created_at FROM users WHERE id = ?",
		id,
	).Scan(&user.ID, &user.DisplayName, &user.Email, &user.Active, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UserExists reports whether an active user with the given id exists.
func (db *DB) UserExists(ctx context.Context, id string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE id = ? AND active = 1",
		id,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertUser writes a user record. Provided for the identity collaborator
// that shares this store, and for test setup.
func (db *DB) InsertUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO users (id, display_name, email, active, created_at) VALUES (?, ?, ?, ?, ?)",
		user.ID, user.DisplayName, user.Email, user.Active, user.CreatedAt,
	)
	return err
}
