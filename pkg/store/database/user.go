package database

import (
	"context"
	"strings"

	"github.com/tricox-dev/tricox/pkg/db"
	"github.com/tricox-dev/tricox/pkg/db/models"
	"github.com/tricox-dev/tricox/pkg/store"
)

type userStore struct{}

var _ store.UserStore = (*userStore)(nil)

// CreateUser implements store.UserStore.
func (s *userStore) CreateUser(ctx context.Context, tx db.Handler, email, password string) (models.User, error) {
	email = strings.ToLower(email)
	query := tx.Rebind(`INSERT INTO users (email, password, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP) RETURNING id;`)

	var userID int64
	if err := tx.GetContext(ctx, &userID, query, email, password); err != nil {
		return models.User{}, err //nolint:wrapcheck
	}

	return s.GetUserByID(ctx, tx, userID)
}

// DeleteUserByID implements store.UserStore.
func (*userStore) DeleteUserByID(ctx context.Context, tx db.Handler, id int64) error {
	query := tx.Rebind(`DELETE FROM users WHERE id = ?;`)
	_, err := tx.ExecContext(ctx, query, id)
	return err //nolint:wrapcheck
}

// GetUserByID implements store.UserStore.
func (*userStore) GetUserByID(ctx context.Context, tx db.Handler, id int64) (models.User, error) {
	var m models.User
	query := tx.Rebind(`SELECT * FROM users WHERE id = ?;`)
	err := tx.GetContext(ctx, &m, query, id)
	return m, err //nolint:wrapcheck
}

// FindUserByEmail implements store.UserStore.
func (*userStore) FindUserByEmail(ctx context.Context, tx db.Handler, email string) (models.User, error) {
	var m models.User
	query := tx.Rebind(`SELECT * FROM users WHERE email = ?;`)
	err := tx.GetContext(ctx, &m, query, strings.ToLower(email))
	return m, err //nolint:wrapcheck
}

// FindUserByAccessToken implements store.UserStore.
func (*userStore) FindUserByAccessToken(ctx context.Context, tx db.Handler, hash string) (models.User, error) {
	var m models.User
	query := tx.Rebind(`SELECT users.*
			FROM users
			INNER JOIN access_tokens ON users.id = access_tokens.user_id
			WHERE access_tokens.token_hash = ?;`)
	err := tx.GetContext(ctx, &m, query, hash)
	return m, err //nolint:wrapcheck
}

// GetAllUsers implements store.UserStore.
func (*userStore) GetAllUsers(ctx context.Context, tx db.Handler) ([]models.User, error) {
	var m []models.User
	query := tx.Rebind(`SELECT * FROM users ORDER BY id;`)
	err := tx.SelectContext(ctx, &m, query)
	return m, err //nolint:wrapcheck
}

// SetUserPassword implements store.UserStore.
func (*userStore) SetUserPassword(ctx context.Context, tx db.Handler, userID int64, password string) error {
	query := tx.Rebind(`UPDATE users SET password = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?;`)
	_, err := tx.ExecContext(ctx, query, password, userID)
	return err //nolint:wrapcheck
}
