// Package database provides database store implementations.
package database

import (
	"context"
	"strings"

	"github.com/tricox-dev/tricox/pkg/db"
	"github.com/tricox-dev/tricox/pkg/db/models"
	"github.com/tricox-dev/tricox/pkg/store"
)

type accessTokenStore struct{}

var _ store.AccessTokenStore = (*accessTokenStore)(nil)

// CreateAccessToken implements store.AccessTokenStore.
func (s *accessTokenStore) CreateAccessToken(ctx context.Context, h db.Handler, name string, userID int64, token, hash string) (models.AccessToken, error) {
	query := h.Rebind(`INSERT INTO access_tokens (name, user_id, token, token_hash, created_at, updated_at)
	VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP) RETURNING id`)

	var id int64
	if err := h.GetContext(ctx, &id, query, name, userID, token, hash); err != nil {
		return models.AccessToken{}, err //nolint:wrapcheck
	}

	return s.GetAccessToken(ctx, h, id)
}

// TouchAccessToken implements store.AccessTokenStore.
func (*accessTokenStore) TouchAccessToken(ctx context.Context, h db.Handler, id int64) error {
	query := h.Rebind(`UPDATE access_tokens SET last_used_at = CURRENT_TIMESTAMP WHERE id = ?`)
	_, err := h.ExecContext(ctx, query, id)
	return err //nolint:wrapcheck
}

// DeleteAccessToken implements store.AccessTokenStore.
func (*accessTokenStore) DeleteAccessToken(ctx context.Context, h db.Handler, id int64) error {
	query := h.Rebind(`DELETE FROM access_tokens WHERE id = ?`)
	_, err := h.ExecContext(ctx, query, id)
	return err //nolint:wrapcheck
}

// DeleteAccessTokensByUserID implements store.AccessTokenStore.
func (*accessTokenStore) DeleteAccessTokensByUserID(ctx context.Context, h db.Handler, userID int64) error {
	query := h.Rebind(`DELETE FROM access_tokens WHERE user_id = ?`)
	_, err := h.ExecContext(ctx, query, userID)
	return err //nolint:wrapcheck
}

// GetAccessToken implements store.AccessTokenStore.
func (*accessTokenStore) GetAccessToken(ctx context.Context, h db.Handler, id int64) (models.AccessToken, error) {
	query := h.Rebind(`SELECT * FROM access_tokens WHERE id = ?`)
	var m models.AccessToken
	err := h.GetContext(ctx, &m, query, id)
	return m, err //nolint:wrapcheck
}

// GetAccessTokensByUserID implements store.AccessTokenStore.
func (*accessTokenStore) GetAccessTokensByUserID(ctx context.Context, h db.Handler, userID int64) ([]models.AccessToken, error) {
	query := h.Rebind(`SELECT * FROM access_tokens WHERE user_id = ? ORDER BY created_at DESC, id DESC`)
	var m []models.AccessToken
	err := h.SelectContext(ctx, &m, query, userID)
	return m, err //nolint:wrapcheck
}

// GetAccessTokenByHash implements store.AccessTokenStore.
func (*accessTokenStore) GetAccessTokenByHash(ctx context.Context, h db.Handler, hash string) (models.AccessToken, error) {
	query := h.Rebind(`SELECT * FROM access_tokens WHERE token_hash = ?`)
	var m models.AccessToken
	err := h.GetContext(ctx, &m, query, hash)
	return m, err //nolint:wrapcheck
}

// FindAccessTokenByName implements store.AccessTokenStore. It returns the
// oldest token of the user whose name is one of names.
func (*accessTokenStore) FindAccessTokenByName(ctx context.Context, h db.Handler, userID int64, names ...string) (models.AccessToken, error) {
	var m models.AccessToken
	if len(names) == 0 {
		return m, db.ErrRecordNotFound
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	query := h.Rebind(`SELECT * FROM access_tokens
		WHERE user_id = ? AND name IN (` + placeholders + `)
		ORDER BY created_at ASC, id ASC LIMIT 1`)

	args := make([]interface{}, 0, len(names)+1)
	args = append(args, userID)
	for _, n := range names {
		args = append(args, n)
	}

	err := h.GetContext(ctx, &m, query, args...)
	return m, err //nolint:wrapcheck
}
