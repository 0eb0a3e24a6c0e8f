package backend

import (
	"context"
	"errors"
	"strings"

	"github.com/tricox-dev/tricox/pkg/db"
	"github.com/tricox-dev/tricox/pkg/db/models"
	"github.com/tricox-dev/tricox/pkg/proto"
)

// Session token names.
const (
	WebLoginToken      = "Web Login"
	GitHubSessionToken = "GitHub Session"
	DefaultTokenName   = "Default Token"
)

// CreateAccessToken creates a named access token for the user and returns
// the raw token. The raw token is only ever returned here and by
// ListAccessTokens.
func (d *Backend) CreateAccessToken(ctx context.Context, userID int64, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultTokenName
	}

	if _, err := d.store.GetUserByID(ctx, d.db, userID); err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			return "", proto.ErrUserNotFound
		}
		return "", err
	}

	return d.issueAccessToken(ctx, d.db, userID, name)
}

func (d *Backend) issueAccessToken(ctx context.Context, h db.Handler, userID int64, name string) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}

	if _, err := d.store.CreateAccessToken(ctx, h, name, userID, token, HashToken(token)); err != nil {
		return "", db.WrapError(err)
	}

	return token, nil
}

// sessionToken returns the user's oldest token named one of reuse, bumping
// its last used time, or issues a new token named name.
func (d *Backend) sessionToken(ctx context.Context, userID int64, name string, reuse ...string) (string, error) {
	t, err := d.store.FindAccessTokenByName(ctx, d.db, userID, reuse...)
	if err == nil {
		d.touchAccessToken(ctx, t.ID)
		return t.Token, nil
	}
	if err = db.WrapError(err); !errors.Is(err, db.ErrRecordNotFound) {
		return "", err
	}

	return d.issueAccessToken(ctx, d.db, userID, name)
}

// touchAccessToken records a token use. Failures are logged and dropped.
func (d *Backend) touchAccessToken(ctx context.Context, id int64) {
	if err := d.store.TouchAccessToken(ctx, d.db, id); err != nil {
		d.logger.Warn("failed to update token last used", "token_id", id, "err", err)
	}
}

// DeleteAccessToken deletes an access token of the user. It returns
// proto.ErrTokenNotFound when the token does not exist or belongs to
// another user.
func (d *Backend) DeleteAccessToken(ctx context.Context, user proto.User, id int64) (proto.AccessToken, error) {
	var t models.AccessToken
	err := d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		t, err = d.store.GetAccessToken(ctx, tx, id)
		if err != nil {
			return db.WrapError(err)
		}

		if t.UserID != user.ID() {
			return proto.ErrTokenNotFound
		}

		return db.WrapError(d.store.DeleteAccessToken(ctx, tx, id))
	})
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return proto.AccessToken{}, proto.ErrTokenNotFound
		}
		return proto.AccessToken{}, err
	}

	return toAccessToken(t), nil
}

// ListAccessTokens lists access tokens for a user, newest first.
func (d *Backend) ListAccessTokens(ctx context.Context, userID int64) ([]proto.AccessToken, error) {
	accessTokens, err := d.store.GetAccessTokensByUserID(ctx, d.db, userID)
	if err != nil {
		return nil, db.WrapError(err)
	}

	tokens := make([]proto.AccessToken, 0, len(accessTokens))
	for _, t := range accessTokens {
		tokens = append(tokens, toAccessToken(t))
	}

	return tokens, nil
}

// UserByAccessToken finds the user owning a raw access token and records
// the token use. Empty and unknown tokens return proto.ErrInvalidToken.
func (d *Backend) UserByAccessToken(ctx context.Context, token string) (proto.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, proto.ErrInvalidToken
	}

	t, err := d.store.GetAccessTokenByHash(ctx, d.db, HashToken(token))
	if err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrInvalidToken
		}
		d.logger.Error("failed to find access token", "err", err)
		return nil, err
	}

	d.touchAccessToken(ctx, t.ID)

	u, err := d.UserByID(ctx, t.UserID)
	if err != nil {
		if errors.Is(err, proto.ErrUserNotFound) {
			return nil, proto.ErrInvalidToken
		}
		return nil, err
	}

	return u, nil
}

func toAccessToken(t models.AccessToken) proto.AccessToken {
	token := proto.AccessToken{
		ID:        t.ID,
		Name:      t.Name,
		UserID:    t.UserID,
		Token:     t.Token,
		CreatedAt: t.CreatedAt,
	}
	if t.LastUsedAt.Valid {
		token.LastUsedAt = t.LastUsedAt.Time
	}
	return token
}
