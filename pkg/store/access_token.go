// Package store defines the data access interfaces of the registry.
package store

import (
	"context"

	"github.com/tricox-dev/tricox/pkg/db"
	"github.com/tricox-dev/tricox/pkg/db/models"
)

// AccessTokenStore is an interface for managing access tokens. Tokens are
// looked up by their hash only.
type AccessTokenStore interface {
	GetAccessToken(ctx context.Context, h db.Handler, id int64) (models.AccessToken, error)
	GetAccessTokenByHash(ctx context.Context, h db.Handler, hash string) (models.AccessToken, error)
	GetAccessTokensByUserID(ctx context.Context, h db.Handler, userID int64) ([]models.AccessToken, error)
	FindAccessTokenByName(ctx context.Context, h db.Handler, userID int64, names ...string) (models.AccessToken, error)
	CreateAccessToken(ctx context.Context, h db.Handler, name string, userID int64, token, hash string) (models.AccessToken, error)
	TouchAccessToken(ctx context.Context, h db.Handler, id int64) error
	DeleteAccessToken(ctx context.Context, h db.Handler, id int64) error
	DeleteAccessTokensByUserID(ctx context.Context, h db.Handler, userID int64) error
}
