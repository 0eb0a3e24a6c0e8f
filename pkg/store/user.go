package store

import (
	"context"

	"github.com/tricox-dev/tricox/pkg/db"
	"github.com/tricox-dev/tricox/pkg/db/models"
)

// UserStore is an interface for managing users.
type UserStore interface {
	GetUserByID(ctx context.Context, h db.Handler, id int64) (models.User, error)
	FindUserByEmail(ctx context.Context, h db.Handler, email string) (models.User, error)
	FindUserByAccessToken(ctx context.Context, h db.Handler, hash string) (models.User, error)
	GetAllUsers(ctx context.Context, h db.Handler) ([]models.User, error)
	CreateUser(ctx context.Context, h db.Handler, email, password string) (models.User, error)
	SetUserPassword(ctx context.Context, h db.Handler, userID int64, password string) error
	DeleteUserByID(ctx context.Context, h db.Handler, id int64) error
}
