package store

import (
	"context"

	"github.com/tricox-dev/tricox/pkg/db"
	"github.com/tricox-dev/tricox/pkg/db/models"
)

// VersionStore is an interface for managing component versions. Versions
// are append-only.
type VersionStore interface {
	CreateVersion(ctx context.Context, h db.Handler, componentID int64, version, content, metadata string) (models.Version, error)
	SetVersionBlobKey(ctx context.Context, h db.Handler, id int64, key string) error
	GetLatestVersion(ctx context.Context, h db.Handler, componentID int64) (models.Version, error)
	FindVersion(ctx context.Context, h db.Handler, componentID int64, version string) (models.Version, error)
	ListVersions(ctx context.Context, h db.Handler, componentID int64) ([]models.Version, error)
	ListBlobKeysByComponentID(ctx context.Context, h db.Handler, componentID int64) ([]string, error)
	ListBlobKeysByUserID(ctx context.Context, h db.Handler, userID int64) ([]string, error)
	CountVersions(ctx context.Context, h db.Handler) (int64, error)
	DeleteVersionsByComponentID(ctx context.Context, h db.Handler, componentID int64) error
	DeleteVersionsByUserID(ctx context.Context, h db.Handler, userID int64) error
}
