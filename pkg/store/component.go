package store

import (
	"context"

	"github.com/tricox-dev/tricox/pkg/db"
	"github.com/tricox-dev/tricox/pkg/db/models"
)

// ComponentStore is an interface for managing components.
type ComponentStore interface {
	CreateComponent(ctx context.Context, h db.Handler, orgID int64, name string, isPublic bool) (models.Component, error)
	GetComponentByID(ctx context.Context, h db.Handler, id int64) (models.Component, error)
	FindComponentByName(ctx context.Context, h db.Handler, orgID int64, name string) (models.Component, error)
	ListComponentsByOrgID(ctx context.Context, h db.Handler, orgID int64, onlyPublic bool) ([]models.ComponentSummary, error)
	ListAllComponents(ctx context.Context, h db.Handler) ([]models.ComponentSummary, error)
	SetComponentPublic(ctx context.Context, h db.Handler, id int64, isPublic bool) error
	TouchComponent(ctx context.Context, h db.Handler, id int64) error
	IncrementComponentDownloads(ctx context.Context, h db.Handler, id int64) error
	CountDownloads(ctx context.Context, h db.Handler) (int64, error)
	DeleteComponentByID(ctx context.Context, h db.Handler, id int64) error
	DeleteComponentsByUserID(ctx context.Context, h db.Handler, userID int64) error
}
