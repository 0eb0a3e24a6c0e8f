package store

import (
	"context"

	"github.com/tricox-dev/tricox/pkg/db"
	"github.com/tricox-dev/tricox/pkg/db/models"
)

// OrgStore is a store for organizations.
type OrgStore interface {
	CreateOrg(ctx context.Context, h db.Handler, user int64, name string) (models.Organization, error)
	GetOrgByID(ctx context.Context, h db.Handler, id int64) (models.Organization, error)
	FindOrgByName(ctx context.Context, h db.Handler, name string) (models.Organization, error)
	ListOrgsByUserID(ctx context.Context, h db.Handler, user int64) ([]models.Organization, error)
	DeleteOrgsByUserID(ctx context.Context, h db.Handler, user int64) error
}
