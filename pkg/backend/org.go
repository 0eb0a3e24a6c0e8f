package backend

import (
	"context"
	"errors"
	"time"

	"github.com/tricox-dev/tricox/pkg/db"
	"github.com/tricox-dev/tricox/pkg/db/models"
	"github.com/tricox-dev/tricox/pkg/proto"
	"github.com/tricox-dev/tricox/pkg/utils"
)

// Org finds an organization by name.
func (d *Backend) Org(ctx context.Context, name string) (proto.Org, error) {
	o, err := d.loadOrg(ctx, d.db, name)
	if err != nil {
		return nil, err
	}
	return org{o}, nil
}

// ListOrgs lists the organizations owned by a user.
func (d *Backend) ListOrgs(ctx context.Context, user proto.User) ([]proto.Org, error) {
	orgs, err := d.store.ListOrgsByUserID(ctx, d.db, user.ID())
	if err != nil {
		return nil, db.WrapError(err)
	}
	return toOrgs(orgs), nil
}

// findOrg returns the organization named name, consulting the cache first.
// Cached rows may be stale, so callers that check ownership or write
// under the organization must use loadOrg.
func (d *Backend) findOrg(ctx context.Context, h db.Handler, name string) (models.Organization, error) {
	if o, ok := d.cache.Get(name); ok {
		return o, nil
	}
	return d.loadOrg(ctx, h, name)
}

// loadOrg reads the organization named name from the database and
// refreshes its cache entry.
func (d *Backend) loadOrg(ctx context.Context, h db.Handler, name string) (models.Organization, error) {
	o, err := d.store.FindOrgByName(ctx, h, name)
	if err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			d.cache.Delete(name)
			return o, proto.ErrOrgNotFound
		}
		return o, err
	}

	d.cache.Set(o)
	return o, nil
}

// findOrCreateOrg returns the organization named name, creating it for
// owner when it does not exist. A concurrent creation of the same name is
// resolved by fetching the winner's row.
func (d *Backend) findOrCreateOrg(ctx context.Context, owner int64, name string) (models.Organization, error) {
	o, err := d.loadOrg(ctx, d.db, name)
	if err == nil || !errors.Is(err, proto.ErrOrgNotFound) {
		return o, err
	}

	o, err = d.store.CreateOrg(ctx, d.db, owner, name)
	if err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrDuplicateKey) {
			return d.loadOrg(ctx, d.db, name)
		}
		return o, err
	}

	d.logger.Info("created organization", "org", name, "owner", owner)
	d.cache.Set(o)
	return o, nil
}

func validateOrgName(name string) (string, error) {
	return validateName("organization", name)
}

func validateName(kind, name string) (string, error) {
	name = utils.SanitizeName(name)
	if name == "" {
		return "", proto.NewError(proto.ErrValidation, "%s name is required", kind)
	}
	if err := utils.ValidateName(name); err != nil {
		return "", proto.NewError(proto.ErrValidation, "invalid %s name: %v", kind, err)
	}
	return name, nil
}

func toOrgs(ms []models.Organization) []proto.Org {
	orgs := make([]proto.Org, 0, len(ms))
	for _, o := range ms {
		orgs = append(orgs, org{o})
	}
	return orgs
}

type org struct {
	o models.Organization
}

var _ proto.Org = org{}

// ID implements proto.Org.
func (o org) ID() int64 {
	return o.o.ID
}

// Name implements proto.Org.
func (o org) Name() string {
	return o.o.Name
}

// OwnerID implements proto.Org.
func (o org) OwnerID() int64 {
	return o.o.UserID
}

// CreatedAt implements proto.Org.
func (o org) CreatedAt() time.Time {
	return o.o.CreatedAt
}
