package database

import (
	"context"

	"github.com/tricox-dev/tricox/pkg/db"
	"github.com/tricox-dev/tricox/pkg/db/models"
	"github.com/tricox-dev/tricox/pkg/store"
)

var _ store.OrgStore = (*orgStore)(nil)

type orgStore struct{}

// CreateOrg implements store.OrgStore.
func (s *orgStore) CreateOrg(ctx context.Context, h db.Handler, user int64, name string) (models.Organization, error) {
	query := h.Rebind(`
		INSERT INTO
		  organizations (name, user_id, updated_at)
		VALUES
		  (?, ?, CURRENT_TIMESTAMP) RETURNING id;
	`)

	var id int64
	if err := h.GetContext(ctx, &id, query, name, user); err != nil {
		return models.Organization{}, err
	}

	return s.GetOrgByID(ctx, h, id)
}

// GetOrgByID implements store.OrgStore.
func (*orgStore) GetOrgByID(ctx context.Context, h db.Handler, id int64) (models.Organization, error) {
	var m models.Organization
	query := h.Rebind(`SELECT * FROM organizations WHERE id = ?`)
	err := h.GetContext(ctx, &m, query, id)
	return m, err
}

// FindOrgByName implements store.OrgStore.
func (*orgStore) FindOrgByName(ctx context.Context, h db.Handler, name string) (models.Organization, error) {
	var m models.Organization
	query := h.Rebind(`SELECT * FROM organizations WHERE name = ?`)
	err := h.GetContext(ctx, &m, query, name)
	return m, err
}

// ListOrgsByUserID implements store.OrgStore.
func (*orgStore) ListOrgsByUserID(ctx context.Context, h db.Handler, user int64) ([]models.Organization, error) {
	var m []models.Organization
	query := h.Rebind(`
		SELECT
		  *
		FROM
		  organizations
		WHERE
		  user_id = ?
		ORDER BY
		  id
	`)
	err := h.SelectContext(ctx, &m, query, user)
	return m, err
}

// DeleteOrgsByUserID implements store.OrgStore.
func (*orgStore) DeleteOrgsByUserID(ctx context.Context, h db.Handler, user int64) error {
	query := h.Rebind(`DELETE FROM organizations WHERE user_id = ?;`)
	_, err := h.ExecContext(ctx, query, user)
	return err
}
