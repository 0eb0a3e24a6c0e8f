package database

import (
	"context"

	"github.com/tricox-dev/tricox/pkg/db"
	"github.com/tricox-dev/tricox/pkg/db/models"
	"github.com/tricox-dev/tricox/pkg/store"
)

type componentStore struct{}

var _ store.ComponentStore = (*componentStore)(nil)

// summarySelect selects components with their org, owner, and latest
// version. "Latest" is the most recently created version, ties broken by id.
const summarySelect = `
	SELECT
	  c.*,
	  o.name AS org_name,
	  u.id AS owner_id,
	  u.email AS owner_email,
	  COALESCE((
	    SELECT v.version FROM versions v
	    WHERE v.component_id = c.id
	    ORDER BY v.created_at DESC, v.id DESC
	    LIMIT 1
	  ), '') AS latest_version
	FROM
	  components c
	  JOIN organizations o ON o.id = c.org_id
	  JOIN users u ON u.id = o.user_id
`

// CreateComponent implements store.ComponentStore.
func (s *componentStore) CreateComponent(ctx context.Context, h db.Handler, orgID int64, name string, isPublic bool) (models.Component, error) {
	query := h.Rebind(`INSERT INTO components (org_id, name, public, updated_at)
			VALUES (?, ?, ?, CURRENT_TIMESTAMP) RETURNING id;`)

	var id int64
	if err := h.GetContext(ctx, &id, query, orgID, name, isPublic); err != nil {
		return models.Component{}, err //nolint:wrapcheck
	}

	return s.GetComponentByID(ctx, h, id)
}

// GetComponentByID implements store.ComponentStore.
func (*componentStore) GetComponentByID(ctx context.Context, h db.Handler, id int64) (models.Component, error) {
	var m models.Component
	query := h.Rebind(`SELECT * FROM components WHERE id = ?;`)
	err := h.GetContext(ctx, &m, query, id)
	return m, err //nolint:wrapcheck
}

// FindComponentByName implements store.ComponentStore.
func (*componentStore) FindComponentByName(ctx context.Context, h db.Handler, orgID int64, name string) (models.Component, error) {
	var m models.Component
	query := h.Rebind(`SELECT * FROM components WHERE org_id = ? AND name = ?;`)
	err := h.GetContext(ctx, &m, query, orgID, name)
	return m, err //nolint:wrapcheck
}

// ListComponentsByOrgID implements store.ComponentStore.
func (*componentStore) ListComponentsByOrgID(ctx context.Context, h db.Handler, orgID int64, onlyPublic bool) ([]models.ComponentSummary, error) {
	var m []models.ComponentSummary
	query := summarySelect + ` WHERE c.org_id = ?`
	args := []interface{}{orgID}
	if onlyPublic {
		query += ` AND c.public = ?`
		args = append(args, true)
	}
	query += ` ORDER BY c.updated_at DESC, c.id DESC;`
	err := h.SelectContext(ctx, &m, h.Rebind(query), args...)
	return m, err //nolint:wrapcheck
}

// ListAllComponents implements store.ComponentStore.
func (*componentStore) ListAllComponents(ctx context.Context, h db.Handler) ([]models.ComponentSummary, error) {
	var m []models.ComponentSummary
	query := h.Rebind(summarySelect + ` ORDER BY c.updated_at DESC, c.id DESC;`)
	err := h.SelectContext(ctx, &m, query)
	return m, err //nolint:wrapcheck
}

// SetComponentPublic implements store.ComponentStore.
func (*componentStore) SetComponentPublic(ctx context.Context, h db.Handler, id int64, isPublic bool) error {
	query := h.Rebind(`UPDATE components SET public = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?;`)
	_, err := h.ExecContext(ctx, query, isPublic, id)
	return err //nolint:wrapcheck
}

// TouchComponent implements store.ComponentStore.
func (*componentStore) TouchComponent(ctx context.Context, h db.Handler, id int64) error {
	query := h.Rebind(`UPDATE components SET updated_at = CURRENT_TIMESTAMP WHERE id = ?;`)
	_, err := h.ExecContext(ctx, query, id)
	return err //nolint:wrapcheck
}

// IncrementComponentDownloads implements store.ComponentStore.
func (*componentStore) IncrementComponentDownloads(ctx context.Context, h db.Handler, id int64) error {
	query := h.Rebind(`UPDATE components SET downloads = downloads + 1 WHERE id = ?;`)
	res, err := h.ExecContext(ctx, query, id)
	if err != nil {
		return err //nolint:wrapcheck
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return db.ErrRecordNotFound
	}
	return nil
}

// CountDownloads implements store.ComponentStore.
func (*componentStore) CountDownloads(ctx context.Context, h db.Handler) (int64, error) {
	var n int64
	err := h.GetContext(ctx, &n, `SELECT COALESCE(SUM(downloads), 0) FROM components;`)
	return n, err //nolint:wrapcheck
}

// DeleteComponentByID implements store.ComponentStore.
func (*componentStore) DeleteComponentByID(ctx context.Context, h db.Handler, id int64) error {
	query := h.Rebind(`DELETE FROM components WHERE id = ?;`)
	_, err := h.ExecContext(ctx, query, id)
	return err //nolint:wrapcheck
}

// DeleteComponentsByUserID implements store.ComponentStore. It deletes the
// components of every organization owned by the user.
func (*componentStore) DeleteComponentsByUserID(ctx context.Context, h db.Handler, userID int64) error {
	query := h.Rebind(`DELETE FROM components
		WHERE org_id IN (SELECT id FROM organizations WHERE user_id = ?);`)
	_, err := h.ExecContext(ctx, query, userID)
	return err //nolint:wrapcheck
}
