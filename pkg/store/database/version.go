package database

import (
	"context"

	"github.com/tricox-dev/tricox/pkg/db"
	"github.com/tricox-dev/tricox/pkg/db/models"
	"github.com/tricox-dev/tricox/pkg/store"
)

type versionStore struct{}

var _ store.VersionStore = (*versionStore)(nil)

// CreateVersion implements store.VersionStore.
func (s *versionStore) CreateVersion(ctx context.Context, h db.Handler, componentID int64, version, content, metadata string) (models.Version, error) {
	query := h.Rebind(`INSERT INTO versions (component_id, version, content, metadata, created_at)
			VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP) RETURNING id;`)

	var id int64
	if err := h.GetContext(ctx, &id, query, componentID, version, content, metadata); err != nil {
		return models.Version{}, err //nolint:wrapcheck
	}

	var m models.Version
	err := h.GetContext(ctx, &m, h.Rebind(`SELECT * FROM versions WHERE id = ?;`), id)
	return m, err //nolint:wrapcheck
}

// SetVersionBlobKey implements store.VersionStore.
func (*versionStore) SetVersionBlobKey(ctx context.Context, h db.Handler, id int64, key string) error {
	query := h.Rebind(`UPDATE versions SET blob_key = ?, content = '' WHERE id = ?;`)
	_, err := h.ExecContext(ctx, query, key, id)
	return err //nolint:wrapcheck
}

// GetLatestVersion implements store.VersionStore.
func (*versionStore) GetLatestVersion(ctx context.Context, h db.Handler, componentID int64) (models.Version, error) {
	var m models.Version
	query := h.Rebind(`SELECT * FROM versions WHERE component_id = ?
			ORDER BY created_at DESC, id DESC LIMIT 1;`)
	err := h.GetContext(ctx, &m, query, componentID)
	return m, err //nolint:wrapcheck
}

// FindVersion implements store.VersionStore. Version strings are not
// unique, the newest match wins.
func (*versionStore) FindVersion(ctx context.Context, h db.Handler, componentID int64, version string) (models.Version, error) {
	var m models.Version
	query := h.Rebind(`SELECT * FROM versions WHERE component_id = ? AND version = ?
			ORDER BY created_at DESC, id DESC LIMIT 1;`)
	err := h.GetContext(ctx, &m, query, componentID, version)
	return m, err //nolint:wrapcheck
}

// ListVersions implements store.VersionStore.
func (*versionStore) ListVersions(ctx context.Context, h db.Handler, componentID int64) ([]models.Version, error) {
	var m []models.Version
	query := h.Rebind(`SELECT * FROM versions WHERE component_id = ?
			ORDER BY created_at DESC, id DESC;`)
	err := h.SelectContext(ctx, &m, query, componentID)
	return m, err //nolint:wrapcheck
}

// ListBlobKeysByComponentID implements store.VersionStore.
func (*versionStore) ListBlobKeysByComponentID(ctx context.Context, h db.Handler, componentID int64) ([]string, error) {
	var m []string
	query := h.Rebind(`SELECT blob_key FROM versions WHERE component_id = ? AND blob_key <> '';`)
	err := h.SelectContext(ctx, &m, query, componentID)
	return m, err //nolint:wrapcheck
}

// ListBlobKeysByUserID implements store.VersionStore.
func (*versionStore) ListBlobKeysByUserID(ctx context.Context, h db.Handler, userID int64) ([]string, error) {
	var m []string
	query := h.Rebind(`SELECT v.blob_key
			FROM versions v
			JOIN components c ON c.id = v.component_id
			JOIN organizations o ON o.id = c.org_id
			WHERE o.user_id = ? AND v.blob_key <> '';`)
	err := h.SelectContext(ctx, &m, query, userID)
	return m, err //nolint:wrapcheck
}

// CountVersions implements store.VersionStore.
func (*versionStore) CountVersions(ctx context.Context, h db.Handler) (int64, error) {
	var n int64
	err := h.GetContext(ctx, &n, `SELECT COUNT(*) FROM versions;`)
	return n, err //nolint:wrapcheck
}

// DeleteVersionsByComponentID implements store.VersionStore.
func (*versionStore) DeleteVersionsByComponentID(ctx context.Context, h db.Handler, componentID int64) error {
	query := h.Rebind(`DELETE FROM versions WHERE component_id = ?;`)
	_, err := h.ExecContext(ctx, query, componentID)
	return err //nolint:wrapcheck
}

// DeleteVersionsByUserID implements store.VersionStore.
func (*versionStore) DeleteVersionsByUserID(ctx context.Context, h db.Handler, userID int64) error {
	query := h.Rebind(`DELETE FROM versions
		WHERE component_id IN (
		  SELECT c.id FROM components c
		  JOIN organizations o ON o.id = c.org_id
		  WHERE o.user_id = ?
		);`)
	_, err := h.ExecContext(ctx, query, userID)
	return err //nolint:wrapcheck
}
