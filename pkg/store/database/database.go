package database

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/tricox-dev/tricox/pkg/db"
	"github.com/tricox-dev/tricox/pkg/store"
)

type datastore struct {
	ctx    context.Context
	db     *db.DB
	logger *log.Logger

	*userStore
	*orgStore
	*componentStore
	*versionStore
	*accessTokenStore
}

// New returns a new store.Store database.
func New(ctx context.Context, db *db.DB) store.Store {
	logger := log.FromContext(ctx).WithPrefix("store")

	s := &datastore{
		ctx:    ctx,
		db:     db,
		logger: logger,

		userStore:        &userStore{},
		orgStore:         &orgStore{},
		componentStore:   &componentStore{},
		versionStore:     &versionStore{},
		accessTokenStore: &accessTokenStore{},
	}

	return s
}
