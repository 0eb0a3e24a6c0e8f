package backend

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tricox-dev/tricox/pkg/config"
	"github.com/tricox-dev/tricox/pkg/db"
	"github.com/tricox-dev/tricox/pkg/oauth"
	"github.com/tricox-dev/tricox/pkg/storage"
	"github.com/tricox-dev/tricox/pkg/store"
)

// Backend is the registry backend that handles identities, organizations,
// components, and their versions.
type Backend struct {
	ctx    context.Context
	cfg    *config.Config
	db     *db.DB
	store  store.Store
	logger *log.Logger
	cache  *cache

	// blobs holds version contents. When nil, contents are stored inline
	// in the versions table.
	blobs  storage.Storage
	github oauth.Provider
	states *oauth.States
	now    func() time.Time
}

// Option configures a Backend.
type Option func(*Backend)

// WithStorage stores version contents in s instead of the database.
func WithStorage(s storage.Storage) Option {
	return func(b *Backend) {
		b.blobs = s
	}
}

// WithOAuthProvider sets the GitHub OAuth provider.
func WithOAuthProvider(p oauth.Provider) Option {
	return func(b *Backend) {
		b.github = p
	}
}

// WithClock sets the clock used to derive version strings.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

// New returns a new registry backend.
func New(ctx context.Context, cfg *config.Config, db *db.DB, st store.Store, opts ...Option) *Backend {
	logger := log.FromContext(ctx).WithPrefix("backend")
	b := &Backend{
		ctx:    ctx,
		cfg:    cfg,
		db:     db,
		store:  st,
		logger: logger,
		now:    time.Now,
		states: oauth.NewStates(cfg.OAuth.GitHub.StateSecret, cfg.HTTP.PublicURL),
	}

	if cfg.OAuth.GitHub.ClientID != "" {
		b.github = oauth.NewGitHub(cfg.OAuth.GitHub)
	}

	for _, opt := range opts {
		opt(b)
	}

	b.cache = newCache(b, cfg.Cache.Size)

	return b
}

// Config returns the backend configuration.
func (b *Backend) Config() *config.Config {
	return b.cfg
}

// Ping checks the database connection.
func (b *Backend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}
