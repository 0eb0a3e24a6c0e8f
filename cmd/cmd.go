package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"github.com/tricox-dev/tricox/pkg/backend"
	"github.com/tricox-dev/tricox/pkg/config"
	"github.com/tricox-dev/tricox/pkg/db"
	"github.com/tricox-dev/tricox/pkg/storage"
	"github.com/tricox-dev/tricox/pkg/store/database"
)

// NewStorage returns the blob storage selected by the configuration. It
// returns nil when version contents live in the database.
func NewStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.Blob.Backend {
	case "", "database":
		return nil, nil
	case "local":
		if err := os.MkdirAll(cfg.Blob.Path, os.ModePerm); err != nil {
			return nil, fmt.Errorf("create blob directory: %w", err)
		}
		return storage.NewLocalStorage(cfg.Blob.Path), nil
	case "s3":
		client := storage.NewS3Client(storage.S3Options{
			Region:          cfg.Blob.S3.Region,
			Endpoint:        cfg.Blob.S3.Endpoint,
			AccessKeyID:     cfg.Blob.S3.AccessKeyID,
			SecretAccessKey: cfg.Blob.S3.SecretAccessKey,
		})
		return storage.NewS3Storage(client, cfg.Blob.S3.Bucket, cfg.Blob.S3.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Blob.Backend)
	}
}

// InitBackendContext opens the database and stores the database and the
// backend in the command context.
func InitBackendContext(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	if cfg == nil {
		return config.ErrNilConfig
	}
	if _, err := os.Stat(cfg.DataPath); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(cfg.DataPath, os.ModePerm); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}
	dbx, err := db.Open(ctx, cfg.DB.Driver, cfg.DB.DataSource)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	blobs, err := NewStorage(cfg)
	if err != nil {
		dbx.Close() // nolint: errcheck
		return err
	}

	var opts []backend.Option
	if blobs != nil {
		opts = append(opts, backend.WithStorage(blobs))
	}

	ctx = db.WithContext(ctx, dbx)
	dbstore := database.New(ctx, dbx)
	be := backend.New(ctx, cfg, dbx, dbstore, opts...)
	ctx = backend.WithContext(ctx, be)

	cmd.SetContext(ctx)

	return nil
}

// CloseDBContext closes the database context.
func CloseDBContext(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	dbx := db.FromContext(ctx)
	if dbx != nil {
		if err := dbx.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
	}

	return nil
}
