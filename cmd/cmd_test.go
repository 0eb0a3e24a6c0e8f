package cmd

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/matryer/is"
	"github.com/spf13/cobra"
	"github.com/tricox-dev/tricox/pkg/backend"
	"github.com/tricox-dev/tricox/pkg/config"
	"github.com/tricox-dev/tricox/pkg/db"
	"github.com/tricox-dev/tricox/pkg/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataPath = t.TempDir()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestNewStorage(t *testing.T) {
	is := is.New(t)
	cfg := testConfig(t)

	s, err := NewStorage(cfg)
	is.NoErr(err)
	is.True(s == nil)

	cfg.Blob.Backend = "local"
	s, err = NewStorage(cfg)
	is.NoErr(err)
	_, ok := s.(*storage.LocalStorage)
	is.True(ok)

	cfg.Blob.Backend = "s3"
	cfg.Blob.S3.Bucket = "components"
	cfg.Blob.S3.Endpoint = "http://localhost:9000"
	s, err = NewStorage(cfg)
	is.NoErr(err)
	_, ok = s.(*storage.S3Storage)
	is.True(ok)

	cfg.Blob.Backend = "ftp"
	_, err = NewStorage(cfg)
	is.True(err != nil)
}

func TestInitBackendContext(t *testing.T) {
	is := is.New(t)
	cfg := testConfig(t)

	ctx := config.WithContext(context.TODO(), cfg)
	ctx = log.WithContext(ctx, log.New(io.Discard))
	c := &cobra.Command{}
	c.SetContext(ctx)

	is.NoErr(InitBackendContext(c, nil))
	is.True(db.FromContext(c.Context()) != nil)
	be := backend.FromContext(c.Context())
	is.True(be != nil)
	is.Equal(be.Config(), cfg)
	is.NoErr(be.Ping(c.Context()))
	is.NoErr(CloseDBContext(c, nil))
}

func TestInitBackendContextNoConfig(t *testing.T) {
	is := is.New(t)
	c := &cobra.Command{}
	c.SetContext(context.TODO())
	is.Equal(InitBackendContext(c, nil), config.ErrNilConfig)
}
