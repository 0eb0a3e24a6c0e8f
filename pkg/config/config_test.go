package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"
)

func TestDefaultPolicyIsPermissive(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	is.True(cfg.Policy.PublicDetails)
	is.True(cfg.Policy.OpenTokenListing)
	is.True(cfg.Policy.TrustBodyUserID)
	is.True(!cfg.Admin.Bootstrap)
	is.Equal(cfg.Admin.Email, "admin@gmail.com")
}

func TestParseEnvPolicy(t *testing.T) {
	is := is.New(t)
	t.Setenv("TRICOX_DATA_PATH", t.TempDir())
	t.Setenv("TRICOX_POLICY_PUBLIC_DETAILS", "false")
	t.Setenv("TRICOX_POLICY_TRUST_BODY_USER_ID", "false")
	t.Setenv("TRICOX_ADMIN_EMAIL", " Root@Example.com ")
	cfg := DefaultConfig()
	is.NoErr(cfg.ParseEnv())
	is.True(!cfg.Policy.PublicDetails)
	is.True(cfg.Policy.OpenTokenListing)
	is.True(!cfg.Policy.TrustBodyUserID)
	is.Equal(cfg.Admin.Email, "root@example.com")
}

func TestParseEnvNested(t *testing.T) {
	is := is.New(t)
	t.Setenv("TRICOX_BLOB_BACKEND", "s3")
	t.Setenv("TRICOX_BLOB_S3_BUCKET", "components")
	t.Setenv("TRICOX_OAUTH_GITHUB_CLIENT_ID", "abc")
	cfg := DefaultConfig()
	is.NoErr(cfg.ParseEnv())
	is.Equal(cfg.Blob.Backend, "s3")
	is.Equal(cfg.Blob.S3.Bucket, "components")
	is.Equal(cfg.OAuth.GitHub.ClientID, "abc")
}

func TestValidateBlobBackend(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	cfg.DataPath = t.TempDir()
	cfg.Blob.Backend = "s3"
	is.True(cfg.Validate() != nil)
	cfg.Blob.S3.Bucket = "b"
	is.NoErr(cfg.Validate())
	cfg.Blob.Backend = "ftp"
	is.True(cfg.Validate() != nil)
}

func TestValidatePaths(t *testing.T) {
	is := is.New(t)
	td := t.TempDir()
	cfg := DefaultConfig()
	cfg.DataPath = td
	cfg.HTTP.BasePath = "api/"
	cfg.HTTP.PublicURL = "http://localhost:3000/"
	is.NoErr(cfg.Validate())
	is.Equal(cfg.HTTP.BasePath, "/api")
	is.Equal(cfg.HTTP.PublicURL, "http://localhost:3000")
	is.True(strings.HasPrefix(cfg.DB.DataSource, td))
	is.Equal(cfg.Blob.Path, filepath.Join(td, "blobs"))
}

func TestWriteAndParseConfig(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	cfg.DataPath = t.TempDir()
	cfg.Name = "Written"
	cfg.Policy.OpenTokenListing = false
	is.NoErr(cfg.WriteConfig())
	is.True(cfg.Exist())

	parsed := DefaultConfig()
	parsed.DataPath = cfg.DataPath
	is.NoErr(parsed.ParseFile())
	is.Equal(parsed.Name, "Written")
	is.True(!parsed.Policy.OpenTokenListing)
	is.Equal(parsed.Jobs.Stats, "@every 1m")
}

func TestCustomConfigLocation(t *testing.T) {
	is := is.New(t)
	td := t.TempDir()
	t.Cleanup(func() {
		is.NoErr(os.Unsetenv("TRICOX_CONFIG_LOCATION"))
	})

	// Test that we get data from the custom file location, and not from the data dir.
	is.NoErr(os.Setenv("TRICOX_CONFIG_LOCATION", "testdata/config.yaml"))
	t.Setenv("TRICOX_DATA_PATH", td)
	cfg := DefaultConfig()
	is.NoErr(cfg.Parse())
	is.Equal(cfg.Name, "Test server name")
	is.Equal(cfg.HTTP.ListenAddr, ":8080")
	is.True(!cfg.Policy.PublicDetails)
	// If we unset the custom location, then use the default location.
	is.NoErr(os.Unsetenv("TRICOX_CONFIG_LOCATION"))
	cfg = DefaultConfig()
	is.Equal(cfg.Name, "Tricox")
	// Test that if the custom config location doesn't exist, default to datapath config.
	is.NoErr(os.Setenv("TRICOX_CONFIG_LOCATION", "testdata/config_nonexistent.yaml"))
	cfg = DefaultConfig()
	is.Equal(cfg.ConfigPath(), filepath.Join(td, "config.yaml"))
}

func TestEnvironOmitsSecrets(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	cfg.OAuth.GitHub.ClientSecret = "shh"
	cfg.Admin.SeedPassword = "hunter2"
	for _, e := range cfg.Environ() {
		is.True(!strings.Contains(e, "shh"))
		is.True(!strings.Contains(e, "hunter2"))
	}
	is.Equal(len((*Config)(nil).Environ()), 1)
}
