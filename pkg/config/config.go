package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

var binPath = "tricox"

// ErrNilConfig is returned when a nil config is passed to a function.
var ErrNilConfig = errors.New("nil config")

// HTTPConfig is the HTTP configuration for the server.
type HTTPConfig struct {
	// ListenAddr is the address on which the HTTP server will listen.
	ListenAddr string `env:"LISTEN_ADDR" yaml:"listen_addr"`

	// TLSKeyPath is the path to the TLS private key.
	TLSKeyPath string `env:"TLS_KEY_PATH" yaml:"tls_key_path"`

	// TLSCertPath is the path to the TLS certificate.
	TLSCertPath string `env:"TLS_CERT_PATH" yaml:"tls_cert_path"`

	// PublicURL is the public URL of the HTTP server.
	PublicURL string `env:"PUBLIC_URL" yaml:"public_url"`

	// BasePath is the path prefix all API routes are mounted under.
	BasePath string `env:"BASE_PATH" yaml:"base_path"`

	// MaxUploadSize is the maximum size in bytes of a shipped file.
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" yaml:"max_upload_size"`
}

// StatsConfig is the configuration for the stats server.
type StatsConfig struct {
	// ListenAddr is the address on which the stats server will listen.
	ListenAddr string `env:"LISTEN_ADDR" yaml:"listen_addr"`
}

// LogConfig is the logger configuration.
type LogConfig struct {
	// Format is the format of the logs.
	// Valid values are "json", "logfmt", and "text".
	Format string `env:"FORMAT" yaml:"format"`

	// Time format for the log `ts` field.
	// Format must be described in Golang's time format.
	TimeFormat string `env:"TIME_FORMAT" yaml:"time_format"`

	// Path to a file to write logs to.
	// If not set, logs will be written to stderr.
	Path string `env:"PATH" yaml:"path"`
}

// DBConfig is the database connection configuration.
type DBConfig struct {
	// Driver is the driver for the database.
	Driver string `env:"DRIVER" yaml:"driver"`

	// DataSource is the database data source name.
	DataSource string `env:"DATA_SOURCE" yaml:"data_source"`
}

// S3Config is the configuration of the S3 blob backend.
type S3Config struct {
	Bucket          string `env:"BUCKET" yaml:"bucket"`
	Region          string `env:"REGION" yaml:"region"`
	Endpoint        string `env:"ENDPOINT" yaml:"endpoint"`
	AccessKeyID     string `env:"ACCESS_KEY_ID" yaml:"access_key_id"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY" yaml:"secret_access_key"`
	Prefix          string `env:"PREFIX" yaml:"prefix"`
}

// BlobConfig is the configuration for component content storage.
type BlobConfig struct {
	// Backend is where version contents are kept.
	// Valid values are "database", "local", and "s3".
	Backend string `env:"BACKEND" yaml:"backend"`

	// Path is the root directory of the local backend.
	Path string `env:"PATH" yaml:"path"`

	// S3 is the S3 backend configuration.
	S3 S3Config `envPrefix:"S3_" yaml:"s3"`
}

// GitHubConfig is the GitHub OAuth application configuration.
type GitHubConfig struct {
	ClientID     string `env:"CLIENT_ID" yaml:"client_id"`
	ClientSecret string `env:"CLIENT_SECRET" yaml:"client_secret"`
	RedirectURL  string `env:"REDIRECT_URL" yaml:"redirect_url"`

	// AuthURL, TokenURL, and APIURL override the GitHub endpoints. They are
	// mostly useful for GitHub Enterprise installations.
	AuthURL  string `env:"AUTH_URL" yaml:"auth_url"`
	TokenURL string `env:"TOKEN_URL" yaml:"token_url"`
	APIURL   string `env:"API_URL" yaml:"api_url"`

	// StateSecret signs the OAuth state parameter.
	// When empty, states are not verified.
	StateSecret string `env:"STATE_SECRET" yaml:"state_secret"`
}

// OAuthConfig is the OAuth configuration.
type OAuthConfig struct {
	GitHub GitHubConfig `envPrefix:"GITHUB_" yaml:"github"`
}

// AdminConfig is the configuration of the administrator identity.
type AdminConfig struct {
	// Email is the address of the administrator. There is no role table,
	// the admin is whoever authenticates with this email.
	Email string `env:"EMAIL" yaml:"email"`

	// Org is the name of the organization created with the admin user.
	Org string `env:"ORG" yaml:"org"`

	// SeedPassword is used to provision the admin user at startup.
	SeedPassword string `env:"SEED_PASSWORD" yaml:"seed_password"`

	// Bootstrap enables the legacy behavior of creating the admin user the
	// first time someone logs in with the admin email.
	Bootstrap bool `env:"BOOTSTRAP" yaml:"bootstrap"`
}

// PolicyConfig holds access-control toggles.
type PolicyConfig struct {
	// PublicDetails allows anyone to read a component's details and content
	// by id, regardless of its visibility.
	PublicDetails bool `env:"PUBLIC_DETAILS" yaml:"public_details"`

	// OpenTokenListing allows listing any user's tokens without
	// authentication.
	OpenTokenListing bool `env:"OPEN_TOKEN_LISTING" yaml:"open_token_listing"`

	// TrustBodyUserID accepts the user id from the request body for token
	// creation and password changes.
	TrustBodyUserID bool `env:"TRUST_BODY_USER_ID" yaml:"trust_body_user_id"`
}

// JobsConfig is the configuration for cron jobs.
type JobsConfig struct {
	Stats string `env:"STATS" yaml:"stats"`
}

// CacheConfig is the in-memory cache configuration.
type CacheConfig struct {
	Size int `env:"SIZE" yaml:"size"`
}

// Config is the configuration for Tricox.
type Config struct {
	// Name is the name of the server.
	Name string `env:"NAME" yaml:"name"`

	// HTTP is the configuration for the HTTP server.
	HTTP HTTPConfig `envPrefix:"HTTP_" yaml:"http"`

	// Stats is the configuration for the stats server.
	Stats StatsConfig `envPrefix:"STATS_" yaml:"stats"`

	// Log is the logger configuration.
	Log LogConfig `envPrefix:"LOG_" yaml:"log"`

	// DB is the database configuration.
	DB DBConfig `envPrefix:"DB_" yaml:"db"`

	// Blob is the content storage configuration.
	Blob BlobConfig `envPrefix:"BLOB_" yaml:"blob"`

	// OAuth is the OAuth providers configuration.
	OAuth OAuthConfig `envPrefix:"OAUTH_" yaml:"oauth"`

	// Admin is the administrator configuration.
	Admin AdminConfig `envPrefix:"ADMIN_" yaml:"admin"`

	// Policy is the access policy configuration.
	Policy PolicyConfig `envPrefix:"POLICY_" yaml:"policy"`

	// Jobs is the configuration for cron jobs.
	Jobs JobsConfig `envPrefix:"JOBS_" yaml:"jobs"`

	// Cache is the cache configuration.
	Cache CacheConfig `envPrefix:"CACHE_" yaml:"cache"`

	// DataPath is the path to the directory where Tricox will store its data.
	DataPath string `env:"DATA_PATH" yaml:"-"`
}

// Environ returns the config as a list of environment variables.
func (c *Config) Environ() []string {
	envs := []string{
		fmt.Sprintf("TRICOX_BIN_PATH=%s", binPath),
	}
	if c == nil {
		return envs
	}

	// Secrets are left out on purpose.
	envs = append(envs, []string{
		fmt.Sprintf("TRICOX_DATA_PATH=%s", c.DataPath),
		fmt.Sprintf("TRICOX_NAME=%s", c.Name),
		fmt.Sprintf("TRICOX_HTTP_LISTEN_ADDR=%s", c.HTTP.ListenAddr),
		fmt.Sprintf("TRICOX_HTTP_TLS_KEY_PATH=%s", c.HTTP.TLSKeyPath),
		fmt.Sprintf("TRICOX_HTTP_TLS_CERT_PATH=%s", c.HTTP.TLSCertPath),
		fmt.Sprintf("TRICOX_HTTP_PUBLIC_URL=%s", c.HTTP.PublicURL),
		fmt.Sprintf("TRICOX_HTTP_BASE_PATH=%s", c.HTTP.BasePath),
		fmt.Sprintf("TRICOX_HTTP_MAX_UPLOAD_SIZE=%d", c.HTTP.MaxUploadSize),
		fmt.Sprintf("TRICOX_STATS_LISTEN_ADDR=%s", c.Stats.ListenAddr),
		fmt.Sprintf("TRICOX_LOG_FORMAT=%s", c.Log.Format),
		fmt.Sprintf("TRICOX_LOG_TIME_FORMAT=%s", c.Log.TimeFormat),
		fmt.Sprintf("TRICOX_DB_DRIVER=%s", c.DB.Driver),
		fmt.Sprintf("TRICOX_DB_DATA_SOURCE=%s", c.DB.DataSource),
		fmt.Sprintf("TRICOX_BLOB_BACKEND=%s", c.Blob.Backend),
		fmt.Sprintf("TRICOX_BLOB_PATH=%s", c.Blob.Path),
		fmt.Sprintf("TRICOX_BLOB_S3_BUCKET=%s", c.Blob.S3.Bucket),
		fmt.Sprintf("TRICOX_BLOB_S3_REGION=%s", c.Blob.S3.Region),
		fmt.Sprintf("TRICOX_BLOB_S3_ENDPOINT=%s", c.Blob.S3.Endpoint),
		fmt.Sprintf("TRICOX_OAUTH_GITHUB_CLIENT_ID=%s", c.OAuth.GitHub.ClientID),
		fmt.Sprintf("TRICOX_OAUTH_GITHUB_REDIRECT_URL=%s", c.OAuth.GitHub.RedirectURL),
		fmt.Sprintf("TRICOX_ADMIN_EMAIL=%s", c.Admin.Email),
		fmt.Sprintf("TRICOX_ADMIN_ORG=%s", c.Admin.Org),
		fmt.Sprintf("TRICOX_ADMIN_BOOTSTRAP=%t", c.Admin.Bootstrap),
		fmt.Sprintf("TRICOX_POLICY_PUBLIC_DETAILS=%t", c.Policy.PublicDetails),
		fmt.Sprintf("TRICOX_POLICY_OPEN_TOKEN_LISTING=%t", c.Policy.OpenTokenListing),
		fmt.Sprintf("TRICOX_POLICY_TRUST_BODY_USER_ID=%t", c.Policy.TrustBodyUserID),
		fmt.Sprintf("TRICOX_JOBS_STATS=%s", c.Jobs.Stats),
		fmt.Sprintf("TRICOX_CACHE_SIZE=%d", c.Cache.Size),
	}...)

	return envs
}

// IsDebug returns true if the server is running in debug mode.
func IsDebug() bool {
	debug, _ := strconv.ParseBool(os.Getenv("TRICOX_DEBUG"))
	return debug
}

// IsVerbose returns true if the server is running in verbose mode.
// Verbose mode is only enabled if debug mode is enabled.
func IsVerbose() bool {
	verbose, _ := strconv.ParseBool(os.Getenv("TRICOX_VERBOSE"))
	return IsDebug() && verbose
}

// parseFile parses the given file as a configuration file.
// The file must be in YAML format.
func parseFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}

	defer f.Close() // nolint: errcheck
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	return cfg.Validate()
}

// ParseFile parses the config from the default file path.
// This also calls Validate() on the config.
func (c *Config) ParseFile() error {
	return parseFile(c, c.ConfigPath())
}

// parseEnv parses the environment variables as a configuration file.
func parseEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{
		Prefix: "TRICOX_",
	}); err != nil {
		return fmt.Errorf("parse environment variables: %w", err)
	}

	return cfg.Validate()
}

// ParseEnv parses the config from the environment variables.
// This also calls Validate() on the config.
func (c *Config) ParseEnv() error {
	return parseEnv(c)
}

// Parse parses the config from the default file path and environment variables.
// This also calls Validate() on the config.
func (c *Config) Parse() error {
	if err := c.ParseFile(); err != nil {
		return err
	}

	return c.ParseEnv()
}

// writeConfig writes the configuration to the given file.
func writeConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(newConfigFile(cfg)), 0o600) // nolint: gosec
}

// WriteConfig writes the configuration to the default file.
func (c *Config) WriteConfig() error {
	return writeConfig(c, c.ConfigPath())
}

// DefaultDataPath returns the path to the data directory.
// It uses the TRICOX_DATA_PATH environment variable if set, otherwise it
// uses "data".
func DefaultDataPath() string {
	dp := os.Getenv("TRICOX_DATA_PATH")
	if dp == "" {
		dp = "data"
	}

	return dp
}

// ConfigPath returns the path to the config file.
// TRICOX_CONFIG_LOCATION takes precedence when it points to an existing file.
func (c *Config) ConfigPath() string { // nolint:revive
	if path := os.Getenv("TRICOX_CONFIG_LOCATION"); exist(path) {
		return path
	}

	return filepath.Join(c.DataPath, "config.yaml")
}

func exist(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// Exist returns true if the config file exists.
func (c *Config) Exist() bool {
	return exist(c.ConfigPath())
}

// DefaultConfig returns the default Config. All the path values are relative
// to the data directory.
// Use Validate() to validate the config and ensure absolute paths.
func DefaultConfig() *Config {
	return &Config{
		Name:     "Tricox",
		DataPath: DefaultDataPath(),
		HTTP: HTTPConfig{
			ListenAddr:    ":3000",
			PublicURL:     "http://localhost:3000",
			MaxUploadSize: 10 << 20,
		},
		Stats: StatsConfig{
			ListenAddr: "localhost:3001",
		},
		Log: LogConfig{
			Format:     "text",
			TimeFormat: time.DateTime,
		},
		DB: DBConfig{
			Driver: "sqlite",
			DataSource: "tricox.db" +
				"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)",
		},
		Blob: BlobConfig{
			Backend: "database",
			Path:    "blobs",
		},
		OAuth: OAuthConfig{
			GitHub: GitHubConfig{
				APIURL: "https://api.github.com",
			},
		},
		Admin: AdminConfig{
			Email: "admin@gmail.com",
			Org:   "Tricox Admin",
		},
		Policy: PolicyConfig{
			PublicDetails:    true,
			OpenTokenListing: true,
			TrustBodyUserID:  true,
		},
		Jobs: JobsConfig{
			Stats: "@every 1m",
		},
		Cache: CacheConfig{
			Size: 1000,
		},
	}
}

// Validate validates the configuration.
// It updates the configuration with absolute paths.
func (c *Config) Validate() error {
	// Use absolute paths
	if !filepath.IsAbs(c.DataPath) {
		dp, err := filepath.Abs(c.DataPath)
		if err != nil {
			return err
		}
		c.DataPath = dp
	}

	c.HTTP.PublicURL = strings.TrimSuffix(c.HTTP.PublicURL, "/")
	c.HTTP.BasePath = strings.TrimSuffix(c.HTTP.BasePath, "/")
	if c.HTTP.BasePath != "" && !strings.HasPrefix(c.HTTP.BasePath, "/") {
		c.HTTP.BasePath = "/" + c.HTTP.BasePath
	}

	if c.HTTP.TLSKeyPath != "" && !filepath.IsAbs(c.HTTP.TLSKeyPath) {
		c.HTTP.TLSKeyPath = filepath.Join(c.DataPath, c.HTTP.TLSKeyPath)
	}

	if c.HTTP.TLSCertPath != "" && !filepath.IsAbs(c.HTTP.TLSCertPath) {
		c.HTTP.TLSCertPath = filepath.Join(c.DataPath, c.HTTP.TLSCertPath)
	}

	if strings.HasPrefix(c.DB.Driver, "sqlite") && !filepath.IsAbs(c.DB.DataSource) {
		c.DB.DataSource = filepath.Join(c.DataPath, c.DB.DataSource)
	}

	if c.Blob.Path != "" && !filepath.IsAbs(c.Blob.Path) {
		c.Blob.Path = filepath.Join(c.DataPath, c.Blob.Path)
	}

	switch c.Blob.Backend {
	case "", "database", "local":
	case "s3":
		if c.Blob.S3.Bucket == "" {
			return fmt.Errorf("blob: s3 backend requires a bucket")
		}
	default:
		return fmt.Errorf("blob: unknown backend %q", c.Blob.Backend)
	}

	c.Admin.Email = strings.ToLower(strings.TrimSpace(c.Admin.Email))

	return nil
}

func init() {
	ex, err := os.Executable()
	if err != nil {
		ex = "tricox"
	}
	ex = filepath.ToSlash(ex)
	binPath = ex
}
