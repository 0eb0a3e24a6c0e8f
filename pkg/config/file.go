package config

import (
	"bytes"
	"text/template"
)

var configFileTmpl = template.Must(template.New("config").Parse(`# Tricox server configurations

# The name of the server.
name: "{{ .Name }}"

# Logging configuration.
log:
  # Log format to use. Valid values are "json", "logfmt", and "text".
  format: "{{ .Log.Format }}"
  # Time format for the log "timestamp" field.
  # Should be described in Golang's time format.
  time_format: "{{ .Log.TimeFormat }}"
  # Path to the log file. Leave empty to write to stderr.
  #path: "{{ .Log.Path }}"

# The HTTP server configuration.
http:
  # The address on which the HTTP server will listen.
  listen_addr: "{{ .HTTP.ListenAddr }}"

  # The path to the TLS private key.
  tls_key_path: {{ .HTTP.TLSKeyPath }}

  # The path to the TLS certificate.
  tls_cert_path: {{ .HTTP.TLSCertPath }}

  # The public URL of the HTTP server.
  public_url: "{{ .HTTP.PublicURL }}"

  # Prefix for every API route, e.g. "/api".
  base_path: "{{ .HTTP.BasePath }}"

  # Maximum size in bytes of a shipped component file.
  max_upload_size: {{ .HTTP.MaxUploadSize }}

# The stats server configuration.
stats:
  # The address on which the stats server will listen.
  listen_addr: "{{ .Stats.ListenAddr }}"

# The database configuration.
db:
  # The database driver to use.
  # Valid values are "sqlite" and "postgres".
  driver: "{{ .DB.Driver }}"
  # The database data source name.
  # This is driver specific and can be a file path or connection string.
  # Make sure foreign key support is enabled when using SQLite.
  data_source: "{{ .DB.DataSource }}"

# Component content storage.
blob:
  # Valid values are "database", "local", and "s3".
  backend: "{{ .Blob.Backend }}"
  # Root directory of the local backend.
  path: "{{ .Blob.Path }}"
  s3:
    bucket: "{{ .Blob.S3.Bucket }}"
    region: "{{ .Blob.S3.Region }}"
    endpoint: "{{ .Blob.S3.Endpoint }}"
    prefix: "{{ .Blob.S3.Prefix }}"
    # Credentials are better passed through the environment.
    #access_key_id: ""
    #secret_access_key: ""

# OAuth providers.
oauth:
  github:
    client_id: "{{ .OAuth.GitHub.ClientID }}"
    #client_secret: ""
    redirect_url: "{{ .OAuth.GitHub.RedirectURL }}"
    api_url: "{{ .OAuth.GitHub.APIURL }}"
    # Secret used to sign the OAuth state parameter.
    #state_secret: ""

# The administrator identity.
admin:
  email: "{{ .Admin.Email }}"
  org: "{{ .Admin.Org }}"
  # Create the admin account on startup with this password.
  #seed_password: ""
  # Create the admin account on its first login.
  bootstrap: {{ .Admin.Bootstrap }}

# Access policy toggles.
policy:
  # Anyone can read component details and content by id.
  public_details: {{ .Policy.PublicDetails }}
  # Anyone can list a user's access tokens.
  open_token_listing: {{ .Policy.OpenTokenListing }}
  # Token creation and password changes accept the user id from the body.
  trust_body_user_id: {{ .Policy.TrustBodyUserID }}

# Cron job schedules.
jobs:
  stats: "{{ .Jobs.Stats }}"

# In-memory cache.
cache:
  size: {{ .Cache.Size }}
`))

func newConfigFile(cfg *Config) string {
	var b bytes.Buffer
	configFileTmpl.Execute(&b, cfg) // nolint: errcheck
	return b.String()
}
