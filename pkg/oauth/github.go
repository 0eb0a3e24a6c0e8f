// Package oauth implements the GitHub OAuth login flow.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tricox-dev/tricox/pkg/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// ErrExchange is returned when the provider rejects an authorization code.
var ErrExchange = errors.New("oauth exchange failed")

// Identity is the account information returned by a provider.
type Identity struct {
	// Login is the provider account handle.
	Login string
	// Email is the primary email, or the public profile email.
	Email string
}

// Provider exchanges authorization codes for identities.
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (Identity, error)
}

// GitHub is the GitHub OAuth provider.
type GitHub struct {
	conf   *oauth2.Config
	apiURL string
}

var _ Provider = (*GitHub)(nil)

// NewGitHub returns a GitHub provider configured from cfg.
func NewGitHub(cfg config.GitHubConfig) *GitHub {
	endpoint := github.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}

	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = "https://api.github.com"
	}

	return &GitHub{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"read:user", "user:email"},
		},
		apiURL: strings.TrimSuffix(apiURL, "/"),
	}
}

// AuthCodeURL returns the URL users are sent to for authorization.
func (g *GitHub) AuthCodeURL(state string) string {
	return g.conf.AuthCodeURL(state)
}

type githubUser struct {
	Login string `json:"login"`
	Email string `json:"email"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// Exchange trades code for a provider token and fetches the account's
// handle and email. Codes the provider rejects return an error wrapping
// ErrExchange. Transport and server failures do not.
func (g *GitHub) Exchange(ctx context.Context, code string) (Identity, error) {
	tok, err := g.conf.Exchange(ctx, code)
	if err != nil {
		// GitHub may answer a bad code with 200 and an error body, which
		// oauth2 still reports as a RetrieveError with an error code.
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.ErrorCode != "" {
			msg := rerr.ErrorCode
			if rerr.ErrorDescription != "" {
				msg = rerr.ErrorDescription
			}
			return Identity{}, fmt.Errorf("%w: %s", ErrExchange, msg)
		}
		return Identity{}, fmt.Errorf("exchange code: %w", err)
	}

	client := g.conf.Client(ctx, tok)

	var user githubUser
	if err := getJSON(ctx, client, g.apiURL+"/user", &user); err != nil {
		return Identity{}, err
	}

	var emails []githubEmail
	if err := getJSON(ctx, client, g.apiURL+"/user/emails", &emails); err != nil {
		return Identity{}, err
	}

	id := Identity{Login: user.Login, Email: user.Email}
	for _, e := range emails {
		if e.Primary && e.Email != "" {
			id.Email = e.Email
			break
		}
	}

	return id, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close() // nolint: errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get %s: unexpected status %s", url, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}

	return nil
}
