package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/matryer/is"
	"github.com/tricox-dev/tricox/pkg/config"
)

func newFakeGitHub(t *testing.T, emails []githubEmail, profileEmail string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.Form.Get("code") != "good" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":             "bad_verification_code",
				"error_description": "The code passed is incorrect or expired.",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "gho_test",
			"token_type":   "bearer",
		})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gho_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(githubUser{Login: "octocat", Email: profileEmail})
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(emails)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(srv *httptest.Server) *GitHub {
	return NewGitHub(config.GitHubConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		AuthURL:      srv.URL + "/login/oauth/authorize",
		TokenURL:     srv.URL + "/login/oauth/access_token",
		APIURL:       srv.URL,
	})
}

func TestExchangePrimaryEmail(t *testing.T) {
	is := is.New(t)
	srv := newFakeGitHub(t, []githubEmail{
		{Email: "other@example.com"},
		{Email: "octo@example.com", Primary: true, Verified: true},
	}, "public@example.com")

	id, err := newTestProvider(srv).Exchange(context.TODO(), "good")
	is.NoErr(err)
	is.Equal(id.Login, "octocat")
	is.Equal(id.Email, "octo@example.com")
}

func TestExchangeFallsBackToProfileEmail(t *testing.T) {
	is := is.New(t)
	srv := newFakeGitHub(t, []githubEmail{{Email: "other@example.com"}}, "public@example.com")

	id, err := newTestProvider(srv).Exchange(context.TODO(), "good")
	is.NoErr(err)
	is.Equal(id.Email, "public@example.com")
}

func TestExchangeNoEmail(t *testing.T) {
	is := is.New(t)
	srv := newFakeGitHub(t, nil, "")

	id, err := newTestProvider(srv).Exchange(context.TODO(), "good")
	is.NoErr(err)
	is.Equal(id.Email, "")
}

func TestExchangeBadCode(t *testing.T) {
	is := is.New(t)
	srv := newFakeGitHub(t, nil, "")

	_, err := newTestProvider(srv).Exchange(context.TODO(), "bad")
	is.True(errors.Is(err, ErrExchange))
}

func TestExchangeErrorBodyWithOK(t *testing.T) {
	is := is.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad_verification_code"})
	}))
	t.Cleanup(srv.Close)

	_, err := newTestProvider(srv).Exchange(context.TODO(), "bad")
	is.True(errors.Is(err, ErrExchange))
}

func TestExchangeServerError(t *testing.T) {
	is := is.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := newTestProvider(srv).Exchange(context.TODO(), "good")
	is.True(err != nil)
	is.True(!errors.Is(err, ErrExchange))
}

func TestExchangeUnreachable(t *testing.T) {
	is := is.New(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	p := newTestProvider(srv)
	srv.Close()

	_, err := p.Exchange(context.TODO(), "good")
	is.True(err != nil)
	is.True(!errors.Is(err, ErrExchange))
}

func TestAuthCodeURL(t *testing.T) {
	is := is.New(t)
	srv := newFakeGitHub(t, nil, "")

	u, err := url.Parse(newTestProvider(srv).AuthCodeURL("xyz"))
	is.NoErr(err)
	is.Equal(u.Path, "/login/oauth/authorize")
	is.Equal(u.Query().Get("state"), "xyz")
	is.Equal(u.Query().Get("client_id"), "id")
}
