package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/matryer/is"
	"github.com/tricox-dev/tricox/pkg/backend"
	"github.com/tricox-dev/tricox/pkg/config"
	"github.com/tricox-dev/tricox/pkg/db"
	"github.com/tricox-dev/tricox/pkg/db/migrate"
	"github.com/tricox-dev/tricox/pkg/store/database"
)

type testServer struct {
	t  *testing.T
	be *backend.Backend
	h  http.Handler
}

func newTestServer(t *testing.T, opts ...func(*config.Config)) *testServer {
	t.Helper()
	is := is.New(t)

	cfg := config.DefaultConfig()
	cfg.DataPath = t.TempDir()
	for _, opt := range opts {
		opt(cfg)
	}

	ctx := log.WithContext(context.TODO(), log.New(&bytes.Buffer{}))
	dsn := filepath.Join(cfg.DataPath, "test.db") + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	dbx, err := db.Open(ctx, "sqlite", dsn)
	is.NoErr(err)
	t.Cleanup(func() { dbx.Close() }) // nolint: errcheck
	is.NoErr(migrate.Migrate(ctx, dbx))

	be := backend.New(ctx, cfg, dbx, database.New(ctx, dbx))
	ctx = config.WithContext(ctx, cfg)
	ctx = backend.WithContext(ctx, be)
	ctx = db.WithContext(ctx, dbx)

	return &testServer{t: t, be: be, h: NewRouter(ctx)}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var r *http.Request
	switch b := body.(type) {
	case nil:
		r = httptest.NewRequest(method, path, nil)
	case *http.Request:
		r = b
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			s.t.Fatal(err)
		}
		r = httptest.NewRequest(method, path, bytes.NewReader(buf))
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", token)
	}

	w := httptest.NewRecorder()
	s.h.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

// signupLogin registers a user and returns its id and token.
func (s *testServer) signupLogin(email, org string) (int64, string) {
	s.t.Helper()
	w := s.do(http.MethodPost, "/auth/signup", "", map[string]string{
		"email": email, "orgName": org, "password": "hunter2",
	})
	if w.Code != http.StatusCreated {
		s.t.Fatalf("signup: %d %s", w.Code, w.Body.String())
	}

	w = s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": email, "password": "hunter2",
	})
	if w.Code != http.StatusOK {
		s.t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}

	var res struct {
		ID    int64  `json:"id"`
		Token string `json:"token"`
	}
	decode(s.t, w, &res)
	return res.ID, res.Token
}

func shipRequest(t *testing.T, path string, fields map[string]string, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	fw, err := mw.CreateFormFile("file", "Button.tsx")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content)) // nolint: errcheck
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	r := httptest.NewRequest(http.MethodPost, path, &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestHealth(t *testing.T) {
	is := is.New(t)
	s := newTestServer(t)

	is.Equal(s.do(http.MethodGet, "/livez", "", nil).Code, http.StatusOK)
	is.Equal(s.do(http.MethodGet, "/readyz", "", nil).Code, http.StatusOK)
}

func TestNotFound(t *testing.T) {
	is := is.New(t)
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/nope", "", nil)
	is.Equal(w.Code, http.StatusNotFound)

	var res errorResponse
	decode(t, w, &res)
	is.Equal(res.StatusCode, http.StatusNotFound)
	is.True(w.Header().Get(RequestIDHeader) != "")
}

func TestSignupLoginMe(t *testing.T) {
	is := is.New(t)
	s := newTestServer(t)

	id, token := s.signupLogin("alice@x.com", "acme")
	is.True(token != "")

	for _, hdr := range []string{token, "Bearer " + token} {
		w := s.do(http.MethodGet, "/auth/me", hdr, nil)
		is.Equal(w.Code, http.StatusOK)

		var me userResponse
		decode(t, w, &me)
		is.Equal(me.ID, id)
		is.Equal(me.Email, "alice@x.com")
		is.Equal(len(me.OwnedOrgs), 1)
		is.Equal(me.OwnedOrgs[0].Name, "acme")
		is.True(!strings.Contains(w.Body.String(), "password"))
	}

	is.Equal(s.do(http.MethodGet, "/auth/me", "", nil).Code, http.StatusUnauthorized)
	is.Equal(s.do(http.MethodGet, "/auth/me", "garbage", nil).Code, http.StatusUnauthorized)

	w := s.do(http.MethodPost, "/auth/signup", "", map[string]string{
		"email": "alice@x.com", "orgName": "other", "password": "x",
	})
	is.Equal(w.Code, http.StatusConflict)

	w = s.do(http.MethodPost, "/auth/signup", "", map[string]string{
		"email": "bob@x.com", "orgName": "bobco",
	})
	is.Equal(w.Code, http.StatusBadRequest)

	w = s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": "alice@x.com", "password": "wrong",
	})
	is.Equal(w.Code, http.StatusUnauthorized)

	w = s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "ghost@x.com"})
	is.Equal(w.Code, http.StatusNotFound)
}

func TestShipDock(t *testing.T) {
	is := is.New(t)
	s := newTestServer(t)

	_, token := s.signupLogin("alice@x.com", "acme")

	fields := map[string]string{
		"name":         "Button",
		"org":          "acme",
		"dependencies": `["react"]`,
		"isPublic":     "false",
	}
	w := s.do(http.MethodPost, "", token, shipRequest(t, "/components/ship", fields, "export const Button=..."))
	is.Equal(w.Code, http.StatusCreated)

	var shipped struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	decode(t, w, &shipped)
	is.True(shipped.Success)
	is.True(strings.HasPrefix(shipped.Message, "Shipped acme/Button@1.0."))

	w = s.do(http.MethodPost, "", "", shipRequest(t, "/components/ship", fields, "x"))
	is.Equal(w.Code, http.StatusUnauthorized)

	w = s.do(http.MethodGet, "/components/dock/acme/Button", "", nil)
	is.Equal(w.Code, http.StatusOK)
	var pkg packageResponse
	decode(t, w, &pkg)
	is.Equal(pkg.Content, "export const Button=...")
	is.Equal(pkg.Metadata["dependencies"], []interface{}{"react"})

	w = s.do(http.MethodGet, "/components/acme", "", nil)
	is.Equal(w.Code, http.StatusOK)
	var list []componentResponse
	decode(t, w, &list)
	is.Equal(len(list), 1)
	is.Equal(list[0].Downloads, int64(1))
	is.Equal(list[0].LatestVersion, pkg.Version)

	w = s.do(http.MethodGet, "/components/acme?public=true", "", nil)
	decode(t, w, &list)
	is.Equal(len(list), 0)

	is.Equal(s.do(http.MethodGet, "/components/nope", "", nil).Code, http.StatusNotFound)
	is.Equal(s.do(http.MethodGet, "/components/dock/acme/Nope", "", nil).Code, http.StatusNotFound)
}

func TestShipForbidden(t *testing.T) {
	is := is.New(t)
	s := newTestServer(t)

	s.signupLogin("alice@x.com", "acme")
	_, bob := s.signupLogin("bob@x.com", "bobco")

	fields := map[string]string{"name": "Button", "org": "acme"}
	w := s.do(http.MethodPost, "", bob, shipRequest(t, "/components/ship", fields, "x"))
	is.Equal(w.Code, http.StatusForbidden)

	r := httptest.NewRequest(http.MethodPost, "/components/ship", strings.NewReader("{}"))
	r.Header.Set("Content-Type", "application/json")
	w = s.do(http.MethodPost, "", bob, r)
	is.Equal(w.Code, http.StatusBadRequest)
}

func TestShipTooLarge(t *testing.T) {
	is := is.New(t)
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.HTTP.MaxUploadSize = 64
	})

	_, token := s.signupLogin("alice@x.com", "acme")
	fields := map[string]string{"name": "Button", "org": "acme"}
	w := s.do(http.MethodPost, "", token, shipRequest(t, "/components/ship", fields, strings.Repeat("x", 1024)))
	is.Equal(w.Code, http.StatusBadRequest)
}

func TestUpdateDeleteComponent(t *testing.T) {
	is := is.New(t)
	s := newTestServer(t)

	_, alice := s.signupLogin("alice@x.com", "acme")
	_, bob := s.signupLogin("bob@x.com", "bobco")
	fields := map[string]string{"name": "Button", "org": "acme", "isPublic": "true"}
	is.Equal(s.do(http.MethodPost, "", alice, shipRequest(t, "/components/ship", fields, "v1")).Code, http.StatusCreated)

	var list []componentResponse
	decode(t, s.do(http.MethodGet, "/components/acme", "", nil), &list)
	path := fmt.Sprintf("/components/%d", list[0].ID)

	w := s.do(http.MethodPost, path, bob, map[string]string{"content": "evil"})
	is.Equal(w.Code, http.StatusForbidden)

	w = s.do(http.MethodPost, path, alice, map[string]string{"content": "v2"})
	is.Equal(w.Code, http.StatusOK)

	w = s.do(http.MethodGet, fmt.Sprintf("/components/details/%d", list[0].ID), "", nil)
	is.Equal(w.Code, http.StatusOK)
	var details detailsResponse
	decode(t, w, &details)
	is.Equal(details.Content, "v2")
	is.Equal(details.Org, "acme")

	var versions []versionResponse
	decode(t, s.do(http.MethodGet, "/components/acme/Button/versions", "", nil), &versions)
	is.Equal(len(versions), 2)

	w = s.do(http.MethodPost, path+"/visibility", alice, map[string]bool{"isPublic": false})
	is.Equal(w.Code, http.StatusOK)
	decode(t, s.do(http.MethodGet, "/components/acme?public=true", "", nil), &list)
	is.Equal(len(list), 0)

	is.Equal(s.do(http.MethodDelete, path, bob, nil).Code, http.StatusForbidden)
	is.Equal(s.do(http.MethodDelete, path, "", nil).Code, http.StatusUnauthorized)
	is.Equal(s.do(http.MethodDelete, path, alice, nil).Code, http.StatusOK)
	is.Equal(s.do(http.MethodDelete, path, alice, nil).Code, http.StatusNotFound)
}

func TestAdminRoutes(t *testing.T) {
	is := is.New(t)
	s := newTestServer(t)

	_, err := s.be.ProvisionAdmin(context.TODO(), "secret")
	is.NoErr(err)
	w := s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": "admin@gmail.com", "password": "secret",
	})
	is.Equal(w.Code, http.StatusOK)
	var login loginResponse
	decode(t, w, &login)
	admin := login.Token

	aliceID, alice := s.signupLogin("alice@x.com", "acme")
	fields := map[string]string{"name": "Button", "org": "acme"}
	is.Equal(s.do(http.MethodPost, "", alice, shipRequest(t, "/components/ship", fields, "x")).Code, http.StatusCreated)

	for _, path := range []string{"/auth/users", "/components", "/components/dashboard/stats"} {
		is.Equal(s.do(http.MethodGet, path, alice, nil).Code, http.StatusUnauthorized)
		is.Equal(s.do(http.MethodGet, path, "", nil).Code, http.StatusUnauthorized)
		is.Equal(s.do(http.MethodGet, path, admin, nil).Code, http.StatusOK)
	}

	var users []userResponse
	decode(t, s.do(http.MethodGet, "/auth/users", admin, nil), &users)
	is.Equal(len(users), 1)
	is.Equal(users[0].Email, "alice@x.com")

	var stats map[string]int64
	decode(t, s.do(http.MethodGet, "/components/dashboard/stats", admin, nil), &stats)
	is.Equal(stats["totalShips"], int64(1))
	is.Equal(stats["totalFetches"], int64(0))

	var all []componentResponse
	decode(t, s.do(http.MethodGet, "/components", admin, nil), &all)
	is.Equal(len(all), 1)
	is.Equal(all[0].Org, "acme")
	is.Equal(all[0].Owner, "alice@x.com")

	userPath := fmt.Sprintf("/auth/users/%d", aliceID)
	is.Equal(s.do(http.MethodDelete, userPath, alice, nil).Code, http.StatusUnauthorized)
	is.Equal(s.do(http.MethodDelete, userPath, admin, nil).Code, http.StatusOK)
	is.Equal(s.do(http.MethodGet, "/auth/me", alice, nil).Code, http.StatusUnauthorized)
	is.Equal(s.do(http.MethodGet, "/components/acme", "", nil).Code, http.StatusNotFound)
}

func TestTokens(t *testing.T) {
	is := is.New(t)
	s := newTestServer(t)

	aliceID, alice := s.signupLogin("alice@x.com", "acme")
	_, bob := s.signupLogin("bob@x.com", "bobco")

	w := s.do(http.MethodPost, "/auth/token", "", map[string]interface{}{"userId": fmt.Sprint(aliceID), "name": "cli"})
	is.Equal(w.Code, http.StatusCreated)
	var created map[string]string
	decode(t, w, &created)
	is.True(strings.HasPrefix(created["token"], "tcx_"))

	is.Equal(s.do(http.MethodGet, "/auth/me", created["token"], nil).Code, http.StatusOK)

	var tokens []tokenResponse
	decode(t, s.do(http.MethodGet, fmt.Sprintf("/auth/tokens/%d", aliceID), "", nil), &tokens)
	is.Equal(len(tokens), 2)

	var cli tokenResponse
	for _, tok := range tokens {
		if tok.Name == "cli" {
			cli = tok
		}
	}
	path := fmt.Sprintf("/auth/tokens/%d", cli.ID)
	is.Equal(s.do(http.MethodDelete, path, bob, nil).Code, http.StatusUnauthorized)
	is.Equal(s.do(http.MethodDelete, path, alice, nil).Code, http.StatusOK)
	is.Equal(s.do(http.MethodGet, "/auth/me", created["token"], nil).Code, http.StatusUnauthorized)
}

func TestTokenListingPolicy(t *testing.T) {
	for _, open := range []bool{true, false} {
		t.Run(fmt.Sprint(open), func(t *testing.T) {
			is := is.New(t)
			s := newTestServer(t, func(cfg *config.Config) {
				cfg.Policy.OpenTokenListing = open
			})

			aliceID, alice := s.signupLogin("alice@x.com", "acme")
			_, bob := s.signupLogin("bob@x.com", "bobco")
			path := fmt.Sprintf("/auth/tokens/%d", aliceID)

			is.Equal(s.do(http.MethodGet, path, alice, nil).Code, http.StatusOK)
			if open {
				is.Equal(s.do(http.MethodGet, path, "", nil).Code, http.StatusOK)
				is.Equal(s.do(http.MethodGet, path, bob, nil).Code, http.StatusOK)
			} else {
				is.Equal(s.do(http.MethodGet, path, "", nil).Code, http.StatusUnauthorized)
				is.Equal(s.do(http.MethodGet, path, bob, nil).Code, http.StatusForbidden)
			}
		})
	}
}

func TestTrustBodyUserIDPolicy(t *testing.T) {
	for _, trust := range []bool{true, false} {
		t.Run(fmt.Sprint(trust), func(t *testing.T) {
			is := is.New(t)
			s := newTestServer(t, func(cfg *config.Config) {
				cfg.Policy.TrustBodyUserID = trust
			})

			aliceID, alice := s.signupLogin("alice@x.com", "acme")
			_, bob := s.signupLogin("bob@x.com", "bobco")
			body := map[string]interface{}{"userId": aliceID, "name": "cli"}

			w := s.do(http.MethodPost, "/auth/token", bob, body)
			if trust {
				is.Equal(w.Code, http.StatusCreated)
			} else {
				is.Equal(w.Code, http.StatusForbidden)
			}
			is.Equal(s.do(http.MethodPost, "/auth/token", alice, body).Code, http.StatusCreated)

			change := map[string]interface{}{"userId": aliceID, "oldPass": "hunter2", "newPass": "new"}
			w = s.do(http.MethodPost, "/auth/change-password", "", change)
			if trust {
				is.Equal(w.Code, http.StatusOK)
			} else {
				is.Equal(w.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestDetailsPolicy(t *testing.T) {
	for _, public := range []bool{true, false} {
		t.Run(fmt.Sprint(public), func(t *testing.T) {
			is := is.New(t)
			s := newTestServer(t, func(cfg *config.Config) {
				cfg.Policy.PublicDetails = public
			})

			_, alice := s.signupLogin("alice@x.com", "acme")
			fields := map[string]string{"name": "Secret", "org": "acme", "isPublic": "false"}
			is.Equal(s.do(http.MethodPost, "", alice, shipRequest(t, "/components/ship", fields, "x")).Code, http.StatusCreated)

			var list []componentResponse
			decode(t, s.do(http.MethodGet, "/components/acme", "", nil), &list)
			path := fmt.Sprintf("/components/details/%d", list[0].ID)

			w := s.do(http.MethodGet, path, "", nil)
			if public {
				is.Equal(w.Code, http.StatusOK)
			} else {
				is.Equal(w.Code, http.StatusNotFound)
			}
			is.Equal(s.do(http.MethodGet, path, alice, nil).Code, http.StatusOK)
		})
	}
}

func TestBasePath(t *testing.T) {
	is := is.New(t)
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.HTTP.BasePath = "/api"
	})

	w := s.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "alice@x.com", "orgName": "acme", "password": "x",
	})
	is.Equal(w.Code, http.StatusCreated)
	is.Equal(s.do(http.MethodGet, "/api/components/acme", "", nil).Code, http.StatusOK)
	is.Equal(s.do(http.MethodGet, "/components/acme", "", nil).Code, http.StatusNotFound)
	is.Equal(s.do(http.MethodGet, "/livez", "", nil).Code, http.StatusOK)
}

func TestGitHubNotConfigured(t *testing.T) {
	is := is.New(t)
	s := newTestServer(t)

	is.Equal(s.do(http.MethodGet, "/auth/github/url", "", nil).Code, http.StatusBadRequest)
	is.Equal(s.do(http.MethodPost, "/auth/github", "", map[string]string{"code": "x"}).Code, http.StatusBadRequest)
}

func TestParseDependencies(t *testing.T) {
	cases := map[string][]string{
		"":                  {},
		`["react","clsx"]`:  {"react", "clsx"},
		"react, clsx,":      {"react", "clsx"},
		`[]`:                {},
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			is := is.New(t)
			is.Equal(parseDependencies(in), want)
		})
	}
}

func TestTokenFromRequest(t *testing.T) {
	cases := map[string]string{
		"":               "",
		"tcx_abc":        "tcx_abc",
		"Bearer tcx_abc": "tcx_abc",
		"bearer tcx_abc": "tcx_abc",
		"  tcx_abc  ":    "tcx_abc",
	}
	for hdr, want := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", hdr)
		if got := tokenFromRequest(r); got != want {
			t.Errorf("tokenFromRequest(%q) => %q, want %q", hdr, got, want)
		}
	}
}
