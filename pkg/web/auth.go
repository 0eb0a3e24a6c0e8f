package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/tricox-dev/tricox/pkg/backend"
	"github.com/tricox-dev/tricox/pkg/proto"
)

type orgResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type userResponse struct {
	ID        int64         `json:"id"`
	Email     string        `json:"email"`
	CreatedAt time.Time     `json:"createdAt"`
	OwnedOrgs []orgResponse `json:"ownedOrgs"`
}

type loginResponse struct {
	userResponse
	Token string `json:"token"`
}

type tokenResponse struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	LastUsed  *time.Time `json:"lastUsed"`
	CreatedAt time.Time  `json:"createdAt"`
	Token     string     `json:"token"`
}

func newUserResponse(u proto.User) userResponse {
	orgs := make([]orgResponse, 0)
	for _, o := range u.Orgs() {
		orgs = append(orgs, orgResponse{ID: o.ID(), Name: o.Name(), CreatedAt: o.CreatedAt()})
	}
	return userResponse{
		ID:        u.ID(),
		Email:     u.Email(),
		CreatedAt: u.CreatedAt(),
		OwnedOrgs: orgs,
	}
}

func newTokenResponse(t proto.AccessToken) tokenResponse {
	res := tokenResponse{
		ID:        t.ID,
		Name:      t.Name,
		CreatedAt: t.CreatedAt,
		Token:     t.Token,
	}
	if !t.LastUsedAt.IsZero() {
		lastUsed := t.LastUsedAt
		res.LastUsed = &lastUsed
	}
	return res
}

// AuthController registers the identity routes.
func AuthController(_ context.Context, r *mux.Router) {
	s := r.PathPrefix("/auth").Subrouter()
	s.HandleFunc("/signup", signup).Methods(http.MethodPost)
	s.HandleFunc("/login", login).Methods(http.MethodPost)
	s.HandleFunc("/token", createToken).Methods(http.MethodPost)
	s.HandleFunc("/github/url", githubURL).Methods(http.MethodGet)
	s.HandleFunc("/github", githubLogin).Methods(http.MethodPost)
	s.HandleFunc("/users", requireAdmin(listUsers)).Methods(http.MethodGet)
	s.HandleFunc("/users/{id:[0-9]+}", requireAdmin(deleteUser)).Methods(http.MethodDelete)
	s.HandleFunc("/change-password", changePassword).Methods(http.MethodPost)
	s.HandleFunc("/tokens/{userId:[0-9]+}", listTokens).Methods(http.MethodGet)
	s.HandleFunc("/tokens/{id:[0-9]+}", requireUser(deleteToken)).Methods(http.MethodDelete)
	s.HandleFunc("/me", requireUser(me)).Methods(http.MethodGet)
}

func signup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		OrgName  string `json:"orgName"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		renderError(w, r, err)
		return
	}

	ctx := r.Context()
	be := backend.FromContext(ctx)
	u, err := be.Signup(ctx, body.Email, body.OrgName, body.Password)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusCreated, newUserResponse(u))
}

func login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		renderError(w, r, err)
		return
	}

	ctx := r.Context()
	be := backend.FromContext(ctx)
	u, token, err := be.Login(ctx, body.Email, body.Password)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, loginResponse{newUserResponse(u), token})
}

func createToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID flexInt64 `json:"userId"`
		Name   string    `json:"name"`
	}
	if err := decodeJSON(r, &body); err != nil {
		renderError(w, r, err)
		return
	}

	ctx := r.Context()
	be := backend.FromContext(ctx)
	userID := int64(body.UserID)
	if err := checkSelf(r, userID, be.Config().Policy.TrustBodyUserID); err != nil {
		renderError(w, r, err)
		return
	}

	token, err := be.CreateAccessToken(ctx, userID, body.Name)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusCreated, map[string]string{"token": token})
}

func githubURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	url, state, err := be.GitHubAuthURL(ctx)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, map[string]string{"url": url, "state": state})
}

func githubLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code  string `json:"code"`
		State string `json:"state"`
	}
	if err := decodeJSON(r, &body); err != nil {
		renderError(w, r, err)
		return
	}

	ctx := r.Context()
	be := backend.FromContext(ctx)
	u, token, err := be.OAuthLogin(ctx, body.Code, body.State)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, loginResponse{newUserResponse(u), token})
}

func listUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	users, err := be.Users(ctx)
	if err != nil {
		renderError(w, r, err)
		return
	}

	res := make([]userResponse, 0, len(users))
	for _, u := range users {
		res = append(res, newUserResponse(u))
	}

	renderJSON(w, http.StatusOK, res)
}

func deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "id")
	if err != nil {
		renderError(w, r, err)
		return
	}

	ctx := r.Context()
	be := backend.FromContext(ctx)
	u, err := be.DeleteUser(ctx, id)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, newUserResponse(u))
}

func changePassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID  flexInt64 `json:"userId"`
		OldPass string    `json:"oldPass"`
		NewPass string    `json:"newPass"`
	}
	if err := decodeJSON(r, &body); err != nil {
		renderError(w, r, err)
		return
	}

	ctx := r.Context()
	be := backend.FromContext(ctx)
	userID := int64(body.UserID)
	if err := checkSelf(r, userID, be.Config().Policy.TrustBodyUserID); err != nil {
		renderError(w, r, err)
		return
	}

	u, err := be.ChangePassword(ctx, userID, body.OldPass, body.NewPass)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, newUserResponse(u))
}

func listTokens(w http.ResponseWriter, r *http.Request) {
	userID, err := idVar(r, "userId")
	if err != nil {
		renderError(w, r, err)
		return
	}

	ctx := r.Context()
	be := backend.FromContext(ctx)
	if err := checkSelf(r, userID, be.Config().Policy.OpenTokenListing); err != nil {
		renderError(w, r, err)
		return
	}

	tokens, err := be.ListAccessTokens(ctx, userID)
	if err != nil {
		renderError(w, r, err)
		return
	}

	res := make([]tokenResponse, 0, len(tokens))
	for _, t := range tokens {
		res = append(res, newTokenResponse(t))
	}

	renderJSON(w, http.StatusOK, res)
}

func deleteToken(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "id")
	if err != nil {
		renderError(w, r, err)
		return
	}

	ctx := r.Context()
	be := backend.FromContext(ctx)
	t, err := be.DeleteAccessToken(ctx, proto.UserFromContext(ctx), id)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, newTokenResponse(t))
}

func me(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, newUserResponse(proto.UserFromContext(r.Context())))
}
