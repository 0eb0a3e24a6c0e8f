package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/tricox-dev/tricox/pkg/backend"
	"github.com/tricox-dev/tricox/pkg/proto"
)

type componentResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Org           string    `json:"org,omitempty"`
	Owner         string    `json:"owner,omitempty"`
	IsPublic      bool      `json:"isPublic"`
	LatestVersion string    `json:"latestVersion"`
	UpdatedAt     time.Time `json:"updatedAt"`
	Downloads     int64     `json:"downloads"`
}

type detailsResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Org           string    `json:"org"`
	IsPublic      bool      `json:"isPublic"`
	LatestVersion string    `json:"latestVersion"`
	UpdatedAt     time.Time `json:"updatedAt"`
	Content       string    `json:"content"`
	Downloads     int64     `json:"downloads"`
}

type packageResponse struct {
	Org       string                 `json:"org"`
	Component string                 `json:"component"`
	Version   string                 `json:"version"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata"`
}

type versionResponse struct {
	ID        int64                  `json:"id"`
	Version   string                 `json:"version"`
	Metadata  map[string]interface{} `json:"metadata"`
	CreatedAt time.Time              `json:"createdAt"`
}

func newComponentResponse(c proto.Component, withOwner bool) componentResponse {
	res := componentResponse{
		ID:            c.ID,
		Name:          c.Name,
		IsPublic:      c.Public,
		LatestVersion: c.LatestVersion,
		UpdatedAt:     c.UpdatedAt,
		Downloads:     c.Downloads,
	}
	if withOwner {
		res.Org = c.OrgName
		res.Owner = c.OwnerEmail
	}
	return res
}

// ComponentController registers the registry routes.
func ComponentController(_ context.Context, r *mux.Router) {
	r.HandleFunc("/components", requireAdmin(listAllComponents)).Methods(http.MethodGet)
	s := r.PathPrefix("/components").Subrouter()
	s.HandleFunc("/dashboard/stats", requireAdmin(getStats)).Methods(http.MethodGet)
	s.HandleFunc("/ship", requireUser(shipComponent)).Methods(http.MethodPost)
	s.HandleFunc("/details/{id:[0-9]+}", getDetails).Methods(http.MethodGet)
	s.HandleFunc("/dock/{org}/{component}", dockComponent).Methods(http.MethodGet)
	s.HandleFunc("/{id:[0-9]+}/visibility", requireUser(setVisibility)).Methods(http.MethodPost)
	s.HandleFunc("/{id:[0-9]+}", requireUser(deleteComponent)).Methods(http.MethodDelete)
	s.HandleFunc("/{id:[0-9]+}", requireUser(updateComponent)).Methods(http.MethodPost)
	s.HandleFunc("/{org}/{component}/versions", listVersions).Methods(http.MethodGet)
	s.HandleFunc("/{org}", listComponents).Methods(http.MethodGet)
}

func getStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	stats, err := be.Stats(ctx)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, map[string]int64{
		"totalShips":   stats.TotalShips,
		"totalFetches": stats.TotalFetches,
	})
}

// parseDependencies reads the dependencies form field, a JSON array or a
// comma separated list.
func parseDependencies(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}

	var deps []string
	if err := json.Unmarshal([]byte(s), &deps); err == nil {
		return deps
	}

	deps = []string{}
	for _, d := range strings.Split(s, ",") {
		if d = strings.TrimSpace(d); d != "" {
			deps = append(deps, d)
		}
	}
	return deps
}

// readUpload returns the content of the "file" form file, or of the
// "content" form field when no file was sent.
func readUpload(r *http.Request) (string, error) {
	f, _, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		if content := r.FormValue("content"); content != "" {
			return content, nil
		}
		return "", proto.NewError(proto.ErrValidation, "file is required")
	}
	if err != nil {
		return "", proto.NewError(proto.ErrValidation, "invalid upload: %s", err)
	}
	defer f.Close() // nolint: errcheck

	b, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	return string(b), nil
}

func shipComponent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	maxSize := be.Config().HTTP.MaxUploadSize

	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			renderError(w, r, proto.NewError(proto.ErrValidation, "upload exceeds %d bytes", maxSize))
			return
		}
		renderError(w, r, proto.NewError(proto.ErrValidation, "invalid multipart form: %s", err))
		return
	}

	content, err := readUpload(r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	pkg, err := be.Ship(ctx, proto.UserFromContext(ctx), proto.ShipOptions{
		Name:         r.FormValue("name"),
		Org:          r.FormValue("org"),
		Content:      content,
		Dependencies: parseDependencies(r.FormValue("dependencies")),
		Public:       r.FormValue("isPublic") == "true",
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Shipped %s/%s@%s", pkg.Org, pkg.Component, pkg.Version),
	})
}

func getDetails(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "id")
	if err != nil {
		renderError(w, r, err)
		return
	}

	ctx := r.Context()
	be := backend.FromContext(ctx)
	c, err := be.ComponentDetails(ctx, proto.UserFromContext(ctx), id)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, detailsResponse{
		ID:            c.ID,
		Name:          c.Name,
		Org:           c.OrgName,
		IsPublic:      c.Public,
		LatestVersion: c.LatestVersion,
		UpdatedAt:     c.UpdatedAt,
		Content:       c.Content,
		Downloads:     c.Downloads,
	})
}

func dockComponent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	vars := mux.Vars(r)
	pkg, err := be.Dock(ctx, vars["org"], vars["component"], r.URL.Query().Get("version"))
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, packageResponse{
		Org:       pkg.Org,
		Component: pkg.Component,
		Version:   pkg.Version,
		Content:   pkg.Content,
		Metadata:  pkg.Metadata,
	})
}

func listAllComponents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	cs, err := be.AllComponents(ctx)
	if err != nil {
		renderError(w, r, err)
		return
	}

	res := make([]componentResponse, 0, len(cs))
	for _, c := range cs {
		res = append(res, newComponentResponse(c, true))
	}

	renderJSON(w, http.StatusOK, res)
}

func listComponents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	onlyPublic := r.URL.Query().Get("public") == "true"
	cs, err := be.Components(ctx, mux.Vars(r)["org"], onlyPublic)
	if err != nil {
		renderError(w, r, err)
		return
	}

	res := make([]componentResponse, 0, len(cs))
	for _, c := range cs {
		res = append(res, newComponentResponse(c, false))
	}

	renderJSON(w, http.StatusOK, res)
}

func listVersions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	vars := mux.Vars(r)
	versions, err := be.Versions(ctx, proto.UserFromContext(ctx), vars["org"], vars["component"])
	if err != nil {
		renderError(w, r, err)
		return
	}

	res := make([]versionResponse, 0, len(versions))
	for _, v := range versions {
		res = append(res, versionResponse{
			ID:        v.ID,
			Version:   v.Version,
			Metadata:  v.Metadata,
			CreatedAt: v.CreatedAt,
		})
	}

	renderJSON(w, http.StatusOK, res)
}

func deleteComponent(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "id")
	if err != nil {
		renderError(w, r, err)
		return
	}

	ctx := r.Context()
	be := backend.FromContext(ctx)
	if err := be.DeleteComponent(ctx, id, proto.UserFromContext(ctx)); err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, map[string]interface{}{"success": true, "id": id})
}

func updateComponent(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "id")
	if err != nil {
		renderError(w, r, err)
		return
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &body); err != nil {
		renderError(w, r, err)
		return
	}

	ctx := r.Context()
	be := backend.FromContext(ctx)
	v, err := be.UpdateComponent(ctx, id, body.Content, proto.UserFromContext(ctx))
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, map[string]interface{}{"success": true, "version": v.Version})
}

func setVisibility(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "id")
	if err != nil {
		renderError(w, r, err)
		return
	}

	var body struct {
		IsPublic bool `json:"isPublic"`
	}
	if err := decodeJSON(r, &body); err != nil {
		renderError(w, r, err)
		return
	}

	ctx := r.Context()
	be := backend.FromContext(ctx)
	if err := be.SetComponentVisibility(ctx, id, body.IsPublic, proto.UserFromContext(ctx)); err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, map[string]interface{}{"success": true, "isPublic": body.IsPublic})
}
