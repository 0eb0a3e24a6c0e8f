package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/tricox-dev/tricox/pkg/proto"
)

// errorResponse is the body of every error response.
type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func renderStatus(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
		io.WriteString(w, fmt.Sprintf("%d %s", code, http.StatusText(code))) //nolint:errcheck,gosec
	}
}

func renderJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("error encoding json", "err", err)
	}
}

// statusCode returns the HTTP status of a domain error. Errors of unknown
// kind are internal.
func statusCode(err error) int {
	switch {
	case errors.Is(err, proto.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, proto.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, proto.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, proto.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, proto.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// renderError writes err as an error response. Internal errors are logged
// and reported without details.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusCode(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		log.FromContext(r.Context()).Error("internal error", "err", err)
		msg = "internal server error"
	}

	renderJSON(w, code, errorResponse{StatusCode: code, Message: msg})
}

func renderNotFound(w http.ResponseWriter, r *http.Request) {
	renderError(w, r, proto.NewError(proto.ErrNotFound, "cannot %s %s", r.Method, r.URL.Path))
}

func renderMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	code := http.StatusMethodNotAllowed
	renderJSON(w, code, errorResponse{StatusCode: code, Message: http.StatusText(code)})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return proto.NewError(proto.ErrValidation, "invalid request body: %s", err)
	}
	return nil
}

// idVar returns the numeric route variable name.
func idVar(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, proto.NewError(proto.ErrValidation, "invalid %s", name)
	}
	return id, nil
}

// flexInt64 accepts both JSON numbers and numeric strings.
type flexInt64 int64

// UnmarshalJSON implements json.Unmarshaler.
func (i *flexInt64) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", s)
		}
		*i = flexInt64(n)
		return nil
	}

	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*i = flexInt64(n)
	return nil
}
