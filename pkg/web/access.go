package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tricox-dev/tricox/pkg/backend"
	"github.com/tricox-dev/tricox/pkg/proto"
)

var authCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tricox",
	Subsystem: "http",
	Name:      "auth_total",
	Help:      "The total number of token authentications by result",
}, []string{"result"})

// tokenFromRequest returns the raw token of the Authorization header. The
// header carries the token itself, a "Bearer " prefix is tolerated.
func tokenFromRequest(r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}

// withAuth authenticates the request token, if any, and stores the user in
// the request context. Invalid tokens leave the request anonymous.
func withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			authCounter.WithLabelValues("none").Inc()
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		be := backend.FromContext(ctx)
		logger := log.FromContext(ctx)

		user, err := be.UserByAccessToken(ctx, token)
		switch {
		case err == nil:
			authCounter.WithLabelValues("ok").Inc()
			logger.Debug("authenticated", "user", user.Email())
			r = r.WithContext(proto.WithUserContext(ctx, user))
		case errors.Is(err, proto.ErrInvalidToken):
			authCounter.WithLabelValues("invalid").Inc()
		default:
			authCounter.WithLabelValues("error").Inc()
			renderError(w, r, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireUser rejects requests without a valid token.
func requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if proto.UserFromContext(r.Context()) == nil {
			renderError(w, r, proto.ErrInvalidToken)
			return
		}
		next(w, r)
	}
}

// requireAdmin rejects requests not made with an admin token.
func requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		be := backend.FromContext(ctx)
		if !be.IsAdmin(proto.UserFromContext(ctx)) {
			renderError(w, r, proto.ErrAdminRequired)
			return
		}
		next(w, r)
	}
}

// checkSelf checks that the caller acts on its own account unless open is
// set. Admins may act on any account.
func checkSelf(r *http.Request, userID int64, open bool) error {
	if open {
		return nil
	}

	ctx := r.Context()
	be := backend.FromContext(ctx)

	user := proto.UserFromContext(ctx)
	if user == nil {
		return proto.ErrInvalidToken
	}
	if user.ID() != userID && !be.IsAdmin(user) {
		return proto.NewError(proto.ErrForbidden, "cannot act on behalf of another user")
	}
	return nil
}
