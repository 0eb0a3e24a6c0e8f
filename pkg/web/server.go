package web

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/tricox-dev/tricox/pkg/config"
)

// NewRouter returns a new HTTP router.
func NewRouter(ctx context.Context) http.Handler {
	cfg := config.FromContext(ctx)
	logger := log.FromContext(ctx).WithPrefix("http")
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(renderNotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(renderMethodNotAllowed)

	// Health routes
	HealthController(ctx, router)

	api := router
	if cfg.HTTP.BasePath != "" {
		api = router.PathPrefix(cfg.HTTP.BasePath).Subrouter()
		api.NotFoundHandler = router.NotFoundHandler
		api.MethodNotAllowedHandler = router.MethodNotAllowedHandler
	}

	// Registry routes
	AuthController(ctx, api)
	ComponentController(ctx, api)

	h := withAuth(router)
	h = NewLoggingMiddleware(h)
	// Context handler
	// Adds context to the request
	h = NewContextHandler(ctx)(h)
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", RequestIDHeader}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete}),
		handlers.ExposedHeaders([]string{RequestIDHeader}),
	)(h)
	h = handlers.CompressHandler(h)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel})),
	)(h)

	return h
}
