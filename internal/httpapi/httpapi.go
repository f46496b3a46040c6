// Package httpapi exposes the online router over HTTP: a health endpoint
// plus the route/one-to-many/preset query endpoints, wrapped in a
// request-id, request-logging and rate-limit middleware stack.
package httpapi

import (
	"log/slog"
	"net/http"

	"transitrouter.dev/raptor/internal/clock"
	"transitrouter.dev/raptor/internal/metrics"
	"transitrouter.dev/raptor/internal/online"
)

// RestAPI holds the dependencies HTTP handlers need: a thin struct of
// collaborators rather than package-level globals.
type RestAPI struct {
	Router  *online.Router
	Logger  *slog.Logger
	Clock   clock.Clock
	Metrics *metrics.Metrics
	Ready   func() bool

	// APIKeys, if non-empty, requires every request to carry a `key` query
	// parameter matching one of these values. Left empty, the API is open.
	APIKeys []string
}

// New returns a RestAPI. logger defaults to slog.Default(), clk to
// clock.RealClock{} when nil.
func New(router *online.Router, logger *slog.Logger, clk clock.Clock, m *metrics.Metrics, ready func() bool) *RestAPI {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	if ready == nil {
		ready = func() bool { return true }
	}
	return &RestAPI{
		Router:  router,
		Logger:  logger.With(slog.String("component", "http_server")),
		Clock:   clk,
		Metrics: m,
		Ready:   ready,
	}
}

// Routes builds the handler tree, wrapping every route in the middleware
// stack: request-id first, so even middleware-rejected requests
// carry one, then request-logging, then (optionally) rate-limiting.
func (api *RestAPI) Routes(rateLimit *RateLimitMiddleware) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthy", api.healthHandler)
	mux.HandleFunc("POST /route", api.routeHandler)
	mux.HandleFunc("POST /one-to-many", api.oneToManyHandler)
	mux.HandleFunc("POST /one-to-preset", api.oneToPresetHandler)

	var handler http.Handler = mux
	handler = APIKeyMiddleware(api.APIKeys)(handler)
	if api.Metrics != nil {
		handler = MetricsMiddleware(api.Metrics)(handler)
	}
	if rateLimit != nil {
		handler = rateLimit.Handler()(handler)
	}
	handler = NewRequestLoggingMiddleware(api.Logger)(handler)
	handler = RequestIDMiddleware(handler)
	return handler
}
