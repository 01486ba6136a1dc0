// Package httptransport assembles the HTTP surface: middleware chain, route
// registration, and panic recovery. It holds no business logic.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	scoringhandler "credrisk/internal/scoring/handler"
	"credrisk/internal/system"
	dErrors "credrisk/pkg/domain-errors"
	"credrisk/pkg/platform/httputil"
	"credrisk/pkg/platform/middleware/requestmeta"
	"credrisk/pkg/requestcontext"
)

// NewRouter wires all endpoints. The readiness gate sits after metadata
// capture so rejected requests still carry a request ID.
func NewRouter(scoring *scoringhandler.Handler, sys *system.Handler, health *system.Health, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(requestmeta.Middleware)
	r.Use(recoverer(logger))
	r.Use(system.Gate(health))

	r.Get("/health", sys.HandleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	scoring.Register(r)

	return r
}

// recoverer converts handler panics into opaque 500 responses. Stack details
// go to the log, never to the caller.
func recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.ErrorContext(r.Context(), "handler panic",
						"request_id", requestcontext.RequestID(r.Context()),
						"path", r.URL.Path,
						"panic", rec,
					)
					httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "unexpected failure"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
