// Package httptransport exposes the ops HTTP surface: health checks, the
// prometheus scrape endpoint and on-demand job triggers.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"reseller/internal/platform/metrics"
	"reseller/pkg/platform/middleware/request"
)

// NewRouter mounts every ops route behind the shared request middleware.
func NewRouter(logger *slog.Logger, health *HealthHandler, jobs *JobsHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Recovery(logger))
	r.Use(request.Context)
	r.Use(request.Logger(logger))

	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	health.Register(r)
	if jobs != nil {
		jobs.Register(r)
	}
	return r
}
