package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"reseller/internal/registrar/factory"
	"reseller/pkg/platform/httputil"
)

const healthTimeout = 5 * time.Second

// Dependencies checks the process backends (database, cache, broker).
type Dependencies interface {
	Dependencies() []string
	Check(ctx context.Context) map[string]error
}

// Registrars runs connection tests against the active registrars.
type Registrars interface {
	CheckHealth(ctx context.Context) ([]factory.Health, error)
}

type HealthHandler struct {
	deps       Dependencies
	registrars Registrars
	logger     *slog.Logger
}

func NewHealthHandler(deps Dependencies, registrars Registrars, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{deps: deps, registrars: registrars, logger: logger}
}

func (h *HealthHandler) Register(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Get("/healthz/registrars", h.handleRegistrars)
}

type healthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
}

func (h *HealthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	names := h.deps.Dependencies()
	sort.Strings(names)
	failed := h.deps.Check(ctx)

	resp := healthResponse{Status: "ok", Dependencies: make(map[string]string, len(names))}
	for _, name := range names {
		resp.Dependencies[name] = "up"
		if err, ok := failed[name]; ok {
			resp.Status = "degraded"
			resp.Dependencies[name] = "down"
			h.logger.WarnContext(ctx, "dependency health check failed", "dependency", name, "error", err)
		}
	}

	status := http.StatusOK
	if len(failed) > 0 {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, resp)
}

type registrarHealthResponse struct {
	Status     string           `json:"status"`
	Registrars []factory.Health `json:"registrars"`
	Error      string           `json:"error,omitempty"`
}

// handleRegistrars reports 503 when any active registrar fails its
// connection test or could not be built.
func (h *HealthHandler) handleRegistrars(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	results, err := h.registrars.CheckHealth(ctx)

	resp := registrarHealthResponse{Status: "ok", Registrars: results}
	if resp.Registrars == nil {
		resp.Registrars = []factory.Health{}
	}
	if err != nil {
		resp.Status = "degraded"
		resp.Error = err.Error()
		h.logger.WarnContext(ctx, "registrar construction failed during health check", "error", err)
	}
	for _, res := range results {
		if !res.Healthy {
			resp.Status = "degraded"
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, resp)
}
