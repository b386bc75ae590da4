package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"reseller/internal/jobs"
	"reseller/internal/registrar"
	id "reseller/pkg/domain"
	dErrors "reseller/pkg/domain-errors"
	"reseller/pkg/platform/httputil"
	"reseller/pkg/platform/middleware/admin"
)

// Trigger names accepted by POST /jobs/{name}.
const (
	TriggerRenew         = "renew"
	TriggerSyncStatus    = "sync-status"
	TriggerSyncTransfers = "sync-transfers"
	TriggerSyncPrices    = "sync-prices"
)

const maxJobRequestBytes = 64 << 10

// JobRunner runs the batch jobs on demand.
type JobRunner interface {
	Renew(ctx context.Context, opts jobs.RenewalOptions) (*jobs.Result, error)
	SyncStatus(ctx context.Context, opts jobs.SyncOptions) (*jobs.Result, error)
	SyncTransfers(ctx context.Context, opts jobs.TransferOptions) (*jobs.Result, error)
	SyncPrices(ctx context.Context, opts jobs.PriceSyncOptions) (*jobs.Result, error)
}

// JobsHandler triggers jobs over HTTP. A job already running in this process
// is not started a second time.
type JobsHandler struct {
	runner     JobRunner
	adminToken string
	logger     *slog.Logger

	mu      sync.Mutex
	running map[string]bool
}

func NewJobsHandler(runner JobRunner, adminToken string, logger *slog.Logger) *JobsHandler {
	return &JobsHandler{
		runner:     runner,
		adminToken: adminToken,
		logger:     logger,
		running:    make(map[string]bool),
	}
}

func (h *JobsHandler) Register(r chi.Router) {
	jobsRouter := chi.NewRouter()
	jobsRouter.Use(admin.RequireAdminToken(h.adminToken, h.logger))
	jobsRouter.Post("/{name}", h.handleRun)

	r.Mount("/jobs", jobsRouter)
}

// jobRequest is the optional JSON body of a trigger. Fields that do not apply
// to the named job are ignored.
type jobRequest struct {
	PartnerID        string `json:"partner_id"`
	Limit            int    `json:"limit"`
	DryRun           bool   `json:"dry_run"`
	LeadDays         int    `json:"lead_days"`
	Years            int    `json:"years"`
	ExpiryWindowDays int    `json:"days"`
	Force            bool   `json:"force"`
	CompletionWindow string `json:"completion_window"`
	RegistrarID      int64  `json:"registrar_id"`
}

func (h *JobsHandler) handleRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	var req jobRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJobRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Limit < 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must not be negative"))
		return
	}
	partnerID, err := parsePartner(req.PartnerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var run func(context.Context) (*jobs.Result, error)
	switch name {
	case TriggerRenew:
		opts := jobs.RenewalOptions{PartnerID: partnerID, LeadDays: req.LeadDays, Years: req.Years, Limit: req.Limit, DryRun: req.DryRun}
		run = func(ctx context.Context) (*jobs.Result, error) { return h.runner.Renew(ctx, opts) }
	case TriggerSyncStatus:
		opts := jobs.SyncOptions{PartnerID: partnerID, Limit: req.Limit, ExpiryWindowDays: req.ExpiryWindowDays, Force: req.Force}
		run = func(ctx context.Context) (*jobs.Result, error) { return h.runner.SyncStatus(ctx, opts) }
	case TriggerSyncTransfers:
		opts := jobs.TransferOptions{PartnerID: partnerID, Limit: req.Limit}
		if req.CompletionWindow != "" {
			window, err := time.ParseDuration(req.CompletionWindow)
			if err != nil || window <= 0 {
				httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "completion_window must be a positive duration"))
				return
			}
			opts.CompletionWindow = window
		}
		run = func(ctx context.Context) (*jobs.Result, error) { return h.runner.SyncTransfers(ctx, opts) }
	case TriggerSyncPrices:
		opts := jobs.PriceSyncOptions{RegistrarID: req.RegistrarID, DryRun: req.DryRun}
		run = func(ctx context.Context) (*jobs.Result, error) { return h.runner.SyncPrices(ctx, opts) }
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("unknown job %q", name)))
		return
	}

	if !h.acquire(name) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, fmt.Sprintf("job %s is already running", name)))
		return
	}
	defer h.release(name)

	h.logger.InfoContext(ctx, "job triggered over http", "job", name)
	res, err := run(ctx)
	if err != nil {
		if registrar.IsValidationError(err) {
			err = dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
		}
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "job failed", "job", name, "error", err)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func parsePartner(raw string) (*id.PartnerID, error) {
	if raw == "" {
		return nil, nil
	}
	p, err := id.ParsePartnerID(raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "partner_id must be a UUID")
	}
	return &p, nil
}

func (h *JobsHandler) acquire(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running[name] {
		return false
	}
	h.running[name] = true
	return true
}

func (h *JobsHandler) release(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.running, name)
}
