// Package jobs holds the scheduled batch jobs: auto-renewal, registrar status
// sync, transfer polling and TLD price sync. Jobs process items one at a time
// and never abort a batch because one item failed.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"reseller/internal/domains"
	"reseller/internal/jobs/metrics"
	"reseller/internal/lifecycle"
	"reseller/internal/notify"
	"reseller/internal/pricing"
	"reseller/internal/registrar"
	"reseller/internal/wallet"
	"reseller/pkg/requestcontext"
)

const tracerName = "reseller/jobs"

const (
	DefaultItemDelay        = 250 * time.Millisecond
	DefaultLeadDays         = 7
	DefaultRenewalYears     = 1
	DefaultTransferWindow   = 7 * 24 * time.Hour
	DefaultSyncFreshness    = lifecycle.DefaultSyncFreshness
	categoryNoPrice         = "no_price"
	categoryInsufficient    = "insufficient_funds"
	categoryTransition      = "invalid_transition"
	categoryRegistrarConfig = "registrar_config"
)

// Registrars resolves the client for a domain's registrar.
type Registrars interface {
	GetByID(ctx context.Context, id int64) (registrar.Client, error)
}

// Outcome classifies one processed item.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeFailed    Outcome = "failed"
)

// ItemResult records what happened to one domain or TLD.
type ItemResult struct {
	DomainID      string           `json:"domain_id,omitempty"`
	Domain        string           `json:"domain,omitempty"`
	TLD           string           `json:"tld,omitempty"`
	Outcome       Outcome          `json:"outcome"`
	From          lifecycle.Status `json:"from,omitempty"`
	To            lifecycle.Status `json:"to,omitempty"`
	Amount        string           `json:"amount,omitempty"`
	Message       string           `json:"message,omitempty"`
	Error         string           `json:"error,omitempty"`
	ErrorCategory string           `json:"error_category,omitempty"`
}

// Result summarises a job run. Items keep the selection order.
type Result struct {
	Job         string         `json:"job"`
	RunID       string         `json:"run_id"`
	Total       int            `json:"total"`
	Succeeded   int            `json:"succeeded"`
	Unchanged   int            `json:"unchanged"`
	Failed      int            `json:"failed"`
	Counters    map[string]int `json:"counters,omitempty"`
	Items       []ItemResult   `json:"items"`
	DryRun      bool           `json:"dry_run"`
	Interrupted bool           `json:"interrupted"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
}

func (r *Result) add(item ItemResult) {
	r.Items = append(r.Items, item)
	switch item.Outcome {
	case OutcomeSucceeded:
		r.Succeeded++
	case OutcomeUnchanged:
		r.Unchanged++
	default:
		r.Failed++
	}
}

func (r *Result) count(key string, n int) {
	if n == 0 {
		return
	}
	if r.Counters == nil {
		r.Counters = make(map[string]int)
	}
	r.Counters[key] += n
}

// runner carries the dependencies and settings shared by all jobs.
type runner struct {
	domains        domains.Store
	registrars     Registrars
	publisher      notify.Publisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	delay          time.Duration
	leadDays       int
	renewalYears   int
	freshness      time.Duration
	windows        lifecycle.Windows
	transferWindow time.Duration
	defaultLimit   int
}

type Option func(*runner)

func WithLogger(logger *slog.Logger) Option {
	return func(r *runner) {
		r.logger = logger
	}
}

func WithPublisher(p notify.Publisher) Option {
	return func(r *runner) {
		r.publisher = p
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *runner) {
		r.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(r *runner) {
		r.tracer = t
	}
}

// WithItemDelay sets the pause between registrar calls. Zero disables it.
func WithItemDelay(d time.Duration) Option {
	return func(r *runner) {
		r.delay = d
	}
}

func WithLeadDays(days int) Option {
	return func(r *runner) {
		r.leadDays = days
	}
}

func WithRenewalYears(years int) Option {
	return func(r *runner) {
		r.renewalYears = years
	}
}

// WithSyncFreshness sets how old a status sync must be before a domain is polled again.
func WithSyncFreshness(d time.Duration) Option {
	return func(r *runner) {
		r.freshness = d
	}
}

func WithWindows(w lifecycle.Windows) Option {
	return func(r *runner) {
		r.windows = w
	}
}

// WithTransferWindow sets how long after initiation an unresolved transfer is
// confirmed through the registrar's domain info.
func WithTransferWindow(d time.Duration) Option {
	return func(r *runner) {
		r.transferWindow = d
	}
}

// WithDefaultLimit caps selections when the caller passes no limit.
func WithDefaultLimit(n int) Option {
	return func(r *runner) {
		r.defaultLimit = n
	}
}

func newRunner(registrars Registrars, opts []Option) (runner, error) {
	if registrars == nil {
		return runner{}, errors.New("registrar factory is required")
	}
	r := runner{
		registrars:     registrars,
		publisher:      notify.Nop{},
		logger:         slog.Default(),
		tracer:         otel.Tracer(tracerName),
		delay:          DefaultItemDelay,
		leadDays:       DefaultLeadDays,
		renewalYears:   DefaultRenewalYears,
		freshness:      DefaultSyncFreshness,
		windows:        lifecycle.DefaultWindows,
		transferWindow: DefaultTransferWindow,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r, nil
}

// newDomainRunner is newRunner for jobs that select from the domain store.
func newDomainRunner(store domains.Store, registrars Registrars, opts []Option) (runner, error) {
	if store == nil {
		return runner{}, errors.New("domain store is required")
	}
	r, err := newRunner(registrars, opts)
	r.domains = store
	return r, err
}

func (r *runner) limit(n int) int {
	if n > 0 {
		return n
	}
	return r.defaultLimit
}

// start stamps a run ID onto ctx when the caller did not provide one.
func (r *runner) start(ctx context.Context, job string, dryRun bool) (context.Context, *Result, trace.Span) {
	if requestcontext.RunID(ctx) == "" {
		ctx = requestcontext.WithRunID(ctx, uuid.NewString())
	}
	ctx, span := r.tracer.Start(ctx, "jobs."+job, trace.WithAttributes(
		attribute.String("job.name", job),
		attribute.Bool("job.dry_run", dryRun),
	))
	res := &Result{
		Job:       job,
		RunID:     requestcontext.RunID(ctx),
		Items:     []ItemResult{},
		DryRun:    dryRun,
		StartedAt: requestcontext.Now(ctx).UTC(),
	}
	r.logger.InfoContext(ctx, "job started", "job", job, "run_id", res.RunID, "dry_run", dryRun)
	return ctx, res, span
}

// each runs fn for every index, pausing delay between items. Cancellation is
// honoured between items and leaves the partial result marked interrupted.
func (r *runner) each(ctx context.Context, res *Result, n int, delay time.Duration, fn func(ctx context.Context, i int) ItemResult) {
	res.Total = n
	for i := 0; i < n; i++ {
		proceed := ctx.Err() == nil
		if proceed && i > 0 {
			proceed = pause(ctx, delay)
		}
		if !proceed {
			res.Interrupted = true
			r.logger.WarnContext(ctx, "job interrupted",
				"job", res.Job,
				"run_id", res.RunID,
				"processed", i,
				"total", n,
			)
			return
		}
		item := fn(ctx, i)
		r.metrics.IncItem(res.Job, string(item.Outcome))
		if item.Outcome == OutcomeFailed {
			r.logger.WarnContext(ctx, "job item failed",
				"job", res.Job,
				"domain", item.Domain,
				"tld", item.TLD,
				"error_category", item.ErrorCategory,
				"error", item.Error,
			)
		}
		res.add(item)
	}
}

func pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (r *runner) finish(ctx context.Context, res *Result, span trace.Span) {
	defer span.End()
	res.FinishedAt = requestcontext.Now(ctx).UTC()
	if res.FinishedAt.Before(res.StartedAt) {
		res.FinishedAt = res.StartedAt
	}
	state := "completed"
	if res.Interrupted {
		state = "interrupted"
		span.SetStatus(codes.Error, "interrupted")
	}
	span.SetAttributes(
		attribute.Int("job.total", res.Total),
		attribute.Int("job.succeeded", res.Succeeded),
		attribute.Int("job.unchanged", res.Unchanged),
		attribute.Int("job.failed", res.Failed),
	)
	r.metrics.ObserveRun(res.Job, state, res.FinishedAt.Sub(res.StartedAt), res.FinishedAt)
	r.logger.InfoContext(ctx, "job finished",
		"job", res.Job,
		"run_id", res.RunID,
		"state", state,
		"total", res.Total,
		"succeeded", res.Succeeded,
		"unchanged", res.Unchanged,
		"failed", res.Failed,
	)
}

// abort ends a run whose selection failed.
func (r *runner) abort(ctx context.Context, res *Result, span trace.Span, err error) {
	defer span.End()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	r.metrics.ObserveRun(res.Job, "failed", 0, requestcontext.Now(ctx))
	r.logger.ErrorContext(ctx, "job selection failed", "job", res.Job, "run_id", res.RunID, "error", err)
}

func (r *runner) publish(ctx context.Context, e notify.Event) {
	if err := r.publisher.Publish(ctx, e); err != nil {
		r.logger.WarnContext(ctx, "notification failed",
			"event_type", string(e.Type),
			"event_id", e.ID,
			"error", err,
		)
	}
}

func (r *runner) client(ctx context.Context, d *domains.Domain) (registrar.Client, error) {
	c, err := r.registrars.GetByID(ctx, d.RegistrarID)
	if err != nil {
		return nil, &registrarError{err: err}
	}
	return c, nil
}

// registrarError marks a failure to resolve the registrar itself, as opposed
// to a failed provider call.
type registrarError struct{ err error }

func (e *registrarError) Error() string { return "resolve registrar: " + e.err.Error() }
func (e *registrarError) Unwrap() error { return e.err }

func itemFor(d *domains.Domain) ItemResult {
	return ItemResult{DomainID: d.ID.String(), Domain: d.Name, From: d.Status}
}

func failItem(item ItemResult, err error) ItemResult {
	item.Outcome = OutcomeFailed
	item.Error = err.Error()
	item.ErrorCategory = classify(err)
	return item
}

// classify maps an item error onto a stable category for reporting.
func classify(err error) string {
	var (
		re *registrarError
		te *lifecycle.TransitionError
	)
	switch {
	case errors.As(err, &re):
		return categoryRegistrarConfig
	case errors.Is(err, pricing.ErrNoPrice):
		return categoryNoPrice
	case errors.Is(err, wallet.ErrInsufficientFunds):
		return categoryInsufficient
	case errors.As(err, &te):
		return categoryTransition
	}
	return string(registrar.CategoryOf(err))
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
