package registrar

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"reseller/internal/registrar/metrics"
	"reseller/pkg/platform/circuit"
)

const tracerName = "reseller/registrar"

// AvailabilityCache stores recent availability answers keyed by registrar and
// domain.
type AvailabilityCache interface {
	Get(ctx context.Context, registrarName, domain string) (*Availability, bool, error)
	Set(ctx context.Context, registrarName, domain string, a *Availability, ttl time.Duration) error
}

// Instrumented wraps a Client with request validation, a circuit breaker, a
// per-call timeout, the availability cache, logging, metrics and tracing.
// Providers only implement the wire protocol.
type Instrumented struct {
	next            Client
	logger          *slog.Logger
	metrics         *metrics.Metrics
	breaker         *circuit.Breaker
	cache           AvailabilityCache
	availabilityTTL time.Duration
	timeout         time.Duration
	tracer          trace.Tracer
}

type InstrumentOption func(*Instrumented)

func WithLogger(logger *slog.Logger) InstrumentOption {
	return func(i *Instrumented) {
		i.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) InstrumentOption {
	return func(i *Instrumented) {
		i.metrics = m
	}
}

func WithBreaker(b *circuit.Breaker) InstrumentOption {
	return func(i *Instrumented) {
		i.breaker = b
	}
}

// WithAvailabilityCache enables caching of CheckAvailability answers for ttl.
func WithAvailabilityCache(c AvailabilityCache, ttl time.Duration) InstrumentOption {
	return func(i *Instrumented) {
		i.cache = c
		i.availabilityTTL = ttl
	}
}

// WithTimeout bounds every call. Zero leaves the caller's deadline alone.
func WithTimeout(d time.Duration) InstrumentOption {
	return func(i *Instrumented) {
		i.timeout = d
	}
}

func WithTracer(t trace.Tracer) InstrumentOption {
	return func(i *Instrumented) {
		i.tracer = t
	}
}

// Instrument decorates next.
func Instrument(next Client, opts ...InstrumentOption) *Instrumented {
	i := &Instrumented{
		next:   next,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Unwrap returns the decorated client.
func (i *Instrumented) Unwrap() Client {
	return i.next
}

func (i *Instrumented) Name() string {
	return i.next.Name()
}

func call[T any](ctx context.Context, i *Instrumented, op, domain string, validate func() error, fn func(context.Context) (*Result[T], error)) (*Result[T], error) {
	name := i.next.Name()
	ctx, span := i.tracer.Start(ctx, "registrar."+op, trace.WithAttributes(
		attribute.String("registrar.name", name),
		attribute.String("registrar.operation", op),
		attribute.String("domain.name", domain),
	))
	defer span.End()

	start := time.Now()
	if validate != nil {
		if err := validate(); err != nil {
			return fail[T](ctx, i, span, name, op, domain, start, err, false)
		}
	}
	if i.breaker != nil && !i.breaker.Allow() {
		err := NewProviderError(ErrorOutage, name, op, "circuit breaker open", nil)
		return fail[T](ctx, i, span, name, op, domain, start, err, false)
	}
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	res, err := fn(ctx)
	if err == nil && (res == nil || !res.Success) {
		msg := "registrar reported failure"
		if res != nil && res.Message != "" {
			msg = res.Message
		}
		err = NewProviderError(ErrorBusiness, name, op, msg, nil)
	}
	if err != nil {
		return fail[T](ctx, i, span, name, op, domain, start, Normalize(name, op, err), true)
	}
	if res.Registrar == "" {
		res.Registrar = name
	}
	i.recordSuccess(name)

	elapsed := time.Since(start)
	i.metrics.ObserveCall(name, op, "success", elapsed)
	i.logger.InfoContext(ctx, "registrar call",
		"registrar", name,
		"operation", op,
		"domain", domain,
		"duration_ms", elapsed.Milliseconds(),
	)
	return res, nil
}

func fail[T any](ctx context.Context, i *Instrumented, span trace.Span, name, op, domain string, start time.Time, err error, reached bool) (*Result[T], error) {
	i.recordFailure(ctx, span, name, op, domain, time.Since(start), err, reached)
	return Fail[T](name, err)
}

// recordFailure logs and counts a failed call. Only failures that reached the
// provider and look transient count against the breaker.
func (i *Instrumented) recordFailure(ctx context.Context, span trace.Span, name, op, domain string, elapsed time.Duration, err error, reached bool) {
	category := CategoryOf(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(category))
	span.SetAttributes(attribute.String("registrar.error_category", string(category)))

	if reached && i.breaker != nil && IsRetryable(err) {
		if _, change := i.breaker.RecordFailure(); change.Opened {
			i.metrics.SetBreakerOpen(name, true)
			i.logger.WarnContext(ctx, "registrar circuit breaker opened", "registrar", name)
		}
	}
	i.metrics.ObserveCall(name, op, string(category), elapsed)

	level := slog.LevelError
	switch category {
	case ErrorBadData, ErrorBusiness, ErrorNotFound:
		level = slog.LevelWarn
	}
	i.logger.Log(ctx, level, "registrar call failed",
		"registrar", name,
		"operation", op,
		"domain", domain,
		"category", string(category),
		"duration_ms", elapsed.Milliseconds(),
		"error", err,
	)
}

func (i *Instrumented) recordSuccess(name string) {
	if i.breaker == nil {
		return
	}
	if _, change := i.breaker.RecordSuccess(); change.Closed {
		i.metrics.SetBreakerOpen(name, false)
	}
}

func (i *Instrumented) CheckAvailability(ctx context.Context, domain string) (*Result[Availability], error) {
	domain = NormalizeDomain(domain)
	name := i.next.Name()
	if i.cache != nil && ValidateDomain(domain) == nil {
		a, ok, err := i.cache.Get(ctx, name, domain)
		if err != nil {
			i.logger.WarnContext(ctx, "availability cache read failed", "registrar", name, "domain", domain, "error", err)
		}
		i.metrics.IncAvailabilityCache(name, ok)
		if ok {
			return OK(name, *a, "cached"), nil
		}
	}
	res, err := call(ctx, i, "check_availability", domain,
		func() error { return ValidateDomain(domain) },
		func(ctx context.Context) (*Result[Availability], error) {
			return i.next.CheckAvailability(ctx, domain)
		})
	if err == nil && i.cache != nil {
		a := res.Data
		if setErr := i.cache.Set(ctx, name, domain, &a, i.availabilityTTL); setErr != nil {
			i.logger.WarnContext(ctx, "availability cache write failed", "registrar", name, "domain", domain, "error", setErr)
		}
	}
	return res, err
}

func (i *Instrumented) Register(ctx context.Context, params RegisterParams) (*Result[Registration], error) {
	params.Domain = NormalizeDomain(params.Domain)
	if len(params.Nameservers) > 0 {
		params.Nameservers = NormalizeNameservers(params.Nameservers)
	}
	return call(ctx, i, "register", params.Domain,
		func() error { return ValidateRegister(params) },
		func(ctx context.Context) (*Result[Registration], error) {
			return i.next.Register(ctx, params)
		})
}

func (i *Instrumented) Renew(ctx context.Context, domain string, years int) (*Result[Renewal], error) {
	domain = NormalizeDomain(domain)
	return call(ctx, i, "renew", domain,
		func() error { return ValidateRenew(domain, years) },
		func(ctx context.Context) (*Result[Renewal], error) {
			return i.next.Renew(ctx, domain, years)
		})
}

func (i *Instrumented) Transfer(ctx context.Context, domain, authCode string) (*Result[TransferRequest], error) {
	domain = NormalizeDomain(domain)
	return call(ctx, i, "transfer", domain,
		func() error { return ValidateTransfer(domain, authCode) },
		func(ctx context.Context) (*Result[TransferRequest], error) {
			return i.next.Transfer(ctx, domain, authCode)
		})
}

func (i *Instrumented) GetTransferStatus(ctx context.Context, domain string) (*Result[TransferStatus], error) {
	domain = NormalizeDomain(domain)
	return call(ctx, i, "get_transfer_status", domain,
		func() error { return ValidateDomain(domain) },
		func(ctx context.Context) (*Result[TransferStatus], error) {
			return i.next.GetTransferStatus(ctx, domain)
		})
}

func (i *Instrumented) UpdateNameservers(ctx context.Context, domain string, nameservers []string) (*Result[Nameservers], error) {
	domain = NormalizeDomain(domain)
	nameservers = NormalizeNameservers(nameservers)
	return call(ctx, i, "update_nameservers", domain,
		func() error { return joinValidation(ValidateDomain(domain), ValidateNameservers(nameservers)) },
		func(ctx context.Context) (*Result[Nameservers], error) {
			return i.next.UpdateNameservers(ctx, domain, nameservers)
		})
}

func (i *Instrumented) GetContacts(ctx context.Context, domain string) (*Result[Contacts], error) {
	domain = NormalizeDomain(domain)
	return call(ctx, i, "get_contacts", domain,
		func() error { return ValidateDomain(domain) },
		func(ctx context.Context) (*Result[Contacts], error) {
			return i.next.GetContacts(ctx, domain)
		})
}

func (i *Instrumented) UpdateContacts(ctx context.Context, domain string, contacts Contacts) (*Result[Contacts], error) {
	domain = NormalizeDomain(domain)
	return call(ctx, i, "update_contacts", domain,
		func() error { return joinValidation(ValidateDomain(domain), ValidateContacts(contacts)) },
		func(ctx context.Context) (*Result[Contacts], error) {
			return i.next.UpdateContacts(ctx, domain, contacts)
		})
}

func (i *Instrumented) GetDNSRecords(ctx context.Context, domain string) (*Result[[]DNSRecord], error) {
	domain = NormalizeDomain(domain)
	return call(ctx, i, "get_dns_records", domain,
		func() error { return ValidateDomain(domain) },
		func(ctx context.Context) (*Result[[]DNSRecord], error) {
			return i.next.GetDNSRecords(ctx, domain)
		})
}

func (i *Instrumented) UpdateDNSRecords(ctx context.Context, domain string, records []DNSRecord) (*Result[[]DNSRecord], error) {
	domain = NormalizeDomain(domain)
	return call(ctx, i, "update_dns_records", domain,
		func() error { return joinValidation(ValidateDomain(domain), ValidateDNSRecords(records)) },
		func(ctx context.Context) (*Result[[]DNSRecord], error) {
			return i.next.UpdateDNSRecords(ctx, domain, records)
		})
}

func (i *Instrumented) GetInfo(ctx context.Context, domain string) (*Result[DomainInfo], error) {
	domain = NormalizeDomain(domain)
	return call(ctx, i, "get_info", domain,
		func() error { return ValidateDomain(domain) },
		func(ctx context.Context) (*Result[DomainInfo], error) {
			return i.next.GetInfo(ctx, domain)
		})
}

func (i *Instrumented) Lock(ctx context.Context, domain string) (*Result[LockState], error) {
	domain = NormalizeDomain(domain)
	return call(ctx, i, "lock", domain,
		func() error { return ValidateDomain(domain) },
		func(ctx context.Context) (*Result[LockState], error) {
			return i.next.Lock(ctx, domain)
		})
}

func (i *Instrumented) Unlock(ctx context.Context, domain string) (*Result[LockState], error) {
	domain = NormalizeDomain(domain)
	return call(ctx, i, "unlock", domain,
		func() error { return ValidateDomain(domain) },
		func(ctx context.Context) (*Result[LockState], error) {
			return i.next.Unlock(ctx, domain)
		})
}

func (i *Instrumented) TestConnection(ctx context.Context) (*Result[Connection], error) {
	return call(ctx, i, "test_connection", "", nil,
		func(ctx context.Context) (*Result[Connection], error) {
			return i.next.TestConnection(ctx)
		})
}

func (i *Instrumented) GetPricing(ctx context.Context, tld string) (*Result[[]Price], error) {
	return call(ctx, i, "get_pricing", "", func() error { return ValidateTLD(tld) },
		func(ctx context.Context) (*Result[[]Price], error) {
			return i.next.GetPricing(ctx, tld)
		})
}

// joinValidation merges the field lists of several validation results.
func joinValidation(errs ...error) error {
	var fields []FieldError
	for _, err := range errs {
		var ve *ValidationError
		if errors.As(err, &ve) {
			fields = append(fields, ve.Fields...)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

var _ Client = (*Instrumented)(nil)
