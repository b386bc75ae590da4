package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"reseller/internal/pricing/metrics"
	id "reseller/pkg/domain"
	dErrors "reseller/pkg/domain-errors"
	"reseller/pkg/platform/sentinel"
	"reseller/pkg/requestcontext"
)

// ErrNoPrice means the TLD is not sellable for the action/years on the date.
// It is a business signal, not an infrastructure failure.
var ErrNoPrice = errors.New("no active price")

// Store reads and appends pricing data.
type Store interface {
	// PriceHistory returns every row for one (tld, action, years) series.
	PriceHistory(ctx context.Context, tldID int64, action Action, years int) ([]TldPrice, error)
	// LatestPrice returns the row in effect on at, or sentinel.ErrNotFound.
	LatestPrice(ctx context.Context, tldID int64, action Action, years int, at time.Time) (*TldPrice, error)
	AppendPrice(ctx context.Context, p *TldPrice) error
	ListRules(ctx context.Context, partnerID id.PartnerID) ([]Rule, error)
	SaveRule(ctx context.Context, r *Rule) error
	CreateTld(ctx context.Context, t *Tld) error
	FindTld(ctx context.Context, tldID int64) (*Tld, error)
	FindTldByExtension(ctx context.Context, registrarID int64, extension string) (*Tld, error)
	ListActiveTlds(ctx context.Context, registrarID int64) ([]*Tld, error)
}

// Engine resolves base prices and partner markups.
type Engine struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func NewEngine(store Store, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New("pricing store is required")
	}
	e := &Engine{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// BasePrice returns the registrar price in effect on the UTC date of at.
func (e *Engine) BasePrice(ctx context.Context, tldID int64, action Action, years int, at time.Time) (*TldPrice, error) {
	if !action.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown pricing action %q", action))
	}
	p, err := e.store.LatestPrice(ctx, tldID, action, years, DateOf(at))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, fmt.Errorf("tld %d %s %dy on %s: %w", tldID, action, years, DateOf(at).Format(time.DateOnly), ErrNoPrice)
		}
		return nil, fmt.Errorf("load base price: %w", err)
	}
	return p, nil
}

// ResolveRule returns the partner's winning markup rule, or nil.
func (e *Engine) ResolveRule(ctx context.Context, partnerID id.PartnerID, tldID int64, years int) (*Rule, error) {
	rules, err := e.store.ListRules(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("load pricing rules: %w", err)
	}
	return SelectRule(rules, tldID, years), nil
}

// Quote resolves the final price for a partner at the request time.
func (e *Engine) Quote(ctx context.Context, partnerID id.PartnerID, tldID int64, action Action, years int) (*Quote, error) {
	return e.QuoteAt(ctx, partnerID, tldID, action, years, requestcontext.Now(ctx))
}

// QuoteAt resolves the final price for a partner on a given date.
func (e *Engine) QuoteAt(ctx context.Context, partnerID id.PartnerID, tldID int64, action Action, years int, at time.Time) (*Quote, error) {
	tld, err := e.store.FindTld(ctx, tldID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, fmt.Errorf("tld %d: %w", tldID, ErrNoPrice)
	case err != nil:
		return nil, fmt.Errorf("load tld: %w", err)
	}
	if !tld.AllowsYears(years) {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("%d years outside %d-%d for .%s", years, tld.MinYears, tld.MaxYears, tld.Extension))
	}

	base, err := e.BasePrice(ctx, tldID, action, years, at)
	if err != nil {
		e.metrics.IncQuote(string(action), "no_price")
		return nil, err
	}
	rule, err := e.ResolveRule(ctx, partnerID, tldID, years)
	if err != nil {
		e.metrics.IncQuote(string(action), "error")
		return nil, err
	}
	final := ApplyMarkup(base.Price, rule)
	q := &Quote{
		TldID:  tldID,
		Action: action,
		Years:  years,
		Base:   base.Price,
		Markup: final.Sub(base.Price),
		Final:  final,
		Rule:   rule,
	}
	e.metrics.IncQuote(string(action), "ok")
	e.logger.DebugContext(ctx, "price quoted",
		"partner_id", partnerID.String(),
		"tld_id", tldID,
		"action", action,
		"years", years,
		"base", q.Base.StringFixed(2),
		"final", q.Final.StringFixed(2),
	)
	return q, nil
}
