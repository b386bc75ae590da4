package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reseller/internal/notify"
	"reseller/internal/pricing"
	"reseller/internal/registrar"
	id "reseller/pkg/domain"
	"reseller/pkg/platform/sentinel"
	"reseller/pkg/requestcontext"
)

const JobPriceSync = "price_sync"

// Price sync counters reported in Result.Counters.
const (
	CounterNew       = "new"
	CounterUpdated   = "updated"
	CounterUnchanged = "unchanged"
	CounterErrored   = "errored"
)

// PriceBook is the slice of the pricing store the price sync appends to.
type PriceBook interface {
	ListActiveTlds(ctx context.Context, registrarID int64) ([]*pricing.Tld, error)
	LatestPrice(ctx context.Context, tldID int64, action pricing.Action, years int, at time.Time) (*pricing.TldPrice, error)
	AppendPrice(ctx context.Context, p *pricing.TldPrice) error
}

// SyncedRegistrars also records when a registrar's prices were last pulled.
type SyncedRegistrars interface {
	Registrars
	ActiveRegistrarIDs(ctx context.Context) ([]int64, error)
	TouchLastSync(ctx context.Context, id int64, at time.Time) error
}

type PriceSyncOptions struct {
	// RegistrarID limits the run to one registrar. Zero syncs every active TLD
	// of every active registrar.
	RegistrarID int64
	DryRun      bool
}

// PriceSync pulls registrar prices and appends a new history row, effective
// today, for every price that is new or changed.
type PriceSync struct {
	runner
	book       PriceBook
	registries SyncedRegistrars
}

func NewPriceSync(registrars SyncedRegistrars, book PriceBook, opts ...Option) (*PriceSync, error) {
	r, err := newRunner(registrars, opts)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, errors.New("pricing store is required")
	}
	return &PriceSync{runner: r, book: book, registries: registrars}, nil
}

type priceCounts struct {
	new, updated, unchanged, errored int
}

func (j *PriceSync) Run(ctx context.Context, opts PriceSyncOptions) (*Result, error) {
	ctx, res, span := j.start(ctx, JobPriceSync, opts.DryRun)
	now := requestcontext.Now(ctx).UTC()
	tlds, err := j.book.ListActiveTlds(ctx, opts.RegistrarID)
	if err != nil {
		j.abort(ctx, res, span, err)
		return nil, fmt.Errorf("select tlds: %w", err)
	}
	if opts.RegistrarID == 0 {
		if tlds, err = j.activeOnly(ctx, tlds); err != nil {
			j.abort(ctx, res, span, err)
			return nil, err
		}
	}

	synced := make(map[int64]bool)
	j.each(ctx, res, len(tlds), j.delay, func(ctx context.Context, i int) ItemResult {
		tld := tlds[i]
		item, counts, fetched := j.syncTld(ctx, tld, opts.DryRun, now)
		res.count(CounterNew, counts.new)
		res.count(CounterUpdated, counts.updated)
		res.count(CounterUnchanged, counts.unchanged)
		res.count(CounterErrored, counts.errored)
		if fetched {
			synced[tld.RegistrarID] = true
		}
		return item
	})

	if !opts.DryRun {
		for registrarID := range synced {
			if err := j.registries.TouchLastSync(ctx, registrarID, now); err != nil {
				j.logger.WarnContext(ctx, "failed to record registrar price sync",
					"registrar_id", registrarID,
					"error", err,
				)
			}
		}
	}
	j.finish(ctx, res, span)
	return res, nil
}

// activeOnly drops TLDs whose registrar is inactive.
func (j *PriceSync) activeOnly(ctx context.Context, tlds []*pricing.Tld) ([]*pricing.Tld, error) {
	ids, err := j.registries.ActiveRegistrarIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active registrars: %w", err)
	}
	active := make(map[int64]bool, len(ids))
	for _, rid := range ids {
		active[rid] = true
	}
	out := tlds[:0:0]
	for _, t := range tlds {
		if active[t.RegistrarID] {
			out = append(out, t)
		}
	}
	if skipped := len(tlds) - len(out); skipped > 0 {
		j.logger.DebugContext(ctx, "skipping tlds of inactive registrars", "count", skipped)
	}
	return out, nil
}

func (j *PriceSync) syncTld(ctx context.Context, tld *pricing.Tld, dryRun bool, now time.Time) (ItemResult, priceCounts, bool) {
	var counts priceCounts
	item := ItemResult{TLD: tld.Extension}
	client, err := j.registries.GetByID(ctx, tld.RegistrarID)
	if err != nil {
		return failItem(item, &registrarError{err: err}), counts, false
	}
	prices, err := client.GetPricing(ctx, tld.Extension)
	if err != nil {
		return failItem(item, err), counts, false
	}

	today := pricing.DateOf(now)
	changes := make([]map[string]any, 0)
	for _, p := range prices.Data {
		kind, change, err := j.syncPrice(ctx, tld, p, today, dryRun)
		if err != nil {
			counts.errored++
			j.logger.WarnContext(ctx, "registrar price skipped",
				"tld", tld.Extension,
				"action", p.Action,
				"years", p.Years,
				"error", err,
			)
			continue
		}
		switch kind {
		case CounterNew:
			counts.new++
		case CounterUpdated:
			counts.updated++
		default:
			counts.unchanged++
			continue
		}
		changes = append(changes, change)
	}

	item.Message = fmt.Sprintf("%d new, %d updated, %d unchanged, %d errored",
		counts.new, counts.updated, counts.unchanged, counts.errored)
	switch {
	case len(changes) > 0:
		item.Outcome = OutcomeSucceeded
	case counts.unchanged > 0 || counts.errored == 0:
		item.Outcome = OutcomeUnchanged
	default:
		item.Outcome = OutcomeFailed
		item.ErrorCategory = string(registrar.ErrorBadData)
		item.Error = "no usable prices returned"
	}
	if len(changes) > 0 && !dryRun {
		j.publish(ctx, notify.NewEvent(ctx, notify.EventRegistrarPriceChange, id.PartnerID{}, map[string]any{
			"registrar_id": tld.RegistrarID,
			"tld":          tld.Extension,
			"changes":      changes,
		}))
	}
	return item, counts, true
}

// syncPrice compares one registrar price with the row in effect today and
// appends a replacement when it differs.
func (j *PriceSync) syncPrice(ctx context.Context, tld *pricing.Tld, p registrar.Price, today time.Time, dryRun bool) (string, map[string]any, error) {
	action, err := pricing.ParseAction(p.Action)
	if err != nil {
		return "", nil, err
	}
	if !tld.AllowsYears(p.Years) {
		return "", nil, fmt.Errorf("%d years outside %d-%d", p.Years, tld.MinYears, tld.MaxYears)
	}
	if !p.Amount.IsPositive() {
		return "", nil, fmt.Errorf("price %s is not positive", p.Amount)
	}
	amount := p.Amount.Round(2)

	kind := CounterUpdated
	change := map[string]any{
		"action": string(action),
		"years":  p.Years,
		"price":  amount.StringFixed(2),
	}
	latest, err := j.book.LatestPrice(ctx, tld.ID, action, p.Years, today)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		kind = CounterNew
	case err != nil:
		return "", nil, fmt.Errorf("load current price: %w", err)
	case latest.Price.Equal(amount):
		return CounterUnchanged, nil, nil
	default:
		change["previous"] = latest.Price.StringFixed(2)
	}
	if dryRun {
		return kind, change, nil
	}
	if err := j.book.AppendPrice(ctx, &pricing.TldPrice{
		TldID:         tld.ID,
		Action:        action,
		Years:         p.Years,
		Price:         amount,
		EffectiveDate: today,
	}); err != nil {
		return "", nil, fmt.Errorf("append price: %w", err)
	}
	return kind, change, nil
}
